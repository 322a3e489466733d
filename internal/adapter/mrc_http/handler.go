package mrc_http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/logger"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase"
)

// NoQuestionMessage is returned with 200 when a request carries no question.
const NoQuestionMessage = "This HTTP triggered function executed successfully. Pass a question in the query string or in the request body for a personalized response."

// AnswerResponse is the JSON body of a successful question.
type AnswerResponse struct {
	Answers []domain.AnswerRecord `json:"answers"`
	Counts  domain.AnswerCounts   `json:"counts"`
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	answerUsecase usecase.AnswerQuestionUsecase
	defaults      Defaults
	index         Pinger
	log           *logger.ContextLogger
}

func NewHandler(answerUsecase usecase.AnswerQuestionUsecase, defaults Defaults, index Pinger, log *logger.ContextLogger) *Handler {
	return &Handler{
		answerUsecase: answerUsecase,
		defaults:      defaults,
		index:         index,
		log:           log,
	}
}

// AnswerQuestion serves GET and POST /api/mrc.
func (h *Handler) AnswerQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	params, err := ParseParams(c.Request(), h.defaults)
	if err != nil {
		h.log.WithContext(ctx).Info("invalid_request_parameters", "error", err)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), RequestID: logger.RequestIDFrom(ctx)})
	}

	out, err := h.answerUsecase.Execute(ctx, usecase.AnswerQuestionInput{
		Question:     params.Question,
		Documents:    params.Documents,
		Threshold:    params.Threshold,
		Tokenize:     params.Tokenize,
		RerankBudget: params.RerankBudget,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	answers := out.Answers
	if answers == nil {
		answers = []domain.AnswerRecord{}
	}
	return c.JSON(http.StatusOK, AnswerResponse{Answers: answers, Counts: out.Counts})
}

func (h *Handler) handleError(c echo.Context, err error) error {
	ctx := c.Request().Context()
	requestID := logger.RequestIDFrom(ctx)

	if errors.Is(err, domain.ErrNoQuestion) {
		return c.String(http.StatusOK, NoQuestionMessage)
	}
	if errors.Is(err, domain.ErrInvalidParameter) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), RequestID: requestID})
	}

	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	resp := ErrorResponse{Error: err.Error(), RequestID: requestID}
	var pipelineErr *domain.PipelineError
	if errors.As(err, &pipelineErr) {
		resp.Stage = string(pipelineErr.Stage)
	} else if !errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusInternalServerError
	}

	h.log.WithContext(ctx).Error("answer_question_failed",
		"error", err,
		"stage", resp.Stage,
		"status", status,
	)
	return c.JSON(status, resp)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the search backend answers.
func (h *Handler) Readyz(c echo.Context) error {
	if h.index != nil {
		if err := h.index.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "search index down", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// OpenAPIDocument serves the embedded contract.
func (h *Handler) OpenAPIDocument(c echo.Context) error {
	return c.Blob(http.StatusOK, "application/yaml", OpenAPISpec())
}
