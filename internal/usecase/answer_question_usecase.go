package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/logger"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/metrics"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase/retrieval"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mrc-orchestrator/usecase"

type answerQuestionUsecase struct {
	index      domain.SearchIndex
	normalizer *retrieval.Normalizer
	reranker   domain.PassageReranker
	reader     domain.AnswerExtractor
	cfg        AnswerQuestionConfig
	log        *logger.ContextLogger
	tracer     trace.Tracer
}

// NewAnswerQuestionUsecase wires the retrieval, reranking and extraction
// stages into one pipeline.
func NewAnswerQuestionUsecase(
	index domain.SearchIndex,
	normalizer *retrieval.Normalizer,
	reranker domain.PassageReranker,
	reader domain.AnswerExtractor,
	cfg AnswerQuestionConfig,
	log *slog.Logger,
) AnswerQuestionUsecase {
	return &answerQuestionUsecase{
		index:      index,
		normalizer: normalizer,
		reranker:   reranker,
		reader:     reader,
		cfg:        cfg,
		log:        logger.NewContextLogger(log),
		tracer:     otel.Tracer(tracerName),
	}
}

func (u *answerQuestionUsecase) Execute(ctx context.Context, input AnswerQuestionInput) (*AnswerQuestionOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		metrics.RecordOutcome(string(domain.StageNoQuestion), 0, 0)
		return nil, domain.ErrNoQuestion
	}

	requestID := logger.RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
	}

	ctx, span := u.tracer.Start(ctx, "mrc.answer_question", trace.WithAttributes(
		attribute.String("mrc.request.id", requestID),
		attribute.Int("mrc.documents", input.Documents),
		attribute.Int("mrc.rerank_budget", input.RerankBudget),
	))
	defer span.End()

	out, err := u.run(ctx, question, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	out.RequestID = requestID
	span.SetAttributes(
		attribute.String("mrc.stage", string(out.Stage)),
		attribute.Int("mrc.answers", out.Counts.Answers),
	)
	return out, nil
}

func (u *answerQuestionUsecase) run(ctx context.Context, question string, input AnswerQuestionInput) (*AnswerQuestionOutput, error) {
	candidates, err := u.retrieve(ctx, question, input)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		u.log.WithContext(logger.WithProcessingStage(ctx, string(domain.StageEmpty))).InfoContext(ctx, "no_candidate_passages")
		metrics.RecordOutcome(string(domain.StageEmpty), 0, 0)
		return &AnswerQuestionOutput{Answers: []domain.AnswerRecord{}, Stage: domain.StageEmpty}, nil
	}
	retrieved := len(candidates)

	if len(candidates) > input.RerankBudget {
		candidates, err = u.rerank(ctx, question, candidates, input.RerankBudget)
		if err != nil {
			return nil, err
		}
	}

	answers, err := u.extract(ctx, question, candidates)
	if err != nil {
		return nil, err
	}

	stageCtx := logger.WithProcessingStage(ctx, string(domain.StageResponding))
	records := make([]domain.AnswerRecord, 0, len(candidates))
	for i, passage := range candidates {
		answer, ok := answers[i]
		if !ok || domain.IsNoAnswer(answer) {
			continue
		}
		records = append(records, domain.NewAnswerRecord(answer, passage.Source))
	}

	u.log.WithContext(stageCtx).InfoContext(ctx, "question_answered",
		slog.Int("candidate_count", retrieved),
		slog.Int("document_count", len(candidates)),
		slog.Int("answer_count", len(records)))
	metrics.RecordOutcome(string(domain.StageDone), retrieved, len(records))

	return &AnswerQuestionOutput{
		Answers: records,
		Counts: domain.AnswerCounts{
			Documents: len(candidates),
			Answers:   len(records),
		},
		Stage: domain.StageDone,
	}, nil
}

func (u *answerQuestionUsecase) retrieve(ctx context.Context, question string, input AnswerQuestionInput) (domain.CandidateSet, error) {
	ctx = logger.WithProcessingStage(ctx, string(domain.StageRetrieving))
	ctx, span := u.tracer.Start(ctx, "mrc.retrieve")
	defer span.End()
	start := time.Now()

	searchCtx, cancel := withTimeout(ctx, u.cfg.SearchTimeout)
	hits, err := u.index.Search(searchCtx, domain.SearchRequest{
		Text:            question,
		SearchFields:    u.cfg.SearchFields,
		HighlightFields: u.cfg.HighlightFields,
		SelectFields:    u.cfg.SelectFields,
		Top:             input.Documents,
	})
	cancel()
	if err != nil {
		return nil, u.fail(ctx, span, domain.StageRetrieving, err)
	}

	candidates := u.normalizer.Normalize(ctx, hits, retrieval.NormalizeOptions{
		ScoreThreshold: input.Threshold,
		Tokenize:       input.Tokenize,
	}, retrieval.NewPassageSet())

	elapsed := time.Since(start)
	metrics.RecordStage(string(domain.StageRetrieving), elapsed.Seconds())
	span.SetAttributes(attribute.Int("mrc.hits", len(hits)), attribute.Int("mrc.candidates", len(candidates)))
	u.log.WithContext(ctx).InfoContext(ctx, "retrieval_completed",
		slog.String("backend", u.index.Name()),
		slog.Int("hit_count", len(hits)),
		slog.Int("candidate_count", len(candidates)),
		slog.Int64("duration_ms", elapsed.Milliseconds()))

	return candidates, nil
}

func (u *answerQuestionUsecase) rerank(ctx context.Context, question string, candidates domain.CandidateSet, budget int) (domain.CandidateSet, error) {
	ctx = logger.WithProcessingStage(ctx, string(domain.StageReranking))
	ctx, span := u.tracer.Start(ctx, "mrc.rerank")
	defer span.End()
	start := time.Now()

	reranked, err := u.reranker.Rerank(ctx, question, candidates, budget)
	if err != nil {
		return nil, u.fail(ctx, span, domain.StageReranking, err)
	}

	metrics.RecordStage(string(domain.StageReranking), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("mrc.kept", len(reranked)))
	return reranked, nil
}

func (u *answerQuestionUsecase) extract(ctx context.Context, question string, candidates domain.CandidateSet) (map[int]string, error) {
	ctx = logger.WithProcessingStage(ctx, string(domain.StageExtracting))
	ctx, span := u.tracer.Start(ctx, "mrc.extract")
	defer span.End()
	start := time.Now()

	readerCtx, cancel := withTimeout(ctx, u.cfg.ReaderTimeout)
	answers, err := u.reader.Extract(readerCtx, question, candidates.Texts())
	cancel()
	if err != nil {
		return nil, u.fail(ctx, span, domain.StageExtracting, err)
	}

	elapsed := time.Since(start)
	metrics.RecordStage(string(domain.StageExtracting), elapsed.Seconds())
	u.log.WithContext(ctx).InfoContext(ctx, "extraction_completed",
		slog.String("model", u.reader.ModelName()),
		slog.Int("passage_count", len(candidates)),
		slog.Int64("duration_ms", elapsed.Milliseconds()))
	return answers, nil
}

func (u *answerQuestionUsecase) fail(ctx context.Context, span trace.Span, stage domain.Stage, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.RecordError(string(stage))
	u.log.WithContext(ctx).ErrorContext(ctx, "pipeline_stage_failed",
		slog.String("stage", string(stage)),
		slog.String("error", err.Error()))
	return &domain.PipelineError{Stage: stage, Err: err}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
