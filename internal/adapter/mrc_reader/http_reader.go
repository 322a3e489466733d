package mrc_reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

// ExtractRequest is the payload of the reader service's extract endpoint.
type ExtractRequest struct {
	Question string   `json:"question"`
	Contexts []string `json:"contexts"`
}

// ExtractResponse maps stringified passage indices to answer spans.
type ExtractResponse struct {
	Predictions map[string]string `json:"predictions"`
	Model       string            `json:"model,omitempty"`
}

// HTTPReaderClient calls a SQuAD-style extractive QA service.
type HTTPReaderClient struct {
	BaseURL string
	Model   string
	Client  *http.Client
	logger  *slog.Logger
}

// NewHTTPReaderClient constructs a reader client. If client is nil a default
// http.Client with the given timeout is used.
func NewHTTPReaderClient(baseURL, model string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *HTTPReaderClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &HTTPReaderClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  c,
		logger:  logger,
	}
}

func (c *HTTPReaderClient) Extract(ctx context.Context, question string, passages []string) (map[int]string, error) {
	if len(passages) == 0 {
		return map[int]string{}, nil
	}
	start := time.Now()

	payload, err := json.Marshal(ExtractRequest{Question: question, Contexts: passages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call extract endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.WarnContext(ctx, "extraction_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, &domain.ClientError{Op: "reader extract", StatusCode: resp.StatusCode, Body: truncateString(string(body), 500)}
	}

	var eResp ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&eResp); err != nil {
		return nil, fmt.Errorf("failed to decode extract response: %w", err)
	}

	answers := make(map[int]string, len(eResp.Predictions))
	for key, answer := range eResp.Predictions {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(passages) {
			c.logger.WarnContext(ctx, "extraction_key_ignored", slog.String("key", key))
			continue
		}
		answers[i] = answer
	}

	c.logger.DebugContext(ctx, "extraction_response_received",
		slog.Int("prediction_count", len(answers)),
		slog.String("model", eResp.Model),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return answers, nil
}

func (c *HTTPReaderClient) ModelName() string {
	return c.Model
}

func truncateString(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
