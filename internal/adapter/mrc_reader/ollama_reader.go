package mrc_reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	extractionTemperature = 0.0
	defaultConcurrency    = 4
)

var extractionFormat = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"found":  map[string]interface{}{"type": "boolean"},
		"answer": map[string]interface{}{"type": "string"},
	},
	"required": []string{"found", "answer"},
}

const extractionPrompt = `You extract answers from a passage.
Return the shortest span of the passage that answers the question, copied verbatim.
If the passage does not answer the question, set "found" to false and "answer" to "".

Question: %s

Passage: %s`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string                 `json:"model"`
	Messages  []chatMessage          `json:"messages"`
	Stream    bool                   `json:"stream"`
	KeepAlive string                 `json:"keep_alive,omitempty"`
	Format    map[string]interface{} `json:"format"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

type extraction struct {
	Found  bool   `json:"found"`
	Answer string `json:"answer"`
}

// OllamaReader asks an Ollama chat model for one extractive answer per
// passage. Answers that do not occur verbatim in their passage are reported
// as no answer.
type OllamaReader struct {
	BaseURL     string
	Model       string
	Client      *http.Client
	Concurrency int
	logger      *slog.Logger
}

// NewOllamaReader creates a reader. An optional client replaces the default
// one built from timeout.
func NewOllamaReader(baseURL, model string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *OllamaReader {
	httpClient := &http.Client{Timeout: timeout}
	if len(client) > 0 && client[0] != nil {
		httpClient = client[0]
	}
	return &OllamaReader{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Client:      httpClient,
		Concurrency: defaultConcurrency,
		logger:      logger,
	}
}

func (r *OllamaReader) Extract(ctx context.Context, question string, passages []string) (map[int]string, error) {
	answers := make(map[int]string, len(passages))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Concurrency))
	for i, passage := range passages {
		g.Go(func() error {
			answer, err := r.extractOne(gctx, question, passage)
			if err != nil {
				return fmt.Errorf("passage %d: %w", i, err)
			}
			mu.Lock()
			answers[i] = answer
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *OllamaReader) extractOne(ctx context.Context, question, passage string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:     r.Model,
		Messages:  []chatMessage{{Role: "user", Content: fmt.Sprintf(extractionPrompt, question, passage)}},
		Stream:    false,
		KeepAlive: "10m",
		Format:    extractionFormat,
		Options:   map[string]interface{}{"temperature": extractionTemperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &domain.ClientError{Op: "ollama chat", StatusCode: resp.StatusCode, Body: truncateString(string(body), 500)}
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	var out extraction
	if err := json.Unmarshal([]byte(cResp.Message.Content), &out); err != nil {
		r.logger.WarnContext(ctx, "extraction_unparseable",
			slog.String("content", truncateString(cResp.Message.Content, 200)))
		return domain.NoAnswerToken, nil
	}

	answer := strings.TrimSpace(out.Answer)
	if !out.Found || answer == "" || !strings.Contains(passage, answer) {
		return domain.NoAnswerToken, nil
	}
	return answer, nil
}

func (r *OllamaReader) ModelName() string {
	return r.Model
}
