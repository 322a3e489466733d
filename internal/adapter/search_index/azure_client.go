package search_index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

const azureBackendName = "azure"

// AzureSearchClient queries an Azure Cognitive Search index over its REST API.
type AzureSearchClient struct {
	Endpoint   string
	Index      string
	APIKey     string
	APIVersion string
	Client     *http.Client
	logger     *slog.Logger
}

func NewAzureSearchClient(endpoint, index, apiKey, apiVersion string, client *http.Client, logger *slog.Logger) *AzureSearchClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AzureSearchClient{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Index:      index,
		APIKey:     apiKey,
		APIVersion: apiVersion,
		Client:     client,
		logger:     logger,
	}
}

type azureSearchRequest struct {
	Search       string `json:"search"`
	SearchFields string `json:"searchFields,omitempty"`
	Highlight    string `json:"highlight,omitempty"`
	Select       string `json:"select,omitempty"`
	Top          int    `json:"top,omitempty"`
}

type azureSearchResponse struct {
	Value []azureHit `json:"value"`
}

type azureHit struct {
	Score      float64             `json:"@search.score"`
	Highlights map[string][]string `json:"@search.highlights"`
	Paragraphs []string            `json:"paragraphs"`
	domain.SourceMetadata
}

func (c *AzureSearchClient) Name() string {
	return azureBackendName
}

func (c *AzureSearchClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Hit, error) {
	payload, err := json.Marshal(azureSearchRequest{
		Search:       req.Text,
		SearchFields: strings.Join(req.SearchFields, ","),
		Highlight:    strings.Join(req.HighlightFields, ","),
		Select:       strings.Join(req.SelectFields, ","),
		Top:          req.Top,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/docs/search"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.APIKey)

	start := time.Now()
	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("azure search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.ClientError{Op: "azure search", StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	var sResp azureSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]domain.Hit, len(sResp.Value))
	for i, v := range sResp.Value {
		hits[i] = domain.Hit{
			Score:      v.Score,
			Paragraphs: v.Paragraphs,
			Highlights: v.Highlights,
			Source:     v.SourceMetadata,
		}
	}

	c.logger.DebugContext(ctx, "azure_search_completed",
		slog.String("index", c.Index),
		slog.Int("hit_count", len(hits)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return hits, nil
}

// Ping counts the documents of the index, which needs a valid key and an
// existing index.
func (c *AzureSearchClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/docs/$count"), nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}
	req.Header.Set("api-key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("azure search ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &domain.ClientError{Op: "azure search ping", StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}
	return nil
}

func (c *AzureSearchClient) url(path string) string {
	q := url.Values{}
	q.Set("api-version", c.APIVersion)
	return fmt.Sprintf("%s/indexes/%s%s?%s", c.Endpoint, url.PathEscape(c.Index), path, q.Encode())
}
