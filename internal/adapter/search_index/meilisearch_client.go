package search_index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"

	"github.com/meilisearch/meilisearch-go"
)

const (
	meiliBackendName = "meilisearch"
	meiliCropMarker  = "…"
	meiliCropLength  = 40
	meiliPreTag      = "<em>"
	meiliPostTag     = "</em>"
)

// MeilisearchClient queries a Meilisearch index. Highlights are the cropped
// and emphasised paragraph fragments Meilisearch returns in _formatted.
type MeilisearchClient struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
	logger *slog.Logger
}

func NewMeilisearchClient(client meilisearch.ServiceManager, indexName string, logger *slog.Logger) *MeilisearchClient {
	return &MeilisearchClient{
		client: client,
		index:  client.Index(indexName),
		logger: logger,
	}
}

func (c *MeilisearchClient) Name() string {
	return meiliBackendName
}

func (c *MeilisearchClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Hit, error) {
	specs := parseHighlightFields(req.HighlightFields)
	fields := highlightFieldNames(specs)

	result, err := c.index.SearchWithContext(ctx, req.Text, &meilisearch.SearchRequest{
		Limit:                 int64(req.Top),
		AttributesToSearchOn:  req.SearchFields,
		AttributesToRetrieve:  req.SelectFields,
		AttributesToHighlight: fields,
		AttributesToCrop:      fields,
		CropLength:            meiliCropLength,
		CropMarker:            meiliCropMarker,
		HighlightPreTag:       meiliPreTag,
		HighlightPostTag:      meiliPostTag,
		ShowRankingScore:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search failed: %w", err)
	}

	hits := make([]domain.Hit, 0, len(result.Hits))
	for i, raw := range result.Hits {
		hit, err := decodeMeiliHit(raw, specs)
		if err != nil {
			c.logger.WarnContext(ctx, "meilisearch_hit_skipped",
				slog.Int("hit_index", i),
				slog.String("error", err.Error()))
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (c *MeilisearchClient) Ping(ctx context.Context) error {
	health, err := c.client.HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("meilisearch health check failed: %w", err)
	}
	if health.Status != "available" {
		return fmt.Errorf("meilisearch status %q", health.Status)
	}
	return nil
}

func decodeMeiliHit(raw meilisearch.Hit, specs []highlightSpec) (domain.Hit, error) {
	var hit domain.Hit

	if v, ok := raw["_rankingScore"]; ok {
		if err := json.Unmarshal(v, &hit.Score); err != nil {
			return hit, fmt.Errorf("decode _rankingScore: %w", err)
		}
	}
	if v, ok := raw[domain.ParagraphsField]; ok {
		if err := json.Unmarshal(v, &hit.Paragraphs); err != nil {
			return hit, fmt.Errorf("decode paragraphs: %w", err)
		}
	}
	hit.Source = domain.SourceMetadata{
		DocumentID:  rawString(raw, "document_id"),
		Title:       rawString(raw, "title"),
		DocumentURI: rawString(raw, "document_uri"),
		StorageName: rawString(raw, "metadata_storage_name"),
	}

	formatted := map[string]json.RawMessage{}
	if v, ok := raw["_formatted"]; ok {
		if err := json.Unmarshal(v, &formatted); err != nil {
			return hit, fmt.Errorf("decode _formatted: %w", err)
		}
	}

	hit.Highlights = make(map[string][]string, len(specs))
	for _, spec := range specs {
		var values []string
		if v, ok := formatted[spec.Field]; ok {
			if err := json.Unmarshal(v, &values); err != nil {
				var single string
				if json.Unmarshal(v, &single) != nil {
					continue
				}
				values = []string{single}
			}
		}
		var fragments []string
		for _, v := range values {
			if !strings.Contains(v, meiliPreTag) {
				continue
			}
			fragments = append(fragments, trimCropMarkers(v))
		}
		hit.Highlights[spec.Field] = capFragments(fragments, spec.Max)
	}
	return hit, nil
}

func rawString(raw meilisearch.Hit, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

func trimCropMarkers(s string) string {
	s = strings.TrimPrefix(s, meiliCropMarker)
	s = strings.TrimSuffix(s, meiliCropMarker)
	return strings.TrimSpace(s)
}
