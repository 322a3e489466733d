package search_index

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveHTML "github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	bleveBackendName = "bleve"
	bleveEllipsis    = "…"
	bleveBatchSize   = 500
)

var markToEmphasis = strings.NewReplacer("<mark>", "<em>", "</mark>", "</em>")

// BleveIndex is an embedded full-text index. It serves local development
// and the command-line tooling without an external search service.
type BleveIndex struct {
	index  bleve.Index
	logger *slog.Logger
}

// NewDocumentMapping returns the mapping used for MRC documents: English
// analysis on paragraphs, keyword fields for identifiers.
func NewDocumentMapping() mapping.IndexMapping {
	indexMapping := mapping.NewIndexMapping()

	docMapping := mapping.NewDocumentMapping()

	paragraphs := mapping.NewTextFieldMapping()
	paragraphs.Analyzer = en.AnalyzerName
	paragraphs.Store = true
	paragraphs.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.ParagraphsField, paragraphs)

	title := mapping.NewTextFieldMapping()
	title.Store = true
	docMapping.AddFieldMappingsAt("title", title)

	for _, field := range []string{"document_id", "document_uri", "metadata_storage_name"} {
		keyword := mapping.NewKeywordFieldMapping()
		keyword.Store = true
		docMapping.AddFieldMappingsAt(field, keyword)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// NewMemBleveIndex creates an in-memory index.
func NewMemBleveIndex(logger *slog.Logger) (*BleveIndex, error) {
	idx, err := bleve.NewMemOnly(NewDocumentMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &BleveIndex{index: idx, logger: logger}, nil
}

// OpenBleveIndex opens the index at path, creating it when it does not exist.
func OpenBleveIndex(path string, logger *slog.Logger) (*BleveIndex, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, NewDocumentMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening bleve index %s: %w", path, err)
	}
	return &BleveIndex{index: idx, logger: logger}, nil
}

func (b *BleveIndex) Name() string {
	return bleveBackendName
}

func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// Count returns the number of indexed documents.
func (b *BleveIndex) Count() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveIndex) Ping(ctx context.Context) error {
	if _, err := b.index.DocCount(); err != nil {
		return fmt.Errorf("bleve index unavailable: %w", err)
	}
	return ctx.Err()
}

// IndexDocuments adds or replaces documents keyed by DocumentID.
func (b *BleveIndex) IndexDocuments(ctx context.Context, docs []domain.Document) error {
	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if doc.ID == "" {
			return fmt.Errorf("document without id: %q", doc.Title)
		}
		if err := batch.Index(doc.ID, map[string]interface{}{
			domain.ParagraphsField:  doc.Paragraphs,
			"title":                 doc.Title,
			"document_id":           doc.ID,
			"document_uri":          doc.URI,
			"metadata_storage_name": doc.StorageName,
		}); err != nil {
			return fmt.Errorf("batching document %s: %w", doc.ID, err)
		}
		if batch.Size() >= bleveBatchSize {
			if err := b.index.Batch(batch); err != nil {
				return fmt.Errorf("writing batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("writing batch: %w", err)
		}
	}
	return nil
}

func (b *BleveIndex) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Hit, error) {
	specs := parseHighlightFields(req.HighlightFields)

	sreq := bleve.NewSearchRequestOptions(buildMatchQuery(req.Text, req.SearchFields), req.Top, 0, false)
	sreq.Fields = req.SelectFields
	sreq.Highlight = bleve.NewHighlightWithStyle(bleveHTML.Name)
	sreq.Highlight.Fields = highlightFieldNames(specs)

	res, err := b.index.SearchInContext(ctx, sreq)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]domain.Hit, 0, len(res.Hits))
	for _, m := range res.Hits {
		hit := domain.Hit{
			Score:      m.Score,
			Paragraphs: fieldStrings(m.Fields[domain.ParagraphsField]),
			Highlights: make(map[string][]string, len(specs)),
			Source: domain.SourceMetadata{
				DocumentID:  fieldString(m.Fields["document_id"]),
				Title:       fieldString(m.Fields["title"]),
				DocumentURI: fieldString(m.Fields["document_uri"]),
				StorageName: fieldString(m.Fields["metadata_storage_name"]),
			},
		}
		if hit.Source.DocumentID == "" {
			hit.Source.DocumentID = m.ID
		}
		for _, spec := range specs {
			fragments := make([]string, 0, len(m.Fragments[spec.Field]))
			for _, f := range m.Fragments[spec.Field] {
				fragments = append(fragments, cleanBleveFragment(f))
			}
			hit.Highlights[spec.Field] = capFragments(fragments, spec.Max)
		}
		hits = append(hits, hit)
	}

	b.logger.DebugContext(ctx, "bleve_search_completed",
		slog.Int("hit_count", len(hits)),
		slog.Uint64("total", res.Total))
	return hits, nil
}

// buildMatchQuery matches text against each search field; any field may match.
func buildMatchQuery(text string, fields []string) query.Query {
	if len(fields) == 0 {
		return bleve.NewMatchQuery(text)
	}
	queries := make([]query.Query, 0, len(fields))
	for _, field := range fields {
		m := bleve.NewMatchQuery(text)
		m.SetField(field)
		queries = append(queries, m)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func cleanBleveFragment(f string) string {
	f = html.UnescapeString(markToEmphasis.Replace(f))
	f = strings.TrimPrefix(f, bleveEllipsis)
	f = strings.TrimSuffix(f, bleveEllipsis)
	return strings.TrimSpace(f)
}

func fieldStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func fieldString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
