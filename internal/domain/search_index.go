package domain

import "context"

// SearchRequest mirrors the query shape of the document index.
type SearchRequest struct {
	Text string
	// SearchFields restricts full-text matching to these fields.
	SearchFields []string
	// HighlightFields uses the "field-N" convention, where N caps the number
	// of highlights returned for that field (e.g. "paragraphs-3").
	HighlightFields []string
	// SelectFields lists the stored fields returned with every hit.
	SelectFields []string
	Top          int
}

// SearchIndex defines the interface for the external document index
// (Azure Cognitive Search, Meilisearch or an embedded bleve index).
type SearchIndex interface {
	// Search returns hits in index order.
	Search(ctx context.Context, req SearchRequest) ([]Hit, error)
	// Ping checks that the index is reachable.
	Ping(ctx context.Context) error
	// Name returns the backend identifier for logging.
	Name() string
}

// DocumentWriter is implemented by indexes that accept documents from the
// ingestion tooling.
type DocumentWriter interface {
	IndexDocuments(ctx context.Context, docs []Document) error
}
