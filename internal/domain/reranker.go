package domain

import "context"

// PassageReranker narrows a candidate set to a budget of the most relevant
// passages for a query.
type PassageReranker interface {
	Rerank(ctx context.Context, query string, candidates CandidateSet, budget int) (CandidateSet, error)
}
