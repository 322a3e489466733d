package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

// Reranker narrows a candidate set with BM25.
type Reranker struct {
	model  Model
	logger *slog.Logger
}

// NewReranker creates a Reranker.
func NewReranker(model Model, logger *slog.Logger) *Reranker {
	return &Reranker{model: model, logger: logger}
}

// Rerank returns candidates unchanged when they already fit in budget.
// Otherwise the candidates are scored against query and the best budget of
// them are returned, highest score first. Ties keep their retrieval order.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates domain.CandidateSet, budget int) (domain.CandidateSet, error) {
	if len(candidates) <= budget {
		return candidates, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	stats, err := r.model.Fit(PreprocessCorpus(candidates.Texts()))
	if err != nil {
		return nil, fmt.Errorf("fit bm25: %w", err)
	}
	scores := stats.Scores(PreprocessQuery(query))

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if budget < 0 {
		budget = 0
	}
	out := make(domain.CandidateSet, budget)
	for i := 0; i < budget; i++ {
		out[i] = candidates[order[i]]
	}

	r.logger.InfoContext(ctx, "reranking_completed",
		slog.Int("candidate_count", len(candidates)),
		slog.Int("kept_count", len(out)),
		slog.Float64("top_score", scores[order[0]]),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return out, nil
}
