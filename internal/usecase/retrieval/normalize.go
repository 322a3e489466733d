package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

var emphasisStripper = strings.NewReplacer("<em>", "", "</em>", "")

// NormalizeOptions are the per-request knobs of normalization.
type NormalizeOptions struct {
	// ScoreThreshold discards hits whose score is not strictly greater.
	ScoreThreshold float64
	// Tokenize reduces each highlight to its first sentence before matching.
	Tokenize bool
}

// Normalizer converts index hits into a candidate set.
type Normalizer struct {
	extractor *Extractor
	logger    *slog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(extractor *Extractor, logger *slog.Logger) *Normalizer {
	return &Normalizer{extractor: extractor, logger: logger}
}

// Normalize walks hits in index order and their highlights in first-seen
// order, emitting one passage per highlight that can be located in the hit's
// paragraphs. Passages already in seen are dropped; emitted passages are added
// to seen.
func (n *Normalizer) Normalize(ctx context.Context, hits []domain.Hit, opts NormalizeOptions, seen *PassageSet) domain.CandidateSet {
	if seen == nil {
		seen = NewPassageSet()
	}
	var out domain.CandidateSet

	for hitIdx, hit := range hits {
		if hit.Score <= opts.ScoreThreshold {
			n.logger.DebugContext(ctx, "hit_below_threshold",
				slog.Int("hit_index", hitIdx),
				slog.Float64("score", hit.Score),
				slog.Float64("threshold", opts.ScoreThreshold))
			continue
		}
		if len(hit.Paragraphs) == 0 {
			n.logger.InfoContext(ctx, "hit_without_paragraphs",
				slog.Int("hit_index", hitIdx),
				slog.String("document_id", hit.Source.DocumentID))
			continue
		}

		for _, highlight := range uniqueInOrder(hit.ParagraphHighlights()) {
			text, ok := n.extractor.Extract(emphasisStripper.Replace(highlight), hit.Paragraphs, opts.Tokenize)
			if !ok {
				n.logger.DebugContext(ctx, "highlight_not_located",
					slog.String("document_id", hit.Source.DocumentID))
				continue
			}

			text = truncateRunes(text, domain.MaxPassageLength)
			if !seen.Add(text) {
				n.logger.DebugContext(ctx, "passage_already_seen",
					slog.String("document_id", hit.Source.DocumentID))
				continue
			}

			out = append(out, domain.Passage{Text: text, Source: hit.Source})
		}
	}

	return out
}

func uniqueInOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// truncateRunes keeps the first limit code points of s.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	i := 0
	for pos := range s {
		if i == limit {
			return s[:pos]
		}
		i++
	}
	return s
}
