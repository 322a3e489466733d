package domain

import "context"

// AnswerExtractor is the extractive question-answering capability.
type AnswerExtractor interface {
	// Extract returns, per passage index, the answer span found in that
	// passage. Passages without an answer map to "" or NoAnswerToken, or are
	// absent from the map.
	Extract(ctx context.Context, question string, passages []string) (map[int]string, error)

	// ModelName returns the model identifier for logging/debugging.
	ModelName() string
}
