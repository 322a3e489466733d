package usecase

import (
	"context"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

// AnswerQuestionInput carries one question and its per-request knobs.
type AnswerQuestionInput struct {
	Question string
	// Documents is the number of hits requested from the index.
	Documents int
	// Threshold discards hits whose score is not strictly greater.
	Threshold float64
	// Tokenize reduces highlights to their first sentence before matching.
	Tokenize bool
	// RerankBudget is the passage count the reader accepts; larger candidate
	// sets are narrowed with BM25.
	RerankBudget int
}

// AnswerQuestionOutput is the result of one pipeline run.
type AnswerQuestionOutput struct {
	RequestID string
	Answers   []domain.AnswerRecord
	Counts    domain.AnswerCounts
	// Stage is the terminal stage: StageDone or StageEmpty.
	Stage domain.Stage
}

// AnswerQuestionConfig holds the static shape of index queries and the
// deadlines of the two remote calls.
type AnswerQuestionConfig struct {
	SearchFields    []string
	HighlightFields []string
	SelectFields    []string
	SearchTimeout   time.Duration
	ReaderTimeout   time.Duration
}

// AnswerQuestionUsecase answers a natural-language question from indexed
// documents.
type AnswerQuestionUsecase interface {
	Execute(ctx context.Context, input AnswerQuestionInput) (*AnswerQuestionOutput, error)
}
