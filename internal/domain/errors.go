package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuestion is returned when a request carries no question.
	ErrNoQuestion = errors.New("no question supplied")
	// ErrInvalidParameter marks a request parameter that could not be parsed.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyCorpus is returned when BM25 statistics are requested for zero documents.
	ErrEmptyCorpus = errors.New("bm25: empty corpus")
)

// Stage names a step of the question answering pipeline.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageRetrieving Stage = "retrieving"
	StageReranking  Stage = "reranking"
	StageExtracting Stage = "extracting"
	StageResponding Stage = "responding"
	StageDone       Stage = "done"
	StageNoQuestion Stage = "no_question"
	StageEmpty      Stage = "empty"
)

// PipelineError wraps a failure of an external collaborator with the stage
// that was running when it happened.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ClientError is returned by adapters when a remote service answers with a
// non-success status.
type ClientError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Op, e.StatusCode, e.Body)
}
