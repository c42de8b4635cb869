package chat

import (
	"errors"
	"fmt"
)

// Stage names one step of the chat pipeline.
type Stage string

const (
	StageEmbedding  Stage = "embedding"
	StageRetrieving Stage = "retrieving"
	StageAssembling Stage = "assembling"
	StageGenerating Stage = "generating"
	StagePersisting Stage = "persisting"
)

// Failure kinds. A StageError matches exactly one of them with errors.Is.
var (
	ErrEmbedding      = errors.New("embedding service error")
	ErrIndexQuery     = errors.New("index query error")
	ErrHistoryStore   = errors.New("history store error")
	ErrGeneration     = errors.New("generation error")
	ErrEmptyRetrieval = errors.New("empty retrieval")
)

// StageError is the terminal failure of a chat turn.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the upstream cause.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(stage Stage, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// outcome is the metrics label for a finished turn.
func outcome(err error) string {
	var se *StageError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		switch se.Kind {
		case ErrEmbedding:
			return "embedding"
		case ErrIndexQuery:
			return "index_query"
		case ErrHistoryStore:
			return "history_store"
		case ErrEmptyRetrieval:
			return "empty_retrieval"
		}
		if isRateLimited(err) {
			return "rate_limited"
		}
		return "generation"
	default:
		return "error"
	}
}
