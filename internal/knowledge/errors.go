package knowledge

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing required input field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// ErrEmptyContent is returned when an upload yields no parseable text.
var ErrEmptyContent = errors.New("no parseable text content")

// EmptyContentError carries the material that was registered before the
// content turned out to be empty. The registration is kept.
type EmptyContentError struct {
	MaterialID string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("material %s: %s", e.MaterialID, ErrEmptyContent)
}

func (e *EmptyContentError) Unwrap() error { return ErrEmptyContent }

// SummarizationError is a failed digest request. Callers recover locally.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return "summarization failed: " + e.Err.Error()
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// AnswerGenerationError is a failed answer completion. It is never retried
// and has no fallback answer.
type AnswerGenerationError struct {
	Err error
}

func (e *AnswerGenerationError) Error() string {
	return "answer generation failed: " + e.Err.Error()
}

func (e *AnswerGenerationError) Unwrap() error { return e.Err }

// PersistenceError is a store read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsClientError reports whether err should be surfaced as a client error.
func IsClientError(err error) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return true
	}
	return errors.Is(err, ErrEmptyContent)
}
