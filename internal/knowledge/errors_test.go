package knowledge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", &ValidationError{Field: "name"}, true},
		{"wrapped validation", fmt.Errorf("ingest: %w", &ValidationError{Field: "question"}), true},
		{"empty content", &EmptyContentError{MaterialID: "m1"}, true},
		{"summarization", &SummarizationError{Err: errors.New("boom")}, false},
		{"answer", &AnswerGenerationError{Err: errors.New("boom")}, false},
		{"persistence", &PersistenceError{Op: "write", Err: errors.New("disk full")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsClientError(tt.err))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "name is required", (&ValidationError{Field: "name"}).Error())
}

func TestWrappedCausesAreReachable(t *testing.T) {
	cause := errors.New("connection refused")

	assert.ErrorIs(t, &SummarizationError{Err: cause}, cause)
	assert.ErrorIs(t, &AnswerGenerationError{Err: cause}, cause)
	assert.ErrorIs(t, &PersistenceError{Op: "write fragments", Err: cause}, cause)
	assert.ErrorIs(t, &EmptyContentError{MaterialID: "m1"}, ErrEmptyContent)
}
