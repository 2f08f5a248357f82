package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

type fakeCompleter struct {
	reply string
	err   error
	delay time.Duration
	reqs  []Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func TestSummarize_SendsBoundedPrefix(t *testing.T) {
	fc := &fakeCompleter{reply: " 细胞是生命的基本单位。 "}
	s := NewSummarizer(fc, SummarizerOptions{Temperature: -1})

	input := strings.Repeat("细", 2500)
	got, err := s.Summarize(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "细胞是生命的基本单位。", got)

	require.Len(t, fc.reqs, 1)
	req := fc.reqs[0]
	assert.Equal(t, OpSummarize, req.Op)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, SummarizePrompt, req.Messages[0].Content)
	assert.Equal(t, 2000, utf8.RuneCountInString(req.Messages[1].Content))
}

func TestSummarize_FailureIsSummarizationError(t *testing.T) {
	cause := &RetryableError{StatusCode: 503, Message: "busy"}
	s := NewSummarizer(&fakeCompleter{err: cause}, SummarizerOptions{})

	_, err := s.Summarize(context.Background(), "text")
	var serr *knowledge.SummarizationError
	require.True(t, errors.As(err, &serr))
	assert.True(t, IsRetryable(err), "retryable cause should stay visible")
}

func TestSummarize_EmptyReplyFails(t *testing.T) {
	s := NewSummarizer(&fakeCompleter{reply: "   "}, SummarizerOptions{})

	_, err := s.Summarize(context.Background(), "text")
	var serr *knowledge.SummarizationError
	assert.True(t, errors.As(err, &serr))
}

func TestSummarize_TimeoutIsSummarizationError(t *testing.T) {
	s := NewSummarizer(&fakeCompleter{reply: "late", delay: time.Second}, SummarizerOptions{Timeout: 10 * time.Millisecond})

	_, err := s.Summarize(context.Background(), "text")
	var serr *knowledge.SummarizationError
	require.True(t, errors.As(err, &serr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCleanReply(t *testing.T) {
	assert.Equal(t, "plain", CleanReply("  plain \n"))
	assert.Equal(t, "fenced digest", CleanReply("```\nfenced digest\n```"))
	assert.Equal(t, "tagged", CleanReply("```text\ntagged\n```"))
	assert.Equal(t, "", CleanReply("```\n```"))
}

func TestSummarize_ZeroTemperatureIsSent(t *testing.T) {
	fc := &fakeCompleter{reply: "digest"}
	s := NewSummarizer(fc, SummarizerOptions{Temperature: 0})

	_, err := s.Summarize(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, fc.reqs, 1)
	assert.Zero(t, fc.reqs[0].Temperature)
}
