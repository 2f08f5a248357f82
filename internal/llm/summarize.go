package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

// Summarizer produces a short digest for one fragment.
type Summarizer struct {
	completer   Completer
	inputLimit  int
	temperature float64
	timeout     time.Duration
}

// SummarizerOptions configures a Summarizer. Zero limits and timeouts use
// defaults.
type SummarizerOptions struct {
	InputLimit  int           // Characters sent to the model (default 2000).
	Temperature float64       // Sampling temperature; negative means DefaultTemperature.
	Timeout     time.Duration // Per-call bound (default 60s).
}

func NewSummarizer(c Completer, opts SummarizerOptions) *Summarizer {
	if opts.InputLimit <= 0 {
		opts.InputLimit = 2000
	}
	if opts.Temperature < 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Summarizer{
		completer:   c,
		inputLimit:  opts.InputLimit,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
	}
}

// DefaultTemperature favors faithful, low-variance output.
const DefaultTemperature = 0.1

var errEmptyDigest = errors.New("empty digest")

// Summarize returns a one or two sentence digest of text. Any failure,
// including a timeout or an empty reply, is a *knowledge.SummarizationError.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.completer.Complete(ctx, Request{
		Op: OpSummarize,
		Messages: []Message{
			{Role: "system", Content: SummarizePrompt},
			{Role: "user", Content: knowledge.Prefix(text, s.inputLimit)},
		},
		Temperature: s.temperature,
	})
	if err != nil {
		return "", &knowledge.SummarizationError{Err: err}
	}

	digest := CleanReply(reply)
	if digest == "" {
		return "", &knowledge.SummarizationError{Err: errEmptyDigest}
	}
	return digest, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// CleanReply trims model output and strips a surrounding code fence.
func CleanReply(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return s
}
