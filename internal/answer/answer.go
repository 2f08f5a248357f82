// Package answer composes grounded answers from retrieved fragments.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/tutorkb/internal/knowledge"
	"github.com/dgallion1/tutorkb/internal/llm"
	"github.com/dgallion1/tutorkb/internal/retrieve"
)

// EmptyKnowledgeBaseMessage is returned without any model call when no
// fragments have been ingested yet.
const EmptyKnowledgeBaseMessage = "The knowledge base is empty. Upload course material and let it finish processing, then I can answer from it."

var errEmptyAnswer = errors.New("empty answer")

// Composer turns a question plus selected fragments into one completion.
type Composer struct {
	completer   llm.Completer
	temperature float64
	timeout     time.Duration
}

// NewComposer builds a Composer. A negative temperature selects
// llm.DefaultTemperature; zero is sent as is.
func NewComposer(c llm.Completer, temperature float64, timeout time.Duration) *Composer {
	if temperature < 0 {
		temperature = llm.DefaultTemperature
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Composer{completer: c, temperature: temperature, timeout: timeout}
}

// RenderContext labels each fragment with its 1-based rank and source,
// in the given order, separated by blank lines.
func RenderContext(selected []knowledge.Fragment) string {
	blocks := make([]string, len(selected))
	for i, f := range selected {
		blocks[i] = fmt.Sprintf("[Fragment %d, source: %s]\nText: %s\nDigest: %s", i+1, f.SourceName, f.RawText, f.Digest)
	}
	return strings.Join(blocks, "\n\n")
}

func userMessage(question string, selected []knowledge.Fragment) string {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nCourse material fragments related to the question:\n\n")
	sb.WriteString(RenderContext(selected))
	sb.WriteString("\n\nAnswer strictly from these fragments.")
	return sb.String()
}

// Compose issues one completion and returns the trimmed answer. Failures
// are *knowledge.AnswerGenerationError and are never retried.
func (c *Composer) Compose(ctx context.Context, question string, selected []knowledge.Fragment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.completer.Complete(ctx, llm.Request{
		Op: llm.OpAnswer,
		Messages: []llm.Message{
			{Role: "system", Content: llm.AnswerPrompt},
			{Role: "user", Content: userMessage(question, selected)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", &knowledge.AnswerGenerationError{Err: err}
	}

	answer := strings.TrimSpace(reply)
	if answer == "" {
		return "", &knowledge.AnswerGenerationError{Err: errEmptyAnswer}
	}
	return answer, nil
}

// FragmentSource supplies the knowledge store in store order.
type FragmentSource interface {
	Fragments(ctx context.Context) ([]knowledge.Fragment, error)
}

// Result is the outcome of one question. UsedFragments is nil when the
// store was empty and no model call was made.
type Result struct {
	Answer        string
	UsedFragments *int
}

// Asker runs the question-answering flow: empty-store check, retrieval,
// then composition.
type Asker struct {
	source   FragmentSource
	composer *Composer
	opts     retrieve.Options
	log      *slog.Logger
}

func NewAsker(source FragmentSource, composer *Composer, opts retrieve.Options, log *slog.Logger) *Asker {
	if log == nil {
		log = slog.Default()
	}
	return &Asker{source: source, composer: composer, opts: opts, log: log}
}

// Ask answers question from the stored fragments.
func (a *Asker) Ask(ctx context.Context, question string) (Result, error) {
	if strings.TrimSpace(question) == "" {
		return Result{}, &knowledge.ValidationError{Field: "question"}
	}

	frags, err := a.source.Fragments(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load fragments: %w", err)
	}
	if len(frags) == 0 {
		return Result{Answer: EmptyKnowledgeBaseMessage}, nil
	}

	selected := retrieve.Retrieve(question, frags, a.opts)
	a.log.Info("retrieved fragments", "selected", len(selected), "total", len(frags))

	answer, err := a.composer.Compose(ctx, question, selected)
	if err != nil {
		return Result{}, err
	}
	used := len(selected)
	return Result{Answer: answer, UsedFragments: &used}, nil
}
