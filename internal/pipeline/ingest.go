// Package pipeline turns one uploaded material into stored fragments.
package pipeline

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgallion1/tutorkb/internal/chunker"
	"github.com/dgallion1/tutorkb/internal/knowledge"
	"github.com/dgallion1/tutorkb/internal/llm"
	"github.com/dgallion1/tutorkb/internal/parser"
)

// Upload is one ingestion request. Content carries already-decoded text;
// ContentEncoded carries a base64 binary document for the binary kinds.
type Upload struct {
	Name           string
	Kind           string
	Content        string
	ContentEncoded string
}

// Result reports a completed ingestion.
type Result struct {
	MaterialID string
	Fragments  int
}

// Store is the subset of the repository used by ingestion.
type Store interface {
	AddMaterial(ctx context.Context, m knowledge.Material) (knowledge.Material, error)
	AddFragments(ctx context.Context, frags []knowledge.Fragment) ([]knowledge.Fragment, error)
}

// Summarizer produces a digest for one fragment.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Options tunes an Ingester. Zero values use defaults.
type Options struct {
	SegmentMaxLength     int
	DigestFallbackLength int
	Concurrency          int
	RatePerSecond        float64 // 0 means unlimited.
	MaxRetries           int
	Parser               parser.Options

	// Backoff overrides the retry delay, mainly for tests.
	Backoff func(attempt int) time.Duration
}

// Ingester runs the ingestion pipeline.
type Ingester struct {
	store      Store
	summarizer Summarizer
	log        *slog.Logger
	opts       Options
	limiter    *rate.Limiter
}

func NewIngester(store Store, summarizer Summarizer, log *slog.Logger, opts Options) *Ingester {
	if log == nil {
		log = slog.Default()
	}
	if opts.SegmentMaxLength <= 0 {
		opts.SegmentMaxLength = chunker.DefaultMaxLength
	}
	if opts.DigestFallbackLength <= 0 {
		opts.DigestFallbackLength = 200
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Backoff == nil {
		opts.Backoff = Backoff
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	return &Ingester{
		store:      store,
		summarizer: summarizer,
		log:        log,
		opts:       opts,
		limiter:    limiter,
	}
}

// Ingest registers the material, resolves its text, segments it, digests
// every segment and appends the fragments in one store write. The material
// stays registered even when a later step fails.
func (in *Ingester) Ingest(ctx context.Context, up Upload) (Result, error) {
	if up.Name == "" {
		return Result{}, &knowledge.ValidationError{Field: "name"}
	}
	// The declared kind is kept as an informational tag; only the parser
	// choice is normalized.
	declared := strings.ToLower(strings.TrimSpace(up.Kind))
	if declared == "" {
		declared = knowledge.KindText
	}

	material, err := in.store.AddMaterial(ctx, knowledge.Material{Name: up.Name, Kind: declared})
	if err != nil {
		return Result{}, err
	}
	kind := parser.NormalizeKind(declared)
	log := in.log.With("material_id", material.ID, "name", up.Name, "kind", declared)

	text := in.resolveText(log, kind, up)
	if text == "" {
		log.Warn("upload produced no text")
		return Result{}, &knowledge.EmptyContentError{MaterialID: material.ID}
	}

	segments := chunker.Segment(text, in.opts.SegmentMaxLength)
	log.Info("segmented material", "segments", len(segments))

	digests := in.summarizeAll(ctx, log, segments)

	frags := make([]knowledge.Fragment, len(segments))
	for i, seg := range segments {
		frags[i] = knowledge.Fragment{
			MaterialID: material.ID,
			SourceName: material.Name,
			Position:   i,
			RawText:    seg,
			Digest:     digests[i],
		}
	}

	added, err := in.store.AddFragments(ctx, frags)
	if err != nil {
		log.Error("persist fragments failed", "error", err)
		return Result{}, err
	}

	log.Info("ingestion complete", "fragments", len(added))
	return Result{MaterialID: material.ID, Fragments: len(added)}, nil
}

// resolveText returns the text to segment. Binary kinds are decoded from
// ContentEncoded; any extraction failure falls back to the literal Content.
func (in *Ingester) resolveText(log *slog.Logger, kind string, up Upload) string {
	p, err := parser.ForKind(kind, in.opts.Parser)
	if err != nil {
		log.Warn("no parser for kind, using literal content", "error", err)
		return up.Content
	}

	var data []byte
	if parser.IsBinaryKind(kind) {
		if up.ContentEncoded == "" {
			return up.Content
		}
		decoded, err := base64.StdEncoding.DecodeString(up.ContentEncoded)
		if err != nil {
			log.Warn("decode content failed, using literal content", "error", err)
			return up.Content
		}
		data = decoded
	} else {
		data = []byte(up.Content)
	}

	text, err := p.Parse(data)
	if err != nil {
		log.Warn("extract text failed, using literal content", "error", err)
		return up.Content
	}
	return text
}

// summarizeAll digests segments with bounded concurrency. Results are
// joined by segment index, so call completion order never affects output
// order. A failed segment gets the fallback digest.
func (in *Ingester) summarizeAll(ctx context.Context, log *slog.Logger, segments []string) []string {
	digests := make([]string, len(segments))
	sem := make(chan struct{}, in.opts.Concurrency)
	done := make(chan struct{}, len(segments))

	for i, seg := range segments {
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				done <- struct{}{}
			}()
			digest, err := in.summarizeWithRetry(ctx, log, i, seg)
			if err != nil {
				log.Warn("summarization failed, using fallback digest", "position", i, "error", err)
				digest = knowledge.Prefix(seg, in.opts.DigestFallbackLength)
			}
			digests[i] = digest
		}()
	}

	for range segments {
		<-done
	}
	return digests
}

func (in *Ingester) summarizeWithRetry(ctx context.Context, log *slog.Logger, position int, text string) (string, error) {
	var (
		digest  string
		lastErr error
	)
	for attempt := range in.opts.MaxRetries {
		if err := in.limiter.Wait(ctx); err != nil {
			return "", &knowledge.SummarizationError{Err: err}
		}
		digest, lastErr = in.summarizer.Summarize(ctx, text)
		if lastErr == nil || !llm.IsRetryable(lastErr) || attempt == in.opts.MaxRetries-1 {
			break
		}
		log.Warn("retryable summarization error", "position", position, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(in.opts.Backoff(attempt)):
		case <-ctx.Done():
			return "", &knowledge.SummarizationError{Err: ctx.Err()}
		}
	}
	return digest, lastErr
}
