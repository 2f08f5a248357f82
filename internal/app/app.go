// Package app wires configuration into the store, the completion client and
// the ingestion and question-answering flows shared by the server and CLI.
package app

import (
	"log/slog"

	"github.com/dgallion1/tutorkb/internal/answer"
	"github.com/dgallion1/tutorkb/internal/config"
	"github.com/dgallion1/tutorkb/internal/llm"
	"github.com/dgallion1/tutorkb/internal/parser"
	"github.com/dgallion1/tutorkb/internal/pipeline"
	"github.com/dgallion1/tutorkb/internal/retrieve"
	"github.com/dgallion1/tutorkb/internal/store"
)

// App holds the long-lived components for one process.
type App struct {
	Store    store.Repository
	LLM      *llm.Client
	Ingester *pipeline.Ingester
	Asker    *answer.Asker
}

// New opens the configured store and builds the flows on top of it.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	repo, err := store.Open(cfg.StoreBackend, cfg.DataDir, log)
	if err != nil {
		return nil, err
	}

	client := llm.NewClient(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel)

	summarizer := llm.NewSummarizer(client, llm.SummarizerOptions{
		InputLimit:  cfg.SummarizeInputLimit,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.SummarizeTimeout,
	})
	ingester := pipeline.NewIngester(repo, summarizer, log, pipeline.Options{
		SegmentMaxLength:     cfg.SegmentMaxLength,
		DigestFallbackLength: cfg.DigestFallbackLength,
		Concurrency:          cfg.SummarizeConcurrency,
		RatePerSecond:        cfg.SummarizeRatePerSec,
		MaxRetries:           cfg.SummarizeMaxRetries,
		Parser:               parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	})

	composer := answer.NewComposer(client, cfg.LLMTemperature, cfg.AnswerTimeout)
	asker := answer.NewAsker(repo, composer, RetrieveOptions(cfg), log)

	return &App{
		Store:    repo,
		LLM:      client,
		Ingester: ingester,
		Asker:    asker,
	}, nil
}

// RetrieveOptions maps configuration onto retrieval bounds. A zero
// fallback count in configuration disables the fallback.
func RetrieveOptions(cfg config.Config) retrieve.Options {
	opts := retrieve.Options{
		Limit:         cfg.RetrieveLimit,
		FallbackCount: cfg.RetrieveFallbackCount,
	}
	if opts.FallbackCount == 0 {
		opts.FallbackCount = -1
	}
	return opts
}

// Close releases the completion client and the store.
func (a *App) Close() error {
	a.LLM.Close()
	return a.Store.Close()
}
