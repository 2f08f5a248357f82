package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/tutorkb/internal/api"
	"github.com/dgallion1/tutorkb/internal/app"
	"github.com/dgallion1/tutorkb/internal/config"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("open store", "error", err, "backend", cfg.StoreBackend, "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	srv := api.NewServer(a.Ingester, a.Asker, a.Store, a.LLM, log, cfg)

	// Ingestion summarizes every fragment inside the request.
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if err := a.Close(); err != nil {
			log.Error("close store", "error", err)
		}
	}()

	log.Info("starting tutorkb",
		"port", cfg.Port,
		"backend", cfg.StoreBackend,
		"data_dir", cfg.DataDir,
		"model", cfg.LLMModel,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
