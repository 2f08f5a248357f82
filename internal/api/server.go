package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/tutorkb/internal/answer"
	"github.com/dgallion1/tutorkb/internal/config"
	"github.com/dgallion1/tutorkb/internal/knowledge"
	"github.com/dgallion1/tutorkb/internal/llm"
	"github.com/dgallion1/tutorkb/internal/pipeline"
)

// Ingester runs one upload through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, up pipeline.Upload) (pipeline.Result, error)
}

// Asker answers one question from the knowledge store.
type Asker interface {
	Ask(ctx context.Context, question string) (answer.Result, error)
}

// StateLister returns the full current state of both collections.
type StateLister interface {
	ListAll(ctx context.Context) (knowledge.Snapshot, error)
}

// Server is the HTTP API server for tutorkb.
type Server struct {
	router   chi.Router
	ingester Ingester
	asker    Asker
	state    StateLister
	llm      *llm.Client
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. client may be nil, in
// which case the stats endpoint reports itself unavailable.
func NewServer(ing Ingester, ask Asker, state StateLister, client *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		ingester: ing,
		asker:    ask,
		state:    state,
		llm:      client,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(CORS(s.cfg.CORSAllowedOrigin))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/materials", s.handleUpload)
		r.Post("/ask", s.handleAsk)
		r.Get("/state", s.handleState)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
