package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

type askRequest struct {
	Question string `json:"question"`
}

// UsedChunks is omitted when the store was empty.
type askResponse struct {
	Answer     string `json:"answer"`
	UsedChunks *int   `json:"usedChunks,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req askRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	res, err := s.asker.Ask(r.Context(), req.Question)
	if err != nil {
		var (
			verr *knowledge.ValidationError
			aerr *knowledge.AnswerGenerationError
		)
		switch {
		case errors.As(err, &verr):
			jsonError(w, verr.Error(), http.StatusBadRequest)
		case errors.As(err, &aerr):
			s.log.Error("answer generation failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
			jsonError(w, "answer generation failed", http.StatusInternalServerError)
		default:
			s.log.Error("ask failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
			jsonError(w, "ask failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: res.Answer, UsedChunks: res.UsedFragments})
}
