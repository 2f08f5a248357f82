package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/tutorkb/internal/knowledge"
	"github.com/dgallion1/tutorkb/internal/pipeline"
)

type uploadRequest struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Content        string `json:"content"`
	ContentEncoded string `json:"contentEncoded"`
}

type uploadResponse struct {
	OK          bool   `json:"ok"`
	MaterialID  string `json:"materialId"`
	AddedChunks int    `json:"addedChunks"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req uploadRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	res, err := s.ingester.Ingest(r.Context(), pipeline.Upload{
		Name:           req.Name,
		Kind:           req.Kind,
		Content:        req.Content,
		ContentEncoded: req.ContentEncoded,
	})
	if err != nil {
		s.writeIngestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		OK:          true,
		MaterialID:  res.MaterialID,
		AddedChunks: res.Fragments,
	})
}

func (s *Server) writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *knowledge.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, knowledge.ErrEmptyContent):
		jsonError(w, "no text content could be extracted from the upload", http.StatusBadRequest)
	default:
		s.log.Error("upload failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		jsonError(w, "upload failed", http.StatusInternalServerError)
	}
}

// decodeBody reads a JSON request body into v, writing the error response
// itself when that fails.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	jsonError(w, "invalid JSON body", http.StatusBadRequest)
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
