package api

import (
	"net/http"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

// handleState returns every material and fragment for client rehydration.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.state.ListAll(r.Context())
	if err != nil {
		s.log.Error("list state failed", "error", err)
		jsonError(w, "state unavailable", http.StatusInternalServerError)
		return
	}
	if snap.Materials == nil {
		snap.Materials = []knowledge.Material{}
	}
	if snap.KnowledgeBase == nil {
		snap.KnowledgeBase = []knowledge.Fragment{}
	}
	writeJSON(w, http.StatusOK, snap)
}
