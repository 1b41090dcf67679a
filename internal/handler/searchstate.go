package handler

import (
	"net/http"

	"github.com/mhersberg/pictor/internal/service"
)

// SearchStateHandler persists the client's current search across page
// loads so the UI can come back to where it was.
type SearchStateHandler struct {
	session *service.SearchSession
}

// NewSearchStateHandler creates a new SearchStateHandler.
func NewSearchStateHandler(session *service.SearchSession) *SearchStateHandler {
	return &SearchStateHandler{session: session}
}

// HandleGet returns the stored search state.
// GET /api/search-state
func (h *SearchStateHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSearchStateDTO(h.session.Current()))
}

// HandlePut replaces the stored search state wholesale.
// PUT /api/search-state
func (h *SearchStateHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var dto SearchStateDTO
	if err := readJSON(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.session.Replace(dto.toState())
	writeJSON(w, http.StatusOK, toSearchStateDTO(h.session.Current()))
}
