package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mhersberg/pictor/internal/domain"
)

// TagHandler exposes the tag vocabulary over JSON.
type TagHandler struct {
	tags domain.TagRepository
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags domain.TagRepository) *TagHandler {
	return &TagHandler{tags: tags}
}

// HandleList returns every tag, sorted by name.
// GET /api/tags
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		slog.Error("list tags", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toTagDTOs(tags))
}

// HandleCreate resolves or creates a tag by name.
// POST /api/tags
func (h *TagHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req TagInputDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	color, _ := domain.ParseTagColor(req.Color)
	tag, err := h.tags.GetOrCreate(r.Context(), req.Name, color)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("create tag", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toTagDTO(*tag))
}

// HandleUpdate renames or recolors a tag.
// PATCH /api/tags/{id}
func (h *TagHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req TagInputDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	color, _ := domain.ParseTagColor(req.Color)
	tag, err := h.tags.Update(r.Context(), id, domain.TagUpdate{Name: req.Name, Color: color})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "tag not found")
		case errors.Is(err, domain.ErrDuplicateTag):
			writeError(w, http.StatusConflict, "a tag with that name already exists")
		default:
			slog.Error("update tag", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toTagDTO(*tag))
}

// HandleDelete removes a tag everywhere it is applied.
// DELETE /api/tags/{id}
func (h *TagHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.tags.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tag not found")
			return
		}
		slog.Error("delete tag", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
