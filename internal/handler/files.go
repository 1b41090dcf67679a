package handler

import (
	"net/http"
	"path/filepath"
	"strings"
)

// FileHandler serves stored originals and thumbnails straight off disk.
// Paths come from the DTOs the API hands out; anything outside the images
// root is refused.
type FileHandler struct {
	root string
}

// NewFileHandler creates a FileHandler rooted at the images directory.
func NewFileHandler(root string) *FileHandler {
	return &FileHandler{root: filepath.Clean(root)}
}

// HandleServe streams one artifact file.
// GET /api/files?path=/abs/path/under/images/root
func (h *FileHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}

	path := filepath.Clean(raw)
	if !strings.HasPrefix(path, h.root+string(filepath.Separator)) {
		writeError(w, http.StatusForbidden, "path is outside the images root")
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeFile(w, r, path)
}
