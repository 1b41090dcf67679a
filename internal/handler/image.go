package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mhersberg/pictor/internal/domain"
	"github.com/mhersberg/pictor/internal/service"
)

// maxUploadSize caps a single registration upload.
const maxUploadSize = 100 << 20 // 100MB

// ImageHandler exposes catalog entries over JSON.
type ImageHandler struct {
	catalog *service.Catalog
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(catalog *service.Catalog) *ImageHandler {
	return &ImageHandler{catalog: catalog}
}

// HandleRegister registers a single image from a multipart upload.
// The "image" part carries the encoded bytes; the optional "description"
// and "tags" fields carry the metadata ("tags" is a JSON array).
// POST /api/images
func (h *ImageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	tags, err := parseTagsField(r.FormValue("tags"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tags field")
		return
	}

	img, err := h.catalog.RegisterImage(r.Context(), r.FormValue("description"), tags, domain.ImageSource{Bytes: data})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrDecode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("register image", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toImageDTO(img))
}

// HandleRegisterFolder registers every image inside a local directory as
// one folder entry.
// POST /api/folders
func (h *ImageHandler) HandleRegisterFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path        string        `json:"path"`
		Description string        `json:"description"`
		Tags        []TagInputDTO `json:"tags"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	img, count, err := h.catalog.RegisterFolder(r.Context(), req.Description, toDomainTags(req.Tags), req.Path)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyFolder):
			writeError(w, http.StatusBadRequest, "folder contains no image files")
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrDecode):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("register folder", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"image":     toImageDTO(img),
		"fileCount": count,
	})
}

// HandleSearch runs a catalog search from query parameters.
// GET /api/images?query=&tags=a&tags=b&sort=created_desc&page=0&size=20
func (h *ImageHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 0
	if v := q.Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = parsed
	}
	size := 20
	if v := q.Get("size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = parsed
	}

	sort := domain.SortCreatedDesc
	if v := q.Get("sort"); v != "" {
		sort = domain.SortOrder(v)
	}

	filter := domain.Filter{
		Query: q.Get("query"),
		Tags:  q["tags"],
		Sort:  sort,
	}

	result, err := h.catalog.Search(r.Context(), filter, page, size)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("search images", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toPageDTO(result))
}

// HandleGet returns one catalog entry.
// GET /api/images/{id}
func (h *ImageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	img, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		slog.Error("get image", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toImageDTO(img))
}

// HandleUpdate applies a sparse patch to an entry. An absent tags field
// leaves the tag set alone; an empty array clears it.
// PATCH /api/images/{id}
func (h *ImageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Description string        `json:"description"`
		Tags        []TagInputDTO `json:"tags"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		slog.Error("get image", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	upd := domain.ImageUpdate{
		Description: req.Description,
		IsFolder:    current.IsFolder,
		IsPrepared:  current.IsPrepared,
	}
	if req.Tags != nil {
		upd.Tags = toDomainTags(req.Tags)
	}

	img, err := h.catalog.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("update image", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toImageDTO(img))
}

// HandleDelete removes an entry, a folder, or one file inside a folder.
// The "kind" query parameter selects the artifact policy: "file"
// (default), "folder", or "folder-child"; a folder-child delete also
// needs the "path" of the file being removed.
// DELETE /api/images/{id}
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	kind := domain.DeleteFile
	path := ""
	switch r.URL.Query().Get("kind") {
	case "", "file":
	case "folder":
		kind = domain.DeleteFolder
	case "folder-child":
		kind = domain.DeleteFolderChild
		path = r.URL.Query().Get("path")
		if path == "" {
			writeError(w, http.StatusBadRequest, "folder-child delete needs a path")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown delete kind")
		return
	}

	if kind != domain.DeleteFolderChild {
		img, err := h.catalog.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Already gone; deletion is idempotent.
				w.WriteHeader(http.StatusNoContent)
				return
			}
			slog.Error("get image", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		path = img.Path
		if img.IsFolder {
			kind = domain.DeleteFolder
		}
	}

	if err := h.catalog.Delete(r.Context(), id, path, kind); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusForbidden, "path is outside the images root")
			return
		}
		slog.Error("delete image", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleChildren expands a folder entry into its per-file view records.
// GET /api/images/{id}/children
func (h *ImageHandler) HandleChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	children, err := h.catalog.Children(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "image not found")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("expand folder", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toImageDTOs(children))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func parseTagsField(raw string) ([]domain.Tag, error) {
	if raw == "" {
		return nil, nil
	}
	var inputs []TagInputDTO
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, err
	}
	return toDomainTags(inputs), nil
}
