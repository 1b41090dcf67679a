package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mhersberg/pictor/internal/config"
)

// ConfigHandler exposes the live settings over the API. An accepted
// update is swapped into the settings store, so the next save picks up
// the new compression levels, and is written back to the config file so
// it survives a restart.
type ConfigHandler struct {
	store *config.Store
	path  string
}

// NewConfigHandler creates a new ConfigHandler persisting to path.
func NewConfigHandler(store *config.Store, path string) *ConfigHandler {
	return &ConfigHandler{store: store, path: path}
}

// ConfigDTO mirrors the editable configuration. DataDir is reported for
// display and ignored on update; relocating the catalog is a restart
// operation. A changed Listen address likewise binds on the next start.
type ConfigDTO struct {
	DataDir          string `json:"dataDir"`
	Listen           string `json:"listen"`
	ThumbCompression int    `json:"thumbCompression"`
	ImageCompression int    `json:"imageCompression"`
}

func toConfigDTO(cfg *config.Config) ConfigDTO {
	return ConfigDTO{
		DataDir:          cfg.DataDir,
		Listen:           cfg.Listen,
		ThumbCompression: cfg.ThumbCompression,
		ImageCompression: cfg.ImageCompression,
	}
}

// HandleGet returns the live configuration.
// GET /api/config
func (h *ConfigHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toConfigDTO(h.store.Current()))
}

// HandlePut updates the configuration. The request body is merged over
// the current values, so a client may send only the fields it changes.
// PUT /api/config
func (h *ConfigHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	current := h.store.Current()

	dto := toConfigDTO(current)
	if err := readJSON(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	next := &config.Config{
		DataDir:          current.DataDir,
		Listen:           dto.Listen,
		ThumbCompression: dto.ThumbCompression,
		ImageCompression: dto.ImageCompression,
	}
	if err := h.store.Replace(next); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.persist(next); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write config file")
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(h.store.Current()))
}

func (h *ConfigHandler) persist(cfg *config.Config) error {
	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	if err := cfg.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
