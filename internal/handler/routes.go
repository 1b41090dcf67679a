package handler

import (
	"net/http"

	"github.com/mhersberg/pictor/internal/config"
	"github.com/mhersberg/pictor/internal/domain"
	"github.com/mhersberg/pictor/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, catalog *service.Catalog, tags domain.TagRepository, session *service.SearchSession, cfgStore *config.Store, cfgPath string) {
	images := NewImageHandler(catalog)
	tagHandler := NewTagHandler(tags)
	states := NewSearchStateHandler(session)
	settings := NewConfigHandler(cfgStore, cfgPath)
	files := NewFileHandler(cfgStore.Current().ImagesRoot())

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /api/images", images.HandleRegister)
	mux.HandleFunc("GET /api/images", images.HandleSearch)
	mux.HandleFunc("GET /api/images/{id}", images.HandleGet)
	mux.HandleFunc("PATCH /api/images/{id}", images.HandleUpdate)
	mux.HandleFunc("DELETE /api/images/{id}", images.HandleDelete)
	mux.HandleFunc("GET /api/images/{id}/children", images.HandleChildren)

	mux.HandleFunc("POST /api/folders", images.HandleRegisterFolder)

	mux.HandleFunc("GET /api/tags", tagHandler.HandleList)
	mux.HandleFunc("POST /api/tags", tagHandler.HandleCreate)
	mux.HandleFunc("PATCH /api/tags/{id}", tagHandler.HandleUpdate)
	mux.HandleFunc("DELETE /api/tags/{id}", tagHandler.HandleDelete)

	mux.HandleFunc("GET /api/search-state", states.HandleGet)
	mux.HandleFunc("PUT /api/search-state", states.HandlePut)

	mux.HandleFunc("GET /api/config", settings.HandleGet)
	mux.HandleFunc("PUT /api/config", settings.HandlePut)

	mux.HandleFunc("GET /api/files", files.HandleServe)
}
