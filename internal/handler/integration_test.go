package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhersberg/pictor/internal/config"
	"github.com/mhersberg/pictor/internal/handler"
	"github.com/mhersberg/pictor/internal/repository/sqlite"
	"github.com/mhersberg/pictor/internal/service"
	"github.com/mhersberg/pictor/internal/store"
)

type imageDTO struct {
	ID            int64  `json:"id"`
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnailPath"`
	Description   string `json:"description"`
	Tags          []struct {
		Name string `json:"name"`
		Hex  string `json:"hex"`
	} `json:"tags"`
	CreatedAt  string `json:"createdAt"`
	IsFolder   bool   `json:"isFolder"`
	IsPrepared bool   `json:"isPrepared"`
}

type pageDTO struct {
	Content    []imageDTO `json:"content"`
	TotalPages int        `json:"totalPages"`
	PageNumber int        `json:"pageNumber"`
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	base := t.TempDir()

	db, err := sqlite.New(filepath.Join(base, "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	cfgStore := config.NewStore(config.Default(base))
	root := cfgStore.Current().ImagesRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir images root: %v", err)
	}
	files := store.New(root, func() store.Settings {
		current := cfgStore.Current()
		return store.Settings{
			ThumbCompression: current.ThumbCompression,
			ImageCompression: current.ImageCompression,
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := service.NewCatalog(db.Images(), db.Tags(), files, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, catalog, db.Tags(), service.NewSearchSession(), cfgStore, filepath.Join(base, "config.toml"))

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv, root
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uploadImage(t *testing.T, srv *httptest.Server, description, tagsJSON string) imageDTO {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "upload.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(testPNG(t)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.WriteField("description", description); err != nil {
		t.Fatalf("write description: %v", err)
	}
	if tagsJSON != "" {
		if err := mw.WriteField("tags", tagsJSON); err != nil {
			t.Fatalf("write tags: %v", err)
		}
	}
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/images", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/images: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload: expected 201, got %d: %s", resp.StatusCode, raw)
	}

	var dto imageDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return dto
}

func TestIntegration_RegisterSearchDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	uploaded := uploadImage(t, srv, "a tabby cat",
		`[{"name":"Animal","color":"green"},{"name":"cute","color":"pink"}]`)

	if !uploaded.IsPrepared || uploaded.IsFolder {
		t.Fatalf("wrong flags: %+v", uploaded)
	}
	if len(uploaded.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %+v", uploaded.Tags)
	}
	// Tag names come back case-normalized and carry their badge color.
	for _, tag := range uploaded.Tags {
		if tag.Name != strings.ToLower(tag.Name) {
			t.Fatalf("tag name not lowercased: %q", tag.Name)
		}
		if tag.Hex == "" {
			t.Fatalf("tag missing hex: %+v", tag)
		}
	}
	if len(uploaded.CreatedAt) != len("2006-01-02") {
		t.Fatalf("createdAt not day-granular: %q", uploaded.CreatedAt)
	}

	// Search by text and tags combined.
	query := url.Values{"query": {"tabby"}, "tags": {"animal", "cute"}}
	resp, err := http.Get(srv.URL + "/api/images?" + query.Encode())
	if err != nil {
		t.Fatalf("GET /api/images: %v", err)
	}
	defer resp.Body.Close()
	var page pageDTO
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode search response: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].ID != uploaded.ID {
		t.Fatalf("search missed the upload: %+v", page)
	}
	if page.TotalPages != 1 || page.PageNumber != 0 {
		t.Fatalf("wrong page envelope: %+v", page)
	}

	// The stored file is reachable through the files endpoint.
	resp, err = http.Get(srv.URL + "/api/files?path=" + url.QueryEscape(uploaded.ThumbnailPath))
	if err != nil {
		t.Fatalf("GET /api/files: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("serve thumbnail: expected 200, got %d", resp.StatusCode)
	}

	// Delete, then confirm the entry is gone. A second delete still
	// succeeds.
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/images/%d", srv.URL, uploaded.ID), nil)
		resp, err = http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("DELETE /api/images/%d: %v", uploaded.ID, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete round %d: expected 204, got %d", i, resp.StatusCode)
		}
	}

	resp, err = http.Get(fmt.Sprintf("%s/api/images/%d", srv.URL, uploaded.ID))
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestIntegration_FolderRegistrationAndChildren(t *testing.T) {
	srv, _ := newTestServer(t)

	src := t.TempDir()
	for _, name := range []string{"a2.png", "a10.png", "a1.png"} {
		if err := os.WriteFile(filepath.Join(src, name), testPNG(t), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	body, _ := json.Marshal(map[string]any{
		"path":        src,
		"description": "scans",
	})
	resp, err := http.Post(srv.URL+"/api/folders", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/folders: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}

	var created struct {
		Image     imageDTO `json:"image"`
		FileCount int      `json:"fileCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !created.Image.IsFolder || created.FileCount != 3 {
		t.Fatalf("wrong folder result: %+v", created)
	}

	resp, err = http.Get(fmt.Sprintf("%s/api/images/%d/children", srv.URL, created.Image.ID))
	if err != nil {
		t.Fatalf("GET children: %v", err)
	}
	defer resp.Body.Close()
	var children []imageDTO
	if err := json.NewDecoder(resp.Body).Decode(&children); err != nil {
		t.Fatalf("decode children: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	for _, child := range children {
		if child.Description != "scans" || child.IsFolder {
			t.Fatalf("child did not inherit folder fields: %+v", child)
		}
	}
}

func TestIntegration_EmptyFolderRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"path": t.TempDir()})
	resp, err := http.Post(srv.URL+"/api/folders", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/folders: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty folder, got %d", resp.StatusCode)
	}
}

func TestIntegration_SearchStateRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	want := map[string]any{
		"query": "sunset",
		"tags":  []string{"beach"},
		"sort":  "created_asc",
		"page":  3,
	}
	body, _ := json.Marshal(want)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/search-state", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/search-state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/search-state")
	if err != nil {
		t.Fatalf("GET /api/search-state: %v", err)
	}
	defer resp.Body.Close()
	var got struct {
		Query string   `json:"query"`
		Tags  []string `json:"tags"`
		Sort  string   `json:"sort"`
		Page  int      `json:"page"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if got.Query != "sunset" || got.Page != 3 || got.Sort != "created_asc" || len(got.Tags) != 1 {
		t.Fatalf("state did not round-trip: %+v", got)
	}
}

func TestIntegration_ConfigUpdatePersists(t *testing.T) {
	srv, root := newTestServer(t)
	base := filepath.Dir(root)

	body := strings.NewReader(`{"thumbCompression": 2, "imageCompression": 1}`)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/config", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/config")
	if err != nil {
		t.Fatalf("GET /api/config: %v", err)
	}
	var got struct {
		Listen           string `json:"listen"`
		ThumbCompression int    `json:"thumbCompression"`
		ImageCompression int    `json:"imageCompression"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	resp.Body.Close()
	if got.ThumbCompression != 2 || got.ImageCompression != 1 {
		t.Fatalf("live config not updated: %+v", got)
	}
	// Fields absent from the request keep their current values.
	if got.Listen != "127.0.0.1:7878" {
		t.Fatalf("listen changed unexpectedly: %q", got.Listen)
	}

	// The change survives a restart via the written config file.
	reloaded, err := config.Load(filepath.Join(base, "config.toml"), base)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if reloaded.ThumbCompression != 2 || reloaded.ImageCompression != 1 {
		t.Fatalf("written config = %+v", reloaded)
	}
}

func TestIntegration_ConfigRejectsOutOfRange(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.NewReader(`{"thumbCompression": 42}`)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/config", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/config")
	if err != nil {
		t.Fatalf("GET /api/config: %v", err)
	}
	defer resp.Body.Close()
	var got struct {
		ThumbCompression int `json:"thumbCompression"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if got.ThumbCompression != 9 {
		t.Fatalf("rejected update leaked into live config: %d", got.ThumbCompression)
	}
}

func TestIntegration_FilesEndpointRefusesEscape(t *testing.T) {
	srv, root := newTestServer(t)

	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	if err := os.WriteFile(outside, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	for _, path := range []string{
		outside,
		filepath.Join(root, "..", "secret.txt"),
	} {
		resp, err := http.Get(srv.URL + "/api/files?path=" + url.QueryEscape(path))
		if err != nil {
			t.Fatalf("GET /api/files: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("path %q: expected 403, got %d", path, resp.StatusCode)
		}
	}
}

func TestIntegration_DeleteRefusesPathOutsideRoot(t *testing.T) {
	srv, root := newTestServer(t)

	uploaded := uploadImage(t, srv, "decoy", "")

	// A directory of documents next to the images root; a folder-child
	// delete pointed at it must not remove the file or the directory.
	outside := filepath.Join(filepath.Dir(root), "documents")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatal(err)
	}
	victim := filepath.Join(outside, "taxes.pdf")
	if err := os.WriteFile(victim, []byte("important"), 0o644); err != nil {
		t.Fatal(err)
	}

	target := fmt.Sprintf("%s/api/images/%d?kind=folder-child&path=%s",
		srv.URL, uploaded.ID, url.QueryEscape(victim))
	req, _ := http.NewRequest(http.MethodDelete, target, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE with outside path: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	if _, err := os.Stat(victim); err != nil {
		t.Fatalf("victim file was touched: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("victim directory was touched: %v", err)
	}
	// The catalog entry itself is untouched too.
	resp, err = http.Get(fmt.Sprintf("%s/api/images/%d", srv.URL, uploaded.ID))
	if err != nil {
		t.Fatalf("GET after refused delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected entry to survive, got %d", resp.StatusCode)
	}
}

func TestIntegration_TagLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"name": "Vacation", "color": "teal"})
	resp, err := http.Post(srv.URL+"/api/tags", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/tags: %v", err)
	}
	var tag struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tag); err != nil {
		t.Fatalf("decode tag: %v", err)
	}
	resp.Body.Close()
	if tag.Name != "vacation" || tag.Color != "teal" {
		t.Fatalf("wrong created tag: %+v", tag)
	}

	// Recolor it.
	body, _ = json.Marshal(map[string]string{"color": "orange"})
	req, _ := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/tags/%d", srv.URL, tag.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH /api/tags: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&tag); err != nil {
		t.Fatalf("decode updated tag: %v", err)
	}
	resp.Body.Close()
	if tag.Color != "orange" || tag.Name != "vacation" {
		t.Fatalf("wrong updated tag: %+v", tag)
	}

	// Delete it and confirm the vocabulary is empty.
	req, _ = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/tags/%d", srv.URL, tag.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/tags: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/tags")
	if err != nil {
		t.Fatalf("GET /api/tags: %v", err)
	}
	defer resp.Body.Close()
	var tags []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("expected no tags, got %d", len(tags))
	}
}
