package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 50 << 20 // 50 MB

// AssetHandler serves and accepts files under the static root. Served paths
// may live in subdirectories (covers/, diagrams/); uploads land at the root
// under a plain filename.
type AssetHandler struct {
	staticRoot string
}

// NewAssetHandler creates a handler rooted at the static directory.
func NewAssetHandler(staticRoot string) *AssetHandler {
	return &AssetHandler{staticRoot: staticRoot}
}

// safeJoin resolves a request path against the static root, rejecting
// traversal and absolute paths.
func (h *AssetHandler) safeJoin(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("asset path is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid asset path: %s", rel)
	}
	abs := filepath.Join(h.staticRoot, cleaned)
	// Double-check the resolved path is under the static root.
	if !strings.HasPrefix(abs, h.staticRoot+string(os.PathSeparator)) && abs != h.staticRoot {
		return "", fmt.Errorf("path escapes static directory")
	}
	return abs, nil
}

// uploadName validates that an upload filename is a plain name with no path
// separators or traversal.
func uploadName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return cleaned, nil
}

// ServeAsset handles GET /static/*.
func (h *AssetHandler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	rel, err := url.PathUnescape(raw)
	if err != nil {
		rel = raw
	}
	abs, err := h.safeJoin(rel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if os.IsNotExist(statErr) || (statErr == nil && info.IsDir()) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/assets (multipart/form-data, field "file").
//
//	@Summary  Upload an asset into the static directory
//	@Tags     assets
//	@Accept   multipart/form-data
//	@Success  201 {object} AssetUploadResponse
//	@Router   /api/assets [post]
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := uploadName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(h.staticRoot, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create static dir"))
		return
	}

	dst, err := os.Create(filepath.Join(h.staticRoot, name))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	writeJSON(w, http.StatusCreated, AssetUploadResponse{
		Filename: name,
		Size:     written,
		URL:      "/static/" + name,
		Markdown: fmt.Sprintf("![%s](/static/%s)", name, name),
	})
}
