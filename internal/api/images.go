package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/lostfound/internal/blob"
	"github.com/erazemk/lostfound/internal/imaging"
)

// DefaultMaxUploadBytes caps image uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// ImagesHandler stores and serves item photos.
type ImagesHandler struct {
	Store    blob.Store
	MaxBytes int64
}

type imageResponse struct {
	ImageRef string `json:"imageRef"`
}

// Upload handles POST /api/images. The returned ref is passed as imageRef
// when reporting an item.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		jsonError(w, http.StatusNotFound, "image storage disabled")
		return
	}

	limit := h.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	ref, err := imaging.Store(r.Context(), h.Store, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("image stored", "ref", ref)
	jsonResponse(w, http.StatusCreated, imageResponse{ImageRef: ref})
}

// Get handles GET /api/images/{ref...}. The ref may be given with or
// without the images/ prefix.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		jsonError(w, http.StatusNotFound, "image storage disabled")
		return
	}

	ref := r.PathValue("ref")
	if !strings.HasPrefix(ref, imaging.KeyPrefix) {
		ref = imaging.KeyPrefix + ref
	}

	data, err := h.Store.Get(r.Context(), ref)
	if errors.Is(err, blob.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}
