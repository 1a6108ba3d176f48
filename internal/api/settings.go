package api

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/lifecycle"
)

// SettingsHandler handles the theme, sample import and clear endpoints.
type SettingsHandler struct {
	Engine *lifecycle.Engine
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// GetTheme handles GET /api/theme.
func (h *SettingsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, themeRequest{Theme: h.Engine.Theme(r.Context())})
}

// SetTheme handles PUT /api/theme.
func (h *SettingsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if failed(w, r, h.Engine.SetTheme(r.Context(), req.Theme)) {
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// ImportSample handles POST /api/sample.
func (h *SettingsHandler) ImportSample(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Engine.ImportSample(r.Context())
	if failed(w, r, err) {
		return
	}
	jsonResponse(w, http.StatusCreated, rec)
}

// ClearAll handles DELETE /api/all.
func (h *SettingsHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if failed(w, r, h.Engine.ClearAll(r.Context())) {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "all data cleared"})
}
