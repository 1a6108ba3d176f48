package api

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/model"
)

// InventoryHandler serves the claimed and deleted partitions and summary views.
type InventoryHandler struct {
	Engine *lifecycle.Engine
}

// Claimed handles GET /api/inventory.
func (h *InventoryHandler) Claimed(w http.ResponseWriter, r *http.Request) {
	(&ItemsHandler{Engine: h.Engine}).list(w, r, model.PartitionClaimed)
}

// Deleted handles GET /api/deleted.
func (h *InventoryHandler) Deleted(w http.ResponseWriter, r *http.Request) {
	(&ItemsHandler{Engine: h.Engine}).list(w, r, model.PartitionDeleted)
}

// Categories handles GET /api/categories.
func (h *InventoryHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := h.Engine.Categories(r.Context())
	if categories == nil {
		categories = []string{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Counts handles GET /api/counts.
func (h *InventoryHandler) Counts(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Engine.Counts(r.Context()))
}
