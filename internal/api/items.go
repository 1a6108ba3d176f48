package api

import (
	"context"
	"net/http"

	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/query"
)

// ItemsHandler handles the item lifecycle endpoints.
type ItemsHandler struct {
	Engine *lifecycle.Engine
}

type itemResponse struct {
	Item      model.Record    `json:"item"`
	Partition model.Partition `json:"partition"`
}

// filterFromQuery reads the list filter from the query string.
func filterFromQuery(r *http.Request) query.Filter {
	q := r.URL.Query()
	return query.Filter{
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Verified: q.Get("verified"),
		Search:   q.Get("q"),
		Sort:     q.Get("sort"),
	}
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request, p model.Partition) {
	records, err := h.Engine.List(r.Context(), p, filterFromQuery(r))
	if failed(w, r, err) {
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.PartitionActive)
}

// Report handles POST /api/items.
func (h *ItemsHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.ReportInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Engine.Report(r.Context(), req)
	if failed(w, r, err) {
		return
	}
	jsonResponse(w, http.StatusCreated, rec)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, p, err := h.Engine.Find(r.Context(), r.PathValue("id"))
	if failed(w, r, err) {
		return
	}
	jsonResponse(w, http.StatusOK, itemResponse{Item: rec, Partition: p})
}

// Edit handles PUT /api/items/{id}.
func (h *ItemsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var patch model.Patch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Engine.Edit(r.Context(), r.PathValue("id"), patch)
	if failed(w, r, err) {
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Delete)
}

// Claim handles POST /api/items/{id}/claim.
func (h *ItemsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Claim)
}

// ToggleVerification handles POST /api/items/{id}/verify.
func (h *ItemsHandler) ToggleVerification(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.ToggleVerification)
}

// Restore handles POST /api/items/{id}/restore.
func (h *ItemsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Restore)
}

// Purge handles DELETE /api/items/{id}/purge.
func (h *ItemsHandler) Purge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Purge)
}

func (h *ItemsHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (model.Record, error)) {
	rec, err := op(r.Context(), r.PathValue("id"))
	if failed(w, r, err) {
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

// History handles GET /api/items/{id}/history. Purged records keep their
// history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	history := h.Engine.History(r.Context(), id)
	if len(history) == 0 {
		if _, _, err := h.Engine.Find(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		history = []model.Transition{}
	}
	jsonResponse(w, http.StatusOK, history)
}
