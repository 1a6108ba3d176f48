package api

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/lifecycle"
)

// ExportHandler serves CSV downloads.
type ExportHandler struct {
	Engine *lifecycle.Engine
}

// All handles GET /api/export/all.csv.
func (h *ExportHandler) All(w http.ResponseWriter, r *http.Request) {
	data, err := h.Engine.ExportAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCSV(w, "lostfound_all.csv", data)
}

// Filtered handles GET /api/export/filtered.csv. It takes the same query
// parameters as GET /api/items.
func (h *ExportHandler) Filtered(w http.ResponseWriter, r *http.Request) {
	data, err := h.Engine.ExportFiltered(r.Context(), filterFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCSV(w, "lostfound_filtered.csv", data)
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
