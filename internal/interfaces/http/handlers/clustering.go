package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Clustering handles GET /wallet-clustering/{address}.
func (h *Handlers) Clustering(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	address := mux.Vars(r)["address"]

	report, err := h.service.Clustering(r.Context(), address)
	h.observe("clustering", start, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}
