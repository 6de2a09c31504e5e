package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Eligibility handles GET /eligibility/{address}.
func (h *Handlers) Eligibility(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	address := mux.Vars(r)["address"]

	report, err := h.service.Eligibility(r.Context(), address)
	h.observe("eligibility", start, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}
