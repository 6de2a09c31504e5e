package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// WalletHealth handles GET /wallet-health/{address}.
func (h *Handlers) WalletHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	address := mux.Vars(r)["address"]

	report, err := h.service.Health(r.Context(), address)
	h.observe("health", start, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}
