package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"walletiq/internal/domain"
	"walletiq/internal/trending"
)

// parseTrendingQuery reads limit/status/chain query parameters. Limits
// are clamped downstream, never rejected; an unparseable limit falls
// back to the default.
func parseTrendingQuery(r *http.Request) trending.Query {
	q := trending.Query{Chain: r.URL.Query().Get("chain")}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			q.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				q.Statuses = append(q.Statuses, domain.ProjectStatus(s))
			}
		}
	}
	return q
}

// Trending handles GET /trending.
func (h *Handlers) Trending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.service.Trending(r.Context(), parseTrendingQuery(r))
	h.observe("trending", start, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
