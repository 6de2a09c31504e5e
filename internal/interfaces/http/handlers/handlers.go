// Package handlers implements the JSON endpoint handlers over the
// analytics service.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"walletiq/internal/app"
	"walletiq/internal/domain"
	"walletiq/internal/metrics"
)

type contextKey string

// RequestIDKey carries the per-request id through the context.
const RequestIDKey contextKey = "request_id"

// RequestID extracts the request id from a context, "unknown" when
// absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// ErrorResponse is the generic failure shape. Upstream credentials and
// stack traces never appear here.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthChecker reports reachability of a collaborator for the service
// health endpoint.
type HealthChecker func(ctx context.Context) string

// Handlers holds the endpoint handlers and their dependencies.
type Handlers struct {
	service *app.Service
	metrics *metrics.Registry
	checks  map[string]HealthChecker
	feed    *trendingFeed
}

// NewHandlers creates the handler set. checks may be nil.
func NewHandlers(service *app.Service, m *metrics.Registry, checks map[string]HealthChecker) *Handlers {
	return &Handlers{
		service: service,
		metrics: m,
		checks:  checks,
		feed:    newTrendingFeed(service, m),
	}
}

// Close stops background feed broadcasting.
func (h *Handlers) Close() {
	h.feed.stop()
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case domain.IsUpstreamUnavailable(err):
		status = http.StatusServiceUnavailable
		message = "upstream chain data unavailable"
	default:
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}

	h.writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Details: message,
	})
}

// observe records one request in the metrics registry.
func (h *Handlers) observe(op string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.metrics.RequestTotal.WithLabelValues(op, status).Inc()
	h.metrics.RequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

// NotFound handles unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   http.StatusText(http.StatusNotFound),
		Details: "the requested endpoint does not exist",
	})
}
