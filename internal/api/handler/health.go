package handler

import (
	"net/http"
	"time"
)

// HealthHandler serves liveness and service metadata endpoints.
type HealthHandler struct {
	started time.Time
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{started: time.Now(), version: version}
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "OK",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// Meta handles GET / with a short service description.
func (h *HealthHandler) Meta(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Instagram Reels Retrieval API",
		"version": h.version,
		"endpoints": map[string]string{
			"health":           "GET /health",
			"reelsByUsername":  "GET /api/reels/user/{username}",
			"reelByUrl":        "POST /api/reels/url",
			"batchByUsernames": "POST /api/reels/batch",
		},
	})
}
