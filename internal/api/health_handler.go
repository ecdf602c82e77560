package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/qforge/internal/api/shared"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	version string
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler reporting the given build version.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, now: time.Now}
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC(),
		Version:   h.version,
	})
}
