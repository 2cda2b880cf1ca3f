package handlers

import (
	"context"
	"net/http"
	"time"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/storage"
)

// Pinger reports whether an external service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	notes              storage.NoteStore
	llm                Pinger // nil skips the check
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(notes storage.NoteStore, llm Pinger) *HealthHandler {
	return &HealthHandler{
		notes:              notes,
		llm:                llm,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health. Returns 200 when healthy, 503 when
// any check fails.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if _, err := h.notes.List(checkCtx); err != nil {
		logger.WarnContext(ctx, "table store health check failed", "error", err)
		checks["table_store"] = "error"
		issues = append(issues, "table_store_unavailable")
	} else {
		checks["table_store"] = "ok"
	}

	if h.llm != nil {
		if err := h.llm.Ping(checkCtx); err != nil {
			logger.WarnContext(ctx, "llm health check failed", "error", err)
			checks["llm"] = "error"
			issues = append(issues, "llm_unavailable")
		} else {
			checks["llm"] = "ok"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if len(issues) > 0 {
		response.Issues = issues
	}

	writeJSON(w, httpStatus, response)
}
