package handlers

import (
	"context"
	"net/http"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/indexer"
)

// IndexHandler handles HTTP requests for index status and rebuilds.
type IndexHandler struct {
	pipeline *indexer.Pipeline
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(pipeline *indexer.Pipeline) *IndexHandler {
	return &IndexHandler{pipeline: pipeline}
}

// RebuildResponse represents the response from the rebuild endpoint.
type RebuildResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Status handles GET /api/index/status.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.pipeline.Stats(ctx)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to get index status")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Rebuild handles POST /api/index/rebuild. The rebuild runs in the
// background with a fresh context so it survives the HTTP request.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "index rebuild triggered via API")

	go func() {
		rebuildCtx := context.Background()
		notes, chunks, err := h.pipeline.ReindexAll(rebuildCtx)
		if err != nil {
			logger.ErrorContext(rebuildCtx, "index rebuild completed with errors",
				"notes", notes, "chunks", chunks, "error", err)
			return
		}
		logger.InfoContext(rebuildCtx, "index rebuild completed", "notes", notes, "chunks", chunks)
	}()

	writeJSON(w, http.StatusAccepted, RebuildResponse{
		Message: "Index rebuild started. Check server logs for progress.",
		Status:  "accepted",
	})
}
