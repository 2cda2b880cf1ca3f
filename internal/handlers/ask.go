package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/rag"
)

const maxAskK = 20

// AskHandler handles HTTP requests for grounded question answering.
type AskHandler struct {
	engine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine rag.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// AskRequest represents the HTTP request payload for grounded queries.
// This mirrors rag.AskRequest but is defined here for HTTP layer separation.
type AskRequest struct {
	Question string    `json:"question"`
	Scope    rag.Scope `json:"scope"`
	K        int       `json:"k,omitempty"`
}

// AskResponse represents the HTTP response payload for grounded queries.
type AskResponse struct {
	Answer    string         `json:"answer"`
	Citations []rag.Citation `json:"citations"`
}

// ServeHTTP handles POST /api/ask.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	// Bound user-provided K. Zero means "use the default".
	if req.K < 0 {
		req.K = 0
	}
	if req.K > maxAskK {
		req.K = maxAskK
	}

	resp, err := h.engine.Ask(ctx, rag.AskRequest{
		Question: req.Question,
		Scope:    req.Scope,
		K:        req.K,
	})
	if err != nil {
		if errors.Is(err, rag.ErrDimensionMismatch) {
			logger.ErrorContext(ctx, "embedding dimension mismatch", "error", err)
			writeError(w, http.StatusInternalServerError, "Embedding dimension mismatch; rebuild the index")
			return
		}
		handleStorageError(w, ctx, err, "Failed to process query")
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:    resp.Answer,
		Citations: resp.Citations,
	})
}
