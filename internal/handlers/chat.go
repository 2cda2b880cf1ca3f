package handlers

import (
	"encoding/json"
	"net/http"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/service"
)

// ChatHandler handles HTTP requests for plain, ungrounded chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ServeHTTP handles POST /api/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, service.ChatRequest{Message: req.Message})
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Reply: svcResp.Reply})
}
