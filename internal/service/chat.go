package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks notebase-ai/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks notebase-ai/internal/service ChatService

import (
	"context"

	"notebase-ai/internal/contextutil"
)

// LLMClient is an interface for interacting with an LLM chat API, defined
// from the service layer's perspective.
type LLMClient interface {
	// Chat sends a message to the LLM and returns the reply.
	Chat(ctx context.Context, message string) (string, error)
}

// ChatRequest represents an ungrounded chat request.
type ChatRequest struct {
	Message string
}

// ChatResponse represents an ungrounded chat response.
type ChatResponse struct {
	Reply string
}

// ChatService provides plain, ungrounded chat. Grounded question answering
// lives in the retrieval engine.
type ChatService interface {
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// chatService implements ChatService.
type chatService struct {
	llmClient LLMClient
}

// NewChatService creates a new ChatService.
func NewChatService(llmClient LLMClient) ChatService {
	return &chatService{llmClient: llmClient}
}

// ProcessChat processes a chat request.
func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Message == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return ChatResponse{}, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	reply, err := s.llmClient.Chat(ctx, req.Message)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return ChatResponse{}, WrapError(err, "failed to get LLM response")
	}

	logger.InfoContext(ctx, "chat request processed", "message_length", len(req.Message), "reply_length", len(reply))
	return ChatResponse{Reply: reply}, nil
}
