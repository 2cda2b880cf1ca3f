package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmbeddingsClient is a client for the Ollama embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	Model        string
	ExpectedSize int // Expected vector size for validation
	client       *http.Client
}

// NewEmbeddingsClient creates a new embeddings client. Every vector
// returned by EmbedTexts is validated against expectedSize.
func NewEmbeddingsClient(baseURL, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:      baseURL,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       &http.Client{Timeout: 5 * time.Minute},
	}
}

// embedRequest represents the request payload for the embeddings API.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse represents the response from the embeddings API.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// EmbedTexts generates embeddings for the given texts, one float32 vector
// per input in order. The whole call fails if any returned vector does not
// match the expected size.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	payload := embedRequest{Model: c.Model, Input: texts}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/embed", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embedResp.Embeddings))
	}

	result := make([][]float32, len(embedResp.Embeddings))
	for i, embedding := range embedResp.Embeddings {
		if c.ExpectedSize > 0 && len(embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(embedding), c.ExpectedSize)
		}
		vec := make([]float32, len(embedding))
		for j, v := range embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}
	return result, nil
}
