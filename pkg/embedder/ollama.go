// Package embedder produces dense vectors for resume chunks and queries.
package embedder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/talentvec/talentvec/pkg/ollama"
)

// Serializes embedding requests. The llama runner crashes when it receives
// concurrent embedding requests.
var embedMu sync.Mutex

const maxRetries = 3

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embedder generates embeddings through the shared Ollama client.
type Embedder struct {
	client    *ollama.Client
	model     string
	dimension int
}

func New(client *ollama.Client, model string, dimension int) *Embedder {
	if model == "" {
		model = "nomic-embed-text"
	}
	return &Embedder{client: client, model: model, dimension: dimension}
}

func (e *Embedder) Dimension() int {
	return e.dimension
}

func (e *Embedder) Model() string {
	return e.model
}

// Embed returns the dense vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embedMu.Lock()
	defer embedMu.Unlock()

	request := embedRequest{Model: e.model, Prompt: text}

	var resp *http.Response
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err = e.client.MakeRequest(ctx, "/api/embeddings", request)
		if err == nil {
			break
		}
		slog.Debug("Embedding retry", "attempt", attempt+1, "error", err, "text_length", len(text))
		if attempt < maxRetries-1 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to send embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("received empty embedding")
	}
	if e.dimension > 0 && len(response.Embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d",
			len(response.Embedding), e.dimension)
	}

	return response.Embedding, nil
}

// EmbedBatch embeds each text in order. The underlying API is single-text,
// so this is a loop; the batch size only bounds how much work a caller
// submits at once.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}
