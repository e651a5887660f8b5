// Package ollama provides the shared client for the LLM runtime.
//
// Every call is session-isolated: a fresh request with no conversational
// state, so extractors can never see residue from a peer call.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/talentvec/talentvec/internal/httpclient"
)

const (
	defaultTimeout    = 60 * time.Second
	longPromptTimeout = 300 * time.Second
	healthTimeout     = 5 * time.Second

	// Prompts at or above this many characters get the long timeout.
	longPromptThreshold = 8000
)

// Options are the decoding parameters sent with every request. Extraction
// calls use low temperature and small top-p for determinism.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// DeterministicOptions is the decoding profile for field extraction and
// classification.
func DeterministicOptions() Options {
	return Options{Temperature: 0.1, TopP: 0.3}
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *Options      `json:"options,omitempty"`
}

// generation responses vary across runtime versions; all known field names
// are tried in order.
type generateResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
	Content  string `json:"content"`
	Message  struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

func (r *generateResponse) text() string {
	for _, s := range []string{r.Response, r.Text, r.Content, r.Message.Content} {
		if s != "" {
			return s
		}
	}
	return ""
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Client is a shared HTTP client for the Ollama API. It carries no
// conversational state; one instance serves the whole process.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *httpclient.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: longPromptTimeout}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(2*time.Second),
		),
	}
}

func (c *Client) Model() string {
	return c.model
}

// Generate runs a single isolated completion. The system message instructs
// the model to ignore any prior context; callers must not rely on history.
// If the generate endpoint returns 404 the call is transparently retried
// against the chat endpoint.
func (c *Client) Generate(ctx context.Context, system, prompt string, opts Options) (string, error) {
	timeout := defaultTimeout
	if len(prompt) >= longPromptThreshold {
		timeout = longPromptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  system,
		Stream:  false,
		Options: &opts,
	}

	resp, err := c.post(ctx, "/api/generate", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return c.generateViaChat(ctx, system, prompt, opts)
	}

	return parseGeneration(resp)
}

func (c *Client) generateViaChat(ctx context.Context, system, prompt string, opts Options) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  &opts,
	}

	resp, err := c.post(ctx, "/api/chat", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return parseGeneration(resp)
}

func parseGeneration(resp *http.Response) (string, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("LLM API error: %s", parsed.Error)
	}

	text := parsed.text()
	if text == "" {
		return "", fmt.Errorf("LLM returned empty response")
	}
	return text, nil
}

// Healthy checks GET /api/tags with a short timeout.
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("LLM health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("LLM health check returned status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode /api/tags response: %w", err)
	}
	if len(tags.Models) == 0 {
		return fmt.Errorf("LLM runtime has no models loaded")
	}
	return nil
}

// MakeRequest posts a JSON payload to an arbitrary API endpoint. Used by the
// embedder, which shares this client.
func (c *Client) MakeRequest(ctx context.Context, endpoint string, payload interface{}) (*http.Response, error) {
	return c.post(ctx, endpoint, payload)
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	llmRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
