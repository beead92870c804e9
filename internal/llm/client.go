// Package llm declares the LLMClient capability boundary and provides a
// thin default implementation against an OpenAI-compatible chat-completions
// endpoint. Grounded on the request/response shape of
// C360Studio-semspec's internal llm.Client, narrowed to the single
// complete(prompt, timeout) -> text operation this runtime needs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client is the out-of-scope LLM-provider capability. Jobs and the
// strategist tick depend only on this interface.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options tunes a single completion call.
type Options struct {
	Temperature float64
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// HTTPClient is a default Client implementation that speaks the
// OpenAI/OpenRouter-compatible chat-completions protocol. It is the only
// concrete implementation this runtime ships; production deployments may
// substitute any other Client.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient builds a default Client. baseURL is the API root without
// the `/chat/completions` path segment, which Complete appends, e.g.
// "https://api.openai.com/v1".
func NewHTTPClient(baseURL, apiKey, model string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (c *HTTPClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm response had no choices")
	}

	c.logger.Debug("llm completion", "latency", time.Since(start), "model", c.model)
	return parsed.Choices[0].Message.Content, nil
}
