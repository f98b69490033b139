// Package llm is a narrow client for an OpenAI-compatible chat completion
// endpoint. It is the gateway's generation collaborator; a failure here is
// surfaced as an upstream error and never cached.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/promptgate/internal/config"
)

// ErrCompletionFailed wraps every transport and protocol failure of the
// completion call.
var ErrCompletionFailed = errors.New("llm: completion failed")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces one non-streaming completion for a conversation.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// HTTPClient calls a /chat/completions endpoint.
type HTTPClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewHTTPClient builds a completion client from config.
func NewHTTPClient(cfg config.LLMConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("llm: base URL required")
	}

	timeout := cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type completionRequest struct {
	Model       string    `json:"model"`
	Stream      bool      `json:"stream"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the assistant's reply.
func (c *HTTPClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages", ErrCompletionFailed)
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Stream:      false,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey.IsSet() {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey.Value())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrCompletionFailed, resp.StatusCode, string(respBody))
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrCompletionFailed, err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrCompletionFailed)
	}

	return decoded.Choices[0].Message.Content, nil
}
