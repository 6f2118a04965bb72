// Package completion calls a chat-completion service.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultEndpoint is the OpenAI chat completions endpoint.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// SystemPrompt is sent as the system message of every request.
const SystemPrompt = "You are a helpful assistant."

var (
	// ErrTransport covers every failure to obtain a 2xx response.
	ErrTransport = errors.New("completion: transport failure")
	// ErrMalformedResponse is returned when a 2xx body lacks
	// choices[0].message.content.
	ErrMalformedResponse = errors.New("completion: malformed response")
)

// Completer produces one completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one completion call.
type Request struct {
	APIKey string
	Model  string
	Prompt string
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type response struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client is an HTTP Completer.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(u string) Option { return func(c *Client) { c.endpoint = u } }

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient returns a Client. No timeout is set: a call lasts as long as
// the caller's context and the transport allow.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		client:   &http.Client{},
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete sends the prompt as the user message and returns the content of
// the first choice. Non-2xx bodies are logged and reported as ErrTransport.
func (c *Client) Complete(ctx context.Context, r Request) (string, error) {
	body, err := json.Marshal(request{
		Model: r.Model,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: r.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("completion: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("completion: non-success status",
			"status", resp.StatusCode, "body", truncate(string(respBody), 512))
		return "", fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message == nil {
		return "", fmt.Errorf("%w: no choices[0].message", ErrMalformedResponse)
	}
	content := apiResp.Choices[0].Message.Content
	if content == nil {
		return "", fmt.Errorf("%w: no choices[0].message.content", ErrMalformedResponse)
	}
	return *content, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
