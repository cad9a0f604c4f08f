// Package oracle talks to the external natural-language scoring service
// over an OpenAI-compatible chat-completions endpoint. The service is
// treated as a possibly-unavailable black box: any non-2xx, transport
// error, or empty reply is a failure the caller degrades around.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/neurorouter"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 600
)

// Client issues scoring prompts to the oracle endpoint.
type Client struct {
	apiURL     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewClient creates an oracle client. Zero timeout and maxTokens fall back
// to the package defaults.
func NewClient(apiURL, model string, timeout time.Duration, maxTokens int) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		apiURL:     apiURL,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate sends a prompt and returns the oracle's text reply.
// HTTP 429 maps to neurorouter.ErrRateLimited so callers can classify
// rate limiting with errors.Is.
func (c *Client) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  c.maxTokens,
		"temperature": 0,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("oracle HTTP 429: %w", neurorouter.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil || len(result.Choices) == 0 {
		return "", fmt.Errorf("empty oracle response")
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty oracle response")
	}
	return text, nil
}
