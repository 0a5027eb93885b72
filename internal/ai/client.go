// Package ai calls the text-understanding backend that classifies
// screen activity. Three wire protocols are supported: OpenAI
// compatible, Ollama (local) and the Claude messages API. The core
// never sees the transport; it talks to the Analyzer interface and
// selects a model through a role name.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"myfocus/internal/config"
)

// Model roles. "detection" classifies monitoring samples; "report" is
// the larger model reserved for summaries.
const (
	RoleDetection = "detection"
	RoleReport    = "report"
)

// Analyzer sends a prompt to the classification backend and returns
// the raw reply text.
type Analyzer interface {
	Analyze(ctx context.Context, prompt, role string) (string, error)
}

// Client is an HTTP Analyzer configured from config.AIConfig.
type Client struct {
	cfg        config.AIConfig
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewClient creates a backend client.
func NewClient(cfg config.AIConfig, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log.Named("ai"),
	}
}

// Analyze sends the prompt to the model selected by role.
func (c *Client) Analyze(ctx context.Context, prompt, role string) (string, error) {
	model, err := c.modelFor(role)
	if err != nil {
		return "", err
	}

	start := time.Now()
	var reply string
	switch c.cfg.APIType {
	case "openai":
		reply, err = c.callOpenAI(ctx, prompt, model)
	case "ollama":
		reply, err = c.callOllama(ctx, prompt, model)
	case "claude":
		reply, err = c.callClaude(ctx, prompt, model)
	default:
		return "", fmt.Errorf("unsupported api type: %q", c.cfg.APIType)
	}
	if err != nil {
		return "", err
	}

	c.log.Debugw("backend reply", "role", role, "model", model,
		"chars", len(reply), "took", time.Since(start))
	return reply, nil
}

func (c *Client) modelFor(role string) (string, error) {
	switch role {
	case RoleDetection:
		return c.cfg.DetectionModel, nil
	case RoleReport:
		return c.cfg.ReportModel, nil
	default:
		return "", fmt.Errorf("unsupported model role: %q", role)
	}
}

// chatMessage is the shared message shape for OpenAI and Claude.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// callOpenAI posts to an OpenAI-compatible /chat/completions endpoint.
func (c *Client) callOpenAI(ctx context.Context, prompt, model string) (string, error) {
	req := map[string]any{
		"model":       model,
		"messages":    []chatMessage{{Role: "user", Content: prompt}},
		"max_tokens":  500,
		"temperature": 0.3,
	}

	respBody, err := c.post(ctx, c.cfg.APIURL+"/chat/completions", req, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

// callOllama posts to a local Ollama /api/generate endpoint. Ollama
// serves under the bare host, so a trailing /v1 is stripped.
func (c *Client) callOllama(ctx context.Context, prompt, model string) (string, error) {
	req := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	}

	base := strings.TrimSuffix(c.cfg.APIURL, "/v1")
	respBody, err := c.post(ctx, base+"/api/generate", req, nil)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Response string `json:"response"`
		Error    string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("API error: %s", parsed.Error)
	}
	return parsed.Response, nil
}

// callClaude posts to the Claude messages API.
func (c *Client) callClaude(ctx context.Context, prompt, model string) (string, error) {
	req := map[string]any{
		"model":      model,
		"max_tokens": 500,
		"messages":   []chatMessage{{Role: "user", Content: prompt}},
	}

	respBody, err := c.post(ctx, c.cfg.APIURL+"/messages", req, map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return parsed.Content[0].Text, nil
}

// post marshals body, sends it, and returns the response bytes. A
// non-2xx status is an error carrying the body for diagnostics.
func (c *Client) post(ctx context.Context, url string, body any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
