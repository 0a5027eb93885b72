package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TestResult describes a connectivity check against the backend.
type TestResult struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	ResponseTime   time.Duration `json:"response_time"`
}

// TestConnection verifies that the configured backend is reachable.
// For OpenAI-compatible APIs it lists models; for Ollama it hits the
// local tags endpoint; for Claude it sends a one-token message.
func (c *Client) TestConnection(ctx context.Context) TestResult {
	start := time.Now()

	if c.cfg.APIType != "ollama" && c.cfg.APIKey == "" {
		return TestResult{Success: false, Message: "API key is empty"}
	}

	var err error
	switch c.cfg.APIType {
	case "openai":
		err = c.getOK(ctx, c.cfg.APIURL+"/models", map[string]string{
			"Authorization": "Bearer " + c.cfg.APIKey,
		})
	case "ollama":
		base := strings.TrimSuffix(c.cfg.APIURL, "/v1")
		err = c.getOK(ctx, base+"/api/tags", nil)
	case "claude":
		_, err = c.callClaude(ctx, "Hi", c.cfg.DetectionModel)
	default:
		err = fmt.Errorf("unsupported api type: %q", c.cfg.APIType)
	}

	if err != nil {
		return TestResult{
			Success:      false,
			Message:      err.Error(),
			ResponseTime: time.Since(start),
		}
	}
	return TestResult{
		Success:      true,
		Message:      "connection ok",
		ResponseTime: time.Since(start),
	}
}

func (c *Client) getOK(ctx context.Context, url string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return nil
}
