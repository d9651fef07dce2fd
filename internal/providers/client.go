package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/qa"
)

// maxResponseBytes bounds how much of a remote response is read.
const maxResponseBytes = 8 << 20

// apiClient is the shared retry+timeout JSON transport for the provider
// adapters. Non-2xx statuses become StatusError so the retry policy can
// distinguish 429 and 5xx from terminal 4xx.
type apiClient struct {
	http   *http.Client
	policy qa.RetryPolicy
	apiKey string
	logger *zap.Logger
}

func newAPIClient(timeout time.Duration, policy qa.RetryPolicy, apiKey string, logger *zap.Logger) *apiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &apiClient{
		http:   &http.Client{Timeout: timeout},
		policy: policy,
		apiKey: apiKey,
		logger: logger,
	}
}

// getJSON fetches url and decodes the response body into out.
func (c *apiClient) getJSON(ctx context.Context, url string, out any) error {
	return qa.Retry(ctx, c.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &qa.ConfigError{Reason: fmt.Sprintf("build request for %s: %v", url, err)}
		}
		return c.do(req, out)
	})
}

// postJSON sends body as JSON to url and decodes the response into out.
func (c *apiClient) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &qa.ConfigError{Reason: fmt.Sprintf("encode request for %s: %v", url, err)}
	}
	return qa.Retry(ctx, c.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return &qa.ConfigError{Reason: fmt.Sprintf("build request for %s: %v", url, err)}
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, out)
	})
}

// getBytes fetches url and returns the raw response body, for binary
// endpoints such as screenshot capture.
func (c *apiClient) getBytes(ctx context.Context, url string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := qa.Retry(ctx, c.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &qa.ConfigError{Reason: fmt.Sprintf("build request for %s: %v", url, err)}
		}
		c.authorize(req)
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("call %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
			return &qa.StatusError{Code: resp.StatusCode, URL: url}
		}
		data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response from %s: %w", url, err)
		}
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

func (c *apiClient) do(req *http.Request, out any) error {
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &qa.StatusError{Code: resp.StatusCode, URL: req.URL.String()}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL, err)
	}
	return nil
}

func (c *apiClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
