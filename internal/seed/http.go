package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const idempotencyHeader = "Idempotency-Key"

// HTTPClient wraps http.Client with a request timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request and returns the status and body.
func (c *HTTPClient) Get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// Post performs a POST request with a JSON body and idempotency key.
func (c *HTTPClient) Post(ctx context.Context, url, key string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// submitOne posts one submission and classifies the outcome.
func submitOne(ctx context.Context, c *HTTPClient, baseURL string, s Submission) (string, error) {
	url := baseURL + "/athletes/" + s.AthleteID + "/" + s.Path
	status, body, err := c.Post(ctx, url, s.Key, s.Body)
	if err != nil {
		return outcomeFailed, err
	}
	switch status {
	case http.StatusAccepted:
		return outcomeAccepted, nil
	case http.StatusOK:
		var ack Ack
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return outcomeDuplicate, nil
		}
		return outcomeAccepted, nil
	default:
		return outcomeFailed, fmt.Errorf("%s: status %d: %s", url, status, bytes.TrimSpace(body))
	}
}
