package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient talks to the hosted completion endpoint. There is no
// per-request timeout: response bodies stream for as long as the model
// generates, so only dial and TLS handshake are bounded by the transport.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for the given endpoint URL.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

// Stream issues the completion POST and hands back the response body. A
// non-2xx status or a missing body is a hard failure; no retry is attempted.
func (c *HTTPClient) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}
	if resp.Body == nil {
		return nil, errors.New("completion response has no readable body")
	}

	return resp.Body, nil
}
