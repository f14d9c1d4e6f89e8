package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// maxResponseSize prevents OOM on unexpectedly large API responses (10MB).
const maxResponseSize = 10 * 1024 * 1024

// postJSON sends one request body to the endpoint and returns the response
// body. Non-2xx statuses become *UpstreamError carrying the raw body text;
// transport failures propagate unchanged.
func postJSON(ctx context.Context, client *http.Client, api, endpoint string, headers map[string]string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{API: api, Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
