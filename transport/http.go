package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/flashbots/onionnet/onion"
)

const maxErrorBody = 4 << 10

// HTTPTransport delivers packets as JSON over HTTP.
type HTTPTransport struct {
	resolver   Resolver
	httpClient *http.Client
}

// NewHTTPTransport creates a transport. A nil httpClient gets a 30 second timeout,
// long enough for a full circuit behind the first hop.
func NewHTTPTransport(resolver Resolver, httpClient *http.Client) *HTTPTransport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{
		resolver:   resolver,
		httpClient: httpClient,
	}
}

// Deliver posts payload to <resolved URL>/message and waits for a 2xx.
func (t *HTTPTransport) Deliver(ctx context.Context, to onion.Address, payload []byte) error {
	baseURL, err := t.resolver.Resolve(to)
	if err != nil {
		return &DeliveryError{To: to, Reason: err.Error()}
	}

	body, err := json.Marshal(&MessageRequest{Message: payload})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{To: to, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{To: to, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	de := &DeliveryError{To: to, Reason: string(respBody), StatusCode: resp.StatusCode}
	var errResp ErrorResponse
	if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
		de.Reason = errResp.Error
		de.Remote = errResp.Class
	}
	return de
}
