package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// HTTPBackend calls a JSON backend at POST <BaseURL>/<op>.
type HTTPBackend struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPBackend creates a backend client. A zero timeout defaults to 10s.
func NewHTTPBackend(baseURL, apiKey string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type callRequest struct {
	UserID string `json:"userId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type callResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Call never returns a Go error: transport and decoding failures become
// error responses with status 0 or the HTTP status.
func (b *HTTPBackend) Call(ctx context.Context, op Op, userID string, payload any) Response {
	body, err := json.Marshal(callRequest{UserID: userID, Data: payload})
	if err != nil {
		return Failed(0, fmt.Sprintf("failed to encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/"+string(op), bytes.NewReader(body))
	if err != nil {
		return Failed(0, fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return Failed(0, fmt.Sprintf("failed to send request: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Failed(resp.StatusCode, fmt.Sprintf("failed to read response: %v", err))
	}

	var decoded callResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return Failed(resp.StatusCode, fmt.Sprintf("invalid response body: %v", err))
		}
	}

	if resp.StatusCode >= 300 || decoded.Error != "" {
		msg := decoded.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Failed(resp.StatusCode, msg)
	}
	return Response{Data: decoded.Data, Status: resp.StatusCode}
}
