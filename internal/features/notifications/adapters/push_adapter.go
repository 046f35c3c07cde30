package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cakeshop-backend/internal/core/config"
	"cakeshop-backend/internal/core/httpclient"
	"cakeshop-backend/internal/features/notifications/domain"
)

// HTTPPushAdapter implements the PushSender port against an Expo-style push
// HTTP endpoint: one POST per device token.
type HTTPPushAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the push provider details.
	config config.PushConfig
}

// NewHTTPPushAdapter creates a new HTTPPushAdapter.
func NewHTTPPushAdapter(cfg config.PushConfig) *HTTPPushAdapter {
	timeout := time.Duration(cfg.TokenTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPPushAdapter{
		client: httpclient.NewClient(timeout),
		config: cfg,
	}
}

// pushRequest is the provider wire format for a single send.
type pushRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Send delivers one push message to one token.
func (a *HTTPPushAdapter) Send(ctx context.Context, token string, msg domain.PushMessage) error {
	payload, err := json.Marshal(pushRequest{
		To:    token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push provider returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
