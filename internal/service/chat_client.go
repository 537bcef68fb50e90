package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketplace-settlement/config"
)

// ChatAPIClient implements ports.ChatStore against the chat service that owns
// tip-gated message state. The paid flag it stores doubles as the tip-unlock
// idempotency source.
type ChatAPIClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient HTTPClient
}

// NewChatAPIClient creates a chat service client.
func NewChatAPIClient(cfg config.ChatConfig, httpClient HTTPClient) *ChatAPIClient {
	return &ChatAPIClient{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
	}
}

type messageState struct {
	Paid bool `json:"paid"`
}

// IsMessagePaid reads the paid flag of a tip-gated message.
func (c *ChatAPIClient) IsMessagePaid(ctx context.Context, roomID, messageID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/rooms/%s/messages/%s", c.baseURL, roomID, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create message state request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch message state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetch message state: chat service returned %d", resp.StatusCode)
	}

	var state messageState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return false, fmt.Errorf("decode message state: %w", err)
	}
	return state.Paid, nil
}

// MarkMessagePaid sets the paid flag, unlocking the message for the buyer.
func (c *ChatAPIClient) MarkMessagePaid(ctx context.Context, roomID, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/rooms/%s/messages/%s/paid", c.baseURL, roomID, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return fmt.Errorf("create mark paid request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mark message paid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mark message paid: chat service returned %d", resp.StatusCode)
	}
	return nil
}
