package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace-settlement/config"

	"github.com/rs/zerolog"
)

// ProviderAPIClient implements ports.ProviderClient against the payment
// provider's REST API.
type ProviderAPIClient struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewProviderAPIClient creates a provider API client.
func NewProviderAPIClient(cfg config.ProviderConfig, httpClient HTTPClient, log zerolog.Logger) *ProviderAPIClient {
	return &ProviderAPIClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		log:        log,
	}
}

// CancelSubscription asks the provider to stop billing a subscription.
func (c *ProviderAPIClient) CancelSubscription(ctx context.Context, providerSubID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/subscriptions/%s", c.baseURL, providerSubID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create cancel request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cancel subscription %s: %w", providerSubID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		// Already cancelled provider-side. Treat as success.
		c.log.Info().Str("provider_subscription_id", providerSubID).Msg("subscription already absent at provider")
		return nil
	default:
		return fmt.Errorf("cancel subscription %s: provider returned %d", providerSubID, resp.StatusCode)
	}
}
