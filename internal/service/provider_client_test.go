package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"marketplace-settlement/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderTestClient(status int) (*ProviderAPIClient, *fakeHTTPClient) {
	fake := &fakeHTTPClient{status: status}
	cfg := config.ProviderConfig{
		BaseURL: "https://api.payments.example.com",
		APIKey:  "sk_test_123",
		Timeout: 5 * time.Second,
	}
	return NewProviderAPIClient(cfg, fake, zerolog.Nop()), fake
}

func TestProviderAPIClient_CancelSubscription(t *testing.T) {
	client, fake := newProviderTestClient(http.StatusNoContent)

	err := client.CancelSubscription(context.Background(), "sub_555")
	require.NoError(t, err)

	require.Equal(t, 1, fake.count())
	req := fake.requests[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "https://api.payments.example.com/v1/subscriptions/sub_555", req.URL.String())
	assert.Equal(t, "Bearer sk_test_123", req.Header.Get("Authorization"))
}

func TestProviderAPIClient_CancelSubscription_AlreadyGone(t *testing.T) {
	client, _ := newProviderTestClient(http.StatusNotFound)

	// Already cancelled at the provider: not an error.
	err := client.CancelSubscription(context.Background(), "sub_555")
	assert.NoError(t, err)
}

func TestProviderAPIClient_CancelSubscription_ServerError(t *testing.T) {
	client, _ := newProviderTestClient(http.StatusInternalServerError)

	err := client.CancelSubscription(context.Background(), "sub_555")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
