package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHTTPClient records requests and replies with a fixed status.
type fakeHTTPClient struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	status   int
	err      error
	gate     chan struct{} // when set, Do blocks until the gate closes
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if f.gate != nil {
		<-f.gate
	}
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func (f *fakeHTTPClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestNotificationService_Delivers(t *testing.T) {
	client := &fakeHTTPClient{}
	svc := NewNotificationService("http://gateway.local/notify", 2, 16, time.Second, client, zerolog.Nop())

	sellerID := uuid.New()
	svc.NotifySeller(sellerID, "Post sold", "Your post was purchased for 1000")
	svc.Close()

	require.Equal(t, 1, client.count())
	req := client.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://gateway.local/notify", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var n sellerNotification
	require.NoError(t, json.Unmarshal([]byte(client.bodies[0]), &n))
	assert.Equal(t, sellerID.String(), n.SellerID)
	assert.Equal(t, "Post sold", n.Title)
}

func TestNotificationService_NoGatewayConfigured(t *testing.T) {
	client := &fakeHTTPClient{}
	svc := NewNotificationService("", 1, 4, time.Second, client, zerolog.Nop())

	svc.NotifySeller(uuid.New(), "Tip received", "A message was unlocked")
	svc.Close()

	assert.Equal(t, 0, client.count())
}

func TestNotificationService_DeliveryFailureIsSwallowed(t *testing.T) {
	client := &fakeHTTPClient{status: http.StatusBadGateway}
	svc := NewNotificationService("http://gateway.local/notify", 1, 4, time.Second, client, zerolog.Nop())

	// Gateway failures are logged, never propagated to settlement.
	svc.NotifySeller(uuid.New(), "New subscriber", "Someone subscribed to Gold")
	svc.Close()

	assert.Equal(t, 1, client.count())
}

func TestNotificationService_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeHTTPClient{gate: gate}
	svc := NewNotificationService("http://gateway.local/notify", 1, 1, time.Second, client, zerolog.Nop())

	// First alert occupies the worker, second fills the queue, the rest
	// must drop without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			svc.NotifySeller(uuid.New(), "Post sold", "body")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifySeller blocked on a full queue")
	}

	close(gate)
	svc.Close()
	assert.LessOrEqual(t, client.count(), 2)
}
