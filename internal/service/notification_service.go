package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// sellerNotification is one queued alert.
type sellerNotification struct {
	SellerID string `json:"seller_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// NotificationService implements ports.NotificationDispatcher: a bounded
// queue drained by a fixed worker pool that posts alerts to the notification
// gateway. Settlement never blocks on delivery; when the queue is full the
// alert is dropped and logged, not the sale.
type NotificationService struct {
	gatewayURL string
	httpClient HTTPClient
	timeout    time.Duration
	queue      chan sellerNotification
	wg         sync.WaitGroup
	closeOnce  sync.Once
	log        zerolog.Logger
}

// NewNotificationService creates the dispatcher and starts its workers.
func NewNotificationService(gatewayURL string, workers, queueSize int, timeout time.Duration, httpClient HTTPClient, log zerolog.Logger) *NotificationService {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	s := &NotificationService{
		gatewayURL: gatewayURL,
		httpClient: httpClient,
		timeout:    timeout,
		queue:      make(chan sellerNotification, queueSize),
		log:        log,
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// NotifySeller enqueues an alert. Non-blocking: a full queue drops the alert.
func (s *NotificationService) NotifySeller(sellerID uuid.UUID, title, body string) {
	n := sellerNotification{SellerID: sellerID.String(), Title: title, Body: body}
	select {
	case s.queue <- n:
	default:
		s.log.Warn().
			Str("seller_id", n.SellerID).
			Str("title", title).
			Msg("notification queue full, alert dropped")
	}
}

// Close stops accepting alerts and waits for the workers to drain the queue.
func (s *NotificationService) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for n := range s.queue {
		s.deliver(n)
	}
}

func (s *NotificationService) deliver(n sellerNotification) {
	if s.gatewayURL == "" {
		s.log.Debug().Str("seller_id", n.SellerID).Msg("no notification gateway configured, skipping")
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Error().Err(err).Str("seller_id", n.SellerID).Msg("notification: failed to marshal payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		s.log.Error().Err(err).Str("seller_id", n.SellerID).Msg("notification: failed to create request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Str("seller_id", n.SellerID).Msg("notification: delivery failed")
		return
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn().
			Str("seller_id", n.SellerID).
			Int("status", resp.StatusCode).
			Msg("notification: gateway returned non-2xx")
		return
	}

	s.log.Debug().Str("seller_id", n.SellerID).Str("title", n.Title).Msg("notification delivered")
}
