package integration

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentCreditsAccumulate verifies that simultaneous settlements for
// the same seller never lose an increment: two 125-unit purchases crediting
// 100 each must land at exactly 200.
func TestConcurrentCreditsAccumulate(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	sellerID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			buyerID, postID := uuid.New(), uuid.New()
			items := fmt.Sprintf(`{"seller_id":"%s","post_id":"%s","amount":125}`, sellerID, postID)
			resp := app.postWebhook(t, purchaseEvent(fmt.Sprintf("evt_cc_%d", idx), buyerID, items))
			_, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(200), app.adminBalance(t, sellerID))
}

// TestConcurrentCreditsHighVolume hammers one wallet with many concurrent
// single-item purchases and checks the exact sum survives.
func TestConcurrentCreditsHighVolume(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	sellerID := uuid.New()
	concurrency := 50

	var wg sync.WaitGroup
	var acked atomic.Int64
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			buyerID, postID := uuid.New(), uuid.New()
			items := fmt.Sprintf(`{"seller_id":"%s","post_id":"%s","amount":100}`, sellerID, postID)
			resp := app.postWebhook(t, purchaseEvent(fmt.Sprintf("evt_many_%d", idx), buyerID, items))
			_, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				acked.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), acked.Load())
	// 80 per purchase, none lost.
	assert.Equal(t, int64(80*concurrency), app.adminBalance(t, sellerID))
}

// TestConcurrentDuplicateDelivery fires the same event id from several
// goroutines at once. Exactly one settlement must happen.
func TestConcurrentDuplicateDelivery(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	buyerID, sellerID := uuid.New(), uuid.New()
	event := subscriptionEvent("evt_dup_storm", buyerID, sellerID, "sub_storm", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := app.postWebhook(t, event)
			_, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(700), app.adminBalance(t, sellerID))
}
