package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"marketplace-settlement/internal/core/ports/mocks"
	"marketplace-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type dispatcherTestDeps struct {
	d          *EventDispatcher
	verifier   *mocks.MockEventVerifier
	dedup      *mocks.MockEventDedup
	settlement *mocks.MockSettlementService
	ctrl       *gomock.Controller
}

func setupDispatcher(t *testing.T) *dispatcherTestDeps {
	ctrl := gomock.NewController(t)
	deps := &dispatcherTestDeps{
		verifier:   mocks.NewMockEventVerifier(ctrl),
		dedup:      mocks.NewMockEventDedup(ctrl),
		settlement: mocks.NewMockSettlementService(ctrl),
		ctrl:       ctrl,
	}
	deps.d = NewEventDispatcher(deps.verifier, deps.dedup, deps.settlement, zerolog.Nop())
	return deps
}

func purchasePayload(eventID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.completed",
		"data": {
			"mode": "payment",
			"metadata": {
				"buyer_id": %q,
				"items": [{"seller_id": %q, "post_id": %q, "amount": 1000}]
			}
		}
	}`, eventID, uuid.New(), uuid.New(), uuid.New()))
}

func TestEventDispatcher_InvalidSignature(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := purchasePayload("evt_1")
	deps.verifier.EXPECT().Verify(payload, "bad").Return(errors.New("signature mismatch"))

	err := deps.d.Dispatch(context.Background(), payload, "bad")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SEC_001", appErr.Code)
	assert.False(t, apperror.IsRetryable(err), "bad signature must not trigger redelivery")
}

func TestEventDispatcher_MalformedEventAcknowledged(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := []byte(`{"id":"evt_2","type":"checkout.completed","data":{"mode":"teleport"}}`)
	deps.verifier.EXPECT().Verify(payload, "sig").Return(nil)
	// No dedup, no settlement: the payload is unusable and acknowledged.

	err := deps.d.Dispatch(context.Background(), payload, "sig")
	assert.NoError(t, err)
}

func TestEventDispatcher_UnknownTypeAcknowledged(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := []byte(`{"id":"evt_3","type":"invoice.created","data":{}}`)
	deps.verifier.EXPECT().Verify(payload, "sig").Return(nil)

	err := deps.d.Dispatch(context.Background(), payload, "sig")
	assert.NoError(t, err)
}

func TestEventDispatcher_RoutesPurchase(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := purchasePayload("evt_4")
	deps.verifier.EXPECT().Verify(payload, "sig").Return(nil)
	deps.dedup.EXPECT().MarkSeen(gomock.Any(), "evt_4", dedupTTL).Return(true, nil)
	deps.settlement.EXPECT().SettlePurchase(gomock.Any(), gomock.Any()).Return(nil)

	err := deps.d.Dispatch(context.Background(), payload, "sig")
	assert.NoError(t, err)
}

func TestEventDispatcher_DuplicateSuppressed(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := purchasePayload("evt_5")
	deps.verifier.EXPECT().Verify(payload, "sig").Return(nil)
	deps.dedup.EXPECT().MarkSeen(gomock.Any(), "evt_5", dedupTTL).Return(false, nil)
	// Settlement never runs for a suppressed duplicate.

	err := deps.d.Dispatch(context.Background(), payload, "sig")
	assert.NoError(t, err)
}

func TestEventDispatcher_DedupOutageDegradesToProcessing(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := purchasePayload("evt_6")
	deps.verifier.EXPECT().Verify(payload, "sig").Return(nil)
	deps.dedup.EXPECT().MarkSeen(gomock.Any(), "evt_6", dedupTTL).Return(false, errors.New("redis down"))
	// A dedup outage must not drop events; the ownership records absorb
	// any duplicate that slips through.
	deps.settlement.EXPECT().SettlePurchase(gomock.Any(), gomock.Any()).Return(nil)

	err := deps.d.Dispatch(context.Background(), payload, "sig")
	assert.NoError(t, err)
}

func TestEventDispatcher_TransientFailureReleasesClaimAndRetries(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := purchasePayload("evt_7")
	deps.verifier.EXPECT().Verify(payload, "sig").Return(nil)
	deps.dedup.EXPECT().MarkSeen(gomock.Any(), "evt_7", dedupTTL).Return(true, nil)
	deps.settlement.EXPECT().SettlePurchase(gomock.Any(), gomock.Any()).
		Return(apperror.ErrTransient(errors.New("db down")))
	deps.dedup.EXPECT().Forget(gomock.Any(), "evt_7").Return(nil)

	err := deps.d.Dispatch(context.Background(), payload, "sig")
	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err))
}

func TestEventDispatcher_PermanentFailureAcknowledged(t *testing.T) {
	deps := setupDispatcher(t)
	defer deps.ctrl.Finish()

	payload := purchasePayload("evt_8")
	deps.verifier.EXPECT().Verify(payload, "sig").Return(nil)
	deps.dedup.EXPECT().MarkSeen(gomock.Any(), "evt_8", dedupTTL).Return(true, nil)
	deps.settlement.EXPECT().SettlePurchase(gomock.Any(), gomock.Any()).
		Return(apperror.ErrSubscriptionNotFound())
	deps.dedup.EXPECT().Forget(gomock.Any(), "evt_8").Return(nil)

	// Non-retryable settlement failures are logged and acknowledged so the
	// provider stops redelivering a poison event.
	err := deps.d.Dispatch(context.Background(), payload, "sig")
	assert.NoError(t, err)
}
