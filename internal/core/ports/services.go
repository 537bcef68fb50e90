package ports

import (
	"context"
	"time"

	"marketplace-settlement/internal/core/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// SettlementService applies the durable effects of one logical sale:
// ownership record + commission-split wallet credit + seller notification.
type SettlementService interface {
	SettlePurchase(ctx context.Context, ev *domain.PurchaseEvent) error
	SettleTipUnlock(ctx context.Context, ev *domain.TipUnlockEvent) error
	SettleSubscription(ctx context.Context, ev *domain.SubscriptionEvent) error
	// CancelSubscription is the synchronous API path: the local record is
	// deleted first, then the provider cancel call runs; a provider failure
	// is logged for reconciliation, never rolled back.
	CancelSubscription(ctx context.Context, buyerID, sellerID uuid.UUID) error
}

// LedgerService is the synchronous wallet surface (balance query, admin
// adjustment, wallet provisioning).
type LedgerService interface {
	CreateWallet(ctx context.Context, sellerID uuid.UUID) (*domain.SellerWallet, error)
	BalanceOf(ctx context.Context, sellerID uuid.UUID) (int64, error)
	// Adjust applies an admin delta (may be negative) inside a single
	// transaction; rejects adjustments that would take the balance negative.
	Adjust(ctx context.Context, sellerID uuid.UUID, delta int64) (int64, error)
}

// EventVerifier checks provider webhook authenticity.
type EventVerifier interface {
	// Verify validates the signature header against the raw body using the
	// shared secret. Returns an error on bad or stale signatures.
	Verify(payload []byte, signatureHeader string) error
}

// EventDedup is the best-effort fast-path suppression of redelivered webhook
// events, keyed by provider event id. The durable idempotency anchor remains
// the ownership record; dedup failures must not block processing.
type EventDedup interface {
	// MarkSeen returns true if the event id was not seen before.
	MarkSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Forget releases an id claimed by MarkSeen, so a settlement failure does
	// not suppress the provider's redelivery.
	Forget(ctx context.Context, eventID string) error
}

// NotificationDispatcher delivers fire-and-forget seller alerts. Delivery
// failure is logged and never affects settlement outcome.
type NotificationDispatcher interface {
	NotifySeller(sellerID uuid.UUID, title, body string)
}

// ProviderClient is the outbound payment-provider API surface used here.
type ProviderClient interface {
	CancelSubscription(ctx context.Context, providerSubID string) error
}

// ChatStore is the external chat system owning tip-gated message state. The
// paid flag doubles as the tip-unlock idempotency source.
type ChatStore interface {
	IsMessagePaid(ctx context.Context, roomID, messageID string) (bool, error)
	MarkMessagePaid(ctx context.Context, roomID, messageID string) error
}

// TokenService handles JWT token operations for the synchronous API surface.
type TokenService interface {
	Generate(userID uuid.UUID, role string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   string
}

// Roles carried in token claims.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
