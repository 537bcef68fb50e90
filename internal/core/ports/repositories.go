package ports

import (
	"context"
	"errors"

	"marketplace-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// Sentinel repository errors. Services translate these into the API error
// taxonomy; on webhook paths they mark non-retryable skips.
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrPostNotFound   = errors.New("post not found")
)

// WalletRepository defines persistence operations for seller wallets.
// Methods accepting pgx.Tx run inside transaction blocks so a settlement's
// ownership write and wallet credit commit atomically.
type WalletRepository interface {
	// Create provisions a zero-balance wallet. Creating an existing wallet is
	// a no-op, so seller provisioning is safe to repeat.
	Create(ctx context.Context, wallet *domain.SellerWallet) error
	// Credit applies a single in-place balance increment. It must not be
	// implemented as read-then-write; concurrent credits for the same seller
	// must all survive. Returns ErrWalletNotFound if no wallet row exists.
	Credit(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount int64) error
	BalanceOf(ctx context.Context, sellerID uuid.UUID) (int64, error)
	// BalanceForUpdate locks the wallet row for the duration of tx. Used by
	// the admin adjustment's read-then-decide sequence.
	BalanceForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (int64, error)
	// ApplyDelta increments the balance by delta (possibly negative) within tx.
	ApplyDelta(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, delta int64) error
}

// PurchaseRepository records buyer-owns-post facts, the idempotency anchor
// for one-time purchases.
type PurchaseRepository interface {
	// Record inserts the (buyer, post) edge. Returns false with nil error if
	// the edge already exists (the sale was settled before). Returns
	// ErrPostNotFound when the post itself is gone.
	Record(ctx context.Context, tx pgx.Tx, buyerID, postID uuid.UUID) (bool, error)
	Has(ctx context.Context, buyerID, postID uuid.UUID) (bool, error)
}

// SubscriptionRepository records buyer-subscribed-to-seller facts.
type SubscriptionRepository interface {
	// Record inserts the subscription edge. Returns false with nil error if
	// an active subscription already exists for the (buyer, seller) pair.
	Record(ctx context.Context, tx pgx.Tx, sub *domain.Subscription) (bool, error)
	Has(ctx context.Context, buyerID, sellerID uuid.UUID) (bool, error)
	Get(ctx context.Context, buyerID, sellerID uuid.UUID) (*domain.Subscription, error)
	// Remove deletes the edge and returns the stored provider subscription id
	// needed for the provider-side cancel call. ok is false when no active
	// subscription exists.
	Remove(ctx context.Context, buyerID, sellerID uuid.UUID) (providerSubID string, ok bool, err error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BalanceCache is a best-effort read cache for wallet balances. A failing
// cache degrades to database reads; callers log cache errors and move on.
type BalanceCache interface {
	// Get returns the cached balance; ok is false on miss.
	Get(ctx context.Context, sellerID string) (int64, bool, error)
	Set(ctx context.Context, sellerID string, balance int64) error
	// Invalidate drops the entry after any balance mutation.
	Invalidate(ctx context.Context, sellerID string) error
}
