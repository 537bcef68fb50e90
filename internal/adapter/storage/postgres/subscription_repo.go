package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketplace-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SubscriptionRepo implements ports.SubscriptionRepository.
type SubscriptionRepo struct {
	pool Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(pool Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// Record inserts the subscription edge write-first; the primary key on
// (buyer_id, seller_id) turns a duplicate delivery into a no-op. Returns
// false when an active subscription already existed.
func (r *SubscriptionRepo) Record(ctx context.Context, tx pgx.Tx, sub *domain.Subscription) (bool, error) {
	query := `INSERT INTO subscriptions (buyer_id, seller_id, provider_subscription_id, plan_title, plan_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (buyer_id, seller_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		sub.BuyerID, sub.SellerID, sub.ProviderSubscriptionID,
		sub.PlanTitle, sub.PlanPrice, sub.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("record subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Has reports whether an active subscription exists for the pair.
func (r *SubscriptionRepo) Has(ctx context.Context, buyerID, sellerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE buyer_id = $1 AND seller_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, buyerID, sellerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return exists, nil
}

// Get fetches the active subscription for the pair, or nil when absent.
func (r *SubscriptionRepo) Get(ctx context.Context, buyerID, sellerID uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT buyer_id, seller_id, provider_subscription_id, plan_title, plan_price, created_at
		FROM subscriptions WHERE buyer_id = $1 AND seller_id = $2`

	sub := &domain.Subscription{}
	err := r.pool.QueryRow(ctx, query, buyerID, sellerID).Scan(
		&sub.BuyerID, &sub.SellerID, &sub.ProviderSubscriptionID,
		&sub.PlanTitle, &sub.PlanPrice, &sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// Remove deletes the subscription edge and returns the stored provider
// subscription id needed for the provider-side cancel call.
func (r *SubscriptionRepo) Remove(ctx context.Context, buyerID, sellerID uuid.UUID) (string, bool, error) {
	query := `DELETE FROM subscriptions WHERE buyer_id = $1 AND seller_id = $2
		RETURNING provider_subscription_id`

	var providerSubID string
	err := r.pool.QueryRow(ctx, query, buyerID, sellerID).Scan(&providerSubID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("remove subscription: %w", err)
	}
	return providerSubID, true, nil
}
