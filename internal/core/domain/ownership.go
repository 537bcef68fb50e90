package domain

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is the durable fact that a buyer owns a post. At most one exists
// per (buyer, post) pair; its presence proves the sale was already settled,
// which is what makes webhook redelivery safe.
type Purchase struct {
	BuyerID   uuid.UUID `json:"buyer_id"`
	PostID    uuid.UUID `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription is the active edge between a buyer and a seller. At most one
// exists per (buyer, seller) pair while active; it carries the provider
// subscription id needed for cancellation and is re-creatable after cancel.
type Subscription struct {
	BuyerID                uuid.UUID `json:"buyer_id"`
	SellerID               uuid.UUID `json:"seller_id"`
	ProviderSubscriptionID string    `json:"provider_subscription_id"`
	PlanTitle              string    `json:"plan_title"`
	PlanPrice              int64     `json:"plan_price"` // minor units
	CreatedAt              time.Time `json:"created_at"`
}
