package domain

import (
	"time"

	"github.com/google/uuid"
)

// SellerWallet holds a seller's accumulated payout balance in minor units.
// The balance never goes negative: credits are applied as atomic in-place
// increments and manual adjustments are checked inside a transaction.
type SellerWallet struct {
	SellerID  uuid.UUID `json:"seller_id"`
	Balance   int64     `json:"balance"` // minor units (e.g. cents)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSellerWallet returns a zero-balance wallet for a freshly created seller.
func NewSellerWallet(sellerID uuid.UUID) *SellerWallet {
	now := time.Now().UTC()
	return &SellerWallet{
		SellerID:  sellerID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
