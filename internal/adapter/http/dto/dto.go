package dto

// CreateWalletRequest is the request body for provisioning a seller wallet.
type CreateWalletRequest struct {
	SellerID string `json:"seller_id" binding:"required,uuid"`
}

// AdjustRequest is the request body for a manual balance adjustment.
// Delta is in minor units and may be negative.
type AdjustRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// WalletResponse is the response body for wallet provisioning.
type WalletResponse struct {
	SellerID  string `json:"seller_id"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// BalanceResponse is the response body for balance queries.
type BalanceResponse struct {
	SellerID string `json:"seller_id"`
	Balance  int64  `json:"balance"`
}

// AdjustResponse is the response body after a manual adjustment.
type AdjustResponse struct {
	SellerID string `json:"seller_id"`
	Delta    int64  `json:"delta"`
	Balance  int64  `json:"balance"`
}

// CancelSubscriptionResponse is the response body for subscription cancellation.
type CancelSubscriptionResponse struct {
	SellerID  string `json:"seller_id"`
	Cancelled bool   `json:"cancelled"`
}
