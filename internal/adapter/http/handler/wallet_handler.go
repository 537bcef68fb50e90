package handler

import (
	"time"

	"marketplace-settlement/internal/adapter/http/dto"
	"marketplace-settlement/internal/adapter/http/middleware"
	"marketplace-settlement/internal/core/ports"
	"marketplace-settlement/pkg/apperror"
	"marketplace-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

// GetMyBalance handles GET /api/v1/wallets/balance — a seller reading their
// own balance.
func (h *WalletHandler) GetMyBalance(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	sellerID := userID.(uuid.UUID)

	balance, err := h.ledgerSvc.BalanceOf(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		SellerID: sellerID.String(),
		Balance:  balance,
	})
}

// CreateWallet handles POST /api/v1/admin/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		response.Error(c, apperror.Validation("seller_id must be a UUID"))
		return
	}

	wallet, err := h.ledgerSvc.CreateWallet(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.WalletResponse{
		SellerID:  wallet.SellerID.String(),
		Balance:   wallet.Balance,
		CreatedAt: wallet.CreatedAt.Format(time.RFC3339),
	})
}

// GetBalance handles GET /api/v1/admin/wallets/:seller_id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("seller_id"))
	if err != nil {
		response.Error(c, apperror.Validation("seller_id must be a UUID"))
		return
	}

	balance, err := h.ledgerSvc.BalanceOf(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		SellerID: sellerID.String(),
		Balance:  balance,
	})
}

// Adjust handles POST /api/v1/admin/wallets/:seller_id/adjust.
func (h *WalletHandler) Adjust(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("seller_id"))
	if err != nil {
		response.Error(c, apperror.Validation("seller_id must be a UUID"))
		return
	}

	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	newBalance, err := h.ledgerSvc.Adjust(c.Request.Context(), sellerID, req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AdjustResponse{
		SellerID: sellerID.String(),
		Delta:    req.Delta,
		Balance:  newBalance,
	})
}
