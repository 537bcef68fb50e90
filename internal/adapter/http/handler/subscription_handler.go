package handler

import (
	"marketplace-settlement/internal/adapter/http/dto"
	"marketplace-settlement/internal/adapter/http/middleware"
	"marketplace-settlement/internal/core/ports"
	"marketplace-settlement/pkg/apperror"
	"marketplace-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubscriptionHandler handles subscription lifecycle endpoints.
type SubscriptionHandler struct {
	settlementSvc ports.SettlementService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(settlementSvc ports.SettlementService) *SubscriptionHandler {
	return &SubscriptionHandler{settlementSvc: settlementSvc}
}

// Cancel handles DELETE /api/v1/subscriptions/:seller_id. The buyer is the
// authenticated user; access ends immediately and the provider-side cancel
// follows.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	buyerID := userID.(uuid.UUID)

	sellerID, err := uuid.Parse(c.Param("seller_id"))
	if err != nil {
		response.Error(c, apperror.Validation("seller_id must be a UUID"))
		return
	}

	if err := h.settlementSvc.CancelSubscription(c.Request.Context(), buyerID, sellerID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CancelSubscriptionResponse{
		SellerID:  sellerID.String(),
		Cancelled: true,
	})
}
