package handler

import (
	"context"
	"io"
	"net/http"

	"marketplace-settlement/pkg/apperror"
	"marketplace-settlement/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderProviderSignature carries the provider's webhook signature.
const HeaderProviderSignature = "X-Provider-Signature"

// EventDispatcher processes one raw webhook delivery.
type EventDispatcher interface {
	Dispatch(ctx context.Context, payload []byte, signatureHeader string) error
}

// WebhookHandler handles inbound payment-provider events.
type WebhookHandler struct {
	dispatcher EventDispatcher
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(dispatcher EventDispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher}
}

// HandleProviderEvent handles POST /webhooks/payments.
//
// Response contract with the provider: 200 {"received": true} acknowledges
// the event (including duplicates and permanently unusable payloads), 400
// rejects it without redelivery, 500 requests redelivery.
func (h *WebhookHandler) HandleProviderEvent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		response.Error(c, apperror.ErrMissingBody())
		return
	}

	sig := c.GetHeader(HeaderProviderSignature)
	if err := h.dispatcher.Dispatch(c.Request.Context(), body, sig); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
