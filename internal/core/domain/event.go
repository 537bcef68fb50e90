package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Provider event types the dispatcher recognizes. Everything else is
// acknowledged and ignored.
const (
	EventTypeCheckoutCompleted = "checkout.completed"
)

// Checkout modes carried by checkout.completed events.
const (
	CheckoutModePayment      = "payment"
	CheckoutModeSubscription = "subscription"
)

// Transaction-kind discriminator inside checkout metadata.
const (
	txKindPurchase  = "purchase"
	txKindTipUnlock = "tip_unlock"
)

// EventKind classifies a parsed settlement event.
type EventKind string

const (
	EventPurchase     EventKind = "PURCHASE"
	EventTipUnlock    EventKind = "TIP_UNLOCK"
	EventSubscription EventKind = "SUBSCRIPTION"
	EventIgnored      EventKind = "IGNORED"
)

// ErrMalformedEvent marks payloads that parsed as JSON but whose metadata is
// unusable. The dispatcher logs and acknowledges these; redelivery won't help.
var ErrMalformedEvent = errors.New("malformed settlement event")

// SettlementEvent is the typed, ephemeral result of decoding one provider
// webhook payload at the dispatcher boundary. Exactly one of the variant
// fields matching Kind is set. It is never persisted; the ownership records
// written during settlement are the durable proof of processing.
type SettlementEvent struct {
	ID           string
	Kind         EventKind
	Purchase     *PurchaseEvent
	TipUnlock    *TipUnlockEvent
	Subscription *SubscriptionEvent
}

// PurchaseItem is one (seller, post, amount) unit inside a purchase event.
type PurchaseItem struct {
	SellerID uuid.UUID `json:"seller_id"`
	PostID   uuid.UUID `json:"post_id"`
	Gross    int64     `json:"amount"` // minor units
}

// PurchaseEvent settles one or more post purchases for a single buyer.
type PurchaseEvent struct {
	BuyerID uuid.UUID
	Items   []PurchaseItem
}

// TipUnlockEvent settles a tip payment unlocking a private chat message.
type TipUnlockEvent struct {
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	Gross         int64
	ChatRoomID    string
	ChatMessageID string
}

// SubscriptionEvent settles a new subscription of a buyer to a seller's plan.
type SubscriptionEvent struct {
	BuyerID                uuid.UUID
	SellerID               uuid.UUID
	ProviderSubscriptionID string
	PlanTitle              string
	PlanPrice              int64
}

// eventEnvelope mirrors the provider's webhook payload shape.
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Mode           string          `json:"mode"`
		SubscriptionID string          `json:"subscription_id"`
		Metadata       json.RawMessage `json:"metadata"`
	} `json:"data"`
}

type checkoutMetadata struct {
	Kind          string         `json:"kind"`
	BuyerID       string         `json:"buyer_id"`
	SellerID      string         `json:"seller_id"`
	Amount        int64          `json:"amount"`
	Items         []PurchaseItem `json:"items"`
	ChatRoomID    string         `json:"chat_room_id"`
	ChatMessageID string         `json:"chat_message_id"`
	PlanTitle     string         `json:"plan_title"`
	PlanPrice     int64          `json:"plan_price"`
}

// ParseSettlementEvent decodes a verified provider payload into a typed
// settlement event. Unknown event types yield Kind == EventIgnored, nil error.
// Usable type with broken metadata yields ErrMalformedEvent.
func ParseSettlementEvent(payload []byte) (*SettlementEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding envelope: %v", ErrMalformedEvent, err)
	}

	if env.Type != EventTypeCheckoutCompleted {
		return &SettlementEvent{ID: env.ID, Kind: EventIgnored}, nil
	}

	var meta checkoutMetadata
	if len(env.Data.Metadata) > 0 {
		if err := json.Unmarshal(env.Data.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("%w: decoding metadata: %v", ErrMalformedEvent, err)
		}
	}

	buyerID, err := uuid.Parse(meta.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("%w: buyer_id %q", ErrMalformedEvent, meta.BuyerID)
	}

	switch env.Data.Mode {
	case CheckoutModeSubscription:
		return parseSubscription(env, meta, buyerID)
	case CheckoutModePayment:
		switch meta.Kind {
		case txKindTipUnlock:
			return parseTipUnlock(env, meta, buyerID)
		case txKindPurchase, "":
			return parsePurchase(env, meta, buyerID)
		default:
			return nil, fmt.Errorf("%w: unknown transaction kind %q", ErrMalformedEvent, meta.Kind)
		}
	default:
		return nil, fmt.Errorf("%w: unknown checkout mode %q", ErrMalformedEvent, env.Data.Mode)
	}
}

func parsePurchase(env eventEnvelope, meta checkoutMetadata, buyerID uuid.UUID) (*SettlementEvent, error) {
	if len(meta.Items) == 0 {
		return nil, fmt.Errorf("%w: purchase event without items", ErrMalformedEvent)
	}
	for i, item := range meta.Items {
		if item.Gross <= 0 {
			return nil, fmt.Errorf("%w: item %d has non-positive amount %d", ErrMalformedEvent, i, item.Gross)
		}
	}
	return &SettlementEvent{
		ID:   env.ID,
		Kind: EventPurchase,
		Purchase: &PurchaseEvent{
			BuyerID: buyerID,
			Items:   meta.Items,
		},
	}, nil
}

func parseTipUnlock(env eventEnvelope, meta checkoutMetadata, buyerID uuid.UUID) (*SettlementEvent, error) {
	sellerID, err := uuid.Parse(meta.SellerID)
	if err != nil {
		return nil, fmt.Errorf("%w: seller_id %q", ErrMalformedEvent, meta.SellerID)
	}
	if meta.Amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive tip amount %d", ErrMalformedEvent, meta.Amount)
	}
	if meta.ChatRoomID == "" || meta.ChatMessageID == "" {
		return nil, fmt.Errorf("%w: tip unlock without chat identifiers", ErrMalformedEvent)
	}
	return &SettlementEvent{
		ID:   env.ID,
		Kind: EventTipUnlock,
		TipUnlock: &TipUnlockEvent{
			BuyerID:       buyerID,
			SellerID:      sellerID,
			Gross:         meta.Amount,
			ChatRoomID:    meta.ChatRoomID,
			ChatMessageID: meta.ChatMessageID,
		},
	}, nil
}

func parseSubscription(env eventEnvelope, meta checkoutMetadata, buyerID uuid.UUID) (*SettlementEvent, error) {
	sellerID, err := uuid.Parse(meta.SellerID)
	if err != nil {
		return nil, fmt.Errorf("%w: seller_id %q", ErrMalformedEvent, meta.SellerID)
	}
	if env.Data.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: subscription event without provider subscription id", ErrMalformedEvent)
	}
	if meta.PlanPrice <= 0 {
		return nil, fmt.Errorf("%w: non-positive plan price %d", ErrMalformedEvent, meta.PlanPrice)
	}
	return &SettlementEvent{
		ID:   env.ID,
		Kind: EventSubscription,
		Subscription: &SubscriptionEvent{
			BuyerID:                buyerID,
			SellerID:               sellerID,
			ProviderSubscriptionID: env.Data.SubscriptionID,
			PlanTitle:              meta.PlanTitle,
			PlanPrice:              meta.PlanPrice,
		},
	}, nil
}
