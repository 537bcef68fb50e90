package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-settlement/internal/core/domain"
	"marketplace-settlement/internal/core/ports"
	"marketplace-settlement/pkg/apperror"

	"github.com/rs/zerolog"
)

// dedupTTL bounds how long a processed event id is remembered. The provider
// stops redelivering well before this; the ownership records cover the rest.
const dedupTTL = 24 * time.Hour

// EventDispatcher is the webhook entry point: it authenticates the payload,
// decodes it into a typed settlement event once, suppresses fast-path
// duplicates, and routes to the matching settlement handler. A nil return
// means the event is acknowledged; a retryable error tells the handler to
// answer 500 so the provider redelivers.
type EventDispatcher struct {
	verifier   ports.EventVerifier
	dedup      ports.EventDedup
	settlement ports.SettlementService
	log        zerolog.Logger
}

// NewEventDispatcher creates a new EventDispatcher.
func NewEventDispatcher(
	verifier ports.EventVerifier,
	dedup ports.EventDedup,
	settlement ports.SettlementService,
	log zerolog.Logger,
) *EventDispatcher {
	return &EventDispatcher{
		verifier:   verifier,
		dedup:      dedup,
		settlement: settlement,
		log:        log,
	}
}

// Dispatch processes one raw webhook delivery.
func (d *EventDispatcher) Dispatch(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := d.verifier.Verify(payload, signatureHeader); err != nil {
		d.log.Warn().Err(err).Msg("webhook signature rejected")
		return apperror.ErrInvalidSignature()
	}

	ev, err := domain.ParseSettlementEvent(payload)
	if err != nil {
		// Authenticated but unusable. Redelivering the same bytes cannot
		// help, so log loudly and acknowledge.
		d.log.Error().Err(err).Msg("malformed settlement event acknowledged")
		return nil
	}

	if ev.Kind == domain.EventIgnored {
		d.log.Debug().Str("event_id", ev.ID).Msg("event type not handled, acknowledged")
		return nil
	}

	// Fast-path duplicate suppression, best-effort: a dedup outage degrades
	// to the database constraints, never to a dropped event.
	fresh, err := d.dedup.MarkSeen(ctx, ev.ID, dedupTTL)
	if err != nil {
		d.log.Warn().Err(err).Str("event_id", ev.ID).Msg("event dedup unavailable, relying on ownership records")
		fresh = true
	} else if !fresh {
		d.log.Info().Str("event_id", ev.ID).Msg("duplicate event suppressed")
		return nil
	}

	if err := d.route(ctx, ev); err != nil {
		// Release the claim so the provider's retry is processed.
		if ferr := d.dedup.Forget(ctx, ev.ID); ferr != nil {
			d.log.Warn().Err(ferr).Str("event_id", ev.ID).Msg("failed to release event dedup claim")
		}
		if !apperror.IsRetryable(err) {
			d.log.Error().Err(err).Str("event_id", ev.ID).Msg("settlement failed permanently, acknowledged")
			return nil
		}
		return err
	}
	return nil
}

func (d *EventDispatcher) route(ctx context.Context, ev *domain.SettlementEvent) error {
	log := d.log.With().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).Logger()
	log.Info().Msg("dispatching settlement event")

	switch ev.Kind {
	case domain.EventPurchase:
		return d.settlement.SettlePurchase(ctx, ev.Purchase)
	case domain.EventTipUnlock:
		return d.settlement.SettleTipUnlock(ctx, ev.TipUnlock)
	case domain.EventSubscription:
		return d.settlement.SettleSubscription(ctx, ev.Subscription)
	default:
		return apperror.InternalError(fmt.Errorf("unroutable event kind %q", ev.Kind))
	}
}
