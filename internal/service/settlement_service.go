package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-settlement/internal/core/domain"
	"marketplace-settlement/internal/core/ports"
	"marketplace-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService. Each settlement
// writes the ownership record and the commission-split wallet credit in one
// database transaction; the unique constraint on the ownership record is what
// makes redelivered events no-ops.
type SettlementServiceImpl struct {
	walletRepo   ports.WalletRepository
	purchaseRepo ports.PurchaseRepository
	subRepo      ports.SubscriptionRepository
	transactor   ports.DBTransactor
	balanceCache ports.BalanceCache
	chat         ports.ChatStore
	provider     ports.ProviderClient
	notifier     ports.NotificationDispatcher
	log          zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	walletRepo ports.WalletRepository,
	purchaseRepo ports.PurchaseRepository,
	subRepo ports.SubscriptionRepository,
	transactor ports.DBTransactor,
	balanceCache ports.BalanceCache,
	chat ports.ChatStore,
	provider ports.ProviderClient,
	notifier ports.NotificationDispatcher,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		walletRepo:   walletRepo,
		purchaseRepo: purchaseRepo,
		subRepo:      subRepo,
		transactor:   transactor,
		balanceCache: balanceCache,
		chat:         chat,
		provider:     provider,
		notifier:     notifier,
		log:          log,
	}
}

// SettlePurchase settles each item of a completed checkout independently: one
// transaction per item, so a duplicate or broken item never blocks the rest.
// A redelivered event re-runs the loop and every already-settled item is
// skipped by its existing ownership record.
func (s *SettlementServiceImpl) SettlePurchase(ctx context.Context, ev *domain.PurchaseEvent) error {
	for _, item := range ev.Items {
		settled, err := s.settlePurchaseItem(ctx, ev.BuyerID, item)
		if err != nil {
			if errors.Is(err, ports.ErrPostNotFound) {
				// The post was deleted between checkout and settlement.
				// Redelivery cannot fix that, so log and move on.
				s.log.Warn().
					Str("buyer_id", ev.BuyerID.String()).
					Str("post_id", item.PostID.String()).
					Msg("purchase settlement skipped: post no longer exists")
				continue
			}
			return apperror.ErrTransient(fmt.Errorf("settle purchase item %s: %w", item.PostID, err))
		}
		if !settled {
			s.log.Info().
				Str("buyer_id", ev.BuyerID.String()).
				Str("post_id", item.PostID.String()).
				Msg("purchase already settled, skipping")
			continue
		}

		s.invalidateBalance(ctx, item.SellerID)
		s.notifier.NotifySeller(item.SellerID, "Post sold",
			fmt.Sprintf("Your post was purchased for %d", item.Gross))
	}
	return nil
}

// settlePurchaseItem returns false when the (buyer, post) ownership record
// already existed.
func (s *SettlementServiceImpl) settlePurchaseItem(ctx context.Context, buyerID uuid.UUID, item domain.PurchaseItem) (bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	inserted, err := s.purchaseRepo.Record(ctx, dbTx, buyerID, item.PostID)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	share := domain.SellerShare(item.Gross, domain.SalePurchase)
	if err := s.credit(ctx, dbTx, item.SellerID, share); err != nil {
		return false, fmt.Errorf("credit seller: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info().
		Str("buyer_id", buyerID.String()).
		Str("seller_id", item.SellerID.String()).
		Str("post_id", item.PostID.String()).
		Int64("gross", item.Gross).
		Int64("seller_share", share).
		Msg("purchase settled")

	return true, nil
}

// SettleTipUnlock settles a tip payment that unlocks a private chat message.
// The chat system's paid flag is the idempotency anchor: a flagged message was
// settled before. The flag is set before the credit commits, so a redelivery
// after a failed flag write cannot double-credit.
func (s *SettlementServiceImpl) SettleTipUnlock(ctx context.Context, ev *domain.TipUnlockEvent) error {
	paid, err := s.chat.IsMessagePaid(ctx, ev.ChatRoomID, ev.ChatMessageID)
	if err != nil {
		return apperror.ErrTransient(fmt.Errorf("check message paid flag: %w", err))
	}
	if paid {
		s.log.Info().
			Str("chat_room_id", ev.ChatRoomID).
			Str("chat_message_id", ev.ChatMessageID).
			Msg("tip unlock already settled, skipping")
		return nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrTransient(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	share := domain.SellerShare(ev.Gross, domain.SaleTipUnlock)
	if err := s.credit(ctx, dbTx, ev.SellerID, share); err != nil {
		return apperror.ErrTransient(fmt.Errorf("credit seller: %w", err))
	}

	if err := s.chat.MarkMessagePaid(ctx, ev.ChatRoomID, ev.ChatMessageID); err != nil {
		return apperror.ErrTransient(fmt.Errorf("mark message paid: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrTransient(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("buyer_id", ev.BuyerID.String()).
		Str("seller_id", ev.SellerID.String()).
		Int64("gross", ev.Gross).
		Int64("seller_share", share).
		Msg("tip unlock settled")

	s.invalidateBalance(ctx, ev.SellerID)
	s.notifier.NotifySeller(ev.SellerID, "Tip received",
		fmt.Sprintf("A message was unlocked for %d", ev.Gross))

	return nil
}

// SettleSubscription records the subscription edge and credits the seller's
// recurring-plan share in one transaction.
func (s *SettlementServiceImpl) SettleSubscription(ctx context.Context, ev *domain.SubscriptionEvent) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrTransient(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	sub := &domain.Subscription{
		BuyerID:                ev.BuyerID,
		SellerID:               ev.SellerID,
		ProviderSubscriptionID: ev.ProviderSubscriptionID,
		PlanTitle:              ev.PlanTitle,
		PlanPrice:              ev.PlanPrice,
	}
	inserted, err := s.subRepo.Record(ctx, dbTx, sub)
	if err != nil {
		return apperror.ErrTransient(fmt.Errorf("record subscription: %w", err))
	}
	if !inserted {
		s.log.Info().
			Str("buyer_id", ev.BuyerID.String()).
			Str("seller_id", ev.SellerID.String()).
			Msg("subscription already settled, skipping")
		return nil
	}

	share := domain.SellerShare(ev.PlanPrice, domain.SaleSubscription)
	if err := s.credit(ctx, dbTx, ev.SellerID, share); err != nil {
		return apperror.ErrTransient(fmt.Errorf("credit seller: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrTransient(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("buyer_id", ev.BuyerID.String()).
		Str("seller_id", ev.SellerID.String()).
		Str("plan_title", ev.PlanTitle).
		Int64("plan_price", ev.PlanPrice).
		Int64("seller_share", share).
		Msg("subscription settled")

	s.invalidateBalance(ctx, ev.SellerID)
	s.notifier.NotifySeller(ev.SellerID, "New subscriber",
		fmt.Sprintf("Someone subscribed to %s", ev.PlanTitle))

	return nil
}

// CancelSubscription removes the local subscription record first, then asks
// the provider to stop billing. A provider failure is logged for
// reconciliation but never restores the local record: the buyer asked to
// cancel, and access ends now.
func (s *SettlementServiceImpl) CancelSubscription(ctx context.Context, buyerID, sellerID uuid.UUID) error {
	providerSubID, ok, err := s.subRepo.Remove(ctx, buyerID, sellerID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("remove subscription: %w", err))
	}
	if !ok {
		return apperror.ErrSubscriptionNotFound()
	}

	if err := s.provider.CancelSubscription(ctx, providerSubID); err != nil {
		s.log.Error().Err(err).
			Str("buyer_id", buyerID.String()).
			Str("seller_id", sellerID.String()).
			Str("provider_subscription_id", providerSubID).
			Msg("provider-side cancellation failed, needs reconciliation")
	}

	s.log.Info().
		Str("buyer_id", buyerID.String()).
		Str("seller_id", sellerID.String()).
		Msg("subscription cancelled")

	return nil
}

// credit applies the seller share inside dbTx, provisioning the wallet on
// first sale. Create is safe to repeat, so the race between two first sales
// for the same seller resolves to one row.
func (s *SettlementServiceImpl) credit(ctx context.Context, dbTx pgx.Tx, sellerID uuid.UUID, amount int64) error {
	err := s.walletRepo.Credit(ctx, dbTx, sellerID, amount)
	if errors.Is(err, ports.ErrWalletNotFound) {
		if err := s.walletRepo.Create(ctx, domain.NewSellerWallet(sellerID)); err != nil {
			return fmt.Errorf("provision wallet: %w", err)
		}
		return s.walletRepo.Credit(ctx, dbTx, sellerID, amount)
	}
	return err
}

// invalidateBalance drops the cached balance after a credit. Best-effort.
func (s *SettlementServiceImpl) invalidateBalance(ctx context.Context, sellerID uuid.UUID) {
	if err := s.balanceCache.Invalidate(ctx, sellerID.String()); err != nil {
		s.log.Warn().Err(err).Str("seller_id", sellerID.String()).Msg("balance cache invalidation failed")
	}
}
