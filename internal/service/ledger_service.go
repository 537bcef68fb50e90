package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-settlement/internal/core/domain"
	"marketplace-settlement/internal/core/ports"
	"marketplace-settlement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService, the synchronous wallet
// surface behind the authenticated API.
type LedgerServiceImpl struct {
	walletRepo   ports.WalletRepository
	transactor   ports.DBTransactor
	balanceCache ports.BalanceCache
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	balanceCache ports.BalanceCache,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo:   walletRepo,
		transactor:   transactor,
		balanceCache: balanceCache,
		log:          log,
	}
}

// CreateWallet provisions a zero-balance wallet for a seller. Provisioning an
// existing seller is a no-op that returns the same zero-value shape.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, sellerID uuid.UUID) (*domain.SellerWallet, error) {
	wallet := domain.NewSellerWallet(sellerID)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().Str("seller_id", sellerID.String()).Msg("wallet provisioned")
	return wallet, nil
}

// BalanceOf returns the seller's current balance, cache-aside: Redis first,
// database on miss, then populate the cache.
func (s *LedgerServiceImpl) BalanceOf(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	key := sellerID.String()

	cached, ok, err := s.balanceCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("seller_id", key).Msg("balance cache read failed, falling through to DB")
	}
	if ok {
		return cached, nil
	}

	balance, err := s.walletRepo.BalanceOf(ctx, sellerID)
	if err != nil {
		if errors.Is(err, ports.ErrWalletNotFound) {
			return 0, apperror.ErrWalletNotFound(key)
		}
		return 0, apperror.InternalError(fmt.Errorf("read balance: %w", err))
	}

	if err := s.balanceCache.Set(ctx, key, balance); err != nil {
		s.log.Warn().Err(err).Str("seller_id", key).Msg("balance cache write failed")
	}

	return balance, nil
}

// Adjust applies an admin correction delta (positive or negative) to a
// seller's wallet. The wallet row stays locked from the balance read through
// the update, so the non-negative check cannot race with concurrent credits.
func (s *LedgerServiceImpl) Adjust(ctx context.Context, sellerID uuid.UUID, delta int64) (int64, error) {
	if delta == 0 {
		return 0, apperror.Validation("Adjustment delta must be non-zero")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	balance, err := s.walletRepo.BalanceForUpdate(ctx, dbTx, sellerID)
	if err != nil {
		if errors.Is(err, ports.ErrWalletNotFound) {
			return 0, apperror.ErrWalletNotFound(sellerID.String())
		}
		return 0, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}

	newBalance := balance + delta
	if newBalance < 0 {
		return 0, apperror.ErrAdjustmentWouldGoNegative(balance, delta)
	}

	if err := s.walletRepo.ApplyDelta(ctx, dbTx, sellerID, delta); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("apply delta: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.balanceCache.Invalidate(ctx, sellerID.String()); err != nil {
		s.log.Warn().Err(err).Str("seller_id", sellerID.String()).Msg("balance cache invalidation failed")
	}

	s.log.Info().
		Str("seller_id", sellerID.String()).
		Int64("delta", delta).
		Int64("new_balance", newBalance).
		Msg("wallet adjusted")

	return newBalance, nil
}
