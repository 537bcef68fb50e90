package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketplace-settlement/internal/core/domain"
	"marketplace-settlement/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a zero-balance wallet. Re-creating an existing wallet is a
// no-op so seller provisioning can be repeated safely.
func (r *WalletRepo) Create(ctx context.Context, w *domain.SellerWallet) error {
	query := `INSERT INTO wallets (seller_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (seller_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, w.SellerID, w.Balance, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// Credit applies an atomic in-place balance increment within a transaction.
// The increment happens at the datastore so concurrent credits for the same
// seller cannot lose updates.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount int64) error {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE seller_id = $2`

	tag, err := tx.Exec(ctx, query, amount, sellerID)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("credit wallet %s: %w", sellerID, ports.ErrWalletNotFound)
	}
	return nil
}

// BalanceOf fetches the current balance (non-locking read).
func (r *WalletRepo) BalanceOf(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	query := `SELECT balance FROM wallets WHERE seller_id = $1`

	var balance int64
	err := r.pool.QueryRow(ctx, query, sellerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ports.ErrWalletNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// BalanceForUpdate fetches the balance with a row lock held until tx ends.
// This MUST be called within a transaction.
func (r *WalletRepo) BalanceForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (int64, error) {
	query := `SELECT balance FROM wallets WHERE seller_id = $1 FOR UPDATE`

	var balance int64
	err := tx.QueryRow(ctx, query, sellerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ports.ErrWalletNotFound
		}
		return 0, fmt.Errorf("get balance for update: %w", err)
	}
	return balance, nil
}

// ApplyDelta increments the balance by delta (possibly negative) within tx.
// Callers hold the row lock via BalanceForUpdate and have already checked the
// non-negative invariant; the CHECK constraint backstops it.
func (r *WalletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, delta int64) error {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE seller_id = $2`

	tag, err := tx.Exec(ctx, query, delta, sellerID)
	if err != nil {
		return fmt.Errorf("apply delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("apply delta %s: %w", sellerID, ports.ErrWalletNotFound)
	}
	return nil
}
