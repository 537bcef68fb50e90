package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketplace-settlement/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error code for foreign key violations.
const pgFKViolation = "23503"

// PurchaseRepo implements ports.PurchaseRepository.
type PurchaseRepo struct {
	pool Pool
}

// NewPurchaseRepo creates a new PurchaseRepo.
func NewPurchaseRepo(pool Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// Record inserts the (buyer, post) edge write-first: the primary key on
// (buyer_id, post_id) makes a concurrent duplicate insert a no-op rather than
// a race window. Returns false when the edge already existed.
func (r *PurchaseRepo) Record(ctx context.Context, tx pgx.Tx, buyerID, postID uuid.UUID) (bool, error) {
	query := `INSERT INTO purchases (buyer_id, post_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (buyer_id, post_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query, buyerID, postID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			return false, fmt.Errorf("record purchase %s: %w", postID, ports.ErrPostNotFound)
		}
		return false, fmt.Errorf("record purchase: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Has reports whether a purchase record exists for the (buyer, post) pair.
func (r *PurchaseRepo) Has(ctx context.Context, buyerID, postID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM purchases WHERE buyer_id = $1 AND post_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, buyerID, postID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return exists, nil
}
