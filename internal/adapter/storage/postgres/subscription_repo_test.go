package postgres

import (
	"context"
	"testing"
	"time"

	"marketplace-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscription() *domain.Subscription {
	return &domain.Subscription{
		BuyerID:                uuid.New(),
		SellerID:               uuid.New(),
		ProviderSubscriptionID: "sub_abc123",
		PlanTitle:              "Gold",
		PlanPrice:              1000,
		CreatedAt:              time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestSubscriptionRepo_Record_New(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSubscriptionRepo(mock)
	sub := newTestSubscription()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(sub.BuyerID, sub.SellerID, sub.ProviderSubscriptionID,
			sub.PlanTitle, sub.PlanPrice, sub.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	inserted, err := repo.Record(context.Background(), tx, sub)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_Record_AlreadyActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSubscriptionRepo(mock)
	sub := newTestSubscription()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(sub.BuyerID, sub.SellerID, sub.ProviderSubscriptionID,
			sub.PlanTitle, sub.PlanPrice, sub.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	inserted, err := repo.Record(context.Background(), tx, sub)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSubscriptionRepo(mock)
	sub := newTestSubscription()

	mock.ExpectQuery("SELECT .+ FROM subscriptions WHERE buyer_id").
		WithArgs(sub.BuyerID, sub.SellerID).
		WillReturnRows(pgxmock.NewRows([]string{
			"buyer_id", "seller_id", "provider_subscription_id", "plan_title", "plan_price", "created_at",
		}).AddRow(sub.BuyerID, sub.SellerID, sub.ProviderSubscriptionID, sub.PlanTitle, sub.PlanPrice, sub.CreatedAt))

	result, err := repo.Get(context.Background(), sub.BuyerID, sub.SellerID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, sub.ProviderSubscriptionID, result.ProviderSubscriptionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_Get_Absent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSubscriptionRepo(mock)
	buyerID, sellerID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT .+ FROM subscriptions WHERE buyer_id").
		WithArgs(buyerID, sellerID).
		WillReturnRows(pgxmock.NewRows([]string{
			"buyer_id", "seller_id", "provider_subscription_id", "plan_title", "plan_price", "created_at",
		}))

	result, err := repo.Get(context.Background(), buyerID, sellerID)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_Remove(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSubscriptionRepo(mock)
	buyerID, sellerID := uuid.New(), uuid.New()

	mock.ExpectQuery("DELETE FROM subscriptions WHERE buyer_id").
		WithArgs(buyerID, sellerID).
		WillReturnRows(pgxmock.NewRows([]string{"provider_subscription_id"}).AddRow("sub_abc123"))

	providerSubID, ok, err := repo.Remove(context.Background(), buyerID, sellerID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sub_abc123", providerSubID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_Remove_NotSubscribed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSubscriptionRepo(mock)
	buyerID, sellerID := uuid.New(), uuid.New()

	mock.ExpectQuery("DELETE FROM subscriptions WHERE buyer_id").
		WithArgs(buyerID, sellerID).
		WillReturnRows(pgxmock.NewRows([]string{"provider_subscription_id"}))

	providerSubID, ok, err := repo.Remove(context.Background(), buyerID, sellerID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, providerSubID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
