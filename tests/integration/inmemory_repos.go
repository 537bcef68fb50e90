package integration

import (
	"context"
	"sync"

	"marketplace-settlement/internal/core/domain"
	"marketplace-settlement/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.SellerWallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.SellerWallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.SellerWallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.SellerID]; ok {
		return nil
	}
	cp := *w
	r.wallets[w.SellerID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) Credit(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[sellerID]
	if !ok {
		return ports.ErrWalletNotFound
	}
	w.Balance += amount
	return nil
}

func (r *inMemoryWalletRepo) BalanceOf(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[sellerID]
	if !ok {
		return 0, ports.ErrWalletNotFound
	}
	return w.Balance, nil
}

func (r *inMemoryWalletRepo) BalanceForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (int64, error) {
	return r.BalanceOf(ctx, sellerID)
}

func (r *inMemoryWalletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, delta int64) error {
	return r.Credit(ctx, tx, sellerID, delta)
}

// --- In-Memory Purchase Repo ---

type purchaseKey struct {
	buyerID uuid.UUID
	postID  uuid.UUID
}

type inMemoryPurchaseRepo struct {
	mu           sync.Mutex
	purchases    map[purchaseKey]struct{}
	deletedPosts map[uuid.UUID]struct{}
}

func newInMemoryPurchaseRepo() *inMemoryPurchaseRepo {
	return &inMemoryPurchaseRepo{
		purchases:    make(map[purchaseKey]struct{}),
		deletedPosts: make(map[uuid.UUID]struct{}),
	}
}

// markPostDeleted simulates a post removed between checkout and settlement.
func (r *inMemoryPurchaseRepo) markPostDeleted(postID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedPosts[postID] = struct{}{}
}

func (r *inMemoryPurchaseRepo) Record(ctx context.Context, tx pgx.Tx, buyerID, postID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, gone := r.deletedPosts[postID]; gone {
		return false, ports.ErrPostNotFound
	}
	key := purchaseKey{buyerID: buyerID, postID: postID}
	if _, ok := r.purchases[key]; ok {
		return false, nil
	}
	r.purchases[key] = struct{}{}
	return true, nil
}

func (r *inMemoryPurchaseRepo) Has(ctx context.Context, buyerID, postID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.purchases[purchaseKey{buyerID: buyerID, postID: postID}]
	return ok, nil
}

// --- In-Memory Subscription Repo ---

type subscriptionKey struct {
	buyerID  uuid.UUID
	sellerID uuid.UUID
}

type inMemorySubscriptionRepo struct {
	mu   sync.Mutex
	subs map[subscriptionKey]*domain.Subscription
}

func newInMemorySubscriptionRepo() *inMemorySubscriptionRepo {
	return &inMemorySubscriptionRepo{subs: make(map[subscriptionKey]*domain.Subscription)}
}

func (r *inMemorySubscriptionRepo) Record(ctx context.Context, tx pgx.Tx, sub *domain.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := subscriptionKey{buyerID: sub.BuyerID, sellerID: sub.SellerID}
	if _, ok := r.subs[key]; ok {
		return false, nil
	}
	cp := *sub
	r.subs[key] = &cp
	return true, nil
}

func (r *inMemorySubscriptionRepo) Has(ctx context.Context, buyerID, sellerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[subscriptionKey{buyerID: buyerID, sellerID: sellerID}]
	return ok, nil
}

func (r *inMemorySubscriptionRepo) Get(ctx context.Context, buyerID, sellerID uuid.UUID) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[subscriptionKey{buyerID: buyerID, sellerID: sellerID}]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (r *inMemorySubscriptionRepo) Remove(ctx context.Context, buyerID, sellerID uuid.UUID) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := subscriptionKey{buyerID: buyerID, sellerID: sellerID}
	sub, ok := r.subs[key]
	if !ok {
		return "", false, nil
	}
	delete(r.subs, key)
	return sub.ProviderSubscriptionID, true, nil
}

// --- In-Memory Chat Store ---

type inMemoryChatStore struct {
	mu   sync.Mutex
	paid map[string]bool
}

func newInMemoryChatStore() *inMemoryChatStore {
	return &inMemoryChatStore{paid: make(map[string]bool)}
}

func (c *inMemoryChatStore) IsMessagePaid(ctx context.Context, roomID, messageID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paid[roomID+"/"+messageID], nil
}

func (c *inMemoryChatStore) MarkMessagePaid(ctx context.Context, roomID, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paid[roomID+"/"+messageID] = true
	return nil
}

// --- Stub Provider Client ---

type stubProviderClient struct {
	mu        sync.Mutex
	cancelled []string
	err       error
}

func (p *stubProviderClient) CancelSubscription(ctx context.Context, providerSubID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.cancelled = append(p.cancelled, providerSubID)
	return nil
}

func (p *stubProviderClient) cancelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cancelled)
}

// --- Capturing Notifier ---

type captureNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *captureNotifier) NotifySeller(sellerID uuid.UUID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.titles)
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
