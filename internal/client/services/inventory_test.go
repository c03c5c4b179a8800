package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/client"
	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/client/queue"
	"github.com/dmitrijs2005/posmart/internal/client/reconcile"
	"github.com/dmitrijs2005/posmart/internal/client/repositories/products"
	"github.com/dmitrijs2005/posmart/internal/client/repositories/sales"
	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/kv"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct{ online atomic.Bool }

func (f *fakeConn) IsOnline() bool { return f.online.Load() }

// fakeRemote keeps a server-side copy of stock and applies sales the way
// the inventory service does, including idempotency by sale id.
type fakeRemote struct {
	client.Client

	mu        sync.Mutex
	stock     map[int64]int64
	sales     map[string]models.Sale
	saleErr   error
	catalog   []models.Product
	added     []models.Product
	deleted   []int64
	oversells []bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{stock: map[int64]int64{}, sales: map[string]models.Sale{}}
}

func (f *fakeRemote) CreateSale(_ context.Context, s models.Sale, allowOversell bool) (*models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saleErr != nil {
		return nil, f.saleErr
	}
	f.oversells = append(f.oversells, allowOversell)
	if _, dup := f.sales[s.ID]; dup {
		return &s, nil
	}
	if !allowOversell && f.stock[s.ProductID] < s.Quantity {
		return nil, errors.Join(client.ErrRejected, common.ErrInsufficientStock)
	}
	f.stock[s.ProductID] -= s.Quantity
	f.sales[s.ID] = s
	return &s, nil
}

func (f *fakeRemote) ListProducts(context.Context) ([]models.Product, error) {
	return f.catalog, nil
}

func (f *fakeRemote) AddProduct(_ context.Context, p models.Product) (*models.Product, error) {
	f.added = append(f.added, p)
	return &p, nil
}

func (f *fakeRemote) UpdateProduct(_ context.Context, p models.Product) (*models.Product, error) {
	return nil, client.ErrUnavailable
}

func (f *fakeRemote) DeleteProduct(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fixture struct {
	svc      *inventoryService
	remote   *fakeRemote
	conn     *fakeConn
	queue    *queue.Queue
	products *products.KVRepository
	sales    *sales.KVRepository
}

func newFixture(t *testing.T, online bool, catalog ...models.Product) *fixture {
	t.Helper()
	store := kv.NewMemoryStore(0)
	f := &fixture{
		remote:   newFakeRemote(),
		conn:     &fakeConn{},
		queue:    queue.New(store),
		products: products.NewKVRepository(store),
		sales:    sales.NewKVRepository(store),
	}
	f.conn.online.Store(online)
	for _, p := range catalog {
		f.remote.stock[p.ID] = p.Quantity
	}
	require.NoError(t, f.products.ReplaceAll(context.Background(), catalog))

	svc := NewInventoryService(f.remote, f.products, f.sales, f.queue, f.conn, logging.NewNop())
	f.svc = svc.(*inventoryService)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	return f
}

func rice(qty int64) models.Product {
	return models.Product{ID: 1, Name: "Rice", BuyPrice: 3, SellPrice: 5, Quantity: qty, MinStock: 2}
}

func TestRecordSale_OnlineCommitsAndSendsToServer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(10))

	sale, err := f.svc.RecordSale(ctx, 1, 3, 1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 14.5, sale.TotalPrice)
	assert.False(t, sale.Oversold)

	p, err := f.svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Quantity)

	assert.Equal(t, int64(7), f.remote.stock[1])
	assert.Equal(t, []bool{false}, f.remote.oversells)

	n, err := f.queue.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordSale_OnlineInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(2))

	_, err := f.svc.RecordSale(ctx, 1, 3, 0, 0)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	p, err := f.svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Quantity)

	ledger, err := f.svc.GetSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestRecordSale_ServerUnreachableQueuesSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(5))
	f.remote.saleErr = client.ErrUnavailable

	sale, err := f.svc.RecordSale(ctx, 1, 2, 0, 0)
	require.NoError(t, err)

	pending, err := f.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, common.TransactionTypeSale, pending[0].Type)
	assert.Contains(t, string(pending[0].Payload), sale.ID)
}

func TestRecordSale_ServerRejectionRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(5))
	// server knows less stock than the local catalog
	f.remote.stock[1] = 1

	_, err := f.svc.RecordSale(ctx, 1, 2, 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInsufficientStock)
	assert.ErrorIs(t, err, client.ErrRejected)

	p, err := f.svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Quantity)

	ledger, err := f.svc.GetSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestRecordSale_Validation(t *testing.T) {
	f := newFixture(t, true, rice(5))

	_, err := f.svc.RecordSale(context.Background(), 1, 0, 0, 0)
	assert.ErrorIs(t, err, common.ErrInvalidQuantity)

	_, err = f.svc.RecordSale(context.Background(), 99, 1, 0, 0)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

type failingQueue struct{ err error }

func (q failingQueue) Enqueue(context.Context, string, any) (string, error) { return "", q.err }
func (q failingQueue) PendingCount(context.Context) (int, error)          { return 0, nil }

func TestRecordSale_OfflineQueueFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false, rice(5))
	f.svc.queue = failingQueue{err: kv.ErrQuotaExceeded}

	_, err := f.svc.RecordSale(ctx, 1, 1, 0, 0)
	assert.ErrorIs(t, err, kv.ErrQuotaExceeded)

	p, err := f.svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Quantity, "local commit rolled back")
}

// A shop goes offline, sells more than it has, comes back online and the
// reconciler delivers the queued sale exactly once.
func TestOfflineSale_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false, rice(5))

	sale, err := f.svc.RecordSale(ctx, 1, 7, 0, 0)
	require.NoError(t, err)
	assert.True(t, sale.Oversold)

	p, err := f.svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), p.Quantity)
	assert.Empty(t, f.remote.sales)

	pending, err := f.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	f.conn.online.Store(true)
	r := reconcile.New(f.queue, logging.NewNop(), nil)
	r.Register(common.TransactionTypeSale, reconcile.SaleDeliverer(f.remote))

	res, err := r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)

	require.Contains(t, f.remote.sales, sale.ID)
	assert.Equal(t, int64(-2), f.remote.stock[1])
	assert.Equal(t, []bool{true}, f.remote.oversells)

	// a second pass finds nothing to resend
	res, err = r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Pending)
	assert.Len(t, f.remote.sales, 1)
}

func TestAddProduct_AssignsNextID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(5), models.Product{ID: 7, Name: "Oil"})

	p, err := f.svc.AddProduct(ctx, models.Product{Name: "Tea", SellPrice: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(8), p.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), p.DateAdded)
	require.Len(t, f.remote.added, 1)

	_, err = f.svc.AddProduct(ctx, models.Product{})
	assert.ErrorIs(t, err, common.ErrInvalidProduct)
}

func TestAddProduct_EmptyCatalogStartsAtOne(t *testing.T) {
	f := newFixture(t, false)
	p, err := f.svc.AddProduct(context.Background(), models.Product{Name: "First"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Empty(t, f.remote.added, "offline mutation stays local")
}

func TestUpdateProduct_RemoteFailureKeepsLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(5))

	updated := rice(9)
	updated.Name = "Basmati"
	_, err := f.svc.UpdateProduct(ctx, updated)
	require.NoError(t, err)

	p, err := f.svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Basmati", p.Name)
	assert.Equal(t, int64(9), p.Quantity)

	_, err = f.svc.UpdateProduct(ctx, models.Product{ID: 42})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(5))

	require.NoError(t, f.svc.DeleteProduct(ctx, 1))
	assert.Equal(t, []int64{1}, f.remote.deleted)

	items, err := f.svc.GetProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, 1), ErrProductNotFound)
}

func TestRefreshProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, rice(5))
	f.remote.catalog = []models.Product{rice(50), {ID: 2, Name: "Salt", Quantity: 3}}

	items, err := f.svc.RefreshProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	local, err := f.svc.GetProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.remote.catalog, local)
}

func TestRefreshProducts_KeepsLocalWhileOfflineOrPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false, rice(5))
	f.remote.catalog = []models.Product{rice(50)}

	items, err := f.svc.RefreshProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), items[0].Quantity)

	_, err = f.svc.RecordSale(ctx, 1, 1, 0, 0)
	require.NoError(t, err)

	f.conn.online.Store(true)
	items, err = f.svc.RefreshProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), items[0].Quantity)
}

func TestLowStockAndSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false,
		rice(10),
		models.Product{ID: 2, Name: "Salt", BuyPrice: 2, SellPrice: 1, Quantity: 1, MinStock: 3},
	)

	_, err := f.svc.RecordSale(ctx, 1, 4, 0, 0) // revenue 20, cost 12
	require.NoError(t, err)
	_, err = f.svc.RecordSale(ctx, 2, 2, 0, 0) // revenue 2, cost 4
	require.NoError(t, err)

	low, err := f.svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(2), low[0].ID)

	sum, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum.UnitsInStock)
	assert.Equal(t, int64(6), sum.UnitsSold)
	assert.InDelta(t, 22.0, sum.Revenue, 1e-9)
	assert.InDelta(t, 8.0, sum.Profit, 1e-9)
	assert.InDelta(t, 2.0, sum.Loss, 1e-9)
	assert.InDelta(t, 6.0, sum.NetProfit(), 1e-9)
}
