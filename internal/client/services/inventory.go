// Package services contains application services for the posmart client.
// This file defines the inventory service: the local catalog and sales
// ledger, with optimistic local commits and queuing of sales made offline.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/client"
	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/client/repositories/products"
	"github.com/dmitrijs2005/posmart/internal/client/repositories/sales"
	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/google/uuid"
)

// InventoryService defines the catalog and sales operations of the CLI.
//
// Contract:
//   - Every mutation is committed to local storage first.
//   - RecordSale online: stock is checked, the sale is committed locally and
//     sent to the server. A transient server failure queues the sale instead
//     of failing; a rejection rolls the local commit back.
//   - RecordSale offline: stock is not checked, the sale is committed
//     locally (flagged Oversold if stock goes negative) and queued.
//   - Product mutations are forwarded to the server when online, best effort.
//     Offline they stay local.
//   - A local storage or queue failure is returned to the caller.
type InventoryService interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	AddProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	LowStock(ctx context.Context) ([]models.Product, error)
	RefreshProducts(ctx context.Context) ([]models.Product, error)

	RecordSale(ctx context.Context, productID, quantity int64, discount, tax float64) (*models.Sale, error)
	GetSales(ctx context.Context) ([]models.Sale, error)
	Summary(ctx context.Context) (models.Summary, error)
}

// Connectivity reports the current online state.
type Connectivity interface {
	IsOnline() bool
}

// Enqueuer appends a mutation to the pending-transaction queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, txType string, payload any) (string, error)
	PendingCount(ctx context.Context) (int, error)
}

type inventoryService struct {
	remote   client.Client
	products products.Repository
	sales    sales.Repository
	queue    Enqueuer
	conn     Connectivity
	logger   logging.Logger
	now      func() time.Time

	// serializes read-modify-write of the catalog and ledger
	mu sync.Mutex
}

func NewInventoryService(remote client.Client, productRepo products.Repository, salesRepo sales.Repository,
	queue Enqueuer, conn Connectivity, logger logging.Logger) InventoryService {
	return &inventoryService{
		remote:   remote,
		products: productRepo,
		sales:    salesRepo,
		queue:    queue,
		conn:     conn,
		logger:   logger.With("module", "inventory"),
		now:      time.Now,
	}
}

func (s *inventoryService) GetProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.GetAll(ctx)
}

func (s *inventoryService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	items, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	p := items[i]
	return &p, nil
}

func (s *inventoryService) AddProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrInvalidProduct)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var maxID int64
	for _, it := range items {
		maxID = max(maxID, it.ID)
	}
	p.ID = maxID + 1
	if p.DateAdded.IsZero() {
		p.DateAdded = s.now().UTC()
	}

	if err := s.products.ReplaceAll(ctx, append(items, p)); err != nil {
		return nil, err
	}

	if s.conn.IsOnline() {
		if _, err := s.remote.AddProduct(ctx, p); err != nil {
			s.logger.Warn(ctx, "product saved locally only", "id", p.ID, "error", err)
		}
	}
	return &p, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(items, p.ID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, p.ID)
	}
	if p.DateAdded.IsZero() {
		p.DateAdded = items[i].DateAdded
	}
	items[i] = p

	if err := s.products.ReplaceAll(ctx, items); err != nil {
		return nil, err
	}

	if s.conn.IsOnline() {
		if _, err := s.remote.UpdateProduct(ctx, p); err != nil {
			s.logger.Warn(ctx, "product updated locally only", "id", p.ID, "error", err)
		}
	}
	return &p, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.products.GetAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(items, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}

	if err := s.products.ReplaceAll(ctx, slices.Delete(items, i, i+1)); err != nil {
		return err
	}

	if s.conn.IsOnline() {
		if err := s.remote.DeleteProduct(ctx, id); err != nil && !errors.Is(err, client.ErrNotFound) {
			s.logger.Warn(ctx, "product deleted locally only", "id", id, "error", err)
		}
	}
	return nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]models.Product, error) {
	items, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]models.Product, 0)
	for _, p := range items {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

// RefreshProducts replaces the local catalog with the server's. It keeps the
// local catalog when offline, when the server fails, or while queued
// transactions have not reached the server yet.
func (s *inventoryService) RefreshProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.conn.IsOnline() {
		return s.products.GetAll(ctx)
	}

	pending, err := s.queue.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		s.logger.Info(ctx, "pending transactions, keeping local catalog", "pending", pending)
		return s.products.GetAll(ctx)
	}

	remote, err := s.remote.ListProducts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to refresh products, keeping local catalog", "error", err)
		return s.products.GetAll(ctx)
	}
	if err := s.products.ReplaceAll(ctx, remote); err != nil {
		return nil, err
	}
	return remote, nil
}

func (s *inventoryService) RecordSale(ctx context.Context, productID, quantity int64, discount, tax float64) (*models.Sale, error) {
	if quantity <= 0 {
		return nil, common.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(items, productID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	online := s.conn.IsOnline()
	product := items[i]
	if online && quantity > product.Quantity {
		return nil, fmt.Errorf("%w: %d available, %d requested", ErrInsufficientStock, product.Quantity, quantity)
	}

	sale := models.Sale{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  product.SellPrice,
		TotalPrice: models.SaleTotal(product.SellPrice, quantity, discount, tax),
		Discount:   discount,
		Tax:        tax,
		DateTime:   s.now().UTC(),
		Oversold:   quantity > product.Quantity,
	}

	ledger, err := s.sales.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := slices.Clone(items)

	items[i].Quantity -= quantity
	if err := s.products.ReplaceAll(ctx, items); err != nil {
		return nil, err
	}
	if err := s.sales.ReplaceAll(ctx, append(slices.Clone(ledger), sale)); err != nil {
		s.rollback(ctx, snapshot, ledger)
		return nil, err
	}

	if !online {
		if err := s.enqueue(ctx, sale); err != nil {
			s.rollback(ctx, snapshot, ledger)
			return nil, err
		}
		return &sale, nil
	}

	if _, err := s.remote.CreateSale(ctx, sale, false); err != nil {
		if !client.IsRetryable(err) {
			s.rollback(ctx, snapshot, ledger)
			return nil, fmt.Errorf("sale rejected by server: %w", err)
		}

		s.logger.Warn(ctx, "server unreachable, queuing sale", "sale", sale.ID, "error", err)
		if err := s.enqueue(ctx, sale); err != nil {
			s.rollback(ctx, snapshot, ledger)
			return nil, err
		}
	}
	return &sale, nil
}

func (s *inventoryService) enqueue(ctx context.Context, sale models.Sale) error {
	key, err := s.queue.Enqueue(ctx, common.TransactionTypeSale, sale)
	if err != nil {
		return fmt.Errorf("failed to queue sale: %w", err)
	}
	s.logger.Info(ctx, "sale queued for sync", "sale", sale.ID, "key", key)
	return nil
}

// rollback restores the catalog and ledger as they were before a sale.
func (s *inventoryService) rollback(ctx context.Context, items []models.Product, ledger []models.Sale) {
	if err := s.products.ReplaceAll(ctx, items); err != nil {
		s.logger.Error(ctx, "failed to roll back products", "error", err)
	}
	if err := s.sales.ReplaceAll(ctx, ledger); err != nil {
		s.logger.Error(ctx, "failed to roll back sales", "error", err)
	}
}

func (s *inventoryService) GetSales(ctx context.Context) ([]models.Sale, error) {
	return s.sales.GetAll(ctx)
}

// Summary totals stock and sales. Profit and loss are computed per sale
// from the product's buy price; sales of deleted products count as pure
// revenue.
func (s *inventoryService) Summary(ctx context.Context) (models.Summary, error) {
	items, err := s.products.GetAll(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	ledger, err := s.sales.GetAll(ctx)
	if err != nil {
		return models.Summary{}, err
	}

	buyPrice := make(map[int64]float64, len(items))
	sum := models.Summary{LowStock: make([]models.Product, 0)}
	for _, p := range items {
		buyPrice[p.ID] = p.BuyPrice
		if p.Quantity > 0 {
			sum.UnitsInStock += p.Quantity
		}
		if p.IsLowStock() {
			sum.LowStock = append(sum.LowStock, p)
		}
	}

	for _, sale := range ledger {
		sum.UnitsSold += sale.Quantity
		sum.Revenue += sale.TotalPrice

		margin := sale.TotalPrice - buyPrice[sale.ProductID]*float64(sale.Quantity)
		if margin >= 0 {
			sum.Profit += margin
		} else {
			sum.Loss -= margin
		}
	}
	return sum, nil
}

func indexOf(items []models.Product, id int64) int {
	return slices.IndexFunc(items, func(p models.Product) bool { return p.ID == id })
}
