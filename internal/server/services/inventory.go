// Package services implements the inventory server use cases on top of the
// repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/dbx"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/dmitrijs2005/posmart/internal/server/models"
	"github.com/dmitrijs2005/posmart/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var ErrInvalidSale = errors.New("invalid sale")

type InventoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewInventoryService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *InventoryService {
	return &InventoryService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "inventory"),
		now:         time.Now,
	}
}

func (s *InventoryService) ListProducts(ctx context.Context, storeID string) ([]*models.Product, error) {
	return s.repomanager.Products(s.db).List(ctx, storeID)
}

func (s *InventoryService) GetProduct(ctx context.Context, storeID string, id int64) (*models.Product, error) {
	return s.repomanager.Products(s.db).Get(ctx, storeID, id)
}

func validateProduct(p *models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", common.ErrInvalidProduct)
	case p.BuyPrice < 0 || p.SellPrice < 0:
		return fmt.Errorf("%w: prices must not be negative", common.ErrInvalidProduct)
	case p.MinStock < 0:
		return fmt.Errorf("%w: minimum stock must not be negative", common.ErrInvalidProduct)
	}
	return nil
}

// AddProduct stores p for the store. A zero ID is assigned by the database.
func (s *InventoryService) AddProduct(ctx context.Context, storeID string, p models.Product) (*models.Product, error) {
	if err := validateProduct(&p); err != nil {
		return nil, err
	}
	p.StoreID = storeID
	if p.DateAdded.IsZero() {
		p.DateAdded = s.now().UTC()
	}
	if err := s.repomanager.Products(s.db).Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, storeID string, p models.Product) (*models.Product, error) {
	if err := validateProduct(&p); err != nil {
		return nil, err
	}
	p.StoreID = storeID
	if err := s.repomanager.Products(s.db).Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, storeID string, id int64) error {
	return s.repomanager.Products(s.db).Delete(ctx, storeID, id)
}

func (s *InventoryService) ListSales(ctx context.Context, storeID string) ([]*models.Sale, error) {
	return s.repomanager.Sales(s.db).List(ctx, storeID)
}

// CreateSale records sale and decrements stock in one transaction.
//
// A sale id that is already recorded is answered with the stored sale and
// duplicate=true; stock is not touched again. Without allowOversell the sale
// is rejected with common.ErrInsufficientStock when stock is short. With it,
// stock may go negative and the sale is flagged Oversold. A replayed sale
// for a product that no longer exists is kept in the ledger without a stock
// change.
func (s *InventoryService) CreateSale(ctx context.Context, storeID string, sale models.Sale, allowOversell bool) (*models.Sale, bool, error) {
	if sale.Quantity <= 0 {
		return nil, false, common.ErrInvalidQuantity
	}
	if _, err := uuid.Parse(sale.ID); err != nil {
		return nil, false, fmt.Errorf("%w: id must be a UUID", ErrInvalidSale)
	}
	sale.StoreID = storeID
	if sale.SoldAt.IsZero() {
		sale.SoldAt = s.now().UTC()
	}

	type outcome struct {
		sale      *models.Sale
		duplicate bool
	}

	res, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (outcome, error) {
		productsRepo := s.repomanager.Products(tx)
		salesRepo := s.repomanager.Sales(tx)

		existing, err := salesRepo.Get(ctx, storeID, sale.ID)
		switch {
		case err == nil:
			return outcome{existing, true}, nil
		case !errors.Is(err, common.ErrorNotFound):
			return outcome{}, err
		}

		product, err := productsRepo.GetForUpdate(ctx, storeID, sale.ProductID)
		missing := errors.Is(err, common.ErrorNotFound)
		switch {
		case missing && allowOversell:
			s.logger.Warn(ctx, "replayed sale for unknown product", "sale", sale.ID, "product", sale.ProductID)
		case err != nil:
			return outcome{}, err
		case sale.Quantity > product.Quantity:
			if !allowOversell {
				return outcome{}, fmt.Errorf("%w: %d available, %d requested", common.ErrInsufficientStock, product.Quantity, sale.Quantity)
			}
			sale.Oversold = true
		default:
			sale.Oversold = false
		}

		inserted, err := salesRepo.Insert(ctx, &sale)
		if err != nil {
			return outcome{}, err
		}
		if !inserted {
			// lost a race with a concurrent delivery of the same sale
			existing, err := salesRepo.Get(ctx, storeID, sale.ID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{existing, true}, nil
		}

		if !missing {
			if err := productsRepo.AdjustQuantity(ctx, storeID, sale.ProductID, -sale.Quantity); err != nil {
				return outcome{}, err
			}
		}
		return outcome{sale: &sale}, nil
	})
	if err != nil {
		return nil, false, err
	}
	result, duplicate := res.sale, res.duplicate

	if duplicate {
		s.logger.Info(ctx, "duplicate sale ignored", "sale", sale.ID)
	}
	return result, duplicate, nil
}
