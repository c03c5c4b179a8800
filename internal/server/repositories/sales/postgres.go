// Package sales provides the PostgreSQL-backed sales ledger.
package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/dbx"
	"github.com/dmitrijs2005/posmart/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const saleColumns = `id, product_id, quantity, unit_price, total_price, discount, tax, sold_at, oversold`

func scanSale(row dbx.Scanner, storeID string) (*models.Sale, error) {
	s := models.Sale{StoreID: storeID}
	if err := row.Scan(&s.ID, &s.ProductID, &s.Quantity, &s.UnitPrice, &s.TotalPrice, &s.Discount,
		&s.Tax, &s.SoldAt, &s.Oversold); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, s *models.Sale) (bool, error) {
	query := `
		INSERT INTO sales (id, store_id, product_id, quantity, unit_price, total_price, discount, tax, sold_at, oversold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, s.ID, s.StoreID, s.ProductID, s.Quantity, s.UnitPrice,
		s.TotalPrice, s.Discount, s.Tax, s.SoldAt, s.Oversold)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) Get(ctx context.Context, storeID, id string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE store_id = $1 AND id = $2`
	s, err := scanSale(r.db.QueryRowContext(ctx, query, storeID, id), storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// List returns the ledger of a store, oldest first.
func (r *PostgresRepository) List(ctx context.Context, storeID string) ([]*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE store_id = $1 ORDER BY sold_at, id`
	scan := func(s dbx.Scanner) (*models.Sale, error) { return scanSale(s, storeID) }
	result, err := dbx.QueryAll(ctx, r.db, scan, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select sales: %w", err)
	}
	return result, nil
}
