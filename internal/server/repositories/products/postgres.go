// Package products provides the PostgreSQL-backed product catalog.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/dbx"
	"github.com/dmitrijs2005/posmart/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrAlreadyExists is returned by Create when the store already has a
// product with the same id.
var ErrAlreadyExists = errors.New("product already exists")

const uniqueViolation = "23505"

// PostgresRepository implements product storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `id, name, category, subcategory, buy_price, sell_price, quantity, min_stock, date_added`

func scanProduct(row dbx.Scanner, storeID string) (*models.Product, error) {
	p := models.Product{StoreID: storeID}
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Subcategory, &p.BuyPrice, &p.SellPrice,
		&p.Quantity, &p.MinStock, &p.DateAdded); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the catalog of a store ordered by id.
func (r *PostgresRepository) List(ctx context.Context, storeID string) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE store_id = $1 ORDER BY id`
	scan := func(s dbx.Scanner) (*models.Product, error) { return scanProduct(s, storeID) }
	result, err := dbx.QueryAll(ctx, r.db, scan, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) get(ctx context.Context, query, storeID string, id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, storeID, id), storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, storeID string, id int64) (*models.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE store_id = $1 AND id = $2`, storeID, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, storeID string, id int64) (*models.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE store_id = $1 AND id = $2 FOR UPDATE`, storeID, id)
}

// Create inserts p. A zero p.ID is replaced by the next free id of the store.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (store_id, id, name, category, subcategory, buy_price, sell_price, quantity, min_stock, date_added)
		VALUES ($1,
			CASE WHEN $2::bigint > 0 THEN $2::bigint
			     ELSE (SELECT COALESCE(MAX(id), 0) + 1 FROM products WHERE store_id = $1) END,
			$3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, p.StoreID, p.ID, p.Name, p.Category, p.Subcategory,
		p.BuyPrice, p.SellPrice, p.Quantity, p.MinStock, p.DateAdded).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products SET name = $3, category = $4, subcategory = $5, buy_price = $6, sell_price = $7,
			quantity = $8, min_stock = $9
		WHERE store_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, p.StoreID, p.ID, p.Name, p.Category, p.Subcategory,
		p.BuyPrice, p.SellPrice, p.Quantity, p.MinStock)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, storeID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE store_id = $1 AND id = $2`, storeID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// AdjustQuantity adds delta to the stock level. The result may be negative.
func (r *PostgresRepository) AdjustQuantity(ctx context.Context, storeID string, id int64, delta int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET quantity = quantity + $3 WHERE store_id = $1 AND id = $2`, storeID, id, delta)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
