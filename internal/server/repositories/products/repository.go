package products

import (
	"context"

	"github.com/dmitrijs2005/posmart/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, storeID string) ([]*models.Product, error)
	Get(ctx context.Context, storeID string, id int64) (*models.Product, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, storeID string, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, storeID string, id int64) error
	AdjustQuantity(ctx context.Context, storeID string, id int64, delta int64) error
}
