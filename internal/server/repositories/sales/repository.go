package sales

import (
	"context"

	"github.com/dmitrijs2005/posmart/internal/server/models"
)

type Repository interface {
	// Insert stores s unless its id is already recorded. It reports whether
	// a row was written.
	Insert(ctx context.Context, s *models.Sale) (bool, error)
	Get(ctx context.Context, storeID, id string) (*models.Sale, error)
	List(ctx context.Context, storeID string) ([]*models.Sale, error)
}
