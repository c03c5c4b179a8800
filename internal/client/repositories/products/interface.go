package products

import (
	"context"

	"github.com/dmitrijs2005/posmart/internal/client/models"
)

type Repository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	ReplaceAll(ctx context.Context, items []models.Product) error
}
