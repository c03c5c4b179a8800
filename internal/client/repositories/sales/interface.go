package sales

import (
	"context"

	"github.com/dmitrijs2005/posmart/internal/client/models"
)

type Repository interface {
	GetAll(ctx context.Context) ([]models.Sale, error)
	ReplaceAll(ctx context.Context, items []models.Sale) error
	Append(ctx context.Context, s models.Sale) error
}
