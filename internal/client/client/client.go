package client

import (
	"context"

	"github.com/dmitrijs2005/posmart/internal/client/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	AddProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	// CreateSale records s remotely. With allowOversell the service accepts
	// the sale even when stock is short. Resending a sale id already
	// recorded is not an error.
	CreateSale(ctx context.Context, s models.Sale, allowOversell bool) (*models.Sale, error)
	ListSales(ctx context.Context) ([]models.Sale, error)
}
