// Package products persists the local product catalog.
package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/kv"
)

// Key is where the catalog lives, as one JSON array.
const Key = kv.NamespaceData + "products"

type KVRepository struct {
	store kv.Store
}

func NewKVRepository(store kv.Store) *KVRepository {
	return &KVRepository{store: store}
}

// GetAll returns the catalog; an absent key is an empty catalog.
func (r *KVRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	raw, err := r.store.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	items := make([]models.Product, 0)
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return items, nil
}

func (r *KVRepository) ReplaceAll(ctx context.Context, items []models.Product) error {
	if items == nil {
		items = []models.Product{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}
