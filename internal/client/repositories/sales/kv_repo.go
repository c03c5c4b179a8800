// Package sales persists the local sales ledger.
package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/kv"
)

const Key = kv.NamespaceData + "sales"

type KVRepository struct {
	store kv.Store
}

func NewKVRepository(store kv.Store) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) GetAll(ctx context.Context) ([]models.Sale, error) {
	raw, err := r.store.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return []models.Sale{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	items := make([]models.Sale, 0)
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode sales: %w", err)
	}
	return items, nil
}

func (r *KVRepository) ReplaceAll(ctx context.Context, items []models.Sale) error {
	if items == nil {
		items = []models.Sale{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("failed to save sales: %w", err)
	}
	return nil
}

// Append adds s to the end of the ledger.
func (r *KVRepository) Append(ctx context.Context, s models.Sale) error {
	items, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	return r.ReplaceAll(ctx, append(items, s))
}
