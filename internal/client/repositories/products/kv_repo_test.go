package products

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAll_EmptyStore(t *testing.T) {
	r := NewKVRepository(kv.NewMemoryStore(0))
	items, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestReplaceAll_ThenGetAll(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore(0)
	r := NewKVRepository(store)

	in := []models.Product{
		{ID: 1, Name: "Rice 5kg", SellPrice: 12.5, Quantity: 10, DateAdded: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Name: "Dates", SellPrice: 4, Quantity: -1},
	}
	require.NoError(t, r.ReplaceAll(ctx, in))

	out, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	keys, err := store.Keys(ctx, kv.NamespaceData)
	require.NoError(t, err)
	assert.Equal(t, []string{"data:products"}, keys)
}

func TestReplaceAll_NilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore(0)
	require.NoError(t, NewKVRepository(store).ReplaceAll(ctx, nil))

	raw, err := store.Get(ctx, Key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestGetAll_CorruptValue(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore(0)
	require.NoError(t, store.Set(ctx, Key, []byte("{")))

	_, err := NewKVRepository(store).GetAll(ctx)
	require.Error(t, err)
}

func TestReplaceAll_QuotaExceeded(t *testing.T) {
	r := NewKVRepository(kv.NewMemoryStore(8))
	err := r.ReplaceAll(context.Background(), []models.Product{{ID: 1, Name: "long enough"}})
	assert.ErrorIs(t, err, kv.ErrQuotaExceeded)
}
