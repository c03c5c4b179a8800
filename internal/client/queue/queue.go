// Package queue is the pending-transaction log. Mutations recorded while the
// remote store is unreachable are appended here with synced=false and stay
// until the reconciler has delivered them. Entries are never deleted by the
// queue itself.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/kv"
	"github.com/google/uuid"
)

type Queue struct {
	store kv.Store
	now   func() time.Time
}

func New(store kv.Store) *Queue {
	return &Queue{store: store, now: time.Now}
}

// Key builds "offline_txn:<type>:<unix-millis>:<uuid>". The uuid keeps keys
// unique when two entries share a millisecond.
func Key(txType string, at time.Time) string {
	return fmt.Sprintf("%s%s:%d:%s", kv.NamespaceQueue, txType, at.UnixMilli(), uuid.NewString())
}

// Enqueue appends an unsynced entry and returns its key. A storage failure,
// including kv.ErrQuotaExceeded, is returned unchanged in the chain.
func (q *Queue) Enqueue(ctx context.Context, txType string, payload any) (string, error) {
	if txType == "" || strings.Contains(txType, ":") {
		return "", fmt.Errorf("invalid transaction type %q", txType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", txType, err)
	}

	now := q.now().UTC()
	tx := models.QueuedTransaction{
		Type:      txType,
		Payload:   raw,
		CreatedAt: now,
	}
	value, err := json.Marshal(tx)
	if err != nil {
		return "", err
	}

	key := Key(txType, now)
	if err := q.store.Set(ctx, key, value); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", txType, err)
	}
	return key, nil
}

// ListPending returns unsynced entries, oldest first. Entries created in the
// same instant keep their key order.
func (q *Queue) ListPending(ctx context.Context) ([]models.QueuedTransaction, error) {
	all, err := q.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]models.QueuedTransaction, 0, len(all))
	for _, tx := range all {
		if !tx.Synced {
			pending = append(pending, tx)
		}
	}
	return pending, nil
}

// ListAll returns every entry in the queue namespace, synced or not, sorted
// like ListPending. Values that cannot be decoded are skipped.
func (q *Queue) ListAll(ctx context.Context) ([]models.QueuedTransaction, error) {
	keys, err := q.store.Keys(ctx, kv.NamespaceQueue)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}

	out := make([]models.QueuedTransaction, 0, len(keys))
	for _, key := range keys {
		tx, err := q.get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				continue
			}
			return nil, err
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// PendingCount is len(ListPending) for the status badge.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	pending, err := q.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// MarkSynced flips an entry to synced. Marking an already-synced entry is a
// no-op; an unknown key returns kv.ErrNotFound.
func (q *Queue) MarkSynced(ctx context.Context, key string) error {
	tx, err := q.get(ctx, key)
	if err != nil {
		return err
	}
	if tx.Synced {
		return nil
	}

	tx.Synced = true
	value, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	if err := q.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("mark %s synced: %w", key, err)
	}
	return nil
}

// Remove deletes an entry. Only the archive uses it, and only for entries
// that are already synced.
func (q *Queue) Remove(ctx context.Context, key string) error {
	return q.store.Delete(ctx, key)
}

func (q *Queue) get(ctx context.Context, key string) (models.QueuedTransaction, error) {
	value, err := q.store.Get(ctx, key)
	if err != nil {
		return models.QueuedTransaction{}, err
	}

	var tx models.QueuedTransaction
	if err := json.Unmarshal(value, &tx); err != nil {
		return models.QueuedTransaction{}, fmt.Errorf("decode %s: %w", key, err)
	}
	tx.Key = key
	return tx, nil
}
