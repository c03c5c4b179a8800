// Package reconcile drains the pending-transaction queue against the remote
// inventory service.
//
// Delivery is at-least-once: an entry is marked synced only after its
// deliverer succeeded, so a crash between delivery and marking resends it on
// the next pass. The remote service deduplicates sales by id.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/posmart/internal/client/client"
	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/logging"
)

// Queue is the part of queue.Queue the reconciler uses.
type Queue interface {
	ListPending(ctx context.Context) ([]models.QueuedTransaction, error)
	MarkSynced(ctx context.Context, key string) error
}

// Deliverer pushes one queued transaction to the remote service.
type Deliverer func(ctx context.Context, tx models.QueuedTransaction) error

// Notifier is told about the pending set before delivery starts.
type Notifier interface {
	Pending(ctx context.Context, pending []models.QueuedTransaction)
}

type NotifierFunc func(ctx context.Context, pending []models.QueuedTransaction)

func (f NotifierFunc) Pending(ctx context.Context, pending []models.QueuedTransaction) {
	f(ctx, pending)
}

type Result struct {
	Pending int
	Synced  int
	Failed  int
	// Keys of the entries synced in this pass.
	Keys []string
}

type Reconciler struct {
	queue      Queue
	logger     logging.Logger
	notifier   Notifier
	deliverers map[string]Deliverer

	// one pass at a time per reconciler
	mu sync.Mutex
}

func New(q Queue, logger logging.Logger, notifier Notifier) *Reconciler {
	return &Reconciler{
		queue:      q,
		logger:     logger.With("module", "reconcile"),
		notifier:   notifier,
		deliverers: make(map[string]Deliverer),
	}
}

// Register sets the deliverer for a transaction type. It must be called
// before the first Reconcile.
func (r *Reconciler) Register(txType string, d Deliverer) {
	r.deliverers[txType] = d
}

// Reconcile delivers every pending entry once, oldest first. Individual
// failures are logged and the entry stays pending; only a failure to list
// the queue is returned.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	return r.ReconcileNotify(ctx, r.notifier)
}

// ReconcileNotify is Reconcile with notifier in place of the one given to
// New. Passes share the reconciler's lock whichever notifier they use.
func (r *Reconciler) ReconcileNotify(ctx context.Context, notifier Notifier) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.queue.ListPending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending: %w", err)
	}

	res := Result{Pending: len(pending), Keys: make([]string, 0, len(pending))}
	if len(pending) == 0 {
		return res, nil
	}

	if notifier != nil {
		notifier.Pending(ctx, pending)
	}

	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			r.logger.Warn(ctx, "reconcile interrupted", "remaining", res.Pending-res.Synced-res.Failed)
			res.Failed += res.Pending - res.Synced - res.Failed
			break
		}

		deliver, ok := r.deliverers[tx.Type]
		if !ok {
			r.logger.Warn(ctx, "no deliverer for transaction type", "type", tx.Type, "key", tx.Key)
			res.Failed++
			continue
		}

		if err := deliver(ctx, tx); err != nil {
			r.logger.Error(ctx, "failed to sync transaction", "key", tx.Key, "error", err)
			res.Failed++
			continue
		}

		if err := r.queue.MarkSynced(ctx, tx.Key); err != nil {
			// delivered but not marked: the next pass resends it
			r.logger.Error(ctx, "failed to mark transaction synced", "key", tx.Key, "error", err)
			res.Failed++
			continue
		}

		res.Synced++
		res.Keys = append(res.Keys, tx.Key)
	}

	r.logger.Info(ctx, "reconcile finished", "pending", res.Pending, "synced", res.Synced, "failed", res.Failed)
	return res, nil
}

// SaleDeliverer replays queued sales through c. Stock checks were skipped
// when the sale was recorded offline, so oversell is allowed here.
func SaleDeliverer(c client.Client) Deliverer {
	return func(ctx context.Context, tx models.QueuedTransaction) error {
		var sale models.Sale
		if err := json.Unmarshal(tx.Payload, &sale); err != nil {
			return fmt.Errorf("decode sale %s: %w", tx.Key, err)
		}
		if _, err := c.CreateSale(ctx, sale, true); err != nil {
			return err
		}
		return nil
	}
}
