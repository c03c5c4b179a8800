// Package archive exports synced queue entries to object storage and
// removes them from the local store, which keeps the queue namespace from
// growing without bound.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/google/uuid"
)

// ErrDisabled is returned when no object storage is configured.
var ErrDisabled = errors.New("archive is disabled")

type Uploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

// Queue is the part of queue.Queue the archiver uses.
type Queue interface {
	ListAll(ctx context.Context) ([]models.QueuedTransaction, error)
	Remove(ctx context.Context, key string) error
}

type Record struct {
	Key       string          `json:"key"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"timestamp"`
}

// Batch is the uploaded document.
type Batch struct {
	ArchivedAt   time.Time `json:"archivedAt"`
	Transactions []Record  `json:"transactions"`
}

type Result struct {
	Archived int
	Object   string
}

type Archiver struct {
	queue     Queue
	uploader  Uploader
	retention time.Duration
	logger    logging.Logger
	now       func() time.Time
}

// New returns an Archiver. A nil uploader yields an archiver whose Archive
// always returns ErrDisabled.
func New(q Queue, uploader Uploader, retention time.Duration, logger logging.Logger) *Archiver {
	return &Archiver{
		queue:     q,
		uploader:  uploader,
		retention: retention,
		logger:    logger.With("module", "archive"),
		now:       time.Now,
	}
}

// ObjectKey builds "archive/<yyyy>/<mm>/<dd>/<uuid>.json".
func ObjectKey(at time.Time) string {
	return fmt.Sprintf("archive/%s/%s.json", at.UTC().Format("2006/01/02"), uuid.NewString())
}

// Archive uploads synced entries older than the retention period as one
// object and then deletes them locally. Unsynced entries are never touched.
// If the upload fails nothing is deleted.
func (a *Archiver) Archive(ctx context.Context) (Result, error) {
	if a.uploader == nil {
		return Result{}, ErrDisabled
	}

	all, err := a.queue.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}

	now := a.now().UTC()
	cutoff := now.Add(-a.retention)

	batch := Batch{ArchivedAt: now, Transactions: make([]Record, 0)}
	for _, tx := range all {
		if !tx.Synced || tx.CreatedAt.After(cutoff) {
			continue
		}
		batch.Transactions = append(batch.Transactions, Record{
			Key:       tx.Key,
			Type:      tx.Type,
			Payload:   tx.Payload,
			CreatedAt: tx.CreatedAt,
		})
	}
	if len(batch.Transactions) == 0 {
		return Result{}, nil
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return Result{}, err
	}

	object := ObjectKey(now)
	if err := a.uploader.Upload(ctx, object, body); err != nil {
		return Result{}, fmt.Errorf("upload %s: %w", object, err)
	}

	res := Result{Object: object}
	for _, rec := range batch.Transactions {
		if err := a.queue.Remove(ctx, rec.Key); err != nil {
			// already uploaded; the next run archives it again
			a.logger.Warn(ctx, "failed to remove archived entry", "key", rec.Key, "error", err)
			continue
		}
		res.Archived++
	}

	a.logger.Info(ctx, "archived synced transactions", "object", object, "count", res.Archived)
	return res, nil
}
