// Package kv is the durable local key-value store. It is the application's
// primary local database (products, sales) and the backing store of the
// pending-transaction queue.
//
// Writes to a key are last-writer-wins. Keys lists keys in the order they were
// first written, which is the order the queue relies on as a tiebreaker.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = errors.New("kv: key not found")

	// ErrQuotaExceeded is returned by Set when the write would grow the
	// store beyond its configured size.
	ErrQuotaExceeded = errors.New("kv: storage quota exceeded")
)

// Namespaces used by the client. Keys are "<namespace><name>".
const (
	NamespaceQueue   = "offline_txn:"
	NamespaceData    = "data:"
	NamespaceSession = "session:"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
