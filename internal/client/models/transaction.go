package models

import (
	"encoding/json"
	"time"
)

// QueuedTransaction is a mutation recorded locally while the remote store
// could not be reached. Only the reconciler flips Synced to true.
type QueuedTransaction struct {
	// Key is the storage key; it is not part of the stored value.
	Key string `json:"-"`

	// Type selects the delivery handler, e.g. "sale".
	Type string `json:"type"`

	Payload   json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"timestamp"`
	Synced    bool            `json:"synced"`
}
