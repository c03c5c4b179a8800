// Package messages is the typed channel between the worker and the pages it
// controls. A Message is the JSON envelope exchanged over the websocket
// bridge; Bus fans messages out to in-process subscribers.
package messages

import (
	"encoding/json"
	"fmt"
)

type Type string

const (
	// page → worker
	SkipWaiting Type = "SKIP_WAITING"
	SyncNow     Type = "SYNC_NOW"

	// worker → page
	SyncOfflineSales Type = "SYNC_OFFLINE_SALES"
	SyncProgress     Type = "SYNC_PROGRESS"
	Online           Type = "ONLINE"
	Offline          Type = "OFFLINE"
	UpdateAvailable  Type = "UPDATE_AVAILABLE"
	ClientsClaimed   Type = "CLIENTS_CLAIMED"
)

type Message struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// New builds a message, encoding data as JSON. A nil data leaves Data empty.
func New(t Type, data any) (Message, error) {
	msg := Message{Type: t}
	if data == nil {
		return msg, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	msg.Data = b
	return msg, nil
}

// Decode unmarshals Data into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	return json.Unmarshal(m.Data, v)
}

// Progress is the payload of SYNC_PROGRESS.
type Progress struct {
	Count int `json:"count"`
}

// Version is the payload of UPDATE_AVAILABLE and CLIENTS_CLAIMED.
type Version struct {
	Cache string `json:"cache"`
}
