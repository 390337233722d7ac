package amqp

import (
	"encoding/json"
	"time"
)

// Message kinds carried on the sync queue.
const (
	KindMovementSync   = "movement.sync"
	KindMovementDelete = "movement.delete"
)

// SyncMessage is the lightweight envelope published for every movement
// write. It carries only the ID and version; the worker fetches the full
// movement from the database.
type SyncMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMovementSyncMessage creates a sync message for a created or updated
// movement.
func NewMovementSyncMessage(id string, version int64) *SyncMessage {
	return &SyncMessage{
		Kind:      KindMovementSync,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewMovementDeleteMessage creates a message for a deleted movement.
func NewMovementDeleteMessage(id string) *SyncMessage {
	return &SyncMessage{
		Kind:      KindMovementDelete,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON parses a message from JSON bytes.
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
