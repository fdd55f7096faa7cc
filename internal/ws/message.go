package ws

import (
	"time"

	"github.com/linklab/linkdex/internal/domain"
)

// MessageType discriminates live-update channel messages.
type MessageType string

const (
	TypeConnect MessageType = "connect"
	TypeSync    MessageType = "sync"
	TypeUpdate  MessageType = "update"
	TypeError   MessageType = "error"
)

// Message is the wire format of the live-update channel. Version carries the
// opaque token identifying a point-in-time state of the full collection.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"` // unix milliseconds
	Version   string      `json:"version,omitempty"`
	Payload   *Payload    `json:"payload,omitempty"`
}

// Payload carries the optional body of a message. Items holds changed items
// (merge-by-id on the receiving side); FullData holds the entire collection
// for full resyncs (wholesale replace).
type Payload struct {
	ClientID      string         `json:"clientId,omitempty"`
	Items         []*domain.Link `json:"items,omitempty"`
	FullData      []*domain.Link `json:"fullData,omitempty"`
	NeedsUpdate   bool           `json:"needsUpdate"`
	IsIncremental bool           `json:"isIncremental,omitempty"`
	Message       string         `json:"message,omitempty"`
}

func newMessage(t MessageType) *Message {
	return &Message{
		Type:      t,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewVersionToken mints a fresh opaque version token. Tokens are timestamps
// only by convention; clients must treat them as opaque.
func NewVersionToken() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
