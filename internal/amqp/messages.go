package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a committed ledger mutation
type EventType string

const (
	EventTransactionAppended EventType = "transaction.appended"
	EventTransactionUpdated  EventType = "transaction.updated"
	EventTransactionDeleted  EventType = "transaction.deleted"
	EventLimitSet            EventType = "limit.set"
	EventLimitCleared        EventType = "limit.cleared"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventTransactionAppended, EventTransactionUpdated, EventTransactionDeleted, EventLimitSet, EventLimitCleared:
		return true
	}
	return false
}

// LedgerEvent describes one committed ledger mutation. Amounts travel as
// decimal strings so no precision is lost on the wire. Revision is the
// user's ledger revision after the mutation and orders events per user.
type LedgerEvent struct {
	MessageID     string    `json:"message_id"`
	Type          EventType `json:"type"`
	UserID        int64     `json:"user_id"`
	Revision      uint64    `json:"revision"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Index         int       `json:"index"`
	Kind          string    `json:"kind,omitempty"`
	Category      string    `json:"category,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Limit         string    `json:"limit,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event with a fresh message id and timestamp
func NewLedgerEvent(eventType EventType, userID int64) *LedgerEvent {
	return &LedgerEvent{
		MessageID: uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Index:     -1,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks a message body
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.MessageID == "" {
		return nil, fmt.Errorf("missing message_id")
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
