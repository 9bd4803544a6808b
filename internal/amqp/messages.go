package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventOp is the kind of change a TransactionEvent announces.
type EventOp string

const (
	OpCreated EventOp = "created"
	OpDeleted EventOp = "deleted"
)

// TransactionEvent announces a change to a stored transaction.
// It carries only identifiers; consumers fetch the full row themselves.
type TransactionEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Op        EventOp   `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id, userID string, op EventOp) TransactionEvent {
	return TransactionEvent{
		ID:        id,
		UserID:    userID,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

func (e TransactionEvent) Validate() error {
	if e.ID == "" {
		return errors.New("event id is required")
	}
	switch e.Op {
	case OpCreated, OpDeleted:
		return nil
	default:
		return fmt.Errorf("unknown event op %q", e.Op)
	}
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TransactionEvent{}, err
	}
	if err := ev.Validate(); err != nil {
		return TransactionEvent{}, err
	}
	return ev, nil
}
