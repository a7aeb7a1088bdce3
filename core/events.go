package core

import (
	"context"
	"time"
)

// Event types
const (
	EventFeePaid          = "fee.paid"
	EventFamilyFeePaid    = "familyfee.paid"
	EventFamilyFeeDeleted = "familyfee.deleted"
	EventSalaryPaid       = "salary.paid"
	EventLedgerUpdated    = "finance.ledger_updated"
)

// Event notifies other systems that a payment changed money flows.
type Event struct {
	Type       string      `json:"type"`
	RecordID   string      `json:"recordId"`
	Month      int         `json:"month"`
	Year       int         `json:"year"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

func NewEvent(typ, recordID string, month, year int, payload interface{}) Event {
	return Event{
		Type:       typ,
		RecordID:   recordID,
		Month:      month,
		Year:       year,
		Payload:    payload,
		OccurredAt: Now(),
	}
}

// EventPublisher delivers events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, Event) error { return nil }

// DiscardEvents drops every event.
var DiscardEvents EventPublisher = discardPublisher{}
