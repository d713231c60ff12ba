package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finbot/internal/amqp"
	"finbot/internal/storage"
)

// EventRecorder persists journal entries.
type EventRecorder interface {
	RecordEvent(ctx context.Context, e storage.Event) (bool, error)
}

// JournalWorker writes consumed ledger events into the audit journal
type JournalWorker struct {
	recorder EventRecorder
}

func NewJournalWorker(recorder EventRecorder) *JournalWorker {
	return &JournalWorker{recorder: recorder}
}

// HandleLedgerEvent records a single event. Redelivered events are
// acknowledged without a second row.
func (w *JournalWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	inserted, err := w.recorder.RecordEvent(ctx, toJournalEvent(event))
	if err != nil {
		return fmt.Errorf("record ledger event: %w", err)
	}

	if !inserted {
		slog.InfoContext(ctx, "Skipping already journaled event",
			"message_id", event.MessageID,
			"event_type", event.Type)
		return nil
	}

	slog.InfoContext(ctx, "Ledger event journaled",
		"message_id", event.MessageID,
		"event_type", event.Type,
		"user_id", event.UserID,
		"transaction_id", event.TransactionID)
	return nil
}

func toJournalEvent(e *amqp.LedgerEvent) storage.Event {
	return storage.Event{
		MessageID:     e.MessageID,
		Type:          string(e.Type),
		UserID:        e.UserID,
		Revision:      e.Revision,
		TransactionID: e.TransactionID,
		Index:         e.Index,
		Kind:          e.Kind,
		Category:      e.Category,
		Amount:        e.Amount,
		Limit:         e.Limit,
		OccurredAt:    e.Timestamp,
	}
}
