package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one journaled ledger mutation.
type Event struct {
	ID            int64
	MessageID     string
	Type          string
	UserID        int64
	Revision      uint64
	TransactionID string
	Index         int
	Kind          string
	Category      string
	Amount        string
	Limit         string
	OccurredAt    time.Time
	RecordedAt    time.Time
}

var ErrMissingMessageID = errors.New("event has no message id")

// JournalRepository is an append-only audit trail of ledger events. It is
// never read back into the in-memory ledger.
type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(dbPath string) (*JournalRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &JournalRepository{db: db}, nil
}

func (r *JournalRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *JournalRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RecordEvent stores e. A redelivered message id is ignored and reported
// as inserted=false.
func (r *JournalRepository) RecordEvent(ctx context.Context, e Event) (inserted bool, err error) {
	if e.MessageID == "" {
		return false, ErrMissingMessageID
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_events
			(message_id, event_type, user_id, revision, transaction_id, tx_index, kind, category, amount, limit_amount, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO NOTHING`,
		e.MessageID, e.Type, e.UserID, int64(e.Revision), e.TransactionID, e.Index,
		e.Kind, e.Category, e.Amount, e.Limit, e.OccurredAt.UTC())
	if err != nil {
		return false, fmt.Errorf("insert ledger event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Duplicate ledger event ignored", "message_id", e.MessageID)
		return false, nil
	}

	slog.DebugContext(ctx, "Ledger event recorded",
		"message_id", e.MessageID,
		"event_type", e.Type,
		"user_id", e.UserID,
		"revision", e.Revision)
	return true, nil
}

// ListEvents returns the most recent events of a user, newest first. Events
// are ordered by ledger revision, so late deliveries land where they were
// committed.
func (r *JournalRepository) ListEvents(ctx context.Context, userID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, event_type, user_id, revision, transaction_id, tx_index,
		       kind, category, amount, limit_amount, occurred_at, recorded_at
		FROM ledger_events
		WHERE user_id = ?
		ORDER BY revision DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var revision int64
		if err := rows.Scan(&e.ID, &e.MessageID, &e.Type, &e.UserID, &revision, &e.TransactionID, &e.Index,
			&e.Kind, &e.Category, &e.Amount, &e.Limit, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		e.Revision = uint64(revision)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of journaled events across all users.
func (r *JournalRepository) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger events: %w", err)
	}
	return n, nil
}
