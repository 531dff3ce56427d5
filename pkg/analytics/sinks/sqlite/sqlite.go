// Package sqlite provides a durable spool sink backed by SQLite.
//
// Every event is stored as JSON with its kind, id, timestamp and checkout
// attempt id. Spooled events are delivered later with Replay.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("sqlite spool is closed")

// Option configures the spool.
type Option func(*Spool)

// WithLogger sets the logger for swallowed failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Spool) {
		s.logger = logger
	}
}

// Record is one spooled event.
type Record struct {
	Seq               int64
	Kind              analytics.Kind
	CheckoutAttemptID string
	Event             analytics.Event
}

// Spool is a Sink that persists events to SQLite.
type Spool struct {
	db     *sql.DB
	logger logrus.FieldLogger

	mu        sync.RWMutex
	attemptID string
	closed    bool
}

var _ analytics.Sink = (*Spool)(nil)

// Open opens or creates the spool database at path.
func Open(path string, opts ...Option) (*Spool, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Spool{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = l
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Spool) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			checkout_attempt_id TEXT NOT NULL DEFAULT '',
			timestamp INTEGER NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_attempt ON events(checkout_attempt_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Write stores the event. Events already spooled under the same id are
// ignored.
func (s *Spool) Write(ctx context.Context, event analytics.Event) error {
	s.mu.RLock()
	closed, pushed := s.closed, s.attemptID
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	header := event.EventHeader()
	attemptID := header.CheckoutAttemptID
	if attemptID == "" {
		attemptID = pushed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, kind, checkout_attempt_id, timestamp, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		header.ID, string(event.Kind()), attemptID, header.Timestamp, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to spool event: %w", err)
	}
	return nil
}

// SetCheckoutAttemptID records id for later writes. Events spooled before
// any attempt id was known are assigned to id.
func (s *Spool) SetCheckoutAttemptID(id string) {
	s.mu.Lock()
	s.attemptID = id
	closed := s.closed
	s.mu.Unlock()

	if id == "" || closed {
		return
	}
	if _, err := s.db.Exec(`UPDATE events SET checkout_attempt_id = ? WHERE checkout_attempt_id = ''`, id); err != nil {
		s.logger.WithError(err).Warn("analytics: failed to assign spooled events to checkout attempt")
	}
}

// Pending returns up to limit spooled events in write order. A non-positive
// limit returns all of them.
func (s *Spool) Pending(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT seq, kind, checkout_attempt_id, payload FROM events ORDER BY seq`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spool: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			kind    string
			payload string
		)
		if err := rows.Scan(&rec.Seq, &kind, &rec.CheckoutAttemptID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan spooled event: %w", err)
		}
		rec.Kind = analytics.Kind(kind)
		event, err := analytics.DecodeEvent(rec.Kind, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("spooled event %d: %w", rec.Seq, err)
		}
		rec.Event = analytics.WithCheckoutAttemptID(event, rec.CheckoutAttemptID)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes the records with the given sequence numbers.
func (s *Spool) Delete(ctx context.Context, seqs ...int64) error {
	if len(seqs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seqs)), ",")
	args := make([]any, len(seqs))
	for i, seq := range seqs {
		args[i] = seq
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE seq IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete spooled events: %w", err)
	}
	return nil
}

// Flush is a no-op: writes are durable when Write returns.
func (s *Spool) Flush(ctx context.Context) error {
	return nil
}

// Close closes the database.
func (s *Spool) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.db.Close()
}
