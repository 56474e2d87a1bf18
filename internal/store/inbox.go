package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/domain"
	"github.com/soyeahso/matchat/internal/logging"
)

// ErrEmptySession is returned when a message carries no session ID.
var ErrEmptySession = errors.New("store: empty session id")

// Inbox records demo endpoint traffic per widget session.
type Inbox interface {
	// Record stores m, assigning an ID and arrival time when unset.
	Record(ctx context.Context, m domain.InboxMessage) (domain.InboxMessage, error)
	// List returns up to limit messages of a session, oldest first.
	// A limit of zero or less returns all of them.
	List(ctx context.Context, sessionID string, limit int) ([]domain.InboxMessage, error)
	// Sessions summarizes every session, most recently active first.
	Sessions(ctx context.Context) ([]domain.SessionSummary, error)
	Close() error
}

// OpenInbox builds the inbox selected by cfg. An empty Path for the sqlite
// store falls back to the default data directory.
func OpenInbox(cfg config.InboxConfig, log *logging.Logger) (Inbox, error) {
	switch cfg.Store {
	case "memory":
		return NewMemoryInbox(), nil
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			paths, err := config.ResolvePaths()
			if err != nil {
				return nil, err
			}
			path = paths.InboxDB()
		}
		db, err := Open(path, log)
		if err != nil {
			return nil, err
		}
		return NewSQLiteInbox(db), nil
	default:
		return nil, fmt.Errorf("unknown inbox store %q", cfg.Store)
	}
}

func prepare(m domain.InboxMessage) (domain.InboxMessage, error) {
	if m.SessionID == "" {
		return m, ErrEmptySession
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Now()
	}
	m.ReceivedAt = m.ReceivedAt.UTC()
	return m, nil
}

// SQLiteInbox implements Inbox backed by SQLite.
type SQLiteInbox struct {
	db *DB
}

// NewSQLiteInbox creates an inbox using the given database.
func NewSQLiteInbox(db *DB) *SQLiteInbox {
	return &SQLiteInbox{db: db}
}

func (s *SQLiteInbox) Record(ctx context.Context, m domain.InboxMessage) (domain.InboxMessage, error) {
	m, err := prepare(m)
	if err != nil {
		return m, err
	}
	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO inbox_messages (id, session_id, message, reply, sent_at, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.Message, m.Reply, m.SentAt, m.ReceivedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return m, fmt.Errorf("recording inbox message: %w", err)
	}
	return m, nil
}

func (s *SQLiteInbox) List(ctx context.Context, sessionID string, limit int) ([]domain.InboxMessage, error) {
	query := `SELECT id, session_id, message, reply, sent_at, received_at
		FROM inbox_messages WHERE session_id = ? ORDER BY received_at, rowid`
	args := []any{sessionID}
	if limit > 0 {
		// Keep the newest limit rows, still returned oldest first.
		query = `SELECT * FROM (
			SELECT id, session_id, message, reply, sent_at, received_at, rowid AS r
			FROM inbox_messages WHERE session_id = ? ORDER BY received_at DESC, rowid DESC LIMIT ?
		) ORDER BY received_at, r`
		args = append(args, limit)
	}

	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	defer rows.Close()

	var out []domain.InboxMessage
	for rows.Next() {
		var (
			m        domain.InboxMessage
			received string
			rowid    sql.NullInt64
		)
		dest := []any{&m.ID, &m.SessionID, &m.Message, &m.Reply, &m.SentAt, &received}
		if limit > 0 {
			dest = append(dest, &rowid)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning inbox row: %w", err)
		}
		m.ReceivedAt, _ = time.Parse(time.RFC3339Nano, received)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteInbox) Sessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT session_id, COUNT(*), MAX(received_at)
		 FROM inbox_messages GROUP BY session_id ORDER BY MAX(received_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("summarizing inbox: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		var (
			sum  domain.SessionSummary
			last string
		)
		if err := rows.Scan(&sum.SessionID, &sum.Messages, &last); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sum.LastSeen, _ = time.Parse(time.RFC3339Nano, last)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteInbox) Close() error {
	return s.db.Close()
}
