package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createInboxSQL = `
CREATE TABLE IF NOT EXISTS contact_messages (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	body         TEXT NOT NULL,
	remote_ip    TEXT NOT NULL DEFAULT '',
	user_agent   TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS contact_messages_submitted_at_idx ON contact_messages (submitted_at DESC);
`

const insertMessageSQL = `
INSERT INTO contact_messages (id, name, email, body, remote_ip, user_agent, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

const listMessagesSQL = `
SELECT id, name, email, body, remote_ip, user_agent, submitted_at
FROM contact_messages
WHERE submitted_at >= $1
ORDER BY submitted_at DESC
LIMIT $2`

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// pgxDB is the subset of *pgxpool.Pool the inbox needs.
type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Inbox stores messages in the contact_messages table.
type Inbox struct {
	db    pgxDB
	close func()
}

// OpenInbox connects a pool to databaseURL and verifies it with a ping.
func OpenInbox(ctx context.Context, databaseURL string) (*Inbox, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("contact: parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("contact: open pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("contact: ping database: %w", err)
	}
	return &Inbox{db: pool, close: pool.Close}, nil
}

// NewInbox wraps an existing connection or pool.
func NewInbox(db pgxDB) *Inbox {
	return &Inbox{db: db}
}

// Name implements Named.
func (i *Inbox) Name() string { return "postgres" }

// Close releases the pool opened by OpenInbox.
func (i *Inbox) Close() error {
	if i.close != nil {
		i.close()
	}
	return nil
}

// EnsureSchema creates the inbox table when it does not exist.
func (i *Inbox) EnsureSchema(ctx context.Context) error {
	if _, err := i.db.Exec(ctx, createInboxSQL); err != nil {
		return fmt.Errorf("contact: ensure schema: %w", err)
	}
	return nil
}

// Deliver implements Deliverer. Re-delivering the same message ID is a no-op.
func (i *Inbox) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	_, err := i.db.Exec(ctx, insertMessageSQL,
		msg.ID, msg.Name, msg.Email, msg.Body, msg.RemoteIP, msg.UserAgent, msg.SubmittedAt)
	if err != nil {
		return Receipt{}, fmt.Errorf("contact: insert message: %w", err)
	}
	return Receipt{ID: msg.ID, Sink: i.Name(), DeliveredAt: time.Now().UTC()}, nil
}

// ListOptions filters List.
type ListOptions struct {
	Since time.Time
	Limit int
}

// List returns stored messages newest first.
func (i *Inbox) List(ctx context.Context, opts ListOptions) ([]Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := i.db.Query(ctx, listMessagesSQL, opts.Since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("contact: list messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &m.RemoteIP, &m.UserAgent, &m.SubmittedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("contact: scan messages: %w", err)
	}
	return msgs, nil
}

// IsUnavailable reports whether err came from a dropped or refused connection.
func IsUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "57P01" || pgErr.Code == "57P03"
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
