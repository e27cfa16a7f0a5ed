// Package mirror is the optional remote document store for mood entries,
// kept in Postgres and keyed by owner id. Every operation reports an
// explicit Result so callers can fall back to local storage without
// treating "not configured" as an error.
package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/model/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mirror/migrations"
)

// DefaultTimeout bounds each remote call when Config.Timeout is unset.
const DefaultTimeout = 5 * time.Second

// ErrNotConfigured marks a client created without a DSN.
var ErrNotConfigured = errors.New("mirror: not configured")

// Config describes the remote database.
type Config struct {
	DSN     string
	Timeout time.Duration
}

// Result tells whether the mirror served a call.
type Result struct {
	Available bool
	Reason    error
}

func ok() Result { return Result{Available: true} }

func unavailable(err error) Result { return Result{Reason: err} }

// Client talks to the mirror. A Client without a database answers every
// call with an unavailable Result.
type Client struct {
	db      *sql.DB
	timeout time.Duration
	log     zerolog.Logger
	reason  error
}

// Connect opens the database, checks it is reachable and applies the
// schema. Failures yield an unavailable client, never an error.
func Connect(ctx context.Context, cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cfg.DSN == "" {
		return &Client{timeout: timeout, log: logger, reason: ErrNotConfigured}
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		logger.Warn().Err(err).Msg("mirror open failed, using local storage only")
		return &Client{timeout: timeout, log: logger, reason: err}
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(connectCtx); err != nil {
		_ = db.Close()
		logger.Warn().Err(err).Msg("mirror unreachable, using local storage only")
		return &Client{timeout: timeout, log: logger, reason: err}
	}

	if err := migrate(connectCtx, db); err != nil {
		_ = db.Close()
		logger.Warn().Err(err).Msg("mirror migration failed, using local storage only")
		return &Client{timeout: timeout, log: logger, reason: err}
	}

	logger.Info().Msg("mirror connected")
	return newClient(db, timeout, logger)
}

func newClient(db *sql.DB, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{db: db, timeout: timeout, log: logger}
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Connected reports whether the client holds a live database handle.
func (c *Client) Connected() bool {
	return c != nil && c.db != nil
}

// Status describes the connection outcome.
func (c *Client) Status() Result {
	if !c.Connected() {
		if c == nil || c.reason == nil {
			return unavailable(ErrNotConfigured)
		}
		return unavailable(c.reason)
	}
	return ok()
}

// Probe runs a minimal owner-scoped query to confirm access.
func (c *Client) Probe(ctx context.Context, ownerID string) Result {
	if !c.Connected() {
		return c.Status()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `SELECT id FROM mood_entries WHERE owner_id = $1 LIMIT 1`, ownerID)
	if err != nil {
		return c.fail("probe", err)
	}
	_ = rows.Close()
	return ok()
}

// SaveMoodEntry stores e under ownerID. Re-saving the same id is a no-op.
func (c *Client) SaveMoodEntry(ctx context.Context, ownerID string, e mood.Entry) Result {
	if !c.Connected() {
		return c.Status()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO mood_entries (id, owner_id, mood, note, timestamp, date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, ownerID, e.Mood, e.Note, e.Timestamp, e.Date)
	if err != nil {
		return c.fail("save mood entry", err)
	}
	return ok()
}

// RecentMoodEntries returns up to limit entries of ownerID, newest first.
func (c *Client) RecentMoodEntries(ctx context.Context, ownerID string, limit int) ([]mood.Entry, Result) {
	if !c.Connected() {
		return nil, c.Status()
	}
	if limit <= 0 {
		limit = 1
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, mood, note, timestamp, date
		 FROM mood_entries
		 WHERE owner_id = $1
		 ORDER BY timestamp DESC
		 LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, c.fail("query mood entries", err)
	}
	defer rows.Close()

	entries := make([]mood.Entry, 0, limit)
	for rows.Next() {
		var e mood.Entry
		if err := rows.Scan(&e.ID, &e.Mood, &e.Note, &e.Timestamp, &e.Date); err != nil {
			return nil, c.fail("scan mood entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, c.fail("iterate mood entries", err)
	}
	return entries, ok()
}

// DeleteMoodEntry removes one entry of ownerID.
func (c *Client) DeleteMoodEntry(ctx context.Context, ownerID, id string) Result {
	if !c.Connected() {
		return c.Status()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE owner_id = $1 AND id = $2`, ownerID, id); err != nil {
		return c.fail("delete mood entry", err)
	}
	return ok()
}

// DeleteOwnerEntries removes every entry of ownerID.
func (c *Client) DeleteOwnerEntries(ctx context.Context, ownerID string) Result {
	if !c.Connected() {
		return c.Status()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE owner_id = $1`, ownerID); err != nil {
		return c.fail("delete owner entries", err)
	}
	return ok()
}

// Close releases the database handle.
func (c *Client) Close() error {
	if !c.Connected() {
		return nil
	}
	return c.db.Close()
}

func (c *Client) fail(op string, err error) Result {
	c.log.Warn().Err(err).Str("op", op).Msg("mirror unavailable")
	return unavailable(fmt.Errorf("%s: %w", op, err))
}
