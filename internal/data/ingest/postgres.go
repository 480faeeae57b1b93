package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// PostgresOptions configures a PostgresPoller
type PostgresOptions struct {
	Name      string
	DSN       string
	Table     string
	Interval  time.Duration
	BatchSize int
	// AfterID resumes after a known row id; 0 reads the table from the start
	AfterID int64
}

// Row is one fetched table row, keyed by its serial id
type Row struct {
	ID    int64
	Event model.Event
}

// FetchFunc returns up to limit rows with id greater than afterID, in id order
type FetchFunc func(ctx context.Context, afterID int64, limit int) ([]Row, error)

// PostgresPoller polls a table of feed events by ascending row id. The table
// is expected to look like:
//
//	CREATE TABLE feed_events (
//		id         BIGSERIAL PRIMARY KEY,
//		event_id   TEXT NOT NULL,
//		source     TEXT NOT NULL,
//		channel    TEXT NOT NULL,
//		author     TEXT NOT NULL DEFAULT '',
//		body       TEXT NOT NULL DEFAULT '',
//		media      TEXT NOT NULL DEFAULT 'none',
//		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresPoller struct {
	name     string
	interval time.Duration
	batch    int
	lastID   atomic.Int64
	fetch    FetchFunc
	db       *sql.DB
}

var _ Checkpointer = (*PostgresPoller)(nil)

// NewPostgresPoller opens the database lazily; connection problems surface
// as fetch errors on the first tick and are retried on the next
func NewPostgresPoller(opts PostgresOptions) (*PostgresPoller, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	table := opts.Table
	if table == "" {
		table = "feed_events"
	}
	p := newPoller(opts, tableFetcher(db, table))
	p.db = db
	return p, nil
}

func newPoller(opts PostgresOptions, fetch FetchFunc) *PostgresPoller {
	p := &PostgresPoller{
		name:     opts.Name,
		interval: opts.Interval,
		batch:    opts.BatchSize,
		fetch:    fetch,
	}
	p.lastID.Store(opts.AfterID)
	if p.name == "" {
		p.name = "postgres"
	}
	if p.interval <= 0 {
		p.interval = 5 * time.Second
	}
	if p.batch <= 0 {
		p.batch = 500
	}
	return p
}

func (p *PostgresPoller) Name() string { return p.name }

// Checkpoint is the id of the newest row delivered. Safe to call while Run is active.
func (p *PostgresPoller) Checkpoint() int64 { return p.lastID.Load() }

func (p *PostgresPoller) Run(ctx context.Context, sink Sink) error {
	if p.db != nil {
		defer p.db.Close()
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, sink)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.poll(ctx, sink)
		}
	}
}

// poll drains the table in batches until a short batch comes back
func (p *PostgresPoller) poll(ctx context.Context, sink Sink) {
	for ctx.Err() == nil {
		after := p.lastID.Load()
		rows, err := p.fetch(ctx, after, p.batch)
		if err != nil {
			if ctx.Err() == nil {
				util.LogWarnf("ingest: %s fetch after id %d failed: %v", p.name, after, err)
			}
			return
		}
		for _, row := range rows {
			sink(row.Event)
			p.lastID.Store(row.ID)
		}
		if len(rows) > 0 {
			util.LogDebugf("ingest: %s fetched %d rows, last id %d", p.name, len(rows), p.lastID.Load())
		}
		if len(rows) < p.batch {
			return
		}
	}
}

func fetchQuery(table string) string {
	return fmt.Sprintf(`
		SELECT id, event_id, source, channel, author, body, media, created_at
		FROM %s
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`, pq.QuoteIdentifier(table))
}

func tableFetcher(db *sql.DB, table string) FetchFunc {
	query := fetchQuery(table)
	return func(ctx context.Context, afterID int64, limit int) ([]Row, error) {
		rows, err := db.QueryContext(ctx, query, afterID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query events: %w", err)
		}
		defer rows.Close()

		var out []Row
		for rows.Next() {
			var id int64
			var eventID, source, channel, author, body, media string
			var createdAt time.Time
			if err := rows.Scan(&id, &eventID, &source, &channel, &author, &body, &media, &createdAt); err != nil {
				return nil, fmt.Errorf("failed to scan event row: %w", err)
			}
			out = append(out, Row{ID: id, Event: rowEvent(id, eventID, source, channel, author, body, media, createdAt)})
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating rows: %w", err)
		}
		return out, nil
	}
}

func rowEvent(id int64, eventID, source, channel, author, body, media string, createdAt time.Time) model.Event {
	if eventID == "" {
		eventID = "pg-" + strconv.FormatInt(id, 10)
	}
	return model.Event{
		ID:        eventID,
		Source:    source,
		Channel:   channel,
		Author:    author,
		Body:      body,
		Media:     model.ParseMediaKind(media),
		Timestamp: createdAt,
	}
}
