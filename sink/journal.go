package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/navwatch/nav"
)

// JournalSchema creates the navigation journal table.
const JournalSchema = `
CREATE TABLE IF NOT EXISTS navigations (
	event_id   TEXT PRIMARY KEY,
	seq        INTEGER NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	pathname   TEXT NOT NULL,
	search     TEXT NOT NULL DEFAULT '',
	state      TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_navigations_created ON navigations(created_at);
`

// Journal appends every event to an SQLite table. It does not own db.
type Journal struct {
	db *sql.DB
}

// NewJournal ensures the schema exists on db.
func NewJournal(ctx context.Context, db *sql.DB) (*Journal, error) {
	if _, err := db.ExecContext(ctx, JournalSchema); err != nil {
		return nil, fmt.Errorf("journal: schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Send(ctx context.Context, ev nav.Event) error {
	if ev.Snapshot == nil {
		return fmt.Errorf("journal: event %s has no snapshot", ev.ID)
	}
	state, err := json.Marshal(ev.Snapshot.State())
	if err != nil {
		return fmt.Errorf("journal: marshal state: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO navigations (event_id, seq, source, pathname, search, state, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		ev.ID, ev.Seq, ev.Source, ev.Snapshot.Pathname(), ev.Snapshot.Search(), string(state), ev.Timestamp)
	if err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]nav.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT event_id, seq, source, pathname, search, state, created_at
		FROM navigations ORDER BY created_at DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []nav.Event
	for rows.Next() {
		var (
			ev       nav.Event
			loc      nav.Location
			rawState sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Seq, &ev.Source, &loc.Pathname, &loc.Search, &rawState, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		var state any
		if rawState.Valid && rawState.String != "" {
			if err := json.Unmarshal([]byte(rawState.String), &state); err != nil {
				return nil, fmt.Errorf("journal: decode state of %s: %w", ev.ID, err)
			}
		}
		ev.Snapshot = nav.NewSnapshot(state, loc)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close is a no-op: the caller owns the database handle.
func (j *Journal) Close() error { return nil }
