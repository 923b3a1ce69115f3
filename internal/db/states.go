package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imgajeed76/pgrid/internal/util"
)

// SearchStateRow is one row of pgrid_search_states. The active match
// columns are NULL when no match was active.
type SearchStateRow struct {
	Key            string
	ID             string
	Version        int
	Source         string
	SearchTerm     string
	ActiveRow      *int
	ActiveColumn   *string
	ActiveIndex    *int
	ActivePosition *int
	SavedAt        time.Time
}

const stateColumns = `key, id, version, source, search_term,
	active_row, active_column, active_index, active_position, saved_at`

// EnsureStatesTable creates the search state table if it doesn't exist
func (db *DB) EnsureStatesTable(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pgrid_search_states (
			key             TEXT PRIMARY KEY,
			id              TEXT NOT NULL,
			version         INTEGER NOT NULL DEFAULT 1,
			source          TEXT NOT NULL,
			search_term     TEXT NOT NULL,
			active_row      INTEGER,
			active_column   TEXT,
			active_index    INTEGER,
			active_position INTEGER,
			saved_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
}

// UpsertState stores a state row, replacing the one with the same key
func (db *DB) UpsertState(ctx context.Context, r SearchStateRow) error {
	return db.Exec(ctx, `
		INSERT INTO pgrid_search_states (`+stateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (key) DO UPDATE SET
			id = EXCLUDED.id,
			version = EXCLUDED.version,
			source = EXCLUDED.source,
			search_term = EXCLUDED.search_term,
			active_row = EXCLUDED.active_row,
			active_column = EXCLUDED.active_column,
			active_index = EXCLUDED.active_index,
			active_position = EXCLUDED.active_position,
			saved_at = EXCLUDED.saved_at
	`, r.Key, r.ID, r.Version, r.Source, r.SearchTerm,
		r.ActiveRow, r.ActiveColumn, r.ActiveIndex, r.ActivePosition, r.SavedAt)
}

// GetState retrieves the state row for key
func (db *DB) GetState(ctx context.Context, key string) (SearchStateRow, error) {
	r, err := scanState(db.QueryRow(ctx,
		"SELECT "+stateColumns+" FROM pgrid_search_states WHERE key = $1", key))
	if errors.Is(err, pgx.ErrNoRows) {
		return SearchStateRow{}, util.ErrStateNotFound
	}
	return r, err
}

// ListStates returns all state rows, newest first
func (db *DB) ListStates(ctx context.Context) ([]SearchStateRow, error) {
	rows, err := db.Query(ctx,
		"SELECT "+stateColumns+" FROM pgrid_search_states ORDER BY saved_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchStateRow
	for rows.Next() {
		r, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteState removes the state row for key
func (db *DB) DeleteState(ctx context.Context, key string) error {
	pool, err := db.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, "DELETE FROM pgrid_search_states WHERE key = $1", key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return util.ErrStateNotFound
	}
	return nil
}

func scanState(row pgx.Row) (SearchStateRow, error) {
	var r SearchStateRow
	err := row.Scan(&r.Key, &r.ID, &r.Version, &r.Source, &r.SearchTerm,
		&r.ActiveRow, &r.ActiveColumn, &r.ActiveIndex, &r.ActivePosition, &r.SavedAt)
	return r, err
}
