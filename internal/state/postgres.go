package state

import (
	"context"

	"github.com/imgajeed76/pgrid/internal/db"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/util"
)

// PostgresStore keeps snapshots in the pgrid_search_states table so they
// can be shared between machines.
type PostgresStore struct {
	db *db.DB
}

// OpenPostgres connects to url and makes sure the table exists.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	conn, err := db.Connect(ctx, url)
	if err != nil {
		return nil, util.DatabaseConnectionError(url, err)
	}
	if err := conn.EnsureStatesTable(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return &PostgresStore{db: conn}, nil
}

// Save upserts s.
func (p *PostgresStore) Save(ctx context.Context, s Snapshot) error {
	return p.db.UpsertState(ctx, toRow(s))
}

// Load returns the snapshot for key.
func (p *PostgresStore) Load(ctx context.Context, key string) (Snapshot, error) {
	r, err := p.db.GetState(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	s := fromRow(r)
	if err := s.validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// List returns every valid snapshot, newest first.
func (p *PostgresStore) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := p.db.ListStates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		s := fromRow(r)
		if s.validate() != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Delete removes the snapshot for key.
func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	return p.db.DeleteState(ctx, key)
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	p.db.Close()
	return nil
}

func toRow(s Snapshot) db.SearchStateRow {
	r := db.SearchStateRow{
		Key:        s.Key,
		ID:         s.ID,
		Version:    s.Version,
		Source:     s.Source,
		SearchTerm: s.SearchTerm,
		SavedAt:    s.SavedAt,
	}
	if m := s.ActiveMatch; m != nil {
		row, col, idx, pos := m.RowIndex, m.ColumnID, m.MatchIndexWithinCell, m.MatchPosition
		r.ActiveRow, r.ActiveColumn, r.ActiveIndex, r.ActivePosition = &row, &col, &idx, &pos
	}
	return r
}

func fromRow(r db.SearchStateRow) Snapshot {
	s := Snapshot{
		ID:         r.ID,
		Version:    r.Version,
		Key:        r.Key,
		Source:     r.Source,
		SearchTerm: r.SearchTerm,
		SavedAt:    r.SavedAt,
	}
	if r.ActiveRow != nil && r.ActiveColumn != nil {
		m := tablesearch.ActiveMatch{RowIndex: *r.ActiveRow, ColumnID: *r.ActiveColumn}
		if r.ActiveIndex != nil {
			m.MatchIndexWithinCell = *r.ActiveIndex
		}
		if r.ActivePosition != nil {
			m.MatchPosition = *r.ActivePosition
		}
		s.ActiveMatch = &m
	}
	return s
}
