// Package state persists the restorable part of a search between sessions.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imgajeed76/pgrid/internal/config"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/util"
)

// CurrentVersion is the snapshot format written by this build.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned for snapshots written by a newer pgrid.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Snapshot is a saved search for one source.
type Snapshot struct {
	ID          string                   `toml:"id" json:"id"`
	Version     int                      `toml:"version" json:"version"`
	Key         string                   `toml:"key" json:"key"`
	Source      string                   `toml:"source" json:"source"`
	SearchTerm  string                   `toml:"search_term" json:"searchTerm"`
	ActiveMatch *tablesearch.ActiveMatch `toml:"active_match,omitempty" json:"activeMatch,omitempty"`
	SavedAt     time.Time                `toml:"saved_at" json:"savedAt"`
}

// NewSnapshot stamps a restorable state for source.
func NewSnapshot(source string, rs tablesearch.RestorableState) Snapshot {
	now := time.Now().UTC().Truncate(time.Second)
	s := Snapshot{
		ID:         util.NewID(now),
		Version:    CurrentVersion,
		Key:        util.SourceKey(source),
		Source:     source,
		SearchTerm: rs.SearchTerm,
		SavedAt:    now,
	}
	if rs.ActiveMatch != nil {
		m := *rs.ActiveMatch
		s.ActiveMatch = &m
	}
	return s
}

// Restorable returns the state to hand to a finder.
func (s Snapshot) Restorable() tablesearch.RestorableState {
	rs := tablesearch.RestorableState{SearchTerm: s.SearchTerm}
	if s.ActiveMatch != nil {
		m := *s.ActiveMatch
		rs.ActiveMatch = &m
	}
	return rs
}

// validate upgrades a decoded snapshot to the current version.
func (s *Snapshot) validate() error {
	switch {
	case s.Version == 0:
		// written before versioning
		s.Version = 1
	case s.Version > CurrentVersion:
		return fmt.Errorf("%w: %d (this build reads up to %d)", ErrUnsupportedVersion, s.Version, CurrentVersion)
	}
	if s.ActiveMatch != nil && (s.ActiveMatch.RowIndex < 0 || s.ActiveMatch.MatchIndexWithinCell < 0) {
		s.ActiveMatch = nil
	}
	// hand-edited files may drop saved_at; the id carries the same time
	if s.SavedAt.IsZero() {
		if t, ok := util.IDTime(s.ID); ok {
			s.SavedAt = t.UTC()
		}
	}
	return nil
}

// Store saves one snapshot per source key.
type Store interface {
	Save(ctx context.Context, s Snapshot) error
	// Load returns util.ErrStateNotFound when nothing is saved for key.
	Load(ctx context.Context, key string) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(""), nil
	case "postgres":
		if cfg.URL == "" {
			return nil, util.NewError("No state database configured").
				WithMessage("state.backend is postgres but state.url is empty").
				WithSuggestion("pgrid config state.url postgres://user@localhost/pgrid")
		}
		return OpenPostgres(ctx, cfg.URL)
	case "none":
		return nopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", util.ErrUnknownBackend, cfg.Backend)
	}
}

// Persist saves rs for source. An empty state removes the saved one.
func Persist(ctx context.Context, store Store, source string, rs tablesearch.RestorableState) error {
	if rs.IsZero() {
		err := store.Delete(ctx, util.SourceKey(source))
		if errors.Is(err, util.ErrStateNotFound) {
			return nil
		}
		return err
	}
	return store.Save(ctx, NewSnapshot(source, rs))
}

// Restore loads the saved state for source. A missing state is not an error.
func Restore(ctx context.Context, store Store, source string) (*tablesearch.RestorableState, error) {
	s, err := store.Load(ctx, util.SourceKey(source))
	if errors.Is(err, util.ErrStateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rs := s.Restorable()
	return &rs, nil
}

// Find resolves a snapshot by source path, key, or id (full or short).
func Find(ctx context.Context, store Store, ref string) (Snapshot, error) {
	if s, err := store.Load(ctx, util.SourceKey(ref)); err == nil {
		return s, nil
	} else if !errors.Is(err, util.ErrStateNotFound) {
		return Snapshot{}, err
	}

	all, err := store.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for _, s := range all {
		if s.Key == ref || s.Source == ref || util.MatchID(s.ID, ref) {
			return s, nil
		}
	}
	return Snapshot{}, util.ErrStateNotFound
}

type nopStore struct{}

func (nopStore) Save(context.Context, Snapshot) error { return nil }
func (nopStore) Load(context.Context, string) (Snapshot, error) {
	return Snapshot{}, util.ErrStateNotFound
}
func (nopStore) List(context.Context) ([]Snapshot, error) { return nil, nil }
func (nopStore) Delete(context.Context, string) error     { return util.ErrStateNotFound }
func (nopStore) Close() error                             { return nil }
