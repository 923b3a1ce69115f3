// Package tablesearch finds and navigates occurrences of a search term in
// the rendered cells of a table.
//
// A Finder scans the grid in row batches driven by its caller, so a large
// table never blocks the UI loop. Each scan carries a generation number;
// batches from a superseded scan are dropped.
package tablesearch

import "errors"

var (
	ErrInvalidRowsCount = errors.New("tablesearch: rows count must not be negative")
	ErrNoRenderer       = errors.New("tablesearch: cell renderer is required")
)

// DefaultBatchSize is the number of rows processed per batch when none is set.
const DefaultBatchSize = 200

// RowMatches aggregates the occurrences found in one row.
// RowMatchesCount is always the sum of MatchesCountPerColumnID.
type RowMatches struct {
	RowIndex                int            `json:"rowIndex"`
	RowMatchesCount         int            `json:"rowMatchesCount"`
	MatchesCountPerColumnID map[string]int `json:"matchesCountPerColumnId"`
}

// ActiveMatch identifies one occurrence. MatchIndexWithinCell is 0-based,
// MatchPosition is the 1-based rank across the whole scan.
type ActiveMatch struct {
	RowIndex             int    `json:"rowIndex" toml:"row_index"`
	ColumnID             string `json:"columnId" toml:"column_id"`
	MatchIndexWithinCell int    `json:"matchIndexWithinCell" toml:"match_index_within_cell"`
	MatchPosition        int    `json:"matchPosition" toml:"match_position"`
}

// SameCell reports whether m and o point at the same occurrence,
// ignoring MatchPosition.
func (m ActiveMatch) SameCell(o ActiveMatch) bool {
	return m.RowIndex == o.RowIndex && m.ColumnID == o.ColumnID &&
		m.MatchIndexWithinCell == o.MatchIndexWithinCell
}

// RestorableState is the part of a search that survives a restart.
type RestorableState struct {
	SearchTerm  string       `json:"searchTerm,omitempty" toml:"search_term,omitempty"`
	ActiveMatch *ActiveMatch `json:"activeMatch,omitempty" toml:"active_match,omitempty"`
}

// IsZero reports whether there is nothing to restore.
func (s RestorableState) IsZero() bool {
	return s.SearchTerm == "" && s.ActiveMatch == nil
}

// State is a snapshot of the finder.
// MatchesCount stays nil until the scan finishes.
type State struct {
	Term                string
	MatchesList         []RowMatches
	MatchesCount        *int
	ActiveMatchPosition *int
	Columns             []string
	IsProcessing        bool
}

// Progress is reported after every batch.
type Progress struct {
	Generation    uint64
	RowsProcessed int
	RowsTotal     int
	MatchesFound  int
	Done          bool
}

// CellProps is passed to the renderer for each cell.
type CellProps struct {
	RowIndex int
	ColumnID string
	Term     string

	// ActiveMatch is set when the renderer should mark the active occurrence.
	ActiveMatch *ActiveMatch

	// OnHighlightsCountFound must be called once with the number of
	// occurrences the renderer highlighted in the cell.
	OnHighlightsCountFound func(count int)
}

// CellRenderer renders a cell and reports how many occurrences of the term
// it highlighted. Counts come from the renderer, not from raw row data,
// because the displayed text is formatted.
type CellRenderer interface {
	RenderCell(props CellProps) (string, error)
}

// CellRendererFunc adapts a function to CellRenderer.
type CellRendererFunc func(props CellProps) (string, error)

// RenderCell calls fn(props).
func (fn CellRendererFunc) RenderCell(props CellProps) (string, error) {
	return fn(props)
}
