// Package grid holds tabular data loaded from files or queries and turns
// its values into display text.
package grid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Column is one column of a grid. ID is unique within the grid and stable
// for a given header, Name is the header as shown.
type Column struct {
	ID   string
	Name string
}

// Grid is an in-memory table. Rows may be shorter than Columns; missing
// trailing values read as nil.
type Grid struct {
	Source  string
	Title   string
	Columns []Column
	Rows    [][]any
}

// New builds a grid from header names, deriving unique column ids.
func New(source, title string, headers []string, rows [][]any) *Grid {
	return &Grid{
		Source:  source,
		Title:   title,
		Columns: columnsFromHeaders(headers),
		Rows:    rows,
	}
}

func columnsFromHeaders(headers []string) []Column {
	cols := make([]Column, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		id := name
		if id == "" {
			id = "col_" + strconv.Itoa(i+1)
		}
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s_%d", id, n)
		}
		cols[i] = Column{ID: id, Name: name}
	}
	return cols
}

// RowsCount returns the number of data rows.
func (g *Grid) RowsCount() int {
	return len(g.Rows)
}

// ColumnIDs returns the ids of all columns in order.
func (g *Grid) ColumnIDs() []string {
	ids := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		ids[i] = c.ID
	}
	return ids
}

// ColumnNames returns the header names in order.
func (g *Grid) ColumnNames() []string {
	names := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the column with the given id.
func (g *Grid) ColumnIndex(id string) (int, bool) {
	for i, c := range g.Columns {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

// ResolveColumns maps names or ids given by a user to column ids.
// An empty list selects every column. A column named twice is kept once.
func (g *Grid) ResolveColumns(names []string) ([]string, error) {
	if len(names) == 0 {
		return g.ColumnIDs(), nil
	}
	ids := make([]string, 0, len(names))
	for _, n := range names {
		found := false
		for _, c := range g.Columns {
			if c.ID == n || strings.EqualFold(c.Name, n) {
				if !slices.Contains(ids, c.ID) {
					ids = append(ids, c.ID)
				}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown column %q", n)
		}
	}
	return ids, nil
}

// Value returns the raw value at row and column id.
func (g *Grid) Value(row int, columnID string) (any, error) {
	if row < 0 || row >= len(g.Rows) {
		return nil, fmt.Errorf("row %d out of range [0,%d)", row, len(g.Rows))
	}
	col, ok := g.ColumnIndex(columnID)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", columnID)
	}
	values := g.Rows[row]
	if col >= len(values) {
		return nil, nil
	}
	return values[col], nil
}

// Text returns the display text of a cell.
func (g *Grid) Text(row int, columnID string, f *Formatter) (string, error) {
	v, err := g.Value(row, columnID)
	if err != nil {
		return "", err
	}
	return f.Format(v), nil
}

// Strings formats every cell.
func (g *Grid) Strings(f *Formatter) [][]string {
	out := make([][]string, len(g.Rows))
	for i, values := range g.Rows {
		row := make([]string, len(g.Columns))
		for j := range g.Columns {
			var v any
			if j < len(values) {
				v = values[j]
			}
			row[j] = f.Format(v)
		}
		out[i] = row
	}
	return out
}
