// Package highlight renders grid cells with search occurrences marked and
// reports the number of occurrences to the finder.
package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
)

// Renderer implements tablesearch.CellRenderer over a grid.
type Renderer struct {
	grid      *grid.Grid
	formatter *grid.Formatter
	opts      tablesearch.MatchOptions
	plain     bool

	match  lipgloss.Style
	active lipgloss.Style
}

// New creates a renderer. Styles come from the styles package at the time
// of the call.
func New(g *grid.Grid, f *grid.Formatter, opts tablesearch.MatchOptions) *Renderer {
	return &Renderer{
		grid:      g,
		formatter: f,
		opts:      opts,
		plain:     styles.NoColor(),
		match:     styles.MatchStyle(),
		active:    styles.ActiveMatchStyle(),
	}
}

// Plain returns a copy that counts occurrences without adding escapes.
func (r *Renderer) Plain() *Renderer {
	c := *r
	c.plain = true
	return &c
}

// RenderCell renders one cell and calls OnHighlightsCountFound once.
func (r *Renderer) RenderCell(p tablesearch.CellProps) (string, error) {
	text, err := r.grid.Text(p.RowIndex, p.ColumnID, r.formatter)
	if err != nil {
		return "", err
	}

	active := -1
	if m := p.ActiveMatch; m != nil && m.RowIndex == p.RowIndex && m.ColumnID == p.ColumnID {
		active = m.MatchIndexWithinCell
	}

	out, count := r.Highlight(text, p.Term, active)
	if p.OnHighlightsCountFound != nil {
		p.OnHighlightsCountFound(count)
	}
	return out, nil
}

// Highlight marks every occurrence of term in text; the occurrence with
// index active gets the active style. It returns the rendered text and the
// number of occurrences.
func (r *Renderer) Highlight(text, term string, active int) (string, int) {
	text, occ := tablesearch.FindOccurrences(text, term, r.opts)
	if len(occ) == 0 || r.plain {
		return text, len(occ)
	}

	var sb strings.Builder
	sb.Grow(len(text) + len(occ)*16)
	last := 0
	for i, o := range occ {
		sb.WriteString(text[last:o.Start])
		style := r.match
		if i == active {
			style = r.active
		}
		sb.WriteString(style.Render(text[o.Start:o.End]))
		last = o.End
	}
	sb.WriteString(text[last:])
	return sb.String(), len(occ)
}

// Fit truncates a rendered cell to width display columns and pads it, keeping
// escape sequences intact.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := ansi.StringWidth(s)
	if w > width {
		s = ansi.Truncate(s, width, "…")
		w = ansi.StringWidth(s)
	}
	if w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// Window returns width display columns of s starting at column offset,
// used to scroll inside a wide cell so the active match stays visible.
func Window(s string, offset, width int) string {
	if offset <= 0 {
		return Fit(s, width)
	}
	return Fit("…"+ansi.Cut(s, offset, ansi.StringWidth(s)), width)
}

// ScrollOffset returns the column offset that keeps occurrence active of
// term fully visible in a cell of the given width, or 0.
func (r *Renderer) ScrollOffset(text, term string, active, width int) int {
	text, occ := tablesearch.FindOccurrences(text, term, r.opts)
	if active < 0 || active >= len(occ) {
		return 0
	}
	o := occ[active]
	end := runewidth.StringWidth(text[:o.End])
	if end <= width {
		return 0
	}
	// leave room for the leading ellipsis
	return end - width + 1
}
