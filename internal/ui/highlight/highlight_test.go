package highlight

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
)

func testGrid() *grid.Grid {
	return grid.New("t", "t", []string{"name", "note"}, [][]any{
		{"abab", "xab"},
		{"zzz", nil},
	})
}

func TestRenderCellReportsCount(t *testing.T) {
	r := New(testGrid(), grid.DefaultFormatter(), tablesearch.MatchOptions{CaseSensitive: true})

	var counts []int
	out, err := r.RenderCell(tablesearch.CellProps{
		RowIndex:               0,
		ColumnID:               "name",
		Term:                   "ab",
		OnHighlightsCountFound: func(n int) { counts = append(counts, n) },
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, counts)
	assert.Equal(t, "abab", ansi.Strip(out))

	_, err = r.RenderCell(tablesearch.CellProps{RowIndex: 5, ColumnID: "name", Term: "ab"})
	assert.Error(t, err)
}

func TestRendererDrivesFinder(t *testing.T) {
	g := testGrid()
	r := New(g, grid.DefaultFormatter(), tablesearch.MatchOptions{}).Plain()

	f, err := tablesearch.New(tablesearch.Props{Renderer: r})
	require.NoError(t, err)
	gen, err := f.Scan("AB", g.ColumnIDs(), g.RowsCount())
	require.NoError(t, err)
	for !f.ProcessNextBatch(gen) {
	}

	count, ok := f.MatchesCount()
	require.True(t, ok)
	assert.Equal(t, 3, count)
	assert.Equal(t, 2, f.CellMatches(0, "name"))
	assert.Equal(t, 1, f.CellMatches(0, "note"))
}

func TestHighlightPlain(t *testing.T) {
	r := New(testGrid(), grid.DefaultFormatter(), tablesearch.MatchOptions{}).Plain()
	out, n := r.Highlight("Abc abc", "abc", 1)
	assert.Equal(t, "Abc abc", out)
	assert.Equal(t, 2, n)
}

func TestHighlightKeepsText(t *testing.T) {
	r := New(testGrid(), grid.DefaultFormatter(), tablesearch.MatchOptions{})
	r.plain = false
	out, n := r.Highlight("one two one", "one", 0)
	assert.Equal(t, 2, n)
	assert.Equal(t, "one two one", ansi.Strip(out))
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", Fit("ab", 4))
	assert.Equal(t, "abc…", Fit("abcdef", 4))
	assert.Equal(t, "", Fit("abc", 0))
	assert.Equal(t, 4, ansi.StringWidth(Fit("日本語です", 4)))
}

func TestScrollOffset(t *testing.T) {
	r := New(testGrid(), grid.DefaultFormatter(), tablesearch.MatchOptions{})
	text := strings.Repeat("x", 20) + "needle"

	assert.Zero(t, r.ScrollOffset(text, "needle", -1, 10))
	assert.Zero(t, r.ScrollOffset("needle", "needle", 0, 10))

	off := r.ScrollOffset(text, "needle", 0, 10)
	assert.Equal(t, 17, off)
	assert.Equal(t, "…xxxneedle", Window(text, off, 10))
}
