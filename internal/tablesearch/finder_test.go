package tablesearch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// table is an in-memory grid used as the cell source in tests.
type table struct {
	columns []string
	rows    [][]string
	calls   int
}

func newTable(columns []string, rows ...[]string) *table {
	return &table{columns: columns, rows: rows}
}

func (tb *table) renderer() CellRenderer {
	inner := TextRenderer(func(row int, col string) (string, error) {
		tb.calls++
		if row >= len(tb.rows) {
			return "", fmt.Errorf("row %d out of range", row)
		}
		for i, c := range tb.columns {
			if c == col {
				return tb.rows[row][i], nil
			}
		}
		return "", fmt.Errorf("unknown column %s", col)
	}, MatchOptions{CaseSensitive: true})
	return inner
}

type recorder struct {
	scrolls  []ActiveMatch
	animated []bool
	changes  []RestorableState
	progress []Progress
}

func (r *recorder) props(renderer CellRenderer) Props {
	nop := zerolog.Nop()
	return Props{
		Renderer: renderer,
		OnScrollToActiveMatch: func(m ActiveMatch, animate bool) {
			r.scrolls = append(r.scrolls, m)
			r.animated = append(r.animated, animate)
		},
		OnInitialStateChange: func(s RestorableState) { r.changes = append(r.changes, s) },
		OnProgress:           func(p Progress) { r.progress = append(r.progress, p) },
		BatchSize:            2,
		Logger:               &nop,
	}
}

func runScan(t *testing.T, f *Finder, term string, columns []string, rows int) {
	t.Helper()
	_, err := f.Scan(term, columns, rows)
	require.NoError(t, err)
	require.NoError(t, f.Run(context.Background(), 0))
}

func position(t *testing.T, f *Finder) int {
	t.Helper()
	pos, ok := f.ActiveMatchPosition()
	require.True(t, ok, "expected an active match")
	return pos
}

func TestScanScenario(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"abab"}, []string{"xab"}, []string{"zzz"})
	rec := &recorder{}
	f, err := New(rec.props(tb.renderer()))
	require.NoError(t, err)

	runScan(t, f, "ab", []string{"c"}, 3)

	st := f.State()
	assert.Equal(t, []RowMatches{
		{RowIndex: 0, RowMatchesCount: 2, MatchesCountPerColumnID: map[string]int{"c": 2}},
		{RowIndex: 1, RowMatchesCount: 1, MatchesCountPerColumnID: map[string]int{"c": 1}},
	}, st.MatchesList)
	require.NotNil(t, st.MatchesCount)
	assert.Equal(t, 3, *st.MatchesCount)
	assert.False(t, st.IsProcessing)

	// first match becomes active and is scrolled to with animation
	assert.Equal(t, 1, position(t, f))
	require.Len(t, rec.scrolls, 1)
	assert.Equal(t, ActiveMatch{RowIndex: 0, ColumnID: "c", MatchIndexWithinCell: 0, MatchPosition: 1}, rec.scrolls[0])
	assert.True(t, rec.animated[0])
	assert.Equal(t, "ab", rec.changes[len(rec.changes)-1].SearchTerm)
}

func TestEmptyTermDoesNotScan(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"abab"})
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	_, err = f.Scan("", []string{"c"}, 1)
	require.NoError(t, err)

	st := f.State()
	assert.Nil(t, st.MatchesCount)
	assert.Empty(t, st.MatchesList)
	assert.False(t, st.IsProcessing)
	assert.Nil(t, st.ActiveMatchPosition)
	assert.Zero(t, tb.calls)
}

func TestPreconditions(t *testing.T) {
	_, err := New(Props{})
	assert.ErrorIs(t, err, ErrNoRenderer)

	tb := newTable([]string{"c"})
	_, err = New(Props{Renderer: tb.renderer(), RowsCount: -1})
	assert.ErrorIs(t, err, ErrInvalidRowsCount)

	f, err := New(Props{Renderer: tb.renderer()})
	require.NoError(t, err)
	_, err = f.Scan("a", []string{"c"}, -3)
	assert.ErrorIs(t, err, ErrInvalidRowsCount)
	assert.False(t, f.IsProcessing())
}

func TestCountInvariantsAndOrderedPrefixes(t *testing.T) {
	cols := []string{"a", "b", "c"}
	var rows [][]string
	for i := 0; i < 9; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("x%dx", i),
			fmt.Sprintf("%d-x-x", i%3),
			map[bool]string{true: "xxx", false: "y"}[i%2 == 0],
		})
	}
	tb := newTable(cols, rows...)
	rec := &recorder{}
	f, err := New(rec.props(tb.renderer()))
	require.NoError(t, err)

	gen, err := f.Scan("x", cols, len(rows))
	require.NoError(t, err)

	var snapshots [][]RowMatches
	for !f.ProcessNextBatch(gen) {
		assert.True(t, f.IsProcessing())
		_, known := f.MatchesCount()
		assert.False(t, known, "count is unknown until the scan finishes")
		snapshots = append(snapshots, f.State().MatchesList)
	}

	final := f.State()
	total := 0
	prevRow := -1
	for _, rm := range final.MatchesList {
		sum := 0
		for _, n := range rm.MatchesCountPerColumnID {
			sum += n
		}
		assert.Equal(t, rm.RowMatchesCount, sum)
		assert.Greater(t, rm.RowIndex, prevRow)
		prevRow = rm.RowIndex
		total += rm.RowMatchesCount
	}
	require.NotNil(t, final.MatchesCount)
	assert.Equal(t, total, *final.MatchesCount)
	assert.Equal(t, 2*9+2*9+3*5, total)

	for _, partial := range snapshots {
		require.LessOrEqual(t, len(partial), len(final.MatchesList))
		assert.Equal(t, final.MatchesList[:len(partial)], partial)
	}

	last := rec.progress[len(rec.progress)-1]
	assert.True(t, last.Done)
	assert.Equal(t, 9, last.RowsProcessed)
	assert.Equal(t, total, last.MatchesFound)
}

func TestNavigationWrapsAndRoundTrips(t *testing.T) {
	tb := newTable([]string{"a", "b"},
		[]string{"ab", "abab"},
		[]string{"zz", "zz"},
		[]string{"xab", "z"},
	)
	rec := &recorder{}
	f, err := New(rec.props(tb.renderer()))
	require.NoError(t, err)
	runScan(t, f, "ab", []string{"a", "b"}, 3)

	count, ok := f.MatchesCount()
	require.True(t, ok)
	require.Equal(t, 4, count)

	for start := 1; start <= count; start++ {
		f.state.ActiveMatchPosition = &start
		f.GoToNextMatch()
		f.GoToPrevMatch()
		assert.Equal(t, start, position(t, f))
		f.GoToPrevMatch()
		f.GoToNextMatch()
		assert.Equal(t, start, position(t, f))
	}

	last := count
	f.state.ActiveMatchPosition = &last
	f.GoToNextMatch()
	assert.Equal(t, 1, position(t, f))
	f.GoToPrevMatch()
	assert.Equal(t, count, position(t, f))

	m, ok := f.ActiveMatch()
	require.True(t, ok)
	assert.Equal(t, ActiveMatch{RowIndex: 2, ColumnID: "a", MatchIndexWithinCell: 0, MatchPosition: 4}, m)
	assert.True(t, rec.animated[len(rec.animated)-1])
}

func TestNavigationNoMatches(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"zzz"})
	rec := &recorder{}
	f, err := New(rec.props(tb.renderer()))
	require.NoError(t, err)

	f.GoToNextMatch()
	runScan(t, f, "ab", []string{"c"}, 1)
	f.GoToNextMatch()
	f.GoToPrevMatch()

	_, ok := f.ActiveMatchPosition()
	assert.False(t, ok)
	assert.Empty(t, rec.scrolls)
	count, _ := f.MatchesCount()
	assert.Zero(t, count)
}

func TestNavigationWhileProcessingIsNoop(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"a"}, []string{"a"}, []string{"a"})
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	gen, err := f.Scan("a", []string{"c"}, 3)
	require.NoError(t, err)
	require.False(t, f.ProcessNextBatch(gen))

	f.GoToNextMatch()
	_, ok := f.ActiveMatchPosition()
	assert.False(t, ok)
}

func TestMatchAtPositionOfRoundTrip(t *testing.T) {
	tb := newTable([]string{"a", "b"},
		[]string{"aa", "a"},
		[]string{"", "aaa"},
	)
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)
	runScan(t, f, "a", []string{"a", "b"}, 2)

	count, _ := f.MatchesCount()
	require.Equal(t, 6, count)
	for pos := 1; pos <= count; pos++ {
		m, ok := f.MatchAt(pos)
		require.True(t, ok)
		assert.Equal(t, pos, m.MatchPosition)
		got, ok := f.PositionOf(m.RowIndex, m.ColumnID, m.MatchIndexWithinCell)
		require.True(t, ok)
		assert.Equal(t, pos, got)
	}

	_, ok := f.MatchAt(0)
	assert.False(t, ok)
	_, ok = f.MatchAt(count + 1)
	assert.False(t, ok)
	_, ok = f.PositionOf(1, "a", 0)
	assert.False(t, ok)
	_, ok = f.PositionOf(0, "b", 1)
	assert.False(t, ok)

	assert.Equal(t, 3, f.CellMatches(1, "b"))
	assert.Zero(t, f.CellMatches(1, "a"))
}

func TestNewScanSupersedesInFlightScan(t *testing.T) {
	tb := newTable([]string{"c"},
		[]string{"aa"}, []string{"b"}, []string{"ab"}, []string{"bb"}, []string{"a"},
	)
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	genA, err := f.Scan("a", []string{"c"}, 5)
	require.NoError(t, err)
	require.False(t, f.ProcessNextBatch(genA))

	genB, err := f.Scan("b", []string{"c"}, 5)
	require.NoError(t, err)
	assert.Greater(t, genB, genA)

	// batches still queued for the old scan are dropped
	assert.True(t, f.ProcessNextBatch(genA))
	assert.Empty(t, f.State().MatchesList)
	assert.True(t, f.IsProcessing())

	require.NoError(t, f.Run(context.Background(), 0))
	st := f.State()
	assert.Equal(t, "b", st.Term)
	rows := make([]int, 0, len(st.MatchesList))
	for _, rm := range st.MatchesList {
		rows = append(rows, rm.RowIndex)
	}
	assert.Equal(t, []int{1, 2, 3}, rows)
	assert.Equal(t, 4, *st.MatchesCount)
}

func TestScanIsIdempotent(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"a"}, []string{"a"})
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	runScan(t, f, "a", []string{"c"}, 2)
	calls := tb.calls
	gen := f.Generation()

	again, err := f.Scan("a", []string{"c"}, 2)
	require.NoError(t, err)
	assert.Equal(t, gen, again)
	assert.Equal(t, calls, tb.calls)
}

func TestRepeatedColumnsCountOnce(t *testing.T) {
	tb := newTable([]string{"a"}, []string{"xab"})
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	runScan(t, f, "ab", []string{"a", "a"}, 1)

	st := f.State()
	require.NotNil(t, st.MatchesCount)
	assert.Equal(t, 1, *st.MatchesCount)
	assert.Equal(t, []string{"a"}, st.Columns)
	assert.Equal(t, []RowMatches{
		{RowIndex: 0, RowMatchesCount: 1, MatchesCountPerColumnID: map[string]int{"a": 1}},
	}, st.MatchesList)
	_, ok := f.MatchAt(2)
	assert.False(t, ok)

	calls := tb.calls
	_, err = f.Scan("ab", []string{"a"}, 1)
	require.NoError(t, err)
	assert.Equal(t, calls, tb.calls, "same columns after dropping repeats")
}

func TestRendererFailuresCountAsZero(t *testing.T) {
	renderer := CellRendererFunc(func(p CellProps) (string, error) {
		switch p.RowIndex {
		case 0:
			return "", errors.New("broken cell")
		case 1:
			panic("renderer exploded")
		case 2:
			p.OnHighlightsCountFound(2)
			p.OnHighlightsCountFound(5)
		case 3:
			// never reports
		default:
			p.OnHighlightsCountFound(1)
		}
		return "", nil
	})
	f, err := New((&recorder{}).props(renderer))
	require.NoError(t, err)

	runScan(t, f, "x", []string{"c"}, 5)

	st := f.State()
	require.NotNil(t, st.MatchesCount)
	assert.Equal(t, 3, *st.MatchesCount)
	require.Len(t, st.MatchesList, 2)
	assert.Equal(t, 2, st.MatchesList[0].RowIndex)
	assert.Equal(t, 2, st.MatchesList[0].RowMatchesCount)
	assert.Equal(t, 4, st.MatchesList[1].RowIndex)
}

func TestRestoreByCoordinates(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"zzz"}, []string{"ab ab"}, []string{"xab"})
	rec := &recorder{}
	props := rec.props(tb.renderer())
	props.InitialState = &RestorableState{
		SearchTerm:  "ab",
		ActiveMatch: &ActiveMatch{RowIndex: 1, ColumnID: "c", MatchIndexWithinCell: 1, MatchPosition: 7},
	}
	props.VisibleColumns = []string{"c"}
	props.RowsCount = 3

	f, err := New(props)
	require.NoError(t, err)
	assert.True(t, f.IsProcessing())
	assert.Equal(t, "ab", f.Term())

	// before the scan completes the saved match is still reported
	snap := f.Snapshot()
	require.NotNil(t, snap.ActiveMatch)
	assert.Equal(t, 1, snap.ActiveMatch.RowIndex)

	require.NoError(t, f.Run(context.Background(), 0))

	assert.Equal(t, 2, position(t, f))
	require.Len(t, rec.scrolls, 1)
	assert.False(t, rec.animated[0], "restoring does not animate")
	assert.Equal(t, ActiveMatch{RowIndex: 1, ColumnID: "c", MatchIndexWithinCell: 1, MatchPosition: 2}, rec.scrolls[0])
}

func TestRestoreTargetGone(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"ab"}, []string{"ab"})
	rec := &recorder{}
	props := rec.props(tb.renderer())
	props.InitialState = &RestorableState{
		SearchTerm:  "ab",
		ActiveMatch: &ActiveMatch{RowIndex: 40, ColumnID: "c", MatchIndexWithinCell: 0, MatchPosition: 41},
	}
	props.VisibleColumns = []string{"c"}
	props.RowsCount = 2

	f, err := New(props)
	require.NoError(t, err)
	require.NotPanics(t, func() { require.NoError(t, f.Run(context.Background(), 0)) })

	_, ok := f.ActiveMatchPosition()
	assert.False(t, ok)
	assert.Empty(t, rec.scrolls)
	assert.Equal(t, RestorableState{SearchTerm: "ab"}, f.Snapshot())

	// with no active match, next starts at the first and prev at the last
	f.GoToNextMatch()
	assert.Equal(t, 1, position(t, f))
	f.state.ActiveMatchPosition = nil
	f.GoToPrevMatch()
	assert.Equal(t, 2, position(t, f))
}

func TestColumnChangeKeepsActiveMatch(t *testing.T) {
	tb := newTable([]string{"a", "b"}, []string{"ab", "ab"}, []string{"ab", "x"})
	rec := &recorder{}
	f, err := New(rec.props(tb.renderer()))
	require.NoError(t, err)

	runScan(t, f, "ab", []string{"a", "b"}, 2)
	f.GoToNextMatch()
	m, ok := f.ActiveMatch()
	require.True(t, ok)
	require.Equal(t, "b", m.ColumnID)
	require.Equal(t, 2, m.MatchPosition)

	runScan(t, f, "ab", []string{"b", "a"}, 2)

	m, ok = f.ActiveMatch()
	require.True(t, ok)
	assert.Equal(t, 0, m.RowIndex)
	assert.Equal(t, "b", m.ColumnID)
	assert.Equal(t, 1, m.MatchPosition)
	assert.False(t, rec.animated[len(rec.animated)-1])
}

func TestResetState(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"a"}, []string{"a"}, []string{"a"})
	rec := &recorder{}
	f, err := New(rec.props(tb.renderer()))
	require.NoError(t, err)

	gen, err := f.Scan("a", []string{"c"}, 3)
	require.NoError(t, err)
	require.False(t, f.ProcessNextBatch(gen))

	f.ResetState()
	changes := len(rec.changes)
	f.ResetState()
	assert.Len(t, rec.changes, changes, "second reset is a no-op")
	assert.Equal(t, RestorableState{}, rec.changes[changes-1])

	assert.True(t, f.ProcessNextBatch(gen))
	st := f.State()
	assert.Equal(t, "", st.Term)
	assert.Empty(t, st.MatchesList)
	assert.Nil(t, st.MatchesCount)
	assert.Nil(t, st.ActiveMatchPosition)
	assert.False(t, st.IsProcessing)
	assert.True(t, f.Snapshot().IsZero())
}

func TestStopKeepsPartialResults(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"a"}, []string{"a"}, []string{"a"}, []string{"a"})
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	gen, err := f.Scan("a", []string{"c"}, 4)
	require.NoError(t, err)
	require.False(t, f.ProcessNextBatch(gen))
	f.Stop()

	count, ok := f.MatchesCount()
	require.True(t, ok)
	assert.Equal(t, 2, count)
	assert.False(t, f.IsProcessing())
	assert.True(t, f.ProcessNextBatch(gen))
	assert.Equal(t, 1, position(t, f))
}

func TestScanAfterStopRestarts(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"a"}, []string{"a"}, []string{"a"}, []string{"a"})
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	gen, err := f.Scan("a", []string{"c"}, 4)
	require.NoError(t, err)
	require.False(t, f.ProcessNextBatch(gen))
	f.Stop()
	count, _ := f.MatchesCount()
	require.Equal(t, 2, count)

	next, err := f.Scan("a", []string{"c"}, 4)
	require.NoError(t, err)
	assert.Greater(t, next, gen)
	assert.True(t, f.IsProcessing())
	require.NoError(t, f.Run(context.Background(), 0))

	count, ok := f.MatchesCount()
	require.True(t, ok)
	assert.Equal(t, 4, count)
	assert.Equal(t, 1, position(t, f), "active match carried over from the stopped scan")

	calls := tb.calls
	again, err := f.Scan("a", []string{"c"}, 4)
	require.NoError(t, err)
	assert.Equal(t, f.Generation(), again)
	assert.Equal(t, calls, tb.calls, "a completed scan is not repeated")
}

func TestRunCancelled(t *testing.T) {
	tb := newTable([]string{"c"}, []string{"a"}, []string{"a"}, []string{"a"})
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)
	_, err = f.Scan("a", []string{"c"}, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.IsProcessing())
	count, ok := f.MatchesCount()
	assert.True(t, ok)
	assert.Zero(t, count)
}

func TestNoColumnsFinishesImmediately(t *testing.T) {
	tb := newTable(nil)
	f, err := New((&recorder{}).props(tb.renderer()))
	require.NoError(t, err)

	_, err = f.Scan("a", nil, 10)
	require.NoError(t, err)
	assert.False(t, f.IsProcessing())
	count, ok := f.MatchesCount()
	assert.True(t, ok)
	assert.Zero(t, count)
	assert.Zero(t, tb.calls)
}
