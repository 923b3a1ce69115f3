package tablesearch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/imgajeed76/pgrid/internal/logging"
)

// Props configures a Finder.
type Props struct {
	Renderer CellRenderer

	// InitialState is replayed on construction: its term is scanned over
	// VisibleColumns and RowsCount and the saved match is looked up again
	// by coordinates once the scan completes.
	InitialState   *RestorableState
	VisibleColumns []string
	RowsCount      int

	OnInitialStateChange  func(RestorableState)
	OnScrollToActiveMatch func(match ActiveMatch, animate bool)
	OnProgress            func(Progress)

	BatchSize int
	Logger    *zerolog.Logger
}

type rowRange struct {
	start, end int
}

// Finder holds the search state for one table. It is not safe for
// concurrent use; the owner drives it from a single goroutine.
type Finder struct {
	renderer   CellRenderer
	onChange   func(RestorableState)
	onScroll   func(ActiveMatch, bool)
	onProgress func(Progress)
	batchSize  int
	log        zerolog.Logger

	state      State
	rowsCount  int
	generation uint64
	queue      []rowRange
	processed  int
	found      int
	stopped    bool

	// restore is looked up when the running scan completes
	restore *ActiveMatch
}

// New creates a Finder. If props carries an initial term, the scan for it
// starts immediately; drive it with ProcessNextBatch(f.Generation()) or Run.
func New(props Props) (*Finder, error) {
	if props.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if props.RowsCount < 0 {
		return nil, ErrInvalidRowsCount
	}

	f := &Finder{
		renderer:   props.Renderer,
		onChange:   props.OnInitialStateChange,
		onScroll:   props.OnScrollToActiveMatch,
		onProgress: props.OnProgress,
		batchSize:  props.BatchSize,
	}
	if f.batchSize <= 0 {
		f.batchSize = DefaultBatchSize
	}
	if props.Logger != nil {
		f.log = *props.Logger
	} else {
		f.log = logging.Component("tablesearch")
	}
	f.state.MatchesList = []RowMatches{}

	if init := props.InitialState; init != nil && init.SearchTerm != "" {
		var restore *ActiveMatch
		if init.ActiveMatch != nil {
			m := *init.ActiveMatch
			restore = &m
		}
		f.start(init.SearchTerm, props.VisibleColumns, props.RowsCount, restore)
	}
	return f, nil
}

// Scan starts a scan for term over the given columns and rows and returns
// its generation. An empty term resets the finder. Calling Scan again with
// the same inputs is a no-op unless that scan was stopped early. When only the columns or rows change, the
// active match is carried over and looked up again after the new scan.
func (f *Finder) Scan(term string, visibleColumns []string, rowsCount int) (uint64, error) {
	if rowsCount < 0 {
		return f.generation, fmt.Errorf("%w: %d", ErrInvalidRowsCount, rowsCount)
	}
	if term == "" {
		f.ResetState()
		return f.generation, nil
	}

	visibleColumns = uniqueColumns(visibleColumns)
	sameTerm := term == f.state.Term
	if sameTerm && !f.stopped && rowsCount == f.rowsCount && slices.Equal(visibleColumns, f.state.Columns) {
		return f.generation, nil
	}

	var restore *ActiveMatch
	if sameTerm {
		if m, ok := f.ActiveMatch(); ok {
			restore = &m
		} else {
			restore = f.restore
		}
	}

	f.start(term, visibleColumns, rowsCount, restore)
	return f.generation, nil
}

func (f *Finder) start(term string, columns []string, rowsCount int, restore *ActiveMatch) {
	columns = uniqueColumns(columns)
	f.generation++
	f.stopped = false
	f.state = State{
		Term:         term,
		MatchesList:  []RowMatches{},
		Columns:      columns,
		IsProcessing: true,
	}
	f.rowsCount = rowsCount
	f.processed = 0
	f.found = 0
	f.restore = restore
	f.queue = f.queue[:0]

	if len(columns) > 0 {
		for start := 0; start < rowsCount; start += f.batchSize {
			f.queue = append(f.queue, rowRange{start: start, end: min(start+f.batchSize, rowsCount)})
		}
	}

	f.log.Debug().
		Uint64("generation", f.generation).
		Str("term", term).
		Int("rows", rowsCount).
		Int("columns", len(columns)).
		Int("batches", len(f.queue)).
		Msg("scan started")

	if len(f.queue) == 0 {
		f.finish()
	}
}

// ProcessNextBatch scans the next row range of the scan identified by
// generation and reports whether that scan is finished. Stale generations
// are ignored and report true.
func (f *Finder) ProcessNextBatch(generation uint64) bool {
	if generation != f.generation || !f.state.IsProcessing {
		f.log.Debug().
			Uint64("generation", generation).
			Uint64("current", f.generation).
			Msg("dropping stale batch")
		return true
	}

	r := f.queue[0]
	f.queue = f.queue[1:]

	for row := r.start; row < r.end; row++ {
		var perColumn map[string]int
		total := 0
		for _, col := range f.state.Columns {
			n := f.countCell(row, col)
			if n == 0 {
				continue
			}
			if perColumn == nil {
				perColumn = make(map[string]int)
			}
			perColumn[col] += n
			total += n
		}
		if total > 0 {
			f.state.MatchesList = append(f.state.MatchesList, RowMatches{
				RowIndex:                row,
				RowMatchesCount:         total,
				MatchesCountPerColumnID: perColumn,
			})
			f.found += total
		}
	}
	f.processed = r.end

	if len(f.queue) == 0 {
		f.finish()
		return true
	}
	f.reportProgress(false)
	return false
}

// countCell renders one cell and returns the count the renderer reported.
// Renderer errors and panics count as zero.
func (f *Finder) countCell(row int, col string) (count int) {
	reported := false
	props := CellProps{
		RowIndex: row,
		ColumnID: col,
		Term:     f.state.Term,
		OnHighlightsCountFound: func(n int) {
			if reported {
				f.log.Debug().Int("row", row).Str("column", col).Int("count", n).
					Msg("ignoring repeated highlight count")
				return
			}
			reported = true
			count = max(n, 0)
		},
	}

	defer func() {
		if r := recover(); r != nil {
			f.log.Warn().Int("row", row).Str("column", col).
				Interface("panic", r).Msg("cell renderer panicked")
			count = 0
		}
	}()

	if _, err := f.renderer.RenderCell(props); err != nil {
		f.log.Warn().Err(err).Int("row", row).Str("column", col).Msg("cell renderer failed")
		return 0
	}
	return count
}

func (f *Finder) finish() {
	total := f.found
	f.state.MatchesCount = &total
	f.state.IsProcessing = false
	f.queue = f.queue[:0]

	f.log.Debug().
		Uint64("generation", f.generation).
		Int("matches", total).
		Int("rows_with_matches", len(f.state.MatchesList)).
		Msg("scan finished")

	f.reportProgress(true)

	restore := f.restore
	f.restore = nil
	switch {
	case restore != nil:
		pos, ok := f.PositionOf(restore.RowIndex, restore.ColumnID, restore.MatchIndexWithinCell)
		if !ok {
			f.log.Debug().Int("row", restore.RowIndex).Str("column", restore.ColumnID).
				Msg("saved match no longer present")
			f.emitChange()
			return
		}
		f.activate(pos, false)
	case total > 0:
		f.activate(1, true)
	default:
		f.emitChange()
	}
}

// Stop cancels the running scan. Rows already scanned are kept and the
// count becomes final.
func (f *Finder) Stop() {
	if !f.state.IsProcessing {
		return
	}
	f.generation++
	f.stopped = true
	f.log.Debug().Int("rows_processed", f.processed).Msg("scan stopped")
	f.finish()
}

// Run drives the current scan to completion, pausing delay between
// batches. Cancelling ctx stops the scan and returns ctx.Err().
func (f *Finder) Run(ctx context.Context, delay time.Duration) error {
	if !f.state.IsProcessing {
		return nil
	}
	generation := f.generation
	for {
		if err := ctx.Err(); err != nil {
			if generation == f.generation {
				f.Stop()
			}
			return err
		}
		if f.ProcessNextBatch(generation) {
			return nil
		}
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// GoToNextMatch moves the active match forward, wrapping to the first.
func (f *Finder) GoToNextMatch() {
	f.step(1)
}

// GoToPrevMatch moves the active match back, wrapping to the last.
func (f *Finder) GoToPrevMatch() {
	f.step(-1)
}

func (f *Finder) step(delta int) {
	if f.state.MatchesCount == nil || *f.state.MatchesCount == 0 {
		return
	}
	n := *f.state.MatchesCount

	var next int
	switch {
	case f.state.ActiveMatchPosition != nil:
		next = (*f.state.ActiveMatchPosition-1+delta+n)%n + 1
	case delta > 0:
		next = 1
	default:
		next = n
	}
	f.activate(next, true)
}

func (f *Finder) activate(pos int, animate bool) {
	match, ok := f.MatchAt(pos)
	if !ok {
		return
	}
	f.state.ActiveMatchPosition = &pos
	if f.onScroll != nil {
		f.onScroll(match, animate)
	}
	f.emitChange()
}

// ResetState clears the search and cancels any running scan.
func (f *Finder) ResetState() {
	if f.state.Term == "" && !f.state.IsProcessing && f.restore == nil {
		return
	}
	f.generation++
	f.stopped = false
	f.state = State{MatchesList: []RowMatches{}}
	f.rowsCount = 0
	f.queue = f.queue[:0]
	f.processed = 0
	f.found = 0
	f.restore = nil
	f.emitChange()
}

func (f *Finder) emitChange() {
	if f.onChange != nil {
		f.onChange(f.Snapshot())
	}
}

func (f *Finder) reportProgress(done bool) {
	if f.onProgress == nil {
		return
	}
	f.onProgress(Progress{
		Generation:    f.generation,
		RowsProcessed: f.processed,
		RowsTotal:     f.rowsCount,
		MatchesFound:  f.found,
		Done:          done,
	})
}

// MatchAt resolves a 1-based position to its coordinates.
func (f *Finder) MatchAt(pos int) (ActiveMatch, bool) {
	if pos < 1 {
		return ActiveMatch{}, false
	}
	seen := 0
	for _, rm := range f.state.MatchesList {
		if pos > seen+rm.RowMatchesCount {
			seen += rm.RowMatchesCount
			continue
		}
		for _, col := range f.state.Columns {
			n := rm.MatchesCountPerColumnID[col]
			if pos <= seen+n {
				return ActiveMatch{
					RowIndex:             rm.RowIndex,
					ColumnID:             col,
					MatchIndexWithinCell: pos - seen - 1,
					MatchPosition:        pos,
				}, true
			}
			seen += n
		}
	}
	return ActiveMatch{}, false
}

// PositionOf returns the 1-based position of the occurrence at the given
// coordinates in the current results.
func (f *Finder) PositionOf(rowIndex int, columnID string, matchIndex int) (int, bool) {
	if matchIndex < 0 {
		return 0, false
	}
	i, found := slices.BinarySearchFunc(f.state.MatchesList, rowIndex, func(rm RowMatches, row int) int {
		return rm.RowIndex - row
	})
	if !found {
		return 0, false
	}

	pos := 0
	for _, rm := range f.state.MatchesList[:i] {
		pos += rm.RowMatchesCount
	}
	rm := f.state.MatchesList[i]
	for _, col := range f.state.Columns {
		n := rm.MatchesCountPerColumnID[col]
		if col == columnID {
			if matchIndex >= n {
				return 0, false
			}
			return pos + matchIndex + 1, true
		}
		pos += n
	}
	return 0, false
}

// ActiveMatch returns the active occurrence, if any.
func (f *Finder) ActiveMatch() (ActiveMatch, bool) {
	if f.state.ActiveMatchPosition == nil {
		return ActiveMatch{}, false
	}
	return f.MatchAt(*f.state.ActiveMatchPosition)
}

// Snapshot returns the restorable part of the state. While a restore is
// still pending the saved match is reported unchanged.
func (f *Finder) Snapshot() RestorableState {
	if f.state.Term == "" {
		return RestorableState{}
	}
	s := RestorableState{SearchTerm: f.state.Term}
	if m, ok := f.ActiveMatch(); ok {
		s.ActiveMatch = &m
	} else if f.restore != nil {
		m := *f.restore
		s.ActiveMatch = &m
	}
	return s
}

// State returns a copy of the current state.
func (f *Finder) State() State {
	s := f.state
	s.MatchesList = slices.Clone(f.state.MatchesList)
	s.Columns = slices.Clone(f.state.Columns)
	if s.MatchesCount != nil {
		n := *s.MatchesCount
		s.MatchesCount = &n
	}
	if s.ActiveMatchPosition != nil {
		p := *s.ActiveMatchPosition
		s.ActiveMatchPosition = &p
	}
	return s
}

// Term returns the term of the current scan.
func (f *Finder) Term() string { return f.state.Term }

// IsProcessing reports whether a scan is running.
func (f *Finder) IsProcessing() bool { return f.state.IsProcessing }

// Generation returns the token of the current scan.
func (f *Finder) Generation() uint64 { return f.generation }

// MatchesCount returns the total count once the scan has finished.
func (f *Finder) MatchesCount() (int, bool) {
	if f.state.MatchesCount == nil {
		return 0, false
	}
	return *f.state.MatchesCount, true
}

// PartialMatchesCount returns the number of matches found so far.
func (f *Finder) PartialMatchesCount() int { return f.found }

// ActiveMatchPosition returns the 1-based active position, if any.
func (f *Finder) ActiveMatchPosition() (int, bool) {
	if f.state.ActiveMatchPosition == nil {
		return 0, false
	}
	return *f.state.ActiveMatchPosition, true
}

// CellMatches returns the number of occurrences recorded for a cell.
func (f *Finder) CellMatches(rowIndex int, columnID string) int {
	i, found := slices.BinarySearchFunc(f.state.MatchesList, rowIndex, func(rm RowMatches, row int) int {
		return rm.RowIndex - row
	})
	if !found {
		return 0
	}
	return f.state.MatchesList[i].MatchesCountPerColumnID[columnID]
}

// uniqueColumns drops repeated column ids, keeping the first of each.
// A column listed twice would count every occurrence twice.
func uniqueColumns(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
