package table

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/ui/highlight"
)

// searchSession is shared by every copy of the model. The finder reports
// through callbacks, which land here and are consumed by Update.
type searchSession struct {
	finder   *tablesearch.Finder
	renderer *highlight.Renderer
	delay    time.Duration

	snapshot tablesearch.RestorableState
	progress tablesearch.Progress
	scroll   *scrollRequest
}

type scrollRequest struct {
	match   tablesearch.ActiveMatch
	animate bool
}

// scanBatchMsg asks Update to scan the next batch of a scan. Messages of a
// superseded scan carry an old generation and are dropped by the finder.
type scanBatchMsg struct {
	generation uint64
}

func newSearchSession(opts ViewerOptions, f *grid.Formatter, columns []string) (*searchSession, error) {
	s := &searchSession{
		renderer: highlight.New(opts.Grid, f, opts.MatchOptions),
		delay:    opts.BatchDelay,
	}
	if opts.InitialState != nil {
		s.snapshot = *opts.InitialState
	}

	finder, err := tablesearch.New(tablesearch.Props{
		// counting only, the view renders highlights itself
		Renderer:       s.renderer.Plain(),
		InitialState:   opts.InitialState,
		VisibleColumns: columns,
		RowsCount:      opts.Grid.RowsCount(),
		OnInitialStateChange: func(state tablesearch.RestorableState) {
			s.snapshot = state
		},
		OnScrollToActiveMatch: func(match tablesearch.ActiveMatch, animate bool) {
			s.scroll = &scrollRequest{match: match, animate: animate}
		},
		OnProgress: func(p tablesearch.Progress) {
			s.progress = p
		},
		BatchSize: opts.BatchSize,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	s.finder = finder
	return s, nil
}

func (m tableModel) nextBatch(generation uint64) tea.Cmd {
	if m.search.delay <= 0 {
		return func() tea.Msg { return scanBatchMsg{generation: generation} }
	}
	return tea.Tick(m.search.delay, func(time.Time) tea.Msg {
		return scanBatchMsg{generation: generation}
	})
}

func (m tableModel) handleBatch(msg scanBatchMsg) (tea.Model, tea.Cmd) {
	done := m.search.finder.ProcessNextBatch(msg.generation)
	scroll := m.applyScroll()
	if done {
		return m, scroll
	}
	return m, tea.Batch(m.nextBatch(msg.generation), scroll)
}

// scan starts a scan for the current input over the visible columns.
func (m *tableModel) scan() tea.Cmd {
	term := m.searchInput.Value()
	wasProcessing := m.search.finder.IsProcessing()
	before := m.search.finder.Generation()

	gen, err := m.search.finder.Scan(term, m.visibleColumnIDs(), len(m.rows))
	if err != nil {
		return m.setStatus(fmt.Sprintf("search error: %s", err))
	}
	if gen == before || !m.search.finder.IsProcessing() {
		return m.applyScroll()
	}

	cmds := []tea.Cmd{m.nextBatch(gen)}
	if !wasProcessing {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// rescan repeats the current search after the visible columns changed.
func (m *tableModel) rescan() tea.Cmd {
	if m.search.finder.Term() == "" {
		return nil
	}
	return m.scan()
}

func (m *tableModel) clearSearch() {
	m.searchInput.SetValue("")
	m.search.finder.ResetState()
	m.search.scroll = nil
}

// updateSearch handles keys while the search bar has focus. Every edit
// restarts the scan; the previous one is superseded.
func (m tableModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = tableModeNormal
		m.searchInput.Blur()
		m.clearSearch()
		return m, nil
	case tea.KeyEnter:
		m.mode = tableModeNormal
		m.searchInput.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	if key.Matches(msg, searchKeys.Next) {
		m.search.finder.GoToNextMatch()
		return m, m.applyScroll()
	}
	if key.Matches(msg, searchKeys.Prev) {
		m.search.finder.GoToPrevMatch()
		return m, m.applyScroll()
	}

	var cmd tea.Cmd
	prev := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == prev {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.scan())
}

var searchKeys = struct {
	Next key.Binding
	Prev key.Binding
}{
	Next: key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next match")),
	Prev: key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "prev match")),
}

// applyScroll moves the selection to the match the finder asked for.
func (m *tableModel) applyScroll() tea.Cmd {
	req := m.search.scroll
	if req == nil || !m.ready {
		return nil
	}
	m.search.scroll = nil

	col, ok := m.grid.ColumnIndex(req.match.ColumnID)
	if !ok || req.match.RowIndex >= len(m.rows) {
		return nil
	}
	m.cursor = req.match.RowIndex
	m.colCursor = col

	targetY := m.scrollY
	visible := m.visibleRowCount()
	if m.cursor < m.scrollY || m.cursor >= m.scrollY+visible {
		// center the match
		targetY = m.cursor - visible/2
	}
	targetX := m.scrollX
	if m.getColStartX(col) < m.scrollX || m.getColEndX(col) > m.scrollX+m.viewportWidth() {
		targetX = m.getColStartX(col)
	}

	if req.animate {
		return m.startAnimation(targetX, targetY)
	}
	m.scrollX = clamp(targetX, 0, m.getMaxScrollX())
	m.scrollY = clamp(targetY, 0, m.getMaxScrollY())
	return nil
}

// searchStatus is the text shown next to the search bar.
func (m tableModel) searchStatus() string {
	f := m.search.finder
	if f.Term() == "" {
		return ""
	}
	if f.IsProcessing() {
		p := m.search.progress
		return fmt.Sprintf("%s %d matches (%d/%d rows)",
			m.spinner.View(), f.PartialMatchesCount(), p.RowsProcessed, len(m.rows))
	}
	count, _ := f.MatchesCount()
	if count == 0 {
		return "no matches"
	}
	if pos, ok := f.ActiveMatchPosition(); ok {
		return fmt.Sprintf("%d/%d", pos, count)
	}
	return fmt.Sprintf("-/%d", count)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
