package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
)

// ═══════════════════════════════════════════════════════════════════════════
// Constants
// ═══════════════════════════════════════════════════════════════════════════

const (
	defaultColWidth = 30
	minColWidth     = 3
	hiddenColWidth  = 3
)

// Column display state
type colState int

const (
	colStateDefault  colState = iota // truncated to the configured width
	colStateExpanded                 // full width
	colStateHidden                   // minimal width, excluded from search
)

// Table mode
type tableMode int

const (
	tableModeNormal tableMode = iota
	tableModeSearch
)

// ExitMode tells the caller what to print after the viewer closes.
type ExitMode int

const (
	ExitNormal ExitMode = iota
	ExitJSON
	ExitRaw
	ExitPlain
)

// ═══════════════════════════════════════════════════════════════════════════
// Options and result
// ═══════════════════════════════════════════════════════════════════════════

// ViewerOptions configures the interactive viewer.
type ViewerOptions struct {
	Title        string
	Grid         *grid.Grid
	Formatter    *grid.Formatter
	MatchOptions tablesearch.MatchOptions
	ColumnWidth  int
	BatchSize    int
	BatchDelay   time.Duration

	// InitialState restores a previous search when the viewer opens.
	InitialState *tablesearch.RestorableState

	Logger *zerolog.Logger
}

// ViewerResult is returned when the viewer exits.
type ViewerResult struct {
	State tablesearch.RestorableState
	Exit  ExitMode
}

// ═══════════════════════════════════════════════════════════════════════════
// Model
// ═══════════════════════════════════════════════════════════════════════════

type tableModel struct {
	title         string
	grid          *grid.Grid
	columns       []string   // header names
	rows          [][]string // formatted cells
	fullColWidths []int      // widest content of each column
	colStates     []colState
	colWidth      int
	cursor        int // selected row
	colCursor     int // selected column
	scrollX       int // horizontal scroll offset in columns
	scrollY       int // vertical scroll offset in rows
	width         int
	height        int
	ready         bool
	mode          tableMode
	searchInput   textinput.Model
	spinner       spinner.Model
	exitMode      ExitMode

	search *searchSession

	// Animation state for smooth scrolling
	animating   bool
	animTargetX int
	animTargetY int

	// Flash notification in the footer
	statusMsg   string
	statusUntil time.Time
}

// ═══════════════════════════════════════════════════════════════════════════
// Key Bindings
// ═══════════════════════════════════════════════════════════════════════════

type tableKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	ShiftUp     key.Binding
	ShiftDown   key.Binding
	ShiftLeft   key.Binding
	ShiftRight  key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
	Expand      key.Binding
	Hide        key.Binding
	Search      key.Binding
	NextMatch   key.Binding
	PrevMatch   key.Binding
	ClearSearch key.Binding
	StopSearch  key.Binding
	Quit        key.Binding
	YankCell    key.Binding
	YankRow     key.Binding
	ExportJSON  key.Binding
	ExportRaw   key.Binding
	ExportPlain key.Binding
}

var tableKeys = tableKeyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
	ShiftUp:     key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("⇧↑", "half page up")),
	ShiftDown:   key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("⇧↓", "half page down")),
	ShiftLeft:   key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("⇧←", "scroll half left")),
	ShiftRight:  key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("⇧→", "scroll half right")),
	PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Home:        key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first row")),
	End:         key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last row")),
	Expand:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand/default")),
	Hide:        key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hide/default")),
	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	NextMatch:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
	PrevMatch:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev match")),
	ClearSearch: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
	StopSearch:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop search")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	YankCell:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cell")),
	YankRow:     key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy row")),
	ExportJSON:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "print as JSON")),
	ExportRaw:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "print raw")),
	ExportPlain: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "print table")),
}

// ═══════════════════════════════════════════════════════════════════════════
// Entry Point
// ═══════════════════════════════════════════════════════════════════════════

// RunViewer launches the interactive table viewer and blocks until the user
// quits. Exports requested with J/R/P are printed after the TUI exits.
func RunViewer(opts ViewerOptions) (ViewerResult, error) {
	m, err := newTableModel(opts)
	if err != nil {
		return ViewerResult{}, err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return ViewerResult{}, err
	}

	fm, ok := finalModel.(tableModel)
	if !ok {
		return ViewerResult{}, nil
	}
	result := ViewerResult{State: fm.search.finder.Snapshot(), Exit: fm.exitMode}

	switch fm.exitMode {
	case ExitJSON:
		return result, PrintJSONResults(fm.columns, fm.rows)
	case ExitRaw:
		PrintRaw(fm.rows)
	case ExitPlain:
		PrintPlainTable(fm.columns, fm.rows)
	}
	return result, nil
}

func newTableModel(opts ViewerOptions) (tableModel, error) {
	formatter := opts.Formatter
	if formatter == nil {
		formatter = grid.DefaultFormatter()
	}
	colWidth := opts.ColumnWidth
	if colWidth < minColWidth {
		colWidth = defaultColWidth
	}

	columns := opts.Grid.ColumnNames()
	for i, name := range columns {
		if name == "" {
			columns[i] = opts.Grid.Columns[i].ID
		}
	}
	rows := opts.Grid.Strings(formatter)

	fullColWidths := make([]int, len(columns))
	for i, name := range columns {
		fullColWidths[i] = runewidth.StringWidth(name)
	}
	for _, row := range rows {
		for i, val := range row {
			if w := runewidth.StringWidth(val); w > fullColWidths[i] {
				fullColWidths[i] = w
			}
		}
	}

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.CharLimit = 200
	ti.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.InfoStyle

	m := tableModel{
		title:         opts.Title,
		grid:          opts.Grid,
		columns:       columns,
		rows:          rows,
		fullColWidths: fullColWidths,
		colStates:     make([]colState, len(columns)),
		colWidth:      colWidth,
		mode:          tableModeNormal,
		searchInput:   ti,
		spinner:       sp,
		exitMode:      ExitNormal,
	}

	search, err := newSearchSession(opts, formatter, m.visibleColumnIDs())
	if err != nil {
		return tableModel{}, err
	}
	m.search = search
	if term := search.finder.Term(); term != "" {
		m.searchInput.SetValue(term)
	}
	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Bubble Tea Interface
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel) Init() tea.Cmd {
	// a restored search is already running
	if m.search.finder.IsProcessing() {
		return tea.Batch(m.nextBatch(m.search.finder.Generation()), m.spinner.Tick)
	}
	return nil
}

func (m tableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, m.applyScroll()

	case scanBatchMsg:
		return m.handleBatch(msg)

	case spinner.TickMsg:
		if !m.search.finder.IsProcessing() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case animTickMsg:
		cmd := m.updateAnimation()
		return m, cmd

	case statusClearMsg:
		if !m.statusUntil.IsZero() && time.Now().After(m.statusUntil) {
			m.statusMsg = ""
			m.statusUntil = time.Time{}
		}
		return m, nil

	case tea.KeyMsg:
		m.cancelAnimation()

		if m.mode == tableModeSearch {
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m tableModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, tableKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, tableKeys.Search):
		m.mode = tableModeSearch
		m.searchInput.Focus()
		m.searchInput.CursorEnd()
		return m, textinput.Blink

	case key.Matches(msg, tableKeys.NextMatch):
		m.search.finder.GoToNextMatch()
		return m, m.applyScroll()

	case key.Matches(msg, tableKeys.PrevMatch):
		m.search.finder.GoToPrevMatch()
		return m, m.applyScroll()

	case key.Matches(msg, tableKeys.ClearSearch):
		m.clearSearch()

	case key.Matches(msg, tableKeys.StopSearch):
		if m.search.finder.IsProcessing() {
			m.search.finder.Stop()
			return m, tea.Batch(m.applyScroll(), m.setStatus("Search stopped"))
		}

	case key.Matches(msg, tableKeys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureRowVisible()
		}

	case key.Matches(msg, tableKeys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.ensureRowVisible()
		}

	case key.Matches(msg, tableKeys.Left):
		colStartX := m.getColStartX(m.colCursor)
		if colStartX < m.scrollX {
			m.scrollX = max(m.scrollX-3, colStartX, 0)
		} else if m.colCursor > 0 {
			m.colCursor--
			m.ensureColVisibleFromRight()
		}

	case key.Matches(msg, tableKeys.Right):
		colEndX := m.getColEndX(m.colCursor)
		if colEndX > m.scrollX+m.viewportWidth() {
			m.scrollX = min(m.scrollX+3, m.getMaxScrollX())
		} else if m.colCursor < len(m.columns)-1 {
			m.colCursor++
			m.ensureColVisibleFromLeft()
		}

	case key.Matches(msg, tableKeys.ShiftLeft):
		return m, m.startAnimation(m.scrollX-max(m.width/2, 1), m.scrollY)

	case key.Matches(msg, tableKeys.ShiftRight):
		return m, m.startAnimation(m.scrollX+max(m.width/2, 1), m.scrollY)

	case key.Matches(msg, tableKeys.ShiftUp):
		halfPage := max(m.visibleRowCount()/2, 1)
		m.cursor = max(m.cursor-halfPage, 0)
		return m, m.startAnimation(m.scrollX, m.scrollY-halfPage)

	case key.Matches(msg, tableKeys.ShiftDown):
		halfPage := max(m.visibleRowCount()/2, 1)
		m.cursor = max(min(m.cursor+halfPage, len(m.rows)-1), 0)
		return m, m.startAnimation(m.scrollX, m.scrollY+halfPage)

	case key.Matches(msg, tableKeys.PageUp):
		m.cursor = max(m.cursor-m.visibleRowCount(), 0)
		m.ensureRowVisible()

	case key.Matches(msg, tableKeys.PageDown):
		m.cursor = max(min(m.cursor+m.visibleRowCount(), len(m.rows)-1), 0)
		m.ensureRowVisible()

	case key.Matches(msg, tableKeys.Home):
		m.cursor = 0
		m.scrollY = 0
		m.scrollX = 0

	case key.Matches(msg, tableKeys.End):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
			m.ensureRowVisible()
		}

	case key.Matches(msg, tableKeys.Expand):
		m.toggleColState(colStateExpanded)
		m.ensureColVisible()

	case key.Matches(msg, tableKeys.Hide):
		m.toggleColState(colStateHidden)
		m.ensureColVisible()
		// hidden columns are not searched
		return m, m.rescan()

	case key.Matches(msg, tableKeys.YankCell):
		return m, m.yankCell()

	case key.Matches(msg, tableKeys.YankRow):
		return m, m.yankRow()

	case key.Matches(msg, tableKeys.ExportJSON):
		m.exitMode = ExitJSON
		return m, tea.Quit

	case key.Matches(msg, tableKeys.ExportRaw):
		m.exitMode = ExitRaw
		return m, tea.Quit

	case key.Matches(msg, tableKeys.ExportPlain):
		m.exitMode = ExitPlain
		return m, tea.Quit
	}

	return m, nil
}

func (m *tableModel) toggleColState(state colState) {
	if m.colCursor >= len(m.colStates) {
		return
	}
	if m.colStates[m.colCursor] == state {
		m.colStates[m.colCursor] = colStateDefault
	} else {
		m.colStates[m.colCursor] = state
	}
}

// visibleColumnIDs returns the ids of the columns that are not hidden, in
// display order. This is the column order of the search.
func (m tableModel) visibleColumnIDs() []string {
	ids := make([]string, 0, len(m.colStates))
	for i, c := range m.grid.Columns {
		if m.colStates[i] != colStateHidden {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ═══════════════════════════════════════════════════════════════════════════
// Status Message (flash notification)
// ═══════════════════════════════════════════════════════════════════════════

type statusClearMsg struct{}

const statusDuration = 2 * time.Second

// setStatus sets a temporary status message that auto-clears.
func (m *tableModel) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusUntil = time.Now().Add(statusDuration)
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Clipboard (yank)
// ═══════════════════════════════════════════════════════════════════════════

var writeClipboard = clipboard.WriteAll

// yankCell copies the selected cell value to the system clipboard.
func (m *tableModel) yankCell() tea.Cmd {
	if m.cursor >= len(m.rows) || m.colCursor >= len(m.columns) {
		return nil
	}
	val := m.rows[m.cursor][m.colCursor]
	if err := writeClipboard(val); err != nil {
		return m.setStatus(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus("Copied: " + runewidth.Truncate(val, 40, "..."))
}

// yankRow copies the entire selected row (tab-separated) to the clipboard.
func (m *tableModel) yankRow() tea.Cmd {
	if m.cursor >= len(m.rows) {
		return nil
	}
	row := m.rows[m.cursor]
	if err := writeClipboard(strings.Join(row, "\t")); err != nil {
		return m.setStatus(fmt.Sprintf("clipboard error: %s", err))
	}
	return m.setStatus(fmt.Sprintf("Copied row (%d columns)", len(row)))
}
