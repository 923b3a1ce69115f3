package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imgajeed76/pgrid/internal/ui/highlight"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
)

// ═══════════════════════════════════════════════════════════════════════════
// View
// ═══════════════════════════════════════════════════════════════════════════

func (m tableModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Accent)
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s: %d rows, %d columns", m.title, len(m.rows), len(m.columns))))

	// modified columns
	var stateInfo []string
	for i, state := range m.colStates {
		switch state {
		case colStateExpanded:
			stateInfo = append(stateInfo, m.columns[i]+"+")
		case colStateHidden:
			stateInfo = append(stateInfo, m.columns[i]+"-")
		}
	}
	if len(stateInfo) > 0 {
		sb.WriteString(styles.MutedMsg(fmt.Sprintf("  [%s]", strings.Join(stateInfo, ", "))))
	}
	sb.WriteString("\n")

	sb.WriteString(m.renderSearchBar())
	sb.WriteString("\n")

	sb.WriteString(m.renderTable())

	sb.WriteString("\n")
	switch {
	case m.statusMsg != "" && time.Now().Before(m.statusUntil):
		sb.WriteString(styles.SuccessMsg(m.statusMsg))
	case m.mode == tableModeSearch:
		sb.WriteString(styles.HelpLine("enter", "confirm", "↑↓", "prev/next match", "esc", "clear"))
	default:
		sb.WriteString(styles.HelpLine(
			"↑↓←→", "nav", "⇧+arrow", "scroll", "enter", "expand", "H", "hide",
			"/", "search", "n/N", "match", "x", "stop", "esc", "clear", "y", "copy",
			"J", "json", "R", "raw", "P", "table", "q", "quit",
		))
	}

	return sb.String()
}

func (m tableModel) renderSearchBar() string {
	status := m.searchStatus()
	if m.mode == tableModeSearch {
		return "/" + m.searchInput.View() + "  " + status
	}
	if term := m.search.finder.Term(); term != "" {
		return styles.MutedMsg("search: ") + term + "  " + status
	}
	return ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Render Table
// ═══════════════════════════════════════════════════════════════════════════

type tableStyles struct {
	header         lipgloss.Style
	selectedHeader lipgloss.Style
	separator      lipgloss.Style
	selectedSep    lipgloss.Style
	selectedRow    lipgloss.Style
	selectedCell   lipgloss.Style
	normal         lipgloss.Style
}

func newTableStyles() tableStyles {
	return tableStyles{
		header:         lipgloss.NewStyle().Bold(true).Foreground(styles.Info),
		selectedHeader: lipgloss.NewStyle().Bold(true).Foreground(styles.Accent),
		separator:      lipgloss.NewStyle().Foreground(styles.Muted),
		selectedSep:    lipgloss.NewStyle().Foreground(styles.Accent),
		selectedRow:    lipgloss.NewStyle().Background(styles.BgHighlight),
		selectedCell:   lipgloss.NewStyle().Background(styles.Accent).Foreground(styles.TextInverse),
		normal:         lipgloss.NewStyle(),
	}
}

func (m tableModel) renderTable() string {
	if len(m.columns) == 0 {
		return "No columns"
	}

	var sb strings.Builder
	st := newTableStyles()
	vw := m.viewportWidth()

	sb.WriteString(viewport(m.buildHeaderLine(st), m.scrollX, vw))
	sb.WriteString("\n")
	sb.WriteString(viewport(m.buildSeparatorLine(st), m.scrollX, vw))
	sb.WriteString("\n")

	visibleRows := m.visibleRowCount()
	endRow := min(m.scrollY+visibleRows, len(m.rows))
	for rowIdx := m.scrollY; rowIdx < endRow; rowIdx++ {
		sb.WriteString(viewport(m.buildRowLine(rowIdx, st), m.scrollX, vw))
		sb.WriteString("\n")
	}

	var indicators []string
	if m.scrollX > 0 {
		indicators = append(indicators, "◀")
	}
	if m.scrollX+vw < m.getTotalWidth() {
		indicators = append(indicators, "▶")
	}
	if m.scrollY > 0 {
		indicators = append(indicators, "▲")
	}
	if m.scrollY+visibleRows < len(m.rows) {
		indicators = append(indicators, "▼")
	}
	if len(indicators) > 0 {
		sb.WriteString(styles.MutedMsg(strings.Join(indicators, " ")))
	}

	return sb.String()
}

func (m tableModel) buildHeaderLine(st tableStyles) string {
	var sb strings.Builder
	for i, name := range m.columns {
		if m.colStates[i] == colStateHidden {
			name = "..."
		}
		cell := highlight.Fit(name, m.getColDisplayWidth(i))
		if i == m.colCursor {
			sb.WriteString(st.selectedHeader.Render(cell))
		} else {
			sb.WriteString(st.header.Render(cell))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}
	return sb.String()
}

func (m tableModel) buildSeparatorLine(st tableStyles) string {
	var sb strings.Builder
	for i := range m.columns {
		sep := strings.Repeat("─", m.getColDisplayWidth(i))
		if i == m.colCursor {
			sb.WriteString(st.selectedSep.Render(sep))
		} else {
			sb.WriteString(st.separator.Render(sep))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}
	return sb.String()
}

func (m tableModel) buildRowLine(rowIdx int, st tableStyles) string {
	var sb strings.Builder
	row := m.rows[rowIdx]
	selectedRow := rowIdx == m.cursor

	for i := range m.columns {
		width := m.getColDisplayWidth(i)
		var cell string
		if m.colStates[i] == colStateHidden {
			cell = highlight.Fit("...", width)
		} else {
			cell = m.renderCell(rowIdx, i, row[i], width)
		}

		switch {
		case selectedRow && i == m.colCursor:
			sb.WriteString(st.selectedCell.Render(cell))
		case selectedRow:
			sb.WriteString(st.selectedRow.Render(cell))
		default:
			sb.WriteString(st.normal.Render(cell))
		}
		sb.WriteString(strings.Repeat(" ", colGap))
	}
	return sb.String()
}

// renderCell marks search occurrences in a cell. A cell holding the active
// match scrolls its text so the match stays visible.
func (m tableModel) renderCell(rowIdx, colIdx int, text string, width int) string {
	f := m.search.finder
	term := f.Term()
	colID := m.grid.Columns[colIdx].ID
	if term == "" || f.CellMatches(rowIdx, colID) == 0 {
		return highlight.Fit(text, width)
	}

	active := -1
	if am, ok := f.ActiveMatch(); ok && am.RowIndex == rowIdx && am.ColumnID == colID {
		active = am.MatchIndexWithinCell
	}
	rendered, _ := m.search.renderer.Highlight(text, term, active)
	if active < 0 {
		return highlight.Fit(rendered, width)
	}
	offset := m.search.renderer.ScrollOffset(text, term, active, width)
	return highlight.Window(rendered, offset, width)
}
