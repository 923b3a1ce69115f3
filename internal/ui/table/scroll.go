package table

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// ═══════════════════════════════════════════════════════════════════════════
// Column Geometry
// ═══════════════════════════════════════════════════════════════════════════

// colGap is the spacing after every column.
const colGap = 2

func (m tableModel) getColDisplayWidth(colIdx int) int {
	if colIdx >= len(m.colStates) {
		return m.colWidth
	}
	w := m.fullColWidths[colIdx]
	switch m.colStates[colIdx] {
	case colStateHidden:
		return hiddenColWidth
	case colStateDefault:
		w = min(w, m.colWidth)
	}
	return max(w, minColWidth)
}

// getColStartX returns the display column where colIdx starts.
func (m tableModel) getColStartX(colIdx int) int {
	x := 0
	for i := 0; i < colIdx && i < len(m.columns); i++ {
		x += m.getColDisplayWidth(i) + colGap
	}
	return x
}

func (m tableModel) getColEndX(colIdx int) int {
	return m.getColStartX(colIdx) + m.getColDisplayWidth(colIdx)
}

func (m tableModel) getTotalWidth() int {
	return m.getColStartX(len(m.columns))
}

func (m tableModel) viewportWidth() int {
	return max(m.width-2, 1)
}

func (m tableModel) getMaxScrollX() int {
	return max(m.getTotalWidth()-m.width+2, 0)
}

func (m tableModel) getMaxScrollY() int {
	return max(len(m.rows)-m.visibleRowCount(), 0)
}

// visibleRowCount leaves room for title, search bar, header, separator
// and footer.
func (m tableModel) visibleRowCount() int {
	return max(m.height-5, 1)
}

// ═══════════════════════════════════════════════════════════════════════════
// Viewport
// ═══════════════════════════════════════════════════════════════════════════

// viewport cuts width display columns starting at startX out of a styled
// line and pads the rest.
func viewport(line string, startX, width int) string {
	if width <= 0 {
		return ""
	}
	startX = max(startX, 0)
	s := ansi.Cut(line, startX, startX+width)
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// ═══════════════════════════════════════════════════════════════════════════
// Scroll Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m *tableModel) ensureRowVisible() {
	visibleRows := m.visibleRowCount()
	switch {
	case m.cursor < m.scrollY:
		m.scrollY = m.cursor
	case m.cursor >= m.scrollY+visibleRows:
		m.scrollY = m.cursor - visibleRows + 1
	}
}

func (m *tableModel) ensureColVisible() {
	start, end := m.getColStartX(m.colCursor), m.getColEndX(m.colCursor)
	vw := m.viewportWidth()

	switch {
	case start < m.scrollX:
		m.scrollX = start
	case end > m.scrollX+vw:
		if end-start <= vw {
			m.scrollX = end - vw
		} else {
			m.scrollX = start
		}
	}
	m.scrollX = clamp(m.scrollX, 0, m.getMaxScrollX())
}

func (m *tableModel) ensureColVisibleFromLeft() {
	m.scrollX = clamp(m.getColStartX(m.colCursor), 0, m.getMaxScrollX())
}

func (m *tableModel) ensureColVisibleFromRight() {
	start, end := m.getColStartX(m.colCursor), m.getColEndX(m.colCursor)
	x := end - m.viewportWidth()
	if end-start <= m.viewportWidth() {
		x = max(x, start)
	}
	m.scrollX = clamp(x, 0, m.getMaxScrollX())
}

// ═══════════════════════════════════════════════════════════════════════════
// Animation
// ═══════════════════════════════════════════════════════════════════════════

type animTickMsg time.Time

const (
	animationFrameInterval = 16 * time.Millisecond
	animationFraction      = 0.25
	animationSnapThreshold = 1
)

func animTick() tea.Cmd {
	return tea.Tick(animationFrameInterval, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// startAnimation eases the scroll offsets towards the target.
func (m *tableModel) startAnimation(targetX, targetY int) tea.Cmd {
	m.animTargetX = clamp(targetX, 0, m.getMaxScrollX())
	m.animTargetY = clamp(targetY, 0, m.getMaxScrollY())

	if m.animTargetX == m.scrollX && m.animTargetY == m.scrollY {
		m.animating = false
		return nil
	}
	if m.animating {
		return nil
	}
	m.animating = true
	return animTick()
}

func (m *tableModel) updateAnimation() tea.Cmd {
	if !m.animating {
		return nil
	}

	dx := m.animTargetX - m.scrollX
	dy := m.animTargetY - m.scrollY
	if abs(dx) <= animationSnapThreshold && abs(dy) <= animationSnapThreshold {
		m.scrollX = m.animTargetX
		m.scrollY = m.animTargetY
		m.animating = false
		return nil
	}

	m.scrollX += easeStep(dx)
	m.scrollY += easeStep(dy)
	return animTick()
}

// easeStep moves a fraction of the remaining distance, at least one cell.
func easeStep(remaining int) int {
	if remaining == 0 {
		return 0
	}
	d := int(float64(remaining) * animationFraction)
	if d != 0 {
		return d
	}
	if remaining > 0 {
		return 1
	}
	return -1
}

// cancelAnimation jumps to the target so a key press never lands mid-way.
func (m *tableModel) cancelAnimation() {
	if m.animating {
		m.scrollX = m.animTargetX
		m.scrollY = m.animTargetY
	}
	m.animating = false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
