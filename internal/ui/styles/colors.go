package styles

import "github.com/charmbracelet/lipgloss"

// Color palette, dark mode optimized
var (
	Accent  = lipgloss.Color("#7C3AED") // violet-500 - highlights, interactive
	Success = lipgloss.Color("#10B981") // emerald-500
	Warning = lipgloss.Color("#F59E0B") // amber-500
	Error   = lipgloss.Color("#EF4444") // red-500
	Info    = lipgloss.Color("#3B82F6") // blue-500
	Muted   = lipgloss.Color("#6B7280") // gray-500 - secondary text

	TextPrimary   = lipgloss.Color("#F9FAFB") // gray-50
	TextSecondary = lipgloss.Color("#9CA3AF") // gray-400
	TextInverse   = lipgloss.Color("#111827") // gray-900 - text on bright backgrounds

	BgHighlight = lipgloss.Color("#1F2937") // gray-800 - selected row
	BgBorder    = lipgloss.Color("#374151") // gray-700 - borders
)

// Search colors. The viewer overrides them from display.* config.
var (
	ColorMatch       lipgloss.TerminalColor = Warning
	ColorActiveMatch lipgloss.TerminalColor = Accent
)
