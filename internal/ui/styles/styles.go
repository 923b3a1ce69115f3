package styles

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Symbols - Unicode with ASCII fallbacks
const (
	SymbolSuccess = "✓"
	SymbolWarning = "⚠"
	SymbolArrow   = "→"
)

// NoColor checks if colors should be disabled
func NoColor() bool {
	return os.Getenv("NO_COLOR") != "" || os.Getenv("PGRID_NO_COLOR") != ""
}

// IsAccessible checks if accessibility mode is enabled
// When enabled: no animations, no spinner, simplified output
func IsAccessible() bool {
	v := os.Getenv("PGRID_ACCESSIBLE")
	return v == "1" || v == "true"
}

// Base text styles
var (
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Foreground(Muted)
)

// Semantic styles
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)

	// Tables
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	CountStyle   = lipgloss.NewStyle().Foreground(Info).Bold(true)
	SourceStyle  = lipgloss.NewStyle().Foreground(TextSecondary)
	ColumnIDText = lipgloss.NewStyle().Foreground(Success)

	// Help bar
	HelpKey   = lipgloss.NewStyle().Foreground(Accent)
	HelpValue = lipgloss.NewStyle().Foreground(Muted)
)

// MatchStyle is the style of a search occurrence.
func MatchStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(ColorMatch).Foreground(TextInverse)
}

// ActiveMatchStyle is the style of the active occurrence.
func ActiveMatchStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(ColorActiveMatch).Foreground(TextPrimary).Bold(true)
}

// SetSearchColors overrides the match colors with hex values; empty keeps
// the current color.
func SetSearchColors(match, active string) {
	if match != "" {
		ColorMatch = lipgloss.Color(match)
	}
	if active != "" {
		ColorActiveMatch = lipgloss.Color(active)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Render functions - centralized formatting with NoColor support
// ═══════════════════════════════════════════════════════════════════════════

// render applies a style if colors are enabled
func render(s lipgloss.Style, text string) string {
	if NoColor() {
		return text
	}
	return s.Render(text)
}

// Header formats a column header
func Header(name string) string {
	return render(HeaderStyle, name)
}

// Count formats a match count
func Count(n int) string {
	return render(CountStyle, fmt.Sprintf("%d", n))
}

// Source formats a file path or query
func Source(s string) string {
	return render(SourceStyle, s)
}

// SuccessMsg formats a success message with checkmark
func SuccessMsg(msg string) string {
	symbol := SymbolSuccess
	if NoColor() {
		symbol = "+"
	}
	return fmt.Sprintf("%s %s", render(SuccessStyle, symbol), msg)
}

// ErrorMsg formats an error message
func ErrorMsg(title string) string {
	return render(ErrorStyle, "Error: "+title)
}

// WarningMsg formats a warning message
func WarningMsg(msg string) string {
	symbol := SymbolWarning
	if NoColor() {
		symbol = "!"
	}
	return fmt.Sprintf("%s %s", render(WarningStyle, symbol), msg)
}

// MutedMsg formats muted/secondary text
func MutedMsg(msg string) string {
	return render(MutedStyle, msg)
}

// SectionHeader formats a section header
func SectionHeader(title string) string {
	return render(Bold, title)
}

// HelpLine formats key/description pairs as a single footer line
func HelpLine(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, render(HelpKey, pairs[i])+" "+render(MutedStyle, pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}
