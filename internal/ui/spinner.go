package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/imgajeed76/pgrid/internal/ui/styles"
)

// Status output goes to stderr so stdout stays clean for piping.
var statusOut io.Writer = os.Stderr

var interactive = func() bool {
	return !styles.IsAccessible() && term.IsTerminal(int(os.Stderr.Fd()))
}

// Spinner provides a simple animated spinner for long operations
type Spinner struct {
	message string
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a new spinner with the given message
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the spinner animation in the background
func (s *Spinner) Start() {
	if !interactive() {
		fmt.Fprintln(statusOut, s.message+"...")
		close(s.stopped)
		return
	}

	go func() {
		defer close(s.stopped)
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		style := lipgloss.NewStyle().Foreground(styles.Accent)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.done:
				fmt.Fprint(statusOut, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(statusOut, "\r%s %s", style.Render(frames[i%len(frames)]), s.message)
			}
		}
	}()
}

// Stop stops the spinner and waits for the line to be cleared
func (s *Spinner) Stop() {
	close(s.done)
	<-s.stopped
}

// Success stops the spinner and shows a success message
func (s *Spinner) Success(msg string) {
	s.Stop()
	fmt.Fprintln(statusOut, styles.SuccessMsg(msg))
}

// ══════════════════════════════════════════════════════════════════════════
// Progress bar for scans with a known row count
// ══════════════════════════════════════════════════════════════════════════

// Progress represents a progress bar
type Progress struct {
	total   int
	current int
	label   string
	width   int
	lastPct int
}

// NewProgress creates a new progress bar
func NewProgress(label string, total int) *Progress {
	return &Progress{
		label:   label,
		total:   total,
		width:   30,
		lastPct: -1,
	}
}

// Update updates the progress and renders
func (p *Progress) Update(current int) {
	p.current = min(current, p.total)
	p.render()
}

func (p *Progress) percent() int {
	if p.total <= 0 {
		return 100
	}
	return p.current * 100 / p.total
}

func (p *Progress) render() {
	pct := p.percent()

	if !interactive() {
		// every 10% to avoid spam
		if pct/10 != p.lastPct/10 || p.lastPct < 0 {
			fmt.Fprintf(statusOut, "%s: %d%% (%d of %d)\n", p.label, pct, p.current, p.total)
		}
		p.lastPct = pct
		return
	}
	p.lastPct = pct

	filled := pct * p.width / 100
	bar := lipgloss.NewStyle().Foreground(styles.Success).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(styles.Muted).Render(strings.Repeat("░", p.width-filled))

	fmt.Fprintf(statusOut, "\r%s %s %3d%% [%d/%d]", p.label, bar, pct, p.current, p.total)
}

// Done finishes the progress bar
func (p *Progress) Done() {
	p.current = p.total
	p.render()
	if interactive() {
		fmt.Fprintln(statusOut)
	}
}
