// Package table displays a grid: an interactive viewer with incremental
// search (column expand/hide, smooth scrolling, clipboard), plain text
// tables, JSON output and raw tab-separated output.
package table

import (
	"os"

	"golang.org/x/term"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
)

// DisplayOptions controls how results are rendered.
type DisplayOptions struct {
	// JSON outputs results as a JSON array of objects.
	JSON bool
	// Raw outputs results as tab-separated values (for piping).
	Raw bool
	// NoPager forces plain table output even on a TTY.
	NoPager bool
}

var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// Display picks the output mode from options and environment. Only the
// interactive viewer produces a search state; the other modes return
// the initial state unchanged.
func Display(viewer ViewerOptions, opts DisplayOptions) (tablesearch.RestorableState, error) {
	var initial tablesearch.RestorableState
	if viewer.InitialState != nil {
		initial = *viewer.InitialState
	}

	formatter := viewer.Formatter
	if formatter == nil {
		formatter = grid.DefaultFormatter()
	}
	NullText = formatter.NullText
	columns := viewer.Grid.ColumnNames()

	if opts.Raw {
		PrintRaw(viewer.Grid.Strings(formatter))
		return initial, nil
	}
	if opts.JSON {
		return initial, PrintJSONResults(columns, viewer.Grid.Strings(formatter))
	}
	if !isTerminal() || opts.NoPager || viewer.Grid.RowsCount() == 0 {
		PrintPlainTable(columns, viewer.Grid.Strings(formatter))
		return initial, nil
	}

	result, err := RunViewer(viewer)
	if err != nil {
		return initial, err
	}
	return result.State, nil
}
