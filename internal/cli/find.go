package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/logging"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/ui"
	"github.com/imgajeed76/pgrid/internal/ui/highlight"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
)

func newFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <term> <file|glob>...",
		Short: "Count occurrences of a term in tables",
		Long: `Scan one or more files for a term and print the matches per row.

Globs are expanded by pgrid, including ** for nested directories. The scan
runs in batches like the interactive search and can be interrupted with
Ctrl-C; the rows scanned so far are still reported.

Examples:
  pgrid find london people.csv
  pgrid find -c name,city ada 'exports/**/*.csv'
  pgrid find ada people.csv --position 3
  pgrid find --json pending '*.xlsx'`,
		Args: cobra.MinimumNArgs(2),
		RunE: runFind,
	}

	cmd.Flags().StringSliceP("columns", "c", nil, "Only search these columns (id or header name)")
	cmd.Flags().Bool("case-sensitive", false, "Match letter case exactly (overrides search.case_sensitive)")
	cmd.Flags().IntP("position", "p", 0, "Show the match with this 1-based position")
	cmd.Flags().Bool("json", false, "Output results as JSON")
	cmd.Flags().Bool("no-progress", false, "Do not show a progress bar")
	addSourceFlags(cmd)

	return cmd
}

// findResult is the outcome of scanning one source.
type findResult struct {
	Source       string                   `json:"source"`
	Term         string                   `json:"term"`
	Columns      []string                 `json:"columns"`
	RowsScanned  int                      `json:"rowsScanned"`
	RowsTotal    int                      `json:"rowsTotal"`
	MatchesCount int                      `json:"matchesCount"`
	Complete     bool                     `json:"complete"`
	Matches      []tablesearch.RowMatches `json:"matches"`
	Match        *tablesearch.ActiveMatch `json:"match,omitempty"`
	MatchText    string                   `json:"matchText,omitempty"`
}

type findOptions struct {
	term      string
	columns   []string
	match     tablesearch.MatchOptions
	position  int
	batchSize int
	progress  bool
}

func runFind(cmd *cobra.Command, args []string) error {
	term := args[0]
	if term == "" {
		return util.MissingArgumentError("term", "pgrid find london people.csv")
	}

	columns, _ := cmd.Flags().GetStringSlice("columns")
	position, _ := cmd.Flags().GetInt("position")
	jsonOut, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	srcOpts, err := sourceOptions(cmd)
	if err != nil {
		return err
	}
	paths, err := grid.Expand(args[1:])
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	if len(paths) == 0 {
		return util.NewError("No files matched").WithContext(strings.Join(args[1:], " "))
	}
	if position > 0 && len(paths) > 1 {
		return fmt.Errorf("--position needs exactly one file, %d matched", len(paths))
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	opts := findOptions{
		term:      term,
		columns:   columns,
		match:     app.matchOptions(cmd),
		position:  position,
		batchSize: app.cfg.Search.BatchSize,
		progress:  !noProgress && !jsonOut,
	}

	var results []findResult
	for _, path := range paths {
		g, err := grid.Open(path, srcOpts)
		if err != nil {
			return util.SourceOpenError(path, err)
		}
		res, err := findInGrid(logging.WithSource(ctx, path), g, opts)
		if err != nil {
			return err
		}
		results = append(results, res)
		if !res.Complete {
			break
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printFindResults(out, results)
	return nil
}

// findInGrid runs a finder over g to completion or until ctx is cancelled.
func findInGrid(ctx context.Context, g *grid.Grid, opts findOptions) (findResult, error) {
	columns, err := g.ResolveColumns(opts.columns)
	if err != nil {
		return findResult{}, err
	}

	renderer := highlight.New(g, app.formatter(), opts.match)
	logger := logging.ComponentCtx(ctx, "tablesearch")

	var bar *ui.Progress
	if opts.progress && g.RowsCount() > 0 {
		bar = ui.NewProgress("Scanning "+g.Title, g.RowsCount())
	}
	result := findResult{Source: g.Source, Term: opts.term, Columns: columns, RowsTotal: g.RowsCount()}

	finder, err := tablesearch.New(tablesearch.Props{
		Renderer:  renderer.Plain(),
		BatchSize: opts.batchSize,
		Logger:    &logger,
		OnProgress: func(p tablesearch.Progress) {
			result.RowsScanned = p.RowsProcessed
			if bar != nil {
				bar.Update(p.RowsProcessed)
			}
		},
	})
	if err != nil {
		return result, err
	}
	if _, err := finder.Scan(opts.term, columns, g.RowsCount()); err != nil {
		return result, err
	}

	runErr := finder.Run(ctx, app.cfg.BatchDelay())
	if bar != nil && runErr == nil {
		bar.Done()
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return result, runErr
	}

	st := finder.State()
	result.Matches = st.MatchesList
	result.Complete = runErr == nil
	if st.MatchesCount != nil {
		result.MatchesCount = *st.MatchesCount
	}

	if opts.position > 0 {
		m, ok := finder.MatchAt(opts.position)
		if !ok {
			return result, util.NoMatchesError(opts.term, opts.position, result.MatchesCount)
		}
		text, _ := g.Text(m.RowIndex, m.ColumnID, app.formatter())
		rendered, _ := renderer.Highlight(text, opts.term, m.MatchIndexWithinCell)
		result.Match = &m
		result.MatchText = rendered
	}
	return result, nil
}

func printFindResults(w io.Writer, results []findResult) {
	total := 0
	for _, res := range results {
		total += res.MatchesCount
		if res.MatchesCount == 0 && res.Complete {
			continue
		}

		fmt.Fprintf(w, "%s  %s\n", styles.Source(res.Source), styles.Count(res.MatchesCount))
		if res.Match != nil {
			m := res.Match
			fmt.Fprintf(w, "  match %d/%d  row %d  %s  occurrence %d\n",
				m.MatchPosition, res.MatchesCount, m.RowIndex, m.ColumnID, m.MatchIndexWithinCell+1)
			fmt.Fprintf(w, "  %s\n", res.MatchText)
		} else {
			for _, rm := range res.Matches {
				fmt.Fprintf(w, "  %s %4d  %s\n", styles.MutedMsg("row"), rm.RowIndex, perColumn(rm, res.Columns))
			}
		}
		if !res.Complete {
			fmt.Fprintln(w, styles.WarningMsg(fmt.Sprintf("stopped after %d of %d rows", res.RowsScanned, res.RowsTotal)))
		}
	}

	if len(results) > 1 || total == 0 {
		fmt.Fprintln(w, styles.MutedMsg(fmt.Sprintf("%d matches in %d file(s)", total, len(results))))
	}
}

// perColumn formats the per-column counts of a row in column order.
func perColumn(rm tablesearch.RowMatches, columns []string) string {
	parts := make([]string, 0, len(rm.MatchesCountPerColumnID))
	for _, col := range columns {
		if n := rm.MatchesCountPerColumnID[col]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", styles.Header(col), n))
		}
	}
	return strings.Join(parts, " ")
}
