package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/util"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Open a file in the interactive table viewer",
		Long: `Open a CSV, TSV, XLSX, YAML or JSON file in the interactive viewer.

Press / to search. Every occurrence is highlighted, n and N jump between
matches and esc clears the search. The search term and the active match
are saved per file and restored the next time the file is opened.

When stdout is not a terminal a plain table is printed instead.

Examples:
  pgrid view people.csv
  pgrid view report.xlsx --sheet Q3
  pgrid view data.txt --delimiter ';'
  pgrid view people.csv --find london
  pgrid view people.yaml --json | jq '.[0]'`,
		Args: cobra.ExactArgs(1),
		RunE: runView,
	}

	addDisplayFlags(cmd)
	addSourceFlags(cmd)

	return cmd
}

// addSourceFlags registers the flags that control file parsing.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("sheet", "", "Worksheet to open (xlsx, default first)")
	cmd.Flags().String("delimiter", "", "Field delimiter for delimited text (default by extension)")
}

func sourceOptions(cmd *cobra.Command) (grid.Options, error) {
	sheet, _ := cmd.Flags().GetString("sheet")
	delim, _ := cmd.Flags().GetString("delimiter")

	opts := grid.Options{Sheet: sheet}
	if delim != "" {
		if delim == `\t` {
			delim = "\t"
		}
		r, size := utf8.DecodeRuneInString(delim)
		if size != len(delim) || r == utf8.RuneError {
			return opts, fmt.Errorf("delimiter must be a single character, got %q", delim)
		}
		opts.Delimiter = r
	}
	return opts, nil
}

func runView(cmd *cobra.Command, args []string) error {
	path := args[0]
	opts, err := sourceOptions(cmd)
	if err != nil {
		return err
	}

	g, err := grid.Open(path, opts)
	if err != nil {
		return util.SourceOpenError(path, err)
	}
	app.log.Debug().Str("source", path).Int("rows", g.RowsCount()).Int("columns", len(g.Columns)).Msg("opened")

	return displayGrid(cmd, g, path)
}
