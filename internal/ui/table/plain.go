package table

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

// out is where non-interactive output goes.
var out io.Writer = os.Stdout

// NullText marks cells that are printed as JSON null.
var NullText = "NULL"

// PrintJSONResults outputs results as a JSON array of objects, keeping
// column order.
func PrintJSONResults(colNames []string, rows [][]string) error {
	results := make([]json.RawMessage, len(rows))
	for i, row := range rows {
		var sb strings.Builder
		sb.WriteByte('{')
		for j, colName := range colNames {
			if j > 0 {
				sb.WriteByte(',')
			}
			k, _ := json.Marshal(colName)
			sb.Write(k)
			sb.WriteByte(':')
			if j >= len(row) || row[j] == NullText {
				sb.WriteString("null")
				continue
			}
			v, _ := json.Marshal(row[j])
			sb.Write(v)
		}
		sb.WriteByte('}')
		results[i] = json.RawMessage(sb.String())
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// PrintRaw prints rows as tab-separated values.
func PrintRaw(rows [][]string) {
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}

// PrintPlainTable prints an aligned table for non-TTY output.
// Shows full content without truncation.
func PrintPlainTable(colNames []string, rows [][]string) {
	if len(colNames) == 0 {
		fmt.Fprintln(out, "(0 rows)")
		return
	}

	colWidths := make([]int, len(colNames))
	for i, name := range colNames {
		colWidths[i] = runewidth.StringWidth(name)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], runewidth.StringWidth(val))
			}
		}
	}

	printLine := func(cells []string) {
		var sb strings.Builder
		for i, val := range cells {
			if i >= len(colWidths) {
				break
			}
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(runewidth.FillRight(val, colWidths[i]))
		}
		fmt.Fprintln(out, strings.TrimRight(sb.String(), " "))
	}

	printLine(colNames)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("─", w)
	}
	printLine(sep)
	for _, row := range rows {
		printLine(row)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "(%d rows)\n", len(rows))
}
