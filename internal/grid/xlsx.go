package grid

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/imgajeed76/pgrid/internal/util"
)

// LoadXLSX reads one sheet of a workbook; an empty sheet name selects the
// first sheet. The first non-empty row is the header.
func LoadXLSX(path, sheet string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, util.ErrEmptySource
		}
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: %q (available: %v)", util.ErrSheetNotFound, sheet, sheets)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, util.ErrEmptySource
	}

	header := rows[0]
	data := make([][]any, 0, len(rows)-1)
	width := len(header)
	for _, r := range rows[1:] {
		row := make([]any, len(r))
		for i, cell := range r {
			row[i] = parseCellValue(cell)
		}
		width = max(width, len(row))
		data = append(data, row)
	}
	for len(header) < width {
		header = append(header, "")
	}

	return New(path, fmt.Sprintf("%s [%s]", path, sheet), header, data), nil
}

// parseCellValue keeps numbers as numbers so they format consistently.
func parseCellValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
