package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/imgajeed76/pgrid/internal/util"
)

// LoadCSV reads delimited text. The first record is the header; rows may
// have a different number of fields than the header.
func LoadCSV(r io.Reader, comma rune, source string) (*Grid, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, util.ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = util.ToValidUTF8(h)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	var rows [][]any
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make([]any, len(record))
		for i, field := range record {
			row[i] = util.ToValidUTF8(field)
		}
		rows = append(rows, row)
	}

	// ragged rows wider than the header get generated column names
	width := len(header)
	for _, row := range rows {
		width = max(width, len(row))
	}
	for len(header) < width {
		header = append(header, "")
	}

	return New(source, source, header, rows), nil
}

func trimBOM(s string) string {
	const bom = "\uFEFF"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
