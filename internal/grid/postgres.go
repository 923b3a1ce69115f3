package grid

import (
	"github.com/jackc/pgx/v5"
)

// FromRows drains a pgx result set into a grid and closes it.
func FromRows(rows pgx.Rows, source string) (*Grid, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	headers := make([]string, len(fields))
	for i, fd := range fields {
		headers[i] = fd.Name
	}

	var data [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return New(source, source, headers, data), nil
}
