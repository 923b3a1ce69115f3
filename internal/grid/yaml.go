package grid

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imgajeed76/pgrid/internal/util"
)

// LoadYAML reads a list of records. JSON arrays of objects are valid YAML
// and load the same way. Columns appear in first-seen key order.
func LoadYAML(r io.Reader, source string) (*Grid, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, util.ErrEmptySource
		}
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	list := &doc
	if list.Kind == yaml.DocumentNode && len(list.Content) > 0 {
		list = list.Content[0]
	}
	if list.Kind == yaml.MappingNode {
		// {key: [records]} with a single list-valued key
		var seq *yaml.Node
		for i := 1; i < len(list.Content); i += 2 {
			if list.Content[i].Kind == yaml.SequenceNode {
				if seq != nil {
					seq = nil
					break
				}
				seq = list.Content[i]
			}
		}
		if seq != nil {
			list = seq
		}
	}
	if list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("parse %s: expected a list of records", source)
	}

	var headers []string
	index := make(map[string]int)
	rows := make([][]any, 0, len(list.Content))

	for n, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("parse %s: record %d is not a mapping", source, n+1)
		}
		row := make([]any, len(headers))
		for i := 0; i+1 < len(item.Content); i += 2 {
			key := item.Content[i].Value
			col, ok := index[key]
			if !ok {
				col = len(headers)
				index[key] = col
				headers = append(headers, key)
			}
			var v any
			if err := item.Content[i+1].Decode(&v); err != nil {
				return nil, fmt.Errorf("parse %s: record %d field %q: %w", source, n+1, key, err)
			}
			for len(row) <= col {
				row = append(row, nil)
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	if len(headers) == 0 {
		return nil, util.ErrEmptySource
	}

	return New(source, source, headers, rows), nil
}
