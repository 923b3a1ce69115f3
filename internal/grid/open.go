package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/imgajeed76/pgrid/internal/util"
)

// Options tune how a file is loaded.
type Options struct {
	Sheet     string // workbook sheet, empty for the first
	Delimiter rune   // overrides the delimiter implied by the extension
}

// Open loads a file, choosing the reader by extension.
func Open(path string, opts Options) (*Grid, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, opts.Sheet)
	case ".csv", ".tsv", ".tab", ".txt":
		comma := ','
		if ext != ".csv" {
			comma = '\t'
		}
		if opts.Delimiter != 0 {
			comma = opts.Delimiter
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadCSV(f, comma, path)
	case ".yaml", ".yml", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadYAML(f, path)
	default:
		return nil, fmt.Errorf("%w: %q", util.ErrUnsupportedSource, ext)
	}
}

// Expand resolves glob patterns (including **) into file paths. Patterns
// without meta characters are returned as given so missing files surface
// as open errors. Duplicates are dropped; each pattern's matches are sorted.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
			continue
		}
		if !doublestar.ValidatePathPattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
