package tablesearch

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MatchOptions controls how a term is compared with cell text.
type MatchOptions struct {
	CaseSensitive bool
}

// Occurrence is a byte range [Start, End) in the normalized text.
type Occurrence struct {
	Start int
	End   int
}

// FindOccurrences returns the NFC form of text and the non-overlapping
// occurrences of term in it, left to right. Offsets refer to the
// returned text.
func FindOccurrences(text, term string, opts MatchOptions) (string, []Occurrence) {
	text = norm.NFC.String(text)
	if term == "" || text == "" {
		return text, nil
	}
	term = norm.NFC.String(term)

	if opts.CaseSensitive {
		return text, findExact(text, term)
	}
	return text, findFolded(text, term)
}

// CountOccurrences returns the number of occurrences FindOccurrences finds.
func CountOccurrences(text, term string, opts MatchOptions) int {
	_, occ := FindOccurrences(text, term, opts)
	return len(occ)
}

func findExact(text, term string) []Occurrence {
	var out []Occurrence
	for offset := 0; offset <= len(text)-len(term); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			break
		}
		start := offset + i
		out = append(out, Occurrence{Start: start, End: start + len(term)})
		offset = start + len(term)
	}
	return out
}

// findFolded compares rune windows of the term's length using simple case
// folding, which maps rune to rune, so window and term have equal rune counts.
func findFolded(text, term string) []Occurrence {
	termRunes := utf8.RuneCountInString(term)

	// byte offset of every rune start, plus len(text)
	starts := make([]int, 0, len(text)+1)
	for i := range text {
		starts = append(starts, i)
	}
	starts = append(starts, len(text))

	var out []Occurrence
	runes := len(starts) - 1
	for r := 0; r+termRunes <= runes; {
		start, end := starts[r], starts[r+termRunes]
		if strings.EqualFold(text[start:end], term) {
			out = append(out, Occurrence{Start: start, End: end})
			r += termRunes
			continue
		}
		r++
	}
	return out
}

// TextRenderer returns a CellRenderer that looks up cell text with text
// and reports its occurrence count without adding any markup.
func TextRenderer(text func(rowIndex int, columnID string) (string, error), opts MatchOptions) CellRenderer {
	return CellRendererFunc(func(props CellProps) (string, error) {
		s, err := text(props.RowIndex, props.ColumnID)
		if err != nil {
			return "", err
		}
		s, occ := FindOccurrences(s, props.Term, opts)
		if props.OnHighlightsCountFound != nil {
			props.OnHighlightsCountFound(len(occ))
		}
		return s, nil
	})
}
