package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors used throughout pgrid
var (
	ErrUnsupportedSource = errors.New("unsupported source format")
	ErrEmptySource       = errors.New("source has no header row")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrStateNotFound     = errors.New("no saved search state")
	ErrNotConnected      = errors.New("not connected to database")
	ErrUnknownBackend    = errors.New("unknown state backend")
)

// PgridError is a structured error with context and suggestions
type PgridError struct {
	Title       string   // Short error title
	Message     string   // Detailed message
	Context     string   // What was being attempted
	Causes      []string // Possible causes
	Suggestions []string // Actionable suggestions with commands
	Err         error    // Wrapped error
}

func (e *PgridError) Error() string {
	if e.Err != nil {
		return e.Title + ": " + e.Err.Error()
	}
	return e.Title
}

func (e *PgridError) Unwrap() error {
	return e.Err
}

// Format returns the multi-line message printed by the CLI
func (e *PgridError) Format() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Error: %s\n", e.Title)

	if e.Message != "" {
		fmt.Fprintf(&sb, "\n  %s\n", e.Message)
	}
	if e.Context != "" {
		fmt.Fprintf(&sb, "\n  %s\n", e.Context)
	}
	if e.Err != nil && e.Message == "" {
		fmt.Fprintf(&sb, "\n  %s\n", e.Err)
	}

	if len(e.Causes) > 0 {
		sb.WriteString("\n  Possible causes:\n")
		for _, cause := range e.Causes {
			fmt.Fprintf(&sb, "    • %s\n", cause)
		}
	}

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n  Try:\n")
		for _, sug := range e.Suggestions {
			fmt.Fprintf(&sb, "    $ %s\n", sug)
		}
	}

	return sb.String()
}

// NewError creates a new PgridError
func NewError(title string) *PgridError {
	return &PgridError{Title: title}
}

// WithMessage adds a detailed message
func (e *PgridError) WithMessage(msg string) *PgridError {
	e.Message = msg
	return e
}

// WithContext adds context about what was being attempted
func (e *PgridError) WithContext(ctx string) *PgridError {
	e.Context = ctx
	return e
}

// WithCauses adds possible causes
func (e *PgridError) WithCauses(causes ...string) *PgridError {
	e.Causes = append(e.Causes, causes...)
	return e
}

// WithSuggestion adds an actionable suggestion
func (e *PgridError) WithSuggestion(sug string) *PgridError {
	e.Suggestions = append(e.Suggestions, sug)
	return e
}

// WithSuggestions adds multiple suggestions
func (e *PgridError) WithSuggestions(sugs ...string) *PgridError {
	e.Suggestions = append(e.Suggestions, sugs...)
	return e
}

// Wrap wraps an underlying error
func (e *PgridError) Wrap(err error) *PgridError {
	e.Err = err
	return e
}

// ══════════════════════════════════════════════════════════════════════════
// Pre-built error constructors for common cases
// ══════════════════════════════════════════════════════════════════════════

// SourceOpenError reports a file that could not be loaded as a grid
func SourceOpenError(path string, err error) *PgridError {
	e := NewError(fmt.Sprintf("Cannot open '%s'", path)).Wrap(err)
	if errors.Is(err, ErrUnsupportedSource) {
		return e.WithMessage("Supported formats: .csv, .tsv, .xlsx, .yaml, .yml, .json").
			WithSuggestion("pgrid view data.csv")
	}
	return e.WithCauses(
		"The file does not exist or is not readable",
		"The file is not valid for its extension",
	)
}

// DatabaseConnectionError returns a structured error for DB connection issues
func DatabaseConnectionError(url string, err error) *PgridError {
	return NewError("Cannot connect to database").
		WithContext(RedactURL(url)).
		WithCauses(
			"Database server is not running",
			"Invalid connection credentials",
			"Database does not exist",
		).
		WithSuggestions(
			"pgrid config state.url postgres://user@host/db",
			"pgrid config state.backend file   # Keep search state on disk",
		).
		Wrap(err)
}

// NoMatchesError is returned by find when --position points past the results
func NoMatchesError(term string, position, count int) *PgridError {
	return NewError(fmt.Sprintf("Match %d not found for '%s'", position, term)).
		WithMessage(fmt.Sprintf("The search produced %d match(es)", count))
}

// MissingArgumentError returns an error for missing required argument
func MissingArgumentError(argName, example string) *PgridError {
	e := NewError(fmt.Sprintf("Missing required argument: <%s>", argName))
	if example != "" {
		e.WithSuggestion(example)
	}
	return e
}

// RedactURL hides the password part of a connection URL.
func RedactURL(url string) string {
	scheme := strings.Index(url, "://")
	at := strings.LastIndex(url, "@")
	if scheme < 0 || at < scheme {
		return url
	}
	userinfo := url[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return url[:scheme+3] + userinfo[:colon] + ":***" + url[at:]
	}
	return url
}
