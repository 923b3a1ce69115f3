package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgajeed76/pgrid/internal/config"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/logging"
	"github.com/imgajeed76/pgrid/internal/state"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/util"
)

// isolate points config, data and logs at temp dirs.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("PGRID_NO_COLOR", "1")
	app.cfg = config.Default()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func peopleGrid() *grid.Grid {
	return grid.New("people.csv", "people", []string{"name", "city"}, [][]any{
		{"Ada", "London"},
		{"Grace", "Arlington"},
		{"Adalind", "London"},
	})
}

func TestFindInGrid(t *testing.T) {
	isolate(t)
	res, err := findInGrid(context.Background(), peopleGrid(), findOptions{term: "lon", batchSize: 1})
	require.NoError(t, err)

	assert.True(t, res.Complete)
	assert.Equal(t, 2, res.MatchesCount)
	assert.Equal(t, 3, res.RowsScanned)
	assert.Equal(t, []string{"name", "city"}, res.Columns)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 2, res.Matches[1].RowIndex)

	var out bytes.Buffer
	printFindResults(&out, []findResult{res})
	assert.Contains(t, out.String(), "people.csv")
	assert.Contains(t, out.String(), "city:1")
}

func TestFindInGridLogsSource(t *testing.T) {
	isolate(t)
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	var buf bytes.Buffer
	logging.SetGlobal(logging.NewWriter(zerolog.DebugLevel, &buf))

	ctx := logging.WithSource(context.Background(), "people.csv")
	_, err := findInGrid(ctx, peopleGrid(), findOptions{term: "lon", batchSize: 1})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"scan finished"`)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Contains(t, line, `"source":"people.csv"`)
	}
}

func TestFindInGridColumnsAndPosition(t *testing.T) {
	isolate(t)
	res, err := findInGrid(context.Background(), peopleGrid(), findOptions{
		term: "ada", columns: []string{"NAME"}, position: 2, batchSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, res.Columns)
	require.NotNil(t, res.Match)
	assert.Equal(t, tablesearch.ActiveMatch{RowIndex: 2, ColumnID: "name", MatchPosition: 2}, *res.Match)
	assert.Equal(t, "Adalind", res.MatchText)

	_, err = findInGrid(context.Background(), peopleGrid(), findOptions{term: "ada", position: 9, batchSize: 2})
	var pgridErr *util.PgridError
	assert.ErrorAs(t, err, &pgridErr)

	_, err = findInGrid(context.Background(), peopleGrid(), findOptions{term: "ada", columns: []string{"zip"}})
	assert.Error(t, err)
}

func TestFindInGridCancelled(t *testing.T) {
	isolate(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := findInGrid(ctx, peopleGrid(), findOptions{term: "a", batchSize: 1})
	require.NoError(t, err)
	assert.False(t, res.Complete)
	assert.Equal(t, 0, res.MatchesCount)

	var out bytes.Buffer
	printFindResults(&out, []findResult{res})
	assert.Contains(t, out.String(), "stopped after 0 of 3 rows")
}

func TestFindCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("name\nAda\nBob\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("name\nada ada\n"), 0644))

	out, err := run(t, "find", "ada", filepath.Join(dir, "*.csv"), "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "3 matches in 2 file(s)")

	out, err = run(t, "find", "ada", filepath.Join(dir, "*.csv"), "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"matchesCount": 2`)

	_, err = run(t, "find", "ada", filepath.Join(dir, "*.csv"), "--position", "1")
	assert.Error(t, err)

	_, err = run(t, "find", "ada", filepath.Join(dir, "*.parquet"))
	assert.Error(t, err)
}

func TestStateCommands(t *testing.T) {
	isolate(t)
	ctx := context.Background()
	store := state.NewFileStore("")
	rs := tablesearch.RestorableState{
		SearchTerm:  "ada",
		ActiveMatch: &tablesearch.ActiveMatch{RowIndex: 2, ColumnID: "name", MatchPosition: 2},
	}
	require.NoError(t, state.Persist(ctx, store, "sql:select 1", rs))

	out, err := run(t, "state", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "sql:select 1")

	out, err = run(t, "state", "show", "sql:select 1")
	require.NoError(t, err)
	assert.Contains(t, out, `"ada"`)
	assert.Contains(t, out, "row 2")

	_, err = run(t, "state", "rm", "sql:select 1")
	require.NoError(t, err)

	out, err = run(t, "state", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved search states")

	_, err = run(t, "state", "show", "nothing")
	assert.ErrorIs(t, err, util.ErrStateNotFound)
}

func TestConfigCommand(t *testing.T) {
	isolate(t)

	_, err := run(t, "config", "search.batch_size", "50")
	require.NoError(t, err)

	out, err := run(t, "config", "search.batch_size")
	require.NoError(t, err)
	assert.Equal(t, "50", strings.TrimSpace(out))

	out, err = run(t, "config", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "search.batch_size=50\n")
	assert.Contains(t, out, "state.backend=file\n")

	_, err = run(t, "config", "search.batch_size", "0")
	assert.Error(t, err)
	_, err = run(t, "config", "nope.key")
	assert.Error(t, err)
}

func TestSourceOptions(t *testing.T) {
	cmd := newViewCmd()
	require.NoError(t, cmd.Flags().Set("delimiter", `\t`))
	opts, err := sourceOptions(cmd)
	require.NoError(t, err)
	assert.Equal(t, '\t', opts.Delimiter)

	require.NoError(t, cmd.Flags().Set("delimiter", ";;"))
	_, err = sourceOptions(cmd)
	assert.Error(t, err)
}

func TestSameState(t *testing.T) {
	rs := tablesearch.RestorableState{SearchTerm: "x"}
	assert.True(t, sameState(nil, tablesearch.RestorableState{}))
	assert.False(t, sameState(nil, rs))
	assert.True(t, sameState(&rs, tablesearch.RestorableState{SearchTerm: "x"}))
	assert.False(t, sameState(&rs, tablesearch.RestorableState{}))
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pgrid version dev")
}
