package cli

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/imgajeed76/pgrid/internal/config"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/logging"
	"github.com/imgajeed76/pgrid/internal/state"
	"github.com/imgajeed76/pgrid/internal/tablesearch"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/ui/table"
	"github.com/imgajeed76/pgrid/internal/util"
)

// appContext is what every command needs after flags are parsed.
type appContext struct {
	cfg      *config.Config
	log      zerolog.Logger
	closeLog func()
}

var app = &appContext{
	cfg:      config.Default(),
	log:      zerolog.Nop(),
	closeLog: func() {},
}

func setupApp(cmd *cobra.Command) error {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		_ = os.Setenv("PGRID_NO_COLOR", "1")
	}

	cfg, err := config.Load()
	if err != nil {
		return util.NewError("Invalid config file").
			WithContext(config.Path()).
			WithSuggestion("pgrid config --list").
			Wrap(err)
	}

	level := cfg.Log.Level
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.LevelDebugValue
	}

	logger, closer, err := logging.New(level, cfg.LogPath())
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	logging.SetGlobal(logger)
	styles.SetSearchColors(cfg.Display.HighlightColor, cfg.Display.ActiveColor)

	app.cfg = cfg
	app.log = logging.Component("cli")
	app.closeLog = closer
	app.log.Debug().Str("cmd", cmd.CommandPath()).Str("level", level).Msg("starting")
	return nil
}

func (a *appContext) close() {
	a.closeLog()
}

func (a *appContext) formatter() *grid.Formatter {
	return &grid.Formatter{
		NullText:   a.cfg.Display.NullText,
		DateFormat: a.cfg.Display.DateFormat,
	}
}

func (a *appContext) matchOptions(cmd *cobra.Command) tablesearch.MatchOptions {
	opts := tablesearch.MatchOptions{CaseSensitive: a.cfg.Search.CaseSensitive}
	if cmd.Flags().Changed("case-sensitive") {
		opts.CaseSensitive, _ = cmd.Flags().GetBool("case-sensitive")
	}
	return opts
}

func (a *appContext) viewerOptions(ctx context.Context, cmd *cobra.Command, g *grid.Grid, initial *tablesearch.RestorableState) table.ViewerOptions {
	logger := logging.ComponentCtx(ctx, "tablesearch")
	return table.ViewerOptions{
		Title:        g.Title,
		Grid:         g,
		Formatter:    a.formatter(),
		MatchOptions: a.matchOptions(cmd),
		ColumnWidth:  a.cfg.Display.ColumnWidth,
		BatchSize:    a.cfg.Search.BatchSize,
		BatchDelay:   a.cfg.BatchDelay(),
		InitialState: initial,
		Logger:       &logger,
	}
}

// addDisplayFlags registers the flags shared by view and sql.
func addDisplayFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("find", "f", "", "Start with this search term")
	cmd.Flags().Bool("no-restore", false, "Do not restore the saved search")
	cmd.Flags().Bool("case-sensitive", false, "Match letter case exactly (overrides search.case_sensitive)")
	cmd.Flags().Bool("raw", false, "Output raw tab-separated values (for piping)")
	cmd.Flags().Bool("json", false, "Output rows as a JSON array")
	cmd.Flags().Bool("no-pager", false, "Print a plain table instead of the interactive view")
}

// displayGrid shows g and persists the final search state for source.
func displayGrid(cmd *cobra.Command, g *grid.Grid, source string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithSource(ctx, source)

	find, _ := cmd.Flags().GetString("find")
	noRestore, _ := cmd.Flags().GetBool("no-restore")
	raw, _ := cmd.Flags().GetBool("raw")
	jsonOut, _ := cmd.Flags().GetBool("json")
	noPager, _ := cmd.Flags().GetBool("no-pager")

	var store state.Store
	if app.cfg.State.Autosave || (!noRestore && find == "") {
		s, err := state.Open(ctx, app.cfg.State)
		if err != nil {
			// search state is a convenience, never a reason to fail
			app.log.Warn().Ctx(ctx).Err(err).Msg("state store unavailable")
		} else {
			store = s
			defer store.Close()
		}
	}

	var initial *tablesearch.RestorableState
	switch {
	case find != "":
		initial = &tablesearch.RestorableState{SearchTerm: find}
	case !noRestore && store != nil:
		rs, err := state.Restore(ctx, store, source)
		if err != nil {
			app.log.Warn().Ctx(ctx).Err(err).Msg("could not restore search state")
		}
		initial = rs
	}

	final, err := table.Display(app.viewerOptions(ctx, cmd, g, initial), table.DisplayOptions{
		JSON:    jsonOut,
		Raw:     raw,
		NoPager: noPager,
	})
	if err != nil {
		return err
	}

	if store == nil || !app.cfg.State.Autosave || sameState(initial, final) {
		return nil
	}
	if err := state.Persist(ctx, store, source, final); err != nil {
		app.log.Warn().Ctx(ctx).Err(err).Msg("could not save search state")
	}
	return nil
}

func sameState(initial *tablesearch.RestorableState, final tablesearch.RestorableState) bool {
	if initial == nil {
		return final.IsZero()
	}
	return reflect.DeepEqual(*initial, final)
}
