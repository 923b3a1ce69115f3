package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/pgrid/internal/state"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect saved search states",
		Long: `The viewer saves the search term and the active match for every
source when it exits. These commands list, show and remove them.

A state is addressed by the file path (or "sql:<query>"), its key, or
its id.

Examples:
  pgrid state list
  pgrid state show people.csv
  pgrid state rm 01j9x2k`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved search states",
		Args:  cobra.NoArgs,
		RunE:  runStateList,
	}
	list.Flags().Bool("json", false, "Output as JSON")

	show := &cobra.Command{
		Use:   "show <source|id>",
		Short: "Show a saved search state",
		Args:  cobra.ExactArgs(1),
		RunE:  runStateShow,
	}
	show.Flags().Bool("json", false, "Output as JSON")

	rm := &cobra.Command{
		Use:   "rm <source|id>...",
		Short: "Remove saved search states",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStateRm,
	}

	cmd.AddCommand(list, show, rm)
	return cmd
}

func openStore(cmd *cobra.Command) (context.Context, state.Store, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := state.Open(ctx, app.cfg.State)
	return ctx, store, err
}

func runStateList(cmd *cobra.Command, _ []string) error {
	ctx, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if snaps == nil {
			snaps = []state.Snapshot{}
		}
		return writeJSON(out, snaps)
	}

	if len(snaps) == 0 {
		fmt.Fprintln(out, styles.MutedMsg("No saved search states"))
		return nil
	}
	for _, s := range snaps {
		fmt.Fprintf(out, "%s  %-8s  %-20q  %s\n",
			styles.MutedMsg(util.ShortID(s.ID)),
			util.RelativeTimeShort(s.SavedAt),
			s.SearchTerm,
			styles.Source(s.Source))
	}
	return nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	ctx, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := state.Find(ctx, store, args[0])
	if err != nil {
		return stateLookupError(args[0], err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, s)
	}

	fmt.Fprintf(out, "%s %s\n", styles.SectionHeader("Source"), s.Source)
	fmt.Fprintf(out, "  id:      %s\n", s.ID)
	fmt.Fprintf(out, "  saved:   %s (%s)\n", s.SavedAt.Local().Format("2006-01-02 15:04:05"), util.RelativeTimeShort(s.SavedAt))
	fmt.Fprintf(out, "  term:    %q\n", s.SearchTerm)
	if m := s.ActiveMatch; m != nil {
		fmt.Fprintf(out, "  match:   #%d  row %d  %s  occurrence %d\n",
			m.MatchPosition, m.RowIndex, m.ColumnID, m.MatchIndexWithinCell+1)
	} else {
		fmt.Fprintf(out, "  match:   %s\n", styles.MutedMsg("none"))
	}
	return nil
}

func runStateRm(cmd *cobra.Command, args []string) error {
	ctx, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	for _, ref := range args {
		s, err := state.Find(ctx, store, ref)
		if err != nil {
			return stateLookupError(ref, err)
		}
		if err := store.Delete(ctx, s.Key); err != nil {
			return err
		}
		fmt.Fprintln(out, styles.SuccessMsg("Removed search state for "+s.Source))
	}
	return nil
}

func stateLookupError(ref string, err error) error {
	if errors.Is(err, util.ErrStateNotFound) {
		return util.NewError(fmt.Sprintf("No saved search state for '%s'", ref)).
			WithSuggestion("pgrid state list").
			Wrap(err)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
