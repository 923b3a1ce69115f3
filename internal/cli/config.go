package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/pgrid/internal/config"
	"github.com/imgajeed76/pgrid/internal/util"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <key> [value]",
		Short: "Get and set pgrid options",
		Long: `Get and set options in the global config file.

Examples:
  pgrid config search.batch_size          # Get value
  pgrid config search.batch_size 500      # Set value
  pgrid config state.backend postgres     # Keep search state in PostgreSQL
  pgrid config --list                     # List all options

` + config.GenerateHelpText(),
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}

	cmd.Flags().BoolP("list", "l", false, "List all configuration")
	cmd.Flags().Bool("path", false, "Print the config file path")

	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	listAll, _ := cmd.Flags().GetBool("list")
	showPath, _ := cmd.Flags().GetBool("path")
	out := cmd.OutOrStdout()
	cfg := app.cfg

	switch {
	case showPath:
		fmt.Fprintln(out, config.Path())
		return nil

	case listAll:
		for _, key := range config.ListKeys() {
			value, _ := cfg.GetValue(key)
			fmt.Fprintf(out, "%s=%s\n", key, value)
		}
		return nil

	case len(args) == 0:
		return util.MissingArgumentError("key", "pgrid config search.batch_size")
	}

	key := strings.ToLower(args[0])

	if len(args) == 1 {
		value, ok := cfg.GetValue(key)
		if !ok {
			return unknownKeyError(key)
		}
		fmt.Fprintln(out, value)
		return nil
	}

	if err := cfg.SetValue(key, args[1]); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	app.log.Info().Str("key", key).Str("value", args[1]).Msg("config updated")
	return nil
}

func unknownKeyError(key string) error {
	return util.NewError(fmt.Sprintf("Unknown config key: %s", key)).
		WithMessage("Valid keys: " + strings.Join(config.ListKeys(), ", ")).
		WithSuggestion("pgrid config --list")
}
