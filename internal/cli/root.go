package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pgrid",
		Short: "Browse and search tabular data in the terminal",
		Long: `pgrid opens CSV, TSV, XLSX, YAML and JSON files or PostgreSQL query
results in an interactive table with incremental search.

The search runs in batches so large tables stay responsive, highlights
every occurrence and remembers where you left off for each source.

For more information, see: https://github.com/imgajeed76/pgrid`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupApp(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
	cmd.PersistentFlags().String("log-level", "", "Override log.level (trace, debug, info, warn, error, disabled)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.SetVersionTemplate(fmt.Sprintf("pgrid version %s\n  commit: %s\n  built:  %s\n", Version, CommitSHA, BuildDate))

	cmd.AddCommand(
		newVersionCmd(),
		newViewCmd(),
		newSQLCmd(),
		newFindCmd(),
		newStateCmd(),
		newConfigCmd(),
		newCompletionCmd(cmd),
	)
	return cmd
}

// Execute runs the root command and prints errors the way users expect:
// structured errors with causes and suggestions, everything else as a line.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		return err
	}
	return nil
}

func printError(err error) {
	var pgridErr *util.PgridError
	if errors.As(err, &pgridErr) {
		fmt.Fprintln(os.Stderr, pgridErr.Format())
		return
	}
	fmt.Fprintln(os.Stderr, styles.ErrorMsg(err.Error()))
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pgrid.

Bash:
  $ source <(pgrid completion bash)

Zsh:
  $ pgrid completion zsh > "${fpath[1]}/_pgrid"

Fish:
  $ pgrid completion fish | source

PowerShell:
  PS> pgrid completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pgrid version %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", CommitSHA)
			fmt.Fprintf(out, "  built:  %s\n", BuildDate)
		},
	}
}
