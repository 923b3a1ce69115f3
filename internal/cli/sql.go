package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/imgajeed76/pgrid/internal/db"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/ui"
	"github.com/imgajeed76/pgrid/internal/util"
)

func newSQLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Run a read-only PostgreSQL query and browse the result",
		Long: `Run a query against PostgreSQL and open the rows in the viewer.

The query runs in a read-only transaction. The connection URL comes from
--url, then $PGRID_DATABASE_URL, then $DATABASE_URL.

The search state is saved per query text, so running the same query
again restores the last search.

Examples:
  pgrid sql "SELECT * FROM users" --url postgres://localhost/app
  pgrid sql "SELECT id, email FROM users" --find example.com
  pgrid sql "SELECT * FROM orders" --raw > orders.tsv`,
		Args: cobra.ExactArgs(1),
		RunE: runSQL,
	}

	cmd.Flags().String("url", "", "PostgreSQL connection URL")
	cmd.Flags().Int("timeout", 60, "Query timeout in seconds")
	addDisplayFlags(cmd)

	return cmd
}

func databaseURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		return url
	}
	if url := os.Getenv("PGRID_DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("DATABASE_URL")
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	timeout, _ := cmd.Flags().GetInt("timeout")

	url := databaseURL(cmd)
	if url == "" {
		return util.MissingArgumentError("url", `pgrid sql "SELECT 1" --url postgres://user@localhost/db`).
			WithMessage("No connection URL given and $DATABASE_URL is not set")
	}

	g, err := fetchQuery(cmd.Context(), url, query, time.Duration(timeout)*time.Second)
	if err != nil {
		return err
	}
	return displayGrid(cmd, g, "sql:"+query)
}

func fetchQuery(parent context.Context, url, query string, timeout time.Duration) (*grid.Grid, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	spinner := ui.NewSpinner("Running query")
	spinner.Start()

	conn, err := db.Connect(ctx, url)
	if err != nil {
		spinner.Stop()
		return nil, util.DatabaseConnectionError(url, err)
	}
	defer conn.Close()

	var g *grid.Grid
	err = conn.ReadOnlyQuery(ctx, query, func(rows pgx.Rows) error {
		var err error
		g, err = grid.FromRows(rows, "sql")
		return err
	})
	if err != nil {
		spinner.Stop()
		return nil, util.NewError("Query failed").
			WithContext(query).
			WithCauses("Syntax error in the query", "The query modifies data (only reads are allowed)").
			Wrap(err)
	}
	spinner.Success(fmt.Sprintf("%d rows", g.RowsCount()))
	app.log.Debug().Int("rows", g.RowsCount()).Msg("query finished")
	return g, nil
}
