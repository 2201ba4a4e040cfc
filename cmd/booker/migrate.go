package main

import (
	"database/sql"
	"fmt"
	"io"
	"text/tabwriter"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/campsite-booking/internal/config"
	"github.com/pkordes/campsite-booking/migrations"
)

func migrateCmd(opts *rootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			key := "DATABASE_URL"
			if local {
				key = "LOCAL_DATABASE_URL"
			}
			url, err := config.LoadDatabaseURL(opts.envFile, key)
			if err != nil {
				return err
			}
			db, err := sql.Open("pgx", url)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
			if err != nil {
				return fmt.Errorf("create goose provider: %w", err)
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch action {
			case "up":
				results, err := provider.Up(ctx)
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				return printResults(out, results)
			case "down":
				result, err := provider.Down(ctx)
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				return printResults(out, []*goose.MigrationResult{result})
			default:
				statuses, err := provider.Status(ctx)
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				return printStatuses(out, statuses)
			}
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Migrate the campground database (LOCAL_DATABASE_URL) instead of the head office")
	return cmd
}

func printResults(w io.Writer, results []*goose.MigrationResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no migrations to apply")
		return err
	}
	writer := tabwriter.NewWriter(w, 2, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "VERSION\tDIRECTION\tFILE\tDURATION")
	for _, r := range results {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", r.Source.Version, r.Direction, r.Source.Path, r.Duration)
	}
	return writer.Flush()
}

func printStatuses(w io.Writer, statuses []*goose.MigrationStatus) error {
	writer := tabwriter.NewWriter(w, 2, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "VERSION\tSTATE\tFILE\tAPPLIED AT")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, s.Source.Path, applied)
	}
	return writer.Flush()
}
