// Package cli implements accessctl, the operator command line for the
// access store: migrations, fixtures, access checks and grant listings.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/app"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		if getOutputFormat(rootCmd) == "json" {
			_ = printJSON(stdout, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// dbFlags are the store connection flags shared by every command.
type dbFlags struct {
	driver      string
	path        string
	databaseURL string
}

func newRootCmd() *cobra.Command {
	var (
		db     dbFlags
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "accessctl",
		Short:         "Access store administration",
		Long:          "Command-line tool for the entity permission store: migrate, load fixtures, check access and list grants.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Apply precedence: flag > env > default
			if !cmd.Flags().Changed("db-driver") {
				if v := os.Getenv("DB_DRIVER"); v != "" {
					db.driver = v
				}
			}
			if !cmd.Flags().Changed("db-path") {
				if v := os.Getenv("DB_PATH"); v != "" {
					db.path = v
				}
			}
			if !cmd.Flags().Changed("database-url") {
				if v := os.Getenv("DATABASE_URL"); v != "" {
					db.databaseURL = v
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&db.driver, "db-driver", "sqlite", "Database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&db.path, "db-path", "access.sqlite", "SQLite database file")
	rootCmd.PersistentFlags().StringVar(&db.databaseURL, "database-url", "", "Postgres connection URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newMigrateCmd(&db))
	rootCmd.AddCommand(newApplyCmd(&db))
	rootCmd.AddCommand(newCheckCmd(&db))
	rootCmd.AddCommand(newGrantsCmd(&db))

	return rootCmd
}

// openApp opens and migrates the store named by the flags and wires the
// services over it. The caller closes the returned database.
func openApp(ctx context.Context, f *dbFlags) (*app.App, *app.Database, error) {
	cfg := &config.Config{
		DBDriver:    f.driver,
		DBPath:      f.path,
		DatabaseURL: f.databaseURL,
		DBReadPool:  2,
	}
	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := app.New(app.Deps{
		Cfg:     cfg,
		WriteDB: db.WriteDB,
		ReadDB:  db.ReadDB,
		Dialect: db.Dialect,
		Logger:  logger,
	})
	return a, db, nil
}
