package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
)

func newMigrateCmd(db *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, err := openApp(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			v, err := internaldb.MigrationVersion(cmd.Context(), store.WriteDB, store.Dialect)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"driver":         string(store.Dialect),
					"schema_version": v,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %d (%s).\n", v, store.Dialect)
			return nil
		},
	}
}
