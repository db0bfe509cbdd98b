package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

func newCheckCmd(db *dbFlags) *cobra.Command {
	var (
		authID   string
		entity   entityRefValue
		role     = roleValue{role: domain.RoleViewer}
		failDeny bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether an identity holds a role on an entity",
		Example: `  accessctl check --auth-id auth|bob --entity tracker:7b9c... --role editor
  accessctl check --auth-id auth|bob --entity track:3f1a... -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, required := entity.ref, role.role

			a, store, err := openApp(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			d, err := a.Services.Access.DecideForAuthID(cmd.Context(), authID, ref, required)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				if err := printJSON(out, map[string]any{
					"auth_id":  authID,
					"entity":   ref.String(),
					"role":     string(required),
					"allowed":  d.Allowed,
					"path":     string(d.Path),
					"group_id": d.GroupID,
				}); err != nil {
					return err
				}
			} else if err := printTable(out,
				[]string{"ENTITY", "ROLE", "ALLOWED", "PATH"},
				[][]string{{ref.String(), string(required), strconv.FormatBool(d.Allowed), string(d.Path)}},
			); err != nil {
				return err
			}

			if failDeny && !d.Allowed {
				return fmt.Errorf("%s access to %s denied", required, ref)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&authID, "auth-id", "", "Identity provider subject of the caller")
	addEntityFlag(cmd.Flags(), &entity)
	cmd.Flags().Var(&role, "role", "Required role (owner, editor, commenter, viewer)")
	cmd.Flags().BoolVar(&failDeny, "fail-on-deny", false, "Exit non-zero when access is denied")
	_ = cmd.MarkFlagRequired("auth-id")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}
