package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

func newGrantsCmd(db *dbFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grants",
		Short: "Inspect grants",
	}
	cmd.AddCommand(newGrantsListCmd(db))
	return cmd
}

func newGrantsListCmd(db *dbFlags) *cobra.Command {
	var (
		entity  entityRefValue
		subject subjectValue
		page    domain.PageRequest
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active grants on an entity or held by a subject",
		Example: `  accessctl grants list --entity track:3f1a...
  accessctl grants list --subject group:9d2e... -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, store, err := openApp(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			var (
				grants []domain.Grant
				total  int64
			)
			if entity.set {
				grants, total, err = a.Repos.Grants.ListActiveForEntity(cmd.Context(), entity.ref, page)
			} else {
				grants, total, err = a.Repos.Grants.ListActiveForSubject(cmd.Context(), subject.subject, page)
			}
			if err != nil {
				return err
			}
			next := domain.NextPageToken(page.Offset(), page.Limit(), total)

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				type jsonGrant struct {
					ID        string    `json:"id"`
					Entity    string    `json:"entity"`
					Subject   string    `json:"subject"`
					Role      string    `json:"permission_role"`
					GrantedBy string    `json:"granted_by,omitempty"`
					GrantedAt time.Time `json:"granted_at"`
				}
				data := make([]jsonGrant, 0, len(grants))
				for _, g := range grants {
					data = append(data, jsonGrant{
						ID:        g.ID,
						Entity:    g.Entity.String(),
						Subject:   g.Subject.String(),
						Role:      string(g.Role),
						GrantedBy: g.GrantedBy,
						GrantedAt: g.GrantedAt,
					})
				}
				return printJSON(out, map[string]any{
					"data":            data,
					"total":           total,
					"next_page_token": next,
				})
			}

			rows := make([][]string, 0, len(grants))
			for _, g := range grants {
				rows = append(rows, []string{g.ID, g.Entity.String(), g.Subject.String(), string(g.Role), g.GrantedAt.Format(time.RFC3339)})
			}
			if err := printTable(out, []string{"ID", "ENTITY", "SUBJECT", "ROLE", "GRANTED AT"}, rows); err != nil {
				return err
			}
			if next != "" {
				_, _ = fmt.Fprintf(out, "\nMore results: --page-token %s\n", next)
			}
			return nil
		},
	}

	addEntityFlag(cmd.Flags(), &entity)
	cmd.Flags().Var(&subject, "subject", "Subject reference as user:<profile-id> or group:<group-id>")
	cmd.Flags().IntVar(&page.MaxResults, "max-results", 0, "Page size (default 100, max 1000)")
	cmd.Flags().StringVar(&page.PageToken, "page-token", "", "Token from a previous page")
	cmd.MarkFlagsOneRequired("entity", "subject")
	cmd.MarkFlagsMutuallyExclusive("entity", "subject")

	return cmd
}
