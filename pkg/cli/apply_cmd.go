package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/declarative"
)

func newApplyCmd(db *dbFlags) *cobra.Command {
	var (
		noColor      bool
		verbose      bool
		validateOnly bool
	)

	cmd := &cobra.Command{
		Use:   "apply <dir>",
		Short: "Apply YAML fixtures to the store",
		Long: "Reads profiles.yaml, teams.yaml, groups.yaml, entities.yaml and grants.yaml from <dir>, " +
			"validates them, and writes whatever is missing. Applying the same directory twice changes nothing.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			// 1. Load desired state from YAML files.
			desired, err := declarative.LoadDirectory(args[0])
			if err != nil {
				return fmt.Errorf("load fixtures: %w", err)
			}

			// 2. Validate before touching the store.
			if verrs := declarative.Validate(desired); len(verrs) > 0 {
				errOut := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(errOut, "Fixtures have %d validation error(s):\n", len(verrs))
				for _, ve := range verrs {
					_, _ = fmt.Fprintf(errOut, "  - %s\n", ve.Error())
				}
				return fmt.Errorf("fixtures are invalid")
			}
			if validateOnly {
				_, _ = fmt.Fprintln(out, "Fixtures are valid.")
				return nil
			}

			// 3. Write.
			a, store, err := openApp(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			res, err := a.Fixtures.Apply(cmd.Context(), desired)
			if res != nil {
				if getOutputFormat(cmd) == "json" {
					if jerr := declarative.FormatJSON(out, res); jerr != nil {
						return jerr
					}
				} else {
					declarative.FormatText(out, res, noColor || !isTerminal(out), verbose)
				}
			}
			if err != nil {
				return fmt.Errorf("apply: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also list unchanged resources")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Load and validate without writing")

	return cmd
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
