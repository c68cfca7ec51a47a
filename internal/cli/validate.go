package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yacchi/prefstack"
	"github.com/yacchi/prefstack/validate"
)

func (a *app) newValidateCommand() *cobra.Command {
	var (
		format     string
		schemaPath string
		strict     bool
		minimum    = "info"
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check layers for duplicates, type conflicts and dead overrides",
		Long: `Validate merges the layers like merge and reports:

  duplicate-key        a key set more than once in one layer (error)
  type-conflict        a value whose type differs from an earlier layer or the schema (error)
  unknown-key          a key the schema does not declare (info)
  deprecated-key       a key the schema marks deprecated (warning)
  redundant-override   a value every later layer overrides with the same value (info)

With --strict the command exits with status 1 when any error is found.

Example:
  prefstack validate base/user.js team.yaml --schema schema.yaml --strict`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			floor, err := validate.ParseSeverity(minimum)
			if err != nil {
				return err
			}
			s, err := a.loadSchema(cmd.Context(), schemaPath)
			if err != nil {
				return err
			}
			specs, err := fileSpecs(args, format, cmd.InOrStdin())
			if err != nil {
				return err
			}
			layers, err := a.loadLayers(cmd.Context(), specs)
			if err != nil {
				return err
			}

			set := prefstack.Merge(layers...)
			issues := validate.Run(layers, set, s)
			shown := issues.Filter(floor)
			if asJSON {
				err = writeJSON(a.stdout, issuesJSON(shown))
			} else {
				err = newReporter(a.stdout).issues(shown)
			}
			if err != nil {
				return err
			}

			if strict && issues.HasErrors() {
				return fmt.Errorf("%w: %d error(s)", prefstack.ErrValidationFailed, len(issues.Filter(validate.SeverityError)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "format of every layer (default: from the file extension)")
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (YAML, TOML or JSON)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 1 when any error-severity issue exists")
	cmd.Flags().StringVar(&minimum, "min-severity", minimum, "lowest severity to print: info, warning or error")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print issues as JSON")
	return cmd
}
