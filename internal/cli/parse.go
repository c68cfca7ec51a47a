package cli

import (
	"github.com/spf13/cobra"

	"github.com/yacchi/prefstack/layer"
)

func (a *app) newParseCommand() *cobra.Command {
	var (
		format string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse one layer and print its entries with positions",
		Long: `Parse reads a single layer and prints every entry in declaration order,
including repeated keys. Use "-" to read standard input with --format.

Example:
  prefstack parse base/user.js
  prefstack parse --json team.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := fileSpecs(args, format, cmd.InOrStdin())
			if err != nil {
				return err
			}
			s := specs[0]
			l, err := layer.Load(cmd.Context(), s.Name, s.Source, s.Parser, layer.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.stdout, entriesJSON(l.Entries()))
			}
			return newReporter(a.stdout).entries(l.Entries())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "layer format (default: from the file extension)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}
