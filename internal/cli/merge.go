package cli

import (
	"github.com/spf13/cobra"

	"github.com/yacchi/prefstack"
)

func (a *app) newMergeCommand() *cobra.Command {
	var (
		format string
		order  = prefstack.OrderFirstSeen
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Merge layers and print the effective set with provenance",
		Long: `Merge applies the layers in argument order, later files overriding earlier
ones, then environment and --set overrides. Every effective preference is
printed with the layer and position that set it.

Example:
  prefstack merge base/user.js team.toml --set browser.startup.page=3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := fileSpecs(args, format, cmd.InOrStdin())
			if err != nil {
				return err
			}
			layers, err := a.loadLayers(cmd.Context(), specs)
			if err != nil {
				return err
			}
			set := prefstack.Merge(layers...)
			a.logger.Info("merged layers", "layers", len(layers), "keys", set.Len())
			if asJSON {
				return writeJSON(a.stdout, effectiveJSON(set, order))
			}
			return newReporter(a.stdout).effective(set, order)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "format of every layer (default: from the file extension)")
	cmd.Flags().Var(&order, "order", "key order: first-seen or lexical")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the effective set as JSON")
	return cmd
}
