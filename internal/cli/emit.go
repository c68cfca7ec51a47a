package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yacchi/prefstack"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/schema"
	"github.com/yacchi/prefstack/source/fs"
	"github.com/yacchi/prefstack/validate"
)

func (a *app) newEmitCommand() *cobra.Command {
	var (
		format     string
		order      = prefstack.OrderFirstSeen
		output     string
		schemaPath string
		strict     bool
		provenance bool
		header     []string
		statement  string
	)
	cmd := &cobra.Command{
		Use:   "emit <file>...",
		Short: "Merge layers and write a canonical user.js",
		Long: `Emit merges the layers like merge and writes one user_pref statement per
effective preference. The output is byte-identical for the same inputs.
With -o the file is replaced atomically.

Example:
  prefstack emit base/user.js team.toml --order lexical -o profile/user.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.loadSchema(ctx, schemaPath)
			if err != nil {
				return err
			}
			specs, err := fileSpecs(args, format, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var emit []prefstack.EmitOption
			if len(header) > 0 {
				emit = append(emit, prefstack.WithHeader(header...))
			}
			if provenance {
				emit = append(emit, prefstack.WithProvenance())
			}
			if statement != "" {
				emit = append(emit, prefstack.WithStatement(statement))
			}
			return a.compile(ctx, specs, s, prefstack.CompileOptions{
				Order:  order,
				Strict: strict,
				Emit:   emit,
			}, output)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "", "format of every layer (default: from the file extension)")
	f.Var(&order, "order", "statement order: first-seen or lexical")
	f.StringVarP(&output, "output", "o", "", "write to this file instead of standard output")
	f.StringVarP(&schemaPath, "schema", "s", "", "schema file (YAML, TOML or JSON)")
	f.BoolVar(&strict, "strict", false, "write nothing and exit with status 1 when any error-severity issue exists")
	f.BoolVar(&provenance, "provenance", false, "append a // from <layer> comment to every statement")
	f.StringArrayVar(&header, "header", nil, "leading comment line (repeatable)")
	f.StringVar(&statement, "statement", "", `statement name (default "user_pref")`)
	return cmd
}

// compile runs the pipeline over specs plus overrides and writes the
// output to path, or stdout when path is empty. Warnings and errors are
// reported on stderr.
func (a *app) compile(ctx context.Context, specs []layer.Spec, s *schema.Schema, opts prefstack.CompileOptions, path string) error {
	extra, err := a.overrideLayers(specs)
	if err != nil {
		return err
	}
	opts.Layers = specs
	opts.Extra = extra
	opts.Schema = s
	opts.Logger = a.logger

	res, err := prefstack.Compile(ctx, opts)
	if res != nil {
		if shown := res.Issues.Filter(validate.SeverityWarning); len(shown) > 0 {
			if rerr := newReporter(a.stderr).issues(shown); rerr != nil {
				return rerr
			}
		}
	}
	if err != nil {
		if errors.Is(err, prefstack.ErrValidationFailed) {
			return fmt.Errorf("%w: output not written", prefstack.ErrValidationFailed)
		}
		return err
	}

	if path == "" {
		_, err = a.stdout.Write(res.Output)
		return err
	}
	dst := fs.New(path)
	if err := dst.WriteFile(ctx, res.Output); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	a.logger.Info("wrote user.js", "path", dst.String(), "keys", res.Set.Len())
	return nil
}
