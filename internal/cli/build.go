package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yacchi/prefstack"
	"github.com/yacchi/prefstack/internal/config"
	"github.com/yacchi/prefstack/source/resolve"
	"github.com/yacchi/prefstack/watcher"
)

type projectFlags struct {
	file   string
	output string
	order  prefstack.Order
	strict bool
}

func (pf *projectFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&pf.file, "config", "c", "", "project file (default: ./prefstack.toml)")
	f.StringVarP(&pf.output, "output", "o", "", "override the project output path")
	f.Var(&pf.order, "order", "override the project order: first-seen or lexical")
	f.BoolVar(&pf.strict, "strict", false, "override the project strict setting")
}

// project loads the project file and returns it with a build function
// honoring flag overrides.
func (a *app) project(cmd *cobra.Command, pf *projectFlags) (*config.Project, func(context.Context) error, error) {
	path := pf.file
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, err
		}
		if path, err = config.Find(wd); err != nil {
			return nil, nil, err
		}
	}
	p, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := a.configureLogger(p.Log.Level, p.Log.Format); err != nil {
		return nil, nil, err
	}
	if p.EnvPrefix != "" && !cmd.Flags().Changed("env-prefix") {
		a.envPrefix = p.EnvPrefix
	}

	order, _ := prefstack.ParseOrder(p.Order)
	if cmd.Flags().Changed("order") {
		order = pf.order
	}
	strict := p.Strict
	if cmd.Flags().Changed("strict") {
		strict = pf.strict
	}
	output := p.Output
	if pf.output != "" {
		output = pf.output
	}

	build := func(ctx context.Context) error {
		specs, err := p.LayerSpecs(resolve.Options{})
		if err != nil {
			return err
		}
		s, err := a.loadSchema(ctx, p.Schema)
		if err != nil {
			return err
		}
		return a.compile(ctx, specs, s, prefstack.CompileOptions{
			Order:  order,
			Strict: strict,
			Emit:   p.EmitOptions(),
		}, output)
	}
	a.logger.Debug("loaded project", "path", path, "layers", len(p.Layers))
	return p, build, nil
}

func (a *app) newBuildCommand() *cobra.Command {
	var pf projectFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the layers listed in prefstack.toml",
		Long: `Build reads the project file and runs the whole pipeline: load every
[[layer]], merge by priority, validate against the schema and write the
output file.

Example:
  prefstack build
  prefstack build -c profiles/work.toml --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, build, err := a.project(cmd, &pf)
			if err != nil {
				return err
			}
			return build(cmd.Context())
		},
	}
	pf.register(cmd)
	return cmd
}

func (a *app) newWatchCommand() *cobra.Command {
	var pf projectFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever a layer or the schema changes",
		Long: `Watch builds once and then rebuilds whenever a layer file or the schema
changes. Local files are watched with file system notifications; remote
layers are polled.

Example:
  prefstack watch -c prefstack.toml --log-level info`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, build, err := a.project(cmd, &pf)
			if err != nil {
				return err
			}
			if err := build(ctx); err != nil {
				a.logger.Error("build failed", "err", err)
			}

			var targets []prefstack.WatchTarget
			for _, l := range p.Layers {
				src, err := resolve.Open(l.Path, resolve.Options{})
				if err != nil {
					return err
				}
				targets = append(targets, prefstack.WatchTarget{Name: l.Name, Source: src})
			}
			if p.Schema != "" {
				src, err := resolve.Open(p.Schema, resolve.Options{})
				if err != nil {
					return err
				}
				targets = append(targets, prefstack.WatchTarget{Name: "schema", Source: src})
			}

			cfg := prefstack.DefaultWatchConfig()
			if p.Watch.Debounce > 0 {
				cfg.DebounceDelay = p.Watch.Debounce
			}
			if p.Watch.PollInterval > 0 {
				cfg.WatcherOpts = []watcher.WatchConfigOption{watcher.WithPollInterval(p.Watch.PollInterval)}
			}
			cfg.OnError = func(name string, err error) {
				if name == "" {
					a.logger.Error("rebuild failed", "err", err)
					return
				}
				a.logger.Warn("watch error", "layer", name, "err", err)
			}
			cfg.OnRebuild = func() {
				a.logger.Info("rebuilt", "at", time.Now().Format(time.TimeOnly))
			}

			stop, err := prefstack.Watch(ctx, targets, build, cfg)
			if err != nil {
				return err
			}
			a.logger.Info("watching", "targets", len(targets))
			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return stop(stopCtx)
		},
	}
	pf.register(cmd)
	return cmd
}
