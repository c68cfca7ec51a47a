package prefstack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// WatchTarget is a named source whose changes trigger a rebuild.
type WatchTarget struct {
	Name   string
	Source source.Source
}

// WatchConfig configures Watch.
type WatchConfig struct {
	// DebounceDelay is the delay to wait for additional changes before
	// rebuilding. Default: 100ms
	DebounceDelay time.Duration

	// OnError is called when a watch or rebuild error occurs.
	// name is empty for rebuild errors. If nil, errors are ignored.
	OnError func(name string, err error)

	// OnRebuild is called after a successful rebuild.
	OnRebuild func()

	// WatcherOpts are applied to polling watchers.
	WatcherOpts []watcher.WatchConfigOption
}

// DefaultWatchConfig returns the default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: 100 * time.Millisecond,
		WatcherOpts: []watcher.WatchConfigOption{
			watcher.WithPollInterval(30 * time.Second),
		},
	}
}

type targetUpdate struct {
	name   string
	result watcher.WatchResult
}

// Watch starts watching targets and calls rebuild once changes have
// settled for cfg.DebounceDelay. Sources that can notify (local files) do;
// others are polled.
//
// Returns a stop function that stops every watcher.
//
// Example:
//
//	stop, err := prefstack.Watch(ctx, targets, func(ctx context.Context) error {
//	    _, err := build(ctx)
//	    return err
//	}, prefstack.DefaultWatchConfig())
//	if err != nil {
//	    return err
//	}
//	defer stop(context.Background())
func Watch(ctx context.Context, targets []WatchTarget, rebuild func(context.Context) error, cfg WatchConfig) (stop func(context.Context) error, err error) {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultWatchConfig().DebounceDelay
	}

	type state struct {
		name    string
		watcher watcher.Watcher
	}
	var watchers []state
	stopAll := func(ctx context.Context) error {
		var errs []error
		for _, ws := range watchers {
			if err := ws.watcher.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop watcher for %q: %w", ws.name, err))
			}
		}
		return errors.Join(errs...)
	}

	for _, t := range targets {
		w, err := layer.Watch(t.Source, cfg.WatcherOpts...)
		if err != nil {
			_ = stopAll(ctx)
			return nil, fmt.Errorf("failed to create watcher for %q: %w", t.Name, err)
		}
		watchers = append(watchers, state{name: t.Name, watcher: w})
	}

	if len(watchers) == 0 {
		return func(ctx context.Context) error { return nil }, nil
	}

	merged := make(chan targetUpdate, len(watchers)*10)
	watchCtx, watchCancel := context.WithCancel(ctx)

	for _, ws := range watchers {
		if err := ws.watcher.Start(watchCtx); err != nil {
			watchCancel()
			_ = stopAll(ctx)
			return nil, fmt.Errorf("failed to start watcher for %q: %w", ws.name, err)
		}

		go func() {
			for result := range ws.watcher.Results() {
				select {
				case merged <- targetUpdate{name: ws.name, result: result}:
				case <-watchCtx.Done():
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		watchLoop(watchCtx, merged, rebuild, cfg)
	}()

	stop = func(stopCtx context.Context) error {
		watchCancel()
		err := stopAll(stopCtx)
		select {
		case <-done:
		case <-stopCtx.Done():
			return errors.Join(err, stopCtx.Err())
		}
		return err
	}
	return stop, nil
}

// watchLoop collects updates and rebuilds once no update arrived for the
// debounce delay.
func watchLoop(ctx context.Context, updates <-chan targetUpdate, rebuild func(context.Context) error, cfg WatchConfig) {
	var debounce *time.Timer
	var fire <-chan time.Time
	pending := false

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case update := <-updates:
			if update.result.Error != nil {
				if cfg.OnError != nil {
					cfg.OnError(update.name, update.result.Error)
				}
				continue
			}
			pending = true
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(cfg.DebounceDelay)
			fire = debounce.C

		case <-fire:
			fire = nil
			if !pending {
				continue
			}
			pending = false
			if err := rebuild(ctx); err != nil {
				if cfg.OnError != nil {
					cfg.OnError("", fmt.Errorf("failed to rebuild: %w", err))
				}
				continue
			}
			if cfg.OnRebuild != nil {
				cfg.OnRebuild()
			}
		}
	}
}
