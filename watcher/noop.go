package watcher

import (
	"context"
	"sync"
)

// noopWatcher never reports a change. Its results channel closes when the
// watcher is stopped or its start context ends.
type noopWatcher struct {
	results chan WatchResult
	done    chan struct{}
	start   sync.Once
	stop    sync.Once
}

// NewNoop returns a Watcher for sources whose data cannot change, such as
// in-memory layers. Watching one is valid and simply stays silent.
func NewNoop() Watcher {
	return &noopWatcher{
		results: make(chan WatchResult),
		done:    make(chan struct{}),
	}
}

func (w *noopWatcher) Type() Type {
	return TypeNoop
}

func (w *noopWatcher) Start(ctx context.Context) error {
	w.start.Do(func() {
		go func() {
			defer close(w.results)
			select {
			case <-ctx.Done():
			case <-w.done:
			}
		}()
	})
	return nil
}

func (w *noopWatcher) Stop(context.Context) error {
	w.stop.Do(func() { close(w.done) })
	return nil
}

func (w *noopWatcher) Results() <-chan WatchResult {
	return w.results
}
