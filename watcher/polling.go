package watcher

import (
	"context"
	"sync"
	"time"
)

// pollingWatcher implements Watcher using polling.
type pollingWatcher struct {
	fetch FetchFunc
	cfg   WatchConfig

	results  chan WatchResult
	stopCh   chan struct{}
	lastData []byte
	hasData  bool

	mu      sync.Mutex
	running bool
}

// NewPolling creates a new polling-based Watcher.
// The fetch function is called at each interval. The first poll establishes
// the baseline and is not reported; later polls are reported when the
// CompareFunc says the data changed. Fetch errors are always reported.
func NewPolling(fetch FetchFunc, opts ...WatchConfigOption) Watcher {
	return &pollingWatcher{
		fetch: fetch,
		cfg:   NewWatchConfig(opts...),
	}
}

// Type returns the watcher type identifier.
func (w *pollingWatcher) Type() Type {
	return TypePolling
}

// Start begins polling at the configured interval.
// The first poll happens immediately.
func (w *pollingWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.results = make(chan WatchResult)
	w.stopCh = make(chan struct{})
	results, stopCh := w.results, w.stopCh
	w.mu.Unlock()

	cfg := w.cfg.withDefaults()

	go func() {
		defer close(results)

		for {
			startTime := time.Now()

			data, err := w.fetch(ctx)
			var send *WatchResult
			switch {
			case err != nil:
				send = &WatchResult{Error: err}
			case !w.hasData:
				w.lastData, w.hasData = data, true
			case cfg.CompareFunc(w.lastData, data):
				w.lastData = data
				send = &WatchResult{Data: data}
			}

			if send != nil {
				select {
				case results <- *send:
				case <-ctx.Done():
					return
				case <-stopCh:
					return
				}
			}

			// Calculate wait time, accounting for processing time
			waitTime := cfg.PollInterval - time.Since(startTime)
			if waitTime <= 0 {
				continue
			}

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}()

	return nil
}

// Stop stops polling.
func (w *pollingWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	return nil
}

// Results returns the channel receiving poll results.
func (w *pollingWatcher) Results() <-chan WatchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}
