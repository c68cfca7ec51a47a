package watcher

import (
	"context"
	"sync"
)

// SubscriptionHandler defines the interface for subscription-based change detection.
// Implementations register for notifications and call the notify function when data changes.
type SubscriptionHandler interface {
	// Subscribe starts receiving change notifications.
	// The notify function should be called when data changes or an error occurs.
	// Returns a StopFunc to unsubscribe, or an error if subscription failed.
	Subscribe(ctx context.Context, notify NotifyFunc) (StopFunc, error)
}

// SubscriptionHandlerFunc is a function that implements SubscriptionHandler.
type SubscriptionHandlerFunc func(ctx context.Context, notify NotifyFunc) (StopFunc, error)

// Subscribe implements SubscriptionHandler.
func (f SubscriptionHandlerFunc) Subscribe(ctx context.Context, notify NotifyFunc) (StopFunc, error) {
	return f(ctx, notify)
}

// subscriptionWatcher implements Watcher using subscriptions.
type subscriptionWatcher struct {
	handler SubscriptionHandler
	fetch   FetchFunc
	compare CompareFunc

	results chan WatchResult
	stopCh  chan struct{}
	stopFn  StopFunc

	lastData []byte
	hasData  bool
	notifyMu sync.Mutex

	mu      sync.Mutex
	running bool
}

// NewSubscription creates a subscription-based Watcher.
//
// When the handler notifies with (nil, nil), the fetch function reads the
// current data; the result is reported only if it differs from the last
// fetched data according to the CompareFunc. Editors and atomic renames
// typically produce several events per save; this keeps them to one result.
func NewSubscription(handler SubscriptionHandler, fetch FetchFunc, opts ...WatchConfigOption) Watcher {
	cfg := NewWatchConfig(opts...).withDefaults()
	return &subscriptionWatcher{
		handler: handler,
		fetch:   fetch,
		compare: cfg.CompareFunc,
	}
}

// Type returns the watcher type identifier.
func (w *subscriptionWatcher) Type() Type {
	return TypeSubscription
}

// Start begins the subscription and records the baseline data.
func (w *subscriptionWatcher) Start(ctx context.Context) error {
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

	if w.fetch != nil {
		if data, err := w.fetch(ctx); err == nil {
			w.lastData, w.hasData = data, true
		}
	}

	notify := func(data []byte, err error) {
		w.notifyMu.Lock()
		defer w.notifyMu.Unlock()

		select {
		case <-stopCh:
			return
		default:
		}

		// Handle the three notification patterns:
		// 1. notify(data, nil): Push-style, data is already available
		// 2. notify(nil, err): Error occurred
		// 3. notify(nil, nil): Event-only, need to fetch data
		if data == nil && err == nil {
			if w.fetch == nil {
				return
			}
			data, err = w.fetch(ctx)
		}
		if err == nil {
			if w.hasData && !w.compare(w.lastData, data) {
				return
			}
			w.lastData, w.hasData = data, true
		}

		select {
		case results <- WatchResult{Data: data, Error: err}:
		case <-ctx.Done():
		case <-stopCh:
		}
	}

	stop, err := w.handler.Subscribe(ctx, notify)
	if err != nil {
		w.mu.Lock()
		w.running = false
		close(w.stopCh)
		close(w.results)
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.stopFn = stop
	w.mu.Unlock()

	return nil
}

// Stop stops the subscription and closes the results channel once no
// notification can be in flight.
func (w *subscriptionWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	stopFn := w.stopFn
	w.stopFn = nil
	w.mu.Unlock()

	var err error
	if stopFn != nil {
		err = stopFn(ctx)
	}

	// Wait for any in-flight notify to observe stopCh before closing.
	w.notifyMu.Lock()
	close(w.results)
	w.notifyMu.Unlock()

	return err
}

// Results returns the channel receiving subscription results.
func (w *subscriptionWatcher) Results() <-chan WatchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}
