package watcher_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yacchi/prefstack/watcher"
)

func TestDefaultCompareFunc(t *testing.T) {
	tests := []struct {
		name     string
		old      []byte
		new      []byte
		expected bool
	}{
		{"different", []byte("old"), []byte("new"), true},
		{"same", []byte("same"), []byte("same"), false},
		{"empty both", []byte{}, []byte{}, false},
		{"empty old", []byte{}, []byte("new"), true},
		{"empty new", []byte("old"), []byte{}, true},
		{"nil old", nil, []byte("new"), true},
		{"nil both", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := watcher.DefaultCompareFunc(tt.old, tt.new)
			if result != tt.expected {
				t.Errorf("DefaultCompareFunc(%q, %q) = %v, want %v", tt.old, tt.new, result, tt.expected)
			}
		})
	}
}

func TestHashCompareFunc(t *testing.T) {
	tests := []struct {
		name     string
		old      []byte
		new      []byte
		expected bool
	}{
		{"different", []byte("old data"), []byte("new data"), true},
		{"same", []byte("same data"), []byte("same data"), false},
		{"empty both", []byte{}, []byte{}, false},
		{"empty old", []byte{}, []byte("new"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := watcher.HashCompareFunc(tt.old, tt.new)
			if result != tt.expected {
				t.Errorf("HashCompareFunc(%q, %q) = %v, want %v", tt.old, tt.new, result, tt.expected)
			}
		})
	}
}

func TestNewWatchConfig(t *testing.T) {
	cfg := watcher.NewWatchConfig()
	if cfg.PollInterval != watcher.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, watcher.DefaultPollInterval)
	}
	if cfg.CompareFunc == nil {
		t.Error("CompareFunc should default to DefaultCompareFunc")
	}

	cfg = watcher.NewWatchConfig(
		watcher.WithPollInterval(time.Second),
		watcher.WithCompareFunc(watcher.HashCompareFunc),
	)
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
	if cfg.CompareFunc([]byte("a"), []byte("a")) {
		t.Error("CompareFunc should report equal data as unchanged")
	}
}

// sequence returns a FetchFunc that yields the given payloads in order and
// repeats the last one forever.
func sequence(payloads ...string) (watcher.FetchFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context) ([]byte, error) {
		n := int(calls.Add(1)) - 1
		if n >= len(payloads) {
			n = len(payloads) - 1
		}
		return []byte(payloads[n]), nil
	}, &calls
}

func receive(t *testing.T, w watcher.Watcher, timeout time.Duration) (watcher.WatchResult, bool) {
	t.Helper()
	select {
	case r, ok := <-w.Results():
		return r, ok
	case <-time.After(timeout):
		t.Fatal("timeout waiting for watch result")
		return watcher.WatchResult{}, false
	}
}

func TestPollingWatcher_Basic(t *testing.T) {
	fetch, _ := sequence("v1", "v1", "v2")
	w := watcher.NewPolling(fetch, watcher.WithPollInterval(10*time.Millisecond))

	if w.Type() != watcher.TypePolling {
		t.Errorf("Type() = %v, want %v", w.Type(), watcher.TypePolling)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	r, ok := receive(t, w, time.Second)
	if !ok {
		t.Fatal("results channel closed early")
	}
	if r.Error != nil {
		t.Fatalf("unexpected error: %v", r.Error)
	}
	if string(r.Data) != "v2" {
		t.Errorf("Data = %q, want %q (baseline must not be reported)", r.Data, "v2")
	}
}

func TestPollingWatcher_Error(t *testing.T) {
	fetchErr := errors.New("fetch failed")
	w := watcher.NewPolling(func(ctx context.Context) ([]byte, error) {
		return nil, fetchErr
	}, watcher.WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	r, _ := receive(t, w, time.Second)
	if !errors.Is(r.Error, fetchErr) {
		t.Errorf("Error = %v, want %v", r.Error, fetchErr)
	}
}

func TestPollingWatcher_Stop(t *testing.T) {
	fetch, calls := sequence("same")
	w := watcher.NewPolling(fetch, watcher.WithPollInterval(5*time.Millisecond))

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, ok := receive(t, w, time.Second); ok {
		t.Error("results channel should be closed after Stop")
	}

	before := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if after := calls.Load(); after != before {
		t.Errorf("fetch called %d more times after Stop", after-before)
	}

	// Stop is idempotent.
	if err := w.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestPollingWatcher_DoubleStart(t *testing.T) {
	fetch, _ := sequence("x")
	w := watcher.NewPolling(fetch, watcher.WithPollInterval(time.Hour))

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	first := w.Results()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if w.Results() != first {
		t.Error("second Start should not replace the results channel")
	}
}

func TestPollingWatcher_ContextCancel(t *testing.T) {
	fetch, _ := sequence("x")
	w := watcher.NewPolling(fetch, watcher.WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	if _, ok := receive(t, w, time.Second); ok {
		t.Error("results channel should be closed after context cancel")
	}
}

// testHandler is a SubscriptionHandler that exposes the notify callback.
type testHandler struct {
	mu      sync.Mutex
	notify  watcher.NotifyFunc
	stopped atomic.Bool
	err     error
}

func (h *testHandler) Subscribe(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	if h.err != nil {
		return nil, h.err
	}
	h.mu.Lock()
	h.notify = notify
	h.mu.Unlock()
	return func(ctx context.Context) error {
		h.stopped.Store(true)
		return nil
	}, nil
}

func (h *testHandler) fire(data []byte, err error) {
	h.mu.Lock()
	n := h.notify
	h.mu.Unlock()
	go n(data, err)
}

func TestSubscriptionWatcher_Basic(t *testing.T) {
	h := &testHandler{}
	fetch, _ := sequence("v1", "v2")
	w := watcher.NewSubscription(h, fetch)

	if w.Type() != watcher.TypeSubscription {
		t.Errorf("Type() = %v, want %v", w.Type(), watcher.TypeSubscription)
	}

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	h.fire(nil, nil)
	r, _ := receive(t, w, time.Second)
	if r.Error != nil || string(r.Data) != "v2" {
		t.Errorf("result = (%q, %v), want (\"v2\", nil)", r.Data, r.Error)
	}
}

func TestSubscriptionWatcher_Push(t *testing.T) {
	h := &testHandler{}
	w := watcher.NewSubscription(h, nil)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	h.fire([]byte("pushed"), nil)
	r, _ := receive(t, w, time.Second)
	if string(r.Data) != "pushed" {
		t.Errorf("Data = %q, want %q", r.Data, "pushed")
	}
}

func TestSubscriptionWatcher_DropsUnchanged(t *testing.T) {
	h := &testHandler{}
	fetch, calls := sequence("same")
	w := watcher.NewSubscription(h, fetch)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	h.fire(nil, nil)
	select {
	case r := <-w.Results():
		t.Errorf("unexpected result for unchanged data: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
	if calls.Load() < 2 {
		t.Errorf("fetch called %d times, want at least 2", calls.Load())
	}
}

func TestSubscriptionWatcher_Error(t *testing.T) {
	h := &testHandler{}
	w := watcher.NewSubscription(h, nil)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	wantErr := errors.New("watch failed")
	h.fire(nil, wantErr)
	r, _ := receive(t, w, time.Second)
	if !errors.Is(r.Error, wantErr) {
		t.Errorf("Error = %v, want %v", r.Error, wantErr)
	}
}

func TestSubscriptionWatcher_Stop(t *testing.T) {
	h := &testHandler{}
	w := watcher.NewSubscription(h, nil)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !h.stopped.Load() {
		t.Error("handler StopFunc should be called")
	}
	if _, ok := receive(t, w, time.Second); ok {
		t.Error("results channel should be closed after Stop")
	}
	if err := w.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestSubscriptionWatcher_SubscribeError(t *testing.T) {
	wantErr := errors.New("subscribe failed")
	w := watcher.NewSubscription(&testHandler{err: wantErr}, nil)

	if err := w.Start(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Start() error = %v, want %v", err, wantErr)
	}
}

func TestSubscriptionHandlerFunc(t *testing.T) {
	called := false
	h := watcher.SubscriptionHandlerFunc(func(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
		called = true
		return func(context.Context) error { return nil }, nil
	})
	stop, err := h.Subscribe(context.Background(), func([]byte, error) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !called {
		t.Error("handler func not called")
	}
	if err := stop(context.Background()); err != nil {
		t.Errorf("stop() error = %v", err)
	}
}

func TestNoopWatcher(t *testing.T) {
	w := watcher.NewNoop()
	if w.Type() != watcher.TypeNoop {
		t.Errorf("Type() = %v, want %v", w.Type(), watcher.TypeNoop)
	}

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case r := <-w.Results():
		t.Errorf("noop watcher emitted %+v", r)
	case <-time.After(20 * time.Millisecond):
	}

	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, ok := receive(t, w, time.Second); ok {
		t.Error("results channel should be closed after Stop")
	}
}
