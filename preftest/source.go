package preftest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// MemorySource is an in-memory source that supports both Load and Save.
// It is safe for concurrent use.
type MemorySource struct {
	name string

	mu   sync.Mutex
	data []byte
}

// Ensure MemorySource implements source.Source.
var _ source.Source = (*MemorySource)(nil)

// NewMemorySource creates a MemorySource named name with the given data.
func NewMemorySource(name string, data []byte) *MemorySource {
	return &MemorySource{name: name, data: data}
}

// Type returns the source type identifier.
func (s *MemorySource) Type() source.SourceType {
	return "memory"
}

// String returns the source name.
func (s *MemorySource) String() string {
	return s.name
}

// Load returns a copy of the current data.
func (s *MemorySource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...), nil
}

// Save applies the update function and stores the result.
func (s *MemorySource) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	newData, err := updateFunc(s.data)
	if err != nil {
		return err
	}
	s.data = newData
	return nil
}

// CanSave returns true.
func (s *MemorySource) CanSave() bool {
	return true
}

// Bytes returns the current data without copying.
func (s *MemorySource) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// SourceFactory creates a Source initialized with the given data.
// The factory is called for each test case to ensure test isolation.
type SourceFactory func(data []byte) source.Source

// NotExistFactory creates a Source pointing to a missing resource.
type NotExistFactory func() source.Source

// SourceTesterOption configures SourceTester behavior.
type SourceTesterOption func(*SourceTester)

// WithNotExistFactory enables the NotExist test.
func WithNotExistFactory(factory NotExistFactory) SourceTesterOption {
	return func(st *SourceTester) {
		st.notExistFactory = factory
	}
}

// SourceTester verifies source.Source implementations.
type SourceTester struct {
	t               *testing.T
	factory         SourceFactory
	notExistFactory NotExistFactory
}

// NewSourceTester creates a SourceTester for the given SourceFactory.
func NewSourceTester(t *testing.T, factory SourceFactory, opts ...SourceTesterOption) *SourceTester {
	st := &SourceTester{t: t, factory: factory}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// TestAll runs all standard compliance tests for Source implementations.
func (st *SourceTester) TestAll() {
	st.t.Run("Identity", st.testIdentity)
	st.t.Run("Load", st.testLoad)
	st.t.Run("Save", st.testSave)
	st.t.Run("Watch", st.testWatch)
	st.t.Run("NotExist", st.testNotExist)
}

const sample = `user_pref("browser.startup.page", 3);` + "\n"

func (st *SourceTester) testIdentity(t *testing.T) {
	s := st.factory([]byte(sample))
	check(t, s.Type() != "", "Type() returned empty string")
	check(t, s.String() != "", "String() returned empty string")
}

func (st *SourceTester) testLoad(t *testing.T) {
	s := st.factory([]byte(sample))

	data, err := s.Load(context.Background())
	requireNoError(t, err, "Load error = %v", err)
	check(t, string(data) == sample, "Load() = %q, want %q", data, sample)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Load(ctx)
	check(t, err != nil, "Load() with cancelled context should return an error")
}

// testSave verifies CanSave() is consistent with Save() behavior.
func (st *SourceTester) testSave(t *testing.T) {
	s := st.factory([]byte(sample))

	const updated = `user_pref("browser.startup.page", 1);` + "\n"
	var seen []byte
	err := s.Save(context.Background(), func(current []byte) ([]byte, error) {
		seen = current
		return []byte(updated), nil
	})

	if !s.CanSave() {
		check(t, errors.Is(err, source.ErrSaveNotSupported),
			"CanSave() returned false but Save() returned %v", err)
		return
	}

	requireNoError(t, err, "Save() error = %v", err)
	check(t, string(seen) == sample, "updateFunc received %q, want %q", seen, sample)

	data, err := s.Load(context.Background())
	requireNoError(t, err, "Load after Save error = %v", err)
	check(t, string(data) == updated, "Load after Save = %q, want %q", data, updated)
}

func (st *SourceTester) testWatch(t *testing.T) {
	ws, ok := st.factory([]byte(sample)).(source.WatchableSource)
	if !ok {
		t.Skip("Source does not implement WatchableSource")
	}

	w, err := ws.Watch()
	requireNoError(t, err, "Watch() error = %v", err)
	require(t, w != nil, "Watch() returned nil watcher")

	typ := w.Type()
	check(t, typ == watcher.TypePolling || typ == watcher.TypeSubscription || typ == watcher.TypeNoop,
		"Watcher.Type() returned unknown type: %q", typ)
	check(t, w.Results() == nil, "Results() should be nil before Start()")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	requireNoError(t, w.Start(ctx), "Start() error")
	require(t, w.Results() != nil, "Results() returned nil after Start()")
	requireNoError(t, w.Stop(ctx), "Stop() error")
}

func (st *SourceTester) testNotExist(t *testing.T) {
	if st.notExistFactory == nil {
		t.Skip("NotExistFactory not provided")
	}
	_, err := st.notExistFactory().Load(context.Background())
	require(t, err != nil, "Load() on missing resource should return error")
	check(t, source.IsNotExist(err), "Load() error should be a *source.NotExistError, got: %v", err)
}
