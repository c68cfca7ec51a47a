package bytes

import (
	"context"
	"errors"
	"testing"

	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

func TestSource_Load_ReturnsCopy(t *testing.T) {
	src := New([]byte(`user_pref("a", 1);`))

	loaded, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	loaded[0] = 'X'

	loaded2, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(loaded2) != `user_pref("a", 1);` {
		t.Errorf("source data was modified: got %q", loaded2)
	}
}

func TestSource_Name(t *testing.T) {
	if got := FromString("x").String(); got != DefaultName {
		t.Errorf("String() = %q, want %q", got, DefaultName)
	}
	if got := FromString("x", WithName("<stdin>")).String(); got != "<stdin>" {
		t.Errorf("String() = %q, want %q", got, "<stdin>")
	}
}

func TestSource_Load_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New([]byte("data")).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestSource_ReadOnly(t *testing.T) {
	src := New([]byte("data"))
	if src.Type() != source.TypeBytes {
		t.Errorf("Type() = %q, want %q", src.Type(), source.TypeBytes)
	}
	if src.CanSave() {
		t.Error("CanSave() = true, want false")
	}
	err := src.Save(context.Background(), func([]byte) ([]byte, error) { return nil, nil })
	if !errors.Is(err, source.ErrSaveNotSupported) {
		t.Errorf("Save() error = %v, want %v", err, source.ErrSaveNotSupported)
	}
}

func TestSource_Watch(t *testing.T) {
	w, err := New([]byte("data")).Watch()
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if got := w.Type(); got != watcher.TypeNoop {
		t.Errorf("Watch().Type() = %v, want %v", got, watcher.TypeNoop)
	}
}
