package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/yacchi/prefstack/source"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"user.js", "user.js"},
		{"~", home},
		{"~/.mozilla/user.js", filepath.Join(home, ".mozilla", "user.js")},
		{"~someone/user.js", "~someone/user.js"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandTilde(tt.in)
			if err != nil {
				t.Fatalf("expandTilde() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("expandTilde(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSearchPaths(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "user-overrides.js")
	alt := filepath.Join(dir, "overrides.js")

	if err := os.WriteFile(alt, []byte(`user_pref("a", 1);`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(primary, WithSearchPaths(alt))
	if got := s.Path(); got != primary {
		t.Fatalf("Path() = %q, want %q", got, primary)
	}
	if got := s.ResolvedPath(); got != primary {
		t.Fatalf("ResolvedPath() before Load = %q, want %q", got, primary)
	}

	data, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != `user_pref("a", 1);` {
		t.Fatalf("Load() data = %q", data)
	}
	if got := s.String(); got != alt {
		t.Fatalf("String() after Load = %q, want %q", got, alt)
	}
	if s.Type() != source.TypeFS {
		t.Errorf("Type() = %q, want %q", s.Type(), source.TypeFS)
	}
}

func TestLoad_MissingFileIsNotExist(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "missing.js"), WithSearchPaths(filepath.Join(dir, "also-missing.js")))

	_, err := s.Load(context.Background())
	if !source.IsNotExist(err) {
		t.Fatalf("Load() error = %v, want NotExistError", err)
	}
}

func TestSave_WritesAtomicallyAndSetsMode(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "profile", "user.js")

	s := New(target, WithFileMode(0o600), WithDirMode(0o700))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.WriteFile(canceled, nil); err == nil {
		t.Fatal("WriteFile(canceled) expected error, got nil")
	}

	if err := s.WriteFile(context.Background(), []byte("user_pref(\"a\", true);\n")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	b, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(b) != "user_pref(\"a\", true);\n" {
		t.Fatalf("file content = %q", b)
	}

	if runtime.GOOS != "windows" {
		st, err := os.Stat(target)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if got := st.Mode().Perm(); got != 0o600 {
			t.Fatalf("file mode = %o, want %o", got, 0o600)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries, want only the target (temp file left behind?)", len(entries))
	}
}

func TestSave_PassesCurrentContents(t *testing.T) {
	target := filepath.Join(t.TempDir(), "user.js")
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(target)
	var seen string
	err := s.Save(context.Background(), func(current []byte) ([]byte, error) {
		seen = string(current)
		return append(current, "+new"...), nil
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if seen != "old" {
		t.Errorf("updateFunc saw %q, want %q", seen, "old")
	}
	b, _ := os.ReadFile(target)
	if string(b) != "old+new" {
		t.Errorf("file content = %q, want %q", b, "old+new")
	}
}

func TestSave_Backup(t *testing.T) {
	target := filepath.Join(t.TempDir(), "user.js")
	s := New(target, WithBackup(".bak"))
	ctx := context.Background()

	if err := s.WriteFile(ctx, []byte("first")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(target + ".bak"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("backup should not exist after the first write, Stat() error = %v", err)
	}

	if err := s.WriteFile(ctx, []byte("second")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	b, err := os.ReadFile(target + ".bak")
	if err != nil {
		t.Fatalf("ReadFile(backup) error = %v", err)
	}
	if string(b) != "first" {
		t.Errorf("backup content = %q, want %q", b, "first")
	}
}

func TestSave_UpdateFuncError(t *testing.T) {
	target := filepath.Join(t.TempDir(), "user.js")

	s := New(target)
	wantErr := errors.New("update error")
	err := s.Save(context.Background(), func(_ []byte) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Save() error = %v, want %v", err, wantErr)
	}
}

func TestSave_MkdirAllFailure(t *testing.T) {
	dir := t.TempDir()

	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(filepath.Join(blocker, "user.js"))
	if err := s.WriteFile(context.Background(), []byte("x")); err == nil {
		t.Fatal("WriteFile() expected error, got nil")
	}
}

func TestWatch_ReportsChange(t *testing.T) {
	target := filepath.Join(t.TempDir(), "user.js")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(target)
	w, err := s.Watch()
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(ctx)

	if err := New(target).WriteFile(ctx, []byte("v2")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-w.Results():
			if r.Error != nil {
				continue
			}
			if string(r.Data) == "v2" {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for change")
		}
	}
}
