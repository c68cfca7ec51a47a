package preftest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/preftest"
	"github.com/yacchi/prefstack/pref"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/source/bytes"
	"github.com/yacchi/prefstack/source/fs"
)

func TestBytesSource_Compliance(t *testing.T) {
	preftest.NewSourceTester(t, func(data []byte) source.Source {
		return bytes.New(data)
	}).TestAll()
}

func TestFsSource_Compliance(t *testing.T) {
	factory := func(data []byte) source.Source {
		path := filepath.Join(t.TempDir(), "user.js")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		return fs.New(path)
	}
	notExist := func() source.Source {
		return fs.New(filepath.Join(t.TempDir(), "missing.js"))
	}

	preftest.NewSourceTester(t, factory, preftest.WithNotExistFactory(notExist)).TestAll()
}

func TestMemorySource_Compliance(t *testing.T) {
	preftest.NewSourceTester(t, func(data []byte) source.Source {
		return preftest.NewMemorySource("mem", data)
	}).TestAll()
}

func TestDiffEntries(t *testing.T) {
	a := []document.Entry{{Key: "a", Value: pref.Int(1)}, {Key: "b", Value: pref.Bool(true)}}
	b := []document.Entry{{Key: "a", Value: pref.Int(1), Pos: document.Pos{Line: 9}}, {Key: "b", Value: pref.Bool(true)}}

	if diff := preftest.DiffEntries(a, b); diff != "" {
		t.Errorf("positions should be ignored, got diff:\n%s", diff)
	}
	if diff := preftest.DiffEntries(a, a[:1]); diff == "" {
		t.Error("missing entry not reported")
	}
	if diff := preftest.DiffEntries(a, []document.Entry{{Key: "a", Value: pref.String("1")}, a[1]}); diff == "" {
		t.Error("kind change not reported")
	}
}
