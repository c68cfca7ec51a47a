// Package preftest provides compliance test kits for prefstack parsers and sources.
//
// Every layer format runs the same ParserTester:
//
//	func TestParser_Compliance(t *testing.T) {
//	    preftest.NewParserTester(t, yaml.NewParser(),
//	        preftest.WithMalformedInput("list", []byte("a:\n  - 1\n")),
//	    ).TestAll()
//	}
//
// and every source runs the SourceTester:
//
//	func TestFsSource_Compliance(t *testing.T) {
//	    preftest.NewSourceTester(t, func(data []byte) source.Source {
//	        return fs.New(writeTemp(t, data))
//	    }).TestAll()
//	}
package preftest

import (
	"fmt"
	"strings"

	"github.com/yacchi/prefstack/document"
)

// testT is the minimal testing interface used by preftest utilities.
type testT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
}

// require fails the test immediately if the condition is false.
func require(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// requireNoError fails the test immediately if err is not nil.
func requireNoError(t testT, err error, format string, args ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf(format, args...)
	}
}

// check reports an error if the condition is false, but continues the test.
func check(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}

// DiffEntries compares the key and value of got and want in order, ignoring
// positions. It returns "" when they match.
func DiffEntries(got, want []document.Entry) string {
	var sb strings.Builder
	n := max(len(got), len(want))
	for i := range n {
		switch {
		case i >= len(got):
			fmt.Fprintf(&sb, "  [%d] missing %s = %s\n", i, want[i].Key, want[i].Value)
		case i >= len(want):
			fmt.Fprintf(&sb, "  [%d] unexpected %s = %s\n", i, got[i].Key, got[i].Value)
		case got[i].Key != want[i].Key || !got[i].Value.Equal(want[i].Value):
			fmt.Fprintf(&sb, "  [%d] got %s = %s, want %s = %s\n", i,
				got[i].Key, got[i].Value, want[i].Key, want[i].Value)
		}
	}
	return sb.String()
}
