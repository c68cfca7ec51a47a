package prefstack

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format/userjs"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/pref"
)

func exampleSet() *EffectiveSet {
	l1 := layer.New("L1", []document.Entry{
		entry("l1.js", 1, "x", pref.Int(1)),
		entry("l1.js", 2, "y", pref.String("a")),
	})
	l2 := layer.New("L2", []document.Entry{
		entry("l2.js", 1, "y", pref.String("b")),
		entry("l2.js", 2, "browser.startup.homepage", pref.String(`about:home "q"`)),
		entry("l2.js", 3, "a.flag", pref.Bool(false)),
	})
	return Merge(l1, l2)
}

func TestEmit(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		opts  []EmitOption
		want  string
	}{
		{
			name:  "first-seen",
			order: OrderFirstSeen,
			want: `user_pref("x", 1);
user_pref("y", "b");
user_pref("browser.startup.homepage", "about:home \"q\"");
user_pref("a.flag", false);
`,
		},
		{
			name:  "lexical",
			order: OrderLexical,
			want: `user_pref("a.flag", false);
user_pref("browser.startup.homepage", "about:home \"q\"");
user_pref("x", 1);
user_pref("y", "b");
`,
		},
		{
			name:  "header and provenance",
			order: OrderLexical,
			opts:  []EmitOption{WithHeader("generated by prefstack", "do not edit"), WithProvenance()},
			want: `// generated by prefstack
// do not edit
user_pref("a.flag", false); // from L2
user_pref("browser.startup.homepage", "about:home \"q\""); // from L2
user_pref("x", 1); // from L1
user_pref("y", "b"); // from L2
`,
		},
		{
			name:  "statement",
			order: OrderLexical,
			opts:  []EmitOption{WithStatement("pref")},
			want: `pref("a.flag", false);
pref("browser.startup.homepage", "about:home \"q\"");
pref("x", 1);
pref("y", "b");
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EmitBytes(exampleSet(), tt.order, tt.opts...)
			if err != nil {
				t.Fatalf("EmitBytes() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EmitBytes() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestEmit_Empty(t *testing.T) {
	got, err := EmitBytes(Merge(), OrderFirstSeen)
	if err != nil {
		t.Fatalf("EmitBytes() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("EmitBytes() = %q, want empty", got)
	}
}

func TestEmit_Deterministic(t *testing.T) {
	for _, order := range []Order{OrderFirstSeen, OrderLexical} {
		a, err := EmitBytes(exampleSet(), order, WithProvenance())
		if err != nil {
			t.Fatal(err)
		}
		b, err := EmitBytes(exampleSet(), order, WithProvenance())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s output differs between runs", order)
		}
	}
}

func TestEmit_ParsesBack(t *testing.T) {
	set := exampleSet()
	out, err := EmitBytes(set, OrderFirstSeen, WithHeader("header"), WithProvenance())
	if err != nil {
		t.Fatal(err)
	}
	entries, err := userjs.Parse("out.js", out)
	if err != nil {
		t.Fatalf("Parse() error = %v\n%s", err, out)
	}
	back := Merge(layer.New("out", entries))
	if !back.SameValues(set) {
		t.Errorf("parsed output = %v, want %v", back.Values(), set.Values())
	}
}

func TestEmit_InvalidValue(t *testing.T) {
	set := Merge(layer.New("L", []document.Entry{{Key: "k"}}))
	var buf bytes.Buffer
	err := Emit(&buf, set, OrderFirstSeen)
	if err == nil || !strings.Contains(err.Error(), `"k"`) {
		t.Errorf("Emit() error = %v, want an error naming the key", err)
	}
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestEmit_WriteError(t *testing.T) {
	err := Emit(failingWriter{}, exampleSet(), OrderFirstSeen)
	if !errors.Is(err, errWrite) {
		t.Errorf("Emit() error = %v, want %v", err, errWrite)
	}
}
