package prefstack

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format/userjs"
	"github.com/yacchi/prefstack/format/yaml"
	"github.com/yacchi/prefstack/layer"
	"github.com/yacchi/prefstack/layer/kv"
	"github.com/yacchi/prefstack/pref"
	"github.com/yacchi/prefstack/schema"
	bytesource "github.com/yacchi/prefstack/source/bytes"
	"github.com/yacchi/prefstack/validate"
)

func specs() []layer.Spec {
	return []layer.Spec{
		{
			Name:     "profile",
			Source:   bytesource.FromString("y: b\n", bytesource.WithName("profile.yaml")),
			Parser:   yaml.NewParser(),
			Priority: PriorityProfile,
		},
		{
			Name:     "base",
			Source:   bytesource.FromString("user_pref(\"x\", 1);\nuser_pref(\"y\", \"a\");\n", bytesource.WithName("base.js")),
			Parser:   userjs.NewParser(),
			Priority: PriorityBase,
		},
	}
}

func TestCompile(t *testing.T) {
	s := schema.New(map[pref.Key]schema.Rule{
		"x": {Kind: pref.KindInt},
		"y": {Kind: pref.KindString},
	})
	res, err := Compile(context.Background(), CompileOptions{Layers: specs(), Schema: s})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if len(res.Layers) != 2 || res.Layers[0].Name() != "base" || res.Layers[1].Name() != "profile" {
		t.Errorf("Layers = %v, want base then profile", res.Layers)
	}
	if x := res.Set.Get("x"); !x.Value.Equal(pref.Int(1)) || x.LayerName() != "base" {
		t.Errorf("x = %+v", x)
	}
	if y := res.Set.Get("y"); !y.Value.Equal(pref.String("b")) || y.LayerName() != "profile" {
		t.Errorf("y = %+v", y)
	}
	if y := res.Set.Get("y"); y.Pos.Source != "profile.yaml" || y.Pos.Line != 1 {
		t.Errorf("y.Pos = %v", y.Pos)
	}
	if len(res.Issues) != 0 {
		t.Errorf("Issues = %v, want none", res.Issues)
	}
	want := "user_pref(\"x\", 1);\nuser_pref(\"y\", \"b\");\n"
	if string(res.Output) != want {
		t.Errorf("Output =\n%s\nwant\n%s", res.Output, want)
	}
}

func TestCompile_Extra(t *testing.T) {
	flags, err := kv.FromPairs("flags", []string{"x=2", `z="new"`}, layer.WithPriority(PriorityFlags))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Compile(context.Background(), CompileOptions{
		Layers: specs(),
		Extra:  []*layer.Layer{flags, nil},
		Order:  OrderLexical,
		Emit:   []EmitOption{WithProvenance()},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	want := `user_pref("x", 2); // from flags
user_pref("y", "b"); // from profile
user_pref("z", "new"); // from flags
`
	if string(res.Output) != want {
		t.Errorf("Output =\n%s\nwant\n%s", res.Output, want)
	}
}

func TestCompile_ParseErrorAborts(t *testing.T) {
	bad := layer.Spec{
		Name:     "broken",
		Source:   bytesource.FromString(`user_pref("x", 1)`, bytesource.WithName("broken.js")),
		Parser:   userjs.NewParser(),
		Priority: PriorityProfile,
	}
	res, err := Compile(context.Background(), CompileOptions{Layers: append(specs(), bad)})
	if err == nil {
		t.Fatal("Compile() error = nil, want parse error")
	}
	if res != nil {
		t.Errorf("Compile() result = %+v, want nil", res)
	}
	var me *document.MalformedEntryError
	if !errors.As(err, &me) {
		t.Fatalf("Compile() error = %v, want *document.MalformedEntryError", err)
	}
	if me.Source != "broken.js" || me.Reason != document.ReasonUnterminatedStatement {
		t.Errorf("MalformedEntryError = %+v", me)
	}
	if !strings.Contains(err.Error(), `layer "broken"`) {
		t.Errorf("error %q should name the layer", err)
	}
}

func TestCompile_Strict(t *testing.T) {
	dup := layer.Spec{
		Name:     "dup",
		Source:   bytesource.FromString("user_pref(\"k\", 1);\nuser_pref(\"k\", 2);\n"),
		Parser:   userjs.NewParser(),
		Priority: PriorityFlags,
	}

	t.Run("advisory", func(t *testing.T) {
		res, err := Compile(context.Background(), CompileOptions{Layers: []layer.Spec{dup}})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if res.Issues.Count(validate.KindDuplicateKey) != 1 {
			t.Errorf("Issues = %v", res.Issues)
		}
		if string(res.Output) != "user_pref(\"k\", 2);\n" {
			t.Errorf("Output = %q", res.Output)
		}
	})

	t.Run("strict", func(t *testing.T) {
		res, err := Compile(context.Background(), CompileOptions{Layers: []layer.Spec{dup}, Strict: true})
		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("Compile() error = %v, want ErrValidationFailed", err)
		}
		var issue validate.Issue
		if !errors.As(err, &issue) || issue.Kind != validate.KindDuplicateKey {
			t.Errorf("Compile() error = %v, want to wrap the duplicate issue", err)
		}
		if res == nil || res.Output != nil || len(res.Issues) != 1 {
			t.Errorf("Compile() result = %+v, want issues without output", res)
		}
	})

	t.Run("strict without errors", func(t *testing.T) {
		res, err := Compile(context.Background(), CompileOptions{Layers: specs(), Strict: true})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if len(res.Output) == 0 {
			t.Error("Output is empty")
		}
	})
}

func TestCompile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compile(ctx, CompileOptions{Layers: specs()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Compile() error = %v, want context.Canceled", err)
	}
}
