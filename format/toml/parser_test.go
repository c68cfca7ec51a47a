package toml_test

import (
	"errors"
	"testing"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/format/toml"
	"github.com/yacchi/prefstack/preftest"
	"github.com/yacchi/prefstack/pref"
)

func TestParser_Compliance(t *testing.T) {
	preftest.NewParserTester(t, toml.NewParser(),
		preftest.WithMalformedInput("syntax", []byte("a = \n")),
		preftest.WithMalformedInput("array", []byte("a = [1, 2]\n")),
		preftest.WithMalformedInput("array table", []byte("[[a]]\nb = 1\n")),
		preftest.WithMalformedInput("float", []byte("a = 1.5\n")),
		preftest.WithMalformedInput("date", []byte("a = 1979-05-27\n")),
	).TestAll()
}

func TestParse_Flattens(t *testing.T) {
	src := []byte(`# team defaults
top = "first"

[browser.startup]
page = 3
"homepage" = "about:home"

[network]
proxy = { type = 1, "socks_remote_dns" = true }
dns.disablePrefetch = true
size = 1_000
mask = 0xff
`)
	got, err := toml.Parse("team.toml", src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []document.Entry{
		{Key: "top", Value: pref.String("first")},
		{Key: "browser.startup.page", Value: pref.Int(3)},
		{Key: "browser.startup.homepage", Value: pref.String("about:home")},
		{Key: "network.proxy.type", Value: pref.Int(1)},
		{Key: "network.proxy.socks_remote_dns", Value: pref.Bool(true)},
		{Key: "network.dns.disablePrefetch", Value: pref.Bool(true)},
		{Key: "network.size", Value: pref.Int(1000)},
		{Key: "network.mask", Value: pref.Int(255)},
	}
	if diff := preftest.DiffEntries(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}

	if got[1].Pos != (document.Pos{Source: "team.toml", Line: 5, Column: 1}) {
		t.Errorf("Pos = %v, want team.toml:5:1", got[1].Pos)
	}
}

func TestParse_KeepsRepeatedKeys(t *testing.T) {
	got, err := toml.Parse("dup.toml", []byte("a = 1\na = 2\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(got))
	}
}

func TestParse_Reasons(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason document.Reason
	}{
		{"array", "a = [1]\n", document.ReasonUnsupportedStructure},
		{"array table", "[[a]]\n", document.ReasonUnsupportedStructure},
		{"float", "a = 0.5\n", document.ReasonUnknownValueType},
		{"overflow", "a = 99999999999999999999\n", document.ReasonUnknownValueType},
		{"illegal key", "\"a b\" = 1\n", document.ReasonIllegalKeyCharacter},
		{"syntax", "a = = 1\n", document.ReasonUnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := toml.Parse("x.toml", []byte(tt.src))
			var me *document.MalformedEntryError
			if !errors.As(err, &me) {
				t.Fatalf("Parse() error = %v, want *MalformedEntryError", err)
			}
			if me.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", me.Reason, tt.reason)
			}
		})
	}
}
