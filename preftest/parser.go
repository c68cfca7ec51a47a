package preftest

import (
	"errors"
	"math"
	"testing"

	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/pref"
)

// ParserTesterOption configures ParserTester behavior.
type ParserTesterOption func(*ParserTester)

// WithMalformedInput adds an input that the parser must reject with a
// *document.MalformedEntryError.
func WithMalformedInput(name string, data []byte) ParserTesterOption {
	return func(pt *ParserTester) {
		pt.malformed = append(pt.malformed, malformedCase{name: name, data: data})
	}
}

// SkipDuplicateTest skips the duplicate key test.
// The reason parameter is required to document why the test is skipped.
func SkipDuplicateTest(reason string) ParserTesterOption {
	return func(pt *ParserTester) {
		pt.skipDuplicateReason = reason
	}
}

type malformedCase struct {
	name string
	data []byte
}

// ParserTester verifies document.Parser implementations.
type ParserTester struct {
	t                   *testing.T
	parser              document.Parser
	malformed           []malformedCase
	skipDuplicateReason string
}

// NewParserTester creates a ParserTester for the given parser.
func NewParserTester(t *testing.T, p document.Parser, opts ...ParserTesterOption) *ParserTester {
	pt := &ParserTester{t: t, parser: p}
	for _, opt := range opts {
		opt(pt)
	}
	return pt
}

// TestAll runs all standard compliance tests.
func (pt *ParserTester) TestAll() {
	pt.t.Run("Format", pt.testFormat)
	pt.t.Run("Empty", pt.testEmpty)
	pt.t.Run("RoundTrip", pt.testRoundTrip)
	pt.t.Run("Order", pt.testOrder)
	pt.t.Run("KeyCharacters", pt.testKeyCharacters)
	pt.t.Run("Duplicates", pt.testDuplicates)
	pt.t.Run("Positions", pt.testPositions)
	pt.t.Run("Malformed", pt.testMalformed)
}

// AllKinds returns entries covering every value kind and the boundary values
// of each.
func AllKinds() []document.Entry {
	return []document.Entry{
		{Key: "kind.bool.true", Value: pref.Bool(true)},
		{Key: "kind.bool.false", Value: pref.Bool(false)},
		{Key: "kind.int.zero", Value: pref.Int(0)},
		{Key: "kind.int.negative", Value: pref.Int(-1)},
		{Key: "kind.int.max", Value: pref.Int(math.MaxInt64)},
		{Key: "kind.int.min", Value: pref.Int(math.MinInt64)},
		{Key: "kind.string.empty", Value: pref.String("")},
		{Key: "kind.string.plain", Value: pref.String("about:home")},
		{Key: "kind.string.looks_bool", Value: pref.String("true")},
		{Key: "kind.string.looks_int", Value: pref.String("42")},
		{Key: "kind.string.escapes", Value: pref.String("quote \" backslash \\ tab \t newline \n")},
		{Key: "kind.string.unicode", Value: pref.String("Grüße ✓ 日本語")},
		{Key: "kind.string.control", Value: pref.String("bell\x07")},
	}
}

func (pt *ParserTester) parse(t *testing.T, entries []document.Entry) []document.Entry {
	t.Helper()
	data, err := pt.parser.MarshalTestData(entries)
	requireNoError(t, err, "MarshalTestData() error = %v", err)

	got, err := pt.parser.Parse("compliance", data)
	requireNoError(t, err, "Parse() error = %v\ninput:\n%s", err, data)
	return got
}

func (pt *ParserTester) testFormat(t *testing.T) {
	check(t, pt.parser.Format() != "", "Format() returned empty string")
}

func (pt *ParserTester) testEmpty(t *testing.T) {
	for _, data := range [][]byte{nil, {}} {
		entries, err := pt.parser.Parse("empty", data)
		requireNoError(t, err, "Parse(%q) error = %v", data, err)
		check(t, len(entries) == 0, "Parse(%q) returned %d entries, want 0", data, len(entries))
	}

	got := pt.parse(t, nil)
	check(t, len(got) == 0, "round trip of no entries returned %d entries", len(got))
}

func (pt *ParserTester) testRoundTrip(t *testing.T) {
	want := AllKinds()
	got := pt.parse(t, want)
	if diff := DiffEntries(got, want); diff != "" {
		t.Errorf("round trip mismatch:\n%s", diff)
	}
}

func (pt *ParserTester) testOrder(t *testing.T) {
	want := []document.Entry{
		{Key: "zeta.last", Value: pref.Int(1)},
		{Key: "alpha.first", Value: pref.Int(2)},
		{Key: "zeta.again", Value: pref.Int(3)},
		{Key: "mid", Value: pref.Int(4)},
	}
	got := pt.parse(t, want)
	if diff := DiffEntries(got, want); diff != "" {
		t.Errorf("declaration order not preserved:\n%s", diff)
	}
}

func (pt *ParserTester) testKeyCharacters(t *testing.T) {
	want := []document.Entry{
		{Key: "extensions.{972ce4c6-7e08-4474-a285-3208198ce6fd}.enabled", Value: pref.Bool(true)},
		{Key: "font.name.serif.x-western", Value: pref.String("Source Serif Pro")},
		{Key: "capability.policy.mailto:user@example/path", Value: pref.String("allAccess")},
		{Key: "browser.uiCustomization.state_v2", Value: pref.Int(19)},
	}
	got := pt.parse(t, want)
	if diff := DiffEntries(got, want); diff != "" {
		t.Errorf("key characters not preserved:\n%s", diff)
	}
}

func (pt *ParserTester) testDuplicates(t *testing.T) {
	if pt.skipDuplicateReason != "" {
		t.Skip(pt.skipDuplicateReason)
	}
	want := []document.Entry{
		{Key: "a.b", Value: pref.Bool(true)},
		{Key: "c", Value: pref.Int(1)},
		{Key: "a.b", Value: pref.Bool(false)},
	}
	got := pt.parse(t, want)
	if diff := DiffEntries(got, want); diff != "" {
		t.Errorf("duplicates must be kept in order:\n%s", diff)
	}
}

func (pt *ParserTester) testPositions(t *testing.T) {
	got := pt.parse(t, AllKinds())
	last := 0
	for _, e := range got {
		check(t, e.Pos.Source == "compliance", "%s: Pos.Source = %q, want %q", e.Key, e.Pos.Source, "compliance")
		check(t, e.Pos.Line >= 1, "%s: Pos.Line = %d, want >= 1", e.Key, e.Pos.Line)
		check(t, e.Pos.Line >= last, "%s: Pos.Line = %d goes backwards from %d", e.Key, e.Pos.Line, last)
		last = e.Pos.Line
	}
}

func (pt *ParserTester) testMalformed(t *testing.T) {
	if len(pt.malformed) == 0 {
		t.Skip("no malformed inputs configured")
	}
	for _, tc := range pt.malformed {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := pt.parser.Parse("malformed", tc.data)
			require(t, err != nil, "Parse(%q) = %d entries, want error", tc.data, len(entries))
			check(t, errors.Is(err, document.ErrMalformedEntry),
				"Parse(%q) error = %v, want ErrMalformedEntry", tc.data, err)
			var me *document.MalformedEntryError
			if errors.As(err, &me) {
				check(t, me.Reason != "", "MalformedEntryError.Reason is empty")
			}
			check(t, entries == nil, "Parse returned partial entries alongside an error")
		})
	}
}
