package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yacchi/prefstack"
	"github.com/yacchi/prefstack/document"
	"github.com/yacchi/prefstack/validate"
)

// reporter renders human-readable output. Colors are used only when w is
// a terminal.
type reporter struct {
	w        io.Writer
	severity map[validate.Severity]lipgloss.Style
	dim      lipgloss.Style
	key      lipgloss.Style
	title    lipgloss.Style
}

func newReporter(w io.Writer) *reporter {
	r := lipgloss.NewRenderer(w)
	return &reporter{
		w: w,
		severity: map[validate.Severity]lipgloss.Style{
			validate.SeverityInfo:    r.NewStyle().Foreground(lipgloss.Color("86")),
			validate.SeverityWarning: r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
			validate.SeverityError:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
		dim:   r.NewStyle().Foreground(lipgloss.Color("245")),
		key:   r.NewStyle().Bold(true),
		title: r.NewStyle().Bold(true).Underline(true),
	}
}

// issues writes one line per issue followed by a summary line.
func (r *reporter) issues(issues validate.Issues) error {
	for _, i := range issues {
		pos := i.Pos.String()
		if pos == "" {
			pos = string(i.Layer)
		}
		line := fmt.Sprintf("%s %s %s %s",
			r.dim.Render(pos+":"),
			r.severity[i.Severity].Render(i.Severity.String()+":"),
			i.Message,
			r.dim.Render("["+string(i.Kind)+"]"),
		)
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(r.w, r.summary(issues))
	return err
}

func (r *reporter) summary(issues validate.Issues) string {
	if len(issues) == 0 {
		return r.severity[validate.SeverityInfo].Render("no issues")
	}
	counts := map[validate.Severity]int{}
	for _, i := range issues {
		counts[i.Severity]++
	}
	var parts []string
	for _, s := range []validate.Severity{validate.SeverityError, validate.SeverityWarning, validate.SeverityInfo} {
		if n := counts[s]; n > 0 {
			parts = append(parts, r.severity[s].Render(plural(n, s.String())))
		}
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// entries writes "pos  key = value" lines for a parsed layer.
func (r *reporter) entries(entries []document.Entry) error {
	for _, e := range entries {
		_, err := fmt.Fprintf(r.w, "%s  %s = %s\n", r.dim.Render(e.Pos.String()), r.key.Render(string(e.Key)), e.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

// effective writes "key = value  # layer (pos)" lines.
func (r *reporter) effective(set *prefstack.EffectiveSet, order prefstack.Order) error {
	var err error
	set.Walk(order, func(ctx prefstack.WalkContext) bool {
		rv := ctx.Value()
		note := fmt.Sprintf("# %s (%s)", rv.LayerName(), rv.Pos)
		_, err = fmt.Fprintf(r.w, "%s = %s  %s\n", r.key.Render(string(ctx.Key)), rv.Value, r.dim.Render(note))
		return err == nil
	})
	return err
}

type jsonPos struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func toJSONPos(p document.Pos) jsonPos {
	return jsonPos{Source: p.Source, Line: p.Line, Column: p.Column}
}

type jsonEntry struct {
	Key   string  `json:"key"`
	Kind  string  `json:"kind"`
	Value any     `json:"value"`
	Layer string  `json:"layer,omitempty"`
	Pos   jsonPos `json:"pos"`
}

type jsonIssue struct {
	validate.Issue
	Pos jsonPos `json:"pos"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func entriesJSON(entries []document.Entry) []jsonEntry {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{
			Key:   string(e.Key),
			Kind:  e.Value.Kind().String(),
			Value: e.Value.Interface(),
			Pos:   toJSONPos(e.Pos),
		})
	}
	return out
}

func effectiveJSON(set *prefstack.EffectiveSet, order prefstack.Order) []jsonEntry {
	out := make([]jsonEntry, 0, set.Len())
	set.Walk(order, func(ctx prefstack.WalkContext) bool {
		rv := ctx.Value()
		out = append(out, jsonEntry{
			Key:   string(ctx.Key),
			Kind:  rv.Value.Kind().String(),
			Value: rv.Value.Interface(),
			Layer: string(rv.LayerName()),
			Pos:   toJSONPos(rv.Pos),
		})
		return true
	})
	return out
}

func issuesJSON(issues validate.Issues) []jsonIssue {
	out := make([]jsonIssue, 0, len(issues))
	for _, i := range issues {
		out = append(out, jsonIssue{Issue: i, Pos: toJSONPos(i.Pos)})
	}
	return out
}
