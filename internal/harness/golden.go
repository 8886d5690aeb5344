package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cartridge/internal/engine"
)

// Snapshot renders the trace and final outline of a run as stable text.
//
//	scenario: week1_week2
//	trace:
//	  [1] add Module title="Week 1" -> ok g5 pos=1
//	outline:
//	  1. Week 1 [g5]
//	     1. Quiz "Q1" [g6]
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)

	b.WriteString("trace:\n")
	for _, event := range result.Trace {
		fmt.Fprintf(&b, "  %s\n", traceLine(event))
	}

	b.WriteString("outline:\n")
	if len(result.Outline.Modules) == 0 {
		b.WriteString("  (no modules)\n")
	}
	for _, m := range result.Outline.Modules {
		fmt.Fprintf(&b, "  %d. %s [%s]%s\n", m.Position, m.Title, m.ID, unpublished(m.Published))
		for _, it := range m.Items {
			fmt.Fprintf(&b, "     %d. %s %q [%s]%s\n", it.Position, it.Kind, it.Title, it.ID, unpublished(it.Published))
		}
	}
	if len(result.Outline.Standalone) > 0 {
		b.WriteString("standalone:\n")
		for _, it := range result.Outline.Standalone {
			fmt.Fprintf(&b, "  - %s %q [%s]%s\n", it.Kind, it.Title, it.ID, unpublished(it.Published))
		}
	}
	return []byte(b.String())
}

func traceLine(event TraceEvent) string {
	head := event.Op
	if event.Kind != "" {
		head += " " + string(event.Kind)
	}
	if event.Args != "" {
		head += " " + event.Args
	}
	out := event.Case
	if len(event.Reports) > 0 {
		parts := make([]string, 0, len(event.Reports))
		for _, r := range event.Reports {
			parts = append(parts, summarize(r))
		}
		out += " " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("[%d] %s -> %s", event.Seq, head, out)
}

// summarize describes one report on a single line.
func summarize(r engine.Report) string {
	parts := []string{r.ID}
	if r.Module != "" {
		parts = append(parts, "in "+r.Module)
	}
	if r.Position > 0 {
		parts = append(parts, fmt.Sprintf("pos=%d", r.Position))
	}
	if r.Clamped {
		parts = append(parts, "clamped")
	}
	if len(r.Changes) > 0 {
		fields := make([]string, 0, len(r.Changes))
		for _, c := range r.Changes {
			fields = append(fields, c.Field)
		}
		parts = append(parts, "changed="+strings.Join(fields, ","))
	}
	if len(r.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("removed=%d", len(r.Removed)))
	}
	return strings.Join(parts, " ")
}

func unpublished(published bool) string {
	if published {
		return ""
	}
	return " (unpublished)"
}

// RunWithGolden executes a scenario, fails t on any unmet expectation or
// assertion, and compares its snapshot with testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
