package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/cartridge/internal/cartridge"
	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/queryir"
)

// AssertionContext gives package assertions access to the final state.
type AssertionContext struct {
	Ctx     context.Context
	Package *cartridge.Package
}

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", traceLine(event))
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages. An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertModules:
		return assertModules(result.Outline, a)
	case AssertModuleOrder:
		return assertModuleOrder(result.Outline, a)
	case AssertStandalone:
		return assertStandalone(result.Outline, a)
	}

	if actx == nil || actx.Package == nil {
		return fmt.Errorf("%s assertion requires a package", a.Type)
	}
	switch a.Type {
	case AssertEntityCount:
		return assertEntityCount(actx, a)
	case AssertFinalState:
		return assertFinalState(actx, a)
	case AssertDocument:
		return assertDocument(actx, a)
	case AssertConsistent:
		return assertConsistent(actx)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// stepMatches reports whether event satisfies the op, kind and case
// filters of a; empty filters match anything.
func stepMatches(event TraceEvent, a Assertion) bool {
	if event.Op != a.Op {
		return false
	}
	if a.Kind != "" {
		k, err := entity.ParseKind(a.Kind)
		if err != nil || k != event.Kind {
			return false
		}
	}
	return a.Case == "" || a.Case == event.Case
}

// assertTraceContains checks that a step with the given op, kind and case
// was executed.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if stepMatches(event, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("step %s %s with case %q", a.Op, a.Kind, a.Case),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that ops appear in the given order. Other steps
// may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Ops) && event.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("ops in order: %v", a.Ops),
		Actual:   fmt.Sprintf("matched %v, missing %s", a.Ops[:next], a.Ops[next]),
		Trace:    trace,
	}
}

// assertTraceCount checks the number of matching steps.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if stepMatches(event, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertModules(l engine.Listing, a Assertion) error {
	titles := make([]string, 0, len(l.Modules))
	for _, m := range l.Modules {
		titles = append(titles, m.Title)
	}
	return compareSeq(AssertModules, "modules", a.Titles, titles)
}

func assertModuleOrder(l engine.Listing, a Assertion) error {
	var found *engine.ListedModule
	for i := range l.Modules {
		if l.Modules[i].Title == a.Module {
			if found != nil {
				return fmt.Errorf("module_order: more than one module titled %q", a.Module)
			}
			found = &l.Modules[i]
		}
	}
	if found == nil {
		return &AssertionError{
			Type:     AssertModuleOrder,
			Expected: fmt.Sprintf("module %q", a.Module),
			Actual:   "module not found",
		}
	}

	titles := make([]string, 0, len(found.Items))
	positions := make([]int, 0, len(found.Items))
	for _, it := range found.Items {
		titles = append(titles, it.Title)
		positions = append(positions, it.Position)
	}
	if err := compareSeq(AssertModuleOrder, "items of "+a.Module, a.Titles, titles); err != nil {
		return err
	}
	if a.Positions != nil {
		return compareSeq(AssertModuleOrder, "positions in "+a.Module, a.Positions, positions)
	}
	return nil
}

func assertStandalone(l engine.Listing, a Assertion) error {
	titles := make([]string, 0, len(l.Standalone))
	for _, it := range l.Standalone {
		titles = append(titles, it.Title)
	}
	return compareSeq(AssertStandalone, "standalone items", a.Titles, titles)
}

func compareSeq[T comparable](typ, what string, want, got []T) error {
	if len(want) == 0 && len(got) == 0 {
		return nil
	}
	if reflect.DeepEqual(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%s %v", what, want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

func assertEntityCount(actx *AssertionContext, a Assertion) error {
	var pred queryir.Predicate
	what := "entities"
	if a.Kind != "" {
		k, _ := entity.ParseKind(a.Kind)
		pred = queryir.KindIs(k)
		what = string(k) + " entities"
	}
	n, err := actx.Package.Store.Count(actx.Ctx, pred)
	if err != nil {
		return err
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertEntityCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d", n),
		}
	}
	return nil
}

// assertFinalState checks fields of the entity selected by kind and
// title using subset semantics. "module" compares the parent module's
// title.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	kind, _ := entity.ParseKind(a.Kind)
	e := actx.Package.Engine()
	ent, err := e.Resolve(actx.Ctx, kind, engine.ByTitle(a.Title))
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("one %s titled %q", kind, a.Title),
			Actual:   err.Error(),
		}
	}

	moduleTitle := ""
	if ent.ParentID != "" {
		m, err := actx.Package.Store.Get(actx.Ctx, ent.ParentID)
		if err != nil {
			return err
		}
		moduleTitle = m.Title
	}
	actual := map[string]interface{}{
		"id":        ent.ID,
		"title":     ent.Title,
		"body":      ent.Body,
		"published": ent.Published,
		"points":    ent.Points,
		"position":  ent.Position,
		"href":      ent.Href,
		"module":    moduleTitle,
	}

	for _, key := range sortedKeys(a.Expect) {
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("fields are %v", sortedKeys(actual)),
			}
		}
		if !valuesEqual(a.Expect[key], got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s %q field %q = %v", kind, a.Title, key, a.Expect[key]),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

func assertDocument(actx *AssertionContext, a Assertion) error {
	data, err := os.ReadFile(filepath.Join(actx.Package.Dir, filepath.FromSlash(a.Path)))
	if err != nil {
		if a.Absent && os.IsNotExist(err) {
			return nil
		}
		return &AssertionError{
			Type:     AssertDocument,
			Expected: fmt.Sprintf("document %s", a.Path),
			Actual:   err.Error(),
		}
	}
	has := strings.Contains(string(data), a.Contains)
	if has == !a.Absent {
		return nil
	}
	verb, actual := "to contain", fmt.Sprintf("%d bytes without a match", len(data))
	if a.Absent {
		verb, actual = "not to contain", "found"
	}
	return &AssertionError{
		Type:     AssertDocument,
		Expected: fmt.Sprintf("%s %s %q", a.Path, verb, a.Contains),
		Actual:   actual,
	}
}

// assertConsistent checks that the files on disk equal a fresh rebuild
// and that every invariant holds.
func assertConsistent(actx *AssertionContext) error {
	p := actx.Package
	drift, err := p.Diff(p.Baseline)
	if err != nil {
		return err
	}
	violations, err := p.Engine().Verify(actx.Ctx)
	if err != nil {
		return err
	}
	if len(drift) == 0 && len(violations) == 0 {
		return nil
	}

	var problems []string
	for _, d := range drift {
		problems = append(problems, fmt.Sprintf("%s %s", d.Status, d.Path))
	}
	for _, v := range violations {
		problems = append(problems, v.String())
	}
	return &AssertionError{
		Type:     AssertConsistent,
		Expected: "no drift and no violations",
		Actual:   strings.Join(problems, "; "),
	}
}

// valuesEqual compares YAML-decoded expectations with actual values by
// their printed form, so 10 matches int 10 and "g5" matches "g5".
func valuesEqual(want, got interface{}) bool {
	return fmt.Sprint(want) == fmt.Sprint(got)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
