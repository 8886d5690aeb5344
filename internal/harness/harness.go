package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/cartridge/internal/cartridge"
	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ids"
	"github.com/roach88/cartridge/internal/plan"
	"github.com/roach88/cartridge/internal/testutil"
)

// DefaultCourseTitle is used when a scenario names no course.
const DefaultCourseTitle = "Scenario Course"

// Harness executes the steps of one scenario against one package.
type Harness struct {
	dir     string
	baseDir string
	clock   *testutil.DeterministicClock
	gen     ids.Generator
	now     func() time.Time
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh package in a temporary directory
// that is removed afterwards. Execution flow:
//  1. Create the package
//  2. Execute setup steps (each must succeed)
//  3. Execute flow steps, checking expect clauses
//  4. Reload the package and evaluate assertions
//
// Run returns an error only when the scenario could not be executed; an
// unmet expectation or assertion is reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	tmp, err := os.MkdirTemp("", "cartridge-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	h := &Harness{
		dir:     filepath.Join(tmp, "course"),
		baseDir: scenario.BaseDir,
		clock:   testutil.NewDeterministicClock(),
		gen:     ids.NewSequenceGenerator(ids.Prefix),
		now:     testutil.FixedNow(testutil.Epoch),
		logger:  slog.Default().With("scenario", scenario.Name),
	}
	ctx := context.Background()

	title := scenario.Course.Title
	if title == "" {
		title = DefaultCourseTitle
	}
	p, err := cartridge.Create(ctx, h.dir, cartridge.CreateParams{Title: title, Code: scenario.Course.Code}, h.options())
	if err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}
	p.Close()

	result := NewResult()
	for i, step := range scenario.Setup {
		kind, reports, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
		result.AddStep(h.clock.Next(), step, kind, CaseOK, reports)
	}

	for i, step := range scenario.Flow {
		kind, reports, err := h.execute(ctx, step)
		outcome := CaseOK
		if err != nil {
			code, ok := entity.CodeOf(err)
			if !ok {
				return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
			}
			outcome = string(code)
		}
		result.AddStep(h.clock.Next(), step, kind, outcome, reports)
		h.logger.Debug("scenario step", "index", i, "op", step.Op, "case", outcome)

		if msg := checkExpect(i, step, outcome, reports, err); msg != "" {
			result.AddError(msg)
		}
	}

	p, err = cartridge.Load(ctx, h.dir, h.options())
	if err != nil {
		return nil, fmt.Errorf("failed to reload package: %w", err)
	}
	defer p.Close()

	result.Outline, err = p.Engine().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list package: %w", err)
	}

	actx := &AssertionContext{Ctx: ctx, Package: p}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) options() cartridge.Options {
	return cartridge.Options{Generator: h.gen, Now: h.now}
}

// execute runs one step as one command: load, mutate, write, close.
func (h *Harness) execute(ctx context.Context, step Step) (entity.Kind, []engine.Report, error) {
	var kind entity.Kind
	if step.Kind != "" {
		k, err := entity.ParseKind(step.Kind)
		if err != nil {
			return "", nil, err
		}
		kind = k
	}
	if step.Op == OpRename {
		kind = entity.KindModule
	}

	var coursePlan *plan.Plan
	if step.Op == OpApply {
		path := step.Args.Plan
		if !filepath.IsAbs(path) && h.baseDir != "" {
			path = filepath.Join(h.baseDir, path)
		}
		var err error
		if coursePlan, err = plan.Load(path); err != nil {
			return kind, nil, err
		}
	}

	p, err := cartridge.Load(ctx, h.dir, h.options())
	if err != nil {
		return kind, nil, err
	}
	defer p.Close()

	out, err := p.Mutate(ctx, func(e *engine.Engine) ([]engine.Report, error) {
		if coursePlan != nil {
			return plan.Apply(ctx, e, coursePlan)
		}
		r, err := dispatch(ctx, e, step.Op, kind, step.Args)
		if err != nil {
			return nil, err
		}
		return []engine.Report{r}, nil
	})
	if err != nil {
		return kind, nil, err
	}
	return kind, out.Reports, nil
}

func dispatch(ctx context.Context, e *engine.Engine, op string, kind entity.Kind, a Args) (engine.Report, error) {
	sel := engine.Selector{ID: a.ID, Title: a.Title}
	switch op {
	case OpAdd:
		p := engine.AddParams{
			Kind:      kind,
			Title:     a.Title,
			Published: a.Published,
			Points:    a.Points,
			Module:    module(a.Module),
			Position:  a.Position,
		}
		if a.Body != nil {
			p.Body = *a.Body
		}
		return e.Add(ctx, p)
	case OpUpdate:
		return e.Update(ctx, kind, sel, entity.Patch{
			Title:     a.NewTitle,
			Body:      a.Body,
			Published: a.Published,
			Points:    a.Points,
			Position:  a.Position,
		})
	case OpRename:
		return e.Rename(ctx, sel, *a.NewTitle)
	case OpDelete:
		return e.Delete(ctx, kind, sel)
	case OpCopy:
		return e.Copy(ctx, kind, sel, module(a.Module))
	case OpMove:
		return e.Move(ctx, kind, sel, module(a.Module), a.Position)
	}
	return engine.Report{}, fmt.Errorf("unknown op %q", op)
}

func module(title string) *engine.Selector {
	if title == "" {
		return nil
	}
	s := engine.ByTitle(title)
	return &s
}

// checkExpect compares a flow step outcome with its expect clause and
// returns a failure message, or "" when it matches.
func checkExpect(index int, step Step, outcome string, reports []engine.Report, err error) string {
	if step.Expect == nil {
		if err != nil {
			return fmt.Sprintf("flow[%d] %s: unexpected failure: %v", index, step.Op, err)
		}
		return ""
	}
	if outcome != step.Expect.Case {
		detail := ""
		if err != nil {
			detail = fmt.Sprintf(" (%v)", err)
		}
		return fmt.Sprintf("flow[%d] %s: expected case %s, got %s%s", index, step.Op, step.Expect.Case, outcome, detail)
	}
	if len(step.Expect.Result) == 0 {
		return ""
	}
	if len(reports) == 0 {
		return fmt.Sprintf("flow[%d] %s: expected a result, got none", index, step.Op)
	}

	actual := reportFields(reports[0])
	var mismatches []string
	for _, key := range sortedKeys(step.Expect.Result) {
		got, ok := actual[key]
		want := step.Expect.Result[key]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("unknown result field %q", key))
			continue
		}
		if !valuesEqual(want, got) {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %v, got %v", key, want, got))
		}
	}
	if len(mismatches) > 0 {
		return fmt.Sprintf("flow[%d] %s: %s", index, step.Op, strings.Join(mismatches, "; "))
	}
	return ""
}

func reportFields(r engine.Report) map[string]interface{} {
	return map[string]interface{}{
		"id":       r.ID,
		"title":    r.Title,
		"module":   r.Module,
		"position": r.Position,
		"clamped":  r.Clamped,
		"changes":  len(r.Changes),
		"removed":  len(r.Removed),
	}
}
