// Package plan builds course content in bulk from a CUE plan file.
//
// A plan lists modules with their items, plus standalone items:
//
//	modules: [{
//		title: "Week 1"
//		items: [
//			{kind: "quiz", title: "Q1", points: 10},
//			{kind: "file", filename: "syllabus.pdf", source: "files/syllabus.pdf"},
//		]
//	}]
//	standalone: [{kind: "wiki", title: "About", content: "<p>Hi</p>"}]
//
// The plan is validated against an embedded schema before anything is
// applied, and Apply runs every addition through the engine, so a plan is
// committed as one command: all of it or none of it.
package plan

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
)

//go:embed plan_schema.cue
var planSchema string

// Plan is a decoded course plan.
type Plan struct {
	Modules    []Module `json:"modules"`
	Standalone []Item   `json:"standalone"`

	// Dir resolves item sources; the plan file's directory.
	Dir string `json:"-"`
}

// Module is one module of a plan.
type Module struct {
	Title     string `json:"title"`
	Published *bool  `json:"published,omitempty"`
	Position  *int   `json:"position,omitempty"`
	Items     []Item `json:"items"`
}

// Item is one content item of a plan.
type Item struct {
	Kind      string `json:"kind"`
	Title     string `json:"title,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content,omitempty"`
	Source    string `json:"source,omitempty"`
	Points    *int   `json:"points,omitempty"`
	Published *bool  `json:"published,omitempty"`
	Position  *int   `json:"position,omitempty"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	p, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	p.Dir = filepath.Dir(path)
	return p, nil
}

// Parse validates CUE source against the plan schema and decodes it.
// filename is used in error messages only.
func Parse(data []byte, filename string) (*Plan, error) {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(planSchema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("internal error: failed to compile plan schema: %w", err)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if err := userValue.Err(); err != nil {
		return nil, formatError(err, filename)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Plan")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatError(err, filename)
	}

	var p Plan
	if err := unified.Decode(&p); err != nil {
		return nil, formatError(err, filename)
	}
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &p, nil
}

// check enforces what the schema leaves to the kind: files need a
// filename, everything else a title.
func (p *Plan) check() error {
	checkItems := func(where string, items []Item) error {
		for i, it := range items {
			kind, err := entity.ParseKind(it.Kind)
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", where, i, err)
			}
			switch {
			case kind == entity.KindFile && it.Filename == "":
				return fmt.Errorf("%s[%d]: file items need a filename", where, i)
			case kind != entity.KindFile && it.Title == "":
				return fmt.Errorf("%s[%d]: %s items need a title", where, i, it.Kind)
			case it.Content != "" && it.Source != "":
				return fmt.Errorf("%s[%d]: content and source are mutually exclusive", where, i)
			}
		}
		return nil
	}
	for i, m := range p.Modules {
		if err := checkItems(fmt.Sprintf("modules[%d].items", i), m.Items); err != nil {
			return err
		}
	}
	return checkItems("standalone", p.Standalone)
}

// Apply adds everything in the plan through e. Items are attached to the
// module just created by id, so duplicate module titles in the course do
// not make the plan ambiguous. Callers run Apply inside one transaction.
func Apply(ctx context.Context, e *engine.Engine, p *Plan) ([]engine.Report, error) {
	var reports []engine.Report
	for _, m := range p.Modules {
		r, err := e.Add(ctx, engine.AddParams{
			Kind:      entity.KindModule,
			Title:     m.Title,
			Published: m.Published,
			Position:  m.Position,
		})
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", m.Title, err)
		}
		reports = append(reports, r)

		module := engine.ByID(r.ID)
		for _, it := range m.Items {
			r, err := p.addItem(ctx, e, it, &module)
			if err != nil {
				return nil, fmt.Errorf("module %q: %w", m.Title, err)
			}
			reports = append(reports, r)
		}
	}
	for _, it := range p.Standalone {
		r, err := p.addItem(ctx, e, it, nil)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (p *Plan) addItem(ctx context.Context, e *engine.Engine, it Item, module *engine.Selector) (engine.Report, error) {
	kind, err := entity.ParseKind(it.Kind)
	if err != nil {
		return engine.Report{}, err
	}
	title := it.Title
	if kind == entity.KindFile {
		title = it.Filename
	}

	body := it.Content
	if it.Source != "" {
		src := it.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(p.Dir, filepath.FromSlash(src))
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return engine.Report{}, fmt.Errorf("%s %q: read source: %w", kind.Noun(), title, err)
		}
		body = string(data)
	}

	r, err := e.Add(ctx, engine.AddParams{
		Kind:      kind,
		Title:     title,
		Body:      body,
		Published: it.Published,
		Points:    it.Points,
		Module:    module,
		Position:  it.Position,
	})
	if err != nil {
		return engine.Report{}, fmt.Errorf("%s %q: %w", kind.Noun(), title, err)
	}
	return r, nil
}

// formatError flattens CUE errors into one message with their paths.
func formatError(err error, filename string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := strings.Join(cueerrors.Path(e), "."); path != "" && !strings.HasPrefix(msg, path) {
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}
