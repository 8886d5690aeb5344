package refsync

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/store"
)

// Plan is the full set of derived documents for one store state.
type Plan struct {
	// Documents is sorted by path.
	Documents []adapter.Document

	// Affected lists the modules whose ordering changed in the command that
	// produced this plan, sorted.
	Affected []string

	index map[string]int
}

// Paths returns every document path, sorted.
func (p *Plan) Paths() []string {
	out := make([]string, len(p.Documents))
	for i, d := range p.Documents {
		out[i] = d.Path
	}
	return out
}

// Get returns the bytes of one document.
func (p *Plan) Get(path string) ([]byte, bool) {
	i, ok := p.index[path]
	if !ok {
		return nil, false
	}
	return p.Documents[i].Data, true
}

// Has reports whether the plan produces path.
func (p *Plan) Has(path string) bool {
	_, ok := p.index[path]
	return ok
}

// Equal reports whether two plans produce the same documents.
func (p *Plan) Equal(other *Plan) bool {
	if len(p.Documents) != len(other.Documents) {
		return false
	}
	for i, d := range p.Documents {
		o := other.Documents[i]
		if d.Path != o.Path || !bytes.Equal(d.Data, o.Data) {
			return false
		}
	}
	return true
}

// Stale returns the paths of before that this plan no longer produces.
func (p *Plan) Stale(before *Plan) []string {
	if before == nil {
		return nil
	}
	var out []string
	for _, d := range before.Documents {
		if !p.Has(d.Path) {
			out = append(out, d.Path)
		}
	}
	return out
}

// Rebuild renders every derived document from the store. affected names
// the modules the caller touched; it is carried into the plan for
// reporting and does not narrow what is rendered.
func Rebuild(ctx context.Context, st *store.Store, reg *adapter.Registry, course adapter.Course, affected ...string) (*Plan, error) {
	all, err := st.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	rc := adapter.NewContext(course, all)

	modules, err := st.Modules(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	tree := make([]moduleTree, 0, len(modules))
	var items []entity.Entity
	for _, m := range modules {
		children, err := st.Children(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("rebuild module %s: %w", m.ID, err)
		}
		tree = append(tree, moduleTree{Module: m, Items: children})
		items = append(items, children...)
	}
	standalone, err := st.Standalone(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	items = append(items, standalone...)

	b := newPlanBuilder()

	settings, err := adapter.RenderCourseSettings(course)
	if err != nil {
		return nil, err
	}
	if err := b.add("course settings", settings...); err != nil {
		return nil, err
	}

	moduleDocs, err := renderModuleDocs(reg, tree)
	if err != nil {
		return nil, err
	}
	if err := b.add("module documents", moduleDocs...); err != nil {
		return nil, err
	}

	resources := []adapter.Resource{settingsResource(course, tree)}
	for _, e := range items {
		a, err := reg.For(e.Kind)
		if err != nil {
			return nil, err
		}
		if err := a.Validate(e); err != nil {
			return nil, fmt.Errorf("rebuild %s: %w", e.ID, err)
		}
		docs, err := a.Render(rc, e)
		if err != nil {
			return nil, err
		}
		if err := b.add(e.ID, docs...); err != nil {
			return nil, err
		}
		resources = append(resources, a.Resources(rc, e)...)
	}

	manifest, err := renderManifest(course, tree, resources)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", ManifestPath, err)
	}
	if err := b.add("manifest", adapter.Document{Path: ManifestPath, Data: manifest}); err != nil {
		return nil, err
	}

	return b.plan(affected), nil
}

// settingsResource is the course settings resource. Its file list names
// every per-module document, which is how the manifest references them.
func settingsResource(course adapter.Course, tree []moduleTree) adapter.Resource {
	files := []string{adapter.CourseSettingsPath, ModuleMetaPath}
	for _, mt := range tree {
		files = append(files, ModulePath(mt.Module.ID))
	}
	for _, f := range adapter.SettingsFiles() {
		if f != adapter.CourseSettingsPath {
			files = append(files, f)
		}
	}
	return adapter.Resource{
		ID:    course.ID,
		Type:  adapter.TypeLearningApp,
		Href:  adapter.CanvasExportPath,
		Files: files,
	}
}

type planBuilder struct {
	docs  []adapter.Document
	owner map[string]string
}

func newPlanBuilder() *planBuilder {
	return &planBuilder{owner: make(map[string]string)}
}

func (b *planBuilder) add(owner string, docs ...adapter.Document) error {
	for _, d := range docs {
		if prev, ok := b.owner[d.Path]; ok {
			return entity.NewValidation("", "%s is produced by both %s and %s", d.Path, prev, owner)
		}
		b.owner[d.Path] = owner
		b.docs = append(b.docs, d)
	}
	return nil
}

func (b *planBuilder) plan(affected []string) *Plan {
	sort.Slice(b.docs, func(i, j int) bool { return b.docs[i].Path < b.docs[j].Path })
	p := &Plan{Documents: b.docs, index: make(map[string]int, len(b.docs))}
	for i, d := range b.docs {
		p.index[d.Path] = i
	}

	seen := make(map[string]bool)
	for _, id := range affected {
		if id != "" && !seen[id] {
			seen[id] = true
			p.Affected = append(p.Affected, id)
		}
	}
	sort.Strings(p.Affected)
	return p
}
