package cartridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ids"
	"github.com/roach88/cartridge/internal/ordering"
	"github.com/roach88/cartridge/internal/refsync"
	"github.com/roach88/cartridge/internal/store"
)

// ErrNotPackage is returned when a directory holds no manifest.
var ErrNotPackage = errors.New("not a cartridge package")

// Package is one cartridge loaded for a command.
type Package struct {
	Dir      string
	Course   adapter.Course
	Store    *store.Store
	Alloc    *ids.Allocator
	Registry *adapter.Registry

	// Baseline is the plan of the store as loaded. Documents it produces
	// that a later plan does not are stale and removed on Write.
	Baseline *refsync.Plan
}

// Options configures Load and Create.
type Options struct {
	// Generator produces new identifiers. Defaults to ids.UUIDGenerator.
	Generator ids.Generator

	// Now returns the creation time of new packages. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) generator() ids.Generator {
	if o.Generator == nil {
		return ids.UUIDGenerator{}
	}
	return o.Generator
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Close releases the store.
func (p *Package) Close() error {
	return p.Store.Close()
}

// Rebuild renders the current store contents.
func (p *Package) Rebuild(ctx context.Context, affected ...string) (*refsync.Plan, error) {
	return refsync.Rebuild(ctx, p.Store, p.Registry, p.Course, affected...)
}

// Load scans dir into a fresh store.
func Load(ctx context.Context, dir string, opts Options) (*Package, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open package: %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	data, err := fs.ReadFile(fsys, refsync.ManifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w (no %s)", dir, ErrNotPackage, refsync.ManifestPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	manifest, err := refsync.ParseManifest(data)
	if err != nil {
		return nil, err
	}

	course, err := adapter.ParseCourseSettings(fsys)
	if err != nil {
		return nil, err
	}
	course.ManifestID = manifest.Identifier
	course.Created = manifest.Created
	if course.Title == "" {
		course.Title = manifest.Title
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, err
	}
	p := &Package{
		Dir:      dir,
		Course:   course,
		Store:    st,
		Alloc:    ids.NewAllocator(opts.generator()),
		Registry: adapter.NewRegistry(),
	}

	if err := st.WithTx(ctx, func(tx *store.Store) error {
		return scan(ctx, tx, p.Registry, fsys, manifest)
	}); err != nil {
		st.Close()
		return nil, err
	}

	ledger, err := ReadLedger(dir)
	if err != nil {
		st.Close()
		return nil, err
	}
	known, err := st.IDs(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	p.Alloc.Seed(known...)
	p.Alloc.Seed(course.IDs()...)
	p.Alloc.SeedRetired(ledger.Retired...)

	p.Baseline, err = p.Rebuild(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	return p, nil
}

// placement is where a module item document puts an entity.
type placement struct {
	module   string
	itemID   string
	position int
}

func scan(ctx context.Context, tx *store.Store, reg *adapter.Registry, fsys fs.FS, m *refsync.Manifest) error {
	modules, err := refsync.ReadModules(fsys, m)
	if err != nil {
		return err
	}

	placed := make(map[string]placement)
	for i, rec := range modules {
		pos := rec.Position
		if pos == 0 {
			pos = i + 1
		}
		if _, err := tx.Insert(ctx, entity.Entity{
			ID:        rec.ID,
			Kind:      entity.KindModule,
			Title:     rec.Title,
			Published: rec.Published,
			Position:  pos,
		}); err != nil {
			return fmt.Errorf("load module %s: %w", rec.ID, err)
		}
		for j, it := range rec.Items {
			pos := it.Position
			if pos == 0 {
				pos = j + 1
			}
			if _, dup := placed[it.Ref]; dup {
				return entity.NewValidation("", "%s appears in more than one module item", it.Ref)
			}
			placed[it.Ref] = placement{module: rec.ID, itemID: it.ItemID, position: pos}
		}
	}

	resources := m.ResourceMap()
	loaded := make(map[string]bool)
	for _, r := range m.Resources {
		a, ok := reg.Classify(r)
		if !ok {
			continue
		}
		e, err := a.Parse(r, resources, fsys)
		if err != nil {
			return fmt.Errorf("load %s: %w", r.ID, err)
		}
		if pl, ok := placed[e.ID]; ok {
			e.ParentID, e.ItemID, e.Position = pl.module, pl.itemID, pl.position
		}
		if _, err := tx.Insert(ctx, e); err != nil {
			return fmt.Errorf("load %s: %w", r.ID, err)
		}
		loaded[e.ID] = true
	}

	for ref, pl := range placed {
		if !loaded[ref] {
			slog.Warn("module item skipped: no supported resource",
				"module", pl.module,
				"item", pl.itemID,
				"ref", ref,
			)
		}
	}

	return normalize(ctx, tx, modules)
}

// normalize closes position gaps left by hand-edited or skipped items.
func normalize(ctx context.Context, tx *store.Store, modules []refsync.ModuleRecord) error {
	scopes := []string{""}
	for _, rec := range modules {
		scopes = append(scopes, rec.ID)
	}
	for _, scope := range scopes {
		slots, err := tx.Slots(ctx, scope)
		if err != nil {
			return err
		}
		changed := ordering.Changed(slots, ordering.Normalize(slots))
		if len(changed) == 0 {
			continue
		}
		slog.Debug("positions normalized", "module", scope, "changed", len(changed))
		if err := tx.SetPositions(ctx, changed); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult lists what Write touched.
type WriteResult struct {
	Written   []string `json:"written"`
	Removed   []string `json:"removed"`
	Unchanged int      `json:"unchanged"`
}

// Write persists plan into the package directory and records retired ids.
// Files whose bytes already match are left alone.
func (p *Package) Write(plan *refsync.Plan) (WriteResult, error) {
	var res WriteResult
	for _, d := range plan.Documents {
		target := filepath.Join(p.Dir, filepath.FromSlash(d.Path))
		cur, err := os.ReadFile(target)
		if err == nil && bytes.Equal(cur, d.Data) {
			res.Unchanged++
			continue
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("read %s: %w", d.Path, err)
		}
		if err := writeFileAtomic(target, d.Data); err != nil {
			return res, err
		}
		res.Written = append(res.Written, d.Path)
	}

	stale := plan.Stale(p.Baseline)
	orphans, err := p.orphanModuleDocs(plan)
	if err != nil {
		return res, err
	}
	stale = append(stale, orphans...)
	sort.Strings(stale)

	for i, rel := range stale {
		if i > 0 && stale[i-1] == rel {
			continue
		}
		target := filepath.Join(p.Dir, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return res, fmt.Errorf("remove %s: %w", rel, err)
		}
		if err := removeEmptyParents(p.Dir, target); err != nil {
			return res, err
		}
		res.Removed = append(res.Removed, rel)
	}

	if err := WriteLedger(p.Dir, Ledger{Retired: p.Alloc.Retired()}); err != nil {
		return res, err
	}
	p.Baseline = plan

	slog.Debug("package written",
		"dir", p.Dir,
		"written", len(res.Written),
		"removed", len(res.Removed),
		"unchanged", res.Unchanged,
	)
	return res, nil
}

// orphanModuleDocs finds module documents on disk for modules the plan
// does not know.
func (p *Package) orphanModuleDocs(plan *refsync.Plan) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.Dir, filepath.FromSlash(refsync.ModuleDir)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", refsync.ModuleDir, err)
	}
	var out []string
	for _, e := range entries {
		rel := refsync.ModuleDir + "/" + e.Name()
		if !e.IsDir() && refsync.IsModuleDoc(rel) && !plan.Has(rel) {
			out = append(out, rel)
		}
	}
	return out, nil
}

// CreateParams describes a new course.
type CreateParams struct {
	Title string
	Code  string
}

// Create lays down an empty course in dir. dir must not exist or be empty.
func Create(ctx context.Context, dir string, params CreateParams, opts Options) (*Package, error) {
	if params.Title == "" {
		return nil, entity.NewValidation("", "course title must not be empty")
	}
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("create package: %w", err)
	case len(entries) > 0:
		return nil, fmt.Errorf("create package: %s is not empty", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	alloc := ids.NewAllocator(opts.generator())
	course := adapter.Course{
		Title:   params.Title,
		Code:    params.Code,
		Created: opts.now().Format("2006-01-02"),
	}
	for _, id := range []*string{&course.ID, &course.AssignmentGroupID, &course.LatePolicyID, &course.ManifestID} {
		if *id, err = alloc.Next(); err != nil {
			return nil, err
		}
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, err
	}
	p := &Package{
		Dir:      dir,
		Course:   course,
		Store:    st,
		Alloc:    alloc,
		Registry: adapter.NewRegistry(),
	}
	plan, err := p.Rebuild(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	if _, err := p.Write(plan); err != nil {
		st.Close()
		return nil, err
	}
	return p, nil
}
