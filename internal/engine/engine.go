package engine

import (
	"context"
	"fmt"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ids"
	"github.com/roach88/cartridge/internal/ordering"
	"github.com/roach88/cartridge/internal/queryir"
	"github.com/roach88/cartridge/internal/store"
)

// Engine applies editing operations to one store.
type Engine struct {
	store    *store.Store
	reg      *adapter.Registry
	alloc    *ids.Allocator
	defaults adapter.Defaults
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaults sets the creation defaults of optional fields.
func WithDefaults(d adapter.Defaults) Option {
	return func(e *Engine) {
		e.defaults = d
	}
}

// New creates an Engine over st.
func New(st *store.Store, reg *adapter.Registry, alloc *ids.Allocator, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		reg:      reg,
		alloc:    alloc,
		defaults: adapter.DefaultDefaults(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Atomic runs fn inside one store transaction. If fn returns an error
// every write it made is rolled back.
func (e *Engine) Atomic(ctx context.Context, fn func(tx *Engine) error) error {
	return e.store.WithTx(ctx, func(tx *store.Store) error {
		scoped := *e
		scoped.store = tx
		return fn(&scoped)
	})
}

// Selector names the subject of an operation: an id, or a title (the
// filename for files). ID wins when both are set.
type Selector struct {
	ID    string
	Title string
}

// ByTitle selects by title.
func ByTitle(title string) Selector { return Selector{Title: title} }

// ByID selects by id.
func ByID(id string) Selector { return Selector{ID: id} }

// String describes the selector in error messages.
func (s Selector) String() string {
	if s.ID != "" {
		return fmt.Sprintf("id=%s", s.ID)
	}
	return fmt.Sprintf("title=%q", s.Title)
}

// Resolve returns the single entity of kind matched by sel.
func (e *Engine) Resolve(ctx context.Context, kind entity.Kind, sel Selector) (entity.Entity, error) {
	if sel.ID != "" {
		ent, err := e.store.Get(ctx, sel.ID)
		if entity.IsNotFound(err) || err == nil && ent.Kind != kind {
			return entity.Entity{}, entity.NewNotFound(kind, sel.String())
		}
		return ent, err
	}
	if sel.Title == "" {
		return entity.Entity{}, entity.NewValidation(kind, "a title or id is required to select a %s", kind.Noun())
	}

	title := sel.Title
	if kind == entity.KindFile {
		title = adapter.NormalizeFilename(title)
	}
	return e.store.FindOne(ctx, kind, sel.String(), queryir.AllOf(queryir.KindIs(kind), queryir.TitleIs(title)))
}

// target resolves the destination module of an add, copy or move. A
// missing module is an invalid target rather than a missing subject.
func (e *Engine) target(ctx context.Context, sel Selector) (entity.Entity, error) {
	if sel.ID != "" {
		ent, err := e.store.Get(ctx, sel.ID)
		if entity.IsNotFound(err) {
			return entity.Entity{}, entity.NewInvalidTarget(sel.ID, "target module does not exist")
		}
		if err != nil {
			return entity.Entity{}, err
		}
		if ent.Kind != entity.KindModule {
			return entity.Entity{}, entity.NewInvalidTarget(sel.ID, fmt.Sprintf("target is a %s, not a module", ent.Kind))
		}
		return ent, nil
	}

	m, err := e.Resolve(ctx, entity.KindModule, sel)
	if entity.IsNotFound(err) {
		return entity.Entity{}, entity.NewInvalidTarget("", fmt.Sprintf("no module matches %s", sel))
	}
	return m, err
}

// insertInto ranks id inside scope and writes the renumbered scope. id
// must already carry scope as its parent; its current position is
// ignored. requested nil appends.
func (e *Engine) insertInto(ctx context.Context, scope, id string, requested *int) (ordering.Result, error) {
	slots, err := e.store.Slots(ctx, scope)
	if err != nil {
		return ordering.Result{}, err
	}
	before := make([]ordering.Slot, 0, len(slots))
	for _, s := range slots {
		if s.ID != id {
			before = append(before, s)
		}
	}
	res := ordering.InsertAt(before, id, requested)
	if err := e.store.SetPositions(ctx, ordering.Changed(before, res.Slots)); err != nil {
		return ordering.Result{}, err
	}
	return res, nil
}

// closeGap renumbers a scope after one of its members left it.
func (e *Engine) closeGap(ctx context.Context, scope string) error {
	slots, err := e.store.Slots(ctx, scope)
	if err != nil {
		return err
	}
	return e.store.SetPositions(ctx, ordering.Changed(slots, ordering.Normalize(slots)))
}

func (e *Engine) nextID() (string, error) {
	id, err := e.alloc.Next()
	if err != nil {
		return "", fmt.Errorf("allocate id: %w", err)
	}
	return id, nil
}

// allocate gives ent a fresh id and fresh secondary ids for its kind.
func (e *Engine) allocate(a adapter.Adapter, ent *entity.Entity) error {
	id, err := e.nextID()
	if err != nil {
		return err
	}
	ent.ID = id
	ent.AuxIDs = nil
	for _, key := range a.AuxKeys() {
		aux, err := e.nextID()
		if err != nil {
			return err
		}
		if ent.AuxIDs == nil {
			ent.AuxIDs = make(map[string]string)
		}
		ent.AuxIDs[key] = aux
	}
	return nil
}

func (e *Engine) adapterFor(kind entity.Kind) (adapter.Adapter, error) {
	a, err := e.reg.For(kind)
	if err != nil {
		return nil, entity.NewValidation(kind, "%v", err)
	}
	return a, nil
}
