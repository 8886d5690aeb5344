package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ordering"
)

// ListedItem is one content item in a listing.
type ListedItem struct {
	ID        string      `json:"id"`
	Kind      entity.Kind `json:"kind"`
	Title     string      `json:"title"`
	Position  int         `json:"position,omitempty"`
	Published bool        `json:"published"`
}

// ListedModule is one module and its items in position order.
type ListedModule struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Position  int          `json:"position"`
	Published bool         `json:"published"`
	Items     []ListedItem `json:"items"`
}

// Listing is the outline of a course.
type Listing struct {
	Modules    []ListedModule `json:"modules"`
	Standalone []ListedItem   `json:"standalone"`
}

// List returns every module with its items, followed by the standalone
// items in insertion order.
func (e *Engine) List(ctx context.Context) (Listing, error) {
	modules, err := e.store.Modules(ctx)
	if err != nil {
		return Listing{}, err
	}
	out := Listing{Modules: make([]ListedModule, 0, len(modules))}
	for _, m := range modules {
		children, err := e.store.Children(ctx, m.ID)
		if err != nil {
			return Listing{}, err
		}
		lm := ListedModule{
			ID:        m.ID,
			Title:     m.Title,
			Position:  m.Position,
			Published: m.Published,
			Items:     make([]ListedItem, 0, len(children)),
		}
		for _, c := range children {
			lm.Items = append(lm.Items, listed(c))
		}
		out.Modules = append(out.Modules, lm)
	}

	standalone, err := e.store.Standalone(ctx)
	if err != nil {
		return Listing{}, err
	}
	out.Standalone = make([]ListedItem, 0, len(standalone))
	for _, s := range standalone {
		out.Standalone = append(out.Standalone, listed(s))
	}
	return out, nil
}

func listed(ent entity.Entity) ListedItem {
	return ListedItem{
		ID:        ent.ID,
		Kind:      ent.Kind,
		Title:     ent.Title,
		Position:  ent.Position,
		Published: ent.Published,
	}
}

// Detail is the full view of one entity.
type Detail struct {
	ID          string      `json:"id"`
	Kind        entity.Kind `json:"kind"`
	Title       string      `json:"title"`
	Published   bool        `json:"published"`
	Module      string      `json:"module,omitempty"`
	ModuleTitle string      `json:"module_title,omitempty"`
	Position    int         `json:"position,omitempty"`
	Points      *int        `json:"points,omitempty"`
	Href        string      `json:"href,omitempty"`
	Body        string      `json:"body,omitempty"`
}

// Display returns the entity of kind selected by sel. File bodies are
// omitted since they may be binary.
func (e *Engine) Display(ctx context.Context, kind entity.Kind, sel Selector) (Detail, error) {
	ent, err := e.Resolve(ctx, kind, sel)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{
		ID:        ent.ID,
		Kind:      ent.Kind,
		Title:     ent.Title,
		Published: ent.Published,
		Module:    ent.ParentID,
		Position:  ent.Position,
		Href:      ent.Href,
	}
	if kind != entity.KindFile {
		d.Body = ent.Body
	}
	if kind == entity.KindAssignment || kind == entity.KindQuiz {
		points := ent.Points
		d.Points = &points
	}
	if ent.ParentID != "" {
		m, err := e.store.Get(ctx, ent.ParentID)
		if err != nil {
			return Detail{}, err
		}
		d.ModuleTitle = m.Title
	}
	return d, nil
}

// Violation is one broken invariant found by Verify.
type Violation struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// String formats the violation for text output.
func (v Violation) String() string {
	if v.ID == "" {
		return v.Message
	}
	return v.ID + ": " + v.Message
}

// Verify checks the table invariants: contiguous positions in every
// scope, content items parented only by modules, item wrapper ids present
// exactly for module items, and every entity accepted by its adapter.
func (e *Engine) Verify(ctx context.Context) ([]Violation, error) {
	all, err := e.store.All(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]entity.Entity, len(all))
	for _, ent := range all {
		byID[ent.ID] = ent
	}

	var out []Violation
	scopes := map[string][]ordering.Slot{}
	for _, ent := range all {
		a, err := e.adapterFor(ent.Kind)
		if err != nil {
			out = append(out, Violation{ID: ent.ID, Message: err.Error()})
			continue
		}
		if err := a.Validate(ent); err != nil {
			out = append(out, Violation{ID: ent.ID, Message: err.Error()})
		}

		switch {
		case ent.Kind == entity.KindModule:
			if ent.ParentID != "" {
				out = append(out, Violation{ID: ent.ID, Message: "module has a parent"})
			}
			scopes[""] = append(scopes[""], ordering.Slot{ID: ent.ID, Position: ent.Position})
		case ent.ParentID == "":
			if ent.Position != 0 {
				out = append(out, Violation{ID: ent.ID, Message: fmt.Sprintf("standalone item at position %d", ent.Position)})
			}
			if ent.ItemID != "" {
				out = append(out, Violation{ID: ent.ID, Message: "standalone item has a module item id"})
			}
		default:
			parent, ok := byID[ent.ParentID]
			if !ok || parent.Kind != entity.KindModule {
				out = append(out, Violation{ID: ent.ID, Message: fmt.Sprintf("parent %s is not a module", ent.ParentID)})
			}
			if ent.ItemID == "" {
				out = append(out, Violation{ID: ent.ID, Message: "module item has no item id"})
			}
			scopes[ent.ParentID] = append(scopes[ent.ParentID], ordering.Slot{ID: ent.ID, Position: ent.Position})
		}
	}

	names := make([]string, 0, len(scopes))
	for scope := range scopes {
		names = append(names, scope)
	}
	sort.Strings(names)
	for _, scope := range names {
		for _, problem := range ordering.Validate(scopes[scope]) {
			out = append(out, Violation{ID: scope, Message: problem})
		}
	}
	return out, nil
}
