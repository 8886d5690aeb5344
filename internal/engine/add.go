package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/queryir"
)

// AddParams describes a new entity. Nil optional fields take the kind's
// defaults.
type AddParams struct {
	Kind entity.Kind

	// Title is the filename for files.
	Title string
	Body  string

	Published *bool
	Points    *int

	// Module is the parent module; nil adds a standalone item. Must be
	// nil for modules.
	Module *Selector

	// Position inside the module (or among modules). Nil appends;
	// out-of-range values are clamped.
	Position *int
}

// Add creates an entity.
func (e *Engine) Add(ctx context.Context, p AddParams) (Report, error) {
	a, err := e.adapterFor(p.Kind)
	if err != nil {
		return Report{}, err
	}

	ent := a.Defaults(e.defaults)
	ent.Title = p.Title
	ent.Body = p.Body
	if p.Published != nil {
		if err := supports(a, entity.FieldPublished); err != nil {
			return Report{}, err
		}
		ent.Published = *p.Published
	}
	if p.Points != nil {
		if err := supports(a, entity.FieldPoints); err != nil {
			return Report{}, err
		}
		ent.Points = *p.Points
	}
	if p.Kind == entity.KindFile {
		if err := e.prepareFile(ctx, &ent); err != nil {
			return Report{}, err
		}
	}
	if err := e.allocate(a, &ent); err != nil {
		return Report{}, err
	}

	var scope string
	switch {
	case p.Kind == entity.KindModule:
		if p.Module != nil {
			return Report{}, entity.NewValidation(p.Kind, "modules cannot be nested")
		}
	case p.Module != nil:
		m, err := e.target(ctx, *p.Module)
		if err != nil {
			return Report{}, err
		}
		scope = m.ID
		ent.ParentID = m.ID
		if ent.ItemID, err = e.nextID(); err != nil {
			return Report{}, err
		}
	}

	if err := a.Validate(ent); err != nil {
		return Report{}, err
	}
	if _, err := e.store.Insert(ctx, ent); err != nil {
		return Report{}, err
	}

	r := Report{Op: OpAdd, Kind: ent.Kind, ID: ent.ID, Title: ent.Title, Module: ent.ParentID}
	if p.Kind == entity.KindModule || scope != "" {
		res, err := e.insertInto(ctx, scope, ent.ID, p.Position)
		if err != nil {
			return Report{}, err
		}
		r.Position, r.Clamped = res.Position, res.Clamped
	}
	if p.Kind == entity.KindModule {
		r.affect(ent.ID)
	} else {
		r.affect(scope)
	}

	slog.Debug("entity added",
		"id", ent.ID,
		"kind", ent.Kind,
		"module", ent.ParentID,
		"position", r.Position,
	)
	return r, nil
}

// prepareFile normalizes the filename, derives the href and rejects a
// filename already in use.
func (e *Engine) prepareFile(ctx context.Context, ent *entity.Entity) error {
	ent.Title = adapter.NormalizeFilename(ent.Title)
	if err := adapter.ValidateFilename(ent.Title); err != nil {
		return err
	}
	ent.Href = entity.FileHref(ent.Title)
	taken, err := e.hrefTaken(ctx, ent.Href)
	if err != nil {
		return err
	}
	if taken {
		return entity.NewValidation(entity.KindFile, "file %s already exists", ent.Title)
	}
	return nil
}

func (e *Engine) hrefTaken(ctx context.Context, href string) (bool, error) {
	n, err := e.store.Count(ctx, queryir.HrefIs(href))
	if err != nil {
		return false, fmt.Errorf("check %s: %w", href, err)
	}
	return n > 0, nil
}

func supports(a adapter.Adapter, field string) error {
	for _, f := range a.Fields() {
		if f == field {
			return nil
		}
	}
	return entity.NewValidation(a.Kind(), "%s does not support %s", a.Kind(), field)
}
