package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ordering"
)

// Update applies patch to the entity of kind selected by sel. Only fields
// whose value changes are reported; a patch that matches the current
// values reports nothing and writes nothing.
//
// A position patch on a standalone item has no scope to move in and is
// ignored.
func (e *Engine) Update(ctx context.Context, kind entity.Kind, sel Selector, patch entity.Patch) (Report, error) {
	a, err := e.adapterFor(kind)
	if err != nil {
		return Report{}, err
	}
	cur, err := e.Resolve(ctx, kind, sel)
	if err != nil {
		return Report{}, err
	}
	if err := adapter.CheckPatch(a, patch); err != nil {
		return Report{}, err
	}

	if kind == entity.KindFile && patch.Title != nil {
		name := adapter.NormalizeFilename(*patch.Title)
		if err := adapter.ValidateFilename(name); err != nil {
			return Report{}, err
		}
		patch.Title = &name
		href := entity.FileHref(name)
		if href != cur.Href {
			taken, err := e.hrefTaken(ctx, href)
			if err != nil {
				return Report{}, err
			}
			if taken {
				return Report{}, entity.NewValidation(kind, "file %s already exists", name)
			}
		}
		patch.Href = &href
	}

	if err := a.Validate(applyPatch(cur, patch)); err != nil {
		return Report{}, err
	}

	changes, err := e.store.UpdateFields(ctx, cur.ID, patch)
	if err != nil {
		return Report{}, err
	}

	r := Report{Op: OpUpdate, Kind: kind, ID: cur.ID, Title: cur.Title, Module: cur.ParentID, Position: cur.Position}
	if patch.Title != nil {
		r.Title = *patch.Title
	}

	if patch.Position != nil && (kind == entity.KindModule || cur.ParentID != "") {
		res, moved, err := e.moveWithin(ctx, cur.ParentID, cur.ID, *patch.Position)
		if err != nil {
			return Report{}, err
		}
		r.Clamped = res.Clamped
		if moved {
			changes = append(changes, entity.Change{Field: entity.FieldPosition, Old: cur.Position, New: res.Position})
			r.Position = res.Position
		}
	}

	// Href follows the filename and is not reported on its own.
	for _, c := range changes {
		if c.Field != entity.FieldHref {
			r.Changes = append(r.Changes, c)
		}
	}
	if len(r.Changes) > 0 {
		if kind == entity.KindModule {
			r.affect(cur.ID)
		} else {
			r.affect(cur.ParentID)
		}
	}

	slog.Debug("entity updated",
		"id", cur.ID,
		"kind", kind,
		"module", cur.ParentID,
		"changes", len(r.Changes),
	)
	return r, nil
}

// Rename changes a module's title.
func (e *Engine) Rename(ctx context.Context, sel Selector, newTitle string) (Report, error) {
	r, err := e.Update(ctx, entity.KindModule, sel, entity.Patch{Title: &newTitle})
	if err != nil {
		return Report{}, err
	}
	r.Op = OpRename
	return r, nil
}

// moveWithin moves id to pos inside scope. moved is false when the
// clamped target equals the current position.
func (e *Engine) moveWithin(ctx context.Context, scope, id string, pos int) (ordering.Result, bool, error) {
	before, err := e.store.Slots(ctx, scope)
	if err != nil {
		return ordering.Result{}, false, err
	}
	res, err := ordering.MoveTo(before, id, pos)
	if err != nil {
		return ordering.Result{}, false, err
	}
	changed := ordering.Changed(before, res.Slots)
	if err := e.store.SetPositions(ctx, changed); err != nil {
		return ordering.Result{}, false, err
	}
	for _, s := range changed {
		if s.ID == id {
			return res, true, nil
		}
	}
	return res, false, nil
}

func applyPatch(e entity.Entity, p entity.Patch) entity.Entity {
	out := e.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Body != nil {
		out.Body = *p.Body
	}
	if p.Published != nil {
		out.Published = *p.Published
	}
	if p.Points != nil {
		out.Points = *p.Points
	}
	if p.Href != nil {
		out.Href = *p.Href
	}
	return out
}
