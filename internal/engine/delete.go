package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/cartridge/internal/entity"
)

// Delete removes the entity of kind selected by sel. Deleting a module
// first deletes each of its items through the item delete path, then the
// module itself. Every id of every removed entity is retired.
func (e *Engine) Delete(ctx context.Context, kind entity.Kind, sel Selector) (Report, error) {
	cur, err := e.Resolve(ctx, kind, sel)
	if err != nil {
		return Report{}, err
	}

	r := Report{Op: OpDelete, Kind: kind, ID: cur.ID, Title: cur.Title, Module: cur.ParentID}
	if kind == entity.KindModule {
		children, err := e.store.Children(ctx, cur.ID)
		if err != nil {
			return Report{}, err
		}
		for _, child := range children {
			if err := e.remove(ctx, child); err != nil {
				return Report{}, err
			}
			r.Removed = append(r.Removed, child.ID)
		}
		r.affect(cur.ID)
	}

	if err := e.remove(ctx, cur); err != nil {
		return Report{}, err
	}
	r.Removed = append(r.Removed, cur.ID)
	r.affect(cur.ParentID)

	slog.Debug("entity deleted",
		"id", cur.ID,
		"kind", kind,
		"module", cur.ParentID,
		"removed", len(r.Removed),
	)
	return r, nil
}

// remove deletes one entity, closes the gap in its scope and retires its
// ids.
func (e *Engine) remove(ctx context.Context, ent entity.Entity) error {
	if err := e.store.Remove(ctx, ent.ID); err != nil {
		return err
	}
	switch {
	case ent.Kind == entity.KindModule:
		if err := e.closeGap(ctx, ""); err != nil {
			return err
		}
	case ent.ParentID != "":
		if err := e.closeGap(ctx, ent.ParentID); err != nil {
			return err
		}
	}
	e.alloc.Retire(ent.AllIDs()...)
	return nil
}
