package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
)

// Copy clones the entity of kind selected by sel under a fresh id and
// appends it to target, or adds it standalone when target is nil. The
// clone keeps every field except its ids, parent and position. A file
// copy gets the first free "<stem>-<n><ext>" filename so its backing file
// does not collide with the original.
func (e *Engine) Copy(ctx context.Context, kind entity.Kind, sel Selector, target *Selector) (Report, error) {
	a, err := e.adapterFor(kind)
	if err != nil {
		return Report{}, err
	}
	src, err := e.Resolve(ctx, kind, sel)
	if err != nil {
		return Report{}, err
	}
	if kind == entity.KindModule {
		return Report{}, entity.NewInvalidTarget(src.ID, "modules cannot be copied")
	}

	clone := src.Clone()
	clone.ParentID, clone.Position, clone.ItemID, clone.Seq = "", 0, "", 0

	if target != nil {
		m, err := e.target(ctx, *target)
		if err != nil {
			return Report{}, err
		}
		clone.ParentID = m.ID
	}

	if kind == entity.KindFile {
		var lookupErr error
		name := adapter.DeriveFilename(src.Title, func(candidate string) bool {
			taken, err := e.hrefTaken(ctx, entity.FileHref(candidate))
			if err != nil {
				lookupErr = err
				return false
			}
			return taken
		})
		if lookupErr != nil {
			return Report{}, lookupErr
		}
		clone.Title = name
		clone.Href = entity.FileHref(name)
	}

	if err := e.allocate(a, &clone); err != nil {
		return Report{}, err
	}
	if clone.ParentID != "" {
		if clone.ItemID, err = e.nextID(); err != nil {
			return Report{}, err
		}
	}
	if err := a.Validate(clone); err != nil {
		return Report{}, err
	}
	if _, err := e.store.Insert(ctx, clone); err != nil {
		return Report{}, err
	}

	r := Report{Op: OpCopy, Kind: kind, ID: clone.ID, Title: clone.Title, Module: clone.ParentID}
	if clone.ParentID != "" {
		res, err := e.insertInto(ctx, clone.ParentID, clone.ID, nil)
		if err != nil {
			return Report{}, err
		}
		r.Position = res.Position
		r.affect(clone.ParentID)
	}

	slog.Debug("entity copied",
		"id", clone.ID,
		"source", src.ID,
		"kind", kind,
		"module", clone.ParentID,
	)
	return r, nil
}

// Move relocates the item of kind selected by sel into target at
// position (nil appends), or makes it standalone when target is nil.
// Moving inside the same module reorders it. Both the source and the
// destination module are affected.
func (e *Engine) Move(ctx context.Context, kind entity.Kind, sel Selector, target *Selector, position *int) (Report, error) {
	cur, err := e.Resolve(ctx, kind, sel)
	if err != nil {
		return Report{}, err
	}
	if kind == entity.KindModule {
		return Report{}, entity.NewInvalidTarget(cur.ID, "modules cannot be moved into modules; update the module position instead")
	}

	dest := ""
	if target != nil {
		m, err := e.target(ctx, *target)
		if err != nil {
			return Report{}, err
		}
		dest = m.ID
	}

	r := Report{Op: OpMove, Kind: kind, ID: cur.ID, Title: cur.Title, Module: dest}

	switch {
	case dest != "" && dest == cur.ParentID:
		before, err := e.store.Slots(ctx, dest)
		if err != nil {
			return Report{}, err
		}
		pos := len(before)
		if position != nil {
			pos = *position
		}
		res, moved, err := e.moveWithin(ctx, dest, cur.ID, pos)
		if err != nil {
			return Report{}, err
		}
		r.Position, r.Clamped = res.Position, res.Clamped
		if moved {
			r.affect(dest)
		}

	case dest == "" && cur.ParentID == "":
		// Already standalone.

	default:
		itemID := cur.ItemID
		if dest == "" {
			e.alloc.Retire(itemID)
			itemID = ""
		} else if itemID == "" {
			if itemID, err = e.nextID(); err != nil {
				return Report{}, err
			}
		}
		if err := e.store.Place(ctx, cur.ID, dest, itemID, 0); err != nil {
			return Report{}, err
		}
		if cur.ParentID != "" {
			if err := e.closeGap(ctx, cur.ParentID); err != nil {
				return Report{}, err
			}
		}
		if dest != "" {
			res, err := e.insertInto(ctx, dest, cur.ID, position)
			if err != nil {
				return Report{}, err
			}
			r.Position, r.Clamped = res.Position, res.Clamped
		}
		r.affect(cur.ParentID, dest)
	}

	slog.Debug("entity moved",
		"id", cur.ID,
		"kind", kind,
		"from", cur.ParentID,
		"module", dest,
		"position", r.Position,
	)
	return r, nil
}
