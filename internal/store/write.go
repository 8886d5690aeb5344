package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ordering"
)

// Insert adds e to the table and returns it as stored. A zero Seq is
// replaced by the next insertion sequence.
//
// Returns CodeDuplicateID if the id is already present and CodeValidation
// if a file resource reuses another file's href.
func (s *Store) Insert(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	if e.ID == "" {
		return entity.Entity{}, entity.NewValidation(e.Kind, "insert: empty id")
	}
	if !e.Kind.Valid() {
		return entity.Entity{}, entity.NewValidation(e.Kind, "insert %s: unknown kind %q", e.ID, e.Kind)
	}

	if e.Seq == 0 {
		seq, err := s.MaxSeq(ctx)
		if err != nil {
			return entity.Entity{}, fmt.Errorf("insert %s: %w", e.ID, err)
		}
		e.Seq = seq + 1
	}

	aux, err := marshalAux(e.AuxIDs)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("insert %s: %w", e.ID, err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO entities
		(id, kind, title, body, published, parent_id, position, points, href, item_id, aux_ids, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		string(e.Kind),
		e.Title,
		[]byte(e.Body),
		boolToInt(e.Published),
		e.ParentID,
		e.Position,
		e.Points,
		e.Href,
		e.ItemID,
		aux,
		e.Seq,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintPrimaryKey:
				return entity.Entity{}, entity.NewDuplicateID(e.ID)
			case sqlite3.ErrConstraintUnique:
				return entity.Entity{}, entity.NewValidation(e.Kind, "file %s already exists", e.Href)
			}
		}
		return entity.Entity{}, fmt.Errorf("insert %s: %w", e.ID, err)
	}

	return e, nil
}

// Remove deletes id. Returns CodeNotFound if it is absent.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	if n == 0 {
		return entity.NewIDNotFound(id)
	}
	return nil
}

// UpdateFields applies the set fields of patch to id and returns the
// fields whose value actually changed, in patch field order. A patch that
// changes nothing returns no changes and does not write.
//
// Position is not applied here: positions move through the ordering
// engine and SetPositions so that the scope stays contiguous.
func (s *Store) UpdateFields(ctx context.Context, id string, patch entity.Patch) ([]entity.Change, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		changes []entity.Change
		sets    []string
		params  []any
	)
	if patch.Title != nil && *patch.Title != cur.Title {
		changes = append(changes, entity.Change{Field: entity.FieldTitle, Old: cur.Title, New: *patch.Title})
		sets = append(sets, "title = ?")
		params = append(params, *patch.Title)
	}
	if patch.Body != nil && *patch.Body != cur.Body {
		changes = append(changes, entity.Change{Field: entity.FieldBody, Old: cur.Body, New: *patch.Body})
		sets = append(sets, "body = ?")
		params = append(params, []byte(*patch.Body))
	}
	if patch.Published != nil && *patch.Published != cur.Published {
		changes = append(changes, entity.Change{Field: entity.FieldPublished, Old: cur.Published, New: *patch.Published})
		sets = append(sets, "published = ?")
		params = append(params, boolToInt(*patch.Published))
	}
	if patch.Points != nil && *patch.Points != cur.Points {
		changes = append(changes, entity.Change{Field: entity.FieldPoints, Old: cur.Points, New: *patch.Points})
		sets = append(sets, "points = ?")
		params = append(params, *patch.Points)
	}
	if patch.Href != nil && *patch.Href != cur.Href {
		changes = append(changes, entity.Change{Field: entity.FieldHref, Old: cur.Href, New: *patch.Href})
		sets = append(sets, "href = ?")
		params = append(params, *patch.Href)
	}

	if len(sets) == 0 {
		return nil, nil
	}

	params = append(params, id)
	query := "UPDATE entities SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := s.q.ExecContext(ctx, query, params...); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, entity.NewValidation(cur.Kind, "file %s already exists", *patch.Href)
		}
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	return changes, nil
}

// SetPositions writes a batch of positions. Every slot must name an
// existing entity.
func (s *Store) SetPositions(ctx context.Context, slots []ordering.Slot) error {
	for _, slot := range slots {
		res, err := s.q.ExecContext(ctx, "UPDATE entities SET position = ? WHERE id = ?", slot.Position, slot.ID)
		if err != nil {
			return fmt.Errorf("set position %s: %w", slot.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("set position %s: %w", slot.ID, err)
		}
		if n == 0 {
			return entity.NewIDNotFound(slot.ID)
		}
	}
	return nil
}

// Place sets the parent, item wrapper id and position of id in one write.
// Used when an item changes module.
func (s *Store) Place(ctx context.Context, id, parentID, itemID string, position int) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE entities SET parent_id = ?, item_id = ?, position = ? WHERE id = ?",
		parentID, itemID, position, id)
	if err != nil {
		return fmt.Errorf("place %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("place %s: %w", id, err)
	}
	if n == 0 {
		return entity.NewIDNotFound(id)
	}
	return nil
}

// Slots returns the current ordering scope of a parent: the children of a
// module, or the modules themselves for the empty scope.
func (s *Store) Slots(ctx context.Context, parentID string) ([]ordering.Slot, error) {
	var (
		members []entity.Entity
		err     error
	)
	if parentID == "" {
		members, err = s.Modules(ctx)
	} else {
		members, err = s.Children(ctx, parentID)
	}
	if err != nil {
		return nil, err
	}
	slots := make([]ordering.Slot, len(members))
	for i, m := range members {
		slots[i] = ordering.Slot{ID: m.ID, Position: m.Position}
	}
	return slots, nil
}
