package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/queryir"
)

// Get returns the entity with the given id.
func (s *Store) Get(ctx context.Context, id string) (entity.Entity, error) {
	query, params, err := s.compiler.Compile(queryir.Select{Filter: queryir.IDIs(id)})
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get %s: %w", id, err)
	}

	e, err := scanEntity(s.q.QueryRowContext(ctx, query, params...))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Entity{}, entity.NewIDNotFound(id)
	}
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// Exists reports whether id is in the table.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.Count(ctx, queryir.IDIs(id))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Find returns every entity matching pred in insertion order (seq, then id).
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Find(ctx context.Context, pred queryir.Predicate) ([]entity.Entity, error) {
	return s.Select(ctx, queryir.Select{Filter: pred})
}

// Select runs an arbitrary selection.
func (s *Store) Select(ctx context.Context, q queryir.Select) ([]entity.Entity, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	out := []entity.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return out, nil
}

// FindOne returns the single entity matching pred. Zero matches is
// CodeNotFound and more than one is CodeAmbiguousSelection; kind and
// selector only describe the lookup in the error.
func (s *Store) FindOne(ctx context.Context, kind entity.Kind, selector string, pred queryir.Predicate) (entity.Entity, error) {
	matches, err := s.Find(ctx, pred)
	if err != nil {
		return entity.Entity{}, err
	}

	switch len(matches) {
	case 0:
		return entity.Entity{}, entity.NewNotFound(kind, selector)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return entity.Entity{}, entity.NewAmbiguous(kind, selector, ids)
	}
}

// Children returns the content items of a module in position order.
func (s *Store) Children(ctx context.Context, moduleID string) ([]entity.Entity, error) {
	return s.Select(ctx, queryir.Select{
		Filter: queryir.AllOf(queryir.ParentIs(moduleID), queryir.KindIn(entity.ContentKinds...)),
		Order:  queryir.ByPosition,
	})
}

// Modules returns every module in course position order.
func (s *Store) Modules(ctx context.Context) ([]entity.Entity, error) {
	return s.Select(ctx, queryir.Select{
		Filter: queryir.KindIs(entity.KindModule),
		Order:  queryir.ByPosition,
	})
}

// Standalone returns the content items outside any module in insertion order.
func (s *Store) Standalone(ctx context.Context) ([]entity.Entity, error) {
	return s.Find(ctx, queryir.Standalone())
}

// All returns the whole table in insertion order.
func (s *Store) All(ctx context.Context) ([]entity.Entity, error) {
	return s.Find(ctx, nil)
}

// Count returns how many entities match pred. A nil pred counts the table.
func (s *Store) Count(ctx context.Context, pred queryir.Predicate) (int, error) {
	query, params, err := s.compiler.CompileCount(queryir.Select{Filter: pred})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	var n int
	if err := s.q.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return n, nil
}

// IDs returns every primary, item and auxiliary id in the table, sorted.
// This is what the identifier allocator is seeded with.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range all {
		for _, id := range e.AllIDs() {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// MaxSeq returns the highest seq in the table, 0 when empty.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.q.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM entities").Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}
