package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/entity"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func module(id, title string, pos int) entity.Entity {
	return entity.Entity{ID: id, Kind: entity.KindModule, Title: title, Published: true, Position: pos}
}

func wiki(id, title, parent string, pos int) entity.Entity {
	return entity.Entity{
		ID: id, Kind: entity.KindWikiPage, Title: title, Body: "<p>" + title + "</p>",
		Published: true, ParentID: parent, Position: pos, ItemID: "i" + id,
	}
}

func mustInsert(t *testing.T, s *Store, ents ...entity.Entity) {
	t.Helper()
	for _, e := range ents {
		_, err := s.Insert(context.Background(), e)
		require.NoError(t, err)
	}
}
