package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ordering"
)

func TestInsert_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Insert(ctx, module("m1", "A", 1))
	require.NoError(t, err)
	b, err := s.Insert(ctx, module("m2", "B", 2))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.Seq)
	assert.Equal(t, int64(2), b.Seq)
}

func TestInsert_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	mustInsert(t, s, module("m1", "A", 1))

	_, err := s.Insert(context.Background(), module("m1", "B", 2))
	require.Error(t, err)
	code, ok := entity.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, entity.CodeDuplicateID, code)
}

func TestInsert_DuplicateHref(t *testing.T) {
	s := createTestStore(t)
	f := entity.Entity{ID: "f1", Kind: entity.KindFile, Title: "a.txt", Href: "web_resources/a.txt"}
	mustInsert(t, s, f)

	f.ID = "f2"
	_, err := s.Insert(context.Background(), f)
	assert.True(t, entity.IsValidation(err))
}

func TestInsert_Rejects(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Insert(context.Background(), entity.Entity{Kind: entity.KindModule, Title: "x"})
	assert.True(t, entity.IsValidation(err))

	_, err = s.Insert(context.Background(), entity.Entity{ID: "x", Kind: "Banana", Title: "x"})
	assert.True(t, entity.IsValidation(err))
}

func TestRemove(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, module("m1", "A", 1))

	require.NoError(t, s.Remove(ctx, "m1"))
	err := s.Remove(ctx, "m1")
	assert.True(t, entity.IsNotFound(err))
}

func TestUpdateFields_ReportsOnlyChanges(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, entity.Entity{ID: "a1", Kind: entity.KindAssignment, Title: "HW", Points: 100, Published: true})

	changes, err := s.UpdateFields(ctx, "a1", entity.Patch{
		Title:     entity.Ptr("HW"),
		Points:    entity.Ptr(50),
		Published: entity.Ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, []entity.Change{{Field: entity.FieldPoints, Old: 100, New: 50}}, changes)

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Points)
	assert.Equal(t, "HW", got.Title)
}

func TestUpdateFields_NoOp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, wiki("w1", "Intro", "", 0))
	before, err := s.Get(ctx, "w1")
	require.NoError(t, err)

	changes, err := s.UpdateFields(ctx, "w1", entity.Patch{Title: entity.Ptr("Intro"), Body: entity.Ptr(before.Body)})
	require.NoError(t, err)
	assert.Empty(t, changes)

	changes, err = s.UpdateFields(ctx, "w1", entity.Patch{})
	require.NoError(t, err)
	assert.Empty(t, changes)

	after, err := s.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateFields_IgnoresPosition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, module("m1", "A", 1), wiki("w1", "Intro", "m1", 1))

	changes, err := s.UpdateFields(ctx, "w1", entity.Patch{Position: entity.Ptr(4)})
	require.NoError(t, err)
	assert.Empty(t, changes)

	got, err := s.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Position)
}

func TestUpdateFields_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.UpdateFields(context.Background(), "nope", entity.Patch{Title: entity.Ptr("x")})
	assert.True(t, entity.IsNotFound(err))
}

func TestSetPositions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, module("m1", "A", 1), wiki("w1", "One", "m1", 1), wiki("w2", "Two", "m1", 2))

	slots, err := s.Slots(ctx, "m1")
	require.NoError(t, err)
	res, err := ordering.MoveTo(slots, "w2", 1)
	require.NoError(t, err)
	require.NoError(t, s.SetPositions(ctx, ordering.Changed(slots, res.Slots)))

	kids, err := s.Children(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "w2", kids[0].ID)
	assert.Equal(t, "w1", kids[1].ID)

	err = s.SetPositions(ctx, []ordering.Slot{{ID: "ghost", Position: 1}})
	assert.True(t, entity.IsNotFound(err))
}

func TestPlace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, module("m1", "A", 1), module("m2", "B", 2), wiki("w1", "One", "m1", 1))

	require.NoError(t, s.Place(ctx, "w1", "m2", "inew", 1))
	got, err := s.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "m2", got.ParentID)
	assert.Equal(t, "inew", got.ItemID)

	assert.True(t, entity.IsNotFound(s.Place(ctx, "ghost", "m1", "", 1)))
}

func TestMarshalAux(t *testing.T) {
	got, err := marshalAux(map[string]string{"meta": "b", "assignment": "a", "resource": ""})
	require.NoError(t, err)
	assert.Equal(t, `{"assignment":"a","meta":"b"}`, got)

	got, err = marshalAux(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", got)

	aux, err := unmarshalAux("{}")
	require.NoError(t, err)
	assert.Nil(t, aux)
}
