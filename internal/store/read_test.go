package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/queryir"
)

func TestGet_RoundTripsAllFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := entity.Entity{
		ID: "q1", Kind: entity.KindQuiz, Title: "Quiz 1", Body: "<p>desc</p>",
		Published: false, ParentID: "m1", Position: 3, Points: 10, ItemID: "iq1",
		AuxIDs: map[string]string{entity.AuxAssignment: "a1", entity.AuxMeta: "mq1"},
	}
	mustInsert(t, s, in)

	got, err := s.Get(ctx, "q1")
	require.NoError(t, err)
	in.Seq = 1
	assert.Equal(t, in, got)
}

func TestGet_BinaryBody(t *testing.T) {
	s := createTestStore(t)
	body := string([]byte{0x89, 'P', 'N', 'G', 0x00, 0xff})
	mustInsert(t, s, entity.Entity{ID: "f1", Kind: entity.KindFile, Title: "logo.png", Body: body, Href: "web_resources/logo.png"})

	got, err := s.Get(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, body, got.Body)
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))
}

func TestFind_OrderedBySeqThenID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b := wiki("b", "Same", "", 0)
	b.Seq = 5
	a := wiki("a", "Same", "", 0)
	a.Seq = 5
	c := wiki("c", "Same", "", 0)
	c.Seq = 1
	mustInsert(t, s, b, a, c)

	found, err := s.Find(ctx, queryir.TitleIs("Same"))
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{found[0].ID, found[1].ID, found[2].ID})
}

func TestFind_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	found, err := s.Find(context.Background(), queryir.TitleIs("x"))
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestFindOne(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s,
		module("m1", "Week 1", 1),
		module("m2", "Week 2", 2),
		module("m3", "Week 2", 3),
	)

	got, err := s.FindOne(ctx, entity.KindModule, "Week 1", queryir.TitleIs("Week 1"))
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)

	_, err = s.FindOne(ctx, entity.KindModule, "Week 9", queryir.TitleIs("Week 9"))
	assert.True(t, entity.IsNotFound(err))

	_, err = s.FindOne(ctx, entity.KindModule, "Week 2", queryir.TitleIs("Week 2"))
	require.True(t, entity.IsAmbiguous(err))
	var e *entity.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"m2", "m3"}, e.Matches)
}

func TestChildren_PositionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s,
		module("m1", "Week 1", 1),
		wiki("w3", "Three", "m1", 3),
		wiki("w1", "One", "m1", 1),
		wiki("w2", "Two", "m1", 2),
		wiki("wx", "Elsewhere", "m2", 1),
	)

	kids, err := s.Children(ctx, "m1")
	require.NoError(t, err)
	var titles []string
	for _, k := range kids {
		titles = append(titles, k.Title)
	}
	assert.Equal(t, []string{"One", "Two", "Three"}, titles)

	slots, err := s.Slots(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, slots, 3)
	assert.Equal(t, "w1", slots[0].ID)
}

func TestModulesAndStandalone(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s,
		module("m2", "Week 2", 2),
		module("m1", "Week 1", 1),
		wiki("w1", "Loose", "", 0),
		wiki("w2", "Owned", "m1", 1),
	)

	mods, err := s.Modules(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "m1", mods[0].ID)

	loose, err := s.Standalone(ctx)
	require.NoError(t, err)
	require.Len(t, loose, 1)
	assert.Equal(t, "w1", loose[0].ID)

	slots, err := s.Slots(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "m1", slots[0].ID)
	assert.Equal(t, "m2", slots[1].ID)
}

func TestIDs_IncludesSecondaryIDs(t *testing.T) {
	s := createTestStore(t)
	q := entity.Entity{ID: "q1", Kind: entity.KindQuiz, Title: "Q", ItemID: "iq1",
		AuxIDs: map[string]string{entity.AuxAssignment: "aq1"}}
	mustInsert(t, s, module("m1", "Week 1", 1), q)

	ids, err := s.IDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"aq1", "iq1", "m1", "q1"}, ids)
}

func TestCount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, module("m1", "Week 1", 1), wiki("w1", "A", "m1", 1))

	n, err := s.Count(ctx, queryir.KindIs(entity.KindWikiPage))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seq, err := s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}
