package cartridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/refsync"
)

func addModule(title string) func(e *engine.Engine) ([]engine.Report, error) {
	return One(func(e *engine.Engine) (engine.Report, error) {
		return e.Add(context.Background(), engine.AddParams{Kind: entity.KindModule, Title: title})
	})
}

func TestMutate_WritesAffectedModule(t *testing.T) {
	p, dir := createTestPackage(t)
	ctx := context.Background()

	out, err := p.Mutate(ctx, addModule("Week 1"))
	require.NoError(t, err)
	require.Len(t, out.Reports, 1)

	moduleID := out.Reports[0].ID
	assert.Equal(t, []string{moduleID}, out.Plan().Affected)
	assert.Contains(t, out.Write.Written, refsync.ModulePath(moduleID))
	assert.Contains(t, readFile(t, dir, refsync.ManifestPath), "Week 1")
}

func TestMutate_FailureTouchesNothing(t *testing.T) {
	p, dir := createTestPackage(t)
	ctx := context.Background()
	_, err := p.Mutate(ctx, addModule("Week 1"))
	require.NoError(t, err)
	before := readFile(t, dir, refsync.ManifestPath)

	_, err = p.Mutate(ctx, func(e *engine.Engine) ([]engine.Report, error) {
		if _, err := e.Add(ctx, engine.AddParams{Kind: entity.KindModule, Title: "Week 2"}); err != nil {
			return nil, err
		}
		_, err := e.Delete(ctx, entity.KindQuiz, engine.ByTitle("missing"))
		return nil, err
	})
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))

	assert.Equal(t, before, readFile(t, dir, refsync.ManifestPath))
	n, err := p.Store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the added module must be rolled back")
}

func TestMutate_NoOpUpdateWritesNothing(t *testing.T) {
	p, _ := createTestPackage(t)
	ctx := context.Background()
	_, err := p.Mutate(ctx, addModule("Week 1"))
	require.NoError(t, err)

	out, err := p.Mutate(ctx, One(func(e *engine.Engine) (engine.Report, error) {
		return e.Update(ctx, entity.KindModule, engine.ByTitle("Week 1"), entity.Patch{
			Title:     entity.Ptr("Week 1"),
			Published: entity.Ptr(true),
		})
	}))
	require.NoError(t, err)
	assert.Empty(t, out.Reports[0].Changes)
	assert.Empty(t, out.Write.Written)
	assert.Empty(t, out.Write.Removed)
}

func TestMutateLoad_RoundTripWithCollidingWikiTitles(t *testing.T) {
	p, dir := createTestPackage(t)
	ctx := context.Background()
	week1 := engine.ByTitle("Week 1")

	steps := []func(e *engine.Engine) (engine.Report, error){
		func(e *engine.Engine) (engine.Report, error) {
			return e.Add(ctx, engine.AddParams{Kind: entity.KindWikiPage, Title: "Notes", Body: "<p>course</p>"})
		},
		func(e *engine.Engine) (engine.Report, error) {
			return e.Add(ctx, engine.AddParams{Kind: entity.KindModule, Title: "Week 1"})
		},
		func(e *engine.Engine) (engine.Report, error) {
			return e.Add(ctx, engine.AddParams{Kind: entity.KindWikiPage, Title: "Notes", Body: "<p>week</p>", Module: &week1})
		},
		func(e *engine.Engine) (engine.Report, error) {
			return e.Add(ctx, engine.AddParams{Kind: entity.KindQuiz, Title: "Q1", Module: &week1})
		},
		func(e *engine.Engine) (engine.Report, error) {
			return e.Add(ctx, engine.AddParams{Kind: entity.KindFile, Title: "data.csv", Body: "a,b"})
		},
	}
	var reports []engine.Report
	for _, step := range steps {
		out, err := p.Mutate(ctx, One(step))
		require.NoError(t, err)
		reports = append(reports, out.Reports...)
	}
	moduleNotes := reports[2].ID

	_, err := p.Mutate(ctx, One(func(e *engine.Engine) (engine.Report, error) {
		return e.Copy(ctx, entity.KindWikiPage, engine.Selector{ID: moduleNotes}, nil)
	}))
	require.NoError(t, err)

	loaded, err := Load(ctx, dir, testOptions())
	require.NoError(t, err)
	defer loaded.Close()

	drift, err := loaded.Diff(loaded.Baseline)
	require.NoError(t, err)
	assert.Empty(t, drift, "a freshly written package must reload without drift")

	want, err := p.Store.All(ctx)
	require.NoError(t, err)
	got, err := loaded.Store.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	byID := make(map[string]entity.Entity, len(got))
	for _, g := range got {
		g.Seq = 0
		byID[g.ID] = g
	}
	for _, w := range want {
		w.Seq = 0
		assert.Equal(t, w, byID[w.ID])
	}

	// A no-op update after the reload rewrites nothing.
	out, err := loaded.Mutate(ctx, One(func(e *engine.Engine) (engine.Report, error) {
		return e.Update(ctx, entity.KindWikiPage, engine.Selector{ID: moduleNotes}, entity.Patch{Published: entity.Ptr(true)})
	}))
	require.NoError(t, err)
	assert.Empty(t, out.Reports[0].Changes)
	assert.Empty(t, out.Write.Written)
	assert.Empty(t, out.Write.Removed)
}
