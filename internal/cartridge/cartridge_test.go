package cartridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ids"
	"github.com/roach88/cartridge/internal/refsync"
)

func testOptions() Options {
	return Options{
		Generator: ids.NewSequenceGenerator("g"),
		Now:       func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) },
	}
}

func createTestPackage(t *testing.T) (*Package, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "course")
	p, err := Create(context.Background(), dir, CreateParams{Title: "Biology 101", Code: "BIO101"}, testOptions())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, dir
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestCreate_WritesSkeleton(t *testing.T) {
	p, dir := createTestPackage(t)

	for _, rel := range []string{
		refsync.ManifestPath,
		refsync.ModuleMetaPath,
		"course_settings/course_settings.xml",
		"course_settings/canvas_export.txt",
		LedgerPath,
	} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(rel)))
	}
	assert.Contains(t, readFile(t, dir, refsync.ManifestPath), "<lomimscc:dateTime>2026-03-09</lomimscc:dateTime>")
	assert.Contains(t, readFile(t, dir, "course_settings/course_settings.xml"), "<course_code>BIO101</course_code>")
	assert.Len(t, p.Course.IDs(), 4)
}

func TestCreate_RejectsNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("x"), 0o644))

	_, err := Create(context.Background(), dir, CreateParams{Title: "T"}, testOptions())
	assert.Error(t, err)

	_, err = Create(context.Background(), t.TempDir(), CreateParams{}, testOptions())
	assert.True(t, entity.IsValidation(err))
}

func TestLoad_NotAPackage(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir(), testOptions())
	assert.ErrorIs(t, err, ErrNotPackage)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing"), testOptions())
	assert.Error(t, err)
}

func addEntities(t *testing.T, p *Package) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []entity.Entity{
		{ID: "gm1", Kind: entity.KindModule, Title: "Week 1", Published: true, Position: 1},
		{ID: "gw1", Kind: entity.KindWikiPage, Title: "Intro", Body: "<p>Hi</p>", Published: true,
			ParentID: "gm1", Position: 1, ItemID: "gi1"},
		{ID: "gf1", Kind: entity.KindFile, Title: "data.csv", Body: "a,b\n1,2\n", Published: true,
			ParentID: "gm1", Position: 2, ItemID: "gi2", Href: "web_resources/data.csv"},
		{ID: "gd1", Kind: entity.KindDiscussion, Title: "Chat", Body: "Talk", Published: false,
			AuxIDs: map[string]string{entity.AuxMeta: "gdm1"}},
	} {
		_, err := p.Store.Insert(ctx, e)
		require.NoError(t, err)
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	p, dir := createTestPackage(t)
	addEntities(t, p)
	ctx := context.Background()

	plan, err := p.Rebuild(ctx)
	require.NoError(t, err)
	res, err := p.Write(plan)
	require.NoError(t, err)
	assert.Contains(t, res.Written, "wiki_content/intro.html")
	assert.Contains(t, res.Written, refsync.ModulePath("gm1"))

	loaded, err := Load(ctx, dir, testOptions())
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, p.Course, loaded.Course)
	assert.True(t, plan.Equal(loaded.Baseline), "reloaded package must regenerate identical documents")

	want, err := p.Store.All(ctx)
	require.NoError(t, err)
	got, err := loaded.Store.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		w.Seq, g.Seq = 0, 0
		assert.Equal(t, w, g)
	}

	// A second write of the same plan touches nothing.
	res, err = loaded.Write(loaded.Baseline)
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.Empty(t, res.Removed)
}

func TestWrite_RemovesStaleFiles(t *testing.T) {
	p, dir := createTestPackage(t)
	addEntities(t, p)
	ctx := context.Background()

	plan, err := p.Rebuild(ctx)
	require.NoError(t, err)
	_, err = p.Write(plan)
	require.NoError(t, err)

	_, err = p.Store.UpdateFields(ctx, "gw1", entity.Patch{Title: entity.Ptr("Welcome")})
	require.NoError(t, err)
	require.NoError(t, p.Store.Remove(ctx, "gd1"))
	p.Alloc.Retire("gd1", "gdm1")

	plan, err = p.Rebuild(ctx)
	require.NoError(t, err)
	res, err := p.Write(plan)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"wiki_content/intro.html", "discussions/gd1.xml", "discussions/gdm1.xml"}, res.Removed)
	assert.FileExists(t, filepath.Join(dir, "wiki_content", "welcome.html"))
	assert.NoDirExists(t, filepath.Join(dir, "discussions"))

	l, err := ReadLedger(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"gd1", "gdm1"}, l.Retired)
}

func TestWrite_RemovesOrphanModuleDocs(t *testing.T) {
	p, dir := createTestPackage(t)
	orphan := filepath.Join(dir, "course_settings", "modules", "gold.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(orphan), 0o755))
	require.NoError(t, os.WriteFile(orphan, []byte("<module/>"), 0o644))

	plan, err := p.Rebuild(context.Background())
	require.NoError(t, err)
	res, err := p.Write(plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"course_settings/modules/gold.xml"}, res.Removed)
	assert.NoFileExists(t, orphan)
}

func TestLoad_SeedsAllocator(t *testing.T) {
	p, dir := createTestPackage(t)
	addEntities(t, p)
	ctx := context.Background()
	p.Alloc.Retire("gold")

	plan, err := p.Rebuild(ctx)
	require.NoError(t, err)
	_, err = p.Write(plan)
	require.NoError(t, err)

	gen := ids.NewFixedGenerator("gw1", "gdm1", "gold", p.Course.ID, "gnew")
	loaded, err := Load(ctx, dir, Options{Generator: gen})
	require.NoError(t, err)
	defer loaded.Close()

	id, err := loaded.Alloc.Next()
	require.NoError(t, err)
	assert.Equal(t, "gnew", id)
	assert.Equal(t, []string{"gold"}, loaded.Alloc.Retired())
}

func TestLoad_NormalizesPositions(t *testing.T) {
	p, dir := createTestPackage(t)
	ctx := context.Background()
	for _, e := range []entity.Entity{
		{ID: "gm1", Kind: entity.KindModule, Title: "M", Published: true, Position: 4},
		{ID: "gw1", Kind: entity.KindWikiPage, Title: "A", Published: true, ParentID: "gm1", Position: 3, ItemID: "gi1"},
		{ID: "gw2", Kind: entity.KindWikiPage, Title: "B", Published: true, ParentID: "gm1", Position: 7, ItemID: "gi2"},
	} {
		_, err := p.Store.Insert(ctx, e)
		require.NoError(t, err)
	}
	plan, err := p.Rebuild(ctx)
	require.NoError(t, err)
	_, err = p.Write(plan)
	require.NoError(t, err)

	loaded, err := Load(ctx, dir, testOptions())
	require.NoError(t, err)
	defer loaded.Close()

	m, err := loaded.Store.Get(ctx, "gm1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position)
	slots, err := loaded.Store.Slots(ctx, "gm1")
	require.NoError(t, err)
	assert.Equal(t, 1, slots[0].Position)
	assert.Equal(t, 2, slots[1].Position)
	assert.Equal(t, "gw2", slots[1].ID)
}

func TestDiff(t *testing.T) {
	p, dir := createTestPackage(t)
	addEntities(t, p)
	plan, err := p.Rebuild(context.Background())
	require.NoError(t, err)
	_, err = p.Write(plan)
	require.NoError(t, err)

	drift, err := p.Diff(plan)
	require.NoError(t, err)
	assert.Empty(t, drift)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "wiki_content", "intro.html"), []byte("edited"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "web_resources", "data.csv")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	drift, err = p.Diff(plan)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Drift{
		{Path: "wiki_content/intro.html", Status: DriftModified},
		{Path: "web_resources/data.csv", Status: DriftMissing},
		{Path: "notes.md", Status: DriftExtra},
	}, drift)
}

func TestArchive(t *testing.T) {
	p, dir := createTestPackage(t)
	addEntities(t, p)
	plan, err := p.Rebuild(context.Background())
	require.NoError(t, err)
	_, err = p.Write(plan)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	out := filepath.Join(dir, "course.imscc")
	res, err := Archive(dir, out, []string{"*.md"})
	require.NoError(t, err)
	assert.ElementsMatch(t, plan.Paths(), res.Files)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, refsync.ManifestPath)
	assert.NotContains(t, names, LedgerPath)
	assert.NotContains(t, names, "notes.md")
	assert.NotContains(t, names, "course.imscc")
}

func TestArchive_BadPattern(t *testing.T) {
	_, err := Archive(t.TempDir(), filepath.Join(t.TempDir(), "x.zip"), []string{"["})
	assert.Error(t, err)
}

func TestLedger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := ReadLedger(dir)
	require.NoError(t, err)
	assert.Equal(t, LedgerVersion, l.Version)
	assert.Empty(t, l.Retired)

	require.NoError(t, WriteLedger(dir, Ledger{Retired: []string{"gb", "ga"}}))
	l, err = ReadLedger(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"ga", "gb"}, l.Retired)
	assert.Equal(t, "version: 1\nretired:\n    - ga\n    - gb\n", readFile(t, dir, LedgerPath))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cartridge", "ledger.yaml"), []byte("version: 99\n"), 0o644))
	_, err = ReadLedger(dir)
	assert.Error(t, err)
}
