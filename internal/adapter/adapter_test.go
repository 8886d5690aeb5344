package adapter

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/entity"
)

func testCourse() Course {
	return Course{
		ID:                "gcourse",
		Title:             "Biology 101",
		Code:              "BIO101",
		AssignmentGroupID: "ggroup",
		LatePolicyID:      "glate",
		ManifestID:        "gmanifest",
		Created:           "2026-01-05",
	}
}

// renderFS renders ents into an in-memory package and returns it with the
// manifest resources keyed by id.
func renderFS(t *testing.T, c *Context, reg *Registry, ents ...entity.Entity) (fstest.MapFS, map[string]Resource) {
	t.Helper()
	fsys := fstest.MapFS{}
	resources := map[string]Resource{}
	for _, e := range ents {
		a := reg.MustFor(e.Kind)
		docs, err := a.Render(c, e)
		require.NoError(t, err)

		var paths []string
		for _, d := range docs {
			fsys[d.Path] = &fstest.MapFile{Data: d.Data}
			paths = append(paths, d.Path)
		}
		assert.Equal(t, a.Artifacts(c, e), paths, "Render must follow Artifacts order")

		for _, r := range a.Resources(c, e) {
			resources[r.ID] = r
		}
	}
	return fsys, resources
}

func TestRoundTrip_AllKinds(t *testing.T) {
	reg := NewRegistry()
	ents := []entity.Entity{
		{ID: "gw1", Kind: entity.KindWikiPage, Title: "Intro & Welcome", Body: "<p>Hello</p>\n<p>Second</p>", Published: true},
		{ID: "gw2", Kind: entity.KindWikiPage, Title: "Draft", Body: "", Published: false},
		{ID: "ga1", Kind: entity.KindAssignment, Title: "Essay 1", Body: "<p>Write 500 words.</p>", Published: true, Points: 25},
		{ID: "ga2", Kind: entity.KindAssignment, Title: "Lab", Body: "steps", Published: false, Points: 0},
		{
			ID: "gq1", Kind: entity.KindQuiz, Title: "Quiz 1", Body: "<p>Chapter 1\nreview</p>", Published: true, Points: 10,
			AuxIDs: map[string]string{entity.AuxAssignment: "gqa1", entity.AuxMeta: "gqm1"},
		},
		{
			ID: "gq2", Kind: entity.KindQuiz, Title: "Quiz 2", Published: false, Points: 1,
			AuxIDs: map[string]string{entity.AuxAssignment: "gqa2", entity.AuxMeta: "gqm2"},
		},
		{
			ID: "gd1", Kind: entity.KindDiscussion, Title: "Introduce yourself", Body: "<p>Say hi</p>", Published: true,
			AuxIDs: map[string]string{entity.AuxMeta: "gdm1"},
		},
		{
			ID: "gd2", Kind: entity.KindDiscussion, Title: "Hidden", Published: false,
			AuxIDs: map[string]string{entity.AuxMeta: "gdm2"},
		},
		{ID: "gf1", Kind: entity.KindFile, Title: "data.bin", Body: "\x00\x01\xff binary", Published: true, Href: "web_resources/data.bin"},
	}

	c := NewContext(testCourse(), ents)
	fsys, resources := renderFS(t, c, reg, ents...)

	for _, want := range ents {
		t.Run(want.ID, func(t *testing.T) {
			a := reg.MustFor(want.Kind)
			require.NoError(t, a.Validate(want))

			primary := a.Resources(c, want)[0]
			claimed, ok := reg.Classify(primary)
			require.True(t, ok)
			assert.Equal(t, want.Kind, claimed.Kind())

			got, err := a.Parse(primary, resources, fsys)
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Kind, got.Kind)
			assert.Equal(t, want.Title, got.Title)
			assert.Equal(t, want.Body, got.Body)
			assert.Equal(t, want.Published, got.Published)
			assert.Equal(t, want.Points, got.Points)
			assert.Equal(t, want.Href, got.Href)
			assert.Equal(t, len(want.AuxIDs), len(got.AuxIDs))
			for k, v := range want.AuxIDs {
				assert.Equal(t, v, got.Aux(k), k)
			}

			// Re-rendering the parsed entity reproduces the same bytes.
			docs, err := a.Render(c, got)
			require.NoError(t, err)
			for _, d := range docs {
				assert.Equal(t, string(fsys[d.Path].Data), string(d.Data), d.Path)
			}
		})
	}
}

func TestClassify_SecondaryResourcesUnclaimed(t *testing.T) {
	reg := NewRegistry()
	c := NewContext(testCourse(), nil)

	quiz := entity.Entity{ID: "gq1", Kind: entity.KindQuiz, Title: "Q",
		AuxIDs: map[string]string{entity.AuxAssignment: "gqa1", entity.AuxMeta: "gqm1"}}
	disc := entity.Entity{ID: "gd1", Kind: entity.KindDiscussion, Title: "D",
		AuxIDs: map[string]string{entity.AuxMeta: "gdm1"}}

	for _, r := range []Resource{
		reg.MustFor(entity.KindQuiz).Resources(c, quiz)[1],
		reg.MustFor(entity.KindDiscussion).Resources(c, disc)[1],
		{ID: "x", Type: TypeWebContent, Href: "course_settings/canvas_export.txt"},
	} {
		_, ok := reg.Classify(r)
		assert.False(t, ok, r.Href)
	}
}

func TestRegistry_ByContentType(t *testing.T) {
	reg := NewRegistry()
	for ct, kind := range map[string]entity.Kind{
		"WikiPage":        entity.KindWikiPage,
		"Assignment":      entity.KindAssignment,
		"Quizzes::Quiz":   entity.KindQuiz,
		"DiscussionTopic": entity.KindDiscussion,
		"Attachment":      entity.KindFile,
	} {
		a, ok := reg.ByContentType(ct)
		require.True(t, ok, ct)
		assert.Equal(t, kind, a.Kind())
	}
	_, ok := reg.ByContentType("")
	assert.False(t, ok)
	_, ok = reg.ByContentType("ExternalUrl")
	assert.False(t, ok)

	_, err := reg.For("Banana")
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	reg := NewRegistry()
	d := DefaultDefaults()

	assert.Equal(t, 100, reg.MustFor(entity.KindAssignment).Defaults(d).Points)
	assert.Equal(t, 1, reg.MustFor(entity.KindQuiz).Defaults(d).Points)
	assert.True(t, reg.MustFor(entity.KindWikiPage).Defaults(d).Published)

	d.Published = false
	assert.False(t, reg.MustFor(entity.KindDiscussion).Defaults(d).Published)
	assert.True(t, reg.MustFor(entity.KindFile).Defaults(d).Published, "files are always published")
}

func TestCheckPatch(t *testing.T) {
	reg := NewRegistry()

	err := CheckPatch(reg.MustFor(entity.KindWikiPage), entity.Patch{Points: entity.Ptr(5)})
	assert.True(t, entity.IsValidation(err))

	err = CheckPatch(reg.MustFor(entity.KindFile), entity.Patch{Published: entity.Ptr(false)})
	assert.True(t, entity.IsValidation(err))

	err = CheckPatch(reg.MustFor(entity.KindModule), entity.Patch{Body: entity.Ptr("x")})
	assert.True(t, entity.IsValidation(err))

	assert.NoError(t, CheckPatch(reg.MustFor(entity.KindQuiz), entity.Patch{Points: entity.Ptr(5), Title: entity.Ptr("x")}))
	assert.NoError(t, CheckPatch(reg.MustFor(entity.KindFile), entity.Patch{Title: entity.Ptr("a.txt")}))
}

func TestValidate(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		e    entity.Entity
	}{
		{"empty title", entity.Entity{ID: "g1", Kind: entity.KindWikiPage, Title: "  "}},
		{"negative points", entity.Entity{ID: "g1", Kind: entity.KindAssignment, Title: "A", Points: -1}},
		{"nested module", entity.Entity{ID: "g1", Kind: entity.KindModule, Title: "M", ParentID: "g2"}},
		{"quiz without aux", entity.Entity{ID: "g1", Kind: entity.KindQuiz, Title: "Q"}},
		{"discussion without meta", entity.Entity{ID: "g1", Kind: entity.KindDiscussion, Title: "D"}},
		{"file href mismatch", entity.Entity{ID: "g1", Kind: entity.KindFile, Title: "a.txt", Href: "web_resources/b.txt"}},
		{"file with separator", entity.Entity{ID: "g1", Kind: entity.KindFile, Title: "x/a.txt", Href: "web_resources/x/a.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.MustFor(tt.e.Kind).Validate(tt.e)
			assert.True(t, entity.IsValidation(err), "got %v", err)
		})
	}
}

func TestContext_WikiPathCollisions(t *testing.T) {
	ents := []entity.Entity{
		{ID: "g1", Kind: entity.KindWikiPage, Title: "Intro"},
		{ID: "g2", Kind: entity.KindAssignment, Title: "Intro"},
		{ID: "g3", Kind: entity.KindWikiPage, Title: "intro"},
		{ID: "g4", Kind: entity.KindWikiPage, Title: "Intro!"},
	}
	c := NewContext(testCourse(), ents)

	assert.Equal(t, "wiki_content/intro.html", c.WikiPath(ents[0]))
	assert.Equal(t, "wiki_content/intro-2.html", c.WikiPath(ents[2]))
	assert.Equal(t, "wiki_content/intro-3.html", c.WikiPath(ents[3]))

	unknown := entity.Entity{ID: "g9", Kind: entity.KindWikiPage, Title: "New Page"}
	assert.Equal(t, "wiki_content/new-page.html", c.WikiPath(unknown))

	var nilCtx *Context
	assert.Equal(t, "", nilCtx.AssignmentGroupID())
	assert.Equal(t, "ggroup", c.AssignmentGroupID())
}

func TestAssignment_RenderUsesGroup(t *testing.T) {
	reg := NewRegistry()
	c := NewContext(testCourse(), nil)
	e := entity.Entity{ID: "ga1", Kind: entity.KindAssignment, Title: "Essay", Points: 10, Published: true}

	docs, err := reg.MustFor(entity.KindAssignment).Render(c, e)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "ga1/assignment_settings.xml", docs[0].Path)
	assert.Equal(t, "ga1/essay.html", docs[1].Path)
	assert.Contains(t, string(docs[0].Data), "<assignment_group_identifierref>ggroup</assignment_group_identifierref>")
	assert.Contains(t, string(docs[0].Data), "<points_possible>10.0</points_possible>")
	assert.Contains(t, string(docs[0].Data), `<assignment identifier="ga1" xmlns="`+CanvasNS+`"`)
}

func TestQuiz_Resources(t *testing.T) {
	reg := NewRegistry()
	e := entity.Entity{ID: "gq1", Kind: entity.KindQuiz, Title: "Q",
		AuxIDs: map[string]string{entity.AuxAssignment: "gqa1", entity.AuxMeta: "gqm1"}}

	rs := reg.MustFor(entity.KindQuiz).Resources(nil, e)
	require.Len(t, rs, 2)
	assert.Equal(t, Resource{
		ID: "gq1", Type: TypeAssessment, Href: "gq1/assessment_qti.xml",
		Files: []string{"gq1/assessment_qti.xml"}, Dependencies: []string{"gqm1"},
	}, rs[0])
	assert.Equal(t, Resource{
		ID: "gqm1", Type: TypeLearningApp, Href: "gq1/assessment_meta.xml",
		Files: []string{"gq1/assessment_meta.xml", "non_cc_assessments/gq1.xml.qti"},
	}, rs[1])
}

func TestFile_ParseRejectsNestedHref(t *testing.T) {
	fsys := fstest.MapFS{"web_resources/sub/a.txt": &fstest.MapFile{Data: []byte("x")}}
	_, err := fileAdapter{}.Parse(Resource{ID: "gf1", Type: TypeWebContent, Href: "web_resources/sub/a.txt"}, nil, fsys)
	assert.Error(t, err)
}

func TestPoints(t *testing.T) {
	assert.Equal(t, "10.0", FormatPoints(10))
	for in, want := range map[string]int{"": 0, "10": 10, "10.0": 10, " 2.5 ": 3, "0.4": 0} {
		got, err := ParsePoints(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePoints("ten")
	assert.Error(t, err)
}

func TestNewContext_WikiPathsIndependentOfOrder(t *testing.T) {
	a := entity.Entity{ID: "g2", Kind: entity.KindWikiPage, Title: "Notes"}
	b := entity.Entity{ID: "g1", Kind: entity.KindWikiPage, Title: "Notes", ParentID: "gm"}
	c := entity.Entity{ID: "g3", Kind: entity.KindWikiPage, Title: "notes"}

	forward := NewContext(testCourse(), []entity.Entity{a, b, c})
	backward := NewContext(testCourse(), []entity.Entity{c, b, a})

	for _, e := range []entity.Entity{a, b, c} {
		assert.Equal(t, forward.WikiPath(e), backward.WikiPath(e), e.ID)
	}
	assert.Equal(t, "wiki_content/notes.html", forward.WikiPath(b))
	assert.Equal(t, "wiki_content/notes-2.html", forward.WikiPath(a))
	assert.Equal(t, "wiki_content/notes-3.html", forward.WikiPath(c))
}
