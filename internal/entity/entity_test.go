package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"wiki", KindWikiPage},
		{"WikiPage", KindWikiPage},
		{"Module", KindModule},
		{"quiz", KindQuiz},
		{"FILE", KindFile},
		{"discussion", KindDiscussion},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("banana")
	assert.Error(t, err)
}

func TestKind_Noun(t *testing.T) {
	assert.Equal(t, "wiki", KindWikiPage.Noun())
	assert.Equal(t, "file", KindFile.Noun())
	assert.Equal(t, "module", KindModule.Noun())
}

func TestKind_IsContent(t *testing.T) {
	assert.False(t, KindModule.IsContent())
	for _, k := range ContentKinds {
		assert.True(t, k.IsContent(), k)
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("Banana").Valid())
}

func TestEntity_Standalone(t *testing.T) {
	assert.True(t, Entity{Kind: KindWikiPage}.Standalone())
	assert.False(t, Entity{Kind: KindWikiPage, ParentID: "m1"}.Standalone())
	assert.False(t, Entity{Kind: KindModule}.Standalone())
}

func TestEntity_AllIDs(t *testing.T) {
	e := Entity{
		ID:     "q1",
		ItemID: "i1",
		AuxIDs: map[string]string{AuxMeta: "m9", AuxAssignment: "a2", "unused": ""},
	}
	assert.Equal(t, []string{"a2", "i1", "m9", "q1"}, e.AllIDs())
	assert.Equal(t, []string{"x"}, Entity{ID: "x"}.AllIDs())
}

func TestEntity_CloneIsDeep(t *testing.T) {
	e := Entity{ID: "q1", AuxIDs: map[string]string{AuxMeta: "m1"}}
	c := e.Clone()
	c.AuxIDs[AuxMeta] = "other"
	assert.Equal(t, "m1", e.Aux(AuxMeta))
	assert.Equal(t, "", Entity{}.Aux(AuxMeta))
}

func TestEntity_Filename(t *testing.T) {
	e := Entity{Kind: KindFile, Href: FileHref("notes.txt")}
	assert.Equal(t, "web_resources/notes.txt", e.Href)
	assert.Equal(t, "notes.txt", e.Filename())
	assert.Equal(t, "", Entity{}.Filename())
}

func TestWorkflowState(t *testing.T) {
	assert.Equal(t, "published", WorkflowState(true))
	assert.Equal(t, "unpublished", WorkflowState(false))
	assert.True(t, ParseWorkflowState("active"))
	assert.True(t, ParseWorkflowState(""))
	assert.False(t, ParseWorkflowState("unpublished"))
}

func TestPatch_Fields(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	assert.Nil(t, Patch{}.Fields())

	p := Patch{Position: Ptr(2), Title: Ptr("x"), Published: Ptr(false)}
	assert.False(t, p.Empty())
	assert.Equal(t, []string{FieldTitle, FieldPublished, FieldPosition}, p.Fields())
}

func TestChange_String(t *testing.T) {
	assert.Equal(t, "title: A → B", Change{Field: FieldTitle, Old: "A", New: "B"}.String())
	assert.Equal(t, "body updated", Change{Field: FieldBody, Old: "x", New: "y"}.String())
}

func TestError_Codes(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewAmbiguous(KindWikiPage, `title="Intro"`, []string{"g1", "g2"}))
	assert.True(t, IsAmbiguous(err))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "matches=g1,g2")
	assert.Contains(t, err.Error(), "2 WikiPage entities match")

	assert.True(t, IsNotFound(NewIDNotFound("g1")))
	assert.Contains(t, NewIDNotFound("g1").Error(), "(id=g1)")
	assert.True(t, IsInvalidTarget(NewInvalidTarget("g1", "not a module")))
	assert.True(t, IsValidation(NewValidation(KindFile, "bad %s", "name")))

	code, ok := CodeOf(NewDuplicateID("g1"))
	require.True(t, ok)
	assert.Equal(t, CodeDuplicateID, code)

	_, ok = CodeOf(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestNewNotFound_NoKind(t *testing.T) {
	err := NewNotFound("", "id=x")
	assert.Equal(t, "NOT_FOUND: no entity matches id=x", err.Error())
}
