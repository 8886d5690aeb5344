package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cartridge/internal/entity"
)

func TestKindIs(t *testing.T) {
	p := KindIs(entity.KindQuiz)
	assert.Equal(t, Equals{Field: FieldKind, Value: String("Quiz")}, p)
}

func TestKindIn_PreservesOrder(t *testing.T) {
	p := KindIn(entity.KindWikiPage, entity.KindFile)
	in, ok := p.(In)
	assert.True(t, ok)
	assert.Equal(t, FieldKind, in.Field)
	assert.Equal(t, []Value{String("WikiPage"), String("FileResource")}, in.Values)
}

func TestStandalone_CoversEveryContentKind(t *testing.T) {
	and, ok := Standalone().(And)
	assert.True(t, ok)
	assert.Len(t, and.Predicates, 2)

	in := and.Predicates[0].(In)
	assert.Len(t, in.Values, len(entity.ContentKinds))
	assert.Equal(t, ParentIs(""), and.Predicates[1])
}

func TestPredicate_SealedSwitch(t *testing.T) {
	preds := []Predicate{TitleIs("x"), KindIn(), AllOf()}
	var seen []string
	for _, p := range preds {
		switch p.(type) {
		case Equals:
			seen = append(seen, "eq")
		case In:
			seen = append(seen, "in")
		case And:
			seen = append(seen, "and")
		}
	}
	assert.Equal(t, []string{"eq", "in", "and"}, seen)
}

func TestOrder_String(t *testing.T) {
	assert.Equal(t, "seq", BySeq.String())
	assert.Equal(t, "position", ByPosition.String())
	assert.Equal(t, "unknown", Order(9).String())
}

func TestField_Known(t *testing.T) {
	assert.True(t, FieldTitle.Known())
	assert.False(t, Field("body").Known())
}
