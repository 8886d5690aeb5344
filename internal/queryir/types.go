package queryir

import "github.com/roach88/cartridge/internal/entity"

// Predicate is a filter condition over the entities table.
//
// Sealed: only Equals, In and And implement it.
type Predicate interface {
	predicateNode()
}

// Value is a literal compared against a column.
//
// Sealed: only String, Int and Bool implement it.
type Value interface {
	valueNode()
}

// String is a text literal.
type String string

// Int is an integer literal.
type Int int64

// Bool is a boolean literal.
type Bool bool

func (String) valueNode() {}
func (Int) valueNode()    {}
func (Bool) valueNode()   {}

// Field names a column of the entities table.
type Field string

const (
	FieldID        Field = "id"
	FieldKind      Field = "kind"
	FieldTitle     Field = "title"
	FieldPublished Field = "published"
	FieldParent    Field = "parent_id"
	FieldPosition  Field = "position"
	FieldPoints    Field = "points"
	FieldHref      Field = "href"
	FieldItemID    Field = "item_id"
)

// fieldTypes maps each selectable column to the literal type it accepts.
var fieldTypes = map[Field]string{
	FieldID:        "string",
	FieldKind:      "string",
	FieldTitle:     "string",
	FieldPublished: "bool",
	FieldParent:    "string",
	FieldPosition:  "int",
	FieldPoints:    "int",
	FieldHref:      "string",
	FieldItemID:    "string",
}

// Known reports whether f is a selectable column.
func (f Field) Known() bool {
	_, ok := fieldTypes[f]
	return ok
}

// Order selects the ORDER BY of a query.
type Order int

const (
	// BySeq orders by insertion sequence, then id.
	BySeq Order = iota

	// ByPosition orders by position, then insertion sequence, then id.
	ByPosition
)

func (o Order) String() string {
	switch o {
	case BySeq:
		return "seq"
	case ByPosition:
		return "position"
	default:
		return "unknown"
	}
}

// Select is a query over the entities table.
//
//	SELECT <all columns> FROM entities WHERE <Filter> ORDER BY <Order>
//
// A nil Filter selects every row.
type Select struct {
	Filter Predicate
	Order  Order
}

// Equals is a column-equals-literal predicate.
//
//	<field> = ?
type Equals struct {
	Field Field
	Value Value
}

func (Equals) predicateNode() {}

// In is a column-in-set predicate.
//
//	<field> IN (?, ?, ...)
//
// An empty Values set matches nothing.
type In struct {
	Field  Field
	Values []Value
}

func (In) predicateNode() {}

// And is a conjunction. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// KindIs selects entities of one kind.
func KindIs(k entity.Kind) Predicate {
	return Equals{Field: FieldKind, Value: String(k)}
}

// KindIn selects entities of any of the given kinds.
func KindIn(kinds ...entity.Kind) Predicate {
	vals := make([]Value, len(kinds))
	for i, k := range kinds {
		vals[i] = String(k)
	}
	return In{Field: FieldKind, Values: vals}
}

// TitleIs selects entities by exact title.
func TitleIs(title string) Predicate {
	return Equals{Field: FieldTitle, Value: String(title)}
}

// HrefIs selects file resources by backing path.
func HrefIs(href string) Predicate {
	return Equals{Field: FieldHref, Value: String(href)}
}

// ParentIs selects the children of a module. An empty id selects
// entities with no parent.
func ParentIs(moduleID string) Predicate {
	return Equals{Field: FieldParent, Value: String(moduleID)}
}

// IDIs selects a single id.
func IDIs(id string) Predicate {
	return Equals{Field: FieldID, Value: String(id)}
}

// AllOf is shorthand for And.
func AllOf(preds ...Predicate) Predicate {
	return And{Predicates: preds}
}

// Standalone selects content items outside any module.
func Standalone() Predicate {
	return AllOf(KindIn(entity.ContentKinds...), ParentIs(""))
}
