package entity

import "fmt"

// Field names used in patches and change reports.
const (
	FieldTitle     = "title"
	FieldBody      = "body"
	FieldPublished = "published"
	FieldPoints    = "points"
	FieldHref      = "href"
	FieldPosition  = "position"
	FieldParent    = "parent"
)

// Patch is a selective update. Nil fields mean "no change requested" and
// never appear in a change report.
type Patch struct {
	Title     *string
	Body      *string
	Published *bool
	Points    *int
	Href      *string
	Position  *int
}

// Empty reports whether the patch requests nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.Published == nil &&
		p.Points == nil && p.Href == nil && p.Position == nil
}

// Fields lists the requested field names in a fixed order.
func (p Patch) Fields() []string {
	var out []string
	if p.Title != nil {
		out = append(out, FieldTitle)
	}
	if p.Body != nil {
		out = append(out, FieldBody)
	}
	if p.Published != nil {
		out = append(out, FieldPublished)
	}
	if p.Points != nil {
		out = append(out, FieldPoints)
	}
	if p.Href != nil {
		out = append(out, FieldHref)
	}
	if p.Position != nil {
		out = append(out, FieldPosition)
	}
	return out
}

// Change records one field whose value actually changed.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

func (c Change) String() string {
	if c.Field == FieldBody {
		return "body updated"
	}
	return fmt.Sprintf("%s: %v → %v", c.Field, c.Old, c.New)
}

// Ptr returns a pointer to v. Used to build patches.
func Ptr[T any](v T) *T {
	return &v
}
