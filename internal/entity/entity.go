package entity

import (
	"path"
	"sort"
)

// WebResourcesDir is the fixed root for FileResource backing files.
const WebResourcesDir = "web_resources"

// Secondary identifier keys stored in Entity.AuxIDs.
//
// Some kinds need more than one identifier in the manifest: a quiz owns an
// assignment record and a meta resource, a discussion owns a topicMeta
// resource. These are allocated once and stay stable across updates.
const (
	AuxAssignment = "assignment"
	AuxMeta       = "meta"
)

// Entity is one row of the canonical table.
type Entity struct {
	ID        string
	Kind      Kind
	Title     string
	Body      string
	Published bool

	// ParentID is the owning module id, empty for standalone items and for
	// modules themselves.
	ParentID string

	// Position is the 1-based rank inside ParentID. For modules it is the
	// course-level rank. Zero for standalone content items.
	Position int

	// Points is meaningful for assignments and quizzes.
	Points int

	// Href is the package-relative path of a FileResource backing file
	// (web_resources/<filename>). Empty for other kinds.
	Href string

	// ItemID identifies the module-item wrapper of a content item inside
	// its module. Empty when standalone.
	ItemID string

	// AuxIDs holds secondary identifiers keyed by Aux* constants.
	AuxIDs map[string]string

	// Seq is the logical insertion sequence; the stable tiebreaker for
	// selection order.
	Seq int64
}

// Standalone reports whether the entity is a content item outside any module.
func (e Entity) Standalone() bool {
	return e.Kind.IsContent() && e.ParentID == ""
}

// Filename returns the base name of a FileResource href.
func (e Entity) Filename() string {
	if e.Href == "" {
		return ""
	}
	return path.Base(e.Href)
}

// Aux returns a secondary identifier, or "" when unset.
func (e Entity) Aux(key string) string {
	if e.AuxIDs == nil {
		return ""
	}
	return e.AuxIDs[key]
}

// AllIDs returns the primary and every secondary identifier, sorted.
func (e Entity) AllIDs() []string {
	out := []string{e.ID}
	if e.ItemID != "" {
		out = append(out, e.ItemID)
	}
	for _, v := range e.AuxIDs {
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (e Entity) Clone() Entity {
	c := e
	if e.AuxIDs != nil {
		c.AuxIDs = make(map[string]string, len(e.AuxIDs))
		for k, v := range e.AuxIDs {
			c.AuxIDs[k] = v
		}
	}
	return c
}

// FileHref builds the href for a FileResource filename.
func FileHref(filename string) string {
	return WebResourcesDir + "/" + filename
}

// WorkflowState maps the published flag to the Canvas workflow state.
func WorkflowState(published bool) string {
	if published {
		return "published"
	}
	return "unpublished"
}

// ParseWorkflowState is the inverse of WorkflowState. Canvas uses "active"
// for published discussions.
func ParseWorkflowState(s string) bool {
	return s == "" || s == "published" || s == "active"
}
