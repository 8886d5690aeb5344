// Package adapter holds the per-kind serialization rules of a cartridge.
//
// Each entity kind has one Adapter describing its patchable fields, its
// creation defaults, its validation rules and the artifacts that back it
// on disk. Adapters are pure: they never read or write the entity store
// and never decide when documents are regenerated. internal/refsync calls
// Render and Resources while rebuilding; internal/cartridge calls Claims
// and Parse while scanning a package.
package adapter

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/roach88/cartridge/internal/entity"
)

// Manifest resource types.
const (
	TypeWebContent  = "webcontent"
	TypeLearningApp = "associatedcontent/imscc_xmlv1p1/learning-application-resource"
	TypeAssessment  = "imsqti_xmlv1p2/imscc_xmlv1p1/assessment"
	TypeDiscussion  = "imsdt_xmlv1p1"
)

// Defaults are the values given to optional fields on creation.
type Defaults struct {
	AssignmentPoints int
	QuizPoints       int
	Published        bool
}

// DefaultDefaults returns the built-in creation defaults.
func DefaultDefaults() Defaults {
	return Defaults{AssignmentPoints: 100, QuizPoints: 1, Published: true}
}

// Resource is one row of the manifest resource table.
type Resource struct {
	ID           string
	Type         string
	Href         string
	Files        []string
	Dependencies []string
}

// Document is one generated file.
type Document struct {
	Path string
	Data []byte
}

// Adapter describes one entity kind.
type Adapter interface {
	Kind() entity.Kind

	// ContentType is the module item content_type; "" for modules.
	ContentType() string

	// Fields lists the patch fields the kind supports.
	Fields() []string

	// Required lists the fields that must be supplied on creation.
	Required() []string

	// AuxKeys lists the secondary ids to allocate on creation and copy.
	AuxKeys() []string

	// Defaults returns a new entity of the kind with defaults applied.
	Defaults(d Defaults) entity.Entity

	Validate(e entity.Entity) error

	// Artifacts lists the package paths that back e, sorted.
	Artifacts(c *Context, e entity.Entity) []string

	// Render produces every artifact of e in Artifacts order.
	Render(c *Context, e entity.Entity) ([]Document, error)

	// Resources produces the manifest resource rows of e. The first row
	// is the one module items point at.
	Resources(c *Context, e entity.Entity) []Resource

	// Claims reports whether a manifest resource is the primary resource
	// of this kind.
	Claims(r Resource) bool

	// Parse rebuilds an entity from its primary resource. deps holds
	// every resource of the manifest by id.
	Parse(r Resource, deps map[string]Resource, fsys fs.FS) (entity.Entity, error)
}

// Registry is the adapter table keyed by kind.
type Registry struct {
	adapters map[entity.Kind]Adapter
	order    []entity.Kind
}

// NewRegistry returns a registry holding every built-in kind.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[entity.Kind]Adapter)}
	for _, a := range []Adapter{
		moduleAdapter{},
		wikiAdapter{},
		assignmentAdapter{},
		quizAdapter{},
		discussionAdapter{},
		fileAdapter{},
	} {
		r.adapters[a.Kind()] = a
		r.order = append(r.order, a.Kind())
	}
	return r
}

// For returns the adapter of kind k.
func (r *Registry) For(k entity.Kind) (Adapter, error) {
	a, ok := r.adapters[k]
	if !ok {
		return nil, fmt.Errorf("no adapter for kind %q", k)
	}
	return a, nil
}

// MustFor is For for kinds known to be valid. Panics otherwise.
func (r *Registry) MustFor(k entity.Kind) Adapter {
	a, err := r.For(k)
	if err != nil {
		panic(err)
	}
	return a
}

// Classify returns the adapter claiming r as its primary resource.
func (r *Registry) Classify(res Resource) (Adapter, bool) {
	for _, k := range r.order {
		if a := r.adapters[k]; a.Claims(res) {
			return a, true
		}
	}
	return nil, false
}

// ByContentType maps a module item content_type back to its adapter.
func (r *Registry) ByContentType(ct string) (Adapter, bool) {
	for _, k := range r.order {
		if a := r.adapters[k]; ct != "" && a.ContentType() == ct {
			return a, true
		}
	}
	return nil, false
}

// CheckPatch rejects patch fields the kind does not support.
func CheckPatch(a Adapter, p entity.Patch) error {
	supported := make(map[string]bool)
	for _, f := range a.Fields() {
		supported[f] = true
	}
	var bad []string
	for _, f := range p.Fields() {
		if !supported[f] {
			bad = append(bad, f)
		}
	}
	if len(bad) > 0 {
		return entity.NewValidation(a.Kind(), "%s does not support %s", a.Kind(), strings.Join(bad, ", "))
	}
	return nil
}

func validateTitle(e entity.Entity) error {
	if strings.TrimSpace(e.Title) == "" {
		return entity.NewValidation(e.Kind, "%s title must not be empty", e.Kind)
	}
	return nil
}

func validatePoints(e entity.Entity) error {
	if e.Points < 0 {
		return entity.NewValidation(e.Kind, "%s points must not be negative, got %d", e.Kind, e.Points)
	}
	return nil
}

func readFile(fsys fs.FS, name string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
