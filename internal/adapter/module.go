package adapter

import (
	"fmt"
	"io/fs"

	"github.com/roach88/cartridge/internal/entity"
)

// moduleAdapter covers modules. A module has no artifacts of its own; its
// ordering document is produced by the synchronizer.
type moduleAdapter struct{}

func (moduleAdapter) Kind() entity.Kind   { return entity.KindModule }
func (moduleAdapter) ContentType() string { return "" }
func (moduleAdapter) AuxKeys() []string   { return nil }

func (moduleAdapter) Fields() []string {
	return []string{entity.FieldTitle, entity.FieldPublished, entity.FieldPosition}
}

func (moduleAdapter) Required() []string { return []string{entity.FieldTitle} }

func (moduleAdapter) Defaults(d Defaults) entity.Entity {
	return entity.Entity{Kind: entity.KindModule, Published: d.Published}
}

func (moduleAdapter) Validate(e entity.Entity) error {
	if err := validateTitle(e); err != nil {
		return err
	}
	if e.ParentID != "" {
		return entity.NewValidation(e.Kind, "modules cannot be nested")
	}
	return nil
}

func (moduleAdapter) Artifacts(*Context, entity.Entity) []string { return nil }

func (moduleAdapter) Render(*Context, entity.Entity) ([]Document, error) { return nil, nil }

func (moduleAdapter) Resources(*Context, entity.Entity) []Resource { return nil }

func (moduleAdapter) Claims(Resource) bool { return false }

func (moduleAdapter) Parse(r Resource, _ map[string]Resource, _ fs.FS) (entity.Entity, error) {
	return entity.Entity{}, fmt.Errorf("modules are not manifest resources (%s)", r.ID)
}
