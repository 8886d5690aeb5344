package adapter

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/roach88/cartridge/internal/entity"
)

// fileAdapter covers file resources. The title is the filename and the
// body is the file content; the only artifact is web_resources/<filename>.
type fileAdapter struct{}

func (fileAdapter) Kind() entity.Kind   { return entity.KindFile }
func (fileAdapter) ContentType() string { return "Attachment" }
func (fileAdapter) AuxKeys() []string   { return nil }

// Files carry no publish state of their own.
func (fileAdapter) Fields() []string {
	return []string{entity.FieldTitle, entity.FieldBody, entity.FieldPosition}
}

func (fileAdapter) Required() []string { return []string{entity.FieldTitle} }

func (fileAdapter) Defaults(Defaults) entity.Entity {
	return entity.Entity{Kind: entity.KindFile, Published: true}
}

func (fileAdapter) Validate(e entity.Entity) error {
	if err := ValidateFilename(e.Title); err != nil {
		return err
	}
	if e.Href != entity.FileHref(e.Title) {
		return entity.NewValidation(e.Kind, "file %s: href %q does not match filename %q", e.ID, e.Href, e.Title)
	}
	return nil
}

func (fileAdapter) Artifacts(_ *Context, e entity.Entity) []string {
	return []string{e.Href}
}

func (fileAdapter) Render(_ *Context, e entity.Entity) ([]Document, error) {
	return []Document{{Path: e.Href, Data: []byte(e.Body)}}, nil
}

func (fileAdapter) Resources(_ *Context, e entity.Entity) []Resource {
	return []Resource{{ID: e.ID, Type: TypeWebContent, Href: e.Href, Files: []string{e.Href}}}
}

func (fileAdapter) Claims(r Resource) bool {
	return r.Type == TypeWebContent && strings.HasPrefix(r.Href, entity.WebResourcesDir+"/")
}

func (fileAdapter) Parse(r Resource, _ map[string]Resource, fsys fs.FS) (entity.Entity, error) {
	data, err := readFile(fsys, r.Href)
	if err != nil {
		return entity.Entity{}, err
	}
	name := path.Base(r.Href)
	if path.Dir(r.Href) != entity.WebResourcesDir {
		return entity.Entity{}, fmt.Errorf("file %s: %s is not directly under %s/", r.ID, r.Href, entity.WebResourcesDir)
	}
	return entity.Entity{
		ID:        r.ID,
		Kind:      entity.KindFile,
		Title:     name,
		Body:      string(data),
		Published: true,
		Href:      r.Href,
	}, nil
}
