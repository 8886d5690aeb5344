package adapter

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/roach88/cartridge/internal/entity"
)

// wikiAdapter covers wiki pages: one HTML document under wiki_content/
// whose file name follows the title. The entity id is the manifest
// resource id and the page's "identifier" meta tag.
type wikiAdapter struct{}

func (wikiAdapter) Kind() entity.Kind   { return entity.KindWikiPage }
func (wikiAdapter) ContentType() string { return "WikiPage" }
func (wikiAdapter) AuxKeys() []string   { return nil }

func (wikiAdapter) Fields() []string {
	return []string{entity.FieldTitle, entity.FieldBody, entity.FieldPublished, entity.FieldPosition}
}

func (wikiAdapter) Required() []string { return []string{entity.FieldTitle} }

func (wikiAdapter) Defaults(d Defaults) entity.Entity {
	return entity.Entity{Kind: entity.KindWikiPage, Published: d.Published}
}

func (wikiAdapter) Validate(e entity.Entity) error {
	return validateTitle(e)
}

func (wikiAdapter) Artifacts(c *Context, e entity.Entity) []string {
	return []string{c.WikiPath(e)}
}

func (wikiAdapter) Render(c *Context, e entity.Entity) ([]Document, error) {
	page := htmlPage{
		Title: e.Title,
		Meta: []metaTag{
			{"identifier", e.ID},
			{"editing_roles", "teachers"},
			{"workflow_state", entity.WorkflowState(e.Published)},
		},
		Body: e.Body,
	}
	return []Document{{Path: c.WikiPath(e), Data: renderHTMLPage(page)}}, nil
}

func (wikiAdapter) Resources(c *Context, e entity.Entity) []Resource {
	p := c.WikiPath(e)
	return []Resource{{ID: e.ID, Type: TypeWebContent, Href: p, Files: []string{p}}}
}

func (wikiAdapter) Claims(r Resource) bool {
	return r.Type == TypeWebContent && strings.HasPrefix(r.Href, WikiDir+"/")
}

func (wikiAdapter) Parse(r Resource, _ map[string]Resource, fsys fs.FS) (entity.Entity, error) {
	data, err := readFile(fsys, r.Href)
	if err != nil {
		return entity.Entity{}, err
	}
	page, err := parseHTMLPage(data)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", r.Href, err)
	}
	state, _ := page.meta("workflow_state")
	return entity.Entity{
		ID:        r.ID,
		Kind:      entity.KindWikiPage,
		Title:     page.Title,
		Body:      page.Body,
		Published: entity.ParseWorkflowState(state),
	}, nil
}
