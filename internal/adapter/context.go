package adapter

import (
	"sort"
	"strconv"

	"github.com/roach88/cartridge/internal/entity"
)

// WikiDir holds wiki page documents.
const WikiDir = "wiki_content"

// Context carries what rendering needs beyond a single entity: the course
// and the package-wide file names that depend on other entities.
type Context struct {
	Course Course

	wikiPaths map[string]string
}

// NewContext builds a rendering context. When two wiki pages share a slug
// the page with the smaller id keeps the plain name and the others get
// "-2", "-3", ... in id order. Ids are the only ordering that survives a
// reload unchanged.
func NewContext(course Course, ents []entity.Entity) *Context {
	c := &Context{Course: course, wikiPaths: make(map[string]string)}

	var pages []entity.Entity
	for _, e := range ents {
		if e.Kind == entity.KindWikiPage {
			pages = append(pages, e)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })

	taken := make(map[string]bool)
	for _, e := range pages {
		base := Slug(e.Title)
		p := wikiPath(base)
		for n := 2; taken[p]; n++ {
			p = wikiPath(base + "-" + strconv.Itoa(n))
		}
		taken[p] = true
		c.wikiPaths[e.ID] = p
	}
	return c
}

// WikiPath returns the document path of a wiki page.
func (c *Context) WikiPath(e entity.Entity) string {
	if c != nil {
		if p, ok := c.wikiPaths[e.ID]; ok {
			return p
		}
	}
	return wikiPath(Slug(e.Title))
}

// AssignmentGroupID returns the course assignment group, used by
// assignments and quizzes.
func (c *Context) AssignmentGroupID() string {
	if c == nil {
		return ""
	}
	return c.Course.AssignmentGroupID
}

func wikiPath(slug string) string {
	return WikiDir + "/" + slug + ".html"
}
