package refsync

import (
	"encoding/xml"
	"fmt"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
)

// ManifestPath is the package manifest.
const ManifestPath = "imsmanifest.xml"

const (
	imscpNS       = "http://www.imsglobal.org/xsd/imsccv1p1/imscp_v1p1"
	lomResourceNS = "http://ltsc.ieee.org/xsd/imsccv1p1/LOM/resource"
	lomManifestNS = "http://ltsc.ieee.org/xsd/imsccv1p1/LOM/manifest"
	manifestXSD   = "http://www.imsglobal.org/xsd/imsccv1p1/imscp_v1p1 http://www.imsglobal.org/profile/cc/ccv1p1/ccv1p1_imscp_v1p2_v1p0.xsd " +
		"http://ltsc.ieee.org/xsd/imsccv1p1/LOM/resource http://www.imsglobal.org/profile/cc/ccv1p1/LOM/ccv1p1_lomresource_v1p0.xsd " +
		"http://ltsc.ieee.org/xsd/imsccv1p1/LOM/manifest http://www.imsglobal.org/profile/cc/ccv1p1/LOM/ccv1p1_lommanifest_v1p0.xsd"

	organizationID = "org_1"
	rootItemID     = "LearningModules"
	copyright      = "Private (Copyrighted) - http://en.wikipedia.org/wiki/Copyright"
)

// Manifest is the parsed form of imsmanifest.xml.
type Manifest struct {
	Identifier string
	Title      string
	Created    string
	Modules    []ManifestModule
	Resources  []adapter.Resource
}

// ManifestModule is one module of the organization tree.
type ManifestModule struct {
	ID        string
	Title     string
	Published bool
	Items     []ManifestItem
}

// ManifestItem is one module item of the organization tree.
type ManifestItem struct {
	ItemID    string
	Ref       string
	Title     string
	Published bool
}

// Resource returns the resource with the given id.
func (m *Manifest) Resource(id string) (adapter.Resource, bool) {
	for _, r := range m.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return adapter.Resource{}, false
}

// ResourceMap returns every resource keyed by id.
func (m *Manifest) ResourceMap() map[string]adapter.Resource {
	out := make(map[string]adapter.Resource, len(m.Resources))
	for _, r := range m.Resources {
		out[r.ID] = r
	}
	return out
}

// Written form. Prefixed element names are spelled out so the document
// reads the way Canvas writes it.
type manifestDoc struct {
	XMLName        xml.Name         `xml:"manifest"`
	Identifier     string           `xml:"identifier,attr"`
	Xmlns          string           `xml:"xmlns,attr"`
	Lom            string           `xml:"xmlns:lom,attr"`
	LomIMSCC       string           `xml:"xmlns:lomimscc,attr"`
	XSI            string           `xml:"xmlns:xsi,attr"`
	SchemaLocation string           `xml:"xsi:schemaLocation,attr"`
	Metadata       manifestMetadata `xml:"metadata"`
	Organizations  []organization   `xml:"organizations>organization"`
	Resources      []resourceDoc    `xml:"resources>resource"`
}

type manifestMetadata struct {
	Schema        string `xml:"schema"`
	SchemaVersion string `xml:"schemaversion"`
	Lom           lomDoc `xml:"lomimscc:lom"`
}

type lomDoc struct {
	Title       string `xml:"lomimscc:general>lomimscc:title>lomimscc:string"`
	Date        string `xml:"lomimscc:lifeCycle>lomimscc:contribute>lomimscc:date>lomimscc:dateTime"`
	Restricted  string `xml:"lomimscc:rights>lomimscc:copyrightAndOtherRestrictions>lomimscc:value"`
	Description string `xml:"lomimscc:rights>lomimscc:description>lomimscc:string"`
}

// Shared by both directions; attribute names carry no prefix.
type organization struct {
	Identifier string  `xml:"identifier,attr"`
	Structure  string  `xml:"structure,attr"`
	Root       orgItem `xml:"item"`
}

type orgItem struct {
	Identifier    string    `xml:"identifier,attr"`
	IdentifierRef string    `xml:"identifierref,attr,omitempty"`
	IsVisible     string    `xml:"isvisible,attr,omitempty"`
	Title         string    `xml:"title,omitempty"`
	Items         []orgItem `xml:"item"`
}

type resourceDoc struct {
	Identifier   string       `xml:"identifier,attr"`
	Type         string       `xml:"type,attr"`
	Href         string       `xml:"href,attr,omitempty"`
	Files        []fileRef    `xml:"file"`
	Dependencies []dependency `xml:"dependency"`
}

type fileRef struct {
	Href string `xml:"href,attr"`
}

type dependency struct {
	IdentifierRef string `xml:"identifierref,attr"`
}

// Read form. Element names are matched on their local part.
type manifestScan struct {
	Identifier    string         `xml:"identifier,attr"`
	Title         string         `xml:"metadata>lom>general>title>string"`
	Date          string         `xml:"metadata>lom>lifeCycle>contribute>date>dateTime"`
	Organizations []organization `xml:"organizations>organization"`
	Resources     []resourceDoc  `xml:"resources>resource"`
}

// moduleTree is a module with its items in position order.
type moduleTree struct {
	Module entity.Entity
	Items  []entity.Entity
}

func visible(published bool) string {
	if published {
		return "true"
	}
	return "false"
}

func renderManifest(course adapter.Course, tree []moduleTree, resources []adapter.Resource) ([]byte, error) {
	root := orgItem{Identifier: rootItemID}
	for _, mt := range tree {
		mod := orgItem{
			Identifier: mt.Module.ID,
			IsVisible:  visible(mt.Module.Published),
			Title:      mt.Module.Title,
		}
		for _, it := range mt.Items {
			mod.Items = append(mod.Items, orgItem{
				Identifier:    it.ItemID,
				IdentifierRef: it.ID,
				IsVisible:     visible(it.Published),
				Title:         it.Title,
			})
		}
		root.Items = append(root.Items, mod)
	}

	doc := manifestDoc{
		Identifier:     course.ManifestID,
		Xmlns:          imscpNS,
		Lom:            lomResourceNS,
		LomIMSCC:       lomManifestNS,
		XSI:            adapter.XSINS,
		SchemaLocation: manifestXSD,
		Metadata: manifestMetadata{
			Schema:        "IMS Common Cartridge",
			SchemaVersion: "1.1.0",
			Lom: lomDoc{
				Title:       course.Title,
				Date:        course.Created,
				Restricted:  "yes",
				Description: copyright,
			},
		},
		Organizations: []organization{{
			Identifier: organizationID,
			Structure:  "rooted-hierarchy",
			Root:       root,
		}},
	}
	for _, r := range resources {
		rd := resourceDoc{Identifier: r.ID, Type: r.Type, Href: r.Href}
		for _, f := range r.Files {
			rd.Files = append(rd.Files, fileRef{Href: f})
		}
		for _, d := range r.Dependencies {
			rd.Dependencies = append(rd.Dependencies, dependency{IdentifierRef: d})
		}
		doc.Resources = append(doc.Resources, rd)
	}

	return adapter.MarshalDocument(doc)
}

// ParseManifest reads imsmanifest.xml.
func ParseManifest(data []byte) (*Manifest, error) {
	var scan manifestScan
	if err := adapter.UnmarshalDocument(data, &scan); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestPath, err)
	}

	m := &Manifest{
		Identifier: scan.Identifier,
		Title:      scan.Title,
		Created:    scan.Date,
	}
	for _, org := range scan.Organizations {
		for _, mod := range org.Root.Items {
			mm := ManifestModule{
				ID:        mod.Identifier,
				Title:     mod.Title,
				Published: mod.IsVisible != "false",
			}
			for _, it := range mod.Items {
				mm.Items = append(mm.Items, ManifestItem{
					ItemID:    it.Identifier,
					Ref:       it.IdentifierRef,
					Title:     it.Title,
					Published: it.IsVisible != "false",
				})
			}
			m.Modules = append(m.Modules, mm)
		}
	}
	for _, rd := range scan.Resources {
		r := adapter.Resource{ID: rd.Identifier, Type: rd.Type, Href: rd.Href}
		for _, f := range rd.Files {
			r.Files = append(r.Files, f.Href)
		}
		for _, d := range rd.Dependencies {
			r.Dependencies = append(r.Dependencies, d.IdentifierRef)
		}
		m.Resources = append(m.Resources, r)
	}
	return m, nil
}
