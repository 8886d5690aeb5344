package refsync

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/roach88/cartridge/internal/adapter"
	"github.com/roach88/cartridge/internal/entity"
)

// Module document locations.
const (
	ModuleDir      = adapter.SettingsDir + "/modules"
	ModuleMetaPath = adapter.SettingsDir + "/module_meta.xml"
)

// ModulePath returns the ordering document of one module.
func ModulePath(moduleID string) string {
	return ModuleDir + "/" + moduleID + ".xml"
}

// ModuleRecord is the parsed form of a module ordering document.
type ModuleRecord struct {
	ID        string
	Title     string
	Published bool
	Position  int
	Items     []ItemRecord
}

// ItemRecord is one module item of a module ordering document.
type ItemRecord struct {
	ItemID      string
	ContentType string
	Ref         string
	Title       string
	Published   bool
	Position    int
}

type moduleBody struct {
	Title                     string       `xml:"title"`
	WorkflowState             string       `xml:"workflow_state"`
	Position                  int          `xml:"position"`
	RequireSequentialProgress bool         `xml:"require_sequential_progress"`
	Locked                    bool         `xml:"locked"`
	Items                     []moduleItem `xml:"items>item"`
}

type moduleItem struct {
	Identifier       string `xml:"identifier,attr"`
	ContentType      string `xml:"content_type"`
	WorkflowState    string `xml:"workflow_state"`
	Title            string `xml:"title"`
	IdentifierRef    string `xml:"identifierref"`
	Position         int    `xml:"position"`
	NewTab           string `xml:"new_tab"`
	Indent           int    `xml:"indent"`
	LinkSettingsJSON string `xml:"link_settings_json"`
}

// moduleDoc is course_settings/modules/<id>.xml.
type moduleDoc struct {
	XMLName    xml.Name `xml:"module"`
	Identifier string   `xml:"identifier,attr"`
	adapter.Namespace
	moduleBody
}

// moduleEntry is one <module> of module_meta.xml.
type moduleEntry struct {
	Identifier string `xml:"identifier,attr"`
	moduleBody
}

type moduleMetaDoc struct {
	XMLName xml.Name `xml:"modules"`
	adapter.Namespace
	Modules []moduleEntry `xml:"module"`
}

func buildModuleBody(reg *adapter.Registry, mt moduleTree) (moduleBody, error) {
	body := moduleBody{
		Title:         mt.Module.Title,
		WorkflowState: entity.WorkflowState(mt.Module.Published),
		Position:      mt.Module.Position,
	}
	for _, it := range mt.Items {
		a, err := reg.For(it.Kind)
		if err != nil {
			return moduleBody{}, err
		}
		body.Items = append(body.Items, moduleItem{
			Identifier:       it.ItemID,
			ContentType:      a.ContentType(),
			WorkflowState:    entity.WorkflowState(it.Published),
			Title:            it.Title,
			IdentifierRef:    it.ID,
			Position:         it.Position,
			LinkSettingsJSON: "null",
		})
	}
	return body, nil
}

// renderModuleDocs renders one ordering document per module plus the
// module_meta.xml aggregate built from the same bodies.
func renderModuleDocs(reg *adapter.Registry, tree []moduleTree) ([]adapter.Document, error) {
	meta := moduleMetaDoc{Namespace: adapter.CanvasNamespace()}
	var docs []adapter.Document
	for _, mt := range tree {
		body, err := buildModuleBody(reg, mt)
		if err != nil {
			return nil, fmt.Errorf("render module %s: %w", mt.Module.ID, err)
		}
		data, err := adapter.MarshalDocument(moduleDoc{
			Identifier: mt.Module.ID,
			Namespace:  adapter.CanvasNamespace(),
			moduleBody: body,
		})
		if err != nil {
			return nil, fmt.Errorf("render module %s: %w", mt.Module.ID, err)
		}
		docs = append(docs, adapter.Document{Path: ModulePath(mt.Module.ID), Data: data})
		meta.Modules = append(meta.Modules, moduleEntry{Identifier: mt.Module.ID, moduleBody: body})
	}

	data, err := adapter.MarshalDocument(meta)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", ModuleMetaPath, err)
	}
	return append(docs, adapter.Document{Path: ModuleMetaPath, Data: data}), nil
}

func recordFromBody(id string, body moduleBody) ModuleRecord {
	rec := ModuleRecord{
		ID:        id,
		Title:     body.Title,
		Published: entity.ParseWorkflowState(body.WorkflowState),
		Position:  body.Position,
	}
	for _, it := range body.Items {
		rec.Items = append(rec.Items, ItemRecord{
			ItemID:      it.Identifier,
			ContentType: it.ContentType,
			Ref:         it.IdentifierRef,
			Title:       it.Title,
			Published:   entity.ParseWorkflowState(it.WorkflowState),
			Position:    it.Position,
		})
	}
	return rec
}

// ParseModuleDoc reads one course_settings/modules/<id>.xml document.
func ParseModuleDoc(data []byte) (ModuleRecord, error) {
	var doc moduleDoc
	if err := adapter.UnmarshalDocument(data, &doc); err != nil {
		return ModuleRecord{}, err
	}
	return recordFromBody(doc.Identifier, doc.moduleBody), nil
}

// ParseModuleMeta reads course_settings/module_meta.xml.
func ParseModuleMeta(data []byte) ([]ModuleRecord, error) {
	var doc moduleMetaDoc
	if err := adapter.UnmarshalDocument(data, &doc); err != nil {
		return nil, err
	}
	out := make([]ModuleRecord, 0, len(doc.Modules))
	for _, m := range doc.Modules {
		out = append(out, recordFromBody(m.Identifier, m.moduleBody))
	}
	return out, nil
}

// ReadModules returns the ordering record of every module in the manifest,
// in manifest order. Per-module documents are preferred; packages that
// only carry module_meta.xml (plain Canvas exports) fall back to it.
func ReadModules(fsys fs.FS, m *Manifest) ([]ModuleRecord, error) {
	var meta map[string]ModuleRecord
	out := make([]ModuleRecord, 0, len(m.Modules))
	for i, mm := range m.Modules {
		p := ModulePath(mm.ID)
		data, err := fs.ReadFile(fsys, p)
		if err == nil {
			rec, err := ParseModuleDoc(data)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", p, err)
			}
			if rec.ID == "" {
				rec.ID = mm.ID
			}
			out = append(out, rec)
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		if meta == nil {
			meta, err = readModuleMeta(fsys)
			if err != nil {
				return nil, err
			}
		}
		rec, ok := meta[mm.ID]
		if !ok {
			rec = fromManifest(mm, i+1)
		}
		out = append(out, rec)
	}
	return out, nil
}

func readModuleMeta(fsys fs.FS) (map[string]ModuleRecord, error) {
	out := make(map[string]ModuleRecord)
	data, err := fs.ReadFile(fsys, ModuleMetaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ModuleMetaPath, err)
	}
	recs, err := ParseModuleMeta(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ModuleMetaPath, err)
	}
	for _, r := range recs {
		out[r.ID] = r
	}
	return out, nil
}

// fromManifest derives a record from the organization tree alone.
func fromManifest(mm ManifestModule, position int) ModuleRecord {
	rec := ModuleRecord{ID: mm.ID, Title: mm.Title, Published: mm.Published, Position: position}
	for i, it := range mm.Items {
		rec.Items = append(rec.Items, ItemRecord{
			ItemID:    it.ItemID,
			Ref:       it.Ref,
			Title:     it.Title,
			Published: it.Published,
			Position:  i + 1,
		})
	}
	return rec
}

// IsModuleDoc reports whether a package path is a per-module document.
func IsModuleDoc(p string) bool {
	return path.Dir(p) == ModuleDir && path.Ext(p) == ".xml"
}
