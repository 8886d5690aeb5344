package adapter

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/roach88/cartridge/internal/entity"
)

const assignmentSettingsFile = "assignment_settings.xml"

// assignmentAdapter covers assignments: a directory named after the id
// with a settings document and the description page.
type assignmentAdapter struct{}

type assignmentSettingsDoc struct {
	XMLName    xml.Name `xml:"assignment"`
	Identifier string   `xml:"identifier,attr"`
	Namespace
	Title                 string `xml:"title"`
	DueAt                 string `xml:"due_at"`
	LockAt                string `xml:"lock_at"`
	UnlockAt              string `xml:"unlock_at"`
	ModuleLocked          bool   `xml:"module_locked"`
	AssignmentGroupRef    string `xml:"assignment_group_identifierref"`
	WorkflowState         string `xml:"workflow_state"`
	PointsPossible        string `xml:"points_possible"`
	GradingType           string `xml:"grading_type"`
	AllDay                bool   `xml:"all_day"`
	SubmissionTypes       string `xml:"submission_types"`
	PeerReviews           bool   `xml:"peer_reviews"`
	OnlyVisibleToOverride bool   `xml:"only_visible_to_overrides"`
}

func (assignmentAdapter) Kind() entity.Kind   { return entity.KindAssignment }
func (assignmentAdapter) ContentType() string { return "Assignment" }
func (assignmentAdapter) AuxKeys() []string   { return nil }

func (assignmentAdapter) Fields() []string {
	return []string{entity.FieldTitle, entity.FieldBody, entity.FieldPublished, entity.FieldPoints, entity.FieldPosition}
}

func (assignmentAdapter) Required() []string { return []string{entity.FieldTitle} }

func (assignmentAdapter) Defaults(d Defaults) entity.Entity {
	return entity.Entity{Kind: entity.KindAssignment, Published: d.Published, Points: d.AssignmentPoints}
}

func (assignmentAdapter) Validate(e entity.Entity) error {
	if err := validateTitle(e); err != nil {
		return err
	}
	return validatePoints(e)
}

func assignmentPaths(e entity.Entity) (page, settings string) {
	return e.ID + "/" + Slug(e.Title) + ".html", e.ID + "/" + assignmentSettingsFile
}

func (assignmentAdapter) Artifacts(_ *Context, e entity.Entity) []string {
	page, settings := assignmentPaths(e)
	return sortedPaths(page, settings)
}

func (assignmentAdapter) Render(c *Context, e entity.Entity) ([]Document, error) {
	page, settings := assignmentPaths(e)

	doc := assignmentSettingsDoc{
		Identifier:         e.ID,
		Namespace:          CanvasNamespace(),
		Title:              e.Title,
		AssignmentGroupRef: c.AssignmentGroupID(),
		WorkflowState:      entity.WorkflowState(e.Published),
		PointsPossible:     FormatPoints(e.Points),
		GradingType:        "points",
		SubmissionTypes:    "online_text_entry",
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("render assignment %s: %w", e.ID, err)
	}

	html := renderHTMLPage(htmlPage{Title: "Assignment: " + e.Title, Body: e.Body})
	return sortedDocuments(
		Document{Path: page, Data: html},
		Document{Path: settings, Data: data},
	), nil
}

func (assignmentAdapter) Resources(_ *Context, e entity.Entity) []Resource {
	page, settings := assignmentPaths(e)
	return []Resource{{ID: e.ID, Type: TypeLearningApp, Href: page, Files: []string{page, settings}}}
}

func (assignmentAdapter) Claims(r Resource) bool {
	if r.Type != TypeLearningApp || path.Ext(r.Href) != ".html" {
		return false
	}
	for _, f := range r.Files {
		if path.Base(f) == assignmentSettingsFile {
			return true
		}
	}
	return false
}

func (assignmentAdapter) Parse(r Resource, _ map[string]Resource, fsys fs.FS) (entity.Entity, error) {
	settingsPath := path.Dir(r.Href) + "/" + assignmentSettingsFile
	for _, f := range r.Files {
		if strings.HasSuffix(f, "/"+assignmentSettingsFile) {
			settingsPath = f
		}
	}

	data, err := readFile(fsys, settingsPath)
	if err != nil {
		return entity.Entity{}, err
	}
	var doc assignmentSettingsDoc
	if err := UnmarshalDocument(data, &doc); err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", settingsPath, err)
	}
	points, err := ParsePoints(doc.PointsPossible)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", settingsPath, err)
	}

	html, err := readFile(fsys, r.Href)
	if err != nil {
		return entity.Entity{}, err
	}
	page, err := parseHTMLPage(html)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", r.Href, err)
	}

	return entity.Entity{
		ID:        r.ID,
		Kind:      entity.KindAssignment,
		Title:     doc.Title,
		Body:      page.Body,
		Published: entity.ParseWorkflowState(doc.WorkflowState),
		Points:    points,
	}, nil
}
