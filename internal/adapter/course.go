package adapter

import (
	"encoding/xml"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
)

// SettingsDir holds the course-level documents.
const SettingsDir = "course_settings"

// Course settings document paths.
const (
	CanvasExportPath     = SettingsDir + "/canvas_export.txt"
	CourseSettingsPath   = SettingsDir + "/course_settings.xml"
	AssignmentGroupsPath = SettingsDir + "/assignment_groups.xml"
	FilesMetaPath        = SettingsDir + "/files_meta.xml"
	LatePolicyPath       = SettingsDir + "/late_policy.xml"
	ContextPath          = SettingsDir + "/context.xml"
	MediaTracksPath      = SettingsDir + "/media_tracks.xml"
)

// canvasExport is the marker file Canvas looks for in its own exports.
const canvasExport = "Q: What did the panda say when he was forced out of his natural habitat?\nA: This is un-BEAR-able\n"

// Course is the package-level record that lives outside the entity table.
type Course struct {
	ID                string
	Title             string
	Code              string
	AssignmentGroupID string
	LatePolicyID      string
	ManifestID        string

	// Created is the manifest creation date (YYYY-MM-DD). It is set once
	// by create and carried through every rebuild.
	Created string
}

// IDs returns the identifiers the course itself consumes.
func (c Course) IDs() []string {
	var out []string
	for _, id := range []string{c.ID, c.AssignmentGroupID, c.LatePolicyID, c.ManifestID} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

type courseSettingsDoc struct {
	XMLName    xml.Name `xml:"course"`
	Identifier string   `xml:"identifier,attr"`
	Namespace
	Title        string `xml:"title"`
	CourseCode   string `xml:"course_code"`
	StartAt      string `xml:"start_at"`
	ConcludeAt   string `xml:"conclude_at"`
	IsPublic     bool   `xml:"is_public"`
	DefaultView  string `xml:"default_view"`
	StorageQuota int64  `xml:"storage_quota"`
}

type assignmentGroupsDoc struct {
	XMLName xml.Name `xml:"assignmentGroups"`
	Namespace
	Groups []assignmentGroup `xml:"assignmentGroup"`
}

type assignmentGroup struct {
	Identifier  string `xml:"identifier,attr"`
	Title       string `xml:"title"`
	Position    int    `xml:"position"`
	GroupWeight string `xml:"group_weight"`
}

type latePolicyDoc struct {
	XMLName    xml.Name `xml:"late_policy"`
	Identifier string   `xml:"identifier,attr"`
	Namespace
	MissingEnabled  bool   `xml:"missing_submission_deduction_enabled"`
	MissingDeduct   string `xml:"missing_submission_deduction"`
	LateEnabled     bool   `xml:"late_submission_deduction_enabled"`
	LateDeduct      string `xml:"late_submission_deduction"`
	LateInterval    string `xml:"late_submission_interval"`
	MinimumEnabled  bool   `xml:"late_submission_minimum_percent_enabled"`
	MinimumPercent  string `xml:"late_submission_minimum_percent"`
}

type contextDoc struct {
	XMLName xml.Name `xml:"context_info"`
	Namespace
	CourseID     uint32 `xml:"course_id"`
	CourseName   string `xml:"course_name"`
	CanvasDomain string `xml:"canvas_domain"`
}

type emptyDoc struct {
	XMLName xml.Name
	Namespace
}

// RenderCourseSettings produces the course-level documents other than the
// module documents, sorted by path.
func RenderCourseSettings(c Course) ([]Document, error) {
	ns := CanvasNamespace()
	docs := []struct {
		path string
		v    any
	}{
		{AssignmentGroupsPath, assignmentGroupsDoc{
			Namespace: ns,
			Groups: []assignmentGroup{{
				Identifier: c.AssignmentGroupID, Title: "Assignments", Position: 1, GroupWeight: "0.0",
			}},
		}},
		{ContextPath, contextDoc{
			Namespace: ns, CourseID: numericCourseID(c.ID), CourseName: c.Title, CanvasDomain: "canvas.instructure.com",
		}},
		{CourseSettingsPath, courseSettingsDoc{
			Identifier: c.ID, Namespace: ns, Title: c.Title, CourseCode: c.Code,
			DefaultView: "modules", StorageQuota: 500000000,
		}},
		{FilesMetaPath, emptyDoc{XMLName: xml.Name{Local: "fileMeta"}, Namespace: ns}},
		{LatePolicyPath, latePolicyDoc{
			Identifier: c.LatePolicyID, Namespace: ns,
			MissingDeduct: "100.0", LateDeduct: "0.0", LateInterval: "day", MinimumPercent: "0.0",
		}},
		{MediaTracksPath, emptyDoc{XMLName: xml.Name{Local: "media_tracks"}, Namespace: ns}},
	}

	out := []Document{{Path: CanvasExportPath, Data: []byte(canvasExport)}}
	for _, d := range docs {
		data, err := MarshalDocument(d.v)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", d.path, err)
		}
		out = append(out, Document{Path: d.path, Data: data})
	}
	return out, nil
}

// SettingsFiles lists the course_settings files owned by the course
// record, in manifest order.
func SettingsFiles() []string {
	return []string{
		CourseSettingsPath,
		AssignmentGroupsPath,
		FilesMetaPath,
		LatePolicyPath,
		ContextPath,
		MediaTracksPath,
		CanvasExportPath,
	}
}

// ParseCourseSettings reads the course record from course_settings/.
// Missing assignment group or late policy documents leave those ids empty.
func ParseCourseSettings(fsys fs.FS) (Course, error) {
	data, err := readFile(fsys, CourseSettingsPath)
	if err != nil {
		return Course{}, err
	}
	var cs courseSettingsDoc
	if err := UnmarshalDocument(data, &cs); err != nil {
		return Course{}, fmt.Errorf("parse %s: %w", CourseSettingsPath, err)
	}
	c := Course{ID: cs.Identifier, Title: cs.Title, Code: cs.CourseCode}

	if data, err := fs.ReadFile(fsys, AssignmentGroupsPath); err == nil {
		var ag assignmentGroupsDoc
		if err := UnmarshalDocument(data, &ag); err != nil {
			return Course{}, fmt.Errorf("parse %s: %w", AssignmentGroupsPath, err)
		}
		if len(ag.Groups) > 0 {
			c.AssignmentGroupID = ag.Groups[0].Identifier
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Course{}, fmt.Errorf("read %s: %w", AssignmentGroupsPath, err)
	}

	if data, err := fs.ReadFile(fsys, LatePolicyPath); err == nil {
		var lp latePolicyDoc
		if err := UnmarshalDocument(data, &lp); err != nil {
			return Course{}, fmt.Errorf("parse %s: %w", LatePolicyPath, err)
		}
		c.LatePolicyID = lp.Identifier
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Course{}, fmt.Errorf("read %s: %w", LatePolicyPath, err)
	}

	return c, nil
}

// numericCourseID derives the numeric course id of context.xml from the
// course identifier so it is stable across rebuilds.
func numericCourseID(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32() % 100000000
}
