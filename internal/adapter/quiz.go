package adapter

import (
	"encoding/xml"
	"fmt"
	"io/fs"

	"github.com/roach88/cartridge/internal/entity"
)

// NonCCDir holds the Canvas-only copies of quiz QTI documents.
const NonCCDir = "non_cc_assessments"

// quizAdapter covers quizzes. A quiz owns two manifest resources: the QTI
// assessment (the entity id, what module items point at) and the Canvas
// meta resource (AuxMeta). The meta document embeds an assignment record
// with its own id (AuxAssignment).
type quizAdapter struct{}

type quizMetaDoc struct {
	XMLName    xml.Name `xml:"quiz"`
	Identifier string   `xml:"identifier,attr"`
	Namespace
	Title          string         `xml:"title"`
	Description    string         `xml:"description"`
	ShuffleAnswers bool           `xml:"shuffle_answers"`
	ScoringPolicy  string         `xml:"scoring_policy"`
	QuizType       string         `xml:"quiz_type"`
	PointsPossible string         `xml:"points_possible"`
	AllowedAttempt int            `xml:"allowed_attempts"`
	Available      bool           `xml:"available"`
	Assignment     quizAssignment `xml:"assignment"`
	GroupRef       string         `xml:"assignment_group_identifierref"`
}

type quizAssignment struct {
	Identifier      string `xml:"identifier,attr"`
	Title           string `xml:"title"`
	GroupRef        string `xml:"assignment_group_identifierref"`
	WorkflowState   string `xml:"workflow_state"`
	QuizRef         string `xml:"quiz_identifierref"`
	PointsPossible  string `xml:"points_possible"`
	GradingType     string `xml:"grading_type"`
	SubmissionTypes string `xml:"submission_types"`
}

type qtiDoc struct {
	XMLName xml.Name `xml:"questestinterop"`
	Namespace
	Assessment qtiAssessment `xml:"assessment"`
}

type qtiAssessment struct {
	Ident    string        `xml:"ident,attr"`
	Title    string        `xml:"title,attr"`
	Metadata []qtiMetaField `xml:"qtimetadata>qtimetadatafield"`
	Section  qtiSection    `xml:"section"`
}

type qtiMetaField struct {
	Label string `xml:"fieldlabel"`
	Entry string `xml:"fieldentry"`
}

type qtiSection struct {
	Ident string `xml:"ident,attr"`
}

func (quizAdapter) Kind() entity.Kind   { return entity.KindQuiz }
func (quizAdapter) ContentType() string { return "Quizzes::Quiz" }

func (quizAdapter) AuxKeys() []string {
	return []string{entity.AuxAssignment, entity.AuxMeta}
}

func (quizAdapter) Fields() []string {
	return []string{entity.FieldTitle, entity.FieldBody, entity.FieldPublished, entity.FieldPoints, entity.FieldPosition}
}

func (quizAdapter) Required() []string { return []string{entity.FieldTitle} }

func (quizAdapter) Defaults(d Defaults) entity.Entity {
	return entity.Entity{Kind: entity.KindQuiz, Published: d.Published, Points: d.QuizPoints}
}

func (quizAdapter) Validate(e entity.Entity) error {
	if err := validateTitle(e); err != nil {
		return err
	}
	if err := validatePoints(e); err != nil {
		return err
	}
	if e.Aux(entity.AuxMeta) == "" || e.Aux(entity.AuxAssignment) == "" {
		return entity.NewValidation(e.Kind, "quiz %s is missing its meta or assignment id", e.ID)
	}
	return nil
}

func quizPaths(e entity.Entity) (qti, meta, nonCC string) {
	return e.ID + "/assessment_qti.xml", e.ID + "/assessment_meta.xml", NonCCDir + "/" + e.ID + ".xml.qti"
}

func (quizAdapter) Artifacts(_ *Context, e entity.Entity) []string {
	return sortedPaths(quizPaths(e))
}

func (quizAdapter) Render(c *Context, e entity.Entity) ([]Document, error) {
	qtiPath, metaPath, nonCCPath := quizPaths(e)
	group := c.AssignmentGroupID()
	points := FormatPoints(e.Points)

	meta, err := MarshalDocument(quizMetaDoc{
		Identifier:     e.ID,
		Namespace:      CanvasNamespace(),
		Title:          e.Title,
		Description:    e.Body,
		ScoringPolicy:  "keep_highest",
		QuizType:       "assignment",
		PointsPossible: points,
		AllowedAttempt: 1,
		Available:      e.Published,
		Assignment: quizAssignment{
			Identifier:      e.Aux(entity.AuxAssignment),
			Title:           e.Title,
			GroupRef:        group,
			WorkflowState:   entity.WorkflowState(e.Published),
			QuizRef:         e.ID,
			PointsPossible:  points,
			GradingType:     "points",
			SubmissionTypes: "online_quiz",
		},
		GroupRef: group,
	})
	if err != nil {
		return nil, fmt.Errorf("render quiz %s: %w", e.ID, err)
	}

	qti, err := MarshalDocument(qtiDoc{
		Namespace: Namespace{Xmlns: QTINS, XSI: XSINS, SchemaLocation: QTISchema},
		Assessment: qtiAssessment{
			Ident: e.ID,
			Title: e.Title,
			Metadata: []qtiMetaField{
				{Label: "cc_maxattempts", Entry: "1"},
				{Label: "points_possible", Entry: points},
			},
			Section: qtiSection{Ident: "root_section"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render quiz %s: %w", e.ID, err)
	}

	return sortedDocuments(
		Document{Path: qtiPath, Data: qti},
		Document{Path: metaPath, Data: meta},
		Document{Path: nonCCPath, Data: qti},
	), nil
}

func (quizAdapter) Resources(_ *Context, e entity.Entity) []Resource {
	qtiPath, metaPath, nonCCPath := quizPaths(e)
	metaID := e.Aux(entity.AuxMeta)
	return []Resource{
		{ID: e.ID, Type: TypeAssessment, Href: qtiPath, Files: []string{qtiPath}, Dependencies: []string{metaID}},
		{ID: metaID, Type: TypeLearningApp, Href: metaPath, Files: []string{metaPath, nonCCPath}},
	}
}

func (quizAdapter) Claims(r Resource) bool {
	return r.Type == TypeAssessment
}

func (quizAdapter) Parse(r Resource, deps map[string]Resource, fsys fs.FS) (entity.Entity, error) {
	if len(r.Dependencies) == 0 {
		return entity.Entity{}, fmt.Errorf("quiz %s: no meta dependency", r.ID)
	}
	metaRes, ok := deps[r.Dependencies[0]]
	if !ok {
		return entity.Entity{}, fmt.Errorf("quiz %s: meta resource %s not in manifest", r.ID, r.Dependencies[0])
	}

	data, err := readFile(fsys, metaRes.Href)
	if err != nil {
		return entity.Entity{}, err
	}
	var doc quizMetaDoc
	if err := UnmarshalDocument(data, &doc); err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", metaRes.Href, err)
	}
	points, err := ParsePoints(doc.PointsPossible)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", metaRes.Href, err)
	}

	published := doc.Available
	if doc.Assignment.WorkflowState != "" {
		published = entity.ParseWorkflowState(doc.Assignment.WorkflowState)
	}

	return entity.Entity{
		ID:        r.ID,
		Kind:      entity.KindQuiz,
		Title:     doc.Title,
		Body:      doc.Description,
		Published: published,
		Points:    points,
		AuxIDs: map[string]string{
			entity.AuxMeta:       metaRes.ID,
			entity.AuxAssignment: doc.Assignment.Identifier,
		},
	}, nil
}
