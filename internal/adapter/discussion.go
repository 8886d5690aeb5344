package adapter

import (
	"encoding/xml"
	"fmt"
	"io/fs"

	"github.com/roach88/cartridge/internal/entity"
)

// DiscussionDir holds discussion topic documents.
const DiscussionDir = "discussions"

// discussionAdapter covers discussion topics: the IMS topic document (the
// entity id) plus the Canvas topicMeta document (AuxMeta).
type discussionAdapter struct{}

type topicDoc struct {
	XMLName xml.Name `xml:"topic"`
	Namespace
	Title string    `xml:"title"`
	Text  topicText `xml:"text"`
}

type topicText struct {
	TextType string `xml:"texttype,attr"`
	Value    string `xml:",chardata"`
}

type topicMetaDoc struct {
	XMLName    xml.Name `xml:"topicMeta"`
	Identifier string   `xml:"identifier,attr"`
	Namespace
	TopicID        string `xml:"topic_id"`
	Title          string `xml:"title"`
	Type           string `xml:"type"`
	DiscussionType string `xml:"discussion_type"`
	WorkflowState  string `xml:"workflow_state"`
	ModuleLocked   bool   `xml:"module_locked"`
	AllowRating    bool   `xml:"allow_rating"`
	SortOrder      string `xml:"sort_order"`
	Locked         bool   `xml:"locked"`
}

func (discussionAdapter) Kind() entity.Kind   { return entity.KindDiscussion }
func (discussionAdapter) ContentType() string { return "DiscussionTopic" }
func (discussionAdapter) AuxKeys() []string   { return []string{entity.AuxMeta} }

func (discussionAdapter) Fields() []string {
	return []string{entity.FieldTitle, entity.FieldBody, entity.FieldPublished, entity.FieldPosition}
}

func (discussionAdapter) Required() []string { return []string{entity.FieldTitle} }

func (discussionAdapter) Defaults(d Defaults) entity.Entity {
	return entity.Entity{Kind: entity.KindDiscussion, Published: d.Published}
}

func (discussionAdapter) Validate(e entity.Entity) error {
	if err := validateTitle(e); err != nil {
		return err
	}
	if e.Aux(entity.AuxMeta) == "" {
		return entity.NewValidation(e.Kind, "discussion %s is missing its meta id", e.ID)
	}
	return nil
}

func discussionPaths(e entity.Entity) (topic, meta string) {
	return DiscussionDir + "/" + e.ID + ".xml", DiscussionDir + "/" + e.Aux(entity.AuxMeta) + ".xml"
}

func (discussionAdapter) Artifacts(_ *Context, e entity.Entity) []string {
	return sortedPaths(discussionPaths(e))
}

func (discussionAdapter) Render(_ *Context, e entity.Entity) ([]Document, error) {
	topicPath, metaPath := discussionPaths(e)

	topic, err := MarshalDocument(topicDoc{
		Namespace: Namespace{Xmlns: DiscussionNS, XSI: XSINS, SchemaLocation: DiscussionXSD},
		Title:     e.Title,
		Text:      topicText{TextType: "text/html", Value: e.Body},
	})
	if err != nil {
		return nil, fmt.Errorf("render discussion %s: %w", e.ID, err)
	}

	state := "unpublished"
	if e.Published {
		state = workflowActive
	}
	meta, err := MarshalDocument(topicMetaDoc{
		Identifier:     e.Aux(entity.AuxMeta),
		Namespace:      CanvasNamespace(),
		TopicID:        e.ID,
		Title:          e.Title,
		Type:           "topic",
		DiscussionType: "threaded",
		WorkflowState:  state,
		SortOrder:      "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("render discussion %s: %w", e.ID, err)
	}

	return sortedDocuments(
		Document{Path: topicPath, Data: topic},
		Document{Path: metaPath, Data: meta},
	), nil
}

func (discussionAdapter) Resources(_ *Context, e entity.Entity) []Resource {
	topicPath, metaPath := discussionPaths(e)
	metaID := e.Aux(entity.AuxMeta)
	return []Resource{
		{ID: e.ID, Type: TypeDiscussion, Href: topicPath, Files: []string{topicPath}, Dependencies: []string{metaID}},
		{ID: metaID, Type: TypeLearningApp, Href: metaPath, Files: []string{metaPath}},
	}
}

func (discussionAdapter) Claims(r Resource) bool {
	return r.Type == TypeDiscussion
}

func (discussionAdapter) Parse(r Resource, deps map[string]Resource, fsys fs.FS) (entity.Entity, error) {
	data, err := readFile(fsys, r.Href)
	if err != nil {
		return entity.Entity{}, err
	}
	var topic topicDoc
	if err := UnmarshalDocument(data, &topic); err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", r.Href, err)
	}

	e := entity.Entity{
		ID:        r.ID,
		Kind:      entity.KindDiscussion,
		Title:     topic.Title,
		Body:      topic.Text.Value,
		Published: true,
	}
	if len(r.Dependencies) == 0 {
		return entity.Entity{}, fmt.Errorf("discussion %s: no meta dependency", r.ID)
	}
	metaRes, ok := deps[r.Dependencies[0]]
	if !ok {
		return entity.Entity{}, fmt.Errorf("discussion %s: meta resource %s not in manifest", r.ID, r.Dependencies[0])
	}
	e.AuxIDs = map[string]string{entity.AuxMeta: metaRes.ID}

	data, err = readFile(fsys, metaRes.Href)
	if err != nil {
		return entity.Entity{}, err
	}
	var meta topicMetaDoc
	if err := UnmarshalDocument(data, &meta); err != nil {
		return entity.Entity{}, fmt.Errorf("parse %s: %w", metaRes.Href, err)
	}
	e.Published = entity.ParseWorkflowState(meta.WorkflowState)
	return e, nil
}
