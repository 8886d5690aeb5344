package entity

import (
	"fmt"
	"strings"
)

// Kind is the variant tag of an Entity.
type Kind string

const (
	KindModule     Kind = "Module"
	KindWikiPage   Kind = "WikiPage"
	KindAssignment Kind = "Assignment"
	KindQuiz       Kind = "Quiz"
	KindDiscussion Kind = "Discussion"
	KindFile       Kind = "FileResource"
)

// ContentKinds lists the kinds that can live inside a module, in the order
// the CLI registers their commands.
var ContentKinds = []Kind{KindWikiPage, KindAssignment, KindQuiz, KindDiscussion, KindFile}

// nouns maps CLI nouns (add-wiki, delete-file, ...) to kinds.
var nouns = map[string]Kind{
	"module":     KindModule,
	"wiki":       KindWikiPage,
	"assignment": KindAssignment,
	"quiz":       KindQuiz,
	"discussion": KindDiscussion,
	"file":       KindFile,
}

// IsContent reports whether k is a content item kind (anything but Module).
func (k Kind) IsContent() bool {
	switch k {
	case KindWikiPage, KindAssignment, KindQuiz, KindDiscussion, KindFile:
		return true
	}
	return false
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindModule || k.IsContent()
}

// Noun returns the short CLI name of the kind ("wiki", "file", ...).
func (k Kind) Noun() string {
	for noun, kind := range nouns {
		if kind == k {
			return noun
		}
	}
	return strings.ToLower(string(k))
}

// ParseKind accepts either the canonical kind name or its CLI noun.
func ParseKind(s string) (Kind, error) {
	if k, ok := nouns[strings.ToLower(s)]; ok {
		return k, nil
	}
	k := Kind(s)
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}
