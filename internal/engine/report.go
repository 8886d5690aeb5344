package engine

import (
	"sort"

	"github.com/roach88/cartridge/internal/entity"
)

// Op names an engine operation in reports.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpCopy   Op = "copy"
	OpMove   Op = "move"
	OpRename Op = "rename"
)

// Report describes what one operation did.
type Report struct {
	Op    Op          `json:"op"`
	Kind  entity.Kind `json:"kind"`
	ID    string      `json:"id"`
	Title string      `json:"title"`

	// Module is the parent module after the operation, empty when
	// standalone or for modules.
	Module string `json:"module,omitempty"`

	Position int  `json:"position,omitempty"`
	Clamped  bool `json:"clamped,omitempty"`

	// Changes lists fields whose value changed, for updates.
	Changes []entity.Change `json:"changes,omitempty"`

	// Removed lists every entity id deleted, children first.
	Removed []string `json:"removed,omitempty"`

	// Affected lists the modules whose ordering document changed, sorted.
	Affected []string `json:"affected,omitempty"`
}

// Changed reports whether the operation had any effect.
func (r Report) Changed() bool {
	return r.Op != OpUpdate && r.Op != OpRename || len(r.Changes) > 0
}

func (r *Report) affect(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		i := sort.SearchStrings(r.Affected, id)
		if i < len(r.Affected) && r.Affected[i] == id {
			continue
		}
		r.Affected = append(r.Affected, "")
		copy(r.Affected[i+1:], r.Affected[i:])
		r.Affected[i] = id
	}
}
