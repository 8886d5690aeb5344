// Package ordering maintains contiguous 1..N positions inside one scope.
//
// A scope is the child list of a module, or the course-level list of
// modules. Every function is pure: it receives the current slots of the
// scope and returns the complete renumbered list, which the caller writes
// back in one batch. Positions outside the valid range are clamped, never
// rejected.
//
// Tie-break: inserting at an occupied position places the new slot there
// and pushes the previous occupant (and everything after it) down by one.
package ordering

import (
	"fmt"
	"sort"
)

// Slot is one entity's rank inside a scope.
type Slot struct {
	ID       string
	Position int
}

// Result is the outcome of an insert or move.
type Result struct {
	// Slots is the full scope after the operation, in position order,
	// numbered 1..N.
	Slots []Slot

	// Position is where the subject landed.
	Position int

	// Clamped is true when the requested position was out of range.
	Clamped bool
}

// Clamp bounds pos into [1, max].
func Clamp(pos, max int) (int, bool) {
	if max < 1 {
		max = 1
	}
	switch {
	case pos < 1:
		return 1, true
	case pos > max:
		return max, true
	default:
		return pos, false
	}
}

// Sorted returns a copy of slots in position order. Slots sharing a
// position keep their input order.
func Sorted(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// InsertAt places id into the scope. A nil requested position appends at
// N+1; otherwise the position is clamped into [1, N+1] and siblings at or
// after it shift up by one.
func InsertAt(slots []Slot, id string, requested *int) Result {
	ordered := Sorted(slots)
	n := len(ordered)

	pos, clamped := n+1, false
	if requested != nil {
		pos, clamped = Clamp(*requested, n+1)
	}

	ids := make([]string, 0, n+1)
	for _, s := range ordered {
		ids = append(ids, s.ID)
	}
	ids = insertString(ids, pos-1, id)

	return Result{Slots: number(ids), Position: pos, Clamped: clamped}
}

// Remove drops id from the scope and closes the gap. ok is false when id
// was not in the scope; slots are then returned renumbered but otherwise
// unchanged.
func Remove(slots []Slot, id string) ([]Slot, bool) {
	ordered := Sorted(slots)
	ids := make([]string, 0, len(ordered))
	found := false
	for _, s := range ordered {
		if s.ID == id {
			found = true
			continue
		}
		ids = append(ids, s.ID)
	}
	return number(ids), found
}

// MoveTo moves id to newPos, clamped into [1, N]. Siblings between the old
// and new position shift by one in the opposite direction.
func MoveTo(slots []Slot, id string, newPos int) (Result, error) {
	rest, found := Remove(slots, id)
	if !found {
		return Result{}, fmt.Errorf("move %s: not in scope", id)
	}
	return InsertAt(rest, id, &newPos), nil
}

// Changed returns the slots of after whose position differs from before,
// plus slots new to the scope. Order follows after.
func Changed(before, after []Slot) []Slot {
	prev := make(map[string]int, len(before))
	for _, s := range before {
		prev[s.ID] = s.Position
	}
	var out []Slot
	for _, s := range after {
		if p, ok := prev[s.ID]; !ok || p != s.Position {
			out = append(out, s)
		}
	}
	return out
}

// Normalize renumbers slots 1..N preserving their relative order. Used when
// loading a package whose positions have gaps.
func Normalize(slots []Slot) []Slot {
	ordered := Sorted(slots)
	ids := make([]string, len(ordered))
	for i, s := range ordered {
		ids[i] = s.ID
	}
	return number(ids)
}

// Validate reports every way slots deviate from exactly {1..N}: duplicate
// ids, duplicate positions, and positions out of range. An empty result
// means the scope is contiguous.
func Validate(slots []Slot) []string {
	var problems []string
	n := len(slots)
	seenID := make(map[string]bool, n)
	byPos := make(map[int][]string, n)
	for _, s := range slots {
		if seenID[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate id %s", s.ID))
		}
		seenID[s.ID] = true
		if s.Position < 1 || s.Position > n {
			problems = append(problems, fmt.Sprintf("%s at position %d outside 1..%d", s.ID, s.Position, n))
		}
		byPos[s.Position] = append(byPos[s.Position], s.ID)
	}

	positions := make([]int, 0, len(byPos))
	for p := range byPos {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	for _, p := range positions {
		if len(byPos[p]) > 1 {
			problems = append(problems, fmt.Sprintf("position %d shared by %v", p, byPos[p]))
		}
	}
	for p := 1; p <= n; p++ {
		if _, ok := byPos[p]; !ok {
			problems = append(problems, fmt.Sprintf("gap at position %d", p))
		}
	}
	return problems
}

func number(ids []string) []Slot {
	out := make([]Slot, len(ids))
	for i, id := range ids {
		out[i] = Slot{ID: id, Position: i + 1}
	}
	return out
}

func insertString(s []string, i int, v string) []string {
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
