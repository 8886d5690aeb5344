package ids

import (
	"fmt"
	"sort"
	"sync"
)

// maxAttempts bounds how many collisions Next tolerates before giving up.
const maxAttempts = 64

// Allocator hands out identifiers that have never been used in a package.
type Allocator struct {
	mu      sync.Mutex
	gen     Generator
	known   map[string]bool
	retired map[string]bool
}

// NewAllocator creates an Allocator over gen.
func NewAllocator(gen Generator) *Allocator {
	return &Allocator{
		gen:     gen,
		known:   make(map[string]bool),
		retired: make(map[string]bool),
	}
}

// Seed marks ids as used. Call it with every id found on disk and every id
// in the retired-id ledger before allocating.
func (a *Allocator) Seed(ids ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			a.known[id] = true
		}
	}
}

// SeedRetired marks ids as used and retired.
func (a *Allocator) SeedRetired(ids ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			a.known[id] = true
			a.retired[id] = true
		}
	}
}

// Retire records that id belonged to a deleted entity.
func (a *Allocator) Retire(ids ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			a.known[id] = true
			a.retired[id] = true
		}
	}
}

// Next returns an id unused by the package.
func (a *Allocator) Next() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < maxAttempts; i++ {
		id := a.gen.Generate()
		if id == "" || a.known[id] {
			continue
		}
		a.known[id] = true
		return id, nil
	}
	return "", fmt.Errorf("allocate id: %d consecutive collisions", maxAttempts)
}

// Used reports whether id has been seen.
func (a *Allocator) Used(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.known[id]
}

// Known returns every id ever seen, sorted.
func (a *Allocator) Known() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.known)
}

// Retired returns the ids of deleted entities, sorted. This is what the
// ledger persists.
func (a *Allocator) Retired() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.retired)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
