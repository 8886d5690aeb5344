// Package ids allocates the stable identifiers of a cartridge.
//
// Identifiers look like Canvas export ids: a "g" followed by 32 lowercase
// hex digits. They are opaque to the rest of the engine. An id is never
// handed out twice for the same package, including ids of entities that
// were deleted in an earlier invocation; those are remembered in the
// retired-id ledger and seeded back into the Allocator on load.
package ids

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every generated identifier.
const Prefix = "g"

// Generator produces candidate identifiers.
type Generator interface {
	Generate() string
}

// UUIDGenerator derives identifiers from random (version 4) UUIDs.
//
// Format: "g" + 32 hex characters, e.g. "g550e8400e29b41d4a716446655440000".
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a fresh identifier.
//
// Panics if the system random source fails (should never happen in practice).
func (UUIDGenerator) Generate() string {
	return Prefix + strings.ReplaceAll(uuid.Must(uuid.NewRandom()).String(), "-", "")
}

// FixedGenerator returns predetermined identifiers for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("m1", "w1")
//	gen.Generate() // "m1"
//	gen.Generate() // "w1"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics once all ids have been consumed, to surface tests that allocate
// more than they planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SequenceGenerator returns "<prefix>1", "<prefix>2", ... forever. Used by
// scenario tests that need readable, deterministic ids.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a SequenceGenerator.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + strconv.Itoa(g.n)
}
