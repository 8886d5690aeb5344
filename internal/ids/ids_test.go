package ids

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^g[0-9a-f]{32}$`)

func TestUUIDGenerator_Format(t *testing.T) {
	gen := UUIDGenerator{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		assert.Regexp(t, idPattern, id)
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.PanicsWithValue(t, "FixedGenerator: all ids exhausted", func() { gen.Generate() })
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("id")
	for i := 0; i < 9; i++ {
		gen.Generate()
	}
	assert.Equal(t, "id10", gen.Generate())
}

func TestAllocator_SkipsSeededAndRetired(t *testing.T) {
	a := NewAllocator(NewFixedGenerator("g1", "g2", "g3", "g4"))
	a.Seed("g1")
	a.SeedRetired("g2")

	id, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, "g3", id)

	a.Retire("g3")
	id, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, "g4", id)

	assert.Equal(t, []string{"g1", "g2", "g3", "g4"}, a.Known())
	assert.Equal(t, []string{"g2", "g3"}, a.Retired())
	assert.True(t, a.Used("g4"))
	assert.False(t, a.Used("g5"))
}

func TestAllocator_NeverReusesAfterRetire(t *testing.T) {
	gen := NewFixedGenerator("x", "x", "y")
	a := NewAllocator(gen)

	first, err := a.Next()
	require.NoError(t, err)
	a.Retire(first)

	second, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, "y", second)
}

type constGenerator string

func (c constGenerator) Generate() string { return string(c) }

func TestAllocator_GivesUpOnPersistentCollision(t *testing.T) {
	a := NewAllocator(constGenerator("same"))
	_, err := a.Next()
	require.NoError(t, err)

	_, err = a.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consecutive collisions")
}

func TestAllocator_IgnoresEmptySeeds(t *testing.T) {
	a := NewAllocator(UUIDGenerator{})
	a.Seed("", "a")
	a.Retire("")
	assert.Equal(t, []string{"a"}, a.Known())
	assert.Empty(t, a.Retired())
}
