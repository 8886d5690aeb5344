// Package entity defines the single table of the cartridge engine.
//
// Everything in a course package is an Entity: modules and the content
// items they own (wiki pages, assignments, quizzes, discussions, files).
// Ownership is expressed only through ParentID; a content item with an
// empty ParentID is standalone.
//
// # Invariants
//
// I1: IDs are unique across the table and never reused, even after deletion.
//
// I2: For a fixed ParentID the positions are exactly {1..N}. Modules share
// the same rule at course level (empty ParentID scope).
//
// I3: Every entity referenced by the manifest or a module document exists
// in the table, and every entity is referenced.
//
// I4: Selection by title resolves to exactly one entity or fails with
// CodeAmbiguousSelection / CodeNotFound.
//
// The package has no dependencies on storage or rendering; those live in
// internal/store, internal/refsync and internal/adapter.
package entity
