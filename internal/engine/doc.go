// Package engine implements the cartridge editing operations.
//
// Every operation works on the entity store only. It resolves its subject,
// validates the change through the kind's adapter, updates the table and
// renumbers the affected ordering scopes. Derived documents are rebuilt
// afterwards by internal/refsync; the engine never touches them.
//
// CRITICAL PATTERNS:
//
// All-or-nothing:
// Callers run one command inside Engine.Atomic. Any error rolls back every
// write the command made, so a failed command leaves the store as loaded.
//
// Contiguous scopes:
// Positions change only through internal/ordering. Each insert, remove or
// move computes the whole renumbered scope and writes it back in one batch,
// so every module's children stay numbered 1..N.
//
// Exact selection:
// A title selects exactly one entity of the kind or the operation fails
// with NOT_FOUND or AMBIGUOUS_SELECTION. Nothing picks "the first match".
//
// Stable identifiers:
// New ids come from the allocator, which knows every id on disk and every
// id ever deleted. Deleting an entity retires all of its ids.
package engine
