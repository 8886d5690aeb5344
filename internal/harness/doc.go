// Package harness runs cartridge scenarios as executable contract tests.
//
// A scenario creates an empty package, drives a sequence of operations
// against it and asserts on the trace of results and on the final package.
// Every step goes through the same load, mutate, rebuild and write cycle
// as one CLI invocation, so each step also exercises the round trip
// through the files on disk.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: week1_week2
//	description: "What this scenario validates"
//	course: { title: "Biology 101", code: BIO101 }
//	setup:
//	  - op: add
//	    kind: module
//	    args: { title: "Week 1" }
//	flow:
//	  - op: add
//	    kind: quiz
//	    args: { title: Q1, points: 10, module: "Week 1" }
//	    expect:
//	      case: ok
//	      result: { position: 1 }
//	assertions:
//	  - type: module_order
//	    module: "Week 1"
//	    titles: [Q1]
//	    positions: [1]
//
// Operations are add, update, rename, delete, copy, move and apply. The
// args key "module" names the parent module for add and the target module
// for copy and move. An apply step reads a CUE course plan whose path is
// relative to the scenario file.
//
// # Expectations
//
// A flow step without expect must succeed. expect.case is "ok" or an
// engine error code such as NOT_FOUND or AMBIGUOUS_SELECTION. Setup steps
// must always succeed.
//
// # Assertion Types
//
//   - trace_contains: a step with op, kind and case appears in the trace
//   - trace_order: ops appear in the given order
//   - trace_count: op appears exactly count times
//   - modules: module titles in position order
//   - module_order: item titles (and optionally positions) of one module
//   - standalone: standalone item titles in insertion order
//   - entity_count: number of entities, optionally of one kind
//   - final_state: field values of the entity selected by kind and title
//   - document_contains: a package file contains (or lacks) a string
//   - consistent: no drift on disk and no broken invariants
//
// # Deterministic Testing
//
// Identifiers come from a sequence generator ("g1", "g2", ...), the
// creation date is pinned to testutil.Epoch and trace steps are numbered
// by a testutil.DeterministicClock, so the same scenario always produces
// the same trace and outline for golden comparison.
package harness
