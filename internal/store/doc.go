// Package store holds the canonical entity table of one cartridge.
//
// The table lives in an in-memory SQLite database for the duration of one
// command: the package on disk is scanned into it, the command mutates it
// inside a single transaction, and the derived documents are regenerated
// from it. A failed command rolls the transaction back, so nothing reaches
// the writer.
//
// # Critical Patterns
//
// Deterministic results:
//   - Every SELECT is compiled by internal/querysql and ends in
//     ORDER BY ..., id COLLATE BINARY ASC
//   - seq is a logical insertion counter, never a timestamp
//
// Checked mutations:
//   - Insert fails with CodeDuplicateID, Remove and UpdateFields with
//     CodeNotFound; nothing is silently ignored
//   - UpdateFields compares before writing and issues no UPDATE for a
//     patch that changes nothing
//
// # Database Configuration
//
//   - Single connection: the in-memory database lives as long as it
//   - foreign_keys=ON, busy_timeout=5000
//   - Schema embedded from schema.sql, versioned through user_version
package store
