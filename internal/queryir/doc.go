// Package queryir is the typed selection language of the entity store.
//
// Commands never build SQL. They describe which entities they want with a
// small closed set of predicates, and internal/querysql turns that into a
// parameterized statement with a stable ORDER BY.
//
//	[CLI selector] → [queryir.Select] → [querysql] → SQLite
//
// # Sealed interfaces
//
// Predicate and Value are sealed using the marker method pattern. Only
// types in this package implement them, so backends can switch over them
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case In:
//	case And:
//	}
//
// # Fields
//
// Predicates reference columns through the Field enum rather than raw
// strings. Validate rejects unknown fields and values whose type does not
// match the column, before anything reaches the database.
//
// # Ordering
//
// Every Select carries an Order. The zero value is BySeq, the insertion
// order with the id as tiebreaker. ByPosition is used for module children.
// There is no unordered query.
package queryir
