// Package querysql compiles queryir selections to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/cartridge/internal/queryir"
)

// Columns is the fixed column list of every compiled SELECT, in scan order.
const Columns = "id, kind, title, body, published, parent_id, position, points, href, item_id, aux_ids, seq"

// Table is the entities table name.
const Table = "entities"

// SQLCompiler compiles queryir.Select to parameterized SQL for SQLite.
//
// Every statement carries an ORDER BY ending in "id COLLATE BINARY ASC".
// Values are always bound as ? parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a selection to (sql, params).
func (c *SQLCompiler) Compile(q queryir.Select) (string, []any, error) {
	if res := queryir.Validate(q); !res.Valid {
		return "", nil, res.Err()
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		Columns,
		Table,
		whereClause,
		stableOrderKey(q.Order))

	return sql, params, nil
}

// CompileCount converts a selection to a COUNT(*) statement.
func (c *SQLCompiler) CompileCount(q queryir.Select) (string, []any, error) {
	if res := queryir.Validate(q); !res.Valid {
		return "", nil, res.Err()
	}
	if q.Filter == nil {
		return "SELECT COUNT(*) FROM " + Table, nil, nil
	}
	filterSQL, params, err := c.compilePredicate(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return "SELECT COUNT(*) FROM " + Table + " WHERE " + filterSQL, params, nil
}

// stableOrderKey returns the ORDER BY clause for an order.
// COLLATE BINARY keeps text ordering independent of SQLite build options.
func stableOrderKey(o queryir.Order) string {
	switch o {
	case queryir.ByPosition:
		return "position ASC, seq ASC, id COLLATE BINARY ASC"
	default:
		return "seq ASC, id COLLATE BINARY ASC"
	}
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case queryir.In:
		return c.compileIn(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := valueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return fmt.Sprintf("%s = ?", eq.Field), []any{param}, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}
	params := make([]any, 0, len(in.Values))
	for _, v := range in.Values {
		param, err := valueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		params = append(params, param)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", in.Field, placeholders), params, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	var parts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested && len(and.Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		allParams = append(allParams, params...)
	}
	return strings.Join(parts, " AND "), allParams, nil
}

// valueToParam converts a literal to a driver parameter. Booleans are
// stored as 0/1 integers.
func valueToParam(v queryir.Value) (any, error) {
	switch val := v.(type) {
	case queryir.String:
		return string(val), nil
	case queryir.Int:
		return int64(val), nil
	case queryir.Bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
