package queryir

import "fmt"

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	Problems []string
}

// Err returns the problems as a single error, or nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %v", r.Problems)
}

// Validate checks that every predicate references a known column and
// compares it with a literal of the right type.
//
// Validate is a pure function with no side effects.
func Validate(q Select) ValidationResult {
	v := &validator{problems: []string{}}
	v.validatePredicate(q.Filter)
	if q.Order != BySeq && q.Order != ByPosition {
		v.add("unknown order %d", int(q.Order))
	}
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return
	}

	switch pred := p.(type) {
	case Equals:
		v.validateValue(pred.Field, pred.Value)
	case In:
		for _, val := range pred.Values {
			v.validateValue(pred.Field, val)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.add("unknown predicate type %T", p)
	}
}

func (v *validator) validateValue(f Field, val Value) {
	want, ok := fieldTypes[f]
	if !ok {
		v.add("unknown field %q", f)
		return
	}
	got := valueType(val)
	if got != want {
		v.add("field %q expects %s, got %s", f, want, got)
	}
}

func valueType(val Value) string {
	switch val.(type) {
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", val)
	}
}
