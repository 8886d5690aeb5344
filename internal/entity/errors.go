package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeNotFound indicates a selector or id matched zero entities.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAmbiguousSelection indicates a selector matched more than one
	// entity. The command aborts instead of picking one.
	CodeAmbiguousSelection ErrorCode = "AMBIGUOUS_SELECTION"

	// CodeInvalidTarget indicates a copy/move/add into something that is
	// not an existing module.
	CodeInvalidTarget ErrorCode = "INVALID_TARGET"

	// CodeDuplicateID indicates an insert with an id already in the table.
	CodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// CodeValidation indicates a field value the kind's adapter rejects.
	CodeValidation ErrorCode = "VALIDATION"
)

// Error is the structured error returned by the store and the engine.
type Error struct {
	Code    ErrorCode
	Message string

	// Kind and Selector describe what was being looked up, when relevant.
	Kind     Kind
	Selector string

	// ID is the entity id involved, when known.
	ID string

	// Matches lists the candidate ids of an ambiguous selection.
	Matches []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Matches) > 0 {
		fmt.Fprintf(&b, " (matches=%s)", strings.Join(e.Matches, ","))
	} else if e.ID != "" {
		fmt.Fprintf(&b, " (id=%s)", e.ID)
	}
	return b.String()
}

// NewNotFound creates a CodeNotFound error for a selector.
func NewNotFound(kind Kind, selector string) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("no %s matches %s", kindLabel(kind), selector),
		Kind:     kind,
		Selector: selector,
	}
}

// NewIDNotFound creates a CodeNotFound error for an id lookup.
func NewIDNotFound(id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: "entity not found",
		ID:      id,
	}
}

// NewAmbiguous creates a CodeAmbiguousSelection error.
func NewAmbiguous(kind Kind, selector string, matches []string) *Error {
	return &Error{
		Code:     CodeAmbiguousSelection,
		Message:  fmt.Sprintf("%d %s entities match %s", len(matches), kindLabel(kind), selector),
		Kind:     kind,
		Selector: selector,
		Matches:  matches,
	}
}

// NewInvalidTarget creates a CodeInvalidTarget error.
func NewInvalidTarget(id, reason string) *Error {
	return &Error{
		Code:    CodeInvalidTarget,
		Message: reason,
		ID:      id,
	}
}

// NewDuplicateID creates a CodeDuplicateID error.
func NewDuplicateID(id string) *Error {
	return &Error{
		Code:    CodeDuplicateID,
		Message: "id already present",
		ID:      id,
	}
}

// NewValidation creates a CodeValidation error.
func NewValidation(kind Kind, format string, args ...any) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
	}
}

// CodeOf extracts the code of a wrapped *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsNotFound returns true if err is (or wraps) a CodeNotFound error.
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeNotFound
}

// IsAmbiguous returns true if err is (or wraps) a CodeAmbiguousSelection error.
func IsAmbiguous(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeAmbiguousSelection
}

// IsInvalidTarget returns true if err is (or wraps) a CodeInvalidTarget error.
func IsInvalidTarget(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeInvalidTarget
}

// IsValidation returns true if err is (or wraps) a CodeValidation error.
func IsValidation(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeValidation
}

func kindLabel(k Kind) string {
	if k == "" {
		return "entity"
	}
	return string(k)
}
