package dmp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a metadata mutation aimed at a record that does
// not exist for that tenant. Plain reads return empty results instead.
var ErrNotFound = errors.New("dmp: file record not found")

// ValidationError rejects a candidate file record. It names the field
// that violated a rule and, where a governed set exists, the values
// that would have been accepted.
type ValidationError struct {
	Field   string
	Reason  string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid %s: %s (valid values: %s)", e.Field, e.Reason, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FieldTypeError reports a value that could not be converted to the
// integer type a field requires. Distinct from ValidationError so
// callers can tell malformed input from semantically incomplete input.
type FieldTypeError struct {
	Field string
	Value any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %s: value %v is not an integer", e.Field, e.Value)
}
