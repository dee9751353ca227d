package queryform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSubmitBlocked matches any submission refused because fields fail
// validation.
var ErrSubmitBlocked = errors.New("queryform: submit blocked")

var (
	// ErrReadOnly is returned when a caller tries to edit a derived field.
	ErrReadOnly = errors.New("queryform: field is read-only")
	// ErrUnknownField is returned by Form.Set for names outside the schema.
	ErrUnknownField = errors.New("queryform: unknown field")
)

// FieldValidationError reports a single field whose value violates the schema.
// It is non-fatal and only affects its own field.
type FieldValidationError struct {
	Field   string
	Message string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("queryform: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects field errors in field order.
type ValidationErrors []*FieldValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "queryform: no validation errors"
	}
	parts := make([]string, 0, len(v))
	for _, err := range v {
		parts = append(parts, err.Field+": "+err.Message)
	}
	return "queryform: invalid fields: " + strings.Join(parts, "; ")
}

// For returns the errors attributed to field.
func (v ValidationErrors) For(field string) []*FieldValidationError {
	var out []*FieldValidationError
	for _, err := range v {
		if err.Field == field {
			out = append(out, err)
		}
	}
	return out
}

// Messages returns the messages attributed to field. An empty name selects
// the errors that belong to the whole record.
func (v ValidationErrors) Messages(field string) []string {
	var out []string
	for _, err := range v.For(field) {
		out = append(out, err.Message)
	}
	return out
}

// Fields lists the distinct failing field names, sorted.
func (v ValidationErrors) Fields() []string {
	seen := make(map[string]struct{}, len(v))
	var out []string
	for _, err := range v {
		if _, ok := seen[err.Field]; ok {
			continue
		}
		seen[err.Field] = struct{}{}
		out = append(out, err.Field)
	}
	sort.Strings(out)
	return out
}

// ByField groups messages per field, the shape renderers display inline.
func (v ValidationErrors) ByField() map[string][]string {
	if len(v) == 0 {
		return nil
	}
	out := make(map[string][]string, len(v))
	for _, err := range v {
		out[err.Field] = append(out[err.Field], err.Message)
	}
	return out
}

// SubmitBlockedError is returned by Submit while any field fails validation.
type SubmitBlockedError struct {
	Errors ValidationErrors
}

func (e *SubmitBlockedError) Error() string {
	return fmt.Sprintf("%s: %d invalid field(s): %s", ErrSubmitBlocked, len(e.Errors.Fields()), strings.Join(e.Errors.Fields(), ", "))
}

// Is lets errors.Is match ErrSubmitBlocked.
func (e *SubmitBlockedError) Is(target error) bool {
	return target == ErrSubmitBlocked
}

// Unwrap exposes the underlying field errors.
func (e *SubmitBlockedError) Unwrap() error {
	return e.Errors
}
