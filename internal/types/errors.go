package types

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidationErrors maps a request field to its error messages. It is rendered
// as is in 400 responses: {"name": ["cannot be blank"]}.
type ValidationErrors map[string][]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], "; "))
	}
	return strings.Join(parts, ", ")
}

// Add appends msg to the errors of field.
func (e ValidationErrors) Add(field, msg string) ValidationErrors {
	e[field] = append(e[field], msg)
	return e
}

// FieldError builds a single field error.
func FieldError(field, msg string) ValidationErrors {
	return ValidationErrors{field: {msg}}
}

// AsValidationErrors converts ozzo-validation errors into ValidationErrors. Nested
// errors (for example of one ingredient in a list) are flattened into the message
// of the top-level field. It returns false for errors that are not validation errors.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}

	var oerrs validation.Errors
	if !errors.As(err, &oerrs) {
		return nil, false
	}

	out := ValidationErrors{}
	for field, fieldErr := range oerrs {
		if fieldErr == nil {
			continue
		}
		var internal validation.InternalError
		if errors.As(fieldErr, &internal) {
			return nil, false
		}
		out.Add(field, fieldErr.Error())
	}
	return out, true
}
