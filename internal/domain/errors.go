package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a referenced report does not exist.
var ErrNotFound = errors.New("report not found")

// Violation describes one failed field constraint. Path follows the JSON
// field name; an empty path refers to the request body as a whole.
type Violation struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// Field returns the top-level field name the violation refers to, or "" for
// body-level violations.
func (v Violation) Field() string {
	if len(v.Path) == 0 {
		return ""
	}
	return v.Path[0]
}

// ValidationError lists every constraint a client-supplied record violated.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if f := v.Field(); f != "" {
			parts = append(parts, f+": "+v.Message)
			continue
		}
		parts = append(parts, v.Message)
	}
	return "invalid report data: " + strings.Join(parts, "; ")
}

// Fields returns the distinct field names that failed, in reported order.
func (e *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(e.Violations))
	var fields []string
	for _, v := range e.Violations {
		f := v.Field()
		if seen[f] {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}
	return fields
}

// NewBodyError reports a request body that could not be read as a JSON object.
func NewBodyError(message string) *ValidationError {
	return &ValidationError{Violations: []Violation{{Path: []string{}, Message: message}}}
}

// StorageFault wraps a failure of the underlying persistence layer. Its
// message is for logs only and must not reach clients.
type StorageFault struct {
	Op  string
	Err error
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageFault) Unwrap() error { return e.Err }

// NewStorageFault wraps err as a StorageFault for the named operation.
func NewStorageFault(op string, err error) error {
	return &StorageFault{Op: op, Err: err}
}

// NewBodyTypeError reports a JSON body that decoded to something other than
// an object.
func NewBodyTypeError(raw any) *ValidationError {
	return NewBodyError(typeMismatch("object", raw))
}
