package executor

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/validator"
)

// Location represents the location of a character within a query's source text.
type Location struct {
	Line   int
	Column int
}

// Error represents an execution error.
type Error struct {
	// Executor error messages are formatted as sentences, e.g. "An error occurred."
	Message string

	// Nearly all errors have locations, which point to one or more relevant query tokens.
	Locations []Location

	// If the error occurred during the resolution of a particular field, a path will be present.
	Path []interface{}

	// Extensions is an opaque, engine-never-written bag for collaborators (e.g. a resolver) to
	// attach structured error metadata that survives into the response's errors[].extensions.
	Extensions map[string]interface{}

	originalError error
}

func (err *Error) Error() string {
	return err.Message
}

// Unwrap returns the original error, if the error came from a resolver or another collaborator's
// error value. It carries a stack trace; use errors.Cause to reach the bare underlying error.
func (err *Error) Unwrap() error {
	return err.originalError
}

func newError(node ast.Node, message string, args ...interface{}) *Error {
	return newErrorWithPath(node, nil, message, args...)
}

func newErrorWithPath(node ast.Node, path *path, message string, args ...interface{}) *Error {
	ret := &Error{
		Message: fmt.Sprintf(message, args...),
	}
	if node != nil {
		ret.Locations = []Location{{
			Line:   node.Position().Line,
			Column: node.Position().Column,
		}}
	}
	if path != nil {
		ret.Path = path.Slice()
	}
	return ret
}

func newErrorWithValidatorError(err *validator.Error) *Error {
	if err == nil {
		return nil
	}
	ret := &Error{
		Message: err.Message,
	}
	for _, loc := range err.Locations {
		ret.Locations = append(ret.Locations, Location{
			Line:   loc.Line,
			Column: loc.Column,
		})
	}
	return ret
}

// wrapResolverError is the single choke point for turning a raw rejection value (whatever a
// resolver, an async iterator, or a future produced) into a located Error. Every path that needs
// to surface a collaborator's failure as a field error goes through this function so the wrapping
// policy stays uniform: if the cause is already one of our errors, its message passes through
// unchanged; otherwise, if it implements error, its Error() string is used verbatim; anything else
// is stringified behind a canonical prefix.
func wrapResolverError(fields []*ast.Field, cause interface{}, path *path) *Error {
	var message string
	var original error

	switch cause := cause.(type) {
	case *Error:
		return cause
	case error:
		message = cause.Error()
		original = errors.WithStack(cause)
	default:
		message = fmt.Sprintf("Unexpected error value: %v", cause)
	}

	locations := make([]Location, len(fields))
	for i, field := range fields {
		locations[i].Line = field.Position().Line
		locations[i].Column = field.Position().Column
	}
	return &Error{
		Message:       message,
		Locations:     locations,
		Path:          path.Slice(),
		originalError: original,
	}
}
