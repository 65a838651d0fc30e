package validator

import (
	"fmt"
	"reflect"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/schema"
)

// Location represents the location of a character within a query's source text.
type Location struct {
	Line   int
	Column int
}

type Error struct {
	Message   string
	Locations []Location

	// If a validator is unable to perform its job due to an error unrelated to its purpose, it will
	// emit a secondary error. Secondary errors are always errors that should be caught by other
	// validators, so if there are any primary errors, secondary errors are discarded as they should
	// all be duplicates. If a secondary error makes it out of validation, there's probably a
	// mistake in one of the validators.
	isSecondary bool
}

func (err *Error) Error() string {
	return err.Message
}

func newError(node ast.Node, message string, args ...interface{}) *Error {
	return &Error{
		Message:   fmt.Sprintf(message, args...),
		Locations: locationsOf(node),
	}
}

func newSecondaryError(node ast.Node, message string, args ...interface{}) *Error {
	return &Error{
		Message:     fmt.Sprintf(message, args...),
		Locations:   locationsOf(node),
		isSecondary: true,
	}
}

func newErrorWithNodes(nodes []ast.Node, message string, args ...interface{}) *Error {
	var locations []Location
	for _, node := range nodes {
		locations = append(locations, locationsOf(node)...)
	}
	return &Error{
		Message:   fmt.Sprintf(message, args...),
		Locations: locations,
	}
}

func locationsOf(node ast.Node) []Location {
	if node == nil || isNilNode(node) {
		return nil
	}
	pos := node.Position()
	return []Location{{Line: pos.Line, Column: pos.Column}}
}

func isNilNode(node ast.Node) bool {
	v := reflect.ValueOf(node)
	return (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil()
}

// Rule is a single validation pass over a document. ValidateCost returns one for use outside the
// default ValidateDocument pipeline.
type Rule func(*ast.Document, *schema.Schema, *TypeInfo) []*Error

func ValidateDocument(doc *ast.Document, s *schema.Schema, features schema.FeatureSet) []*Error {
	typeInfo := NewTypeInfo(doc, s)
	var errs []*Error
	errs = append(errs, validateDocument(doc, s, typeInfo)...)
	errs = append(errs, validateOperations(doc, s, features, typeInfo)...)
	errs = append(errs, validateFields(doc, s, features, typeInfo)...)
	errs = append(errs, validateArguments(doc, s, typeInfo)...)
	errs = append(errs, validateFragments(doc, s, features, typeInfo)...)
	errs = append(errs, validateValues(doc, s, typeInfo)...)
	errs = append(errs, validateDirectives(doc, s, typeInfo)...)
	errs = append(errs, validateVariables(doc, s, features, typeInfo)...)
	var primary []*Error
	for _, err := range errs {
		if !err.isSecondary {
			primary = append(primary, err)
		}
	}
	if len(primary) > 0 {
		return primary
	}
	return errs
}
