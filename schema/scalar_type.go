package schema

import (
	"fmt"

	"github.com/gqlcore/engine/ast"
)

type ScalarType struct {
	Name        string
	Description string
	Directives  []*Directive

	// LiteralCoercion parses a query-text literal into the scalar's internal representation. It
	// should return nil if coercion is impossible.
	LiteralCoercion func(ast.Value) interface{}

	// VariableValueCoercion coerces a raw JSON-decoded variable value into the scalar's internal
	// representation. It should return nil if coercion is impossible.
	VariableValueCoercion func(interface{}) interface{}

	// ResultCoercion coerces a resolver's returned value into the scalar's internal
	// representation, ready for response serialization. It should return nil if coercion is
	// impossible.
	ResultCoercion func(interface{}) interface{}
}

func (t *ScalarType) String() string {
	return t.Name
}

func (t *ScalarType) IsInputType() bool {
	return true
}

func (t *ScalarType) IsOutputType() bool {
	return true
}

func (t *ScalarType) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}

func (t *ScalarType) IsSameType(other Type) bool {
	return t == other
}

func (t *ScalarType) NamedType() string {
	return t.Name
}

// CoerceVariableValue coerces a raw variable value via VariableValueCoercion, turning a nil result
// into a descriptive error.
func (t *ScalarType) CoerceVariableValue(v interface{}) (interface{}, error) {
	if coerced := t.VariableValueCoercion(v); coerced != nil {
		return coerced, nil
	}
	return nil, fmt.Errorf("expected type %v", t.Name)
}

// CoerceResult coerces a resolver's returned value via ResultCoercion, turning a nil result into a
// descriptive error.
func (t *ScalarType) CoerceResult(v interface{}) (interface{}, error) {
	if coerced := t.ResultCoercion(v); coerced != nil {
		return coerced, nil
	}
	return nil, fmt.Errorf("expected type %v", t.Name)
}

func IsScalarType(t Type) bool {
	_, ok := t.(*ScalarType)
	return ok
}
