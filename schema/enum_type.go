package schema

import (
	"fmt"

	"github.com/gqlcore/engine/ast"
)

type EnumType struct {
	Name        string
	Description string
	Directives  []*Directive
	Values      map[string]*EnumValueDefinition
}

type EnumValueDefinition struct {
	Description string
	Directives  []*Directive

	// Value is the internal representation this enum value coerces to/from, compared by ==
	// against resolver results when serializing and returned as-is when parsing input.
	Value interface{}
}

func (t *EnumType) String() string {
	return t.Name
}

func (t *EnumType) IsInputType() bool {
	return true
}

func (t *EnumType) IsOutputType() bool {
	return true
}

func (t *EnumType) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}

func (t *EnumType) IsSameType(other Type) bool {
	return t == other
}

func (t *EnumType) NamedType() string {
	return t.Name
}

func (d *EnumType) shallowValidate() error {
	if len(d.Values) == 0 {
		return fmt.Errorf("%v must have at least one field", d.Name)
	} else {
		for name := range d.Values {
			if !isName(name) || name == "true" || name == "false" || name == "null" {
				return fmt.Errorf("illegal field name: %v", name)
			}
		}
	}
	return nil
}

// CoerceVariableValue resolves a raw JSON-decoded variable value (expected to be the enum value's
// name) to its internal representation.
func (t *EnumType) CoerceVariableValue(v interface{}) (interface{}, error) {
	name, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected enum value name, got %T", v)
	}
	def, ok := t.Values[name]
	if !ok {
		return nil, fmt.Errorf("expected enum value for %v, got %q", t.Name, name)
	}
	return def.Value, nil
}

// CoerceLiteral resolves a query-text enum literal to its internal representation.
func (t *EnumType) CoerceLiteral(v ast.Value) (interface{}, error) {
	enumValue, ok := v.(*ast.EnumValue)
	if !ok {
		return nil, fmt.Errorf("expected enum value for %v", t.Name)
	}
	def, ok := t.Values[enumValue.Value]
	if !ok {
		return nil, fmt.Errorf("expected enum value for %v, got %q", t.Name, enumValue.Value)
	}
	return def.Value, nil
}

// CoerceResult resolves a resolver's returned value to the enum value's name by comparing it
// against each declared value's internal representation.
func (t *EnumType) CoerceResult(v interface{}) (string, error) {
	for name, def := range t.Values {
		if def.Value == v {
			return name, nil
		}
	}
	return "", fmt.Errorf("expected enum value for %v, got %v", t.Name, v)
}

func IsEnumType(t Type) bool {
	_, ok := t.(*EnumType)
	return ok
}
