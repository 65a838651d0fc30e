package schema

import (
	"fmt"

	"github.com/gqlcore/engine/ast"
)

type ListType struct {
	Type Type
}

func NewListType(t Type) *ListType {
	return &ListType{
		Type: t,
	}
}

func (t *ListType) String() string {
	return "[" + t.Type.String() + "]"
}

func (t *ListType) IsInputType() bool {
	return t.Type.IsInputType()
}

func (t *ListType) IsOutputType() bool {
	return t.Type.IsOutputType()
}

func (t *ListType) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other) || t.Type.IsSubTypeOf(other)
}

func (t *ListType) IsSameType(other Type) bool {
	if nn, ok := other.(*ListType); ok {
		return t.Type.IsSameType(nn.Type)
	}
	return false
}

func (t *ListType) Unwrap() Type {
	return t.Type
}

func (t *ListType) shallowValidate() error {
	return nil
}

// coerceLiteral implements list coercion: a list-valued literal coerces element-wise (with item-
// to-list coercion disallowed for its elements, since they're already known to be list members);
// any other literal coerces against the element type and, if allowItemToListCoercion, is wrapped
// in a single-item list.
func (t *ListType) coerceLiteral(from ast.Value, variableValues map[string]interface{}, allowItemToListCoercion bool) (interface{}, error) {
	if list, ok := from.(*ast.ListValue); ok {
		result := make([]interface{}, len(list.Values))
		for i, v := range list.Values {
			coerced, err := coerceLiteral(v, t.Type, variableValues, false)
			if err != nil {
				return nil, err
			}
			result[i] = coerced
		}
		return result, nil
	}
	if !allowItemToListCoercion {
		return nil, fmt.Errorf("expected list")
	}
	coerced, err := coerceLiteral(from, t.Type, variableValues, true)
	if err != nil {
		return nil, err
	}
	return []interface{}{coerced}, nil
}

// coerceVariableValue mirrors coerceLiteral for raw JSON-decoded variable values.
func (t *ListType) coerceVariableValue(value interface{}, allowItemToListCoercion bool) (interface{}, error) {
	if list, ok := value.([]interface{}); ok {
		result := make([]interface{}, len(list))
		for i, v := range list {
			coerced, err := coerceVariableValue(v, t.Type, false)
			if err != nil {
				return nil, err
			}
			result[i] = coerced
		}
		return result, nil
	}
	if !allowItemToListCoercion {
		return nil, fmt.Errorf("expected list")
	}
	coerced, err := coerceVariableValue(value, t.Type, true)
	if err != nil {
		return nil, err
	}
	return []interface{}{coerced}, nil
}

func IsListType(t Type) bool {
	_, ok := t.(*ListType)
	return ok
}
