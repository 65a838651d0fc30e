package schema

import (
	"context"
	"fmt"
	"strings"
)

type InterfaceType struct {
	Name        string
	Description string
	Directives  []*Directive
	Fields      map[string]*FieldDefinition

	// If given, IsTypeVisible reports this function's result. The introspection resolvers do not
	// consult it, so the type is listed by introspection either way.
	IsVisible func(context.Context) bool

	// ResolveType, if given, determines the concrete object type of a resolved value without
	// consulting each implementation's IsTypeOf. It takes precedence over IsTypeOf and over any
	// request-level TypeResolver fallback.
	ResolveType func(ctx context.Context, value interface{}) (*ObjectType, error)
}

// GetField returns the interface's field definition with the given name, or nil if it has none, or
// if it has unmet RequiredFeatures.
func (t *InterfaceType) GetField(name string, features FeatureSet) *FieldDefinition {
	field := t.Fields[name]
	if field != nil && !field.RequiredFeatures.IsSubsetOf(features) {
		return nil
	}
	return field
}

func (t *InterfaceType) String() string {
	return t.Name
}

func (t *InterfaceType) IsInputType() bool {
	return false
}

func (t *InterfaceType) IsOutputType() bool {
	return true
}

func (t *InterfaceType) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}

func (t *InterfaceType) IsSameType(other Type) bool {
	return t == other
}

func (t *InterfaceType) NamedType() string {
	return t.Name
}

func (t *InterfaceType) IsTypeVisible(ctx context.Context) bool {
	if t.IsVisible == nil {
		return true
	}
	return t.IsVisible(ctx)
}

func (t *InterfaceType) shallowValidate() error {
	if len(t.Fields) == 0 {
		return fmt.Errorf("%v must have at least one field", t.Name)
	} else {
		for name := range t.Fields {
			if !isName(name) || strings.HasPrefix(name, "__") {
				return fmt.Errorf("illegal field name: %v", name)
			}
		}
	}
	return nil
}
