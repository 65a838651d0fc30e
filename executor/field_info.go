package executor

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/schema"
)

// FieldInfo is a read-only view passed to field resolvers and to a request's TypeResolver
// override. It is built lazily for each field invocation, must not escape the execution it was
// built for, and is never mutated once constructed.
type FieldInfo struct {
	// Context carries the execution's abort handle. Resolvers that perform their own blocking
	// work should select on Context.Done() alongside it.
	Context context.Context

	Schema              *schema.Schema
	Operation           *ast.OperationDefinition
	FragmentDefinitions map[string]*ast.FragmentDefinition
	VariableValues      map[string]interface{}

	// Name is the field's name as declared in the schema; ResponseKey is the alias if the
	// selection had one, otherwise it's equal to Name.
	Name        string
	ResponseKey string

	// Fields lists every selection node contributing to this response key, merged across
	// fragments, for resolvers that want to inspect sub-selections.
	Fields []*ast.Field

	FieldType  schema.Type
	ParentType *schema.ObjectType
	Arguments  map[string]interface{}

	RootValue    interface{}
	ContextValue interface{}

	IsSubscribe bool

	// Logger is the request's logger, scoped with fields identifying the current operation and
	// response path, for resolvers that want to emit diagnostics consistent with the rest of the
	// engine's logging.
	Logger logrus.FieldLogger

	path *path
}

// ResponsePath materializes the field's location in the response as a sequence of string and int
// segments, outermost first.
func (fi FieldInfo) ResponsePath() []interface{} {
	return fi.path.Slice()
}

// FieldResolverFunc is a request-wide fallback invoked for fields whose definition doesn't supply
// its own Resolve function. It receives the already-built FieldInfo and the field's parent value.
type FieldResolverFunc func(info FieldInfo, objectValue interface{}) (interface{}, error)

// TypeResolverFunc is a request-wide fallback for abstract-type resolution, invoked when the
// interface or union has no ResolveType of its own and no member's IsTypeOf claims the value.
type TypeResolverFunc func(ctx context.Context, value interface{}, info FieldInfo) (*schema.ObjectType, error)
