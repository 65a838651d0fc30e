package executor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/executor/internal/future"
	"github.com/gqlcore/engine/schema"
	"github.com/gqlcore/engine/schema/introspection"
	"github.com/gqlcore/engine/validator"
)

// ResolveResult represents the result of a field resolver. This type is generally used with
// ResolvePromise to pass around asynchronous results.
type ResolveResult struct {
	Value interface{}
	Error error
}

// ResolvePromise can be used to resolve fields asynchronously. You may return a ResolvePromise
// from a field's resolve function. If you do, you must define an IdleHandler for the request. Any
// time request execution is unable to proceed, the idle handler will be invoked. Before the idle
// handler returns, a result must be sent to at least one previously returned ResolvePromise.
type ResolvePromise chan ResolveResult

// Request defines all of the inputs required to execute a GraphQL operation.
type Request struct {
	Document       *ast.Document
	Schema         *schema.Schema
	OperationName  string
	VariableValues map[string]interface{}
	InitialValue   interface{}

	// ContextValue is opaque to the engine and threaded verbatim into every FieldInfo.
	ContextValue interface{}

	// FieldResolver, if given, is invoked for any field whose definition doesn't supply its own
	// Resolve function, in place of the default property/method resolver.
	FieldResolver FieldResolverFunc

	// TypeResolver, if given, is invoked for abstract-type resolution when the interface or union
	// in question has no ResolveType of its own and no member's IsTypeOf claims the value.
	TypeResolver TypeResolverFunc

	// Context doubles as the request's abort handle: cancelling it (or a context.WithCancelCause
	// derivative) aborts the execution. context.Cause(Context) supplies the abort reason surfaced
	// in the resulting error's message.
	Context context.Context

	// IdleHandler is invoked whenever execution cannot proceed without a pending ResolvePromise or
	// AsyncIterator settling. Required if any resolver or iterator in the request is asynchronous.
	IdleHandler func()

	Logger logrus.FieldLogger
}

// Result is the response of a request that never scheduled any @defer/@stream work.
type Result struct {
	Data       *OrderedMap
	Errors     []*Error
	Extensions map[string]interface{}
}

// PendingEntry names a record that's been scheduled but not yet delivered.
type PendingEntry struct {
	ID    string
	Path  []interface{}
	Label string
}

// IncrementalEntry contributes either a deferred fragment's Data or a stream's newly available
// Items to the record identified by ID.
type IncrementalEntry struct {
	ID     string
	Data   *OrderedMap
	Items  []interface{}
	Errors []*Error
}

// CompletedEntry marks the finalization of a record. A non-empty Errors means the record could
// not be completed (e.g. a non-nullable stream item resolved to null).
type CompletedEntry struct {
	ID     string
	Errors []*Error
}

// Payload is one message of an incremental response: either the initial payload (Data plus any
// Pending records) or a subsequent one (Incremental/Completed entries plus any newly-scheduled
// Pending records).
type Payload struct {
	Data        *OrderedMap
	Errors      []*Error
	Pending     []PendingEntry
	Incremental []IncrementalEntry
	Completed   []CompletedEntry
	HasNext     bool
}

// IncrementalResult is returned by ExecuteRequest instead of a *Result when the operation
// scheduled at least one @defer or @stream record.
type IncrementalResult struct {
	Initial Payload

	// Next blocks (driving the request's IdleHandler as needed) until another payload is ready,
	// returning ok=false once the payload with HasNext=false has already been returned.
	Next func() (payload Payload, ok bool)
}

// ExecuteRequest executes a request, returning exactly one of *Result (no incremental work
// occurred) or *IncrementalResult (@defer/@stream occurred). The returned []*Error carries
// structural failures that prevented execution outright (missing document/schema, operation
// selection failures); in that case both other return values are nil.
func ExecuteRequest(r *Request) (*Result, *IncrementalResult, []*Error) {
	if r.Document == nil {
		return nil, nil, []*Error{newError(nil, "Must provide document.")}
	}
	if r.Schema == nil {
		return nil, nil, []*Error{newError(nil, "Must provide schema.")}
	}

	e, err := newExecutor(r)
	if err != nil {
		return nil, nil, []*Error{err}
	}

	if abortErr := e.checkAbort(nil); abortErr != nil {
		return nil, nil, []*Error{abortErr}
	}

	opType := operationType(e.Operation)
	e.Logger.WithField("operationType", opType).Debug("operation selected")

	var data *OrderedMap
	switch opType {
	case "query":
		data, err = e.executeQuery(r.InitialValue)
	case "mutation":
		data, err = e.executeMutation(r.InitialValue)
	case "subscription":
		data, err = e.executeSubscriptionEvent(r.InitialValue)
	default:
		panic(fmt.Sprintf("unexpected operation type: %v", opType))
	}
	if err != nil {
		e.Errors = append(e.Errors, err)
	}

	// Everything accumulated here belongs to the initial response. Detach it so the incremental
	// coordinator's own error draining (see incremental.go) starts counting from zero and never
	// re-reports an error a subsequent payload didn't itself produce.
	errs := e.Errors
	e.Errors = nil

	if !e.Incremental.hasPendingWork() {
		return &Result{Data: data, Errors: errs}, nil, nil
	}

	initial := Payload{
		Data:    data,
		Errors:  errs,
		Pending: e.Incremental.drainPending(),
		HasNext: true,
	}
	return nil, &IncrementalResult{Initial: initial, Next: e.Incremental.next}, nil
}

// IsSubscription reports whether a request is for a subscription.
func IsSubscription(doc *ast.Document, operationName string) bool {
	operation, err := GetOperation(doc, operationName)
	return err == nil && operationType(operation) == "subscription"
}

// Subscribe resolves the root subscription field of a request and returns the result, without
// evaluating its sub-selections; those are evaluated per event by ExecuteRequest.
func Subscribe(ctx context.Context, r *Request) (interface{}, *Error) {
	withCtx := *r
	withCtx.Context = ctx
	e, err := newExecutor(&withCtx)
	if err != nil {
		return nil, err
	}
	if operationType(e.Operation) != "subscription" {
		return nil, newError(e.Operation, "A subscription operation is required.")
	}
	return e.subscribe(r.InitialValue)
}

type executor struct {
	Context             context.Context
	Schema              *schema.Schema
	FragmentDefinitions map[string]*ast.FragmentDefinition
	VariableValues      map[string]interface{}
	Errors              []*Error
	Operation           *ast.OperationDefinition
	IdleHandler         func()
	Logger              logrus.FieldLogger

	RootValue     interface{}
	ContextValue  interface{}
	FieldResolver FieldResolverFunc
	TypeResolver  TypeResolverFunc

	Incremental *incrementalCoordinator

	// GroupedFieldSetCache memoizes collectFields, keyed on the object type and the positions of
	// the selections collected. The same selection set is collected once per list element and
	// once per record re-execution, so caching it avoids re-walking fragment spreads repeatedly.
	GroupedFieldSetCache map[string]*collectTemplate
}

func newExecutor(r *Request) (*executor, *Error) {
	operation, err := GetOperation(r.Document, r.OperationName)
	if err != nil {
		return nil, err
	}
	coercedVariableValues, err := coerceVariableValues(r.Schema, operation, r.VariableValues)
	if err != nil {
		return nil, err
	}

	ctx := r.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := r.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &executor{
		Context:              ctx,
		Schema:               r.Schema,
		FragmentDefinitions:  map[string]*ast.FragmentDefinition{},
		VariableValues:       coercedVariableValues,
		Operation:            operation,
		IdleHandler:          r.IdleHandler,
		Logger:               logger,
		RootValue:            r.InitialValue,
		ContextValue:         r.ContextValue,
		FieldResolver:        r.FieldResolver,
		TypeResolver:         r.TypeResolver,
		GroupedFieldSetCache: map[string]*collectTemplate{},
	}
	e.Incremental = newIncrementalCoordinator(e)
	for _, def := range r.Document.Definitions {
		if def, ok := def.(*ast.FragmentDefinition); ok {
			e.FragmentDefinitions[def.Name.Name] = def
		}
	}
	return e, nil
}

func operationType(op *ast.OperationDefinition) string {
	if op == nil || op.OperationType == nil {
		return "query"
	}
	return op.OperationType.Value
}

func (e *executor) executeQuery(initialValue interface{}) (*OrderedMap, *Error) {
	queryType := e.Schema.QueryType()
	if !schema.IsObjectType(queryType) {
		return nil, newError(e.Operation, "Schema is not configured to execute query operation.")
	}
	return wait(e, e.executeSelections(e.Operation.SelectionSet.Selections, queryType, initialValue, nil, false, nil))
}

func (e *executor) executeMutation(initialValue interface{}) (*OrderedMap, *Error) {
	mutationType := e.Schema.MutationType()
	if !schema.IsObjectType(mutationType) {
		return nil, newError(e.Operation, "Schema is not configured to execute mutation operation.")
	}
	return wait(e, e.executeSelections(e.Operation.SelectionSet.Selections, mutationType, initialValue, nil, true, nil))
}

func (e *executor) executeSubscriptionEvent(initialValue interface{}) (*OrderedMap, *Error) {
	subscriptionType := e.Schema.SubscriptionType()
	if !schema.IsObjectType(subscriptionType) {
		return nil, newError(e.Operation, "Schema is not configured to execute subscription operation.")
	}
	return wait(e, e.executeSelections(e.Operation.SelectionSet.Selections, subscriptionType, initialValue, nil, false, nil))
}

func (e *executor) subscribe(initialValue interface{}) (interface{}, *Error) {
	subscriptionType := e.Schema.SubscriptionType()
	if !schema.IsObjectType(subscriptionType) {
		return nil, newError(e.Operation, "Schema is not configured to execute subscription operation.")
	}

	cr := e.collectFields(subscriptionType, e.Operation.SelectionSet.Selections, nil)
	if cr.Fields.Len() != 1 {
		return nil, newError(e.Operation.SelectionSet, "Subscriptions must contain exactly one root field selection.")
	}

	item := cr.Fields.Items()[0]
	fields := item.Fields
	field := fields[0]
	fieldDef := subscriptionType.Fields[field.Name.Name]
	if fieldDef == nil {
		return nil, newError(field, "Undefined root subscription field.")
	}
	argumentValues, err := coerceArgumentValues(field, fieldDef.Arguments, field.Arguments, e.VariableValues)
	if err != nil {
		return nil, err
	}

	resolveValue, resolveErr := fieldDef.Resolve(schema.FieldContext{
		Context:     e.Context,
		Schema:      e.Schema,
		Object:      initialValue,
		Arguments:   argumentValues,
		IsSubscribe: true,
	})
	if !isNil(resolveErr) {
		return nil, wrapResolverError(fields, resolveErr, nil)
	}
	return resolveValue, nil
}

// wait drives f to completion, invoking the executor's IdleHandler between polls for as long as
// the future isn't ready. It's the only place the engine blocks the calling goroutine.
func wait[T any](e *executor, f future.Future[T]) (T, *Error) {
	var result future.Result[T]
	done := false
	f = future.Map(f, func(r future.Result[T]) future.Result[T] {
		result = r
		done = true
		return r
	})
	f.Poll()
	for !done {
		if e.IdleHandler == nil {
			var zero T
			return zero, newError(nil, "No idle handler defined.")
		}
		e.IdleHandler()
		f.Poll()
	}
	if result.Error != nil {
		if err, ok := result.Error.(*Error); ok {
			return result.Value, err
		}
		return result.Value, wrapResolverError(nil, result.Error, nil)
	}
	return result.Value, nil
}

// GetOperation returns the operation selected by the given name. If operationName is "" and the
// document contains only one operation, it is returned. Otherwise the document must contain
// exactly one operation with the given name.
func GetOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, *Error) {
	var ret *ast.OperationDefinition
	var sawAny bool
	for _, def := range doc.Definitions {
		if def, ok := def.(*ast.OperationDefinition); ok {
			sawAny = true
			if operationName == "" || (def.Name != nil && def.Name.Name == operationName) {
				if ret != nil {
					if operationName == "" {
						return nil, newError(nil, "Must provide operation name if query contains multiple operations.")
					}
					return nil, newError(def, "Multiple matching operations.")
				}
				ret = def
			}
		}
	}
	if ret == nil {
		if operationName != "" {
			return nil, newError(nil, "Unknown operation named %q.", operationName)
		}
		if sawAny {
			return nil, newError(nil, "Must provide operation name if query contains multiple operations.")
		}
		return nil, newError(nil, "Must provide an operation.")
	}
	return ret, nil
}

func namedType(s *schema.Schema, name string) schema.NamedType {
	if ret := s.NamedTypes()[name]; ret != nil {
		return ret
	}
	return introspection.NamedTypes[name]
}

func schemaType(t ast.Type, s *schema.Schema) schema.Type {
	switch t := t.(type) {
	case *ast.ListType:
		if inner := schemaType(t.Type, s); inner != nil {
			return schema.NewListType(inner)
		}
	case *ast.NonNullType:
		if inner := schemaType(t.Type, s); inner != nil {
			return schema.NewNonNullType(inner)
		}
	case *ast.NamedType:
		return namedType(s, t.Name.Name)
	default:
		panic(fmt.Sprintf("unexpected ast type: %T", t))
	}
	return nil
}

func coerceVariableValues(s *schema.Schema, operation *ast.OperationDefinition, variableValues map[string]interface{}) (map[string]interface{}, *Error) {
	ret, err := validator.CoerceVariableValues(s, operation, variableValues)
	return ret, newErrorWithValidatorError(err)
}

func coerceArgumentValues(node ast.Node, argumentDefinitions map[string]*schema.InputValueDefinition, arguments []*ast.Argument, variableValues map[string]interface{}) (map[string]interface{}, *Error) {
	ret, err := validator.CoerceArgumentValues(node, argumentDefinitions, arguments, variableValues)
	return ret, newErrorWithValidatorError(err)
}
