package executor

import (
	"fmt"
	"reflect"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/executor/internal/future"
	"github.com/gqlcore/engine/schema"
)

// completeResolvedValue is the entry point from field resolution into value completion: it
// classifies the raw value a resolver (or default resolver) produced, waiting out a promise
// before dispatching, then hands off to completeValue.
func (e *executor) completeResolvedValue(fieldType schema.Type, fields []*ast.Field, result interface{}, p *path, rec *record, stream *streamArgs) future.Future[any] {
	rv := classifyResolvedValue(result)
	if rv.kind == resolvedValueKindPromise {
		return future.Then(promiseFuture(rv.promise), func(r future.Result[any]) future.Future[any] {
			if r.IsErr() {
				return future.Err[any](wrapResolverError(fields, r.Error, p))
			}
			return e.completeValue(fieldType, fields, r.Value, p, rec, stream)
		})
	}
	return e.completeValue(fieldType, fields, result, p, rec, stream)
}

// completeValue drives a resolved value against its declared type: non-null wrapping, list
// traversal (sync slices, sync iterables, async iterables, with @stream support), abstract-type
// disambiguation, object sub-selection recursion, and scalar/enum serialization. stream carries
// the @stream arguments decorating this field occurrence, if any; it's only consulted for list
// types and is threaded unchanged through a non-null wrapper but not into list elements or object
// sub-selections, which can't themselves be streamed.
func (e *executor) completeValue(fieldType schema.Type, fields []*ast.Field, result interface{}, p *path, rec *record, stream *streamArgs) future.Future[any] {
	if nonNullType, ok := fieldType.(*schema.NonNullType); ok {
		return future.Map(e.completeValue(nonNullType.Type, fields, result, p, rec, stream), func(r future.Result[any]) future.Result[any] {
			if r.IsOk() && r.Value == nil {
				r.Error = newErrorWithPath(fields[0], p, "Cannot return null for non-nullable field %s.%s.", p.ParentType(), fields[0].Name.Name)
			}
			return r
		})
	}

	if isNil(result) {
		e.Incremental.filterDescendantsOf(p)
		return future.Ok[any](nil)
	}

	rv := classifyResolvedValue(result)
	switch rv.kind {
	case resolvedValueKindPromise:
		return future.Then(promiseFuture(rv.promise), func(r future.Result[any]) future.Future[any] {
			if r.IsErr() {
				return future.Err[any](wrapResolverError(fields, r.Error, p))
			}
			return e.completeValue(fieldType, fields, r.Value, p, rec, stream)
		})
	case resolvedValueKindAsyncIterable:
		listType, ok := fieldType.(*schema.ListType)
		if !ok {
			rv.asyncIter.Close()
			return future.Err[any](newErrorWithPath(fields[0], p, "Result is not a list."))
		}
		return e.completeAsyncIterable(listType.Type, fields, rv.asyncIter, p, rec, stream)
	case resolvedValueKindSyncIterable:
		listType, ok := fieldType.(*schema.ListType)
		if !ok {
			return future.Err[any](newErrorWithPath(fields[0], p, "Result is not a list."))
		}
		return e.completeSyncIterable(listType.Type, fields, rv.syncIter, p, rec, stream)
	}

	switch fieldType := fieldType.(type) {
	case *schema.ListType:
		return future.Err[any](newErrorWithPath(fields[0], p, "Result is not a list."))
	case *schema.ScalarType:
		coerced, err := fieldType.CoerceResult(result)
		if err != nil {
			return future.Err[any](newErrorWithPath(fields[0], p, "Unexpected result: %v", err))
		}
		return future.Ok(coerced)
	case *schema.EnumType:
		coerced, err := fieldType.CoerceResult(result)
		if err != nil {
			return future.Err[any](newErrorWithPath(fields[0], p, "Unexpected result: %v", err))
		}
		return future.Ok[any](coerced)
	case *schema.ObjectType, *schema.InterfaceType, *schema.UnionType:
		objectType, completionErr := e.resolveAbstractObjectType(fieldType, result, fields, p)
		if completionErr != nil {
			return future.Err[any](completionErr)
		}
		return future.MapOk(e.executeSelections(mergeSelectionSets(fields), objectType, result, p, false, rec), func(m *OrderedMap) interface{} {
			return m
		})
	}
	panic(fmt.Sprintf("unexpected field type: %T", fieldType))
}

// resolveAbstractObjectType determines the runtime object type of a value against its declared
// field type, which may be a concrete object type already, or an interface/union requiring
// disambiguation: a ResolveType on the abstract type takes precedence, then each possible type's
// IsTypeOf, then the request's TypeResolver fallback.
func (e *executor) resolveAbstractObjectType(fieldType schema.Type, result interface{}, fields []*ast.Field, p *path) (*schema.ObjectType, *Error) {
	switch fieldType := fieldType.(type) {
	case *schema.ObjectType:
		return fieldType, nil
	case *schema.InterfaceType:
		if fieldType.ResolveType != nil {
			t, err := fieldType.ResolveType(e.Context, result)
			if err != nil {
				return nil, newErrorWithPath(fields[0], p, "%v", err)
			}
			if t != nil {
				return e.checkPossibleType(t, fieldType.Name, fields, p)
			}
		}
		for _, t := range e.Schema.InterfaceImplementations(fieldType.Name) {
			if t.IsTypeOf != nil && t.IsTypeOf(result) {
				return t, nil
			}
		}
		if e.TypeResolver != nil {
			return e.resolveWithTypeResolver(result, fieldType.Name, fields, p)
		}
		return nil, newErrorWithPath(fields[0], p, "Unable to determine object type.")
	case *schema.UnionType:
		if fieldType.ResolveType != nil {
			t, err := fieldType.ResolveType(e.Context, result)
			if err != nil {
				return nil, newErrorWithPath(fields[0], p, "%v", err)
			}
			if t != nil {
				return e.checkPossibleType(t, fieldType.Name, fields, p)
			}
		}
		for _, t := range fieldType.MemberTypes {
			if t.IsTypeOf != nil && t.IsTypeOf(result) {
				return t, nil
			}
		}
		if e.TypeResolver != nil {
			return e.resolveWithTypeResolver(result, fieldType.Name, fields, p)
		}
		return nil, newErrorWithPath(fields[0], p, "Unable to determine object type.")
	}
	return nil, newErrorWithPath(fields[0], p, "Unable to determine object type.")
}

func (e *executor) resolveWithTypeResolver(result interface{}, abstractTypeName string, fields []*ast.Field, p *path) (*schema.ObjectType, *Error) {
	info := FieldInfo{
		Context:             e.Context,
		Schema:              e.Schema,
		Operation:           e.Operation,
		FragmentDefinitions: e.FragmentDefinitions,
		VariableValues:      e.VariableValues,
		Fields:              fields,
		RootValue:           e.RootValue,
		ContextValue:        e.ContextValue,
		Logger:              e.fieldLogger(p),
		path:                p,
	}
	t, err := e.TypeResolver(e.Context, result, info)
	if err != nil {
		return nil, newErrorWithPath(fields[0], p, "%v", err)
	}
	if t == nil {
		return nil, newErrorWithPath(fields[0], p, "Unable to determine object type.")
	}
	return e.checkPossibleType(t, abstractTypeName, fields, p)
}

func (e *executor) checkPossibleType(t *schema.ObjectType, abstractTypeName string, fields []*ast.Field, p *path) (*schema.ObjectType, *Error) {
	for _, possible := range e.Schema.InterfaceImplementations(abstractTypeName) {
		if possible.IsSameType(t) {
			return t, nil
		}
	}
	if union, ok := e.Schema.NamedType(abstractTypeName).(*schema.UnionType); ok {
		for _, member := range union.MemberTypes {
			if member.IsSameType(t) {
				return t, nil
			}
		}
	}
	return nil, newErrorWithPath(fields[0], p, "Runtime Object type %q is not a possible type for %q.", t.Name, abstractTypeName)
}

// completeSyncIterable value-completes a reflect-indexable slice/array. When stream is non-nil,
// only its InitialCount leading items are completed now; the remainder is scheduled as a record
// for later delivery.
func (e *executor) completeSyncIterable(innerType schema.Type, fields []*ast.Field, rv reflect.Value, p *path, rec *record, stream *streamArgs) future.Future[any] {
	n := rv.Len()
	initialCount := n
	if stream != nil {
		if stream.InitialCount < 0 {
			return future.Err[any](newErrorWithPath(fields[0], p, "initialCount must be a non-negative integer."))
		}
		initialCount = stream.InitialCount
		if initialCount > n {
			initialCount = n
		}
	}

	completedResult := make([]future.Future[any], initialCount)
	for i := 0; i < initialCount; i++ {
		itemPath := p.WithIntComponent(i)
		completedResult[i] = e.catchErrorIfNullable(innerType, itemPath, e.completeValue(innerType, fields, rv.Index(i).Interface(), itemPath, rec, nil))
	}

	if stream != nil && initialCount < n {
		e.Incremental.scheduleStream(p, stream.Label, innerType, fields, rv.Slice(initialCount, n), initialCount, rec)
	}

	return future.MapOk(future.Join(completedResult...), func(l []interface{}) interface{} {
		return l
	})
}

// completeAsyncIterable value-completes an AsyncIterator. Without @stream, the entire sequence is
// consumed synchronously (each Next call preceded by an abort check in waitAsyncNext) and
// returned as one list. With @stream, only the leading InitialCount items are consumed now; the
// iterator itself is handed to the incremental coordinator to keep draining later.
func (e *executor) completeAsyncIterable(innerType schema.Type, fields []*ast.Field, it AsyncIterator, p *path, rec *record, stream *streamArgs) future.Future[any] {
	initialCount := -1
	if stream != nil {
		if stream.InitialCount < 0 {
			it.Close()
			return future.Err[any](newErrorWithPath(fields[0], p, "initialCount must be a non-negative integer."))
		}
		initialCount = stream.InitialCount
	}

	var items []interface{}
	idx := 0
	for initialCount < 0 || idx < initialCount {
		value, ok, err := waitAsyncNext(e, it, p)
		if err != nil {
			it.Close()
			return future.Err[any](wrapResolverError(fields, err, p))
		}
		if !ok {
			it.Close()
			break
		}
		itemPath := p.WithIntComponent(idx)
		completed, completionErr := wait(e, e.catchErrorIfNullable(innerType, itemPath, e.completeValue(innerType, fields, value, itemPath, rec, nil)))
		if completionErr != nil {
			it.Close()
			return future.Err[any](completionErr)
		}
		items = append(items, completed)
		idx++
	}

	if stream != nil && idx == initialCount {
		e.Incremental.scheduleAsyncStream(p, stream.Label, innerType, fields, it, idx, rec)
	}

	return future.Ok[any](items)
}
