package executor

import (
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/executor/internal/future"
	"github.com/gqlcore/engine/schema"
	"github.com/gqlcore/engine/schema/introspection"
)

// executeSelections evaluates a selection set against objectValue, an instance of objectType,
// returning the response map once every field (and every future/promise any field resolver
// produced) has settled. rec identifies the incremental record (if any) whose own selections are
// currently being executed, so that nested @defer/@stream encountered along the way get scheduled
// against the right parent. forceSerial selects mutation-style strictly-serial top-level
// execution.
func (e *executor) executeSelections(selections []ast.Selection, objectType *schema.ObjectType, objectValue interface{}, p *path, forceSerial bool, rec *record) future.Future[*OrderedMap] {
	cr := e.collectFields(objectType, selections, p)

	for _, g := range cr.Deferred {
		e.Incremental.scheduleDefer(g, objectValue, rec)
	}

	resultMap := NewOrderedMapWithLength(cr.Fields.Len())
	futures := make([]future.Future[any], 0, cr.Fields.Len())

	for i, item := range cr.Fields.Items() {
		responseKey := item.Key
		fields := item.Fields
		fieldName := fields[0].Name.Name

		if fieldName == "__typename" {
			resultMap.Set(i, responseKey, objectType.Name)
			continue
		}

		fieldDef := objectType.Fields[fieldName]
		if fieldDef == nil && objectType == e.Schema.QueryType() {
			fieldDef = introspection.MetaFields[fieldName]
		}
		if fieldDef == nil {
			continue
		}

		var stream *streamArgs
		if args, ok := streamArgsForFields(cr, fields); ok {
			stream = &args
		}

		fieldPath := p.WithStringComponent(responseKey, objectType.Name)
		f := e.catchErrorIfNullable(fieldDef.Type, fieldPath, e.executeField(objectValue, fields, fieldDef, objectType, fieldPath, rec, stream))

		if forceSerial {
			responseValue, err := wait(e, f)
			if err != nil {
				return future.Err[*OrderedMap](err)
			}
			resultMap.Set(i, responseKey, responseValue)
		} else {
			i, responseKey := i, responseKey
			futures = append(futures, future.MapOk(f, func(responseValue any) any {
				resultMap.Set(i, responseKey, responseValue)
				return nil
			}))
		}
	}

	return future.MapOk(future.After(futures...), func(struct{}) *OrderedMap {
		return resultMap
	})
}

// streamArgsForFields looks up the @stream arguments (if any) decorating a field's occurrences;
// collectFields records them per ast.Field node, but all occurrences of one response key carry
// the same grouped-field-set decoration in practice, so the first match wins.
func streamArgsForFields(cr *collectResult, fields []*ast.Field) (streamArgs, bool) {
	for _, f := range fields {
		if args, ok := cr.Stream[f]; ok {
			return args, true
		}
	}
	return streamArgs{}, false
}

func (e *executor) executeField(objectValue interface{}, fields []*ast.Field, fieldDef *schema.FieldDefinition, parentType *schema.ObjectType, p *path, rec *record, stream *streamArgs) future.Future[any] {
	field := fields[0]

	argumentValues, coercionErr := coerceArgumentValues(field, fieldDef.Arguments, field.Arguments, e.VariableValues)
	if coercionErr != nil {
		return future.Err[any](coercionErr)
	}
	if abortErr := e.checkAbort(p); abortErr != nil {
		return future.Err[any](abortErr)
	}

	info := FieldInfo{
		Context:             e.Context,
		Schema:              e.Schema,
		Operation:           e.Operation,
		FragmentDefinitions: e.FragmentDefinitions,
		VariableValues:      e.VariableValues,
		Name:                field.Name.Name,
		ResponseKey:         responseKeyOf(field),
		Fields:              fields,
		FieldType:           fieldDef.Type,
		ParentType:          parentType,
		Arguments:           argumentValues,
		RootValue:           e.RootValue,
		ContextValue:        e.ContextValue,
		Logger:              e.fieldLogger(p),
		path:                p,
	}

	var resolved interface{}
	var resolveErr error
	switch {
	case fieldDef.Resolve != nil:
		resolved, resolveErr = fieldDef.Resolve(schema.FieldContext{
			Context:   e.Context,
			Schema:    e.Schema,
			Object:    objectValue,
			Arguments: argumentValues,
		})
	case e.FieldResolver != nil:
		resolved, resolveErr = e.FieldResolver(info, objectValue)
	default:
		resolved, resolveErr = defaultFieldResolver(info, objectValue)
	}
	if !isNil(resolveErr) {
		return future.Err[any](wrapResolverError(fields, resolveErr, p))
	}

	return e.completeResolvedValue(fieldDef.Type, fields, resolved, p, rec, stream)
}

func responseKeyOf(field *ast.Field) string {
	if field.Alias != nil {
		return field.Alias.Name
	}
	return field.Name.Name
}

func (e *executor) fieldLogger(p *path) logrus.FieldLogger {
	return e.Logger.WithField("path", p.Slice())
}

// catchErrorIfNullable absorbs a future's error into a nil value when t is nullable, recording the
// error and filtering any incremental records scheduled underneath p (they can never be delivered
// now that their ancestor resolved to null). Non-null types let the error propagate so the nearest
// nullable ancestor absorbs it instead.
func (e *executor) catchErrorIfNullable(t schema.Type, p *path, f future.Future[any]) future.Future[any] {
	if schema.IsNonNullType(t) {
		return f
	}
	return future.Map(f, func(r future.Result[any]) future.Result[any] {
		if r.IsErr() {
			if err, ok := r.Error.(*Error); ok {
				e.Errors = append(e.Errors, err)
			} else {
				e.Errors = append(e.Errors, wrapResolverError(nil, r.Error, p))
			}
			e.Incremental.filterDescendantsOf(p)
			r.Error = nil
		}
		return r
	})
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil()
}

func mergeSelectionSets(fields []*ast.Field) []ast.Selection {
	var selectionSet []ast.Selection
	for _, field := range fields {
		if field.SelectionSet == nil {
			continue
		}
		selectionSet = append(selectionSet, field.SelectionSet.Selections...)
	}
	return selectionSet
}

// promiseFuture adapts a ResolvePromise channel into the future/poll model: it polls the channel
// non-blockingly, so progress still depends on the request's IdleHandler eventually sending to it.
func promiseFuture(p ResolvePromise) future.Future[any] {
	return future.New(func() (future.Result[any], bool) {
		var result future.Result[any]
		select {
		case r := <-p:
			if !isNil(r.Error) {
				result.Error = r.Error
			} else {
				result.Value = r.Value
			}
			return result, true
		default:
			return result, false
		}
	})
}

// waitAsyncNext calls it.Next, first checking the abort handle so a cancellation doesn't hang
// behind an iterator that never itself consults its context argument. p is the response path of
// the field or stream record driving the iterator, so an abort observed here carries the same
// path it would if the iterator had instead returned the error itself.
func waitAsyncNext(e *executor, it AsyncIterator, p *path) (interface{}, bool, error) {
	if abortErr := e.checkAbort(p); abortErr != nil {
		return nil, false, abortErr
	}
	return it.Next(e.Context)
}
