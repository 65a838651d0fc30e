package executor

import (
	"context"
	"reflect"
	"strings"
)

// AsyncIterator is the capability a resolved value exposes when it wants its elements produced
// one at a time instead of returned as a ready-made slice. The engine calls Next directly, and the
// call blocks until a value is ready, the sequence ends (ok=false, err=nil), or it fails (err!=nil).
// Close is invoked when the sequence ends or an error occurs; any error it returns is swallowed.
// Close is not invoked when a consumer stops reading a streamed sequence early, nor when its
// stream record is filtered out.
type AsyncIterator interface {
	Next(ctx context.Context) (value interface{}, ok bool, err error)
	Close() error
}

type resolvedValueKind int

const (
	resolvedValueKindDirect resolvedValueKind = iota
	resolvedValueKindPromise
	resolvedValueKindSyncIterable
	resolvedValueKindAsyncIterable
)

// resolvedValue is the explicit sum type a raw resolver return value is normalized into before
// value completion dispatches on it, re-expressing the duck-typed result described in the
// algorithm's design notes (direct value, future, sync iterable, async iterable) as a closed set
// the completer can switch on.
type resolvedValue struct {
	kind resolvedValueKind

	direct    interface{}
	promise   ResolvePromise
	syncIter  reflect.Value
	asyncIter AsyncIterator
}

// classifyResolvedValue probes a raw resolver result for the capabilities value completion cares
// about. Strings are explicitly excluded from being treated as a sync iterable even though they
// are indexable/rangeable in Go, matching the algorithm's "strings are not lists" rule.
func classifyResolvedValue(v interface{}) resolvedValue {
	if v == nil {
		return resolvedValue{kind: resolvedValueKindDirect}
	}
	if p, ok := v.(ResolvePromise); ok {
		return resolvedValue{kind: resolvedValueKindPromise, promise: p}
	}
	if it, ok := v.(AsyncIterator); ok {
		return resolvedValue{kind: resolvedValueKindAsyncIterable, asyncIter: it}
	}
	if _, ok := v.(string); !ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			return resolvedValue{kind: resolvedValueKindSyncIterable, syncIter: rv}
		}
	}
	return resolvedValue{kind: resolvedValueKindDirect, direct: v}
}

// defaultFieldResolver implements the algorithm's "read the same-named property from the parent;
// call it if callable" rule, re-expressed in Go terms: an exported method named like the field in
// PascalCase takes precedence, invoked with a FieldInfo argument if it accepts one, else with no
// arguments; failing that, a map key or exported struct field with that name is read directly.
func defaultFieldResolver(info FieldInfo, objectValue interface{}) (interface{}, error) {
	if objectValue == nil {
		return nil, nil
	}

	methodName := pascalCase(info.Name)

	rv := reflect.ValueOf(objectValue)
	if m := rv.MethodByName(methodName); m.IsValid() {
		return callResolverMethod(m, info)
	}

	indirect := reflect.Indirect(rv)
	switch indirect.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(info.Name)
		if !key.Type().AssignableTo(indirect.Type().Key()) {
			return nil, nil
		}
		v := indirect.MapIndex(key)
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		f := indirect.FieldByName(methodName)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}

	return nil, nil
}

// callResolverMethod invokes a resolver method found via reflection. Supported signatures are
// func() T, func() (T, error), func(FieldInfo) T, and func(FieldInfo) (T, error).
func callResolverMethod(m reflect.Value, info FieldInfo) (interface{}, error) {
	var args []reflect.Value
	if m.Type().NumIn() == 1 {
		args = []reflect.Value{reflect.ValueOf(info)}
	}
	out := m.Call(args)
	switch len(out) {
	case 1:
		return out[0].Interface(), nil
	case 2:
		var err error
		if e, ok := out[1].Interface().(error); ok {
			err = e
		}
		return out[0].Interface(), err
	default:
		return nil, nil
	}
}

func pascalCase(name string) string {
	if name == "" {
		return name
	}
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
