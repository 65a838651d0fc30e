// Package future implements a minimal, poll-based futures primitive used to drive field
// resolution without spawning goroutines per field. A Future[T] either already holds its Result[T]
// or knows how to make progress towards one when polled; nothing here blocks on its own, which is
// why every request using ResolvePromise-based resolvers must supply an IdleHandler to call
// between polls.
package future

import (
	"reflect"
)

// Result holds either a value or an error.
type Result[T any] struct {
	Value T
	Error error
}

// IsOk returns true if the result is not an error. A non-nil interface wrapping a nil concrete
// error (a common pitfall when a resolver returns a typed nil) is also considered ok.
func (r Result[T]) IsOk() bool {
	if r.Error == nil {
		return true
	}
	rv := reflect.ValueOf(r.Error)
	return (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil()
}

// IsErr returns true if the result is an error.
func (r Result[T]) IsErr() bool {
	return !r.IsOk()
}

// Future represents a result that will be available at some point in the future. It is very
// similar to Rust's Future trait.
type Future[T any] struct {
	result Result[T]
	poll   func() (Result[T], bool)
}

// New constructs a new future from a poll function. When the future's value is ready, poll should
// return the value and true. Otherwise, poll should return a zero value and false.
func New[T any](poll func() (Result[T], bool)) Future[T] {
	return Future[T]{
		poll: poll,
	}
}

// IsReady returns true if the future's value is ready.
func (f Future[T]) IsReady() bool {
	return f.poll == nil
}

// Result returns the future's result if it is ready.
func (f Future[T]) Result() Result[T] {
	return f.result
}

// Poll invokes pollers for the future and its dependencies, allowing futures to transition to the
// ready state.
func (f *Future[T]) Poll() {
	if f.poll != nil {
		var ok bool
		if f.result, ok = f.poll(); ok {
			f.poll = nil
		}
	}
}

// Ok returns a new future that is immediately ready with the given value.
func Ok[T any](v T) Future[T] {
	return Future[T]{
		result: Result[T]{Value: v},
	}
}

// Err returns a new future that is immediately ready with the given error.
func Err[T any](err error) Future[T] {
	return Future[T]{
		result: Result[T]{Error: err},
	}
}

// Map converts a future's result using a conversion function that keeps the same value type.
func Map[T any](f Future[T], fn func(Result[T]) Result[T]) Future[T] {
	if f.IsReady() {
		f.result = fn(f.result)
		return f
	}
	fpoll := f.poll
	f.poll = func() (Result[T], bool) {
		r, ok := fpoll()
		if ok {
			return fn(r), true
		}
		return r, false
	}
	return f
}

// MapOk converts a future's value to a different type using a conversion function. Errors pass
// through unconverted.
func MapOk[T, U any](f Future[T], fn func(T) U) Future[U] {
	if f.IsReady() {
		if f.result.IsOk() {
			return Ok(fn(f.result.Value))
		}
		return Err[U](f.result.Error)
	}
	return New(func() (Result[U], bool) {
		f.Poll()
		if !f.IsReady() {
			return Result[U]{}, false
		}
		if f.result.IsOk() {
			return Result[U]{Value: fn(f.result.Value)}, true
		}
		return Result[U]{Error: f.result.Error}, true
	})
}

// Then invokes fn when f is resolved and returns a future that resolves when fn's returned future
// resolves.
func Then[T, U any](f Future[T], fn func(Result[T]) Future[U]) Future[U] {
	if f.IsReady() {
		return fn(f.result)
	}
	var then Future[U]
	hasThen := false
	return New(func() (Result[U], bool) {
		if !hasThen {
			f.Poll()
			if f.IsReady() {
				then = fn(f.result)
				hasThen = true
			}
		}
		if hasThen {
			then.Poll()
			return then.result, then.IsReady()
		}
		return Result[U]{}, false
	})
}

// Join combines the values from multiple futures into a single future that resolves to []T. If
// any future errors, the returned future resolves to that error.
func Join[T any](fs ...Future[T]) Future[[]T] {
	results := make([]T, len(fs))

	ok := true
	for i, f := range fs {
		if f.IsReady() {
			if !f.Result().IsOk() {
				return Err[[]T](f.Result().Error)
			}
			results[i] = f.Result().Value
		} else {
			ok = false
		}
	}
	if ok {
		return Ok(results)
	}

	return New(func() (Result[[]T], bool) {
		ok := true
		for i, f := range fs {
			f.Poll()
			if f.IsReady() {
				if !f.Result().IsOk() {
					return Result[[]T]{Error: f.Result().Error}, true
				}
				results[i] = f.Result().Value
			} else {
				ok = false
			}
		}
		if ok {
			return Result[[]T]{Value: results}, true
		}
		return Result[[]T]{}, false
	})
}

// After returns a single future that resolves after all of the given futures. If any future
// errors, the returned future resolves to that error. This is similar to Join except that the
// resolved value is always an empty struct, which is more efficient when the joined values aren't
// needed.
func After[T any](fs ...Future[T]) Future[struct{}] {
	ok := true
	for _, f := range fs {
		if f.IsReady() {
			if !f.Result().IsOk() {
				return Err[struct{}](f.Result().Error)
			}
		} else {
			ok = false
		}
	}
	if ok {
		return Ok(struct{}{})
	}

	return New(func() (Result[struct{}], bool) {
		ok := true
		for _, f := range fs {
			f.Poll()
			if f.IsReady() {
				if !f.Result().IsOk() {
					return Result[struct{}]{Error: f.Result().Error}, true
				}
			} else {
				ok = false
			}
		}
		if ok {
			return Result[struct{}]{}, true
		}
		return Result[struct{}]{}, false
	})
}
