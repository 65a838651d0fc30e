package executor

import "context"

// checkAbort reports whether the execution's abort handle has fired, returning a located error at
// p if so. It is consulted before the operation starts, before each field's resolver is called,
// and before each async-iterator Next call. The future polling loop and ResolvePromise receives do
// not observe the abort handle: a wait already in progress ends only when its value arrives.
func (e *executor) checkAbort(p *path) *Error {
	if e.Context.Err() == nil {
		return nil
	}
	e.Logger.WithField("path", p.Slice()).Debug("cancellation observed mid-execution")
	return newErrorWithPath(nil, p, "%s", abortMessage(e.Context))
}

// abortMessage extracts the reason an abort handle fired, falling back to a canonical message when
// the context carries no cause beyond the standard library's own cancellation/deadline sentinels.
func abortMessage(ctx context.Context) string {
	if cause := context.Cause(ctx); cause != nil && cause != context.Canceled && cause != context.DeadlineExceeded {
		return cause.Error()
	}
	return "The operation was aborted."
}
