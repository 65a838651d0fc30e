package executor

import (
	"reflect"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/schema"
)

// record is a single @defer fragment or @stream'd list occurrence that the incremental-delivery
// coordinator owns from the moment it's scheduled until it's completed or filtered.
type record struct {
	id     string
	kind   string // "defer" or "stream"
	path   *path
	label  string
	parent *record

	completed bool
	filtered  bool

	// defer fields
	selections  []ast.Selection
	objectType  *schema.ObjectType
	objectValue interface{}

	// stream fields
	fields []*ast.Field

	innerType schema.Type
	remaining reflect.Value // sync stream only; items not yet delivered
	offset    int           // index into remaining of the next item to deliver
	asyncIter AsyncIterator // async stream only
	nextIndex int           // absolute response-path list index of the next item to deliver
}

// incrementalCoordinator assigns stable ids to deferred/streamed records, tracks which are still
// pending, filters records whose ancestor went null, and assembles the initial and subsequent
// payloads of an incremental response. One coordinator is owned per execution; it's always
// present on an executor, whether or not any record is ever scheduled.
type incrementalCoordinator struct {
	e *executor

	nextID int
	all    map[string]*record

	// queue holds records that have been scheduled but not yet processed into a payload.
	queue []*record

	// scheduledSinceLastPayload accumulates every record scheduled since the last payload
	// (initial or subsequent) was built, to populate that payload's Pending entries.
	scheduledSinceLastPayload []*record
}

func newIncrementalCoordinator(e *executor) *incrementalCoordinator {
	return &incrementalCoordinator{e: e, all: map[string]*record{}}
}

func (ic *incrementalCoordinator) newID() string {
	id := strconv.Itoa(ic.nextID)
	ic.nextID++
	return id
}

func (ic *incrementalCoordinator) schedule(rec *record) {
	ic.all[rec.id] = rec
	ic.queue = append(ic.queue, rec)
	ic.scheduledSinceLastPayload = append(ic.scheduledSinceLastPayload, rec)
	ic.e.Logger.WithFields(logrus.Fields{
		"record": rec.id,
		"kind":   rec.kind,
		"path":   rec.path.Slice(),
	}).Debug("incremental record scheduled")
}

// scheduleDefer registers a fragment diverted by @defer as its own record.
func (ic *incrementalCoordinator) scheduleDefer(g *deferredGroup, objectValue interface{}, parent *record) {
	rec := &record{
		id:          ic.newID(),
		kind:        "defer",
		path:        g.Path,
		label:       g.Label,
		parent:      parent,
		selections:  g.Selections,
		objectType:  g.ObjectType,
		objectValue: objectValue,
	}
	ic.schedule(rec)
}

// scheduleStream registers the not-yet-delivered tail of a @stream'd synchronous list.
func (ic *incrementalCoordinator) scheduleStream(p *path, label string, innerType schema.Type, fields []*ast.Field, remaining reflect.Value, startIndex int, parent *record) {
	rec := &record{
		id:        ic.newID(),
		kind:      "stream",
		path:      p,
		label:     label,
		parent:    parent,
		fields:    fields,
		innerType: innerType,
		remaining: remaining,
		nextIndex: startIndex,
	}
	ic.schedule(rec)
}

// scheduleAsyncStream registers the not-yet-delivered tail of a @stream'd async iterable.
func (ic *incrementalCoordinator) scheduleAsyncStream(p *path, label string, innerType schema.Type, fields []*ast.Field, it AsyncIterator, startIndex int, parent *record) {
	rec := &record{
		id:        ic.newID(),
		kind:      "stream",
		path:      p,
		label:     label,
		parent:    parent,
		fields:    fields,
		innerType: innerType,
		asyncIter: it,
		nextIndex: startIndex,
	}
	ic.schedule(rec)
}

// filterDescendantsOf marks every not-yet-completed, not-yet-filtered record whose path descends
// from (or equals) p as filtered: it will never be processed into a completed/incremental entry,
// and is silently dropped from subsequent pending lists. Called whenever a value at p resolves to
// null, which is exactly when spec semantics say any work scheduled underneath it can't matter.
func (ic *incrementalCoordinator) filterDescendantsOf(p *path) {
	for _, rec := range ic.all {
		if rec.completed || rec.filtered {
			continue
		}
		if pathHasAncestor(rec.path, p) {
			rec.filtered = true
			ic.e.Logger.WithFields(logrus.Fields{
				"record": rec.id,
				"path":   rec.path.Slice(),
			}).Debug("incremental record filtered")
		}
	}
}

// pathHasAncestor reports whether ancestor appears in p's chain of prefixes, including p itself.
// Paths are immutable and structurally shared, so this is a pointer-identity walk, not a value
// comparison.
func pathHasAncestor(p, ancestor *path) bool {
	for cur := p; cur != nil; cur = cur.Prev {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// drainErrorsSince removes and returns the errors appended to the executor's shared Errors slice
// since index start, leaving the slice truncated back to start. catchErrorIfNullable appends
// nullable-field failures there as a side effect of completing a record's own selections or stream
// item; draining them here is what lets each record (and, for anything left over, each payload)
// carry its own errors instead of them vanishing once the single initial read in ExecuteRequest
// has already happened.
func (ic *incrementalCoordinator) drainErrorsSince(start int) []*Error {
	if len(ic.e.Errors) <= start {
		return nil
	}
	errs := append([]*Error(nil), ic.e.Errors[start:]...)
	ic.e.Errors = ic.e.Errors[:start]
	return errs
}

// drainPending consumes scheduledSinceLastPayload into the Pending entries of the payload
// currently being assembled.
func (ic *incrementalCoordinator) drainPending() []PendingEntry {
	if len(ic.scheduledSinceLastPayload) == 0 {
		return nil
	}
	pending := make([]PendingEntry, 0, len(ic.scheduledSinceLastPayload))
	for _, rec := range ic.scheduledSinceLastPayload {
		pending = append(pending, PendingEntry{ID: rec.id, Path: rec.path.Slice(), Label: rec.label})
	}
	ic.scheduledSinceLastPayload = nil
	return pending
}

// hasPendingWork reports whether any record has been scheduled and not yet fully drained into a
// payload; ExecuteRequest uses this right after the initial payload to decide whether the request
// produces a plain Result or an IncrementalResult.
func (ic *incrementalCoordinator) hasPendingWork() bool {
	return len(ic.queue) > 0
}

// next processes every record queued since the previous call, coalescing whatever became ready in
// this wave into a single subsequent payload, per the "a payload may coalesce multiple records"
// ordering note. Newly scheduled records discovered while processing this wave (nested
// defers/streams) are left in the queue for the following call.
func (ic *incrementalCoordinator) next() (Payload, bool) {
	if len(ic.queue) == 0 {
		return Payload{}, false
	}
	wave := ic.queue
	ic.queue = nil
	waveStart := len(ic.e.Errors)

	var incremental []IncrementalEntry
	var completed []CompletedEntry
	for _, rec := range wave {
		if rec.filtered {
			continue
		}
		entries, done := ic.process(rec)
		incremental = append(incremental, entries...)
		if done != nil {
			completed = append(completed, *done)
		}
	}

	return Payload{
		Incremental: incremental,
		Completed:   completed,
		// Everything any record's own processing appended to e.Errors was already drained into
		// that record's IncrementalEntry/CompletedEntry above; whatever remains here accumulated
		// outside any single record's claim and belongs to the payload as a whole.
		Errors:  ic.drainErrorsSince(waveStart),
		Pending: ic.drainPending(),
		HasNext: len(ic.queue) > 0,
	}, true
}

func (ic *incrementalCoordinator) process(rec *record) ([]IncrementalEntry, *CompletedEntry) {
	if rec.kind == "defer" {
		return ic.processDefer(rec)
	}
	return ic.processStream(rec)
}

func (ic *incrementalCoordinator) processDefer(rec *record) ([]IncrementalEntry, *CompletedEntry) {
	e := ic.e
	start := len(e.Errors)
	data, err := wait(e, e.executeSelections(rec.selections, rec.objectType, rec.objectValue, rec.path, false, rec))
	recErrs := ic.drainErrorsSince(start)
	rec.completed = true
	if err != nil {
		ic.logCompleted(rec, err)
		return nil, &CompletedEntry{ID: rec.id, Errors: append(recErrs, err)}
	}
	ic.logCompleted(rec, nil)
	return []IncrementalEntry{{ID: rec.id, Data: data, Errors: recErrs}}, &CompletedEntry{ID: rec.id}
}

func (ic *incrementalCoordinator) processStream(rec *record) ([]IncrementalEntry, *CompletedEntry) {
	e := ic.e
	var entries []IncrementalEntry
	for {
		value, ok, err := ic.nextStreamItem(rec)
		if err != nil {
			rec.completed = true
			wrapped := wrapResolverError(rec.fields, err, rec.path)
			ic.logCompleted(rec, wrapped)
			return entries, &CompletedEntry{ID: rec.id, Errors: []*Error{wrapped}}
		}
		if !ok {
			break
		}
		itemPath := rec.path.WithIntComponent(rec.nextIndex)
		rec.nextIndex++
		start := len(e.Errors)
		completedValue, completionErr := wait(e, e.catchErrorIfNullable(rec.innerType, itemPath, e.completeValue(rec.innerType, rec.fields, value, itemPath, rec, nil)))
		itemErrs := ic.drainErrorsSince(start)
		if completionErr != nil {
			rec.completed = true
			ic.logCompleted(rec, completionErr)
			return entries, &CompletedEntry{ID: rec.id, Errors: append(itemErrs, completionErr)}
		}
		entries = append(entries, IncrementalEntry{ID: rec.id, Items: []interface{}{completedValue}, Errors: itemErrs})
	}
	if rec.asyncIter != nil {
		rec.asyncIter.Close()
	}
	rec.completed = true
	ic.logCompleted(rec, nil)
	return entries, &CompletedEntry{ID: rec.id}
}

func (ic *incrementalCoordinator) logCompleted(rec *record, err *Error) {
	entry := ic.e.Logger.WithFields(logrus.Fields{
		"record": rec.id,
		"kind":   rec.kind,
	})
	if err != nil {
		entry.WithError(err).Debug("incremental record completed with error")
		return
	}
	entry.Debug("incremental record completed")
}

func (ic *incrementalCoordinator) nextStreamItem(rec *record) (interface{}, bool, error) {
	if rec.asyncIter != nil {
		return waitAsyncNext(ic.e, rec.asyncIter, rec.path)
	}
	if rec.offset >= rec.remaining.Len() {
		return nil, false, nil
	}
	v := rec.remaining.Index(rec.offset).Interface()
	rec.offset++
	return v, true, nil
}
