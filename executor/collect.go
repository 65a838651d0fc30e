package executor

import (
	"encoding/binary"
	"fmt"

	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/schema"
)

// collectResult is the output of collecting a selection set: the immediate grouped field set that
// should be executed and value-completed right away, plus any fragments that a @defer directive
// diverted into their own deferred groups, plus the @stream arguments (if any) decorating each
// field occurrence in the immediate set.
type collectResult struct {
	Fields   *GroupedFieldSet
	Deferred []*deferredGroup
	Stream   map[*ast.Field]streamArgs
}

// collectTemplate is the path-independent portion of a collectResult: everything collectFields
// computes that depends only on the object type and the selections, not on where in the response
// they're being collected from. It's what's memoized in GroupedFieldSetCache, since the same
// selection set is collected once per list element (and once per record re-execution) but always
// produces the same fields/deferred-fragment shape.
type collectTemplate struct {
	Fields   *GroupedFieldSet
	Deferred []*deferredTemplate
	Stream   map[*ast.Field]streamArgs
}

// deferredTemplate is a deferredGroup without the response path, which differs per collectFields
// call even when the rest of the template is shared from cache.
type deferredTemplate struct {
	Label      string
	Selections []ast.Selection
	ObjectType *schema.ObjectType
	Node       ast.Node
}

// collectFields implements the selection-set collection algorithm: it expands fragment spreads
// and inline fragments by type condition, applies @skip/@include, and diverts @defer-decorated
// fragments into deferredGroups instead of merging their fields into the immediate set.
//
// collectFields can be called many times with the same (objectType, selections) throughout a
// query's execution, most commonly once per element of a list field, so the path-independent part
// of the result is memoized in GroupedFieldSetCache.
func (e *executor) collectFields(objectType *schema.ObjectType, selections []ast.Selection, p *path) *collectResult {
	cacheKey := collectCacheKey(objectType, selections)

	tmpl, ok := e.GroupedFieldSetCache[cacheKey]
	if ok {
		e.Logger.WithField("type", objectType.Name).Debug("grouped field set cache hit")
	} else {
		tmpl = &collectTemplate{
			Fields: NewGroupedFieldSetWithCapacity(len(selections)),
			Stream: map[*ast.Field]streamArgs{},
		}
		e.collectFieldsImpl(objectType, selections, nil, tmpl)
		e.GroupedFieldSetCache[cacheKey] = tmpl
	}

	result := &collectResult{
		Fields: tmpl.Fields,
		Stream: tmpl.Stream,
	}
	for _, d := range tmpl.Deferred {
		result.Deferred = append(result.Deferred, &deferredGroup{
			Label:      d.Label,
			Selections: d.Selections,
			ObjectType: d.ObjectType,
			Path:       p,
			Node:       d.Node,
		})
	}
	return result
}

func collectCacheKey(objectType *schema.ObjectType, selections []ast.Selection) string {
	keyBytes := make([]byte, len(objectType.Name)+16*len(selections))
	copy(keyBytes, objectType.Name)
	for i, sel := range selections {
		pos := sel.Position()
		binary.LittleEndian.PutUint64(keyBytes[len(objectType.Name)+i*16:], uint64(pos.Line))
		binary.LittleEndian.PutUint64(keyBytes[len(objectType.Name)+i*16+8:], uint64(pos.Column))
	}
	return string(keyBytes)
}

func (e *executor) collectFieldsImpl(objectType *schema.ObjectType, selections []ast.Selection, visitedFragments map[string]struct{}, tmpl *collectTemplate) {
	if visitedFragments == nil {
		visitedFragments = map[string]struct{}{}
	}
	for _, selection := range selections {
		if e.shouldSkip(selection) {
			continue
		}

		switch selection := selection.(type) {
		case *ast.Field:
			responseKey := selection.Name.Name
			if selection.Alias != nil {
				responseKey = selection.Alias.Name
			}
			tmpl.Fields.Append(responseKey, selection)
			if args, ok := e.streamDirectiveArgs(selection); ok {
				tmpl.Stream[selection] = args
			}
		case *ast.FragmentSpread:
			fragmentSpreadName := selection.FragmentName.Name
			if _, ok := visitedFragments[fragmentSpreadName]; ok {
				continue
			}
			visitedFragments[fragmentSpreadName] = struct{}{}

			fragment := e.FragmentDefinitions[fragmentSpreadName]
			if fragment == nil {
				continue
			}

			fragmentType := schemaType(fragment.TypeCondition, e.Schema)
			if fragmentType == nil || !doesFragmentTypeApply(objectType, fragmentType) {
				continue
			}

			if label, isDeferred := e.deferDirectiveArgs(selection.Directives); isDeferred {
				tmpl.Deferred = append(tmpl.Deferred, &deferredTemplate{
					Label:      label,
					Selections: fragment.SelectionSet.Selections,
					ObjectType: objectType,
					Node:       selection,
				})
				continue
			}

			e.collectFieldsImpl(objectType, fragment.SelectionSet.Selections, visitedFragments, tmpl)
		case *ast.InlineFragment:
			if selection.TypeCondition != nil {
				fragmentType := schemaType(selection.TypeCondition, e.Schema)
				if fragmentType == nil || !doesFragmentTypeApply(objectType, fragmentType) {
					continue
				}
			}

			if label, isDeferred := e.deferDirectiveArgs(selection.Directives); isDeferred {
				tmpl.Deferred = append(tmpl.Deferred, &deferredTemplate{
					Label:      label,
					Selections: selection.SelectionSet.Selections,
					ObjectType: objectType,
					Node:       selection,
				})
				continue
			}

			e.collectFieldsImpl(objectType, selection.SelectionSet.Selections, visitedFragments, tmpl)
		default:
			panic(fmt.Sprintf("unexpected selection type: %T", selection))
		}
	}
}

func (e *executor) shouldSkip(selection ast.Selection) bool {
	for _, directive := range selection.SelectionDirectives() {
		def := e.Schema.Directives()[directive.Name.Name]
		if def == nil || def.FieldCollectionFilter == nil {
			continue
		}
		if arguments, err := coerceArgumentValues(directive, def.Arguments, directive.Arguments, e.VariableValues); err == nil && !def.FieldCollectionFilter(arguments) {
			return true
		}
	}
	return false
}

// directiveArgs coerces the arguments of a single directive occurrence against its schema
// definition. It returns ok=false if the directive isn't registered in the schema (collection
// never fails the whole request over an unregistered directive; the validator is responsible for
// catching that) or if argument coercion fails; in the latter case, unlike the former, the failure
// is a real field/fragment-boundary error (e.g. an unresolvable @defer label variable) and is
// recorded in e.Errors rather than silently discarded, even though the fragment is still collected
// as if the directive were absent.
func (e *executor) directiveArgs(d *ast.Directive) (map[string]interface{}, bool) {
	def := e.Schema.Directives()[d.Name.Name]
	if def == nil {
		return nil, false
	}
	args, err := coerceArgumentValues(d, def.Arguments, d.Arguments, e.VariableValues)
	if err != nil {
		e.Errors = append(e.Errors, err)
		return nil, false
	}
	return args, true
}

// deferDirectiveArgs reports whether a fragment spread or inline fragment's directives include an
// active @defer, and its label if any. A @defer with if:false inlines the fragment, matching the
// "falsy if" rule.
func (e *executor) deferDirectiveArgs(directives []*ast.Directive) (label string, isDeferred bool) {
	for _, d := range directives {
		if d.Name.Name != "defer" {
			continue
		}
		args, ok := e.directiveArgs(d)
		if !ok {
			continue
		}
		ifValue, _ := args["if"].(bool)
		if l, ok := args["label"].(string); ok {
			label = l
		}
		return label, ifValue
	}
	return "", false
}

// streamDirectiveArgs reports whether a field occurrence carries an active @stream, and its
// arguments if so.
func (e *executor) streamDirectiveArgs(field *ast.Field) (streamArgs, bool) {
	for _, d := range field.SelectionDirectives() {
		if d.Name.Name != "stream" {
			continue
		}
		args, ok := e.directiveArgs(d)
		if !ok {
			continue
		}
		ifValue, _ := args["if"].(bool)
		if !ifValue {
			return streamArgs{}, false
		}
		initialCount, _ := args["initialCount"].(int)
		label, _ := args["label"].(string)
		return streamArgs{InitialCount: initialCount, Label: label}, true
	}
	return streamArgs{}, false
}

func doesFragmentTypeApply(objectType *schema.ObjectType, fragmentType schema.Type) bool {
	switch fragmentType := fragmentType.(type) {
	case *schema.ObjectType:
		return objectType.IsSameType(fragmentType)
	case *schema.InterfaceType:
		for _, impl := range objectType.ImplementedInterfaces {
			if impl.IsSameType(fragmentType) {
				return true
			}
		}
		return false
	case *schema.UnionType:
		for _, member := range fragmentType.MemberTypes {
			if member.IsSameType(objectType) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("unexpected fragment type: %T", fragmentType))
}
