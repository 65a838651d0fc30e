package executor

import (
	"github.com/gqlcore/engine/ast"
	"github.com/gqlcore/engine/schema"
)

// GroupedFieldSetItem contains a key and field list pair in a GroupedFieldSet.
type GroupedFieldSetItem struct {
	Key    string
	Fields []*ast.Field
}

// GroupedFieldSet holds the results of the GraphQL CollectFields algorithm.
type GroupedFieldSet struct {
	m     map[string]int
	items []GroupedFieldSetItem
}

// NewGroupedFieldSetWithCapacity allocates a GroupedFieldSet with capacity for n elements.
func NewGroupedFieldSetWithCapacity(n int) *GroupedFieldSet {
	return &GroupedFieldSet{
		m:     make(map[string]int, n),
		items: make([]GroupedFieldSetItem, 0, n),
	}
}

// Append appends a field to the list for the given key.
func (m *GroupedFieldSet) Append(key string, field *ast.Field) {
	if idx, ok := m.m[key]; !ok {
		idx = len(m.items)
		m.m[key] = idx
		m.items = append(m.items, GroupedFieldSetItem{
			Key:    key,
			Fields: []*ast.Field{field},
		})
	} else {
		m.items[idx].Fields = append(m.items[idx].Fields, field)
	}
}

// Len returns the length of the GroupedFieldSet
func (m *GroupedFieldSet) Len() int {
	return len(m.items)
}

// Items returns the items in the GroupedFieldSet, in the order they were added.
func (m *GroupedFieldSet) Items() []GroupedFieldSetItem {
	return m.items
}

// deferredGroup is a fragment's worth of selections that a @defer directive diverted out of the
// immediate grouped field set. It carries everything the incremental coordinator needs to
// schedule and, later, execute it as its own record.
type deferredGroup struct {
	Label      string
	Selections []ast.Selection
	ObjectType *schema.ObjectType
	Path       *path
	Node       ast.Node
}

// streamArgs holds the coerced arguments of a @stream directive applied to a single field
// occurrence.
type streamArgs struct {
	InitialCount int
	Label        string
}
