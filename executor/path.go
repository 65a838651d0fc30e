package executor

// path is an immutable, structurally shared linked list of response-path segments. A new path is
// created on entering a field or list element and discarded when that scope unwinds; sibling
// branches share the same prefix.
type path struct {
	Prev            *path
	StringComponent string
	IntComponent    int
	isIntComponent  bool

	// parentType is the name of the type that owns the field named by StringComponent. It's only
	// set on field-alias segments, and lets error messages and FieldInfo.ParentType walk back to
	// the nearest enclosing object type without threading it through separately.
	parentType string
}

func (p *path) WithIntComponent(n int) *path {
	return &path{
		Prev:           p,
		IntComponent:   n,
		isIntComponent: true,
	}
}

func (p *path) WithStringComponent(s string, parentType string) *path {
	return &path{
		Prev:            p,
		StringComponent: s,
		parentType:      parentType,
	}
}

// Slice materializes the path as a sequence of string and int segments, outermost first, suitable
// for inclusion in a located error.
func (p *path) Slice() []interface{} {
	if p == nil {
		return nil
	}
	if p.isIntComponent {
		return append(p.Prev.Slice(), p.IntComponent)
	}
	return append(p.Prev.Slice(), p.StringComponent)
}

// ParentType returns the name of the type that owns the nearest field-alias segment, or "" if the
// path is empty.
func (p *path) ParentType() string {
	if p == nil {
		return ""
	}
	if !p.isIntComponent {
		return p.parentType
	}
	return p.Prev.ParentType()
}
