package hypergraph

import "cmp"

// Element is implemented by vertices, edges, multiedges and hyperedges.
type Element[ID cmp.Ordered] interface {
	ID() ID
	Kind() Kind
	Label() string
	Revision() Revision
	Properties() *Properties
}

// element is the common base of every element kind: identifier, label and
// property bag. Identity and ordering are defined by the identifier alone.
type element[ID cmp.Ordered] struct {
	kind  Kind
	id    ID
	label string
	props *Properties
}

func newElement[ID cmp.Ordered](g *Graph[ID], kind Kind, id ID, label string) (element[ID], error) {
	var zero ID
	switch {
	case g == nil:
		return element[ID]{}, invalidArg("%s requires a graph", kind)
	case id == zero:
		return element[ID]{}, invalidArg("%s requires a non-zero identifier", kind)
	case g.opts.IDKey == "":
		return element[ID]{}, invalidArg("%s requires an id key", kind)
	case g.opts.RevisionKey == "":
		return element[ID]{}, invalidArg("%s requires a revision key", kind)
	}
	return element[ID]{
		kind:  kind,
		id:    id,
		label: label,
		props: newProperties(g.opts.IDKey, g.opts.RevisionKey, id),
	}, nil
}

// ID returns the identifier.
func (e *element[ID]) ID() ID { return e.id }

// Kind returns the element kind.
func (e *element[ID]) Kind() Kind { return e.kind }

// Label returns the label the element is filed under.
func (e *element[ID]) Label() string { return e.label }

// Properties returns the property bag.
func (e *element[ID]) Properties() *Properties { return e.props }

// Revision returns the current revision of the property bag.
func (e *element[ID]) Revision() Revision { return e.props.Revision() }

func sameID[ID cmp.Ordered](a, b *element[ID]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.id == b.id
}

func compareID[ID cmp.Ordered](a, b *element[ID]) int {
	return cmp.Compare(a.id, b.id)
}
