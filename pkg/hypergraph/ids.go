package hypergraph

import "cmp"

// IDCreator issues a new identifier for one element kind. It is called only
// when the caller does not supply an identifier, while the graph holds its
// write lock, so it must not call back into the graph.
//
// The returned identifier must be non-zero and absent from the registry; a
// collision is reported as a DuplicateIDError, never retried.
type IDCreator[ID cmp.Ordered] func(g *Graph[ID]) ID

// FromSource adapts a plain identifier source such as idgen.Sequence.Next.
func FromSource[ID cmp.Ordered](next func() ID) IDCreator[ID] {
	if next == nil {
		return nil
	}
	return func(*Graph[ID]) ID { return next() }
}
