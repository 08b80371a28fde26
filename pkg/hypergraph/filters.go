package hypergraph

import (
	"cmp"
	"slices"

	"github.com/orneryd/hypergraph/pkg/convert"
)

// Filters are pure predicates. A nil filter matches everything.
//
// A filter used as a multiedge selector runs while the graph holds its write
// lock, on every edge added after the multiedge and once per edge when the
// multiedge is populated. A selector must not call back into the graph: any
// graph method that takes the lock, including reads, deadlocks.
type (
	VertexFilter[ID cmp.Ordered]    func(*Vertex[ID]) bool
	EdgeFilter[ID cmp.Ordered]      func(*Edge[ID]) bool
	MultiEdgeFilter[ID cmp.Ordered] func(*MultiEdge[ID]) bool
	HyperEdgeFilter[ID cmp.Ordered] func(*HyperEdge[ID]) bool
)

// Initializers seed a freshly constructed element before it is put to the
// vote. They run exactly once, under the graph write lock, and must not call
// back into the graph.
type (
	VertexInitializer[ID cmp.Ordered]    func(*Vertex[ID])
	EdgeInitializer[ID cmp.Ordered]      func(*Edge[ID])
	MultiEdgeInitializer[ID cmp.Ordered] func(*MultiEdge[ID])
	HyperEdgeInitializer[ID cmp.Ordered] func(*HyperEdge[ID])
)

func matches[T any](filter func(T) bool, v T) bool {
	return filter == nil || filter(v)
}

// EdgeLabelIn matches edges filed under any of labels.
func EdgeLabelIn[ID cmp.Ordered](labels ...string) EdgeFilter[ID] {
	return func(e *Edge[ID]) bool { return slices.Contains(labels, e.Label()) }
}

// VertexLabelIn matches vertices filed under any of labels.
func VertexLabelIn[ID cmp.Ordered](labels ...string) VertexFilter[ID] {
	return func(v *Vertex[ID]) bool { return slices.Contains(labels, v.Label()) }
}

// EdgePropertyEquals matches edges whose property key equals value.
// Numeric values compare across types, so 1 matches int64(1) and 1.0.
func EdgePropertyEquals[ID cmp.Ordered](key string, value any) EdgeFilter[ID] {
	want := convert.ComparableKey(value)
	return func(e *Edge[ID]) bool {
		got, ok := e.Properties().TryGet(key)
		return ok && convert.ComparableKey(got) == want
	}
}

// VertexPropertyEquals matches vertices whose property key equals value.
func VertexPropertyEquals[ID cmp.Ordered](key string, value any) VertexFilter[ID] {
	want := convert.ComparableKey(value)
	return func(v *Vertex[ID]) bool {
		got, ok := v.Properties().TryGet(key)
		return ok && convert.ComparableKey(got) == want
	}
}
