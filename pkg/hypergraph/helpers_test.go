package hypergraph

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestGraph returns a uint64 graph whose generated identifiers start at
// 101, leaving small numbers free for explicit identifiers.
func newTestGraph(t *testing.T, opts ...Option[uint64]) *Graph[uint64] {
	t.Helper()
	var next atomic.Uint64
	next.Store(100)
	all := append([]Option[uint64]{
		WithIDCreator(FromSource(func() uint64 { return next.Add(1) })),
	}, opts...)
	g, err := NewGraph[uint64](1, all...)
	require.NoError(t, err)
	return g
}

func mustVertex(t *testing.T, g *Graph[uint64], id uint64, label string) *Vertex[uint64] {
	t.Helper()
	v, err := g.AddVertexWithID(id, label, nil)
	require.NoError(t, err)
	return v
}

func mustEdge(t *testing.T, g *Graph[uint64], tail *Vertex[uint64], label string, head *Vertex[uint64]) *Edge[uint64] {
	t.Helper()
	e, err := g.AddEdge(tail, label, head, nil)
	require.NoError(t, err)
	return e
}

func ids[T interface{ ID() uint64 }](elems []T) []uint64 {
	out := make([]uint64, len(elems))
	for i, e := range elems {
		out[i] = e.ID()
	}
	return out
}

// assertDegreesConsistent checks that every unfiltered degree counter agrees
// with the enumerated incident edges.
func assertDegreesConsistent(t *testing.T, g *Graph[uint64]) {
	t.Helper()
	for _, v := range g.Vertices(nil) {
		require.Equal(t, len(v.OutEdges()), v.OutDegree(), "out-degree of vertex %d", v.ID())
		require.Equal(t, len(v.InEdges()), v.InDegree(), "in-degree of vertex %d", v.ID())
		for _, e := range v.OutEdges() {
			require.Same(t, v, e.Tail())
		}
		for _, e := range v.InEdges() {
			require.Same(t, v, e.Head())
		}
	}
	require.Equal(t, len(g.Vertices(nil)), g.NumberOfVertices(nil))
	require.Equal(t, len(g.Edges(nil)), g.NumberOfEdges(nil))
	require.Equal(t, len(g.MultiEdges(nil)), g.NumberOfMultiEdges(nil))
	require.Equal(t, len(g.HyperEdges(nil)), g.NumberOfHyperEdges(nil))
}
