package hypergraph

import (
	"cmp"
	"slices"
)

// HyperEdge connects an arbitrary, fixed set of vertices. It has no
// direction; Tail is the first participant by construction order.
//
// Removing any participant removes the hyperedge, so the participant list
// never shrinks below one.
type HyperEdge[ID cmp.Ordered] struct {
	element[ID]
	graph    *Graph[ID]
	vertices []*Vertex[ID]
}

// NewHyperEdge is the default hyperedge factory. vertices must hold at least
// one vertex; duplicates are dropped, order is kept.
func NewHyperEdge[ID cmp.Ordered](g *Graph[ID], id ID, label string, vertices []*Vertex[ID]) (*HyperEdge[ID], error) {
	base, err := newElement(g, KindHyperEdge, id, label)
	if err != nil {
		return nil, err
	}
	uniq, err := distinctVertices(g, vertices)
	if err != nil {
		return nil, err
	}
	return &HyperEdge[ID]{element: base, graph: g, vertices: uniq}, nil
}

// Graph returns the owning graph.
func (h *HyperEdge[ID]) Graph() *Graph[ID] { return h.graph }

// Tail returns the first participant.
func (h *HyperEdge[ID]) Tail() *Vertex[ID] { return h.vertices[0] }

// Vertices returns the participants accepted by filter, in construction
// order.
func (h *HyperEdge[ID]) Vertices(filter VertexFilter[ID]) []*Vertex[ID] {
	return filterSlice(slices.Clone(h.vertices), filter)
}

// VerticesByLabel returns the participants filed under any of labels, or all
// of them.
func (h *HyperEdge[ID]) VerticesByLabel(labels ...string) []*Vertex[ID] {
	if len(labels) == 0 {
		return h.Vertices(nil)
	}
	return h.Vertices(VertexLabelIn[ID](labels...))
}

// NumberOfVertices counts the participants accepted by filter.
func (h *HyperEdge[ID]) NumberOfVertices(filter VertexFilter[ID]) int {
	if filter == nil {
		return len(h.vertices)
	}
	return countWhere(h.vertices, filter)
}

// Contains reports whether v participates.
func (h *HyperEdge[ID]) Contains(v *Vertex[ID]) bool {
	return slices.Contains(h.vertices, v)
}

// Equal reports whether both hyperedges have the same identifier.
func (h *HyperEdge[ID]) Equal(other *HyperEdge[ID]) bool {
	if h == nil || other == nil {
		return h == other
	}
	return sameID(&h.element, &other.element)
}

// Compare orders hyperedges by identifier.
func (h *HyperEdge[ID]) Compare(other *HyperEdge[ID]) int {
	return compareID(&h.element, &other.element)
}
