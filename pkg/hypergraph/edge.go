package hypergraph

import (
	"cmp"
	"slices"
	"sync"
)

// Edge is a directed connection from Tail to Head. Tail, head and label are
// fixed at construction; only the property bag changes.
type Edge[ID cmp.Ordered] struct {
	element[ID]
	graph *Graph[ID]
	tail  *Vertex[ID]
	head  *Vertex[ID]

	// multiedges currently aggregating this edge
	mu         sync.Mutex
	multiEdges map[ID]*MultiEdge[ID]
}

// NewEdge is the default edge factory.
func NewEdge[ID cmp.Ordered](g *Graph[ID], id ID, tail *Vertex[ID], label string, head *Vertex[ID]) (*Edge[ID], error) {
	base, err := newElement(g, KindEdge, id, label)
	if err != nil {
		return nil, err
	}
	if tail == nil || head == nil {
		return nil, invalidArg("edge %v requires a tail and a head", id)
	}
	if tail.graph != g || head.graph != g {
		return nil, ErrGraphMismatch
	}
	return &Edge[ID]{
		element:    base,
		graph:      g,
		tail:       tail,
		head:       head,
		multiEdges: make(map[ID]*MultiEdge[ID]),
	}, nil
}

// Graph returns the owning graph.
func (e *Edge[ID]) Graph() *Graph[ID] { return e.graph }

// Tail returns the source vertex.
func (e *Edge[ID]) Tail() *Vertex[ID] { return e.tail }

// Head returns the target vertex.
func (e *Edge[ID]) Head() *Vertex[ID] { return e.head }

// MultiEdges returns the multiedges currently aggregating e, ordered by
// identifier.
func (e *Edge[ID]) MultiEdges() []*MultiEdge[ID] {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*MultiEdge[ID], 0, len(e.multiEdges))
	for _, m := range e.multiEdges {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *MultiEdge[ID]) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Equal reports whether both edges have the same identifier.
func (e *Edge[ID]) Equal(other *Edge[ID]) bool {
	if e == nil || other == nil {
		return e == other
	}
	return sameID(&e.element, &other.element)
}

// Compare orders edges by identifier.
func (e *Edge[ID]) Compare(other *Edge[ID]) int {
	return compareID(&e.element, &other.element)
}

func (e *Edge[ID]) joinMultiEdge(m *MultiEdge[ID]) {
	e.mu.Lock()
	e.multiEdges[m.id] = m
	e.mu.Unlock()
}

func (e *Edge[ID]) leaveMultiEdge(id ID) {
	e.mu.Lock()
	delete(e.multiEdges, id)
	e.mu.Unlock()
}

func (e *Edge[ID]) takeMultiEdges() []*MultiEdge[ID] {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*MultiEdge[ID], 0, len(e.multiEdges))
	for id, m := range e.multiEdges {
		out = append(out, m)
		delete(e.multiEdges, id)
	}
	return out
}
