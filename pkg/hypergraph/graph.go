package hypergraph

import (
	"cmp"
	"context"
	"sync"
	"sync/atomic"

	"github.com/orneryd/hypergraph/pkg/collection"
	"github.com/orneryd/hypergraph/pkg/logging"
)

// Events lists the graph-wide mutation events.
//
// *Adding events are votes: a voter returning an error vetoes the mutation
// and the public call returns a *VetoError. *Added and *Removed events are
// informational and fire after the mutation is visible.
type Events[ID cmp.Ordered] struct {
	VertexAdding     Vote[*Vertex[ID]]
	VertexAdded      Notify[*Vertex[ID]]
	VertexRemoved    Notify[*Vertex[ID]]
	EdgeAdding       Vote[*Edge[ID]]
	EdgeAdded        Notify[*Edge[ID]]
	EdgeRemoved      Notify[*Edge[ID]]
	MultiEdgeAdding  Vote[*MultiEdge[ID]]
	MultiEdgeAdded   Notify[*MultiEdge[ID]]
	MultiEdgeRemoved Notify[*MultiEdge[ID]]
	HyperEdgeAdding  Vote[*HyperEdge[ID]]
	HyperEdgeAdded   Notify[*HyperEdge[ID]]
	HyperEdgeRemoved Notify[*HyperEdge[ID]]

	// Vetoed fires after any Adding vote (graph-wide or vertex-local) failed.
	Vetoed Notify[*VetoError]
	// Cleared fires after Clear dropped every registry.
	Cleared Notify[*Graph[ID]]
	// ShuttingDown and ShutDown fire, in that order, from Shutdown.
	ShuttingDown Notify[string]
	ShutDown     Notify[string]
}

// Graph is the root of a property hypergraph. It owns the four global
// registries (vertices, edges, multiedges, hyperedges) and every element
// object; vertices only keep identifiers of their incident elements.
//
// Identifiers are unique per element kind. A vertex and an edge may share
// an identifier.
//
// Concurrency:
//
//	Every mutation (identifier issuance, uniqueness check, construction,
//	vote, insert, counter update, endpoint wiring) runs under one graph
//	write lock, so two AddEdge calls racing on the same explicit identifier
//	cannot both succeed. Reads take the read lock. Unfiltered counts and
//	degrees are atomic counters and take no lock.
type Graph[ID cmp.Ordered] struct {
	id    ID
	props *Properties
	opts  Options[ID]
	log   *logging.Logger

	mu         sync.RWMutex
	vertices   collection.Index[ID, *Vertex[ID]]
	edges      collection.Index[ID, *Edge[ID]]
	multiEdges collection.Index[ID, *MultiEdge[ID]]
	hyperEdges collection.Index[ID, *HyperEdge[ID]]

	numVertices   atomic.Int64
	numEdges      atomic.Int64
	numMultiEdges atomic.Int64
	numHyperEdges atomic.Int64

	events Events[ID]
}

// NewGraph creates an empty graph identified by id.
//
// Options start from DefaultOptions. Identifier creators have no default and
// must be supplied, e.g. with WithIDCreator(FromSource(seq.Next)).
//
// Returns ErrInvalidArgument when id is the zero value or a collaborator is
// missing.
//
// Example:
//
//	seq := idgen.NewSequence(0)
//	g, err := hypergraph.NewGraph[uint64](1,
//		hypergraph.WithIDCreator(hypergraph.FromSource(seq.Next)))
//	if err != nil {
//		return err
//	}
//	alice, _ := g.AddVertex("person", func(v *hypergraph.Vertex[uint64]) {
//		v.Properties().Set("name", "Alice")
//	})
func NewGraph[ID cmp.Ordered](id ID, opts ...Option[ID]) (*Graph[ID], error) {
	o := DefaultOptions[ID]()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	var zero ID
	if id == zero {
		return nil, invalidArg("graph requires a non-zero identifier")
	}

	g := &Graph[ID]{
		id:         id,
		props:      newProperties(o.IDKey, o.RevisionKey, id),
		opts:       o,
		log:        o.Logger.WithGraph(id),
		vertices:   o.VertexIndex(),
		edges:      o.EdgeIndex(),
		multiEdges: o.MultiEdgeIndex(),
		hyperEdges: o.HyperEdgeIndex(),
	}
	if g.vertices == nil || g.edges == nil || g.multiEdges == nil || g.hyperEdges == nil {
		return nil, invalidArg("collection factory returned nil")
	}
	return g, nil
}

// ID returns the graph identifier.
func (g *Graph[ID]) ID() ID { return g.id }

// Properties returns the graph-level property bag.
func (g *Graph[ID]) Properties() *Properties { return g.props }

// Events returns the graph-wide event hooks.
func (g *Graph[ID]) Events() *Events[ID] { return &g.events }

// Clear drops all four registries and resets every counter. Elements still
// referenced by callers are detached too: vertices report no incident
// elements and zero degrees, multiedges hold no edges. No per-element
// Removed events fire; Cleared fires once.
func (g *Graph[ID]) Clear() {
	g.mu.Lock()
	for _, m := range g.multiEdges.All() {
		m.detachLocked()
	}
	for _, v := range g.vertices.All() {
		v.out.Clear()
		v.in.Clear()
		v.multi.Clear()
		v.hyper.Clear()
		v.outDegree.Store(0)
		v.inDegree.Store(0)
	}
	g.vertices.Clear()
	g.edges.Clear()
	g.multiEdges.Clear()
	g.hyperEdges.Clear()
	g.numVertices.Store(0)
	g.numEdges.Store(0)
	g.numMultiEdges.Store(0)
	g.numHyperEdges.Store(0)
	g.mu.Unlock()

	g.log.Info("graph cleared")
	g.events.Cleared.fire(g)
}

// Shutdown fires ShuttingDown then ShutDown with message. It does not clear
// or close the graph.
func (g *Graph[ID]) Shutdown(message string) {
	g.events.ShuttingDown.fire(message)
	g.log.Info("graph shutting down", "message", message)
	g.events.ShutDown.fire(message)
}

func (g *Graph[ID]) ctx() context.Context { return context.Background() }

// owns reports whether v is the registered vertex object for its identifier.
// Caller holds g.mu.
func (g *Graph[ID]) owns(v *Vertex[ID]) error {
	if v == nil {
		return invalidArg("nil vertex")
	}
	if v.graph != g {
		return ErrGraphMismatch
	}
	if cur, ok := g.vertices.Get(v.id); !ok || cur != v {
		return unknownID(KindVertex, v.id)
	}
	return nil
}

func (g *Graph[ID]) veto(kind Kind, id ID, label string, reason error) *VetoError {
	return &VetoError{Kind: kind, ID: id, Label: label, Reason: reason}
}

// reportVeto logs and broadcasts a veto. Must be called without g.mu held.
func (g *Graph[ID]) reportVeto(v *VetoError) {
	g.log.LogVeto(g.ctx(), v.Kind.String(), v.ID, v.Reason)
	g.events.Vetoed.fire(v)
}

// resolveID returns the explicit identifier or issues a new one, and checks
// it against the registry. Caller holds g.mu.
func resolveID[ID cmp.Ordered](g *Graph[ID], kind Kind, explicit *ID, create IDCreator[ID], contains func(ID) bool) (ID, error) {
	var id ID
	if explicit != nil {
		id = *explicit
	} else {
		id = create(g)
	}
	var zero ID
	if id == zero {
		return zero, invalidArg("%s identifier is the zero value", kind)
	}
	if contains(id) {
		return zero, &DuplicateIDError{Kind: kind, ID: id}
	}
	return id, nil
}

// removal collects what one locked removal pass took out, so notifications
// can fire after the lock is released.
type removal[ID cmp.Ordered] struct {
	vertices   []*Vertex[ID]
	edges      []*Edge[ID]
	multiEdges []*MultiEdge[ID]
	hyperEdges []*HyperEdge[ID]
}

func (r *removal[ID]) publish(g *Graph[ID]) {
	for _, e := range r.edges {
		g.log.LogCommit(g.ctx(), "remove", KindEdge.String(), e.id, e.label)
		g.events.EdgeRemoved.fire(e)
	}
	for _, h := range r.hyperEdges {
		g.log.LogCommit(g.ctx(), "remove", KindHyperEdge.String(), h.id, h.label)
		g.events.HyperEdgeRemoved.fire(h)
	}
	for _, m := range r.multiEdges {
		g.log.LogCommit(g.ctx(), "remove", KindMultiEdge.String(), m.id, m.label)
		g.events.MultiEdgeRemoved.fire(m)
	}
	for _, v := range r.vertices {
		g.log.LogCommit(g.ctx(), "remove", KindVertex.String(), v.id, v.label)
		g.events.VertexRemoved.fire(v)
	}
}

func filterSlice[T any](in []T, keep func(T) bool) []T {
	if keep == nil {
		return in
	}
	out := in[:0:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func countWhere[T any](in []T, keep func(T) bool) int {
	n := 0
	for _, v := range in {
		if keep(v) {
			n++
		}
	}
	return n
}

// byID resolves one identifier. Caller holds g.mu.
func byID[ID cmp.Ordered, V any](registry collection.Index[ID, V], kind Kind, id ID) (V, error) {
	v, ok := registry.Get(id)
	if !ok {
		var zero V
		return zero, unknownID(kind, id)
	}
	return v, nil
}

// byIDs resolves every identifier or none. Caller holds g.mu.
func byIDs[ID cmp.Ordered, V any](registry collection.Index[ID, V], kind Kind, ids []ID) ([]V, error) {
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		v, err := byID(registry, kind, id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
