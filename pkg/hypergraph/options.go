package hypergraph

import (
	"cmp"

	"github.com/orneryd/hypergraph/pkg/collection"
	"github.com/orneryd/hypergraph/pkg/logging"
)

// Element factories construct concrete element instances. The engine never
// builds elements itself; it calls the factory configured in Options. Custom
// factories usually wrap the default one (NewVertex, NewEdge, ...).
type (
	VertexFactory[ID cmp.Ordered] func(g *Graph[ID], id ID, label string) (*Vertex[ID], error)
	EdgeFactory[ID cmp.Ordered]   func(g *Graph[ID], id ID, tail *Vertex[ID], label string, head *Vertex[ID]) (*Edge[ID], error)

	MultiEdgeFactory[ID cmp.Ordered] func(g *Graph[ID], id ID, label string, selector EdgeFilter[ID], hosts []*Vertex[ID]) (*MultiEdge[ID], error)
	HyperEdgeFactory[ID cmp.Ordered] func(g *Graph[ID], id ID, label string, vertices []*Vertex[ID]) (*HyperEdge[ID], error)
)

// Options holds every collaborator a Graph needs. All fields are required;
// DefaultOptions fills in everything except the identifier creators, which
// depend on the identifier type.
type Options[ID cmp.Ordered] struct {
	IDKey       string
	RevisionKey string

	VertexIDs    IDCreator[ID]
	EdgeIDs      IDCreator[ID]
	MultiEdgeIDs IDCreator[ID]
	HyperEdgeIDs IDCreator[ID]

	NewVertex    VertexFactory[ID]
	NewEdge      EdgeFactory[ID]
	NewMultiEdge MultiEdgeFactory[ID]
	NewHyperEdge HyperEdgeFactory[ID]

	// Global registries.
	VertexIndex    collection.Factory[ID, *Vertex[ID]]
	EdgeIndex      collection.Factory[ID, *Edge[ID]]
	MultiEdgeIndex collection.Factory[ID, *MultiEdge[ID]]
	HyperEdgeIndex collection.Factory[ID, *HyperEdge[ID]]
	// LocalIndex backs the per-vertex out/in/multi/hyper registries and
	// the edge collection of each multiedge. Entries map id to id.
	LocalIndex collection.Factory[ID, ID]

	Logger *logging.Logger
}

// Option configures a Graph.
type Option[ID cmp.Ordered] func(*Options[ID])

// DefaultOptions returns options backed by collection.Partitioned indexes,
// the default element factories and a no-op logger.
func DefaultOptions[ID cmp.Ordered]() Options[ID] {
	return Options[ID]{
		IDKey:          DefaultIDKey,
		RevisionKey:    DefaultRevisionKey,
		NewVertex:      NewVertex[ID],
		NewEdge:        NewEdge[ID],
		NewMultiEdge:   NewMultiEdge[ID],
		NewHyperEdge:   NewHyperEdge[ID],
		VertexIndex:    collection.PartitionedFactory[ID, *Vertex[ID]](),
		EdgeIndex:      collection.PartitionedFactory[ID, *Edge[ID]](),
		MultiEdgeIndex: collection.PartitionedFactory[ID, *MultiEdge[ID]](),
		HyperEdgeIndex: collection.PartitionedFactory[ID, *HyperEdge[ID]](),
		LocalIndex:     collection.PartitionedFactory[ID, ID](),
		Logger:         logging.Noop(),
	}
}

func (o *Options[ID]) validate() error {
	switch {
	case o.IDKey == "":
		return invalidArg("id key is empty")
	case o.RevisionKey == "":
		return invalidArg("revision key is empty")
	case o.IDKey == o.RevisionKey:
		return invalidArg("id key and revision key must differ")
	case o.VertexIDs == nil, o.EdgeIDs == nil, o.MultiEdgeIDs == nil, o.HyperEdgeIDs == nil:
		return invalidArg("an identifier creator is missing")
	case o.NewVertex == nil, o.NewEdge == nil, o.NewMultiEdge == nil, o.NewHyperEdge == nil:
		return invalidArg("an element factory is missing")
	case o.VertexIndex == nil, o.EdgeIndex == nil, o.MultiEdgeIndex == nil,
		o.HyperEdgeIndex == nil, o.LocalIndex == nil:
		return invalidArg("a collection factory is missing")
	case o.Logger == nil:
		return invalidArg("logger is nil")
	}
	return nil
}

// WithIDCreator uses one creator for all four element kinds. Identifiers
// only need to be unique per kind, so a shared sequence is fine.
func WithIDCreator[ID cmp.Ordered](c IDCreator[ID]) Option[ID] {
	return func(o *Options[ID]) {
		o.VertexIDs, o.EdgeIDs, o.MultiEdgeIDs, o.HyperEdgeIDs = c, c, c, c
	}
}

// WithIDCreators sets a creator per element kind.
func WithIDCreators[ID cmp.Ordered](vertices, edges, multiEdges, hyperEdges IDCreator[ID]) Option[ID] {
	return func(o *Options[ID]) {
		o.VertexIDs, o.EdgeIDs, o.MultiEdgeIDs, o.HyperEdgeIDs = vertices, edges, multiEdges, hyperEdges
	}
}

// WithKeys overrides the property keys for identifier and revision.
func WithKeys[ID cmp.Ordered](idKey, revisionKey string) Option[ID] {
	return func(o *Options[ID]) {
		o.IDKey, o.RevisionKey = idKey, revisionKey
	}
}

// WithVertexFactory replaces the vertex factory.
func WithVertexFactory[ID cmp.Ordered](f VertexFactory[ID]) Option[ID] {
	return func(o *Options[ID]) { o.NewVertex = f }
}

// WithEdgeFactory replaces the edge factory.
func WithEdgeFactory[ID cmp.Ordered](f EdgeFactory[ID]) Option[ID] {
	return func(o *Options[ID]) { o.NewEdge = f }
}

// WithMultiEdgeFactory replaces the multiedge factory.
func WithMultiEdgeFactory[ID cmp.Ordered](f MultiEdgeFactory[ID]) Option[ID] {
	return func(o *Options[ID]) { o.NewMultiEdge = f }
}

// WithHyperEdgeFactory replaces the hyperedge factory.
func WithHyperEdgeFactory[ID cmp.Ordered](f HyperEdgeFactory[ID]) Option[ID] {
	return func(o *Options[ID]) { o.NewHyperEdge = f }
}

// WithIndexes replaces the factories for the four global registries. A nil
// factory leaves the current one in place.
func WithIndexes[ID cmp.Ordered](
	vertices collection.Factory[ID, *Vertex[ID]],
	edges collection.Factory[ID, *Edge[ID]],
	multiEdges collection.Factory[ID, *MultiEdge[ID]],
	hyperEdges collection.Factory[ID, *HyperEdge[ID]],
) Option[ID] {
	return func(o *Options[ID]) {
		if vertices != nil {
			o.VertexIndex = vertices
		}
		if edges != nil {
			o.EdgeIndex = edges
		}
		if multiEdges != nil {
			o.MultiEdgeIndex = multiEdges
		}
		if hyperEdges != nil {
			o.HyperEdgeIndex = hyperEdges
		}
	}
}

// WithLocalIndex replaces the factory for per-vertex registries.
func WithLocalIndex[ID cmp.Ordered](f collection.Factory[ID, ID]) Option[ID] {
	return func(o *Options[ID]) { o.LocalIndex = f }
}

// WithLogger sets the logger.
func WithLogger[ID cmp.Ordered](l *logging.Logger) Option[ID] {
	return func(o *Options[ID]) { o.Logger = l }
}
