// Package hypergraph provides an in-memory, mutable property hypergraph.
//
// A Graph holds four kinds of elements, each in its own label-partitioned
// registry:
//   - Vertex: a node with out-edges, in-edges, hosted multiedges and
//     hyperedges
//   - Edge: a directed connection from a tail vertex to a head vertex
//   - MultiEdge: a selector-defined view over edges incident to its hosts
//   - HyperEdge: an undirected connection over any number of vertices
//
// Every element carries a label and a Properties bag that always holds its
// identifier and revision. Identifiers are unique per kind.
//
// Mutation protocol:
//
//	Each add runs: issue or take the identifier, check uniqueness, construct
//	through the configured factory, run the initializer, put the pending
//	element to the Adding vote, then register and wire it. All of that
//	happens under the graph write lock, so the element is either fully
//	visible or not at all. Added and Removed listeners run after the lock
//	is released.
//
//	A vote failure is not a hard error: the call returns a nil element and a
//	*VetoError, which callers detect with errors.Is(err, ErrVetoed).
//
// Removal cascades. Removing a vertex removes its incident edges and every
// hyperedge it participates in, and drops it as host of its multiedges; a
// multiedge without hosts is removed. Removing an edge drops it from every
// multiedge aggregating it.
//
// Example:
//
//	seq := idgen.NewSequence(0)
//	g, _ := hypergraph.NewGraph[uint64](1,
//		hypergraph.WithIDCreator(hypergraph.FromSource(seq.Next)))
//
//	alice, _ := g.AddVertex("person", nil)
//	bob, _ := g.AddVertex("person", nil)
//	knows, _ := alice.AddOutEdge("knows", bob, func(e *hypergraph.Edge[uint64]) {
//		e.Properties().Set("since", 2019)
//	})
//
//	fmt.Println(alice.OutDegree(), bob.InDegree(), knows.Head().ID()) // 1 1 2
package hypergraph
