package schema

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/orneryd/hypergraph/pkg/convert"
	"github.com/orneryd/hypergraph/pkg/hypergraph"
)

// Transform derives the index key of a vertex. ok=false leaves the vertex
// out of the index.
type Transform[ID cmp.Ordered] func(v *hypergraph.Vertex[ID]) (key any, ok bool)

// ByProperty indexes vertices by the value of one property. Vertices
// without the property are not indexed.
func ByProperty[ID cmp.Ordered](property string) Transform[ID] {
	return func(v *hypergraph.Vertex[ID]) (any, bool) {
		return v.Properties().TryGet(property)
	}
}

// ByProperties indexes vertices by a composite of several properties. All
// of them must be present.
func ByProperties[ID cmp.Ordered](properties ...string) Transform[ID] {
	return func(v *hypergraph.Vertex[ID]) (any, bool) {
		values := make([]any, len(properties))
		for i, p := range properties {
			val, ok := v.Properties().TryGet(p)
			if !ok {
				return nil, false
			}
			values[i] = val
		}
		return NewCompositeKey(values...), true
	}
}

// PropertyIndex maps a derived key to the vertices producing it.
//
// An index is a selector, a transformation and a backing Store. It is kept
// current from the graph's VertexAdded, VertexRemoved and Cleared
// notifications. Property edits after insertion are not observed; call
// Refresh for vertices whose indexed properties changed.
type PropertyIndex[ID cmp.Ordered] struct {
	Name string

	graph     *hypergraph.Graph[ID]
	selector  hypergraph.VertexFilter[ID]
	transform Transform[ID]
	store     Store[ID]

	mu      sync.Mutex
	current map[ID]string // vertex id -> normalized key it is filed under
	errs    func(err error)
}

func newPropertyIndex[ID cmp.Ordered](name string, g *hypergraph.Graph[ID], selector hypergraph.VertexFilter[ID], transform Transform[ID], store Store[ID], errs func(error)) *PropertyIndex[ID] {
	return &PropertyIndex[ID]{
		Name:      name,
		graph:     g,
		selector:  selector,
		transform: transform,
		store:     store,
		current:   make(map[ID]string),
		errs:      errs,
	}
}

// Lookup returns the indexed vertices whose key equals key. Numeric keys
// compare across types, so 30 finds vertices indexed under int64(30) or 30.0.
func (idx *PropertyIndex[ID]) Lookup(key any) ([]*hypergraph.Vertex[ID], error) {
	ids, err := idx.LookupIDs(key)
	if err != nil {
		return nil, err
	}
	out := make([]*hypergraph.Vertex[ID], 0, len(ids))
	for _, id := range ids {
		// A vertex can be removed between the store read and this lookup.
		if v, err := idx.graph.VertexByID(id); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// LookupIDs returns the identifiers filed under key in ascending order.
func (idx *PropertyIndex[ID]) LookupIDs(key any) ([]ID, error) {
	ids, err := idx.store.Lookup(convert.KeyString(key))
	if err != nil {
		return nil, fmt.Errorf("index %s: lookup failed: %w", idx.Name, err)
	}
	return ids, nil
}

// Len returns the number of indexed vertices.
func (idx *PropertyIndex[ID]) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.current)
}

// Keys returns the number of distinct keys in the store.
func (idx *PropertyIndex[ID]) Keys() (int, error) { return idx.store.Keys() }

// Refresh re-derives the key of v and moves it if the key changed. Vertices
// that are no longer registered are dropped.
func (idx *PropertyIndex[ID]) Refresh(v *hypergraph.Vertex[ID]) error {
	return idx.insert(v)
}

// Rebuild drops every entry and re-indexes all registered vertices.
func (idx *PropertyIndex[ID]) Rebuild() error {
	if err := idx.reset(); err != nil {
		return err
	}
	for _, v := range idx.graph.Vertices(nil) {
		if err := idx.insert(v); err != nil {
			return err
		}
	}
	return nil
}

func (idx *PropertyIndex[ID]) insert(v *hypergraph.Vertex[ID]) error {
	key, ok := "", false
	if idx.selector == nil || idx.selector(v) {
		var raw any
		raw, ok = idx.transform(v)
		if ok {
			key = convert.KeyString(raw)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	// Checked under idx.mu: a removal committed after this point has its
	// VertexRemoved listener wait for us and then drop the entry.
	if cur, err := idx.graph.VertexByID(v.ID()); err != nil || cur != v {
		ok = false
	}
	old, had := idx.current[v.ID()]
	if had && ok && old == key {
		return nil
	}
	if had {
		if err := idx.store.Remove(old, v.ID()); err != nil {
			return fmt.Errorf("index %s: %w", idx.Name, err)
		}
		delete(idx.current, v.ID())
	}
	if !ok {
		return nil
	}
	if err := idx.store.Add(key, v.ID()); err != nil {
		return fmt.Errorf("index %s: %w", idx.Name, err)
	}
	idx.current[v.ID()] = key
	return nil
}

func (idx *PropertyIndex[ID]) remove(v *hypergraph.Vertex[ID]) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	old, had := idx.current[v.ID()]
	if !had {
		return nil
	}
	delete(idx.current, v.ID())
	if err := idx.store.Remove(old, v.ID()); err != nil {
		return fmt.Errorf("index %s: %w", idx.Name, err)
	}
	return nil
}

func (idx *PropertyIndex[ID]) reset() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.current = make(map[ID]string)
	return idx.store.Clear()
}

// report forwards errors raised inside notification listeners, which have
// no caller to return to.
func (idx *PropertyIndex[ID]) report(err error) {
	if err != nil && idx.errs != nil {
		idx.errs(err)
	}
}
