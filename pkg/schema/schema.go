// Package schema layers indexes and constraints over a hypergraph.Graph.
//
// The engine itself knows nothing about either. A Manager subscribes to the
// graph's mutation events:
//   - property indexes follow VertexAdded, VertexRemoved and Cleared
//   - constraints vote on VertexAdding and veto violating vertices
//
// Index backing stores are pluggable: MapStore for any identifier type,
// BitmapStore (Roaring bitmaps) for uint64 identifiers, and BadgerStore
// (in-memory BadgerDB) when the index should live outside the Go heap.
//
// Example:
//
//	mgr := schema.NewManager(g, log)
//	if err := mgr.AddUniqueConstraint("unique_email", "User", "email"); err != nil {
//		return err
//	}
//	byCity, _ := mgr.AddIndex("user_city", hypergraph.VertexLabelIn[uint64]("User"),
//		schema.ByProperty[uint64]("city"), schema.NewBitmapStore())
//
//	_, err := g.AddVertex("User", func(v *hypergraph.Vertex[uint64]) {
//		v.Properties().Set("email", "alice@example.com")
//	})
//	// a second User with the same email fails with errors.Is(err, hypergraph.ErrVetoed)
//
//	berliners, _ := byCity.Lookup("Berlin")
package schema

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/orneryd/hypergraph/pkg/hypergraph"
	"github.com/orneryd/hypergraph/pkg/logging"
)

// Common errors
var (
	ErrIndexExists         = errors.New("index already exists")
	ErrIndexNotFound       = errors.New("index not found")
	ErrConstraintExists    = errors.New("constraint already exists")
	ErrConstraintNotFound  = errors.New("constraint not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidDefinition   = errors.New("invalid schema definition")
)

// Manager owns the indexes and constraints of one graph.
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
type Manager[ID cmp.Ordered] struct {
	graph *hypergraph.Graph[ID]
	log   *logging.Logger

	mu          sync.RWMutex
	indexes     map[string]*PropertyIndex[ID]
	constraints map[string]Constraint
	cancels     map[string][]func()
}

// NewManager creates a manager for g. A nil logger discards output.
func NewManager[ID cmp.Ordered](g *hypergraph.Graph[ID], log *logging.Logger) *Manager[ID] {
	if log == nil {
		log = logging.Noop()
	}
	return &Manager[ID]{
		graph:       g,
		log:         log,
		indexes:     make(map[string]*PropertyIndex[ID]),
		constraints: make(map[string]Constraint),
		cancels:     make(map[string][]func()),
	}
}

// AddIndex registers a property index and backfills it from the vertices
// already in the graph. selector may be nil to consider every vertex.
func (m *Manager[ID]) AddIndex(name string, selector hypergraph.VertexFilter[ID], transform Transform[ID], store Store[ID]) (*PropertyIndex[ID], error) {
	if name == "" || transform == nil || store == nil {
		return nil, fmt.Errorf("%w: index needs a name, a transform and a store", ErrInvalidDefinition)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.indexes[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrIndexExists, name)
	}

	idx := newPropertyIndex(name, m.graph, selector, transform, store, func(err error) {
		m.log.Error("index maintenance failed", "index", name, "error", err)
	})
	ev := m.graph.Events()
	cancels := []func(){
		ev.VertexAdded.Subscribe(func(v *hypergraph.Vertex[ID]) { idx.report(idx.insert(v)) }),
		ev.VertexRemoved.Subscribe(func(v *hypergraph.Vertex[ID]) { idx.report(idx.remove(v)) }),
		ev.Cleared.Subscribe(func(*hypergraph.Graph[ID]) { idx.report(idx.reset()) }),
	}
	// Subscribed first so no vertex added during the backfill is missed;
	// insert is idempotent.
	for _, v := range m.graph.Vertices(nil) {
		if err := idx.insert(v); err != nil {
			cancelAll(cancels)
			return nil, err
		}
	}

	m.indexes[name] = idx
	m.cancels[indexKey(name)] = cancels
	m.log.Info("index created", "index", name, "entries", idx.Len())
	return idx, nil
}

// Index returns the index registered under name.
func (m *Manager[ID]) Index(name string) (*PropertyIndex[ID], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[name]
	return idx, ok
}

// Indexes returns the names of all indexes, sorted.
func (m *Manager[ID]) Indexes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.indexes))
	for name := range m.indexes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DropIndex unsubscribes the index and closes its store.
func (m *Manager[ID]) DropIndex(name string) error {
	m.mu.Lock()
	idx, ok := m.indexes[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	delete(m.indexes, name)
	cancelAll(m.cancels[indexKey(name)])
	delete(m.cancels, indexKey(name))
	m.mu.Unlock()

	return idx.store.Close()
}

// AddUniqueConstraint requires property to be unique among vertices of
// label. Existing vertices are checked first; a duplicate fails with an
// error matching ErrConstraintViolation and nothing is registered.
//
// Like every constraint it is checked when a vertex is added; later property
// edits are not re-validated.
func (m *Manager[ID]) AddUniqueConstraint(name, label, property string) error {
	def := Constraint{Name: name, Type: ConstraintUnique, Label: label, Properties: []string{property}}
	if err := validateDefinition(def); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.constraints[name]; exists {
		return fmt.Errorf("%w: %s", ErrConstraintExists, name)
	}

	c := newUniqueConstraint[ID](def)
	ev := m.graph.Events()
	cancels := []func(){
		ev.VertexAdding.Subscribe(c.vote),
		ev.Vetoed.Subscribe(func(v *hypergraph.VetoError) {
			if id, ok := v.ID.(ID); ok && v.Kind == hypergraph.KindVertex {
				c.release(id)
			}
		}),
		ev.VertexRemoved.Subscribe(func(v *hypergraph.Vertex[ID]) { c.release(v.ID()) }),
		ev.Cleared.Subscribe(func(*hypergraph.Graph[ID]) { c.reset() }),
	}
	if err := c.seed(m.graph.VerticesByLabel(label)); err != nil {
		cancelAll(cancels)
		return err
	}

	m.constraints[name] = def
	m.cancels[constraintKey(name)] = cancels
	m.log.Info("constraint created", "constraint", name, "type", string(def.Type), "label", label)
	return nil
}

// AddExistsConstraint requires every vertex of label to carry all of
// properties when it is added. Existing vertices are checked first.
func (m *Manager[ID]) AddExistsConstraint(name, label string, properties ...string) error {
	def := Constraint{Name: name, Type: ConstraintExists, Label: label, Properties: properties}
	if err := validateDefinition(def); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.constraints[name]; exists {
		return fmt.Errorf("%w: %s", ErrConstraintExists, name)
	}

	c := &existsConstraint[ID]{def: def}
	for _, v := range m.graph.VerticesByLabel(label) {
		if err := c.vote(v); err != nil {
			return err
		}
	}

	m.constraints[name] = def
	m.cancels[constraintKey(name)] = []func(){m.graph.Events().VertexAdding.Subscribe(c.vote)}
	m.log.Info("constraint created", "constraint", name, "type", string(def.Type), "label", label)
	return nil
}

// Constraints returns every registered constraint, sorted by name.
func (m *Manager[ID]) Constraints() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Constraint, 0, len(m.constraints))
	for _, c := range m.constraints {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Constraint) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// DropConstraint unregisters a constraint.
func (m *Manager[ID]) DropConstraint(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.constraints[name]; !ok {
		return fmt.Errorf("%w: %s", ErrConstraintNotFound, name)
	}
	delete(m.constraints, name)
	cancelAll(m.cancels[constraintKey(name)])
	delete(m.cancels, constraintKey(name))
	return nil
}

// Close drops every index and constraint.
func (m *Manager[ID]) Close() error {
	var errs []error
	for _, name := range m.Indexes() {
		if err := m.DropIndex(name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range m.Constraints() {
		if err := m.DropConstraint(c.Name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateDefinition(def Constraint) error {
	if def.Name == "" || def.Label == "" || len(def.Properties) == 0 {
		return fmt.Errorf("%w: constraint needs a name, a label and a property", ErrInvalidDefinition)
	}
	for _, p := range def.Properties {
		if p == "" {
			return fmt.Errorf("%w: empty property in %s", ErrInvalidDefinition, def.Name)
		}
	}
	return nil
}

func indexKey(name string) string      { return "index:" + name }
func constraintKey(name string) string { return "constraint:" + name }

func cancelAll(cancels []func()) {
	for _, cancel := range cancels {
		cancel()
	}
}
