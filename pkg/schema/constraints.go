package schema

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/orneryd/hypergraph/pkg/convert"
	"github.com/orneryd/hypergraph/pkg/hypergraph"
)

// ConstraintType represents the type of constraint.
type ConstraintType string

const (
	ConstraintUnique ConstraintType = "UNIQUE"
	ConstraintExists ConstraintType = "EXISTS"
)

// Constraint describes a registered constraint.
type Constraint struct {
	Name       string
	Type       ConstraintType
	Label      string
	Properties []string
}

// ConstraintViolationError is the veto reason reported by constraints. It
// matches ErrConstraintViolation.
type ConstraintViolationError struct {
	Constraint string
	Type       ConstraintType
	Label      string
	Property   string
	Value      any
	// Existing is the identifier already holding Value (unique only).
	Existing any
}

func (e *ConstraintViolationError) Error() string {
	switch e.Type {
	case ConstraintUnique:
		return fmt.Sprintf("constraint %s: %s.%s = %v already used by %v",
			e.Constraint, e.Label, e.Property, e.Value, e.Existing)
	default:
		return fmt.Sprintf("constraint %s: %s requires property %s",
			e.Constraint, e.Label, e.Property)
	}
}

func (e *ConstraintViolationError) Is(target error) bool { return target == ErrConstraintViolation }

// uniqueConstraint enforces that no two vertices of Label share a value of
// Property. The value is reserved during the VertexAdding vote, under the
// graph lock, so concurrent adds cannot both claim it. A reservation is
// released when the vertex is vetoed later or removed.
type uniqueConstraint[ID cmp.Ordered] struct {
	def Constraint

	mu     sync.Mutex
	owners map[any]ID // comparable value -> vertex id
	byID   map[ID]any
}

func newUniqueConstraint[ID cmp.Ordered](def Constraint) *uniqueConstraint[ID] {
	return &uniqueConstraint[ID]{
		def:    def,
		owners: make(map[any]ID),
		byID:   make(map[ID]any),
	}
}

func (c *uniqueConstraint[ID]) property() string { return c.def.Properties[0] }

func (c *uniqueConstraint[ID]) applies(v *hypergraph.Vertex[ID]) (any, bool) {
	if v.Label() != c.def.Label {
		return nil, false
	}
	raw, ok := v.Properties().TryGet(c.property())
	if !ok {
		return nil, false
	}
	return convert.ComparableKey(raw), true
}

// vote reserves the value for v or rejects v.
func (c *uniqueConstraint[ID]) vote(v *hypergraph.Vertex[ID]) error {
	key, ok := c.applies(v)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, taken := c.owners[key]; taken && owner != v.ID() {
		return &ConstraintViolationError{
			Constraint: c.def.Name,
			Type:       ConstraintUnique,
			Label:      c.def.Label,
			Property:   c.property(),
			Value:      v.Properties().Get(c.property()),
			Existing:   owner,
		}
	}
	c.owners[key] = v.ID()
	c.byID[v.ID()] = key
	return nil
}

func (c *uniqueConstraint[ID]) release(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.byID[id]
	if !ok {
		return
	}
	delete(c.byID, id)
	if c.owners[key] == id {
		delete(c.owners, key)
	}
}

func (c *uniqueConstraint[ID]) reset() {
	c.mu.Lock()
	c.owners = make(map[any]ID)
	c.byID = make(map[ID]any)
	c.mu.Unlock()
}

// seed claims values of already registered vertices. It fails on the first
// duplicate, leaving the constraint empty.
func (c *uniqueConstraint[ID]) seed(vs []*hypergraph.Vertex[ID]) error {
	for _, v := range vs {
		if err := c.vote(v); err != nil {
			c.reset()
			return err
		}
	}
	return nil
}

// existsConstraint rejects vertices of Label missing any of Properties.
type existsConstraint[ID cmp.Ordered] struct {
	def Constraint
}

func (c *existsConstraint[ID]) vote(v *hypergraph.Vertex[ID]) error {
	if v.Label() != c.def.Label {
		return nil
	}
	for _, p := range c.def.Properties {
		if !v.Properties().Contains(p) {
			return &ConstraintViolationError{
				Constraint: c.def.Name,
				Type:       ConstraintExists,
				Label:      c.def.Label,
				Property:   p,
			}
		}
	}
	return nil
}
