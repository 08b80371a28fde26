// Package collection provides the label-partitioned index used as the single
// storage primitive of the hypergraph engine.
//
// Elements are filed first under a label and then under a unique identifier.
// Identifiers are unique across the whole index, not per label, so a lookup by
// id never needs to know the label. Every "by label" query in the engine is a
// filter over this structure.
//
// Example:
//
//	idx := collection.NewPartitioned[uint64, string]()
//	idx.TryAdd("person", 1, "alice")
//	idx.TryAdd("person", 2, "bob")
//	idx.TryAdd("city", 3, "berlin")
//
//	idx.ByLabel("person") // ["alice", "bob"]
//	idx.Get(3)            // "berlin", true
//	idx.TryAdd("city", 1, "paris") // false: id 1 is taken
//
// Thread Safety:
//
//	Every method of Partitioned is safe for concurrent use. Composite
//	sequences spanning several calls need external coordination.
package collection

import (
	"cmp"
	"slices"
	"sync"
)

// Index is the contract of a label-partitioned index.
//
// Implementations must be safe for concurrent use. Enumeration order is by
// label, then by identifier.
type Index[K cmp.Ordered, V any] interface {
	// TryAdd files v under label and id. Returns false if id is already present.
	TryAdd(label string, id K, v V) bool
	// TryRemove removes id from label. Returns false if id is absent or
	// filed under a different label.
	TryRemove(label string, id K) bool
	// Contains reports whether id is present under any label.
	Contains(id K) bool
	// Get returns the element filed under id.
	Get(id K) (V, bool)
	// LabelOf returns the label id is filed under.
	LabelOf(id K) (string, bool)
	// Len returns the number of elements across all labels.
	Len() int
	// LenLabel returns the number of elements filed under label.
	LenLabel(label string) int
	// Labels returns the labels with at least one element, sorted.
	Labels() []string
	// All returns every element.
	All() []V
	// IDs returns every identifier.
	IDs() []K
	// ByLabel returns the elements under any of labels. No labels means all.
	ByLabel(labels ...string) []V
	// Range calls fn for every element until fn returns false. fn must not
	// mutate the index.
	Range(fn func(label string, id K, v V) bool)
	// Clear drops every element.
	Clear()
}

// Factory produces a fresh, empty index. The engine receives one factory per
// registry kind so it never depends on a concrete index implementation.
type Factory[K cmp.Ordered, V any] func() Index[K, V]

// Partitioned is the default map-backed Index.
type Partitioned[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	byLabel map[string]map[K]V
	labelOf map[K]string
}

// NewPartitioned creates an empty Partitioned index.
func NewPartitioned[K cmp.Ordered, V any]() *Partitioned[K, V] {
	return &Partitioned[K, V]{
		byLabel: make(map[string]map[K]V),
		labelOf: make(map[K]string),
	}
}

// PartitionedFactory returns a Factory producing Partitioned indexes.
func PartitionedFactory[K cmp.Ordered, V any]() Factory[K, V] {
	return func() Index[K, V] { return NewPartitioned[K, V]() }
}

func (p *Partitioned[K, V]) TryAdd(label string, id K, v V) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.labelOf[id]; exists {
		return false
	}
	bucket := p.byLabel[label]
	if bucket == nil {
		bucket = make(map[K]V)
		p.byLabel[label] = bucket
	}
	bucket[id] = v
	p.labelOf[id] = label
	return true
}

func (p *Partitioned[K, V]) TryRemove(label string, id K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, exists := p.labelOf[id]
	if !exists || current != label {
		return false
	}
	bucket := p.byLabel[label]
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(p.byLabel, label)
	}
	delete(p.labelOf, id)
	return true
}

func (p *Partitioned[K, V]) Contains(id K) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.labelOf[id]
	return exists
}

func (p *Partitioned[K, V]) Get(id K) (V, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	label, exists := p.labelOf[id]
	if !exists {
		var zero V
		return zero, false
	}
	v, ok := p.byLabel[label][id]
	return v, ok
}

func (p *Partitioned[K, V]) LabelOf(id K) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	label, ok := p.labelOf[id]
	return label, ok
}

func (p *Partitioned[K, V]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.labelOf)
}

func (p *Partitioned[K, V]) LenLabel(label string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byLabel[label])
}

func (p *Partitioned[K, V]) Labels() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sortedLabels()
}

func (p *Partitioned[K, V]) All() []V {
	return p.ByLabel()
}

func (p *Partitioned[K, V]) IDs() []K {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]K, 0, len(p.labelOf))
	for _, label := range p.sortedLabels() {
		ids = append(ids, sortedKeys(p.byLabel[label])...)
	}
	return ids
}

func (p *Partitioned[K, V]) ByLabel(labels ...string) []V {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(labels) == 0 {
		labels = p.sortedLabels()
	} else {
		labels = dedupe(labels)
	}

	out := make([]V, 0)
	for _, label := range labels {
		bucket := p.byLabel[label]
		for _, id := range sortedKeys(bucket) {
			out = append(out, bucket[id])
		}
	}
	return out
}

func (p *Partitioned[K, V]) Range(fn func(label string, id K, v V) bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, label := range p.sortedLabels() {
		bucket := p.byLabel[label]
		for _, id := range sortedKeys(bucket) {
			if !fn(label, id, bucket[id]) {
				return
			}
		}
	}
}

func (p *Partitioned[K, V]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byLabel = make(map[string]map[K]V)
	p.labelOf = make(map[K]string)
}

// sortedLabels requires p.mu held.
func (p *Partitioned[K, V]) sortedLabels() []string {
	labels := make([]string, 0, len(p.byLabel))
	for label := range p.byLabel {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func dedupe(labels []string) []string {
	out := slices.Clone(labels)
	slices.Sort(out)
	return slices.Compact(out)
}

var _ Index[string, int] = (*Partitioned[string, int])(nil)
