package hypergraph

import (
	"maps"
	"slices"
	"sync"

	"github.com/orneryd/hypergraph/pkg/convert"
)

// Default keys under which every property bag stores the element identifier
// and its revision.
const (
	DefaultIDKey       = "Id"
	DefaultRevisionKey = "RevId"
)

// Revision is an ordered version marker. It starts at 1 and advances on
// every property mutation. The engine does not enforce it; callers may use
// it for optimistic concurrency checks.
type Revision uint64

// Properties is the key/value bag owned by a single element.
//
// The identifier and revision entries are always present and cannot be
// overwritten or removed through Set/Remove.
type Properties struct {
	mu     sync.RWMutex
	idKey  string
	revKey string
	values map[string]any
}

func newProperties(idKey, revKey string, id any) *Properties {
	return &Properties{
		idKey:  idKey,
		revKey: revKey,
		values: map[string]any{
			idKey:  id,
			revKey: Revision(1),
		},
	}
}

// Get returns the value under key, or nil.
func (p *Properties) Get(key string) any {
	v, _ := p.TryGet(key)
	return v
}

// TryGet returns the value under key and whether it was present.
func (p *Properties) TryGet(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok
}

// Contains reports whether key is present.
func (p *Properties) Contains(key string) bool {
	_, ok := p.TryGet(key)
	return ok
}

// Set stores value under key and advances the revision.
func (p *Properties) Set(key string, value any) error {
	if key == "" {
		return invalidArg("empty property key")
	}
	if p.reserved(key) {
		return ErrReservedKey
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	p.bumpLocked()
	return nil
}

// Remove deletes key and returns the previous value.
func (p *Properties) Remove(key string) (any, error) {
	if p.reserved(key) {
		return nil, ErrReservedKey
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	old, ok := p.values[key]
	if !ok {
		return nil, ErrPropertyNotFound
	}
	delete(p.values, key)
	p.bumpLocked()
	return old, nil
}

// Revision returns the current revision.
func (p *Properties) Revision() Revision {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[p.revKey].(Revision)
}

// IDKey returns the key holding the element identifier.
func (p *Properties) IDKey() string { return p.idKey }

// RevisionKey returns the key holding the revision.
func (p *Properties) RevisionKey() string { return p.revKey }

// Len returns the number of entries, including the reserved ones.
func (p *Properties) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.values)
}

// Keys returns all keys, sorted.
func (p *Properties) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.values))
}

// Snapshot returns a copy of the bag.
func (p *Properties) Snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.values)
}

// Range calls fn for each entry in key order until fn returns false.
// fn must not mutate the bag.
func (p *Properties) Range(fn func(key string, value any) bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, k := range slices.Sorted(maps.Keys(p.values)) {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// GetString returns the value under key rendered as a string.
func (p *Properties) GetString(key string) (string, bool) {
	return convert.ToString(p.Get(key))
}

// GetInt64 returns the value under key coerced to int64.
func (p *Properties) GetInt64(key string) (int64, bool) {
	return convert.ToInt64(p.Get(key))
}

// GetFloat64 returns the value under key coerced to float64.
func (p *Properties) GetFloat64(key string) (float64, bool) {
	return convert.ToFloat64(p.Get(key))
}

// GetBool returns the value under key coerced to bool.
func (p *Properties) GetBool(key string) (bool, bool) {
	return convert.ToBool(p.Get(key))
}

func (p *Properties) reserved(key string) bool {
	return key == p.idKey || key == p.revKey
}

func (p *Properties) bumpLocked() {
	p.values[p.revKey] = p.values[p.revKey].(Revision) + 1
}
