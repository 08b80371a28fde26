package schema

import (
	"cmp"
	"slices"
	"sync"
)

// Store is the backing store of a PropertyIndex: a multimap from normalized
// index key to vertex identifiers. Keys arrive already normalized by
// convert.KeyString. Lookup returns identifiers in ascending order.
//
// Implementations must be safe for concurrent use.
type Store[ID cmp.Ordered] interface {
	Add(key string, id ID) error
	Remove(key string, id ID) error
	Lookup(key string) ([]ID, error)
	// Keys returns the number of distinct keys.
	Keys() (int, error)
	Clear() error
	Close() error
}

// MapStore keeps the index in Go maps.
type MapStore[ID cmp.Ordered] struct {
	mu   sync.RWMutex
	sets map[string]map[ID]struct{}
}

// NewMapStore creates an empty map-backed store.
func NewMapStore[ID cmp.Ordered]() *MapStore[ID] {
	return &MapStore[ID]{sets: make(map[string]map[ID]struct{})}
}

func (s *MapStore[ID]) Add(key string, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[ID]struct{})
		s.sets[key] = set
	}
	set[id] = struct{}{}
	return nil
}

func (s *MapStore[ID]) Remove(key string, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	delete(set, id)
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return nil
}

func (s *MapStore[ID]) Lookup(key string) ([]ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.sets[key]
	out := make([]ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

func (s *MapStore[ID]) Keys() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets), nil
}

func (s *MapStore[ID]) Clear() error {
	s.mu.Lock()
	s.sets = make(map[string]map[ID]struct{})
	s.mu.Unlock()
	return nil
}

func (s *MapStore[ID]) Close() error { return s.Clear() }
