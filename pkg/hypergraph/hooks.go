package hypergraph

import "sync"

// subscribers is a registration-ordered list of callbacks that can be
// cancelled individually.
type subscribers[F any] struct {
	mu      sync.RWMutex
	nextKey uint64
	entries []subscriber[F]
}

type subscriber[F any] struct {
	key uint64
	fn  F
}

func (s *subscribers[F]) add(fn F) func() {
	s.mu.Lock()
	s.nextKey++
	key := s.nextKey
	s.entries = append(s.entries, subscriber[F]{key: key, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, e := range s.entries {
				if e.key == key {
					s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *subscribers[F]) snapshot() []F {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fns := make([]F, len(s.entries))
	for i, e := range s.entries {
		fns[i] = e.fn
	}
	return fns
}

func (s *subscribers[F]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Vote is a vetoable "adding" event. Voters run synchronously in
// registration order; the first one returning a non-nil error vetoes the
// mutation and later voters are not consulted.
//
// Voters run while the graph holds its write lock. They may inspect the
// pending element but must not call back into the graph.
type Vote[T any] struct {
	subs subscribers[func(T) error]
}

// Subscribe registers a voter and returns a function that unregisters it.
func (v *Vote[T]) Subscribe(fn func(T) error) (cancel func()) {
	return v.subs.add(fn)
}

// Len returns the number of registered voters.
func (v *Vote[T]) Len() int { return v.subs.len() }

func (v *Vote[T]) run(pending T) error {
	for _, fn := range v.subs.snapshot() {
		if err := fn(pending); err != nil {
			return err
		}
	}
	return nil
}

// Notify is an informational event. Listeners run synchronously in
// registration order after the graph lock has been released, so they may
// read from the graph.
type Notify[T any] struct {
	subs subscribers[func(T)]
}

// Subscribe registers a listener and returns a function that unregisters it.
func (n *Notify[T]) Subscribe(fn func(T)) (cancel func()) {
	return n.subs.add(fn)
}

// Len returns the number of registered listeners.
func (n *Notify[T]) Len() int { return n.subs.len() }

func (n *Notify[T]) fire(v T) {
	for _, fn := range n.subs.snapshot() {
		fn(v)
	}
}
