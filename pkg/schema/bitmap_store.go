package schema

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// BitmapStore keeps one compressed Roaring bitmap of uint64 identifiers per
// key. Dense numeric identifier ranges, as issued by idgen.Sequence,
// compress well and intersect cheaply.
type BitmapStore struct {
	mu   sync.RWMutex
	sets map[string]*roaring64.Bitmap
}

// NewBitmapStore creates an empty bitmap-backed store.
func NewBitmapStore() *BitmapStore {
	return &BitmapStore{sets: make(map[string]*roaring64.Bitmap)}
}

func (s *BitmapStore) Add(key string, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rb, ok := s.sets[key]
	if !ok {
		rb = roaring64.New()
		s.sets[key] = rb
	}
	rb.Add(id)
	return nil
}

func (s *BitmapStore) Remove(key string, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rb, ok := s.sets[key]
	if !ok {
		return nil
	}
	rb.Remove(id)
	if rb.IsEmpty() {
		delete(s.sets, key)
	}
	return nil
}

func (s *BitmapStore) Lookup(key string) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rb, ok := s.sets[key]
	if !ok {
		return []uint64{}, nil
	}
	return rb.ToArray(), nil
}

// Bitmap returns a copy of the bitmap under key, or an empty bitmap.
// Callers may combine copies with And/Or for multi-key queries.
func (s *BitmapStore) Bitmap(key string) *roaring64.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rb, ok := s.sets[key]; ok {
		return rb.Clone()
	}
	return roaring64.New()
}

func (s *BitmapStore) Keys() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets), nil
}

func (s *BitmapStore) Clear() error {
	s.mu.Lock()
	s.sets = make(map[string]*roaring64.Bitmap)
	s.mu.Unlock()
	return nil
}

func (s *BitmapStore) Close() error { return s.Clear() }
