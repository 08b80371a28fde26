// Package idgen provides identifier sources for hypergraph.IDCreator.
//
// Three flavours are offered:
//   - Sequence: monotonically increasing uint64, the default for numeric graphs
//   - UUIDs: random RFC 4122 strings, for graphs merged from several writers
//   - Digest: deterministic, namespace-scoped hex strings, for reproducible
//     fixtures and tests
//
// All sources are safe for concurrent use.
package idgen

import (
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Sequence issues increasing uint64 identifiers.
type Sequence struct {
	last atomic.Uint64
}

// NewSequence returns a sequence whose first identifier is start+1.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.last.Store(start)
	return s
}

// Next returns the next identifier.
func (s *Sequence) Next() uint64 { return s.last.Add(1) }

// Last returns the most recently issued identifier, or the start value.
func (s *Sequence) Last() uint64 { return s.last.Load() }

// Advance moves the sequence past id so that explicitly inserted
// identifiers are never issued again. Lower values are ignored.
func (s *Sequence) Advance(id uint64) {
	for {
		cur := s.last.Load()
		if id <= cur || s.last.CompareAndSwap(cur, id) {
			return
		}
	}
}

// UUIDs returns a source of random version 4 UUID strings.
func UUIDs() func() string {
	return func() string { return uuid.NewString() }
}

// Digest issues deterministic string identifiers: the hex encoded
// BLAKE2b-256 hash of the namespace and a per-digest counter, truncated to
// Size bytes. Two digests with the same namespace issue the same sequence.
type Digest struct {
	namespace []byte
	size      int
	counter   atomic.Uint64
}

// DefaultDigestSize is the identifier length in bytes (32 hex characters).
const DefaultDigestSize = 16

// NewDigest returns a digest for namespace. size is clamped to [8, 32];
// zero selects DefaultDigestSize.
func NewDigest(namespace string, size int) *Digest {
	switch {
	case size == 0:
		size = DefaultDigestSize
	case size < 8:
		size = 8
	case size > blake2b.Size256:
		size = blake2b.Size256
	}
	return &Digest{namespace: []byte(namespace), size: size}
}

// Next returns the next identifier.
func (d *Digest) Next() string {
	return d.At(d.counter.Add(1))
}

// At returns the identifier issued for the n-th call to Next.
func (d *Digest) At(n uint64) string {
	buf := make([]byte, 0, len(d.namespace)+1+8)
	buf = append(buf, d.namespace...)
	buf = append(buf, 0)
	buf = binary.BigEndian.AppendUint64(buf, n)
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:d.size])
}
