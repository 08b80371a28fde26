package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/orneryd/hypergraph/pkg/convert"
)

// CompositeKey is a key made of several property values. Hash is stable
// across numeric representations of the same value.
type CompositeKey struct {
	Hash   string
	Values []any
}

// NewCompositeKey builds a composite key from values in order.
func NewCompositeKey(values ...any) CompositeKey {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = convert.KeyString(v)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return CompositeKey{Hash: hex.EncodeToString(sum[:]), Values: values}
}

// String returns the hash, so a CompositeKey normalizes to its hash when
// used as an index key.
func (ck CompositeKey) String() string { return ck.Hash }
