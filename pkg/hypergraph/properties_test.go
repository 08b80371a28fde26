package hypergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperties(t *testing.T) {
	p := newProperties(DefaultIDKey, DefaultRevisionKey, uint64(42))

	t.Run("reserved entries", func(t *testing.T) {
		assert.Equal(t, uint64(42), p.Get(DefaultIDKey))
		assert.Equal(t, Revision(1), p.Revision())
		assert.Equal(t, []string{DefaultIDKey, DefaultRevisionKey}, p.Keys())
		assert.Equal(t, DefaultIDKey, p.IDKey())
		assert.Equal(t, DefaultRevisionKey, p.RevisionKey())
	})

	t.Run("reserved keys are read only", func(t *testing.T) {
		assert.ErrorIs(t, p.Set(DefaultIDKey, 1), ErrReservedKey)
		assert.ErrorIs(t, p.Set(DefaultRevisionKey, Revision(9)), ErrReservedKey)
		_, err := p.Remove(DefaultIDKey)
		assert.ErrorIs(t, err, ErrReservedKey)
		assert.Equal(t, Revision(1), p.Revision())
	})

	t.Run("set and remove advance the revision", func(t *testing.T) {
		require.NoError(t, p.Set("name", "alice"))
		require.NoError(t, p.Set("name", "bob"))
		assert.Equal(t, Revision(3), p.Revision())

		old, err := p.Remove("name")
		require.NoError(t, err)
		assert.Equal(t, "bob", old)
		assert.Equal(t, Revision(4), p.Revision())

		_, err = p.Remove("name")
		assert.ErrorIs(t, err, ErrPropertyNotFound)
		assert.Equal(t, Revision(4), p.Revision())
	})

	t.Run("empty key", func(t *testing.T) {
		assert.ErrorIs(t, p.Set("", 1), ErrInvalidArgument)
	})

	t.Run("typed accessors", func(t *testing.T) {
		require.NoError(t, p.Set("age", "31"))
		require.NoError(t, p.Set("score", 9))
		require.NoError(t, p.Set("active", "true"))

		age, ok := p.GetInt64("age")
		assert.True(t, ok)
		assert.Equal(t, int64(31), age)
		score, ok := p.GetFloat64("score")
		assert.True(t, ok)
		assert.Equal(t, 9.0, score)
		active, ok := p.GetBool("active")
		assert.True(t, ok)
		assert.True(t, active)
		_, ok = p.GetInt64("missing")
		assert.False(t, ok)
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		snap := p.Snapshot()
		snap["age"] = "changed"
		assert.Equal(t, "31", p.Get("age"))
		assert.Equal(t, p.Len(), len(snap))
	})

	t.Run("range in key order", func(t *testing.T) {
		var keys []string
		p.Range(func(k string, _ any) bool {
			keys = append(keys, k)
			return len(keys) < 2
		})
		assert.Equal(t, []string{DefaultIDKey, DefaultRevisionKey}, keys)
	})
}

func TestProperties_CustomKeys(t *testing.T) {
	g := newTestGraph(t, WithKeys[uint64]("_id", "_rev"))
	v := mustVertex(t, g, 3, "a")
	assert.Equal(t, uint64(3), v.Properties().Get("_id"))
	assert.Nil(t, v.Properties().Get(DefaultIDKey))
	assert.NoError(t, v.Properties().Set(DefaultIDKey, "free to use"))
	assert.ErrorIs(t, v.Properties().Set("_rev", 1), ErrReservedKey)
}
