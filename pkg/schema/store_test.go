package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	badgerStore, err := NewBadgerStore[uint64](Uint64Codec{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })

	stores := map[string]Store[uint64]{
		"map":    NewMapStore[uint64](),
		"bitmap": NewBitmapStore(),
		"badger": badgerStore,
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			keys := func() int {
				n, err := s.Keys()
				require.NoError(t, err)
				return n
			}
			require.NoError(t, s.Add("s:a", 3))
			require.NoError(t, s.Add("s:a", 1))
			require.NoError(t, s.Add("s:a", 1))
			require.NoError(t, s.Add("s:ab", 2))
			require.NoError(t, s.Add("s:b", 300))

			ids, err := s.Lookup("s:a")
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 3}, ids, "sorted, deduplicated, no prefix bleed")
			assert.Equal(t, 3, keys())

			require.NoError(t, s.Remove("s:a", 1))
			require.NoError(t, s.Remove("s:a", 99))
			require.NoError(t, s.Remove("s:zzz", 1))
			ids, err = s.Lookup("s:a")
			require.NoError(t, err)
			assert.Equal(t, []uint64{3}, ids)

			require.NoError(t, s.Remove("s:b", 300))
			assert.Equal(t, 2, keys())

			require.NoError(t, s.Clear())
			assert.Equal(t, 0, keys())
			ids, err = s.Lookup("s:a")
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestBadgerStore_StringIDs(t *testing.T) {
	s, err := NewBadgerStore[string](StringCodec{})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Add("k", "b"))
	require.NoError(t, s.Add("k", "a"))
	ids, err := s.Lookup("k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = NewBadgerStore[string](nil)
	assert.Error(t, err)
}

func TestBadgerStore_KeysReportsClosedDB(t *testing.T) {
	s, err := NewBadgerStore[uint64](Uint64Codec{})
	require.NoError(t, err)
	require.NoError(t, s.Add("k", 1))
	require.NoError(t, s.Close())

	n, err := s.Keys()
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestUint64Codec(t *testing.T) {
	c := Uint64Codec{}
	id, err := c.Decode(c.Encode(1 << 40))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), id)
	_, err = c.Decode([]byte{1, 2})
	assert.Error(t, err)
}
