package schema

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/orneryd/hypergraph/pkg/hypergraph"
	"github.com/orneryd/hypergraph/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T) *hypergraph.Graph[uint64] {
	t.Helper()
	seq := idgen.NewSequence(0)
	g, err := hypergraph.NewGraph[uint64](1, hypergraph.WithIDCreator(hypergraph.FromSource(seq.Next)))
	require.NoError(t, err)
	return g
}

func addUser(g *hypergraph.Graph[uint64], props map[string]any) (*hypergraph.Vertex[uint64], error) {
	return g.AddVertex("User", func(v *hypergraph.Vertex[uint64]) {
		for k, val := range props {
			_ = v.Properties().Set(k, val)
		}
	})
}

func vertexIDs(vs []*hypergraph.Vertex[uint64]) []uint64 {
	out := make([]uint64, len(vs))
	for i, v := range vs {
		out[i] = v.ID()
	}
	return out
}

func TestManager_UniqueConstraint(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	require.NoError(t, mgr.AddUniqueConstraint("unique_email", "User", "email"))

	alice, err := addUser(g, map[string]any{"email": "alice@example.com"})
	require.NoError(t, err)

	t.Run("duplicate is vetoed", func(t *testing.T) {
		v, err := addUser(g, map[string]any{"email": "alice@example.com"})
		assert.Nil(t, v)
		assert.ErrorIs(t, err, hypergraph.ErrVetoed)
		assert.ErrorIs(t, err, ErrConstraintViolation)

		var violation *ConstraintViolationError
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "unique_email", violation.Constraint)
		assert.Equal(t, alice.ID(), violation.Existing)
		assert.Equal(t, 1, g.NumberOfVertices(nil))
	})

	t.Run("other labels are not constrained", func(t *testing.T) {
		_, err := g.AddVertex("Admin", func(v *hypergraph.Vertex[uint64]) {
			_ = v.Properties().Set("email", "alice@example.com")
		})
		assert.NoError(t, err)
	})

	t.Run("missing property is allowed", func(t *testing.T) {
		_, err := addUser(g, nil)
		assert.NoError(t, err)
	})

	t.Run("removal releases the value", func(t *testing.T) {
		_, err := g.RemoveVertices(alice)
		require.NoError(t, err)
		_, err = addUser(g, map[string]any{"email": "alice@example.com"})
		assert.NoError(t, err)
	})

	t.Run("veto by a later voter releases the reservation", func(t *testing.T) {
		cancel := g.Events().VertexAdding.Subscribe(func(*hypergraph.Vertex[uint64]) error {
			return errors.New("maintenance")
		})
		_, err := addUser(g, map[string]any{"email": "bob@example.com"})
		require.ErrorIs(t, err, hypergraph.ErrVetoed)
		cancel()

		_, err = addUser(g, map[string]any{"email": "bob@example.com"})
		assert.NoError(t, err)
	})

	t.Run("numeric values compare across types", func(t *testing.T) {
		require.NoError(t, mgr.AddUniqueConstraint("unique_badge", "User", "badge"))
		_, err := addUser(g, map[string]any{"badge": 7})
		require.NoError(t, err)
		_, err = addUser(g, map[string]any{"badge": 7.0})
		assert.ErrorIs(t, err, ErrConstraintViolation)
	})

	t.Run("drop", func(t *testing.T) {
		require.NoError(t, mgr.DropConstraint("unique_email"))
		_, err := addUser(g, map[string]any{"email": "bob@example.com"})
		assert.NoError(t, err)
		assert.ErrorIs(t, mgr.DropConstraint("unique_email"), ErrConstraintNotFound)
	})
}

func TestManager_UniqueConstraintConcurrent(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	require.NoError(t, mgr.AddUniqueConstraint("unique_email", "User", "email"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := addUser(g, map[string]any{"email": "same@example.com"}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, g.NumberOfVertices(nil))
}

func TestManager_UniqueConstraintOnExistingData(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	_, err := addUser(g, map[string]any{"email": "x"})
	require.NoError(t, err)
	_, err = addUser(g, map[string]any{"email": "x"})
	require.NoError(t, err)

	err = mgr.AddUniqueConstraint("unique_email", "User", "email")
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Empty(t, mgr.Constraints())
	assert.Equal(t, 0, g.Events().VertexAdding.Len())
}

func TestManager_ExistsConstraint(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	require.NoError(t, mgr.AddExistsConstraint("user_email_name", "User", "email", "name"))

	_, err := addUser(g, map[string]any{"email": "a"})
	var violation *ConstraintViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, ConstraintExists, violation.Type)
	assert.Equal(t, "name", violation.Property)

	_, err = addUser(g, map[string]any{"email": "a", "name": "A"})
	assert.NoError(t, err)

	assert.ErrorIs(t, mgr.AddExistsConstraint("user_email_name", "User", "email"), ErrConstraintExists)
	assert.ErrorIs(t, mgr.AddExistsConstraint("", "User", "email"), ErrInvalidDefinition)
	assert.ErrorIs(t, mgr.AddExistsConstraint("bad", "User"), ErrInvalidDefinition)

	assert.Equal(t, []Constraint{{
		Name: "user_email_name", Type: ConstraintExists, Label: "User", Properties: []string{"email", "name"},
	}}, mgr.Constraints())
}

func TestManager_PropertyIndex(t *testing.T) {
	stores := map[string]func(t *testing.T) Store[uint64]{
		"map":    func(*testing.T) Store[uint64] { return NewMapStore[uint64]() },
		"bitmap": func(*testing.T) Store[uint64] { return NewBitmapStore() },
		"badger": func(t *testing.T) Store[uint64] {
			s, err := NewBadgerStore[uint64](Uint64Codec{})
			require.NoError(t, err)
			return s
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			g := newGraph(t)
			mgr := NewManager(g, nil)
			t.Cleanup(func() { _ = mgr.Close() })

			berlin, err := addUser(g, map[string]any{"city": "Berlin"})
			require.NoError(t, err)
			_, err = addUser(g, map[string]any{"city": "Paris"})
			require.NoError(t, err)
			_, err = g.AddVertex("Company", func(v *hypergraph.Vertex[uint64]) {
				_ = v.Properties().Set("city", "Berlin")
			})
			require.NoError(t, err)

			idx, err := mgr.AddIndex("user_city", hypergraph.VertexLabelIn[uint64]("User"),
				ByProperty[uint64]("city"), newStore(t))
			require.NoError(t, err)
			assert.Equal(t, 2, idx.Len(), "backfilled from existing vertices")
			keys, err := idx.Keys()
			require.NoError(t, err)
			assert.Equal(t, 2, keys)

			later, err := addUser(g, map[string]any{"city": "Berlin"})
			require.NoError(t, err)
			_, err = addUser(g, nil)
			require.NoError(t, err)

			found, err := idx.Lookup("Berlin")
			require.NoError(t, err)
			assert.Equal(t, []uint64{berlin.ID(), later.ID()}, vertexIDs(found))

			missing, err := idx.Lookup("Rome")
			require.NoError(t, err)
			assert.Empty(t, missing)

			t.Run("removal", func(t *testing.T) {
				_, err := g.RemoveVertices(berlin)
				require.NoError(t, err)
				ids, err := idx.LookupIDs("Berlin")
				require.NoError(t, err)
				assert.Equal(t, []uint64{later.ID()}, ids)
			})

			t.Run("refresh after edit", func(t *testing.T) {
				require.NoError(t, later.Properties().Set("city", "Paris"))
				require.NoError(t, idx.Refresh(later))
				ids, err := idx.LookupIDs("Paris")
				require.NoError(t, err)
				assert.Len(t, ids, 2)
				ids, err = idx.LookupIDs("Berlin")
				require.NoError(t, err)
				assert.Empty(t, ids)
			})

			t.Run("clear", func(t *testing.T) {
				g.Clear()
				assert.Equal(t, 0, idx.Len())
				keys, err := idx.Keys()
				require.NoError(t, err)
				assert.Equal(t, 0, keys)
			})
		})
	}
}

func TestManager_IndexNumericKeys(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	idx, err := mgr.AddIndex("age", nil, ByProperty[uint64]("age"), NewMapStore[uint64]())
	require.NoError(t, err)

	for _, age := range []any{30, int64(30), 30.0, "30", 31.5} {
		_, err := addUser(g, map[string]any{"age": age})
		require.NoError(t, err)
	}

	ids, err := idx.LookupIDs(uint8(30))
	require.NoError(t, err)
	assert.Len(t, ids, 3, "string 30 is a different key")
	ids, err = idx.LookupIDs(31.5)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestManager_LargeIntegerKeys(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	t.Cleanup(func() { _ = mgr.Close() })
	require.NoError(t, mgr.AddUniqueConstraint("unique_n", "User", "n"))
	idx, err := mgr.AddIndex("n", nil, ByProperty[uint64]("n"), NewMapStore[uint64]())
	require.NoError(t, err)

	// Adjacent integers above 2^53 share a float64 representation.
	first, err := addUser(g, map[string]any{"n": int64(1 << 53)})
	require.NoError(t, err)
	second, err := addUser(g, map[string]any{"n": int64(1<<53 + 1)})
	require.NoError(t, err, "distinct value must not be vetoed")
	huge, err := addUser(g, map[string]any{"n": uint64(math.MaxUint64)})
	require.NoError(t, err)
	_, err = addUser(g, map[string]any{"n": uint64(math.MaxUint64 - 1)})
	require.NoError(t, err)

	ids, err := idx.LookupIDs(int64(1 << 53))
	require.NoError(t, err)
	assert.Equal(t, []uint64{first.ID()}, ids)
	ids, err = idx.LookupIDs(uint64(1<<53 + 1))
	require.NoError(t, err)
	assert.Equal(t, []uint64{second.ID()}, ids)
	ids, err = idx.LookupIDs(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, []uint64{huge.ID()}, ids)

	_, err = addUser(g, map[string]any{"n": int64(1<<53 + 1)})
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestManager_IndexSkipsVertexRemovedByEarlierListener(t *testing.T) {
	g := newGraph(t)
	cancel := g.Events().VertexAdded.Subscribe(func(v *hypergraph.Vertex[uint64]) {
		if v.Properties().Get("temp") == true {
			_, _ = g.RemoveVertices(v)
		}
	})
	t.Cleanup(cancel)

	mgr := NewManager(g, nil)
	t.Cleanup(func() { _ = mgr.Close() })
	idx, err := mgr.AddIndex("city", nil, ByProperty[uint64]("city"), NewMapStore[uint64]())
	require.NoError(t, err)

	kept, err := addUser(g, map[string]any{"city": "Oslo"})
	require.NoError(t, err)
	_, err = addUser(g, map[string]any{"city": "Oslo", "temp": true})
	require.NoError(t, err)

	assert.Equal(t, 1, g.NumberOfVertices(nil))
	ids, err := idx.LookupIDs("Oslo")
	require.NoError(t, err)
	assert.Equal(t, []uint64{kept.ID()}, ids)
	assert.Equal(t, 1, idx.Len())
}

func TestManager_CompositeIndex(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	idx, err := mgr.AddIndex("name", nil, ByProperties[uint64]("first", "last"), NewMapStore[uint64]())
	require.NoError(t, err)

	for _, n := range [][2]string{{"Ada", "Lovelace"}, {"Alan", "Turing"}, {"Ada", "Turing"}} {
		_, err := addUser(g, map[string]any{"first": n[0], "last": n[1]})
		require.NoError(t, err)
	}
	_, err = addUser(g, map[string]any{"first": "Ada"})
	require.NoError(t, err)

	found, err := idx.Lookup(NewCompositeKey("Ada", "Turing"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Turing", found[0].Properties().Get("last"))
	assert.Equal(t, 3, idx.Len())
}

func TestManager_IndexLifecycle(t *testing.T) {
	g := newGraph(t)
	mgr := NewManager(g, nil)
	_, err := mgr.AddIndex("a", nil, ByProperty[uint64]("x"), NewMapStore[uint64]())
	require.NoError(t, err)

	_, err = mgr.AddIndex("a", nil, ByProperty[uint64]("x"), NewMapStore[uint64]())
	assert.ErrorIs(t, err, ErrIndexExists)
	_, err = mgr.AddIndex("b", nil, nil, NewMapStore[uint64]())
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, ok := mgr.Index("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, mgr.Indexes())
	assert.Equal(t, 1, g.Events().VertexAdded.Len())

	require.NoError(t, mgr.DropIndex("a"))
	assert.ErrorIs(t, mgr.DropIndex("a"), ErrIndexNotFound)
	assert.Equal(t, 0, g.Events().VertexAdded.Len())
	assert.Empty(t, mgr.Indexes())
}

func TestCompositeKey(t *testing.T) {
	assert.Equal(t, NewCompositeKey("a", 1).Hash, NewCompositeKey("a", int64(1)).Hash)
	assert.NotEqual(t, NewCompositeKey("a", 1).Hash, NewCompositeKey("a", "1").Hash)
	assert.NotEqual(t, NewCompositeKey("ab", "c").Hash, NewCompositeKey("a", "bc").Hash)
	assert.Equal(t, NewCompositeKey("x").Hash, fmt.Sprint(NewCompositeKey("x")))
}
