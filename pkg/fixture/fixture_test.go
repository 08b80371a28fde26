package fixture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/hypergraph/pkg/hypergraph"
	"github.com/orneryd/hypergraph/pkg/idgen"
	"github.com/orneryd/hypergraph/pkg/schema"
)

const people = `
indexes:
  - name: person_name
    label: Person
    properties: [name]
constraints:
  - name: person_name_unique
    type: unique
    label: Person
    properties: [name]
vertices:
  - key: alice
    label: Person
    properties: {name: Alice, age: 33}
  - key: bob
    id: "2"
    label: Person
    properties: {name: Bob}
edges:
  - label: knows
    tail: alice
    head: bob
    properties: {since: 2020}
hyperedges:
  - label: team
    vertices: [alice, bob]
multiedges:
  - label: social
    hosts: [alice]
    edge_labels: [knows]
`

type fixtureEnv struct {
	graph  *hypergraph.Graph[uint64]
	seq    *idgen.Sequence
	schema *schema.Manager[uint64]
	loader *Loader[uint64]
}

func newEnv(t *testing.T, workers int) *fixtureEnv {
	t.Helper()
	seq := idgen.NewSequence(0)
	g, err := hypergraph.NewGraph[uint64](1, hypergraph.WithIDCreator(hypergraph.FromSource(seq.Next)))
	require.NoError(t, err)
	mgr := schema.NewManager(g, nil)
	t.Cleanup(func() { _ = mgr.Close() })

	l, err := NewLoader(g, Options[uint64]{
		ParseID: ParseUint64,
		Reserve: seq.Advance,
		Schema:  mgr,
		Workers: workers,
	})
	require.NoError(t, err)
	return &fixtureEnv{graph: g, seq: seq, schema: mgr, loader: l}
}

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func writeFixture(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestParse(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		doc := mustParse(t, people)
		require.Len(t, doc.Vertices, 2)
		assert.Equal(t, "alice", doc.Vertices[0].Key)
		assert.Equal(t, "2", doc.Vertices[1].ID)
		assert.Equal(t, "Alice", doc.Vertices[0].Properties["name"])
		require.Len(t, doc.Edges, 1)
		assert.Equal(t, "knows", doc.Edges[0].Label)
		assert.Equal(t, []string{"alice", "bob"}, doc.HyperEdges[0].Vertices)
		assert.Equal(t, []string{"knows"}, doc.MultiEdges[0].EdgeLabels)
		assert.Len(t, doc.Indexes, 1)
		assert.Len(t, doc.Constraints, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		doc := mustParse(t, "")
		assert.Empty(t, doc.Vertices)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse(strings.NewReader("nodes: []\n"))
		assert.Error(t, err)
	})

	t.Run("file source", func(t *testing.T) {
		path := writeFixture(t, t.TempDir(), "people.yaml", people)
		doc, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, path, doc.Source)

		_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestLoader_Load(t *testing.T) {
	env := newEnv(t, 2)

	res, err := env.loader.Load(context.Background(), mustParse(t, people))
	require.NoError(t, err)
	assert.Equal(t, &Result{
		Documents: 1, Indexes: 1, Constraints: 1,
		Vertices: 2, Edges: 1, HyperEdges: 1, MultiEdges: 1,
	}, res)

	bob, ok := env.loader.Vertex("bob")
	require.True(t, ok)
	assert.Equal(t, uint64(2), bob.ID())

	// explicit ids are reserved before generated ones are issued
	alice, ok := env.loader.Vertex("alice")
	require.True(t, ok)
	assert.Greater(t, alice.ID(), uint64(2))

	assert.Equal(t, 1, alice.OutDegree("knows"))
	assert.Equal(t, 1, bob.InDegree())
	since, ok := alice.OutEdges()[0].Properties().GetInt64("since")
	require.True(t, ok)
	assert.Equal(t, int64(2020), since)

	team := env.graph.HyperEdgesByLabel("team")
	require.Len(t, team, 1)
	assert.True(t, team[0].Contains(bob))
	assert.Equal(t, alice, team[0].Tail())

	social := alice.MultiEdges("social")
	require.Len(t, social, 1)
	assert.Equal(t, 1, social[0].NumberOfEdges())

	idx, ok := env.schema.Index("person_name")
	require.True(t, ok)
	found, err := idx.Lookup("Bob")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bob, found[0])
}

func TestLoader_LoadFilesAcrossDocuments(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "a.yaml", `
vertices:
  - {key: a1, label: Node}
  - {key: a2, label: Node}
`)
	b := writeFixture(t, dir, "b.yaml", `
vertices:
  - {key: b1, label: Node}
edges:
  - {label: link, tail: a1, head: b1}
  - {label: link, tail: b1, head: a2}
multiedges:
  - {label: links, hosts: [b1, a1]}
`)
	env := newEnv(t, 4)

	res, err := env.loader.LoadFiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.EqualValues(t, 3, res.Vertices)
	assert.EqualValues(t, 2, res.Edges)

	b1, ok := env.loader.Vertex("b1")
	require.True(t, ok)
	assert.Equal(t, 1, b1.InDegree())
	assert.Equal(t, 1, b1.OutDegree())

	m := env.graph.MultiEdgesByLabel("links")
	require.Len(t, m, 1)
	assert.Equal(t, 2, m[0].NumberOfEdges())
}

func TestLoader_ReferencesExistingVertex(t *testing.T) {
	env := newEnv(t, 1)
	existing, err := env.graph.AddVertexWithID(50, "Root", nil)
	require.NoError(t, err)

	_, err = env.loader.Load(context.Background(), mustParse(t, `
vertices:
  - {key: leaf, label: Leaf}
edges:
  - {label: child, tail: "50", head: leaf}
`))
	require.NoError(t, err)
	assert.Equal(t, 1, existing.OutDegree("child"))
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		docs  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "duplicate key across documents",
			docs: []string{
				"vertices:\n  - {key: x, label: A}\n",
				"vertices:\n  - {key: x, label: B}\n",
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrDuplicateKey) },
		},
		{
			name:  "unresolved reference",
			docs:  []string{"edges:\n  - {label: l, tail: ghost, head: ghost}\n"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnresolved) },
		},
		{
			name:  "malformed explicit id",
			docs:  []string{"vertices:\n  - {id: abc, label: A}\n"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrBadDeclaration) },
		},
		{
			name:  "reserved property",
			docs:  []string{"vertices:\n  - {label: A, properties: {Id: 9}}\n"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, hypergraph.ErrReservedKey) },
		},
		{
			name:  "empty property key",
			docs:  []string{"vertices:\n  - {label: A, properties: {\"\": 1}}\n"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrBadDeclaration) },
		},
		{
			name:  "empty edge property key",
			docs:  []string{"vertices:\n  - {key: a, label: A}\n  - {key: b, label: A}\nedges:\n  - {label: l, tail: a, head: b, properties: {\"\": x}}\n"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrBadDeclaration) },
		},
		{
			name:  "unknown constraint type",
			docs:  []string{"constraints:\n  - {name: c, type: sometimes, label: A, properties: [p]}\n"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrBadDeclaration) },
		},
		{
			name: "unique constraint violation",
			docs: []string{`
constraints:
  - {name: u, type: unique, label: A, properties: [code]}
vertices:
  - {label: A, properties: {code: 1}}
  - {label: A, properties: {code: 1}}
`},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, hypergraph.ErrVetoed)
				assert.ErrorIs(t, err, schema.ErrConstraintViolation)
			},
		},
		{
			name:  "duplicate explicit id",
			docs:  []string{"vertices:\n  - {id: \"7\", label: A}\n  - {id: \"7\", label: A}\n"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, hypergraph.ErrDuplicateID) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, 2)
			docs := make([]*Document, len(tt.docs))
			for i, src := range tt.docs {
				docs[i] = mustParse(t, src)
			}
			_, err := env.loader.Load(context.Background(), docs...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLoader_SchemaRequiresManager(t *testing.T) {
	g, err := hypergraph.NewGraph[uint64](1, hypergraph.WithIDCreator(hypergraph.FromSource(idgen.NewSequence(0).Next)))
	require.NoError(t, err)
	l, err := NewLoader(g, Options[uint64]{ParseID: ParseUint64})
	require.NoError(t, err)

	_, err = l.Load(context.Background(), mustParse(t, people))
	assert.ErrorIs(t, err, ErrNoSchema)
	assert.Zero(t, g.NumberOfVertices(nil))
}

func TestLoader_StringIDs(t *testing.T) {
	digest := idgen.NewDigest("fixtures", 0)
	g, err := hypergraph.NewGraph[string]("g", hypergraph.WithIDCreator(hypergraph.FromSource(digest.Next)))
	require.NoError(t, err)
	l, err := NewLoader(g, Options[string]{ParseID: ParseString})
	require.NoError(t, err)

	_, err = l.Load(context.Background(), mustParse(t, `
vertices:
  - {id: root, label: Dir}
  - {key: file, label: File}
edges:
  - {label: contains, tail: root, head: file}
`))
	require.NoError(t, err)

	file, ok := l.Vertex("file")
	require.True(t, ok)
	assert.Equal(t, digest.At(1), file.ID())
	root, err := g.VertexByID("root")
	require.NoError(t, err)
	assert.Equal(t, 1, root.OutDegree("contains"))
}

func TestLoader_Canceled(t *testing.T) {
	env := newEnv(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.loader.Load(ctx, mustParse(t, "vertices:\n  - {label: A}\n"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, env.graph.NumberOfVertices(nil))
}

func TestSelector(t *testing.T) {
	g, err := hypergraph.NewGraph[uint64](1, hypergraph.WithIDCreator(hypergraph.FromSource(idgen.NewSequence(0).Next)))
	require.NoError(t, err)
	a, err := g.AddVertex("A", nil)
	require.NoError(t, err)
	b, err := g.AddVertex("B", nil)
	require.NoError(t, err)

	old, err := g.AddEdge(a, "knows", b, func(e *hypergraph.Edge[uint64]) { _ = e.Properties().Set("since", 2001) })
	require.NoError(t, err)
	recent, err := g.AddEdge(a, "knows", b, func(e *hypergraph.Edge[uint64]) { _ = e.Properties().Set("since", 2024) })
	require.NoError(t, err)
	other, err := g.AddEdge(a, "likes", b, nil)
	require.NoError(t, err)

	all := Selector[uint64](nil, nil)
	assert.True(t, all(old))
	assert.True(t, all(other))

	knows := Selector[uint64]([]string{"knows"}, nil)
	assert.True(t, knows(recent))
	assert.False(t, knows(other))

	since := Selector[uint64]([]string{"knows"}, map[string]any{"since": 2024.0})
	assert.False(t, since(old))
	assert.True(t, since(recent))
}
