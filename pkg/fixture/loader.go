package fixture

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/orneryd/hypergraph/pkg/hypergraph"
	"github.com/orneryd/hypergraph/pkg/logging"
	"github.com/orneryd/hypergraph/pkg/schema"
)

// Errors returned by the loader.
var (
	ErrDuplicateKey   = errors.New("duplicate vertex key")
	ErrUnresolved     = errors.New("unresolved vertex reference")
	ErrNoSchema       = errors.New("fixture declares schema but loader has no schema manager")
	ErrBadDeclaration = errors.New("invalid fixture declaration")
)

// Options configures a Loader.
type Options[ID cmp.Ordered] struct {
	// ParseID converts fixture identifiers and references to graph ids.
	ParseID func(string) (ID, error)
	// Reserve, if set, is called with every explicit identifier before any
	// element is added, so an id source can skip past them.
	Reserve func(ID)
	// Schema receives declared indexes and constraints. Optional unless a
	// document declares any.
	Schema *schema.Manager[ID]
	// NewStore creates the backing store for each declared index. Defaults
	// to schema.NewMapStore.
	NewStore func() (schema.Store[ID], error)
	// Workers bounds how many documents are applied concurrently.
	Workers int
	Logger  *logging.Logger
}

// Result counts what a load added.
type Result struct {
	Documents   int
	Indexes     int
	Constraints int
	Vertices    int64
	Edges       int64
	HyperEdges  int64
	MultiEdges  int64
}

// Loader applies fixture documents to a graph. Vertex keys are shared across
// every document loaded by the same Loader.
type Loader[ID cmp.Ordered] struct {
	graph *hypergraph.Graph[ID]
	opts  Options[ID]
	log   *logging.Logger

	mu   sync.Mutex
	keys map[string]*hypergraph.Vertex[ID]
}

// NewLoader creates a loader for g.
func NewLoader[ID cmp.Ordered](g *hypergraph.Graph[ID], opts Options[ID]) (*Loader[ID], error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is nil", ErrBadDeclaration)
	}
	if opts.ParseID == nil {
		return nil, fmt.Errorf("%w: ParseID is required", ErrBadDeclaration)
	}
	if opts.NewStore == nil {
		opts.NewStore = func() (schema.Store[ID], error) { return schema.NewMapStore[ID](), nil }
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Loader[ID]{
		graph: g,
		opts:  opts,
		log:   log,
		keys:  make(map[string]*hypergraph.Vertex[ID]),
	}, nil
}

// LoadFiles parses every path concurrently and then loads the documents.
func (l *Loader[ID]) LoadFiles(ctx context.Context, paths ...string) (*Result, error) {
	docs := make([]*Document, len(paths))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(l.opts.Workers)
	for i, path := range paths {
		eg.Go(func() error {
			doc, err := ParseFile(path)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return l.Load(ctx, docs...)
}

// Load applies docs in phases: schema, vertices, edges, hyperedges and
// multiedges. Within a phase documents are applied concurrently. Schema
// comes first so constraints see every fixture vertex; multiedges come last
// so they are populated from the fixture edges.
//
// A failure stops the load; elements added before it stay in the graph.
func (l *Loader[ID]) Load(ctx context.Context, docs ...*Document) (*Result, error) {
	res := &Result{Documents: len(docs)}

	for _, doc := range docs {
		if err := l.applySchema(doc, res); err != nil {
			return res, err
		}
	}
	if err := l.reserveIDs(docs); err != nil {
		return res, err
	}

	phases := []struct {
		name  string
		apply func(context.Context, *Document) (int64, error)
		count *int64
	}{
		{"vertices", l.applyVertices, &res.Vertices},
		{"edges", l.applyEdges, &res.Edges},
		{"hyperedges", l.applyHyperEdges, &res.HyperEdges},
		{"multiedges", l.applyMultiEdges, &res.MultiEdges},
	}
	for _, phase := range phases {
		var added atomic.Int64
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(l.opts.Workers)
		for _, doc := range docs {
			eg.Go(func() error {
				n, err := phase.apply(egCtx, doc)
				added.Add(n)
				return err
			})
		}
		err := eg.Wait()
		*phase.count = added.Load()
		if err != nil {
			return res, err
		}
		l.log.DebugContext(ctx, "fixture phase loaded", "phase", phase.name, "added", *phase.count)
	}

	l.log.InfoContext(ctx, "fixtures loaded",
		"documents", res.Documents,
		"vertices", res.Vertices,
		"edges", res.Edges,
		"hyperedges", res.HyperEdges,
		"multiedges", res.MultiEdges,
	)
	return res, nil
}

// Vertex returns the vertex loaded under key.
func (l *Loader[ID]) Vertex(key string) (*hypergraph.Vertex[ID], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.keys[key]
	return v, ok && v != nil
}

func (l *Loader[ID]) applySchema(doc *Document, res *Result) error {
	if len(doc.Indexes)+len(doc.Constraints) == 0 {
		return nil
	}
	if l.opts.Schema == nil {
		return fmt.Errorf("%s: %w", doc.name(), ErrNoSchema)
	}
	for _, def := range doc.Indexes {
		if def.Name == "" || len(def.Properties) == 0 {
			return fmt.Errorf("%s: %w: index needs a name and properties", doc.name(), ErrBadDeclaration)
		}
		transform := schema.ByProperty[ID](def.Properties[0])
		if len(def.Properties) > 1 {
			transform = schema.ByProperties[ID](def.Properties...)
		}
		var selector hypergraph.VertexFilter[ID]
		if def.Label != "" {
			selector = hypergraph.VertexLabelIn[ID](def.Label)
		}
		store, err := l.opts.NewStore()
		if err != nil {
			return fmt.Errorf("%s: index %s: %w", doc.name(), def.Name, err)
		}
		if _, err := l.opts.Schema.AddIndex(def.Name, selector, transform, store); err != nil {
			_ = store.Close()
			return fmt.Errorf("%s: %w", doc.name(), err)
		}
		res.Indexes++
	}
	for _, def := range doc.Constraints {
		var err error
		switch strings.ToLower(def.Type) {
		case "unique":
			if len(def.Properties) != 1 {
				return fmt.Errorf("%s: %w: unique constraint %s needs exactly one property", doc.name(), ErrBadDeclaration, def.Name)
			}
			err = l.opts.Schema.AddUniqueConstraint(def.Name, def.Label, def.Properties[0])
		case "exists":
			err = l.opts.Schema.AddExistsConstraint(def.Name, def.Label, def.Properties...)
		default:
			return fmt.Errorf("%s: %w: unknown constraint type %q", doc.name(), ErrBadDeclaration, def.Type)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", doc.name(), err)
		}
		res.Constraints++
	}
	return nil
}

// reserveIDs parses every explicit identifier up front so that malformed ids
// fail before anything is added and the id source can skip them.
func (l *Loader[ID]) reserveIDs(docs []*Document) error {
	var explicit []string
	for _, doc := range docs {
		for _, s := range doc.Vertices {
			explicit = append(explicit, s.ID)
		}
		for _, s := range doc.Edges {
			explicit = append(explicit, s.ID)
		}
		for _, s := range doc.HyperEdges {
			explicit = append(explicit, s.ID)
		}
		for _, s := range doc.MultiEdges {
			explicit = append(explicit, s.ID)
		}
	}
	for _, raw := range explicit {
		if raw == "" {
			continue
		}
		id, err := l.opts.ParseID(raw)
		if err != nil {
			return fmt.Errorf("%w: identifier %q: %v", ErrBadDeclaration, raw, err)
		}
		if l.opts.Reserve != nil {
			l.opts.Reserve(id)
		}
	}
	return nil
}

func (l *Loader[ID]) applyVertices(ctx context.Context, doc *Document) (int64, error) {
	var added int64
	for i, def := range doc.Vertices {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if err := l.checkProperties(def.Properties); err != nil {
			return added, fmt.Errorf("%s: vertex %d: %w", doc.name(), i, err)
		}
		if err := l.claimKey(def.Key); err != nil {
			return added, fmt.Errorf("%s: vertex %d: %w", doc.name(), i, err)
		}

		seed := func(v *hypergraph.Vertex[ID]) { setAll(v.Properties(), def.Properties) }
		var (
			v   *hypergraph.Vertex[ID]
			err error
		)
		if def.ID != "" {
			id, _ := l.opts.ParseID(def.ID)
			v, err = l.graph.AddVertexWithID(id, def.Label, seed)
		} else {
			v, err = l.graph.AddVertex(def.Label, seed)
		}
		if err != nil {
			l.releaseKey(def.Key)
			return added, fmt.Errorf("%s: vertex %d: %w", doc.name(), i, err)
		}
		l.bindKey(def.Key, v)
		added++
	}
	return added, nil
}

func (l *Loader[ID]) applyEdges(ctx context.Context, doc *Document) (int64, error) {
	var added int64
	for i, def := range doc.Edges {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if err := l.checkProperties(def.Properties); err != nil {
			return added, fmt.Errorf("%s: edge %d: %w", doc.name(), i, err)
		}
		tail, err := l.resolve(def.Tail)
		if err != nil {
			return added, fmt.Errorf("%s: edge %d tail: %w", doc.name(), i, err)
		}
		head, err := l.resolve(def.Head)
		if err != nil {
			return added, fmt.Errorf("%s: edge %d head: %w", doc.name(), i, err)
		}

		seed := func(e *hypergraph.Edge[ID]) { setAll(e.Properties(), def.Properties) }
		if def.ID != "" {
			id, _ := l.opts.ParseID(def.ID)
			_, err = l.graph.AddEdgeWithID(id, tail, def.Label, head, seed)
		} else {
			_, err = l.graph.AddEdge(tail, def.Label, head, seed)
		}
		if err != nil {
			return added, fmt.Errorf("%s: edge %d: %w", doc.name(), i, err)
		}
		added++
	}
	return added, nil
}

func (l *Loader[ID]) applyHyperEdges(ctx context.Context, doc *Document) (int64, error) {
	var added int64
	for i, def := range doc.HyperEdges {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if err := l.checkProperties(def.Properties); err != nil {
			return added, fmt.Errorf("%s: hyperedge %d: %w", doc.name(), i, err)
		}
		participants, err := l.resolveAll(def.Vertices)
		if err != nil {
			return added, fmt.Errorf("%s: hyperedge %d: %w", doc.name(), i, err)
		}

		seed := func(h *hypergraph.HyperEdge[ID]) { setAll(h.Properties(), def.Properties) }
		if def.ID != "" {
			id, _ := l.opts.ParseID(def.ID)
			_, err = l.graph.AddHyperEdgeWithID(id, def.Label, participants, seed)
		} else {
			_, err = l.graph.AddHyperEdge(def.Label, participants, seed)
		}
		if err != nil {
			return added, fmt.Errorf("%s: hyperedge %d: %w", doc.name(), i, err)
		}
		added++
	}
	return added, nil
}

func (l *Loader[ID]) applyMultiEdges(ctx context.Context, doc *Document) (int64, error) {
	var added int64
	for i, def := range doc.MultiEdges {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if err := l.checkProperties(def.Properties); err != nil {
			return added, fmt.Errorf("%s: multiedge %d: %w", doc.name(), i, err)
		}
		hosts, err := l.resolveAll(def.Hosts)
		if err != nil {
			return added, fmt.Errorf("%s: multiedge %d: %w", doc.name(), i, err)
		}

		selector := Selector[ID](def.EdgeLabels, def.Where)
		seed := func(m *hypergraph.MultiEdge[ID]) { setAll(m.Properties(), def.Properties) }
		if def.ID != "" {
			id, _ := l.opts.ParseID(def.ID)
			_, err = l.graph.AddMultiEdgeWithID(id, def.Label, selector, hosts, seed)
		} else {
			_, err = l.graph.AddMultiEdge(def.Label, selector, hosts, seed)
		}
		if err != nil {
			return added, fmt.Errorf("%s: multiedge %d: %w", doc.name(), i, err)
		}
		added++
	}
	return added, nil
}

// Selector builds a multiedge selector matching edges with any of labels
// (all labels when empty) whose properties equal every entry of where.
func Selector[ID cmp.Ordered](labels []string, where map[string]any) hypergraph.EdgeFilter[ID] {
	var preds []hypergraph.EdgeFilter[ID]
	if len(labels) > 0 {
		preds = append(preds, hypergraph.EdgeLabelIn[ID](labels...))
	}
	for key, value := range where {
		preds = append(preds, hypergraph.EdgePropertyEquals[ID](key, value))
	}
	return func(e *hypergraph.Edge[ID]) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// claimKey reserves key before the vertex exists so concurrent documents
// cannot both declare it.
func (l *Loader[ID]) claimKey(key string) error {
	if key == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.keys[key]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	l.keys[key] = nil
	return nil
}

func (l *Loader[ID]) bindKey(key string, v *hypergraph.Vertex[ID]) {
	if key == "" {
		return
	}
	l.mu.Lock()
	l.keys[key] = v
	l.mu.Unlock()
}

func (l *Loader[ID]) releaseKey(key string) {
	if key == "" {
		return
	}
	l.mu.Lock()
	delete(l.keys, key)
	l.mu.Unlock()
}

func (l *Loader[ID]) resolve(ref string) (*hypergraph.Vertex[ID], error) {
	if v, ok := l.Vertex(ref); ok {
		return v, nil
	}
	id, err := l.opts.ParseID(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnresolved, ref)
	}
	v, err := l.graph.VertexByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnresolved, ref, err)
	}
	return v, nil
}

func (l *Loader[ID]) resolveAll(refs []string) ([]*hypergraph.Vertex[ID], error) {
	out := make([]*hypergraph.Vertex[ID], 0, len(refs))
	for _, ref := range refs {
		v, err := l.resolve(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *Loader[ID]) checkProperties(props map[string]any) error {
	gp := l.graph.Properties()
	for key := range props {
		if key == "" {
			return fmt.Errorf("%w: empty property key", ErrBadDeclaration)
		}
		if key == gp.IDKey() || key == gp.RevisionKey() {
			return fmt.Errorf("%w: %q", hypergraph.ErrReservedKey, key)
		}
	}
	return nil
}

// setAll copies props after checkProperties has ruled out empty and reserved
// keys.
func setAll(p *hypergraph.Properties, props map[string]any) {
	for k, v := range props {
		_ = p.Set(k, v)
	}
}

// ParseUint64 parses decimal uint64 identifiers.
func ParseUint64(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }

// ParseString accepts any non-empty string identifier.
func ParseString(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty identifier")
	}
	return s, nil
}
