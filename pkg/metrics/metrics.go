// Package metrics exports hypergraph activity as Prometheus metrics.
//
// An Observer subscribes to a graph's notifications and maintains:
//   - hypergraph_mutations_total{kind,op}: committed adds and removals
//   - hypergraph_vetoes_total{kind}: rejected adds
//   - hypergraph_clears_total: Clear calls
//   - hypergraph_elements{kind}: current element counts, read from the
//     graph's O(1) counters at scrape time
package metrics

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/orneryd/hypergraph/pkg/hypergraph"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hypergraph"

// Observer publishes metrics for one graph.
type Observer[ID cmp.Ordered] struct {
	reg        prometheus.Registerer
	collectors []prometheus.Collector
	cancels    []func()

	mutations *prometheus.CounterVec
	vetoes    *prometheus.CounterVec
	clears    prometheus.Counter
}

// NewObserver registers the metrics with reg and subscribes to g. graphName
// is attached as a constant "graph" label so several graphs can share one
// registry.
func NewObserver[ID cmp.Ordered](g *hypergraph.Graph[ID], reg prometheus.Registerer, graphName string) (*Observer[ID], error) {
	if g == nil || reg == nil {
		return nil, errors.New("metrics: graph and registerer are required")
	}
	constLabels := prometheus.Labels{"graph": graphName}

	o := &Observer[ID]{
		reg: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "mutations_total",
			Help:        "Committed element additions and removals",
			ConstLabels: constLabels,
		}, []string{"kind", "op"}),
		vetoes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "vetoes_total",
			Help:        "Element additions rejected by a voter",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "clears_total",
			Help:        "Number of times the graph was cleared",
			ConstLabels: constLabels,
		}),
	}
	o.collectors = append(o.collectors, o.mutations, o.vetoes, o.clears)

	counts := map[hypergraph.Kind]func() int{
		hypergraph.KindVertex:    func() int { return g.NumberOfVertices(nil) },
		hypergraph.KindEdge:      func() int { return g.NumberOfEdges(nil) },
		hypergraph.KindMultiEdge: func() int { return g.NumberOfMultiEdges(nil) },
		hypergraph.KindHyperEdge: func() int { return g.NumberOfHyperEdges(nil) },
	}
	for _, kind := range hypergraph.Kinds {
		count := counts[kind]
		o.collectors = append(o.collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "elements",
			Help:        "Current number of registered elements",
			ConstLabels: prometheus.Labels{"graph": graphName, "kind": kind.String()},
		}, func() float64 { return float64(count()) }))
	}

	for i, c := range o.collectors {
		if err := reg.Register(c); err != nil {
			for _, done := range o.collectors[:i] {
				reg.Unregister(done)
			}
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	// Pre-create label combinations so every series is exported from zero.
	for _, kind := range hypergraph.Kinds {
		o.mutations.WithLabelValues(kind.String(), "add")
		o.mutations.WithLabelValues(kind.String(), "remove")
		o.vetoes.WithLabelValues(kind.String())
	}

	o.subscribe(g)
	return o, nil
}

func (o *Observer[ID]) subscribe(g *hypergraph.Graph[ID]) {
	ev := g.Events()
	inc := func(kind hypergraph.Kind, op string) func() {
		c := o.mutations.WithLabelValues(kind.String(), op)
		return c.Inc
	}
	addV, remV := inc(hypergraph.KindVertex, "add"), inc(hypergraph.KindVertex, "remove")
	addE, remE := inc(hypergraph.KindEdge, "add"), inc(hypergraph.KindEdge, "remove")
	addM, remM := inc(hypergraph.KindMultiEdge, "add"), inc(hypergraph.KindMultiEdge, "remove")
	addH, remH := inc(hypergraph.KindHyperEdge, "add"), inc(hypergraph.KindHyperEdge, "remove")

	o.cancels = []func(){
		ev.VertexAdded.Subscribe(func(*hypergraph.Vertex[ID]) { addV() }),
		ev.VertexRemoved.Subscribe(func(*hypergraph.Vertex[ID]) { remV() }),
		ev.EdgeAdded.Subscribe(func(*hypergraph.Edge[ID]) { addE() }),
		ev.EdgeRemoved.Subscribe(func(*hypergraph.Edge[ID]) { remE() }),
		ev.MultiEdgeAdded.Subscribe(func(*hypergraph.MultiEdge[ID]) { addM() }),
		ev.MultiEdgeRemoved.Subscribe(func(*hypergraph.MultiEdge[ID]) { remM() }),
		ev.HyperEdgeAdded.Subscribe(func(*hypergraph.HyperEdge[ID]) { addH() }),
		ev.HyperEdgeRemoved.Subscribe(func(*hypergraph.HyperEdge[ID]) { remH() }),
		ev.Vetoed.Subscribe(func(v *hypergraph.VetoError) { o.vetoes.WithLabelValues(v.Kind.String()).Inc() }),
		ev.Cleared.Subscribe(func(*hypergraph.Graph[ID]) { o.clears.Inc() }),
	}
}

// Close unsubscribes from the graph and unregisters every metric.
func (o *Observer[ID]) Close() {
	for _, cancel := range o.cancels {
		cancel()
	}
	o.cancels = nil
	for _, c := range o.collectors {
		o.reg.Unregister(c)
	}
}
