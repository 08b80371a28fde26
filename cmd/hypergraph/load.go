package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/orneryd/hypergraph/pkg/config"
	"github.com/orneryd/hypergraph/pkg/fixture"
	"github.com/orneryd/hypergraph/pkg/hypergraph"
	"github.com/orneryd/hypergraph/pkg/idgen"
	"github.com/orneryd/hypergraph/pkg/logging"
	"github.com/orneryd/hypergraph/pkg/metrics"
	"github.com/orneryd/hypergraph/pkg/schema"
)

// idScheme bundles everything that depends on the identifier type.
type idScheme[ID cmp.Ordered] struct {
	graphID  ID
	creator  hypergraph.IDCreator[ID]
	reserve  func(ID)
	parse    func(string) (ID, error)
	newStore func() (schema.Store[ID], error)
}

func uint64Scheme(cfg *config.Config) (idScheme[uint64], error) {
	graphID, err := strconv.ParseUint(cfg.Graph.ID, 10, 64)
	if err != nil {
		return idScheme[uint64]{}, fmt.Errorf("graph id: %w", err)
	}
	seq := idgen.NewSequence(0)
	return idScheme[uint64]{
		graphID: graphID,
		creator: hypergraph.FromSource(seq.Next),
		reserve: seq.Advance,
		parse:   fixture.ParseUint64,
		newStore: func() (schema.Store[uint64], error) {
			switch cfg.Index.Store {
			case config.StoreBitmap:
				return schema.NewBitmapStore(), nil
			case config.StoreBadger:
				return schema.NewBadgerStore[uint64](schema.Uint64Codec{})
			}
			return schema.NewMapStore[uint64](), nil
		},
	}, nil
}

func stringScheme(cfg *config.Config) idScheme[string] {
	next := idgen.UUIDs()
	if cfg.Graph.IDSource == config.IDSourceDigest {
		next = idgen.NewDigest(cfg.Graph.DigestNamespace, 0).Next
	}
	return idScheme[string]{
		graphID: cfg.Graph.ID,
		creator: hypergraph.FromSource(next),
		parse:   fixture.ParseString,
		newStore: func() (schema.Store[string], error) {
			if cfg.Index.Store == config.StoreBadger {
				return schema.NewBadgerStore[string](schema.StringCodec{})
			}
			return schema.NewMapStore[string](), nil
		},
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Metrics.Address = addr
		cfg.Metrics.Enabled = true
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Loader.Workers = workers
	}
	serve, _ := cmd.Flags().GetBool("serve")
	serve = serve || cfg.Metrics.Enabled

	log, closer, err := logging.Open(logging.OutputOptions{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	cfg.Memory.ApplyRuntimeMemory()
	log.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Graph.IDType == config.IDTypeString {
		return loadAndServe(ctx, cmd.OutOrStdout(), cfg, log, stringScheme(cfg), args, serve)
	}
	scheme, err := uint64Scheme(cfg)
	if err != nil {
		return err
	}
	return loadAndServe(ctx, cmd.OutOrStdout(), cfg, log, scheme, args, serve)
}

// session is one resident graph with its schema, metrics and loader.
type session[ID cmp.Ordered] struct {
	graph    *hypergraph.Graph[ID]
	schema   *schema.Manager[ID]
	observer *metrics.Observer[ID]
	registry *prometheus.Registry
	loader   *fixture.Loader[ID]
}

func newSession[ID cmp.Ordered](cfg *config.Config, log *logging.Logger, scheme idScheme[ID]) (*session[ID], error) {
	g, err := hypergraph.NewGraph(scheme.graphID,
		hypergraph.WithIDCreator(scheme.creator),
		hypergraph.WithKeys[ID](cfg.Graph.IDKey, cfg.Graph.RevisionKey),
		hypergraph.WithLogger[ID](log),
	)
	if err != nil {
		return nil, fmt.Errorf("creating graph: %w", err)
	}

	reg := prometheus.NewRegistry()
	obs, err := metrics.NewObserver(g, reg, cfg.Graph.ID)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	mgr := schema.NewManager(g, log)
	loader, err := fixture.NewLoader(g, fixture.Options[ID]{
		ParseID:  scheme.parse,
		Reserve:  scheme.reserve,
		Schema:   mgr,
		NewStore: scheme.newStore,
		Workers:  cfg.Loader.Workers,
		Logger:   log,
	})
	if err != nil {
		obs.Close()
		_ = mgr.Close()
		return nil, err
	}
	return &session[ID]{graph: g, schema: mgr, observer: obs, registry: reg, loader: loader}, nil
}

func (s *session[ID]) close(message string) {
	s.graph.Shutdown(message)
	s.observer.Close()
	_ = s.schema.Close()
}

func loadAndServe[ID cmp.Ordered](ctx context.Context, out io.Writer, cfg *config.Config, log *logging.Logger, scheme idScheme[ID], files []string, serve bool) error {
	s, err := newSession(cfg, log, scheme)
	if err != nil {
		return err
	}
	defer s.close("cli exit")

	start := time.Now()
	res, err := s.loader.LoadFiles(ctx, files...)
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}
	printResult(out, res, time.Since(start))
	printLabels(out, s.graph)

	if !serve {
		return nil
	}
	return serveMetrics(ctx, out, cfg.Metrics, s.registry, log)
}

func printResult(out io.Writer, res *fixture.Result, took time.Duration) {
	fmt.Fprintf(out, "Loaded %s documents in %v\n", humanize.Comma(int64(res.Documents)), took.Round(time.Millisecond))
	fmt.Fprintf(out, "  vertices:    %s\n", humanize.Comma(res.Vertices))
	fmt.Fprintf(out, "  edges:       %s\n", humanize.Comma(res.Edges))
	fmt.Fprintf(out, "  hyperedges:  %s\n", humanize.Comma(res.HyperEdges))
	fmt.Fprintf(out, "  multiedges:  %s\n", humanize.Comma(res.MultiEdges))
	if res.Indexes+res.Constraints > 0 {
		fmt.Fprintf(out, "  indexes:     %d, constraints: %d\n", res.Indexes, res.Constraints)
	}
}

func printLabels[ID cmp.Ordered](out io.Writer, g *hypergraph.Graph[ID]) {
	counts := make(map[string]int)
	var labels []string
	for _, v := range g.Vertices(nil) {
		if counts[v.Label()] == 0 {
			labels = append(labels, v.Label())
		}
		counts[v.Label()]++
	}
	for _, label := range labels {
		fmt.Fprintf(out, "  :%s %s\n", label, humanize.Comma(int64(counts[label])))
	}
}

func serveMetrics(ctx context.Context, out io.Writer, cfg config.MetricsConfig, reg *prometheus.Registry, log *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: cfg.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	fmt.Fprintf(out, "Metrics available at http://%s%s\n", cfg.Address, cfg.Path)
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stopping metrics server: %w", err)
	}
	return nil
}
