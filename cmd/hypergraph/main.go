// Package main provides the hypergraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/hypergraph/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hypergraph",
		Short: "hypergraph - in-memory property hypergraph engine",
		Long: `hypergraph hosts an in-memory property hypergraph: vertices, directed
edges, hyperedges over vertex sets and multiedges that group edges by a
selector.

The CLI seeds graphs from YAML fixtures, reports what was loaded and can
export engine metrics for Prometheus while the graph stays resident.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML config file (HYPERGRAPH_* variables override it)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hypergraph v%s (%s)\n", version, commit)
		},
	})

	// Config command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	})

	// Load command
	loadCmd := &cobra.Command{
		Use:   "load FILE...",
		Short: "Load YAML fixtures into a graph",
		Long: `Load one or more YAML fixture files into a single graph. Files are parsed
concurrently; vertex keys declared in one file may be referenced from another.

With --serve (or metrics.enabled in the config) the graph stays resident and
metrics are served until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLoad,
	}
	loadCmd.Flags().Bool("serve", false, "Keep the graph resident and serve metrics until interrupted")
	loadCmd.Flags().String("metrics-addr", "", "Metrics listen address (overrides config)")
	loadCmd.Flags().Int("workers", 0, "Concurrent fixture workers (overrides config)")
	rootCmd.AddCommand(loadCmd)

	return rootCmd
}

// loadConfig resolves configuration from the --config file, if any, and the
// environment, then validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.LoadFromEnv()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
