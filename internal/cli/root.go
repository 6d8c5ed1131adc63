// Package cli implements the carbonledger command line.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/supplier"
)

// annotationSkipConfig marks commands that must run without a loadable config.
const annotationSkipConfig = "carbonledger/skip-config"

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the carbonledger CLI.
// It loads configuration, wires up logging and tracing, and registers the
// emissions, products, serve, db, cache and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var (
		logResult  *logging.Result
		configPath string
	)

	cmd := &cobra.Command{
		Use:           "carbonledger",
		Short:         "Sustainability metrics aggregation",
		Long:          "carbonledger: derive carbon, water and energy records from supplier invoices",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Negative values would make every cache entry expire on write.
			cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
			if cacheTTL < 0 {
				return fmt.Errorf("cache-ttl must be >= 0, got %d", cacheTTL)
			}

			if cmd.Annotations[annotationSkipConfig] == "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("loading configuration: %w", err)
				}
				if cacheTTL > 0 {
					cfg.Cache.TTLSeconds = cacheTTL
				}
				config.SetGlobalConfig(cfg)
			}

			cfg := config.GetGlobalConfig()
			supplier.Configure(supplier.ClientOptions{
				MaxIdleConns:    cfg.Supplier.MaxIdleConns,
				MaxConnsPerHost: cfg.Supplier.MaxConnsPerHost,
			})

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.carbonledger/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().
		Int("cache-ttl", 0, "cache TTL in seconds (0 = use config default, overrides config file and env var)")
	cmd.AddCommand(
		newEmissionsCmd(),
		newProductsCmd(),
		newServeCmd(),
		newDBCmd(),
		newCacheCmd(),
		newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Create the tables and load sample data
  carbonledger db migrate
  carbonledger db seed fixtures.yaml

  # List every emission record as JSON
  carbonledger emissions --output json

  # Bypass the cache for a fresh aggregation
  carbonledger emissions --no-cache

  # Keep cached aggregations for 5 minutes
  carbonledger emissions --cache-ttl 300

  # Show per-batch totals for one product
  carbonledger products show 3f1c9a2e-5d7b-4c1e-9a0f-2b6d8e4c7a11

  # Serve the HTTP API
  carbonledger serve --addr :9090

  # Initialize configuration
  carbonledger config init`
