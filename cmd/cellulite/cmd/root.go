// Package cmd provides the CLI commands for cellulite.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/cellulite/internal/logging"
	"github.com/Aman-CERP/cellulite/pkg/cellulite"
)

// configFileName is looked up in the working directory.
const configFileName = ".cellulite.yaml"

// Config is the CLI configuration, read from .cellulite.yaml and
// overridable per flag.
type Config struct {
	// Path is the bbolt database file.
	Path string `yaml:"path"`
	// Prefix namespaces the index buckets.
	Prefix string `yaml:"prefix"`
	// Threshold is the cell split threshold.
	Threshold uint64 `yaml:"threshold"`
}

var (
	flagDB        string
	flagPrefix    string
	flagThreshold uint64
	flagDebug     bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the cellulite CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cellulite",
		Short: "Embedded hexagonal geospatial index",
		Long: `Cellulite maps integer item identifiers to geometries and answers
containment and intersection queries over a local bbolt database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if flagDebug {
				level = "debug"
			}
			cfg := logging.DefaultConfig()
			cfg.Level = level
			cfg.WriteToStderr = flagDebug
			logger, cleanup, err := logging.Setup(cfg)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			loggingCleanup = cleanup
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if loggingCleanup != nil {
				loggingCleanup()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flagDB, "db", "", "Path to the database file")
	cmd.PersistentFlags().StringVar(&flagPrefix, "prefix", "", "Bucket prefix of the index")
	cmd.PersistentFlags().Uint64Var(&flagThreshold, "threshold", 0, "Cell split threshold")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newQueryCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig merges the config file (if present) with the flags.
func loadConfig() (Config, error) {
	cfg := Config{
		Path:      "cellulite.db",
		Prefix:    cellulite.DefaultPrefix,
		Threshold: cellulite.DefaultThreshold,
	}
	data, err := os.ReadFile(configFileName)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configFileName, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}
	if flagDB != "" {
		cfg.Path = flagDB
	}
	if flagPrefix != "" {
		cfg.Prefix = flagPrefix
	}
	if flagThreshold != 0 {
		cfg.Threshold = flagThreshold
	}
	return cfg, nil
}

func openDB(cfg Config) (*bolt.DB, error) {
	return bolt.Open(cfg.Path, 0o600, nil)
}

func indexOptions(cfg Config) cellulite.Options {
	return cellulite.Options{
		Prefix:    cfg.Prefix,
		Threshold: cfg.Threshold,
		Logger:    slog.Default(),
	}
}
