// Package cli implements the sercha-ingest command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/app"
	"github.com/custodia-labs/sercha-ingest/internal/config"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Persistent flag values.
var (
	configFile  string
	envFile     string
	settingsDir string
	verbose     bool
	quiet       bool
)

// Services groups the driving ports commands call.
type Services struct {
	Ingest driving.IngestService
	Index  driving.IndexService
	Runs   driving.RunService

	// Close releases the resources behind the services. May be nil.
	Close func() error
}

// buildServices wires services for a resolved configuration. Tests replace it.
var buildServices = func(ctx context.Context, cfg config.Config, opts app.Options) (*Services, error) {
	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	svc := &Services{Index: a.Index, Runs: a.Runs, Close: a.Close}
	if a.Ingest != nil {
		svc.Ingest = a.Ingest
	}
	return svc, nil
}

var rootCmd = &cobra.Command{
	Use:   "sercha-ingest",
	Short: "Chunk, embed and index documents for retrieval",
	Long: `sercha-ingest loads files, directories, web pages and object store
objects, splits them into passages, embeds them and upserts them into a
vector collection. A keyword sidecar index is written alongside for hybrid
retrieval.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetQuiet(quiet)
		logger.CaptureStdLog()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (.yaml, .yml or .toml)")
	flags.StringVar(&envFile, "env-file", "", "dotenv file loaded before reading the environment")
	flags.StringVar(&settingsDir, "settings-dir", "", "directory holding config.toml and prompts (default ~/.sercha-ingest)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress informational logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig resolves the configuration from the persistent flags.
func loadConfig() (config.Config, error) {
	return config.Load(config.Sources{EnvFile: envFile, File: configFile})
}

// openServices loads the configuration and wires services. The caller must
// call the returned close function.
func openServices(ctx context.Context, cfg config.Config, opts app.Options) (*Services, func(), error) {
	if opts.SettingsDir == "" {
		opts.SettingsDir = settingsDir
	}
	svc, err := buildServices(ctx, cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if svc.Close == nil {
			return
		}
		if err := svc.Close(); err != nil {
			logger.Warn("Closing services: %v", err)
		}
	}
	return svc, closeFn, nil
}

// errNotConfigured reports a service that the wiring did not provide.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

var errMissingSource = errors.New("a source is required: pass it as an argument or with --source")
