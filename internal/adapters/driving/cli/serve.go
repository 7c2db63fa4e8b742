package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-ingest/internal/app"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the ingestion API over HTTP. Ingestions started through the API run
in the background; poll /v1/ingest/{collection} or /v1/runs for progress.

Set SERCHA_JWT_SECRET to require HS256 bearer tokens on /v1 routes and
SERCHA_CORS_ORIGINS to allow browser clients.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $SERCHA_HTTP_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
	}

	svc, closeFn, err := openServices(cmd.Context(), cfg, app.Options{WantLLM: true})
	if err != nil {
		return err
	}
	defer closeFn()
	if svc.Ingest == nil {
		return errNotConfigured("ingest")
	}

	server, err := httpapi.NewServer(httpapi.Config{
		Addr:        cfg.HTTPAddr,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
	}, &httpapi.Ports{
		Ingest:   svc.Ingest,
		Index:    svc.Index,
		Runs:     svc.Runs,
		Defaults: cfg.IngestOptions(""),
	})
	if err != nil {
		return err
	}

	cmd.Printf("HTTP API listening on %s\n", cfg.HTTPAddr)
	return server.Run(cmd.Context())
}
