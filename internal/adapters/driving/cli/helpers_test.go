package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-ingest/internal/app"
	"github.com/custodia-labs/sercha-ingest/internal/config"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// mockIngestService records the options of every call.
type mockIngestService struct {
	report *domain.IngestReport
	err    error
	calls  []domain.IngestOptions
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	opts domain.IngestOptions,
	progress driving.ProgressFunc,
) (*domain.IngestReport, error) {
	m.calls = append(m.calls, opts)
	if progress != nil {
		progress(domain.IngestProgress{Stage: domain.StageLoading, Message: opts.Source})
		progress(domain.IngestProgress{Stage: domain.StageUpserting, Done: 1, Total: 1})
	}
	return m.report, m.err
}

func (m *mockIngestService) Status(_ context.Context, collection string) (*driving.IngestStatus, error) {
	return &driving.IngestStatus{Collection: collection}, nil
}

type mockIndexService struct {
	result     *driving.IndexResult
	err        error
	collection string
	path       string
}

func (m *mockIndexService) BuildIndex(_ context.Context, collection, path string) (*driving.IndexResult, error) {
	m.collection, m.path = collection, path
	return m.result, m.err
}

type mockRunService struct {
	runs []domain.Run
}

func (m *mockRunService) List(_ context.Context, limit int) ([]domain.Run, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockRunService) Get(_ context.Context, id string) (*domain.Run, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// testHarness swaps the service builder and records what it was called with.
type testHarness struct {
	services *Services
	cfg      config.Config
	opts     app.Options
	closed   bool
}

// setupTestServices installs svc behind buildServices and isolates the
// settings directory. The returned harness records the builder inputs.
func setupTestServices(t *testing.T, svc *Services) *testHarness {
	t.Helper()
	h := &testHarness{services: svc}
	svc.Close = func() error { h.closed = true; return nil }

	oldBuild := buildServices
	oldDir := settingsDir
	buildServices = func(_ context.Context, cfg config.Config, opts app.Options) (*Services, error) {
		h.cfg, h.opts = cfg, opts
		return h.services, nil
	}
	settingsDir = t.TempDir()

	t.Cleanup(func() {
		buildServices = oldBuild
		settingsDir = oldDir
	})
	return h
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { resetFlags(rootCmd) })

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak
// values through the package-level command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
