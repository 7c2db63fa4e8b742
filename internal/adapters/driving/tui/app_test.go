package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

func TestModel_Progress(t *testing.T) {
	m := NewModel("docs/", nil)

	m.Update(messages.Progress{IngestProgress: domain.IngestProgress{Stage: domain.StageUpserting, Done: 2, Total: 4}})
	assert.InDelta(t, 0.5, m.Percent(), 1e-9)
	assert.Contains(t, m.View(), "upserting")
	assert.Contains(t, m.View(), "2/4")

	m.Update(messages.Progress{IngestProgress: domain.IngestProgress{Stage: domain.StageIndexing}})
	assert.Zero(t, m.Percent(), "a new stage resets the bar")
}

func TestModel_Finished(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state status.State
	}{
		{"success", nil, status.StateDone},
		{"cancelled", context.Canceled, status.StateCancelled},
		{"failure", errors.New("boom"), status.StateError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel("x", nil)
			report := &domain.IngestReport{Warnings: []domain.Warning{{}, {}}}

			_, cmd := m.Update(messages.Finished{Report: report, Err: tt.err})
			require.NotNil(t, cmd, "finishing quits the program")

			assert.Equal(t, tt.state, m.status.State())
			got, err := m.Result()
			assert.Same(t, report, got)
			assert.Equal(t, tt.err, err)
			assert.Contains(t, m.View(), "2 warnings")
		})
	}
}

func TestModel_CancelKey(t *testing.T) {
	cancelled := false
	m := NewModel("x", func() { cancelled = true })

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, cancelled)
	assert.Equal(t, status.StateCancelled, m.status.State())
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel("x", nil)

	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, 60, m.bar.Width)

	m.Update(tea.WindowSizeMsg{Width: 20, Height: 40})
	assert.Equal(t, 10, m.bar.Width)
}

func TestRun(t *testing.T) {
	want := &domain.IngestReport{Points: 3}
	var out bytes.Buffer

	got, err := Run(context.Background(), "doc.txt",
		func(_ context.Context, progress driving.ProgressFunc) (*domain.IngestReport, error) {
			progress(domain.IngestProgress{Stage: domain.StageUpserting, Done: 1, Total: 1})
			return want, nil
		},
		tea.WithInput(nil), tea.WithOutput(&out),
	)

	require.NoError(t, err)
	assert.Same(t, want, got)
}
