package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Equal(t, StateRunning, bar.State())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		warnings int
		contains []string
	}{
		{"running", StateRunning, "", 0, []string{"Ingesting...", "cancel"}},
		{"running with warnings", StateRunning, "", 3, []string{"3 warnings"}},
		{"done", StateDone, "", 0, []string{"Done"}},
		{"cancelled", StateCancelled, "", 0, []string{"Cancelled"}},
		{"error", StateError, "qdrant down", 1, []string{"Error: qdrant down", "1 warnings"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetWarnings(tt.warnings)
			bar.SetWidth(100)

			view := bar.View()
			for _, want := range tt.contains {
				assert.Contains(t, view, want)
			}
		})
	}
}

func TestBar_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(1)

	assert.Contains(t, bar.View(), "Ingesting...")
}

func TestBar_HintsOnlyWhileRunning(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(100)
	assert.Contains(t, bar.View(), "ctrl+c: cancel")

	bar.SetState(StateDone)
	assert.NotContains(t, bar.View(), "cancel")
}
