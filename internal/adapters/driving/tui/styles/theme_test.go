package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()

	tests := []struct {
		name   string
		render func(...string) string
	}{
		{"title", s.Title.Render},
		{"stage", s.Stage.Render},
		{"muted", s.Muted.Render},
		{"success", s.Success.Render},
		{"warning", s.Warning.Render},
		{"error", s.Error.Render},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.render("upserting"), "upserting")
		})
	}
}
