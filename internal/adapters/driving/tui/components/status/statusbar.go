// Package status provides the footer line of the progress display.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/styles"
)

// State represents the run state shown on the left of the bar.
type State string

// Run states.
const (
	StateRunning   State = "running"
	StateDone      State = "done"
	StateCancelled State = "cancelled"
	StateError     State = "error"
)

// Bar displays run state, the warning count and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	message  string
	warnings int
	width    int
}

// NewBar creates a status bar.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateRunning, width: 80}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return s.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	var parts []string
	switch s.state {
	case StateDone:
		parts = append(parts, s.styles.Success.Render("Done"))
	case StateCancelled:
		parts = append(parts, s.styles.Warning.Render("Cancelled"))
	case StateError:
		msg := "Error"
		if s.message != "" {
			msg = "Error: " + s.message
		}
		parts = append(parts, s.styles.Error.Render(msg))
	default:
		parts = append(parts, s.styles.Muted.Render("Ingesting..."))
	}
	if s.warnings > 0 {
		parts = append(parts, s.styles.Warning.Render(fmt.Sprintf("%d warnings", s.warnings)))
	}
	return strings.Join(parts, "  ")
}

func (s *Bar) renderRight() string {
	if s.state != StateRunning {
		return ""
	}
	bindings := s.keymap.RunningHelp()

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the run state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the run state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// SetWarnings sets the warning count.
func (s *Bar) SetWarnings(n int) {
	s.warnings = n
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}
