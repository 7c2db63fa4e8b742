// Package tui renders ingestion progress in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// IngestFunc runs an ingestion, reporting through progress.
type IngestFunc func(ctx context.Context, progress driving.ProgressFunc) (*domain.IngestReport, error)

// Model is the Bubbletea model of the progress display.
type Model struct {
	title  string
	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    progress.Model
	status *status.Bar
	cancel context.CancelFunc

	stage    string
	done     int
	total    int
	message  string
	warnings int

	finished bool
	report   *domain.IngestReport
	err      error
}

// NewModel creates the display for one ingestion. cancel is called when
// the user interrupts.
func NewModel(title string, cancel context.CancelFunc) *Model {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	theme := s.Theme()

	return &Model{
		title:  title,
		styles: s,
		keymap: km,
		bar:    progress.New(progress.WithGradient(string(theme.Primary), string(theme.Secondary))),
		status: status.NewBar(s, km),
		cancel: cancel,
		stage:  domain.StageLoading,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-30, 60))
		m.status.SetWidth(msg.Width)

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Cancel) && !m.finished {
			if m.cancel != nil {
				m.cancel()
			}
			m.status.SetState(status.StateCancelled)
		}

	case messages.Progress:
		m.apply(msg.IngestProgress)

	case messages.Finished:
		m.finish(msg.Report, msg.Err)
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(p domain.IngestProgress) {
	if p.Stage != m.stage {
		m.done, m.total = 0, 0
	}
	m.stage = p.Stage
	m.done = p.Done
	m.total = p.Total
	m.message = p.Message
}

func (m *Model) finish(report *domain.IngestReport, err error) {
	m.finished = true
	m.report = report
	m.err = err
	if report != nil {
		m.warnings = len(report.Warnings)
		m.status.SetWarnings(m.warnings)
	}

	switch {
	case err == nil:
		m.stage = domain.StageDone
		m.done, m.total = 1, 1
		m.status.SetState(status.StateDone)
	case errors.Is(err, context.Canceled):
		m.status.SetState(status.StateCancelled)
	default:
		m.status.SetState(status.StateError)
		m.status.SetMessage(err.Error())
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Ingesting " + m.title))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Stage.Render(m.stage))
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	if m.total > 0 {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf(" %d/%d", m.done, m.total)))
	}
	b.WriteString("\n")

	if m.message != "" && !m.finished {
		b.WriteString(m.styles.Muted.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.status.View())
	b.WriteString("\n")
	return b.String()
}

// Percent returns the completed fraction of the current stage.
func (m *Model) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return min(1, float64(m.done)/float64(m.total))
}

// Result returns the ingestion outcome once Finished has been received.
func (m *Model) Result() (*domain.IngestReport, error) {
	return m.report, m.err
}

// Run executes ingest behind the progress display and returns its result.
// Program options let callers redirect input and output.
func Run(ctx context.Context, title string, ingest IngestFunc, opts ...tea.ProgramOption) (*domain.IngestReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(title, cancel)
	program := tea.NewProgram(model, opts...)

	go func() {
		report, err := ingest(ctx, func(p domain.IngestProgress) {
			program.Send(messages.Progress{IngestProgress: p})
		})
		program.Send(messages.Finished{Report: report, Err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("progress display: %w", err)
	}
	return final.(*Model).Result()
}
