// Package labeledspinner shows a spinner next to a title, with a detail line
// and help text underneath.
package labeledspinner

import (
	"strings"

	"github.com/alkime/liftlog/internal/tui/style"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is used while the session is listening or saving.
type Model struct {
	Spinner spinner.Model
	Title   string
	Detail  string
	Help    string
}

// New creates a new labeled spinner with the given configuration.
func New(s spinner.Spinner, title, detail, help string) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner: sp,
		Title:   title,
		Detail:  detail,
		Help:    help,
	}
}

// Init returns the initial command for the spinner.
func (ls Model) Init() tea.Cmd {
	return ls.Spinner.Tick
}

// Update handles spinner tick messages.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		ls.Spinner, cmd = ls.Spinner.Update(tickMsg)

		return ls, cmd
	}

	return ls, nil
}

// Labeled returns a copy with a different title and detail, keeping the
// spinner frame.
func (ls Model) Labeled(title, detail string) Model {
	ls.Title = title
	ls.Detail = detail
	return ls
}

// View renders the spinner. Empty detail and help lines are skipped.
func (ls Model) View() string {
	var sb strings.Builder

	sb.WriteString(ls.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(ls.Title))

	if ls.Detail != "" {
		sb.WriteString("\n\n")
		sb.WriteString(style.Subtitle.Render(ls.Detail))
	}

	if ls.Help != "" {
		sb.WriteString("\n\n")
		sb.WriteString(style.Help.Render(ls.Help))
	}

	return sb.String()
}
