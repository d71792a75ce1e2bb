// Package tui is the terminal front end for a logging session. Space starts
// a voice cycle; y and n are the Yes and No buttons.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alkime/liftlog/internal/session"
	"github.com/alkime/liftlog/internal/tui/components/labeledspinner"
	"github.com/alkime/liftlog/internal/tui/style"
	"github.com/alkime/liftlog/internal/workout"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the session the UI drives.
type Controller interface {
	Start(ctx context.Context) (session.Outcome, error)
	Confirm(ctx context.Context) (session.Outcome, error)
	Reject(ctx context.Context) (session.Outcome, error)
	Finish(ctx context.Context)
	Snapshot() session.Snapshot
}

type eventMsg session.Event

type eventsClosedMsg struct{}

type outcomeMsg struct {
	op      string
	outcome session.Outcome
	err     error
}

// Model is the session screen.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	ctrl    Controller
	events  <-chan session.Event
	keys    KeyMap
	spinner labeledspinner.Model

	snap    session.Snapshot
	notice  string
	lastErr string
	width   int
}

// New builds the model. events should carry everything the controller
// publishes; cancel is called on quit.
func New(ctx context.Context, cancel context.CancelFunc, ctrl Controller, events <-chan session.Event) Model {
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		ctrl:    ctrl,
		events:  events,
		keys:    DefaultKeyMap(),
		spinner: labeledspinner.New(spinner.Points, "Listening", "", ""),
		snap:    ctrl.Snapshot(),
		width:   80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(e)
	}
}

func (m Model) run(op string, fn func(context.Context) (session.Outcome, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		outcome, err := fn(ctx)
		return outcomeMsg{op: op, outcome: outcome, err: err}
	}
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.applyEvent(session.Event(msg))
		return m, m.waitForEvent()

	case eventsClosedMsg:
		return m, nil

	case outcomeMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrNotIdle) {
			m.lastErr = fmt.Sprintf("%s: %v", msg.op, msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(km tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(km, m.keys.ForceQuit), key.Matches(km, m.keys.Quit):
		m.ctrl.Finish(m.ctx)
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(km, m.keys.Start):
		if m.snap.Phase != session.PhaseIdle {
			return m, nil
		}
		m.notice = ""
		m.lastErr = ""
		return m, m.run("start", m.ctrl.Start)

	case key.Matches(km, m.keys.Yes):
		if !m.awaitingAnswer() {
			return m, nil
		}
		return m, m.run("confirm", m.ctrl.Confirm)

	case key.Matches(km, m.keys.No):
		if !m.awaitingAnswer() {
			return m, nil
		}
		return m, m.run("reject", m.ctrl.Reject)

	case key.Matches(km, m.keys.Finish):
		m.ctrl.Finish(m.ctx)
		return m, nil
	}

	return m, nil
}

func (m *Model) applyEvent(e session.Event) {
	m.snap = e.Snapshot

	switch e.Reason {
	case session.ReasonHint, session.ReasonClarifying:
		m.notice = e.Message
	case session.ReasonLogged:
		if e.Logged != nil {
			m.notice = fmt.Sprintf("Logged %s, set %d", e.Logged.ExerciseName, e.Logged.SetNumber)
		}
	case session.ReasonRejected:
		m.notice = "Not logged"
	case session.ReasonFinished:
		m.notice = "Session finished"
	case session.ReasonStarted, session.ReasonRecognized:
		m.notice = ""
	}
}

func (m Model) awaitingAnswer() bool {
	return m.snap.Phase == session.PhaseAwaitingYesNo && m.snap.Pending != nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("liftlog"))
	sb.WriteString(style.Muted.Render("  " + phaseLabel(m.snap.Phase)))
	sb.WriteString("\n\n")

	sb.WriteString(m.viewBody())
	sb.WriteString("\n\n")

	if m.notice != "" {
		sb.WriteString(style.Success.Render(m.notice))
		sb.WriteString("\n")
	}
	if msg := m.errorText(); msg != "" {
		sb.WriteString(style.Error.Render(msg))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(viewToday(m.snap.TodaySets))
	sb.WriteString("\n")
	sb.WriteString(m.viewHelp())

	return sb.String()
}

func (m Model) viewBody() string {
	switch m.snap.Phase {
	case session.PhaseTranscribing:
		detail := m.snap.Transcript
		if detail == "" {
			detail = "Say the exercise, weight and reps"
		}
		return m.spinner.Labeled("Listening", detail).View()

	case session.PhaseConfirming, session.PhaseAwaitingYesNo:
		if m.snap.Pending == nil {
			return ""
		}
		s := style.Pending.Render(m.snap.Pending.Summary()) + "\n"
		if m.snap.ButtonsOnly {
			return s + style.Warning.Render("Press y or n to answer")
		}
		return s + style.Subtitle.Render("Is this right? Say yes or no")

	case session.PhaseLogging:
		return m.spinner.Labeled("Saving", "").View()

	default:
		return style.Subtitle.Render("Press space and say your set")
	}
}

func (m Model) errorText() string {
	if m.lastErr != "" {
		return m.lastErr
	}
	return m.snap.Error
}

func (m Model) viewHelp() string {
	var bindings []key.Binding
	switch m.snap.Phase {
	case session.PhaseIdle:
		bindings = append(bindings, m.keys.Start)
	case session.PhaseAwaitingYesNo:
		bindings = append(bindings, m.keys.Yes, m.keys.No, m.keys.Finish)
	default:
		bindings = append(bindings, m.keys.Finish)
	}
	bindings = append(bindings, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, renderKeyHelp(b))
	}
	return strings.Join(parts, "  ")
}

func viewToday(sets []workout.LoggedSet) string {
	var sb strings.Builder

	sb.WriteString(style.Label.Render("Today"))
	sb.WriteString("\n")

	if len(sets) == 0 {
		sb.WriteString(style.Muted.Render("  nothing logged yet"))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, s := range sets {
		sb.WriteString(style.Bullet.Render("  • "))
		fmt.Fprintf(&sb, "%s  %s lb × %d  ", s.ExerciseName, workout.FormatWeight(s.Weight), s.Reps)
		sb.WriteString(style.Muted.Render(fmt.Sprintf("(set %d)", s.SetNumber)))
		sb.WriteString("\n")
	}
	sb.WriteString(style.Muted.Render(fmt.Sprintf("  volume %s lb", workout.FormatWeight(workout.Volume(sets)))))
	sb.WriteString("\n")

	return sb.String()
}

func renderKeyHelp(b key.Binding) string {
	return style.Help.Render("[") + style.Key.Render(b.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(b.Help().Desc)
}

func phaseLabel(p session.Phase) string {
	switch p {
	case session.PhaseTranscribing:
		return "listening"
	case session.PhaseConfirming:
		return "confirming"
	case session.PhaseAwaitingYesNo:
		return "waiting for yes or no"
	case session.PhaseLogging:
		return "saving"
	default:
		return "ready"
	}
}
