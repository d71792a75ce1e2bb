// Package style defines lipgloss styles for the TUI.
package style

import "github.com/charmbracelet/lipgloss"

// Colors adapt to light and dark terminals.
var (
	accent = lipgloss.AdaptiveColor{Light: "162", Dark: "205"}
	dim    = lipgloss.AdaptiveColor{Light: "244", Dark: "241"}
	muted  = lipgloss.AdaptiveColor{Light: "247", Dark: "245"}
	good   = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	bad    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	warn   = lipgloss.AdaptiveColor{Light: "166", Dark: "214"}
	frame  = lipgloss.AdaptiveColor{Light: "61", Dark: "62"}
)

// Names omit a "Style" suffix since they're read as style.Title etc.
var (
	// Title is the app name and spinner label.
	Title = lipgloss.NewStyle().Bold(true).Foreground(accent)

	// Subtitle is secondary text like the live transcript.
	Subtitle = lipgloss.NewStyle().Foreground(dim)

	// Success is the notice after a set is logged.
	Success = lipgloss.NewStyle().Foreground(good)

	// Error is the spoken failure, repeated on screen.
	Error = lipgloss.NewStyle().Foreground(bad)

	// Warning asks for a button press after voice gave up.
	Warning = lipgloss.NewStyle().Foreground(warn).Bold(true)

	// Pending frames the set waiting for confirmation.
	Pending = lipgloss.NewStyle().
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frame).
		Padding(0, 1)

	// Help and Key render the "[y] yes" hints.
	Help = lipgloss.NewStyle().Foreground(dim)
	Key  = lipgloss.NewStyle().Foreground(accent).Bold(true)

	// Label heads the list of today's sets.
	Label = lipgloss.NewStyle().Bold(true).Underline(true)

	// Muted is used for set numbers and totals.
	Muted = lipgloss.NewStyle().Foreground(muted)

	// Bullet marks each logged set.
	Bullet = lipgloss.NewStyle().Foreground(accent)
)
