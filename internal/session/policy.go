package session

import (
	"fmt"

	"github.com/alkime/liftlog/internal/listen"
	"github.com/alkime/liftlog/internal/workout"
)

// AmbiguousPolicy decides what happens after two unclear yes/no answers.
type AmbiguousPolicy string

const (
	// AmbiguousAbandon drops the pending set and returns to idle.
	AmbiguousAbandon AmbiguousPolicy = "abandon"
	// AmbiguousButtons keeps the pending set and waits for a button.
	AmbiguousButtons AmbiguousPolicy = "buttons"

	DefaultAmbiguousPolicy = AmbiguousAbandon
)

// Prompts are the spoken sentences. Failure prompts double as the on-screen
// error text.
type Prompts struct {
	Invitation      string
	FirstHint       string
	RetryHint       string
	NoSet           string
	RecordingFailed string
	Clarify         string
	Rejected        string
	Abandoned       string
	Unreachable     string
	ButtonsOnly     string
	PersistFailed   string
}

func DefaultPrompts() Prompts {
	return Prompts{
		Invitation:      "Go ahead, tell me your set.",
		FirstHint:       "Say the exercise, the weight and the reps. For example: leg press, 160 pounds, for 10 reps.",
		RetryHint:       "Let's try that once more. Exercise, then weight, then reps.",
		NoSet:           "Sorry, I couldn't catch a complete set. Tap Start to try again.",
		RecordingFailed: "Sorry, I couldn't use the microphone.",
		Clarify:         "Sorry, was that a yes or a no?",
		Rejected:        "Okay, I won't log that.",
		Abandoned:       "Sorry, I didn't get a clear answer. Nothing was logged.",
		Unreachable:     "Sorry, I'm having trouble hearing right now. Nothing was logged.",
		ButtonsOnly:     "I didn't catch that. Tap Yes or No.",
		PersistFailed:   "Sorry, I couldn't save that set. Tap Yes to try again.",
	}
}

// Confirmation asks the user to check a recognized set.
func (p Prompts) Confirmation(set workout.Set) string {
	return fmt.Sprintf("%s. Is that right? Say yes or no.", set.Summary())
}

// Logged is the short acknowledgement after a set is saved.
func (p Prompts) Logged(set workout.LoggedSet) string {
	return fmt.Sprintf("Logged. %s, set %d.", set.ExerciseName, set.SetNumber)
}

// Policy holds everything that varies between deployments of the same
// session flow.
type Policy struct {
	// OuterAttempts is how many times the set listener is invoked per cycle.
	OuterAttempts int
	SetListen     listen.SetOptions
	YesNoListen   listen.YesNoOptions
	OnAmbiguous   AmbiguousPolicy
	Prompts       Prompts
}

func DefaultPolicy() Policy {
	return Policy{
		OuterAttempts: 4,
		SetListen:     listen.DefaultSetOptions(),
		YesNoListen:   listen.DefaultYesNoOptions(),
		OnAmbiguous:   DefaultAmbiguousPolicy,
		Prompts:       DefaultPrompts(),
	}
}
