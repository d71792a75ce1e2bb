package session

import (
	"context"

	"github.com/alkime/liftlog/internal/listen"
	"github.com/alkime/liftlog/internal/workout"
)

type SetListener interface {
	Listen(ctx context.Context, opts listen.SetOptions) listen.SetResult
}

type YesNoListener interface {
	Listen(ctx context.Context, opts listen.YesNoOptions) listen.Answer
}

// Speaker plays a sentence. Speak returns when playback ends; Stop cuts it
// short.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// Recorder is the part of the microphone Finish needs.
type Recorder interface {
	Recording() bool
	Abort(ctx context.Context) error
}

type Store interface {
	LogSet(ctx context.Context, in workout.LogInput) (workout.LoggedSet, error)
	SetsByDate(ctx context.Context, date string) ([]workout.LoggedSet, error)
}

// Deps are the collaborators an Orchestrator drives. Recorder is optional.
type Deps struct {
	Sets     SetListener
	YesNo    YesNoListener
	Speaker  Speaker
	Store    Store
	Recorder Recorder
}
