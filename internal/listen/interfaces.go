// Package listen runs the bounded record, transcribe and interpret loops
// behind voice input. Listeners never speak, never take the audio lock and
// never touch session state; they report what they heard.
package listen

import (
	"context"

	"github.com/alkime/liftlog/internal/audiofile"
	"github.com/alkime/liftlog/internal/parse"
	"github.com/alkime/liftlog/internal/workout"
)

// Recorder captures one chunk per Start/Stop pair.
type Recorder interface {
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (audiofile.File, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, file audiofile.File) (string, error)
}

// SetParser is satisfied by *parse.Parser.
type SetParser interface {
	Parse(ctx context.Context, transcript string, last *workout.LoggedSet) (parse.Result, bool)
}
