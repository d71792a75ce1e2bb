package listen

import (
	"context"
	"log/slog"
	"time"

	"github.com/alkime/liftlog/internal/parse"
	"github.com/alkime/liftlog/internal/workout"
)

// SetStatus is the outcome of one SetListener run.
type SetStatus string

const (
	SetRecognized  SetStatus = "success"
	SetFirstFailed SetStatus = "first_failed"
	SetTimedOut    SetStatus = "timeout"
	SetErrored     SetStatus = "error"
)

// SetResult carries the set on success. Err is set only for SetErrored.
type SetResult struct {
	Status     SetStatus
	Set        workout.Set
	Tier       parse.Tier
	Transcript string
	Attempts   int
	Err        error
}

// SetOptions tunes one SetListener run.
type SetOptions struct {
	MaxAttempts       int
	ChunkDuration     time.Duration
	TranscribeTimeout time.Duration

	// HintOnFirstFailure returns SetFirstFailed when the first chunk cannot
	// be parsed, so the caller can coach the user before trying again.
	HintOnFirstFailure bool

	// TodaySets gives the extractor the most recent set for phrases like
	// "same weight".
	TodaySets []workout.LoggedSet

	OnTranscript func(text string)
	OnError      func(message string)
}

func DefaultSetOptions() SetOptions {
	return SetOptions{
		MaxAttempts:        6,
		ChunkDuration:      5 * time.Second,
		TranscribeTimeout:  10 * time.Second,
		HintOnFirstFailure: true,
	}
}

const (
	msgSetTimeout = "I couldn't catch a complete set. Tap Start to try again."
	msgSetError   = "I couldn't use the microphone."
)

// SetListener records chunks until one of them parses as a workout set or
// the attempt budget runs out.
type SetListener struct {
	rec    Recorder
	tr     Transcriber
	parser SetParser
	log    *slog.Logger
}

func NewSetListener(rec Recorder, tr Transcriber, parser SetParser, log *slog.Logger) *SetListener {
	if log == nil {
		log = slog.Default()
	}
	return &SetListener{rec: rec, tr: tr, parser: parser, log: log}
}

// Listen runs the record, transcribe, parse loop. Transcription failures
// and unparseable chunks use up an attempt; a recording failure ends the
// run with SetErrored.
func (l *SetListener) Listen(ctx context.Context, opts SetOptions) SetResult {
	opts = withSetDefaults(opts)
	last := workout.LastSet(opts.TodaySets)

	var transcript string
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		log := l.log.With("attempt", attempt+1, "of", opts.MaxAttempts)

		file, err := captureChunk(ctx, l.rec, opts.ChunkDuration)
		if err != nil {
			log.Error("recording failed", "error", err)
			notify(opts.OnError, msgSetError)
			return SetResult{Status: SetErrored, Transcript: transcript, Attempts: attempt + 1, Err: err}
		}

		text, err := transcribeWithin(ctx, l.tr, file, opts.TranscribeTimeout)
		discard(log, file)
		if err != nil {
			if ctx.Err() != nil {
				return SetResult{Status: SetErrored, Transcript: transcript, Attempts: attempt + 1, Err: ctx.Err()}
			}
			log.Warn("transcription failed", "error", err)
			continue
		}

		transcript = CleanTranscript(text)
		log.Debug("heard", "transcript", transcript)
		notify(opts.OnTranscript, transcript)

		res, ok := l.parser.Parse(ctx, transcript, last)
		if ok {
			notify(opts.OnTranscript, res.Set.Summary())
			log.Info("set recognized", "exercise", res.Set.ExerciseName,
				"weight", res.Set.Weight, "reps", res.Set.Reps, "tier", res.Tier.String())
			return SetResult{
				Status:     SetRecognized,
				Set:        res.Set,
				Tier:       res.Tier,
				Transcript: transcript,
				Attempts:   attempt + 1,
			}
		}
		log.Debug("no set in transcript", "reason", res.Reason)

		if attempt == 0 && opts.HintOnFirstFailure {
			return SetResult{Status: SetFirstFailed, Transcript: transcript, Attempts: 1}
		}
	}

	notify(opts.OnError, msgSetTimeout)
	return SetResult{Status: SetTimedOut, Transcript: transcript, Attempts: opts.MaxAttempts}
}

func withSetDefaults(opts SetOptions) SetOptions {
	def := DefaultSetOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.ChunkDuration <= 0 {
		opts.ChunkDuration = def.ChunkDuration
	}
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = def.TranscribeTimeout
	}
	return opts
}

func notify(fn func(string), s string) {
	if fn != nil {
		fn(s)
	}
}
