package listen

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

// Decision is the classified reply to a yes/no question.
type Decision string

const (
	DecisionYes     Decision = "yes"
	DecisionNo      Decision = "no"
	DecisionUnknown Decision = "unknown"
)

var (
	affirmatives = map[string]bool{"yes": true, "yeah": true, "yep": true}
	negatives    = map[string]bool{"no": true, "nope": true}
)

// Answer is what a YesNoListener heard. Err is set only when nothing was
// heard because recording or transcription failed, so callers can tell an
// unreachable service from speech that was simply ambiguous.
type Answer struct {
	Decision   Decision
	Transcript string
	Attempts   int
	Err        error
}

type YesNoOptions struct {
	MaxAttempts       int
	ChunkDuration     time.Duration
	TranscribeTimeout time.Duration

	OnTranscript func(text string)
}

func DefaultYesNoOptions() YesNoOptions {
	return YesNoOptions{
		MaxAttempts:       3,
		ChunkDuration:     3 * time.Second,
		TranscribeTimeout: 10 * time.Second,
	}
}

// Classify maps an utterance to a decision by whole-word match. Utterances
// containing both or neither kind of word are unknown.
func Classify(transcript string) Decision {
	words := strings.FieldsFunc(strings.ToLower(transcript), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var yes, no bool
	for _, w := range words {
		yes = yes || affirmatives[w]
		no = no || negatives[w]
	}

	switch {
	case yes && !no:
		return DecisionYes
	case no && !yes:
		return DecisionNo
	default:
		return DecisionUnknown
	}
}

// YesNoListener records short chunks until one of them is a clear yes or no.
type YesNoListener struct {
	rec Recorder
	tr  Transcriber
	log *slog.Logger
}

func NewYesNoListener(rec Recorder, tr Transcriber, log *slog.Logger) *YesNoListener {
	if log == nil {
		log = slog.Default()
	}
	return &YesNoListener{rec: rec, tr: tr, log: log}
}

// Listen never fails; every problem collapses into DecisionUnknown.
func (l *YesNoListener) Listen(ctx context.Context, opts YesNoOptions) Answer {
	opts = withYesNoDefaults(opts)

	var (
		ans   Answer
		heard bool
	)
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		ans.Attempts = attempt + 1
		log := l.log.With("attempt", attempt+1, "of", opts.MaxAttempts)

		file, err := captureChunk(ctx, l.rec, opts.ChunkDuration)
		if err != nil {
			log.Error("recording failed", "error", err)
			ans.Decision = DecisionUnknown
			ans.Err = err
			return ans
		}

		text, err := transcribeWithin(ctx, l.tr, file, opts.TranscribeTimeout)
		discard(log, file)
		if err != nil {
			log.Warn("transcription failed", "error", err)
			ans.Err = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		heard = true
		ans.Transcript = CleanTranscript(text)
		notify(opts.OnTranscript, ans.Transcript)

		if d := Classify(ans.Transcript); d != DecisionUnknown {
			ans.Decision = d
			ans.Err = nil
			log.Debug("answer", "decision", d, "transcript", ans.Transcript)
			return ans
		}
	}

	ans.Decision = DecisionUnknown
	if heard {
		ans.Err = nil
	}
	return ans
}

func withYesNoDefaults(opts YesNoOptions) YesNoOptions {
	def := DefaultYesNoOptions()
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
