package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// maxCached bounds the synthesized-prompt cache. Prompts repeat a lot
// ("Say yes or no."), set summaries rarely do.
const maxCached = 64

// Synthesizer renders text as PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Output plays PCM and can be interrupted. Play must not start, or must
// cut short, playback once ctx is done.
type Output interface {
	Play(ctx context.Context, pcm []byte) error
	Stop()
}

// Speaker synthesizes and plays prompts. Speak blocks until playback ends;
// Stop cuts off both synthesis and playback and makes the pending Speak
// return nil.
type Speaker struct {
	synth Synthesizer
	out   Output
	log   *slog.Logger

	mu      sync.Mutex
	cache   map[string][]byte
	stops   uint64
	cancels map[uint64]context.CancelFunc
	nextID  uint64
}

func NewSpeaker(synth Synthesizer, out Output, log *slog.Logger) *Speaker {
	if log == nil {
		log = slog.Default()
	}
	return &Speaker{
		synth:   synth,
		out:     out,
		log:     log,
		cache:   make(map[string][]byte),
		cancels: make(map[uint64]context.CancelFunc),
	}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	gen := s.stops
	id := s.nextID
	s.nextID++
	s.cancels[id] = cancel
	pcm, cached := s.cache[text]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.cancels, id)
		s.mu.Unlock()
		cancel()
	}()

	if !cached {
		var err error
		pcm, err = s.synth.Synthesize(ctx, text)
		if err != nil {
			if s.stoppedSince(gen) && errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("speech synthesis: %w", err)
		}
		s.remember(text, pcm)
	}

	if s.stoppedSince(gen) {
		return nil
	}

	// A Stop from here on cancels ctx, which Play observes even if it lands
	// before playback is registered with the output.
	s.log.Debug("speaking", "text", text, "cached", cached)
	if err := s.out.Play(ctx, pcm); err != nil {
		if s.stoppedSince(gen) && errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("speech playback: %w", err)
	}
	return nil
}

// Stop halts playback and abandons in-flight synthesis.
func (s *Speaker) Stop() {
	s.mu.Lock()
	s.stops++
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()

	s.out.Stop()
}

func (s *Speaker) stoppedSince(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops != gen
}

func (s *Speaker) remember(text string, pcm []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cache) >= maxCached {
		return
	}
	s.cache[text] = pcm
}

// LogSpeaker writes prompts to the log instead of the speakers. Used when
// audio output is disabled.
type LogSpeaker struct {
	Log *slog.Logger
}

func (l LogSpeaker) Speak(_ context.Context, text string) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("speak", "text", text)
	return nil
}

func (LogSpeaker) Stop() {}
