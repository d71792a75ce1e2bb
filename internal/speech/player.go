package speech

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player handles playback of raw PCM via oto. Only one oto context may
// exist per process, so create one Player and share it.
type Player struct {
	ctx    *oto.Context
	log    *slog.Logger
	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewPlayer initializes the system audio context. Returns an error if the
// audio device is unavailable.
func NewPlayer(log *slog.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}
	<-readyChan

	log.Debug("audio player initialized", "sampleRate", SampleRate, "channels", ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play plays PCM synchronously. Blocks until playback finishes, Stop is
// called, or ctx is done.
func (p *Player) Play(ctx context.Context, pcm []byte) (err error) {
	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	defer func() {
		if cerr := player.Close(); err == nil {
			err = cerr
		}
	}()

	p.mu.Lock()
	p.active = player
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.active = nil
		p.mu.Unlock()
	}()

	// Checked after active is set so a concurrent Stop is never missed.
	if err := ctx.Err(); err != nil {
		return err
	}

	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// Stop interrupts the currently playing audio, if any. Safe to call
// concurrently and when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player interrupted")
	}
}
