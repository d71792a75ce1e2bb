package listen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alkime/liftlog/internal/audiofile"
)

var ErrTranscriptionTimeout = errors.New("transcription timed out")

// captureChunk records for d. Cancelling ctx cuts the chunk short; the
// recording is still stopped before returning.
func captureChunk(ctx context.Context, rec Recorder, d time.Duration) (audiofile.File, error) {
	if err := rec.StartRecording(ctx); err != nil {
		return audiofile.File{}, fmt.Errorf("start recording: %w", err)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	file, err := rec.StopRecording(context.WithoutCancel(ctx))
	if waitErr != nil {
		if err == nil {
			_ = file.Remove()
		}
		return audiofile.File{}, waitErr
	}
	if err != nil {
		return audiofile.File{}, fmt.Errorf("stop recording: %w", err)
	}
	return file, nil
}

// transcribeWithin races transcription against timeout. A late result is
// dropped; the buffered channel lets the goroutine finish on its own.
func transcribeWithin(ctx context.Context, tr Transcriber, file audiofile.File, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := tr.Transcribe(ctx, file)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTranscriptionTimeout, timeout)
		}
		return "", ctx.Err()
	}
}

func discard(log *slog.Logger, file audiofile.File) {
	if err := file.Remove(); err != nil {
		log.Debug("failed to remove chunk", "uri", file.URI, "error", err)
	}
}
