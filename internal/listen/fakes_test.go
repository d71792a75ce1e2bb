package listen_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alkime/liftlog/internal/audiofile"
)

// fakeRecorder hands out numbered in-memory chunks.
type fakeRecorder struct {
	mu        sync.Mutex
	startErr  error
	recording bool
	chunks    int
}

func (f *fakeRecorder) StartRecording(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.recording = true
	return nil
}

func (f *fakeRecorder) StopRecording(context.Context) (audiofile.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.recording {
		return audiofile.File{}, errors.New("not recording")
	}
	f.recording = false
	f.chunks++
	return audiofile.File{URI: fmt.Sprintf("mem://chunk-%d", f.chunks), MIMEType: audiofile.MIMETypeMP3}, nil
}

func (f *fakeRecorder) Chunks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chunks
}

type reply struct {
	text  string
	err   error
	delay time.Duration
}

// scriptedTranscriber answers each call with the next reply; once the
// script runs out it keeps returning silence.
type scriptedTranscriber struct {
	mu      sync.Mutex
	replies []reply
	calls   int
}

func script(texts ...string) *scriptedTranscriber {
	s := &scriptedTranscriber{}
	for _, t := range texts {
		s.replies = append(s.replies, reply{text: t})
	}
	return s
}

func (s *scriptedTranscriber) Transcribe(ctx context.Context, _ audiofile.File) (string, error) {
	s.mu.Lock()
	var r reply
	if s.calls < len(s.replies) {
		r = s.replies[s.calls]
	}
	s.calls++
	s.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.text, r.err
}

func (s *scriptedTranscriber) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
