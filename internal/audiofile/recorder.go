// Package audiofile turns a stream of raw PCM packets into an MP3 file on
// disk. One Recorder produces one chunk.
package audiofile

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// Recorder reads raw PCM audio data from a channel and buffers it to disk.
// When the channel closes it converts the buffer to MP3.
type Recorder struct {
	sampleRate int
	channels   int
	input      <-chan []byte
	pcmPath    string
	mp3Path    string
	log        *slog.Logger

	pcmFile      *os.File
	bytesWritten int64
	mu           sync.RWMutex
	wg           sync.WaitGroup
	errOnce      sync.Once
	err          error
}

// Config holds configuration for the audio recorder.
type Config struct {
	SampleRate int    // Sample rate in Hz (e.g., 16000)
	Channels   int    // Number of channels (1 for mono, 2 for stereo)
	MP3Path    string // Final MP3 output path
}

// NewRecorder creates a recorder reading S16LE PCM from input.
func NewRecorder(config Config, input <-chan []byte, log *slog.Logger) (*Recorder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}
	if config.SampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	if config.Channels <= 0 {
		return nil, errors.New("channels must be positive")
	}
	if config.MP3Path == "" {
		return nil, errors.New("MP3 path cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Recorder{ //nolint:exhaustruct // wg, errOnce, err initialized later
		sampleRate: config.SampleRate,
		channels:   config.Channels,
		input:      input,
		pcmPath:    config.MP3Path + ".tmp.pcm",
		mp3Path:    config.MP3Path,
		log:        log,
	}, nil
}

// Start begins buffering PCM data from the input channel.
// Must be called before any data is sent to the input channel.
func (r *Recorder) Start(ctx context.Context) error {
	if r.pcmFile != nil {
		return errors.New("recorder already started")
	}

	pcmFile, err := os.Create(r.pcmPath)
	if err != nil {
		return fmt.Errorf("failed to create PCM file %s: %w", r.pcmPath, err)
	}
	r.pcmFile = pcmFile

	r.wg.Go(func() {
		defer r.finish()

		for {
			select {
			case data, ok := <-r.input:
				if !ok {
					return
				}

				n, err := r.pcmFile.Write(data)
				if err != nil {
					r.setError(fmt.Errorf("failed to write PCM data: %w", err))
					return
				}

				r.mu.Lock()
				r.bytesWritten += int64(n)
				r.mu.Unlock()

			case <-ctx.Done():
				r.setError(fmt.Errorf("recording interrupted: %w", ctx.Err()))
				return
			}
		}
	})

	return nil
}

func (r *Recorder) finish() {
	defer r.cleanup()

	if err := r.pcmFile.Close(); err != nil {
		r.setError(fmt.Errorf("failed to close PCM file: %w", err))
		return
	}
	if r.Err() != nil {
		return
	}

	if err := r.convertToMP3(); err != nil {
		r.setError(fmt.Errorf("failed to convert to MP3: %w", err))
		return
	}

	r.log.Debug("chunk encoded", "output", r.mp3Path, "pcmBytes", r.BytesWritten())
}

// Wait blocks until the channel is drained and the MP3 is written, and
// returns the finished file.
func (r *Recorder) Wait() (File, error) {
	r.wg.Wait()
	if err := r.Err(); err != nil {
		return File{}, err
	}
	return FromPath(r.mp3Path), nil
}

// Err returns the first error the recorder hit, if any.
func (r *Recorder) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// convertToMP3 converts the buffered PCM data to MP3 format.
func (r *Recorder) convertToMP3() error {
	pcmData, err := os.ReadFile(r.pcmPath)
	if err != nil {
		return fmt.Errorf("failed to read PCM file: %w", err)
	}

	numSamples := len(pcmData) / 2
	monoSamples := make([]int16, numSamples)
	if err := binary.Read(bytes.NewReader(pcmData[:numSamples*2]), binary.LittleEndian, monoSamples); err != nil {
		return fmt.Errorf("failed to read PCM samples: %w", err)
	}

	// shine-mp3 works better with stereo, so mono is duplicated.
	samples := monoSamples
	channels := r.channels
	if r.channels == 1 {
		samples = make([]int16, numSamples*2)
		for i, sample := range monoSamples {
			samples[i*2] = sample
			samples[i*2+1] = sample
		}
		channels = 2
	}

	mp3File, err := os.Create(r.mp3Path)
	if err != nil {
		return fmt.Errorf("failed to create MP3 file %s: %w", r.mp3Path, err)
	}
	defer mp3File.Close()

	encoder := mp3encoder.NewEncoder(r.sampleRate, channels)
	if err := encoder.Write(mp3File, samples); err != nil {
		return fmt.Errorf("failed to encode MP3: %w", err)
	}

	return nil
}

// cleanup removes the temporary PCM file.
func (r *Recorder) cleanup() {
	if err := os.Remove(r.pcmPath); err != nil && !os.IsNotExist(err) {
		r.log.Warn("failed to remove temporary PCM file", "path", r.pcmPath, "error", err)
	}
}

// BytesWritten returns the number of PCM bytes buffered so far.
// Safe to call concurrently.
func (r *Recorder) BytesWritten() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytesWritten
}

// setError records the first error that occurs (subsequent calls are no-ops).
func (r *Recorder) setError(err error) {
	r.errOnce.Do(func() {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		r.log.Error("audio recorder error", "error", err)
	})
}
