package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alkime/liftlog/internal/audiofile"
)

var (
	ErrNotRecording     = errors.New("not recording")
	ErrAlreadyRecording = errors.New("already recording")
)

// MicConfig configures chunk capture.
type MicConfig struct {
	Device  *DeviceConfig
	WorkDir string // where chunk files are written
}

// Mic records fixed chunks of microphone audio to MP3 files. Each
// StartRecording/StopRecording pair produces one file.
type Mic struct {
	conf      MicConfig
	newDevice func(*DeviceConfig) Device
	log       *slog.Logger

	mu   sync.Mutex
	take *take
	seq  int
}

type take struct {
	dev    Device
	dataC  chan DataPacket
	rec    *audiofile.Recorder
	cancel context.CancelFunc
}

type MicOption func(*Mic)

// WithDeviceFactory replaces the malgo device, mostly for tests.
func WithDeviceFactory(f func(*DeviceConfig) Device) MicOption {
	return func(m *Mic) {
		m.newDevice = f
	}
}

func NewMic(conf MicConfig, log *slog.Logger, opts ...MicOption) *Mic {
	if conf.Device == nil {
		conf.Device = DefaultDeviceConfig()
	}
	if conf.WorkDir == "" {
		conf.WorkDir = os.TempDir()
	}
	if log == nil {
		log = slog.Default()
	}

	m := &Mic{conf: conf, newDevice: NewDevice, log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartRecording opens the microphone and begins buffering a chunk.
func (m *Mic) StartRecording(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.take != nil {
		return ErrAlreadyRecording
	}

	if err := os.MkdirAll(m.conf.WorkDir, 0o755); err != nil {
		return fmt.Errorf("failed to create work dir %s: %w", m.conf.WorkDir, err)
	}

	m.seq++
	path := filepath.Join(m.conf.WorkDir,
		fmt.Sprintf("chunk-%s-%03d.mp3", time.Now().Format("20060102-150405"), m.seq))

	dataC := make(chan DataPacket, 64)
	rec, err := audiofile.NewRecorder(audiofile.Config{
		SampleRate: m.conf.Device.SampleRate,
		Channels:   m.conf.Device.CaptureChannels,
		MP3Path:    path,
	}, dataC, m.log)
	if err != nil {
		return fmt.Errorf("failed to create chunk recorder: %w", err)
	}

	dev := m.newDevice(m.conf.Device)
	if err := dev.CaptureInto(ctx, dataC); err != nil {
		return fmt.Errorf("microphone unavailable: %w", err)
	}

	// The chunk outlives the caller's deadline until StopRecording drains it.
	recCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := rec.Start(recCtx); err != nil {
		cancel()
		dev.Dealloc(ctx)
		return fmt.Errorf("failed to start chunk recorder: %w", err)
	}

	if err := dev.Start(ctx); err != nil {
		dev.Dealloc(ctx)
		// Cancelling before the wait skips encoding the empty chunk.
		cancel()
		_, _ = rec.Wait()
		return fmt.Errorf("failed to start microphone: %w", err)
	}

	m.take = &take{dev: dev, dataC: dataC, rec: rec, cancel: cancel}
	m.log.Debug("recording chunk", "path", path)
	return nil
}

// StopRecording closes the microphone and returns the encoded chunk.
func (m *Mic) StopRecording(ctx context.Context) (audiofile.File, error) {
	m.mu.Lock()
	t := m.take
	m.take = nil
	m.mu.Unlock()

	if t == nil {
		return audiofile.File{}, ErrNotRecording
	}
	defer t.cancel()

	stopErr := t.dev.Stop(ctx)
	t.dev.Dealloc(ctx)
	close(t.dataC)

	file, err := t.rec.Wait()
	if stopErr != nil {
		if err == nil {
			_ = file.Remove()
		}
		return audiofile.File{}, fmt.Errorf("failed to stop microphone: %w", stopErr)
	}
	if err != nil {
		return audiofile.File{}, fmt.Errorf("failed to finish chunk: %w", err)
	}

	return file, nil
}

// Recording reports whether a chunk is being captured.
func (m *Mic) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.take != nil
}

// Abort stops an in-flight chunk and discards it. Nothing recording is not
// an error.
func (m *Mic) Abort(ctx context.Context) error {
	file, err := m.StopRecording(ctx)
	if errors.Is(err, ErrNotRecording) {
		return nil
	}
	if err != nil {
		return err
	}
	return file.Remove()
}

// Devices lists the capture devices the microphone could use.
func (m *Mic) Devices(ctx context.Context) ([]Info, error) {
	return m.newDevice(m.conf.Device).EnumerateDevices(ctx)
}
