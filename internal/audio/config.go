package audio

import (
	"github.com/gen2brain/malgo"
)

// Whisper is happy with 16kHz mono, and it keeps chunk files small.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
)

type DeviceConfig struct {
	Format          malgo.FormatType
	CaptureChannels int
	SampleRate      int
	// DeviceName selects a capture device by name; empty means the system
	// default.
	DeviceName string
}

// DefaultDeviceConfig captures signed 16-bit mono at the default rate.
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Format:          malgo.FormatS16,
		CaptureChannels: DefaultChannels,
		SampleRate:      DefaultSampleRate,
	}
}
