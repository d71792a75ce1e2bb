// Package speech speaks prompts aloud. Text is synthesized with the OpenAI
// speech API as raw PCM and played through the system audio device.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI's pcm response format is 24kHz signed 16-bit little-endian mono.
const (
	SampleRate   = 24000
	ChannelCount = 1
)

var ErrMissingAPIKey = errors.New("API key required: set OPENAI_API_KEY or run `liftlog config set-key openai`")

// OpenAISynthesizer turns text into PCM with the OpenAI speech endpoint.
type OpenAISynthesizer struct {
	apiKey string
	model  openai.SpeechModel
	voice  openai.AudioSpeechNewParamsVoice
	client openai.Client
}

// NewOpenAISynthesizer creates a synthesizer. Empty model and voice fall
// back to tts-1 and alloy.
func NewOpenAISynthesizer(apiKey, model, voice string, reqOpts ...option.RequestOption) *OpenAISynthesizer {
	s := &OpenAISynthesizer{
		apiKey: apiKey,
		model:  openai.SpeechModelTTS1,
		voice:  openai.AudioSpeechNewParamsVoiceAlloy,
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)...),
	}
	if model != "" {
		s.model = openai.SpeechModel(model)
	}
	if voice != "" {
		s.voice = openai.AudioSpeechNewParamsVoice(voice)
	}
	return s
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          s.model,
		Voice:          s.voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech via OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized speech: %w", err)
	}

	return pcm, nil
}
