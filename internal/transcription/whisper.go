// Package transcription converts recorded chunks to text with the OpenAI
// transcription API.
package transcription

import (
	"context"
	"errors"
	"fmt"

	"github.com/alkime/liftlog/internal/audiofile"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// vocabularyPrompt nudges Whisper toward gym vocabulary and digits.
const vocabularyPrompt = "Leg press, 160 pounds, for 10 reps. Bench press 135 x 8. Same weight for 12. Yes. No."

var ErrMissingAPIKey = errors.New("API key required: set OPENAI_API_KEY or run `liftlog config set-key openai`")

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	apiKey string
	model  openai.AudioModel
	client openai.Client
}

// NewTranscriber creates a new transcription client. An empty model selects
// whisper-1.
func NewTranscriber(apiKey, model string, reqOpts ...option.RequestOption) *Transcriber {
	m := openai.AudioModelWhisper1
	if model != "" {
		m = openai.AudioModel(model)
	}
	return &Transcriber{
		apiKey: apiKey,
		model:  m,
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)...),
	}
}

// Transcribe uploads the chunk and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, file audiofile.File) (string, error) {
	if t.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	f, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open audio chunk: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:     f,
		Model:    t.model,
		Language: openai.String("en"),
		Prompt:   openai.String(vocabularyPrompt),
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}
