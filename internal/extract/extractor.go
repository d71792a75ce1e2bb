// Package extract reads workout sets out of free-form transcripts with the
// Anthropic API. The model is forced to answer through a single tool call so
// the reply is always structured.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alkime/liftlog/internal/parse"
	"github.com/alkime/liftlog/internal/workout"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const toolName = "record_workout_set"

// ErrMissingAPIKey is returned by Extract when no key was configured.
var ErrMissingAPIKey = errors.New("API key required: set ANTHROPIC_API_KEY or run `liftlog config set-key anthropic`")

// SetToolInput is the tool input schema for record_workout_set.
type SetToolInput struct {
	OK           bool    `json:"ok"`
	ExerciseName string  `json:"exercise_name"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
	Reason       string  `json:"reason"`
}

// Extractor implements parse.Extractor on top of Anthropic tool use.
type Extractor struct {
	apiKey    string
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	client    anthropic.Client
}

var _ parse.Extractor = (*Extractor)(nil)

type Option func(*Extractor)

// WithModel overrides the default model. Empty values are ignored.
func WithModel(model string) Option {
	return func(e *Extractor) {
		if model != "" {
			e.model = anthropic.Model(model)
		}
	}
}

// WithTimeout bounds each Extract call. The call runs while the audio
// guard is held, so it must not hang. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExtractor creates an extractor. Additional request options, such as a
// base URL, are passed through to the SDK client.
func NewExtractor(apiKey string, opts []Option, reqOpts ...option.RequestOption) *Extractor {
	e := &Extractor{
		apiKey:    apiKey,
		model:     anthropic.ModelClaudeSonnet4_5_20250929,
		maxTokens: 512,
		timeout:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.client = anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)...)
	return e
}

// getSetTool returns the tool definition for the structured set output.
func getSetTool() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name:        toolName,
		Description: anthropic.String("Record one exercise set read from the user's utterance, or explain why none could be read"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"ok": map[string]interface{}{
					"type":        "boolean",
					"description": "True when the utterance describes a complete, plausible set",
				},
				"exercise_name": map[string]interface{}{
					"type":        "string",
					"description": "Exercise name, lowercase is fine",
				},
				"weight": map[string]interface{}{
					"type":        "number",
					"description": "Weight in pounds",
				},
				"reps": map[string]interface{}{
					"type":        "integer",
					"description": "Number of repetitions",
				},
				"reason": map[string]interface{}{
					"type":        "string",
					"description": "Why no set could be recorded, when ok is false",
				},
			},
			Required: []string{"ok", "exercise_name", "weight", "reps"},
		},
	}
}

// Extract asks the model for a set. last, when non-nil, is rendered into
// the user turn so relative phrases can be resolved.
func (e *Extractor) Extract(ctx context.Context, transcript string, last *workout.LoggedSet) (parse.Extraction, error) {
	if e.apiKey == "" {
		return parse.Extraction{}, ErrMissingAPIKey
	}

	toolDef := getSetTool()
	tool := anthropic.ToolUnionParamOfTool(toolDef.InputSchema, toolDef.Name)
	tool.OfTool.Description = toolDef.Description

	params := anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userTurn(transcript, last))),
		},
		Tools:      []anthropic.ToolUnionParam{tool},
		ToolChoice: anthropic.ToolChoiceParamOfTool(toolName),
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return parse.Extraction{}, fmt.Errorf("failed to extract set via Anthropic API: %w", err)
	}

	input, err := parseSetToolUse(resp.Content)
	if err != nil {
		return parse.Extraction{}, err
	}

	return parse.Extraction{
		OK:           input.OK,
		ExerciseName: input.ExerciseName,
		Weight:       input.Weight,
		Reps:         input.Reps,
		Reason:       input.Reason,
	}, nil
}

func userTurn(transcript string, last *workout.LoggedSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Utterance: %q\n", strings.TrimSpace(transcript))
	if last == nil {
		b.WriteString("Previous set: none")
		return b.String()
	}
	fmt.Fprintf(&b, "Previous set: %s, %s pounds, %d reps (set %d)",
		last.ExerciseName, workout.FormatWeight(last.Weight), last.Reps, last.SetNumber)
	return b.String()
}

// parseSetToolUse extracts SetToolInput from response content blocks.
func parseSetToolUse(content []anthropic.ContentBlockUnion) (*SetToolInput, error) {
	if len(content) == 0 {
		return nil, errors.New("empty response from Anthropic API")
	}

	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var toolInput SetToolInput
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(inputBytes, &toolInput); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}

			return &toolInput, nil
		}
	}

	return nil, errors.New("no tool use found in Anthropic API response")
}
