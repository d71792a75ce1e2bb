package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alkime/liftlog/internal/workout"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeContent(t *testing.T, raw string) []anthropic.ContentBlockUnion {
	t.Helper()
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return msg.Content
}

func TestParseSetToolUse(t *testing.T) {
	t.Run("tool use block", func(t *testing.T) {
		content := decodeContent(t, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "m",
			"content": [
				{"type": "text", "text": "Recording it."},
				{"type": "tool_use", "id": "toolu_1", "name": "record_workout_set",
				 "input": {"ok": true, "exercise_name": "leg press", "weight": 180, "reps": 12, "reason": ""}}
			]
		}`)

		input, err := parseSetToolUse(content)
		require.NoError(t, err)
		assert.Equal(t, &SetToolInput{OK: true, ExerciseName: "leg press", Weight: 180, Reps: 12}, input)
	})

	t.Run("refusal", func(t *testing.T) {
		content := decodeContent(t, `{
			"id": "msg_2", "type": "message", "role": "assistant", "model": "m",
			"content": [
				{"type": "tool_use", "id": "toolu_2", "name": "record_workout_set",
				 "input": {"ok": false, "exercise_name": "", "weight": 0, "reps": 0, "reason": "greeting"}}
			]
		}`)

		input, err := parseSetToolUse(content)
		require.NoError(t, err)
		assert.False(t, input.OK)
		assert.Equal(t, "greeting", input.Reason)
	})

	t.Run("no tool use", func(t *testing.T) {
		content := decodeContent(t, `{
			"id": "msg_3", "type": "message", "role": "assistant", "model": "m",
			"content": [{"type": "text", "text": "hello"}]
		}`)

		_, err := parseSetToolUse(content)
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := parseSetToolUse(nil)
		require.Error(t, err)
	})
}

func TestUserTurn(t *testing.T) {
	assert.Equal(t, "Utterance: \"same weight for 12\"\nPrevious set: none", userTurn(" same weight for 12 ", nil))

	last := &workout.LoggedSet{ExerciseName: "Leg Press", Weight: 180, Reps: 10, SetNumber: 2}
	assert.Equal(t,
		"Utterance: \"same weight for 12\"\nPrevious set: Leg Press, 180 pounds, 10 reps (set 2)",
		userTurn("same weight for 12", last))
}

func TestExtractRequiresKey(t *testing.T) {
	e := NewExtractor("", nil)
	_, err := e.Extract(context.Background(), "leg press", nil)
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestWithModel(t *testing.T) {
	e := NewExtractor("key", []Option{WithModel("claude-haiku-4-5")})
	assert.Equal(t, anthropic.Model("claude-haiku-4-5"), e.model)

	e = NewExtractor("key", []Option{WithModel("")})
	assert.Equal(t, anthropic.ModelClaudeSonnet4_5_20250929, e.model)
}

func TestExtractTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	e := NewExtractor("key", []Option{WithTimeout(50 * time.Millisecond)},
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	start := time.Now()
	_, err := e.Extract(context.Background(), "leg press one sixty for ten", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWithTimeout(t *testing.T) {
	e := NewExtractor("key", []Option{WithTimeout(time.Second)})
	assert.Equal(t, time.Second, e.timeout)

	e = NewExtractor("key", []Option{WithTimeout(0)})
	assert.Equal(t, 15*time.Second, e.timeout)
}
