package workout_test

import (
	"testing"
	"time"

	"github.com/alkime/liftlog/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     workout.Set
		wantErr error
	}{
		{"valid", workout.Set{ExerciseName: "Leg Press", Weight: 160, Reps: 10}, nil},
		{"bounds inclusive low", workout.Set{ExerciseName: "Row", Weight: 5, Reps: 1}, nil},
		{"bounds inclusive high", workout.Set{ExerciseName: "Deadlift", Weight: 1000, Reps: 50}, nil},
		{"too heavy", workout.Set{ExerciseName: "Leg Press", Weight: 1500, Reps: 10}, workout.ErrWeightOutOfRange},
		{"too light", workout.Set{ExerciseName: "Curl", Weight: 2.5, Reps: 10}, workout.ErrWeightOutOfRange},
		{"zero reps", workout.Set{ExerciseName: "Curl", Weight: 20, Reps: 0}, workout.ErrRepsOutOfRange},
		{"too many reps", workout.Set{ExerciseName: "Curl", Weight: 20, Reps: 51}, workout.ErrRepsOutOfRange},
		{"short name", workout.Set{ExerciseName: "ab", Weight: 20, Reps: 5}, workout.ErrInvalidName},
		{"digits only", workout.Set{ExerciseName: "12345", Weight: 20, Reps: 5}, workout.ErrInvalidName},
		{"long name", workout.Set{ExerciseName: "a very long exercise name that keeps going and going on", Weight: 20, Reps: 5}, workout.ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Leg Press", workout.TitleCase("leg press"))
	assert.Equal(t, "Bench Press", workout.TitleCase("  BENCH   press "))
	assert.Equal(t, "T-Bar Row", workout.TitleCase("t-bar row"))
	assert.Equal(t, "Leg Press", workout.TitleCase(workout.TitleCase("leg PRESS")))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Leg Press, 160 pounds, 10 reps", workout.Set{ExerciseName: "Leg Press", Weight: 160, Reps: 10}.Summary())
	assert.Equal(t, "Curl, 22.5 pounds, 12 reps", workout.Set{ExerciseName: "Curl", Weight: 22.5, Reps: 12}.Summary())
}

func TestNextSetNumber(t *testing.T) {
	sets := []workout.LoggedSet{
		{ID: 1, ExerciseName: "Leg Press", SetNumber: 1},
		{ID: 2, ExerciseName: "Bench Press", SetNumber: 1},
		{ID: 3, ExerciseName: "leg press", SetNumber: 2},
	}

	assert.Equal(t, 3, workout.NextSetNumber(sets, "Leg Press"))
	assert.Equal(t, 2, workout.NextSetNumber(sets, "Bench Press"))
	assert.Equal(t, 1, workout.NextSetNumber(sets, "Squat"))
	assert.Equal(t, 1, workout.NextSetNumber(nil, "Squat"))
}

func TestLastSet(t *testing.T) {
	assert.Nil(t, workout.LastSet(nil))

	sets := []workout.LoggedSet{
		{ID: 4, ExerciseName: "Squat"},
		{ID: 9, ExerciseName: "Leg Press"},
		{ID: 7, ExerciseName: "Bench Press"},
	}
	last := workout.LastSet(sets)
	require.NotNil(t, last)
	assert.Equal(t, "Leg Press", last.ExerciseName)
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("test", -5*60*60)
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-03-09", workout.DateOf(at))
}

func TestVolume(t *testing.T) {
	sets := []workout.LoggedSet{
		{Weight: 100, Reps: 10},
		{Weight: 50.5, Reps: 2},
	}
	assert.InDelta(t, 1101.0, workout.Volume(sets), 0.001)
}
