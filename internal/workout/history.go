package workout

import (
	"strings"
	"time"

	"github.com/alkime/liftlog/pkg/collections"
)

// DateLayout is the calendar-day key sets are grouped under.
const DateLayout = time.DateOnly

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// SameExercise compares exercise names ignoring case and surrounding space.
func SameExercise(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NextSetNumber is one more than the number of sets already logged for the
// exercise in sets, which are expected to share one date.
func NextSetNumber(sets []LoggedSet, exercise string) int {
	return collections.Count(sets, func(s LoggedSet) bool {
		return SameExercise(s.ExerciseName, exercise)
	}) + 1
}

// LastSet returns the most recently logged set, or nil when sets is empty.
func LastSet(sets []LoggedSet) *LoggedSet {
	last, ok := collections.MaxBy(sets, func(s LoggedSet) int64 { return s.ID })
	if !ok {
		return nil
	}
	return &last
}

// Volume is the total weight moved, weight times reps summed over sets.
func Volume(sets []LoggedSet) float64 {
	return collections.Sum(collections.Apply(sets, func(s LoggedSet) float64 {
		return s.Weight * float64(s.Reps)
	}))
}
