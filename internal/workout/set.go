// Package workout holds the exercise-set records that the voice logger
// recognizes, confirms and persists, along with the validation rules every
// recognized set has to pass before it is offered for confirmation.
package workout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Plausibility bounds for a recognized set. The pattern tier only accepts a
// match inside the weight and rep ranges; the extractor tier is held to the
// same ranges plus the exercise-name rules.
const (
	MinWeight = 5.0
	MaxWeight = 1000.0
	MinReps   = 1
	MaxReps   = 50

	MinNameLength = 3
	MaxNameLength = 50
)

var (
	ErrWeightOutOfRange = errors.New("weight out of range")
	ErrRepsOutOfRange   = errors.New("reps out of range")
	ErrInvalidName      = errors.New("invalid exercise name")
)

// Set is a recognized but not yet persisted set. It is what the user is
// asked to confirm.
type Set struct {
	ExerciseName string  `json:"exerciseName"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
}

// LoggedSet is a set that has been written to the store.
type LoggedSet struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	ExerciseName string  `json:"exerciseName"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
	SetNumber    int     `json:"setNumber"`
	UserID       string  `json:"userId"`
}

// LogInput is everything the store needs to persist a set.
type LogInput struct {
	Date         string
	ExerciseName string
	Weight       float64
	Reps         int
	SetNumber    int
	UserID       string
}

// Set drops the persistence fields.
func (l LoggedSet) Set() Set {
	return Set{ExerciseName: l.ExerciseName, Weight: l.Weight, Reps: l.Reps}
}

// Validate applies the weight, reps and exercise-name rules.
func (s Set) Validate() error {
	if s.Weight < MinWeight || s.Weight > MaxWeight {
		return fmt.Errorf("%w: %s", ErrWeightOutOfRange, FormatWeight(s.Weight))
	}
	if s.Reps < MinReps || s.Reps > MaxReps {
		return fmt.Errorf("%w: %d", ErrRepsOutOfRange, s.Reps)
	}
	if !ValidName(s.ExerciseName) {
		return fmt.Errorf("%w: %q", ErrInvalidName, s.ExerciseName)
	}
	return nil
}

// Summary is the spoken and displayed form, e.g. "Leg Press, 160 pounds, 10 reps".
func (s Set) Summary() string {
	return fmt.Sprintf("%s, %s pounds, %d reps", s.ExerciseName, FormatWeight(s.Weight), s.Reps)
}

// InRange reports whether weight and reps fall inside the plausibility bounds.
func InRange(weight float64, reps int) bool {
	return weight >= MinWeight && weight <= MaxWeight && reps >= MinReps && reps <= MaxReps
}

// ValidName reports whether name is 3-50 characters after trimming and
// contains at least one letter.
func ValidName(name string) bool {
	name = strings.TrimSpace(name)
	n := len([]rune(name))
	if n < MinNameLength || n > MaxNameLength {
		return false
	}
	return strings.IndexFunc(name, unicode.IsLetter) >= 0
}

// FormatWeight renders a weight without a trailing ".0".
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// TitleCase capitalizes the first letter of every word and lowercases the
// rest. Words are separated by whitespace or hyphens.
func TitleCase(name string) string {
	fields := strings.Fields(name)
	for i, f := range fields {
		fields[i] = titleWord(f)
	}
	return strings.Join(fields, " ")
}

func titleWord(word string) string {
	runes := []rune(strings.ToLower(word))
	upper := true
	for i, r := range runes {
		if upper && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			upper = false
			continue
		}
		if r == '-' {
			upper = true
		}
	}
	return string(runes)
}
