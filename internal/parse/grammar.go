package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/alkime/liftlog/internal/workout"
)

// setPattern matches "<exercise words> <weight> [lb|lbs|pound|pounds] [for|x] <reps> [rep|reps]"
// against normalized text.
var setPattern = regexp.MustCompile(
	`^([a-z][a-z' -]*?)\s+(\d+(?:\.\d+)?)(?:\s*(?:lbs?|pounds?))?(?:\s+for\s+|\s*x\s*|\s+)(\d+)(?:\s*reps?)?$`,
)

var relativePhrases = []string{"same weight", "same reps", "same as"}

// Normalize lowercases text, drops commas and sentence periods, and collapses
// whitespace. Periods between two digits are decimal points and stay.
func Normalize(text string) string {
	runes := []rune(strings.ToLower(text))
	var b strings.Builder
	for i, r := range runes {
		switch r {
		case ',':
			b.WriteRune(' ')
			continue
		case '.':
			if i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// HasRelativeReference reports whether text refers back to an earlier set.
func HasRelativeReference(text string) bool {
	norm := Normalize(text)
	for _, p := range relativePhrases {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

// MatchPattern applies the fixed grammar. It does not apply the range gate;
// the exercise name is returned as spoken.
func MatchPattern(text string) (workout.Set, bool) {
	norm := Normalize(text)
	if norm == "" || HasRelativeReference(norm) {
		return workout.Set{}, false
	}

	m := setPattern.FindStringSubmatch(norm)
	if m == nil {
		return workout.Set{}, false
	}

	weight, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return workout.Set{}, false
	}
	reps, err := strconv.Atoi(m[3])
	if err != nil {
		return workout.Set{}, false
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return workout.Set{}, false
	}

	return workout.Set{ExerciseName: name, Weight: weight, Reps: reps}, true
}
