package listen

import (
	"regexp"
	"strings"
)

// annotation matches bracketed or parenthesized recognizer notes such as
// "[BLANK_AUDIO]" or "(keyboard clicking)".
var annotation = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// hallucinations are outputs Whisper tends to produce for silence.
var hallucinations = map[string]bool{
	"you":                    true,
	"thank you":              true,
	"thanks for watching":    true,
	"thank you for watching": true,
	"bye":                    true,
	"the end":                true,
	"please subscribe":       true,
}

// CleanTranscript strips recognizer annotations, collapses whitespace, and
// blanks out known silence hallucinations.
func CleanTranscript(s string) string {
	s = annotation.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	key := strings.ToLower(strings.Trim(s, ".!?,… "))
	if key == "" || hallucinations[key] {
		return ""
	}
	return s
}
