// Package parse turns a transcribed utterance into a workout set. A fixed
// grammar handles the common phrasing; anything it cannot read, or reads as
// implausible, goes to a language-model extractor whose answer is validated
// before it is trusted.
package parse

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alkime/liftlog/internal/workout"
)

// Tier identifies which strategy produced a set.
type Tier int

const (
	TierNone Tier = iota
	TierPattern
	TierExtractor
)

func (t Tier) String() string {
	switch t {
	case TierPattern:
		return "pattern"
	case TierExtractor:
		return "extractor"
	default:
		return "none"
	}
}

// Extraction is the answer of a structured extractor. OK=false carries a
// Reason instead of a set.
type Extraction struct {
	OK           bool
	ExerciseName string
	Weight       float64
	Reps         int
	Reason       string
}

// Extractor reads a set out of free-form text. last is the most recent set
// logged today, or nil, and resolves phrases like "same weight".
type Extractor interface {
	Extract(ctx context.Context, transcript string, last *workout.LoggedSet) (Extraction, error)
}

// Result is the outcome of Parse. Set and Tier are meaningful only when
// parsing succeeded; Reason explains a failure.
type Result struct {
	Set    workout.Set
	Tier   Tier
	Reason string
}

const (
	reasonEmpty          = "nothing to parse"
	reasonNoExtractor    = "no match and no extractor configured"
	reasonNoPreviousSet  = "no previous set to compare against"
	reasonExtractorError = "extractor unavailable"
)

// Parser is the two-tier set parser.
type Parser struct {
	extractor Extractor
	log       *slog.Logger
}

// NewParser builds a parser. A nil extractor limits parsing to the grammar.
func NewParser(extractor Extractor, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{extractor: extractor, log: log}
}

// Parse reads a set from transcript. It never returns an error: extractor
// failures are logged and reported as a failed parse.
func (p *Parser) Parse(ctx context.Context, transcript string, last *workout.LoggedSet) (Result, bool) {
	if strings.TrimSpace(transcript) == "" {
		return Result{Reason: reasonEmpty}, false
	}

	if set, ok := MatchPattern(transcript); ok {
		if workout.InRange(set.Weight, set.Reps) {
			set.ExerciseName = workout.TitleCase(set.ExerciseName)
			p.log.Debug("parsed set with pattern", "exercise", set.ExerciseName, "weight", set.Weight, "reps", set.Reps)
			return Result{Set: set, Tier: TierPattern}, true
		}
		p.log.Debug("pattern match out of range, deferring to extractor",
			"weight", set.Weight, "reps", set.Reps)
	}

	return p.extract(ctx, transcript, last)
}

func (p *Parser) extract(ctx context.Context, transcript string, last *workout.LoggedSet) (Result, bool) {
	if p.extractor == nil {
		return Result{Reason: reasonNoExtractor}, false
	}

	if last == nil && HasRelativeReference(transcript) {
		return Result{Reason: reasonNoPreviousSet}, false
	}

	ex, err := p.extractor.Extract(ctx, transcript, last)
	if err != nil {
		p.log.Warn("extractor failed", "error", err)
		return Result{Reason: reasonExtractorError}, false
	}
	if !ex.OK {
		reason := ex.Reason
		if reason == "" {
			reason = "extractor found no set"
		}
		return Result{Reason: reason}, false
	}

	set := workout.Set{
		ExerciseName: strings.TrimSpace(ex.ExerciseName),
		Weight:       ex.Weight,
		Reps:         ex.Reps,
	}
	if err := set.Validate(); err != nil {
		p.log.Debug("extractor result rejected", "error", err)
		return Result{Reason: err.Error()}, false
	}

	set.ExerciseName = workout.TitleCase(set.ExerciseName)
	return Result{Set: set, Tier: TierExtractor}, true
}
