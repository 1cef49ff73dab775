package scoring

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// NeutralScore is written when no external scorer is configured.
	NeutralScore = 50.0
	// KeywordHitScore is written when the description mentions an urgency term.
	KeywordHitScore = 75.0
	// KeywordMissScore is written when no urgency term is found.
	KeywordMissScore = 40.0
)

// ErrNoScore is returned when a scorer response carries no usable number.
var ErrNoScore = errors.New("scoring: no numeric score in response")

// Scorer rates how urgent a cleanliness issue is on a 0-100 scale.
type Scorer interface {
	Score(ctx context.Context, description string) (float64, error)
}

var (
	structuredScorePattern = regexp.MustCompile(`"score"\s*:\s*([-+]?\d*\.?\d+)`)
	bareNumberPattern      = regexp.MustCompile(`[-+]?\d*\.\d+|[-+]?\d+`)
)

// ParseScore extracts the raw model score from free text. A {"score": n} object
// wins over any other number in the text.
func ParseScore(text string) (float64, bool) {
	if m := structuredScorePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	if m := bareNumberPattern.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Normalize clamps a raw score to [0,1] and converts it to a percentage with
// two decimals.
func Normalize(raw float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	clamped := math.Max(0, math.Min(1, raw))
	return math.Round(clamped*100*100) / 100
}

// urgencyKeywords are matched as whole words, so inflections are listed.
var urgencyKeywords = []string{
	"dirty", "filthy", "urgent", "urgently", "broken", "leak", "leaks", "leaking", "leaked",
	"overflow", "overflows", "overflowing", "overflowed", "smell", "smells", "smelly",
	"stink", "stinks", "stinking", "clog", "clogs", "clogged", "blocked", "mold", "moldy",
	"mould", "mouldy", "pest", "pests", "cockroach", "cockroaches", "rat", "rats", "vomit",
	"sewage", "garbage", "stain", "stains", "stained", "flood", "flooded", "flooding",
}

var urgencyPattern = regexp.MustCompile(`\b(?:` + strings.Join(urgencyKeywords, "|") + `)\b`)

// KeywordScore is the offline fallback: a fixed high score when the description
// contains an urgency term, a fixed low score otherwise.
func KeywordScore(description string) float64 {
	if urgencyPattern.MatchString(strings.ToLower(description)) {
		return KeywordHitScore
	}
	return KeywordMissScore
}
