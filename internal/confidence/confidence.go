// Package confidence computes a retrieval result's confidence score and
// label, and detects reward polarity from feedback text (spec.md §4.7).
package confidence

import (
	"math"
	"strings"
)

// Label bands (spec.md §4.7).
type Label string

const (
	Certain   Label = "certain"
	Likely    Label = "likely"
	Uncertain Label = "uncertain"
	Vague     Label = "vague"
)

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Score computes ĉ = clamp01(0.4·R + 0.4·s_match + 0.2·tanh(r1+r2)),
// halved when the entry is contradicted.
func Score(retrievability, fusionScore, workingStrength, coreStrength float64, contradicted bool) float64 {
	c := clamp01(0.4*retrievability + 0.4*fusionScore + 0.2*math.Tanh(workingStrength+coreStrength))
	if contradicted {
		c /= 2
	}
	return c
}

// Labelize maps a confidence score to its band.
func Labelize(c float64) Label {
	switch {
	case c >= 0.85:
		return Certain
	case c >= 0.6:
		return Likely
	case c >= 0.3:
		return Uncertain
	default:
		return Vague
	}
}

// Polarity is the outcome of reward-phrase detection.
type Polarity string

const (
	Positive Polarity = "pos"
	Negative Polarity = "neg"
	Neutral  Polarity = "neutral"
)

// Dictionary is an injectable set of positive/negative cue phrases,
// overridable via configuration per spec.md §9 Open Question decisions.
type Dictionary struct {
	Positive []string
	Negative []string
}

// DefaultDictionary is a small, literature-grounded set of cue phrases.
func DefaultDictionary() Dictionary {
	return Dictionary{
		Positive: []string{
			"thanks", "thank you", "that's right", "thats right", "correct",
			"exactly", "perfect", "great", "helpful", "good job", "nice",
			"that helped", "well done", "yes that's it", "spot on",
		},
		Negative: []string{
			"wrong", "incorrect", "that's not right", "thats not right",
			"no that's wrong", "not helpful", "useless", "bad", "mistaken",
			"that's false", "thats false", "inaccurate", "never mind that",
		},
	}
}

// Detect classifies feedback text against the dictionary, returning a
// polarity and a magnitude in [0,1) that grows with the number n of
// winning-side cue phrases matched: n/(n+1).
func Detect(feedback string, dict Dictionary) (Polarity, float64) {
	lower := strings.ToLower(feedback)
	posHits := countMatches(lower, dict.Positive)
	negHits := countMatches(lower, dict.Negative)

	switch {
	case posHits == 0 && negHits == 0:
		return Neutral, 0
	case posHits > negHits:
		return Positive, magnitude(posHits, negHits)
	case negHits > posHits:
		return Negative, magnitude(negHits, posHits)
	default:
		return Neutral, 0
	}
}

func countMatches(text string, phrases []string) int {
	count := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			count++
		}
	}
	return count
}

func magnitude(winner, loser int) float64 {
	total := winner + loser
	if total == 0 {
		return 0
	}
	m := float64(winner) / float64(winner+1)
	return clamp01(m)
}
