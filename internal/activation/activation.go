// Package activation computes ACT-R style retrieval activation scores.
//
// Every function here is pure and deterministic given its inputs — no
// store access, no clock reads beyond the "now" the caller supplies.
package activation

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

// Weights are the configured coefficients for the composite score.
// Defaults match the spec glossary.
type Weights struct {
	Spread     float64 // w_spread
	Importance float64 // w_importance
	Hebbian    float64 // w_hebbian
	Contra     float64 // P_contra penalty
}

// DefaultWeights returns the literature defaults from the spec glossary.
func DefaultWeights() Weights {
	return Weights{
		Spread:     0.5,
		Importance: 0.7,
		Hebbian:    0.3,
		Contra:     3.0,
	}
}

const baseLevelDecay = 0.5 // d in the ACT-R base-level equation
const epsilon = 0.01       // ε guard against t_now == t_last_access

// BaseLevel computes B = ln(Σ_k (t_now − t_k + ε)^(−d)).
// An empty access history yields -Inf: never retrievable by this term alone.
func BaseLevel(accessTimes []time.Time, now time.Time) float64 {
	if len(accessTimes) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, t := range accessTimes {
		delta := now.Sub(t).Seconds() + epsilon
		if delta <= 0 {
			delta = epsilon
		}
		sum += math.Pow(delta, -baseLevelDecay)
	}
	if sum <= 0 {
		return math.Inf(-1)
	}
	return math.Log(sum)
}

var wordSplitter = regexp.MustCompile(`[A-Za-z0-9]+`)

// tokenize lower-cases and extracts whole-word tokens for matching.
func tokenize(s string) map[string]bool {
	words := wordSplitter.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Match reports whether keyword k appears as a whole word in content,
// case-insensitively.
func Match(content, k string) bool {
	tokens := tokenize(content)
	for _, w := range wordSplitter.FindAllString(strings.ToLower(k), -1) {
		if tokens[w] {
			return true
		}
	}
	return false
}

// Spreading computes C = w_spread · Σ_{k∈K} match(entry, k).
func Spreading(content string, keywords []string, wSpread float64) float64 {
	if len(keywords) == 0 {
		return 0
	}
	tokens := tokenize(content)
	var overlap float64
	for _, k := range keywords {
		kTokens := wordSplitter.FindAllString(strings.ToLower(k), -1)
		if len(kTokens) == 0 {
			continue
		}
		matched := true
		for _, w := range kTokens {
			if !tokens[w] {
				matched = false
				break
			}
		}
		if matched {
			overlap++
		}
	}
	return wSpread * overlap
}

// Importance computes I = w_importance · importance.
func Importance(importance, wImportance float64) float64 {
	return wImportance * importance
}

// Composite computes the full activation score
// A = B + C + I − P_contra·1[contradicted] + H.
//
// hebbianBonus is the caller-precomputed Σ strength_ij term over
// co-present candidates above the scoring floor (spec §4.2); pass 0 when
// not doing graph-expanded scoring.
func Composite(m *model.Memory, now time.Time, contextKeywords []string, hebbianBonus float64, w Weights) float64 {
	b := BaseLevel(m.AccessTimes, now)
	if math.IsInf(b, -1) {
		return math.Inf(-1)
	}
	c := Spreading(m.Content, contextKeywords, w.Spread)
	i := Importance(m.Importance, w.Importance)
	a := b + c + i
	if m.ContradictedBy != "" {
		a -= w.Contra
	}
	a += w.Hebbian * hebbianBonus
	return a
}
