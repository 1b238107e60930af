// Package forgetting implements Ebbinghaus retrievability, per-kind
// stability, effective strength, and the pruning predicate.
package forgetting

import (
	"math"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

// BaseStability gives each kind a literature-grounded base stability in
// days before the spacing-effect adjustments below are applied. Emotional
// and procedural memories are famously "sticky"; episodic trivia decays
// fastest.
var BaseStability = map[model.Kind]float64{
	model.KindFactual:    20,
	model.KindEpisodic:   7,
	model.KindRelational: 30,
	model.KindEmotional:  45,
	model.KindProcedural: 60,
	model.KindOpinion:    15,
}

// Params are the tunable spacing-effect constants (spec §4.3).
type Params struct {
	Beta  float64 // consolidation-count growth factor
	Gamma float64 // importance growth factor
}

// DefaultParams returns the spec's suggested small positive constants.
func DefaultParams() Params {
	return Params{Beta: 0.05, Gamma: 0.3}
}

// Stability computes S = S_kind · (1 + β·consolidation_count) · (1 + γ·importance).
// Monotonically non-decreasing as the consolidation count grows (the
// spacing effect); the access count does not enter the formula.
func Stability(m *model.Memory, p Params) float64 {
	base, ok := BaseStability[m.Kind]
	if !ok {
		base = BaseStability[model.KindFactual]
	}
	return base * (1 + p.Beta*float64(m.ConsolidationCount)) * (1 + p.Gamma*m.Importance)
}

// Retrievability computes R(t) = exp(−(t_now − t_last_access) / S), always
// in (0, 1].
func Retrievability(m *model.Memory, now time.Time, p Params) float64 {
	s := Stability(m, p)
	if s <= 0 {
		s = 1e-6
	}
	elapsedDays := now.Sub(m.LastAccess()).Hours() / 24.0
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return math.Exp(-elapsedDays / s)
}

// EffectiveStrength computes E = (r1 + r2) · R(t).
func EffectiveStrength(m *model.Memory, now time.Time, p Params) float64 {
	return (m.WorkingStrength + m.CoreStrength) * Retrievability(m, now, p)
}

// ShouldPrune reports whether a memory satisfies the prune predicate:
// E < forgetThreshold AND NOT pinned AND NOT a contradiction-chain root
// (an entry other memories still point to via Contradicts).
func ShouldPrune(m *model.Memory, now time.Time, forgetThreshold float64, isChainRoot bool, p Params) bool {
	if m.Pinned || isChainRoot {
		return false
	}
	return EffectiveStrength(m, now, p) < forgetThreshold
}
