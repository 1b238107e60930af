// Package consolidation implements the memory-dynamics consolidation cycle
// (spec.md §4.6): decay, transfer, interleaved replay, layer transitions,
// global downscale, and Hebbian decay, run on demand with a simulated-day
// step Δt.
package consolidation

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/hebbian"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

// Params are the tunable consolidation constants (spec §4.6).
type Params struct {
	Mu1              float64 // working-strength decay rate, μ1 > μ2
	Mu2              float64 // core-strength decay rate
	Alpha            float64 // transfer rate α
	ReplayBoost      float64 // r1 boost given to sampled entries
	ReplayFraction   float64 // fraction of entries sampled per cycle
	PromoteThreshold float64 // r2 ≥ this → promote to core
	DemoteThreshold  float64 // r1+r2 < this → demote to archive
	Downscale        float64 // global multiplicative downscale per cycle
}

// DefaultParams returns the spec glossary defaults.
func DefaultParams() Params {
	return Params{
		Mu1:              0.1,
		Mu2:              0.01,
		Alpha:            0.2,
		ReplayBoost:      0.05,
		ReplayFraction:   0.2,
		PromoteThreshold: 3.0,
		DemoteThreshold:  0.2,
		Downscale:        0.95,
	}
}

// Store is the persistence surface consolidation needs.
type Store interface {
	All(ctx context.Context) ([]*model.Memory, error)
	Update(ctx context.Context, m *model.Memory) error
}

// Report summarizes what a consolidation pass did.
type Report struct {
	Processed     int
	Promoted      int
	Demoted       int
	Reactivated   int
	Replayed      int
	FailedUpdates int
}

// Run executes one consolidation pass over every non-pinned entry with
// simulated-day step deltaT, then decays Hebbian links. Each entry is
// updated independently; a failed write is counted but does not abort the
// rest of the pass (spec §4.6: "correct if interleaved with reads").
func Run(ctx context.Context, s Store, h hebbian.Store, p Params, hp hebbian.Params, deltaT float64, now time.Time, rng *rand.Rand) (Report, error) {
	var report Report

	entries, err := s.All(ctx)
	if err != nil {
		return report, err
	}

	replaySet := chooseReplaySet(entries, now, p.ReplayFraction, rng)

	for _, m := range entries {
		if m.Pinned {
			continue
		}
		report.Processed++

		decayStep(m, p, deltaT)
		transferStep(m, p, deltaT)

		if replaySet[m.ID] {
			m.WorkingStrength += p.ReplayBoost
			report.Replayed++
		}

		applyLayerTransition(m, p, &report)

		if !m.Pinned {
			m.WorkingStrength *= p.Downscale
			m.CoreStrength *= p.Downscale
		}

		m.ConsolidationCount++
		nowCopy := now
		m.LastConsolidated = &nowCopy

		if err := s.Update(ctx, m); err != nil {
			report.FailedUpdates++
			continue
		}
	}

	if h != nil {
		if err := hebbian.Decay(ctx, h, hp); err != nil {
			return report, err
		}
	}

	return report, nil
}

// decayStep applies r1 ← r1·exp(−μ1·Δt), r2 ← r2·exp(−μ2·Δt).
func decayStep(m *model.Memory, p Params, deltaT float64) {
	m.WorkingStrength *= math.Exp(-p.Mu1 * deltaT)
	m.CoreStrength *= math.Exp(-p.Mu2 * deltaT)
}

// transferStep applies r2 ← r2 + α·r1·Δt·(1+importance).
func transferStep(m *model.Memory, p Params, deltaT float64) {
	m.CoreStrength += p.Alpha * m.WorkingStrength * deltaT * (1 + m.Importance)
}

// applyLayerTransition promotes to core when r2 crosses the promote
// threshold, demotes working→archive when the raw strength sum r1+r2 falls
// below the demote threshold; retrievability is not factored into the
// demotion test. archive→working only happens via retrieval access, not
// here (spec §4.6).
func applyLayerTransition(m *model.Memory, p Params, report *Report) {
	switch {
	case m.CoreStrength >= p.PromoteThreshold && m.Layer != model.LayerCore:
		m.Layer = model.LayerCore
		report.Promoted++
	case (m.WorkingStrength+m.CoreStrength) < p.DemoteThreshold && m.Layer == model.LayerWorking:
		m.Layer = model.LayerArchive
		report.Demoted++
	}
}

// Reactivate moves an archive entry back to working when a retrieval
// access raises its working strength above the promote threshold, per
// spec §4.6's "archive ⇄ working is allowed only via retrieval access".
func Reactivate(m *model.Memory, p Params) bool {
	if m.Layer != model.LayerArchive {
		return false
	}
	if m.WorkingStrength >= p.PromoteThreshold {
		m.Layer = model.LayerWorking
		return true
	}
	return false
}

// chooseReplaySet samples entries weighted by recency bucket: 50% from the
// last day, 30% from 1-7 days, 20% older, capped by ReplayFraction of the
// total population (spec §4.6).
func chooseReplaySet(entries []*model.Memory, now time.Time, fraction float64, rng *rand.Rand) map[string]bool {
	target := int(math.Ceil(float64(len(entries)) * fraction))
	if target <= 0 {
		return map[string]bool{}
	}

	var lastDay, lastWeek, older []*model.Memory
	for _, m := range entries {
		age := now.Sub(m.LastAccess()).Hours() / 24.0
		switch {
		case age <= 1:
			lastDay = append(lastDay, m)
		case age <= 7:
			lastWeek = append(lastWeek, m)
		default:
			older = append(older, m)
		}
	}

	selected := map[string]bool{}
	takeFrom(lastDay, int(math.Round(float64(target)*0.5)), rng, selected)
	takeFrom(lastWeek, int(math.Round(float64(target)*0.3)), rng, selected)
	takeFrom(older, target-len(selected), rng, selected)

	return selected
}

func takeFrom(pool []*model.Memory, n int, rng *rand.Rand, into map[string]bool) {
	if n <= 0 || len(pool) == 0 {
		return
	}
	idx := rng.Perm(len(pool))
	if n > len(idx) {
		n = len(idx)
	}
	for i := 0; i < n; i++ {
		into[pool[idx[i]].ID] = true
	}
}
