// Package hebbian implements co-activation bookkeeping: link formation,
// strengthening, and decay for memories repeatedly retrieved together.
//
// "Neurons that fire together, wire together" — after a retrieval returns
// two or more results, every unordered pair among them becomes a
// co-activation candidate. Once a pair has co-activated θ_form times, a
// symmetric link is materialized; further co-activation strengthens it.
package hebbian

import (
	"context"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

// Params are the tunable Hebbian-learning constants (spec §4.4).
type Params struct {
	ThetaForm int     // co-activations needed before a link materializes
	Eta       float64 // strengthening multiplier per further co-activation
	SMax      float64 // strength cap
	Lambda    float64 // decay factor applied each consolidation cycle
	FloorDrop float64 // links below this strength are removed on decay
}

// DefaultParams returns the spec glossary defaults.
func DefaultParams() Params {
	return Params{
		ThetaForm: 3,
		Eta:       0.1,
		SMax:      5,
		Lambda:    0.95,
		FloorDrop: 0.1,
	}
}

// Store is the minimal persistence surface hebbian needs; internal/store's
// SQLiteStore satisfies it.
type Store interface {
	IncrementCoactivation(ctx context.Context, a, b string) (int, error)
	UpsertHebbianLink(ctx context.Context, link model.HebbianLink) error
	GetHebbianLink(ctx context.Context, a, b string) (*model.HebbianLink, error)
	Neighbors(ctx context.Context, id string) ([]model.HebbianLink, error)
	AllHebbianLinks(ctx context.Context) ([]model.HebbianLink, error)
	DeleteHebbianLink(ctx context.Context, a, b string) error
}

// RecordCoactivation increments the co-activation counter for every
// unordered pair in a result list and forms/strengthens links as thresholds
// are crossed. Called as a side effect of every recall with ≥2 results.
func RecordCoactivation(ctx context.Context, s Store, ids []string, p Params) error {
	if len(ids) < 2 {
		return nil
	}
	now := time.Now()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := model.CanonicalPair(ids[i], ids[j])
			if a == b {
				continue // self-loops forbidden
			}
			count, err := s.IncrementCoactivation(ctx, a, b)
			if err != nil {
				return err
			}

			existing, err := s.GetHebbianLink(ctx, a, b)
			if err != nil {
				return err
			}

			switch {
			case existing == nil && count >= p.ThetaForm:
				if err := s.UpsertHebbianLink(ctx, model.HebbianLink{
					A: a, B: b, Strength: 1.0, CoactivationCount: count, CreatedAt: now,
				}); err != nil {
					return err
				}
			case existing != nil:
				newStrength := existing.Strength * (1 + p.Eta)
				if newStrength > p.SMax {
					newStrength = p.SMax
				}
				existing.Strength = newStrength
				existing.CoactivationCount = count
				if err := s.UpsertHebbianLink(ctx, *existing); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Decay multiplies every link's strength by Lambda once per consolidation
// cycle, removing links that fall below FloorDrop.
func Decay(ctx context.Context, s Store, p Params) error {
	links, err := s.AllHebbianLinks(ctx)
	if err != nil {
		return err
	}
	for _, l := range links {
		l.Strength *= p.Lambda
		if l.Strength < p.FloorDrop {
			if err := s.DeleteHebbianLink(ctx, l.A, l.B); err != nil {
				return err
			}
			continue
		}
		if err := s.UpsertHebbianLink(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// Neighbors returns all memory ids with a live link to id.
func Neighbors(ctx context.Context, s Store, id string) ([]string, error) {
	links, err := s.Neighbors(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l.A == id {
			out = append(out, l.B)
		} else {
			out = append(out, l.A)
		}
	}
	return out, nil
}

// Strength returns the live link strength between a and b, 0 if none.
func Strength(ctx context.Context, s Store, a, b string) float64 {
	x, y := model.CanonicalPair(a, b)
	link, err := s.GetHebbianLink(ctx, x, y)
	if err != nil || link == nil {
		return 0
	}
	return link.Strength
}
