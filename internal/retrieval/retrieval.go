// Package retrieval implements hybrid candidate generation (spec.md §4.5):
// BM25 lexical search fused with vector similarity under adaptive weights,
// graph/Hebbian expansion, type/layer/confidence filtering, and stable
// tie-break ordering. It records the access and Hebbian side effects that
// make retrieval itself reinforcing.
package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/tonitangpotato/neuromemory-ai/internal/activation"
	"github.com/tonitangpotato/neuromemory-ai/internal/confidence"
	"github.com/tonitangpotato/neuromemory-ai/internal/forgetting"
	"github.com/tonitangpotato/neuromemory-ai/internal/hebbian"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
	"github.com/tonitangpotato/neuromemory-ai/internal/store"
)

// Store is the persistence surface retrieval needs.
type Store interface {
	SearchFTS(ctx context.Context, query string, k int) ([]store.FTSResult, error)
	VectorSearch(ctx context.Context, q []float32, k int, minSim float64) ([]store.VectorResult, error)
	SearchByEntity(ctx context.Context, label string) ([]string, error)
	RelatedEntities(ctx context.Context, label string, hops int) ([]string, error)
	EntitiesForMemory(ctx context.Context, id string) ([]string, error)
	Get(ctx context.Context, id string) (*model.Memory, error)
	Peek(ctx context.Context, id string) (*model.Memory, error)
}

// Embedder is the minimal embedding surface a query vector comes from.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Params holds tunable retrieval constants (spec §4.5).
type Params struct {
	KFTS            int
	KVec            int
	HebbianFloor    float64
	GraphHops       int
	ActWeights      activation.Weights
	HebbianParams   hebbian.Params
	ForgettingParams forgetting.Params
}

func DefaultParams() Params {
	return Params{
		KFTS:            50,
		KVec:            50,
		HebbianFloor:    0.5,
		GraphHops:       1,
		ActWeights:      activation.DefaultWeights(),
		HebbianParams:   hebbian.DefaultParams(),
		ForgettingParams: forgetting.DefaultParams(),
	}
}

// Query describes a single recall call's inputs.
type Query struct {
	Text         string
	Context      []string
	Kinds        []model.Kind
	MinConfidence float64
	GraphExpand  bool
}

// Result is a single ranked recall hit.
type Result struct {
	Memory      *model.Memory
	FusionScore float64
	Activation  float64
	Confidence  float64
	Label       confidence.Label
}

// Recall runs the full §4.5 pipeline: lexical + semantic fusion, graph
// expansion, filtering, scoring, and the access/Hebbian side effects.
func Recall(ctx context.Context, s Store, h hebbian.Store, embedder Embedder, q Query, p Params, now time.Time) ([]Result, error) {
	ftsRaw, err := s.SearchFTS(ctx, q.Text, p.KFTS)
	if err != nil {
		return nil, err
	}
	fts := normalizeFTS(ftsRaw)

	var vec map[string]float64
	if embedder != nil {
		v, err := embedder.Embed(ctx, q.Text)
		if err == nil && len(v) > 0 {
			vecRaw, err := s.VectorSearch(ctx, v, p.KVec, 0.0)
			if err == nil {
				vec = make(map[string]float64, len(vecRaw))
				for _, r := range vecRaw {
					vec[r.ID] = r.Similarity
				}
			}
		}
	}

	wVec, wFTS := adaptiveWeights(fts, vec)

	fused := make(map[string]float64)
	for id, v := range fts {
		fused[id] += wFTS * v
	}
	for id, v := range vec {
		fused[id] += wVec * v
	}

	candidates := make(map[string]bool, len(fused))
	for id := range fused {
		candidates[id] = true
	}

	if h != nil {
		expandHebbian(ctx, h, candidates, p)
	}

	if q.GraphExpand {
		if err := expandGraph(ctx, s, candidates, p); err != nil {
			return nil, err
		}
	}

	var results []Result
	for id := range candidates {
		m, err := s.Peek(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		if !kindAllowed(m.Kind, q.Kinds) {
			continue
		}
		_, matchedDirectly := fused[id]
		if m.Layer == model.LayerArchive && !matchedDirectly {
			continue
		}

		hBonus := 0.0
		if h != nil {
			neighbors, err := hebbian.Neighbors(ctx, h, id)
			if err == nil {
				for _, nb := range neighbors {
					if candidates[nb] {
						hBonus += hebbian.Strength(ctx, h, id, nb)
					}
				}
			}
		}

		act := activation.Composite(m, now, q.Context, hBonus, p.ActWeights)
		r := forgetting.Retrievability(m, now, p.ForgettingParams)
		c := confidence.Score(r, fused[id], m.WorkingStrength, m.CoreStrength, m.ContradictedBy != "")
		results = append(results, Result{
			Memory: m, FusionScore: fused[id], Activation: act,
			Confidence: c, Label: confidence.Labelize(c),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Activation != results[j].Activation {
			return results[i].Activation > results[j].Activation
		}
		if !results[i].Memory.CreatedAt.Equal(results[j].Memory.CreatedAt) {
			return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
		}
		if results[i].Memory.Importance != results[j].Memory.Importance {
			return results[i].Memory.Importance > results[j].Memory.Importance
		}
		return results[i].Memory.ID < results[j].Memory.ID
	})

	if q.MinConfidence > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Confidence >= q.MinConfidence {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Memory.ID)
		if _, err := s.Get(ctx, r.Memory.ID); err != nil {
			return nil, err
		}
	}
	if h != nil && len(ids) >= 2 {
		if err := hebbian.RecordCoactivation(ctx, h, ids, p.HebbianParams); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func kindAllowed(k model.Kind, allowed []model.Kind) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == k {
			return true
		}
	}
	return false
}

// normalizeFTS negates SQLite's bm25() rank (lower is better there) and
// max-normalizes into [0, 1].
func normalizeFTS(raw []store.FTSResult) map[string]float64 {
	if len(raw) == 0 {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(raw))
	var maxNeg float64
	for i, r := range raw {
		neg := -r.Rank
		if i == 0 || neg > maxNeg {
			maxNeg = neg
		}
		out[r.ID] = neg
	}
	if maxNeg <= 0 {
		for id := range out {
			out[id] = 1.0
		}
		return out
	}
	for id, v := range out {
		if v < 0 {
			v = 0
		}
		out[id] = v / maxNeg
	}
	return out
}

// adaptiveWeights picks (w_vec, w_fts) from the Jaccard overlap between the
// lexical and semantic candidate id sets (spec §4.5 step 3).
func adaptiveWeights(fts, vec map[string]float64) (float64, float64) {
	if len(vec) == 0 {
		return 0, 1
	}
	if len(fts) == 0 {
		return 1, 0
	}
	inter := 0
	for id := range fts {
		if _, ok := vec[id]; ok {
			inter++
		}
	}
	union := len(fts) + len(vec) - inter
	var jaccard float64
	if union > 0 {
		jaccard = float64(inter) / float64(union)
	}
	switch {
	case jaccard > 0.5:
		return 0.8, 0.2
	case jaccard > 0.2:
		return 0.6, 0.4
	default:
		return 0.4, 0.6
	}
}

// expandHebbian unions in Hebbian neighbors of each current candidate whose
// link strength clears HebbianFloor (spec §4.5 step 4b). Unlike entity
// expansion this always runs — it is a single indexed lookup per candidate,
// not a multi-hop graph traversal — so it is not gated behind GraphExpand.
func expandHebbian(ctx context.Context, h hebbian.Store, candidates map[string]bool, p Params) {
	seedIDs := make([]string, 0, len(candidates))
	for id := range candidates {
		seedIDs = append(seedIDs, id)
	}
	for _, id := range seedIDs {
		neighbors, err := hebbian.Neighbors(ctx, h, id)
		if err != nil {
			continue
		}
		for _, nb := range neighbors {
			if hebbian.Strength(ctx, h, id, nb) >= p.HebbianFloor {
				candidates[nb] = true
			}
		}
	}
}

func expandGraph(ctx context.Context, s Store, candidates map[string]bool, p Params) error {
	seedIDs := make([]string, 0, len(candidates))
	for id := range candidates {
		seedIDs = append(seedIDs, id)
	}
	for _, id := range seedIDs {
		entities, err := s.EntitiesForMemory(ctx, id)
		if err != nil {
			continue
		}
		for _, entity := range entities {
			related, err := s.SearchByEntity(ctx, entity)
			if err != nil {
				continue
			}
			for _, r := range related {
				candidates[r] = true
			}
			hops, err := s.RelatedEntities(ctx, entity, p.GraphHops)
			if err == nil {
				for _, e := range hops {
					more, err := s.SearchByEntity(ctx, e)
					if err == nil {
						for _, r := range more {
							candidates[r] = true
						}
					}
				}
			}
		}
	}
	return nil
}

// temporalCues are the words that mark a query as time-oriented
// ("what happened yesterday"); see DetectTemporalAlpha.
var temporalCues = map[string]bool{
	"yesterday": true, "today": true, "recently": true, "earlier": true,
	"just": true, "now": true, "latest": true, "last": true, "ago": true,
}

// DetectTemporalAlpha reports whether a query should shift blending toward
// recency, scanning for temporal cue words (spec.md silent; grounded on
// original_source's hybrid_search.detect_temporal_alpha keyword table).
func DetectTemporalAlpha(query string) bool {
	for _, w := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if temporalCues[w] {
			return true
		}
	}
	return false
}
