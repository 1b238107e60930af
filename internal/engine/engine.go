// Package engine implements the C8 façade: the single entry point the
// CLI (and any other caller) uses to add, recall, consolidate, forget,
// reward, pin, and inspect memories. It owns the store, embedder, and
// configuration for its lifetime and holds no hidden module-level state
// (spec.md §9).
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tonitangpotato/neuromemory-ai/internal/activation"
	"github.com/tonitangpotato/neuromemory-ai/internal/anomaly"
	"github.com/tonitangpotato/neuromemory-ai/internal/confidence"
	"github.com/tonitangpotato/neuromemory-ai/internal/config"
	"github.com/tonitangpotato/neuromemory-ai/internal/consolidation"
	"github.com/tonitangpotato/neuromemory-ai/internal/embedding"
	"github.com/tonitangpotato/neuromemory-ai/internal/forgetting"
	"github.com/tonitangpotato/neuromemory-ai/internal/hebbian"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
	"github.com/tonitangpotato/neuromemory-ai/internal/retrieval"
	"github.com/tonitangpotato/neuromemory-ai/internal/store"
)

// Sentinel errors callers can errors.Is against (spec.md §7).
var (
	ErrNotFound          = errors.New("engram: memory not found")
	ErrInvalidKind       = errors.New("engram: invalid memory kind")
	ErrConfig            = errors.New("engram: invalid configuration")
	ErrAmbiguousForget   = errors.New("engram: forget requires exactly one of id or threshold")
	ErrDimensionMismatch = errors.New("engram: embedding dimension does not match the store's existing vectors")
)

// storeIface is the full persistence surface the engine depends on; the
// concrete *store.SQLiteStore satisfies it alongside hebbian.Store.
type storeIface interface {
	store.Store
	hebbian.Store
}

// Engine is the memory-dynamics façade. Safe for concurrent use by
// multiple readers; mutating calls serialize behind mu (spec.md §5).
type Engine struct {
	mu       sync.Mutex
	store    storeIface
	embedder embedding.Embedder
	cfg      config.Config
	tracker  *anomaly.Tracker
	logger   *log.Logger
	start    time.Time
}

// Open constructs an engine over an already-open store, validating the
// configuration first (spec.md §7: refuse impossible configs at
// construction).
func Open(s storeIface, embedder embedding.Embedder, cfg config.Config, logger *log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if embedder == nil {
		embedder = embedding.NoneEmbedder{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:    s,
		embedder: embedder,
		cfg:      cfg,
		tracker:  anomaly.NewTracker(cfg.AnomalyWindowSize),
		logger:   logger,
		start:    time.Now(),
	}, nil
}

func (e *Engine) forgettingParams() forgetting.Params {
	return forgetting.Params{Beta: e.cfg.StabilityBeta, Gamma: e.cfg.StabilityGamma}
}

func (e *Engine) activationWeights() activation.Weights {
	return activation.Weights{
		Spread:     e.cfg.SpreadWeight,
		Importance: e.cfg.ImportanceWeight,
		Hebbian:    e.cfg.HebbianWeight,
		Contra:     e.cfg.ContraPenalty,
	}
}

func (e *Engine) hebbianParams() hebbian.Params {
	return hebbian.Params{
		ThetaForm: e.cfg.ThetaForm,
		Eta:       e.cfg.Eta,
		SMax:      e.cfg.SMax,
		Lambda:    e.cfg.LambdaHeb,
		FloorDrop: 0.1,
	}
}

func (e *Engine) retrievalParams() retrieval.Params {
	return retrieval.Params{
		KFTS:             50,
		KVec:             50,
		HebbianFloor:     0.5,
		GraphHops:        1,
		ActWeights:       e.activationWeights(),
		HebbianParams:    e.hebbianParams(),
		ForgettingParams: e.forgettingParams(),
	}
}

// AddInput is the caller-supplied shape for Add.
type AddInput struct {
	Content     string
	Kind        model.Kind
	Importance  float64 // 0 → kind default
	Source      string
	Tags        []string
	Entities    []string
	Contradicts string
	WithEmbedding bool
}

// Add stores a new memory, wiring the contradiction chain when
// Contradicts is supplied, and embedding the content when requested
// (degrading gracefully per spec.md §7 if the provider fails).
func (e *Engine) Add(ctx context.Context, in AddInput) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if in.Content == "" {
		return "", fmt.Errorf("%w: content must not be empty", ErrInvalidKind)
	}
	kind := in.Kind
	if kind == "" {
		kind = model.KindFactual
	}
	if !model.ValidKinds[kind] {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if in.Contradicts != "" {
		if existing, err := e.store.Peek(ctx, in.Contradicts); err != nil {
			return "", err
		} else if existing == nil {
			return "", fmt.Errorf("%w: contradicts id %q", ErrNotFound, in.Contradicts)
		}
	}

	var vec []float32
	if in.WithEmbedding {
		v, err := e.embedder.Embed(ctx, in.Content)
		if err != nil {
			e.logger.Warn("embedding failed, storing without vector", "err", err)
		} else {
			vec = v
		}
	}
	if len(vec) > 0 {
		existingDims, err := e.store.VectorDims(ctx)
		if err != nil {
			return "", fmt.Errorf("check vector dims: %w", err)
		}
		if existingDims > 0 && len(vec) != existingDims {
			return "", fmt.Errorf("%w: store has %d-dim vectors, got %d", ErrDimensionMismatch, existingDims, len(vec))
		}
	}

	m, err := e.store.Insert(ctx, store.InsertParams{
		Content:     in.Content,
		Kind:        kind,
		Importance:  in.Importance,
		Source:      in.Source,
		Tags:        in.Tags,
		Contradicts: in.Contradicts,
		CreatedAt:   time.Now().UTC(),
		Embedding:   vec,
	})
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}

	for _, entity := range in.Entities {
		if err := e.store.AddGraphLink(ctx, m.ID, entity, ""); err != nil {
			return "", fmt.Errorf("add graph link: %w", err)
		}
	}

	e.tracker.Observe("encoding_rate", 1)
	return m.ID, nil
}

// RecallResult is a single ranked, caller-facing recall hit (spec.md §6:
// "id, content, kind, confidence, effective strength, activation, age in
// days, layer, importance, contradicted flag").
type RecallResult struct {
	ID            string
	Content       string
	Kind          model.Kind
	Confidence    float64
	Label         confidence.Label
	Strength      float64
	Activation    float64
	AgeDays       float64
	Layer         model.Layer
	Importance    float64
	Contradicted  bool
}

// RecallInput describes a single recall call.
type RecallInput struct {
	Query         string
	K             int
	Context       []string
	Kinds         []model.Kind
	MinConfidence float64
	GraphExpand   bool
}

// Recall runs the hybrid retrieval pipeline (§4.5) and returns up to K
// results; never errors on an empty match, returning [] instead (spec §7).
func (e *Engine) Recall(ctx context.Context, in RecallInput) ([]RecallResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now().UTC()
	q := retrieval.Query{
		Text:          in.Query,
		Context:       in.Context,
		Kinds:         in.Kinds,
		MinConfidence: in.MinConfidence,
		GraphExpand:   in.GraphExpand,
	}
	p := e.retrievalParams()
	if retrieval.DetectTemporalAlpha(in.Query) {
		p.ActWeights.Spread += 0.1
	}

	var embedder retrieval.Embedder
	if _, ok := e.embedder.(embedding.NoneEmbedder); !ok {
		embedder = e.embedder
	}

	results, err := retrieval.Recall(ctx, e.store, e.store, embedder, q, p, now)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	e.tracker.Observe("retrieval_count", float64(len(results)))

	k := in.K
	if k <= 0 || k > len(results) {
		k = len(results)
	}
	out := make([]RecallResult, 0, k)
	for _, r := range results[:k] {
		out = append(out, RecallResult{
			ID:           r.Memory.ID,
			Content:      r.Memory.Content,
			Kind:         r.Memory.Kind,
			Confidence:   r.Confidence,
			Label:        r.Label,
			Strength:     forgetting.EffectiveStrength(r.Memory, now, e.forgettingParams()),
			Activation:   r.Activation,
			AgeDays:      r.Memory.AgeDays(now),
			Layer:        r.Memory.Layer,
			Importance:   r.Memory.Importance,
			Contradicted: r.Memory.ContradictedBy != "",
		})
	}
	return out, nil
}

// ConsolidateReport mirrors consolidation.Report for façade callers.
type ConsolidateReport = consolidation.Report

// Consolidate runs one consolidation cycle with simulated-day step deltaT
// (default 1.0 when ≤ 0).
func (e *Engine) Consolidate(ctx context.Context, deltaT float64) (ConsolidateReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if deltaT <= 0 {
		deltaT = 1.0
	}
	cp := consolidation.Params{
		Mu1: e.cfg.Mu1, Mu2: e.cfg.Mu2, Alpha: e.cfg.Alpha,
		ReplayBoost: e.cfg.ReplayBoost, ReplayFraction: e.cfg.ReplayRatio,
		PromoteThreshold: e.cfg.PromoteThreshold, DemoteThreshold: e.cfg.DemoteThreshold,
		Downscale: e.cfg.Downscale,
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	report, err := consolidation.Run(ctx, e.store, e.store, cp, e.hebbianParams(), deltaT, time.Now().UTC(), rng)
	if err != nil {
		return report, fmt.Errorf("consolidate: %w", err)
	}
	if report.FailedUpdates > 0 {
		e.logger.Warn("consolidation had partial failures", "failed", report.FailedUpdates, "processed", report.Processed)
	}
	return report, nil
}

// Forget removes entries by id or by effective-strength threshold —
// exactly one of the two must be supplied (spec.md §4.8).
func (e *Engine) Forget(ctx context.Context, id string, threshold float64, hasThreshold bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	hasID := id != ""
	if hasID == hasThreshold {
		return 0, ErrAmbiguousForget
	}

	if hasID {
		m, err := e.store.Peek(ctx, id)
		if err != nil {
			return 0, err
		}
		if m == nil {
			return 0, nil
		}
		if m.Pinned {
			return 0, nil
		}
		if err := e.store.Delete(ctx, id); err != nil {
			return 0, err
		}
		return 1, nil
	}

	all, err := e.store.All(ctx)
	if err != nil {
		return 0, err
	}
	roots := contradictionRoots(all)
	now := time.Now().UTC()
	fp := e.forgettingParams()
	removed := 0
	for _, m := range all {
		if forgetting.ShouldPrune(m, now, threshold, roots[m.ID], fp) {
			if err := e.store.Delete(ctx, m.ID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// contradictionRoots marks every id that some other entry's Contradicts
// field points to — a root must survive even if weak, for audit (§4.3).
func contradictionRoots(all []*model.Memory) map[string]bool {
	roots := make(map[string]bool)
	for _, m := range all {
		if m.Contradicts != "" {
			roots[m.Contradicts] = true
		}
	}
	return roots
}

// Reward applies feedback-derived polarity to the last N accessed
// memories (spec.md §4.7).
func (e *Engine) Reward(ctx context.Context, feedback string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	polarity, magnitude := confidence.Detect(feedback, e.cfg.RewardDictionary)
	if polarity == confidence.Neutral {
		return 0, nil
	}

	all, err := e.store.All(ctx)
	if err != nil {
		return 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastAccess().After(all[j].LastAccess()) })

	const recentN = 3
	if len(all) > recentN {
		all = all[:recentN]
	}

	sign := 1.0
	if polarity == confidence.Negative {
		sign = -1.0
	}
	delta := sign * e.cfg.RewardMagnitude * magnitude

	affected := 0
	for _, m := range all {
		m.Importance = clamp01(m.Importance + delta)
		m.WorkingStrength += delta
		if m.WorkingStrength < 0 {
			m.WorkingStrength = 0
		}
		if err := e.store.Update(ctx, m); err != nil {
			return affected, err
		}
		affected++
	}
	return affected, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Pin marks an entry immune to consolidation, downscaling, and pruning.
func (e *Engine) Pin(ctx context.Context, id string) error {
	return e.setPinned(ctx, id, true)
}

// Unpin clears the pinned flag.
func (e *Engine) Unpin(ctx context.Context, id string) error {
	return e.setPinned(ctx, id, false)
}

func (e *Engine) setPinned(ctx context.Context, id string, pinned bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.store.Peek(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	m.Pinned = pinned
	return e.store.Update(ctx, m)
}

// UpdateMemory supersedes old_id with new content: the old entry is kept
// (marked contradicted_by the new one) and a fresh entry is inserted with
// contradicts = old_id, preserving the correction chain (spec.md §4.8).
func (e *Engine) UpdateMemory(ctx context.Context, oldID, newContent string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, err := e.store.Peek(ctx, oldID)
	if err != nil {
		return "", err
	}
	if old == nil {
		return "", fmt.Errorf("%w: %q", ErrNotFound, oldID)
	}

	m, err := e.store.Insert(ctx, store.InsertParams{
		Content:     newContent,
		Kind:        old.Kind,
		Importance:  old.Importance,
		Source:      old.Source,
		Tags:        old.Tags,
		Contradicts: oldID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("insert replacement: %w", err)
	}
	return m.ID, nil
}

// HebbianLinks returns the ids with a live Hebbian link to id.
func (e *Engine) HebbianLinks(ctx context.Context, id string) ([]string, error) {
	return hebbian.Neighbors(ctx, e.store, id)
}

// Link attaches an entity-graph edge to an existing memory, used by
// callers that discover entities after the memory was created.
func (e *Engine) Link(ctx context.Context, id, entity, relation string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.store.Peek(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return e.store.AddGraphLink(ctx, id, entity, relation)
}

// RelatedEntities returns entities reachable from label within hops
// graph-link steps.
func (e *Engine) RelatedEntities(ctx context.Context, label string, hops int) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.RelatedEntities(ctx, label, hops)
}

// Stats aggregates store-wide counts plus anomaly flags and uptime.
type Stats struct {
	*store.Stats
	UptimeSeconds   float64
	EncodingAnomaly bool
	RetrievalAnomaly bool
}

// Stats returns database-wide aggregates (spec.md §4.8).
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Stats:            st,
		UptimeSeconds:    time.Since(e.start).Seconds(),
		EncodingAnomaly:  e.tracker.IsAnomalous("encoding_rate", encodingRateOrZero(e.tracker), 3),
		RetrievalAnomaly: e.tracker.IsAnomalous("retrieval_count", retrievalCountOrZero(e.tracker), 3),
	}, nil
}

func encodingRateOrZero(t *anomaly.Tracker) float64 {
	mean, _ := t.Baseline("encoding_rate")
	return mean
}

func retrievalCountOrZero(t *anomaly.Tracker) float64 {
	mean, _ := t.Baseline("retrieval_count")
	return mean
}

// Export writes the store to path (spec.md §4.8).
func (e *Engine) Export(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Export(ctx, path)
}

// AssembleContext greedily packs top-scored memories into a
// caller-supplied character budget (supplemental operation, see
// SPEC_FULL.md §4). The last memory that only partially fits is
// excerpted rather than dropped.
func (e *Engine) AssembleContext(ctx context.Context, query string, budget int) (string, []string, error) {
	results, err := e.Recall(ctx, RecallInput{Query: query, K: 0})
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var used []string
	remaining := budget
	for _, r := range results {
		if remaining <= 0 {
			break
		}
		entry := r.Content
		if len(entry)+1 <= remaining {
			b.WriteString(entry)
			b.WriteString("\n")
			used = append(used, r.ID)
			remaining -= len(entry) + 1
			continue
		}
		b.WriteString(entry[:remaining])
		used = append(used, r.ID)
		break
	}
	return b.String(), used, nil
}

// Close releases the underlying store handle.
func (e *Engine) Close() error {
	return e.store.Close()
}
