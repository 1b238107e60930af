package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/config"
	"github.com/tonitangpotato/neuromemory-ai/internal/embedding"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
	"github.com/tonitangpotato/neuromemory-ai/internal/store"
)

// seedAt inserts a memory directly through the store, backdating its
// creation (and so its first access, since Insert seeds AccessTimes with
// createdAt) by elapsed relative to time.Now. This is what lets these
// end-to-end tests exercise genuinely elapsed-time-dependent behavior
// (recency, decay, contradiction aging) without an injectable clock.
func seedAt(t *testing.T, e *Engine, ctx context.Context, content string, elapsed time.Duration, importance float64, contradicts string) string {
	t.Helper()
	m, err := e.store.Insert(ctx, store.InsertParams{
		Content:     content,
		Kind:        model.KindFactual,
		Importance:  importance,
		Contradicts: contradicts,
		CreatedAt:   time.Now().UTC().Add(-elapsed),
	})
	if err != nil {
		t.Fatalf("seedAt insert: %v", err)
	}
	return m.ID
}

// fixedEmbedder always returns a vector of a fixed dimension, for exercising
// Add's mixed-dimension rejection.
type fixedEmbedder struct{ dims int }

func (f fixedEmbedder) Name() string                       { return "fixed" }
func (f fixedEmbedder) Dims() int                           { return f.dims }
func (f fixedEmbedder) Available(ctx context.Context) bool { return true }
func (f fixedEmbedder) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(i + 1)
	}
	return v, nil
}

func TestAddRejectsMismatchedEmbeddingDimension(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	e, err := Open(s, fixedEmbedder{dims: 4}, config.Default(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	if _, err := e.Add(ctx, AddInput{Content: "first memory", WithEmbedding: true}); err != nil {
		t.Fatalf("Add (4-dim): %v", err)
	}

	e.embedder = fixedEmbedder{dims: 8}
	_, err = e.Add(ctx, AddInput{Content: "second memory, different dims", WithEmbedding: true})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

// TestRecencyOverride exercises spec seed scenario 1: of two otherwise
// identical memories, the more recently created one ranks first.
func TestRecencyOverride(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	idA := seedAt(t, e, ctx, "user works at acme corp", 30*24*time.Hour, 0.5, "")
	idB := seedAt(t, e, ctx, "user works at globex corp", 15*24*time.Hour, 0.5, "")

	results, err := e.Recall(ctx, RecallInput{Query: "user works"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both entries to match, got %d", len(results))
	}
	if results[0].ID != idB {
		t.Fatalf("expected the more recent entry %q to rank first, got %q", idB, results[0].ID)
	}
	found := false
	for _, r := range results {
		if r.ID == idA {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the older entry to still be present")
	}
}

// TestFrequencyReinforcement exercises spec seed scenario 2: among many
// candidates sharing a query term, the freshest one ranks first regardless
// of how many older candidates exist.
func TestFrequencyReinforcement(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	seedAt(t, e, ctx, "user ate sushi for dinner, tasty food", 15*24*time.Hour, 0.5, "")

	var freshestPizza string
	elapsedDays := []int{14, 12, 10, 8, 6, 1}
	for i, days := range elapsedDays {
		id := seedAt(t, e, ctx, "pizza tonight with topping, tasty food", time.Duration(days)*24*time.Hour, 0.5, "")
		if i == len(elapsedDays)-1 {
			freshestPizza = id
		}
	}

	results, err := e.Recall(ctx, RecallInput{Query: "what food do I like"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 7 {
		t.Fatalf("expected all 7 entries to match on \"food\", got %d", len(results))
	}
	if results[0].ID != freshestPizza {
		t.Fatalf("expected the freshest pizza memory to rank first, got %q", results[0].ID)
	}
}

// TestImportancePersistence exercises spec seed scenario 3: a high-importance
// memory outranks a larger, more recent set of low-importance distractors.
func TestImportancePersistence(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	allergyID := seedAt(t, e, ctx, "severe peanut allergy report", 3*24*time.Hour, 0.99, "")
	for i := 0; i < 20; i++ {
		seedAt(t, e, ctx, "trivial day report entry", time.Duration(i+1)*24*time.Hour, 0.01, "")
	}

	results, err := e.Recall(ctx, RecallInput{Query: "report"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 21 {
		t.Fatalf("expected all 21 entries to match on \"report\", got %d", len(results))
	}
	if results[0].ID != allergyID {
		t.Fatalf("expected the high-importance allergy memory to rank first despite its age, got %q", results[0].ID)
	}
}

// TestContradictionSuppression exercises spec seed scenario 4: a superseding
// memory outranks the one it contradicts, which is still returned and
// flagged as contradicted.
func TestContradictionSuppression(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	sfID := seedAt(t, e, ctx, "I live in San Francisco", 19*24*time.Hour, 0.5, "")
	seattleID := seedAt(t, e, ctx, "I live in Seattle now", 5*24*time.Hour, 0.5, sfID)

	results, err := e.Recall(ctx, RecallInput{Query: "where do I live"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both entries to match on \"live\", got %d", len(results))
	}
	if results[0].ID != seattleID {
		t.Fatalf("expected the superseding memory %q to rank first, got %q", seattleID, results[0].ID)
	}

	var sf *RecallResult
	for i := range results {
		if results[i].ID == sfID {
			sf = &results[i]
		}
	}
	if sf == nil {
		t.Fatal("expected the contradicted memory to still be returned")
	}
	if !sf.Contradicted {
		t.Fatal("expected the superseded memory to be flagged as contradicted")
	}
}

// TestHebbianEmergenceViaRecall exercises spec seed scenario 5: after three
// co-retrievals cross theta_form, a query matching only one of the pair
// still surfaces the other through Hebbian expansion.
func TestHebbianEmergenceViaRecall(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	idA, err := e.Add(ctx, AddInput{Content: "blue whales migrate across oceans every year"})
	if err != nil {
		t.Fatalf("Add a: %v", err)
	}
	idB, err := e.Add(ctx, AddInput{Content: "dolphins swim alongside blue whales in pods"})
	if err != nil {
		t.Fatalf("Add b: %v", err)
	}

	for i := 0; i < 3; i++ {
		results, err := e.Recall(ctx, RecallInput{Query: "blue whales"})
		if err != nil {
			t.Fatalf("Recall (co-activation %d): %v", i, err)
		}
		if len(results) != 2 {
			t.Fatalf("expected both memories to co-activate on round %d, got %d results", i, len(results))
		}
	}

	results, err := e.Recall(ctx, RecallInput{Query: "migrate"})
	if err != nil {
		t.Fatalf("Recall (hebbian probe): %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected the Hebbian-linked memory to be pulled in alongside the lexical match, got %d results: %+v", len(results), results)
	}
	seen := map[string]bool{}
	for _, r := range results {
		seen[r.ID] = true
	}
	if !seen[idA] || !seen[idB] {
		t.Fatalf("expected both %q and %q in results, got %+v", idA, idB, results)
	}
}

// TestPinImmunityUnderConsolidateAndForget exercises spec seed scenario 6:
// a pinned memory's strengths and layer survive a real consolidation pass,
// and it survives an arbitrarily aggressive forget.
func TestPinImmunityUnderConsolidateAndForget(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.Add(ctx, AddInput{Content: "pin me down"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := e.Pin(ctx, id); err != nil {
		t.Fatalf("Pin: %v", err)
	}

	before, err := e.store.Peek(ctx, id)
	if err != nil {
		t.Fatalf("Peek before: %v", err)
	}

	if _, err := e.Consolidate(ctx, 30); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	after, err := e.store.Peek(ctx, id)
	if err != nil {
		t.Fatalf("Peek after: %v", err)
	}
	if after.WorkingStrength != before.WorkingStrength || after.CoreStrength != before.CoreStrength {
		t.Fatalf("expected pinned strengths unchanged, before=%+v after=%+v", before, after)
	}
	if after.Layer != before.Layer {
		t.Fatalf("expected pinned layer unchanged, before=%q after=%q", before.Layer, after.Layer)
	}

	n, err := e.Forget(ctx, "", math.Inf(1), true)
	if err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected the pinned entry to survive an infinite-threshold forget, removed=%d", n)
	}
	if m, err := e.store.Peek(ctx, id); err != nil || m == nil {
		t.Fatalf("expected the pinned entry to still exist, got m=%v err=%v", m, err)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	e, err := Open(s, embedding.NoneEmbedder{}, config.Default(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e
}

func TestAddAndRecall(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.Add(ctx, AddInput{Content: "the capital of France is Paris", Kind: model.KindFactual})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	results, err := e.Recall(ctx, RecallInput{Query: "capital France", K: 5})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != id {
		t.Fatalf("expected recall to return the inserted memory, got %s", results[0].ID)
	}
}

func TestAddRejectsInvalidKind(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Add(context.Background(), AddInput{Content: "x", Kind: model.Kind("bogus")})
	if !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestAddRejectsEmptyContent(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Add(context.Background(), AddInput{Content: ""})
	if !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected error for empty content, got %v", err)
	}
}

func TestRecallEmptyStoreReturnsEmpty(t *testing.T) {
	e := newTestEngine(t)
	results, err := e.Recall(context.Background(), RecallInput{Query: "anything"})
	if err != nil {
		t.Fatalf("Recall on empty store should not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestForgetRequiresExactlyOneArg(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Forget(ctx, "", 0, false); !errors.Is(err, ErrAmbiguousForget) {
		t.Fatalf("expected ErrAmbiguousForget for neither arg, got %v", err)
	}

	id, _ := e.Add(ctx, AddInput{Content: "x"})
	if _, err := e.Forget(ctx, id, 0.5, true); !errors.Is(err, ErrAmbiguousForget) {
		t.Fatalf("expected ErrAmbiguousForget for both args, got %v", err)
	}
}

func TestForgetByID(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, _ := e.Add(ctx, AddInput{Content: "ephemeral"})
	n, err := e.Forget(ctx, id, 0, false)
	if err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}

	results, _ := e.Recall(ctx, RecallInput{Query: "ephemeral"})
	if len(results) != 0 {
		t.Fatal("expected forgotten memory to no longer be retrievable")
	}
}

func TestPinProtectsFromThresholdForget(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, _ := e.Add(ctx, AddInput{Content: "pin me"})
	if err := e.Pin(ctx, id); err != nil {
		t.Fatalf("Pin: %v", err)
	}

	n, err := e.Forget(ctx, "", 1e9, true)
	if err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected pinned entry to survive aggressive forgetting, removed=%d", n)
	}
}

func TestPinUnpinRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, _ := e.Add(ctx, AddInput{Content: "x"})
	if err := e.Pin(ctx, id); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if err := e.Unpin(ctx, id); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
}

func TestUpdateMemoryPreservesChain(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	oldID, _ := e.Add(ctx, AddInput{Content: "I live in SF"})
	newID, err := e.UpdateMemory(ctx, oldID, "I moved to Seattle")
	if err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}
	if newID == oldID {
		t.Fatal("expected a new id for the corrected memory")
	}

	results, err := e.Recall(ctx, RecallInput{Query: "Seattle"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 || results[0].ID != newID {
		t.Fatalf("expected new memory to be retrievable, got %+v", results)
	}
}

func TestConsolidateOnEmptyStore(t *testing.T) {
	e := newTestEngine(t)
	report, err := e.Consolidate(context.Background(), 1.0)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if report.Processed != 0 {
		t.Fatalf("expected 0 processed on empty store, got %d", report.Processed)
	}
}

func TestRewardNeutralIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Add(ctx, AddInput{Content: "x"})

	n, err := e.Reward(ctx, "the weather is mild today")
	if err != nil {
		t.Fatalf("Reward: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected neutral feedback to affect nothing, got %d", n)
	}
}

func TestRewardPositiveAffectsRecent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Add(ctx, AddInput{Content: "x"})

	n, err := e.Reward(ctx, "thanks, that's exactly right")
	if err != nil {
		t.Fatalf("Reward: %v", err)
	}
	if n == 0 {
		t.Fatal("expected positive feedback to affect at least one recent memory")
	}
}

func TestStatsOnEmptyStore(t *testing.T) {
	e := newTestEngine(t)
	st, err := e.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalMemories != 0 {
		t.Fatalf("expected 0 memories, got %d", st.TotalMemories)
	}
}

func TestAssembleContextRespectsBudget(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Add(ctx, AddInput{Content: "a reasonably long sentence about Paris and France"})

	text, used, err := e.AssembleContext(ctx, "Paris France", 20)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if len(text) > 20 {
		t.Fatalf("expected assembled context to respect the budget, got %d chars", len(text))
	}
	if len(used) == 0 {
		t.Fatal("expected at least one memory to contribute to the context")
	}
}
