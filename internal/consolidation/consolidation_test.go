package consolidation

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/hebbian"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

type fakeStore struct {
	entries map[string]*model.Memory
}

func newFakeStore(entries ...*model.Memory) *fakeStore {
	s := &fakeStore{entries: map[string]*model.Memory{}}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return s
}

func (f *fakeStore) All(ctx context.Context) ([]*model.Memory, error) {
	out := make([]*model.Memory, 0, len(f.entries))
	for _, m := range f.entries {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, m *model.Memory) error {
	f.entries[m.ID] = m
	return nil
}

func TestDecayAndTransferStep(t *testing.T) {
	m := &model.Memory{ID: "a", WorkingStrength: 1.0, CoreStrength: 0.0, Importance: 0.5, Layer: model.LayerWorking}
	p := DefaultParams()

	decayStep(m, p, 1.0)
	if m.WorkingStrength >= 1.0 {
		t.Fatalf("expected working strength to decay, got %f", m.WorkingStrength)
	}

	before := m.CoreStrength
	transferStep(m, p, 1.0)
	if m.CoreStrength <= before {
		t.Fatalf("expected core strength to increase via transfer, got %f", m.CoreStrength)
	}
}

func TestPromoteToCore(t *testing.T) {
	m := &model.Memory{ID: "a", CoreStrength: 5.0, Layer: model.LayerWorking}
	p := DefaultParams()
	var report Report
	applyLayerTransition(m, p, &report)
	if m.Layer != model.LayerCore {
		t.Fatalf("expected promotion to core, got %s", m.Layer)
	}
	if report.Promoted != 1 {
		t.Fatalf("expected 1 promotion recorded, got %d", report.Promoted)
	}
}

func TestDemoteToArchive(t *testing.T) {
	m := &model.Memory{ID: "a", WorkingStrength: 0.01, CoreStrength: 0.01, Layer: model.LayerWorking}
	p := DefaultParams()
	var report Report
	applyLayerTransition(m, p, &report)
	if m.Layer != model.LayerArchive {
		t.Fatalf("expected demotion to archive, got %s", m.Layer)
	}
	if report.Demoted != 1 {
		t.Fatalf("expected 1 demotion recorded, got %d", report.Demoted)
	}
}

func TestPinnedNeverProcessed(t *testing.T) {
	pinned := &model.Memory{ID: "pinned", Pinned: true, WorkingStrength: 1.0, Layer: model.LayerWorking}
	s := newFakeStore(pinned)

	report, err := Run(context.Background(), s, nil, DefaultParams(), hebbian.DefaultParams(), 1.0, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 0 {
		t.Fatalf("expected pinned entry to be skipped, processed=%d", report.Processed)
	}
	if pinned.WorkingStrength != 1.0 {
		t.Fatal("pinned entry's strength must not change")
	}
}

func TestReactivateFromArchive(t *testing.T) {
	m := &model.Memory{ID: "a", Layer: model.LayerArchive, WorkingStrength: 4.0}
	p := DefaultParams()
	if !Reactivate(m, p) {
		t.Fatal("expected reactivation")
	}
	if m.Layer != model.LayerWorking {
		t.Fatalf("expected working layer after reactivation, got %s", m.Layer)
	}
}

func TestReplaySetRespectsFraction(t *testing.T) {
	now := time.Now()
	var entries []*model.Memory
	for i := 0; i < 20; i++ {
		entries = append(entries, &model.Memory{
			ID:          string(rune('a' + i)),
			AccessTimes: []time.Time{now.Add(-time.Duration(i) * 24 * time.Hour)},
		})
	}
	set := chooseReplaySet(entries, now, 0.2, rand.New(rand.NewSource(42)))
	if len(set) == 0 || len(set) > 5 {
		t.Fatalf("expected roughly 20%% sampled (≤5 of 20), got %d", len(set))
	}
}
