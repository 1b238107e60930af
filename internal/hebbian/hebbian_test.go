package hebbian

import (
	"context"
	"testing"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

type fakeStore struct {
	coact map[[2]string]int
	links map[[2]string]model.HebbianLink
}

func newFakeStore() *fakeStore {
	return &fakeStore{coact: map[[2]string]int{}, links: map[[2]string]model.HebbianLink{}}
}

func key(a, b string) [2]string {
	x, y := model.CanonicalPair(a, b)
	return [2]string{x, y}
}

func (f *fakeStore) IncrementCoactivation(ctx context.Context, a, b string) (int, error) {
	k := key(a, b)
	f.coact[k]++
	return f.coact[k], nil
}

func (f *fakeStore) UpsertHebbianLink(ctx context.Context, link model.HebbianLink) error {
	f.links[key(link.A, link.B)] = link
	return nil
}

func (f *fakeStore) GetHebbianLink(ctx context.Context, a, b string) (*model.HebbianLink, error) {
	if l, ok := f.links[key(a, b)]; ok {
		return &l, nil
	}
	return nil, nil
}

func (f *fakeStore) Neighbors(ctx context.Context, id string) ([]model.HebbianLink, error) {
	var out []model.HebbianLink
	for _, l := range f.links {
		if l.A == id || l.B == id {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) AllHebbianLinks(ctx context.Context) ([]model.HebbianLink, error) {
	var out []model.HebbianLink
	for _, l := range f.links {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) DeleteHebbianLink(ctx context.Context, a, b string) error {
	delete(f.links, key(a, b))
	return nil
}

func TestRecordCoactivationFormsLinkAtThreshold(t *testing.T) {
	s := newFakeStore()
	p := DefaultParams()
	ctx := context.Background()

	for i := 0; i < p.ThetaForm-1; i++ {
		if err := RecordCoactivation(ctx, s, []string{"a", "b"}, p); err != nil {
			t.Fatalf("RecordCoactivation: %v", err)
		}
	}
	if l, _ := s.GetHebbianLink(ctx, "a", "b"); l != nil {
		t.Fatal("expected no link before threshold is reached")
	}

	if err := RecordCoactivation(ctx, s, []string{"a", "b"}, p); err != nil {
		t.Fatalf("RecordCoactivation: %v", err)
	}
	l, _ := s.GetHebbianLink(ctx, "a", "b")
	if l == nil {
		t.Fatal("expected link to form once threshold count is reached")
	}
	if l.Strength != 1.0 {
		t.Fatalf("expected initial strength 1.0, got %v", l.Strength)
	}
}

func TestRecordCoactivationStrengthensAndCapsAtSMax(t *testing.T) {
	s := newFakeStore()
	p := Params{ThetaForm: 1, Eta: 1.0, SMax: 2.0, Lambda: 0.9, FloorDrop: 0.1}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := RecordCoactivation(ctx, s, []string{"a", "b"}, p); err != nil {
			t.Fatalf("RecordCoactivation: %v", err)
		}
	}
	l, _ := s.GetHebbianLink(ctx, "a", "b")
	if l == nil {
		t.Fatal("expected link to exist")
	}
	if l.Strength != p.SMax {
		t.Fatalf("expected strength capped at %v, got %v", p.SMax, l.Strength)
	}
}

func TestRecordCoactivationSkipsSelfLoop(t *testing.T) {
	s := newFakeStore()
	p := DefaultParams()
	if err := RecordCoactivation(context.Background(), s, []string{"a", "a"}, p); err != nil {
		t.Fatalf("RecordCoactivation: %v", err)
	}
	if len(s.coact) != 0 {
		t.Fatal("expected self-pairing to be skipped entirely")
	}
}

func TestDecayRemovesBelowFloor(t *testing.T) {
	s := newFakeStore()
	p := Params{ThetaForm: 1, Eta: 0.1, SMax: 5, Lambda: 0.1, FloorDrop: 0.5}
	s.links[key("a", "b")] = model.HebbianLink{A: "a", B: "b", Strength: 1.0, CreatedAt: time.Now()}

	if err := Decay(context.Background(), s, p); err != nil {
		t.Fatalf("Decay: %v", err)
	}
	if l, _ := s.GetHebbianLink(context.Background(), "a", "b"); l != nil {
		t.Fatal("expected link below floor to be removed")
	}
}

func TestDecayKeepsAboveFloor(t *testing.T) {
	s := newFakeStore()
	p := Params{ThetaForm: 1, Eta: 0.1, SMax: 5, Lambda: 0.95, FloorDrop: 0.1}
	s.links[key("a", "b")] = model.HebbianLink{A: "a", B: "b", Strength: 1.0, CreatedAt: time.Now()}

	if err := Decay(context.Background(), s, p); err != nil {
		t.Fatalf("Decay: %v", err)
	}
	l, _ := s.GetHebbianLink(context.Background(), "a", "b")
	if l == nil {
		t.Fatal("expected link above floor to survive")
	}
	if l.Strength != 0.95 {
		t.Fatalf("expected strength 0.95 after one decay step, got %v", l.Strength)
	}
}

func TestNeighborsReturnsOtherEndpoint(t *testing.T) {
	s := newFakeStore()
	s.links[key("a", "b")] = model.HebbianLink{A: "a", B: "b", Strength: 1.0}
	neighbors, err := Neighbors(context.Background(), s, "a")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0] != "b" {
		t.Fatalf("expected [b], got %v", neighbors)
	}
}

func TestStrengthReturnsZeroForMissingLink(t *testing.T) {
	s := newFakeStore()
	if got := Strength(context.Background(), s, "a", "b"); got != 0 {
		t.Fatalf("expected 0 for missing link, got %v", got)
	}
}
