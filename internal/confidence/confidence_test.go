package confidence

import "testing"

func TestScoreClampedToUnitInterval(t *testing.T) {
	if got := Score(1, 1, 10, 10, false); got > 1 {
		t.Fatalf("expected score clamped to <= 1, got %v", got)
	}
	if got := Score(0, 0, 0, 0, false); got != 0 {
		t.Fatalf("expected 0 for all-zero inputs, got %v", got)
	}
}

func TestScoreHalvedWhenContradicted(t *testing.T) {
	plain := Score(0.8, 0.6, 1, 1, false)
	contra := Score(0.8, 0.6, 1, 1, true)
	if contra != plain/2 {
		t.Fatalf("expected exactly half, got plain=%v contra=%v", plain, contra)
	}
}

func TestLabelizeBands(t *testing.T) {
	cases := []struct {
		c    float64
		want Label
	}{
		{0.9, Certain},
		{0.85, Certain},
		{0.7, Likely},
		{0.6, Likely},
		{0.4, Uncertain},
		{0.3, Uncertain},
		{0.1, Vague},
	}
	for _, c := range cases {
		if got := Labelize(c.c); got != c.want {
			t.Errorf("Labelize(%v) = %v, want %v", c.c, got, c.want)
		}
	}
}

func TestDetectPositive(t *testing.T) {
	pol, mag := Detect("thanks, that's exactly right", DefaultDictionary())
	if pol != Positive {
		t.Fatalf("expected Positive, got %v", pol)
	}
	if mag <= 0 {
		t.Fatal("expected positive magnitude")
	}
}

func TestDetectNegative(t *testing.T) {
	pol, _ := Detect("no, that's wrong and useless", DefaultDictionary())
	if pol != Negative {
		t.Fatalf("expected Negative, got %v", pol)
	}
}

func TestDetectNeutralOnNoMatches(t *testing.T) {
	pol, mag := Detect("the weather is nice today", DefaultDictionary())
	if pol != Neutral {
		t.Fatalf("expected Neutral, got %v", pol)
	}
	if mag != 0 {
		t.Fatalf("expected 0 magnitude for neutral, got %v", mag)
	}
}

func TestDetectTieIsNeutral(t *testing.T) {
	pol, _ := Detect("that's correct but also wrong", DefaultDictionary())
	if pol != Neutral {
		t.Fatalf("expected a tie between positive and negative cues to be neutral, got %v", pol)
	}
}
