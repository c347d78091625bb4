package sim

import (
	"math/rand"
	"testing"
)

func flatField(t *testing.T, size int) *Field {
	t.Helper()
	f, err := BuildField(size, nil, 0)
	if err != nil {
		t.Fatalf("build flat field: %v", err)
	}
	return f
}

func TestSenseAndMoveWrapsAroundTorus(t *testing.T) {
	f := flatField(t, 600)
	cases := []struct {
		name    string
		start   Position
		heading Heading
		want    Position
	}{
		{name: "south off bottom", start: Position{Row: 599, Col: 10}, heading: South, want: Position{Row: 1, Col: 10}},
		{name: "north off top", start: Position{Row: 0, Col: 10}, heading: North, want: Position{Row: 598, Col: 10}},
		{name: "west off left", start: Position{Row: 5, Col: 1}, heading: West, want: Position{Row: 5, Col: 599}},
		{name: "south east corner", start: Position{Row: 599, Col: 598}, heading: SouthEast, want: Position{Row: 1, Col: 0}},
		{name: "north west corner", start: Position{Row: 0, Col: 0}, heading: NorthWest, want: Position{Row: 598, Col: 598}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newAgent(0, tc.start, tc.heading, f, &compass, 2, rand.New(rand.NewSource(1)))
			a.SenseAndMove()
			if a.Position() != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, a.Position())
			}
		})
	}
}

func TestSenseAndMoveRunsUpGradient(t *testing.T) {
	f, err := BuildField(21, []FoodSource{{Row: 10, Col: 10, Amount: 1000}}, 3)
	if err != nil {
		t.Fatalf("build field: %v", err)
	}
	a := newAgent(0, Position{Row: 10, Col: 4}, East, f, &compass, 1, rand.New(rand.NewSource(7)))
	for col := 5; col <= 10; col++ {
		if a.SenseAndMove() {
			t.Fatalf("unexpected tumble moving up the gradient to col %d", col)
		}
		if a.Heading() != East {
			t.Fatalf("expected heading to stay E, got %s", a.Heading())
		}
		if a.LastConcentration() != f.At(10, col) {
			t.Fatalf("expected last concentration %f, got %f", f.At(10, col), a.LastConcentration())
		}
	}
	if !a.SenseAndMove() {
		t.Fatal("expected tumble after passing the peak")
	}
}

func TestTumbleDrawsUniformHeadings(t *testing.T) {
	f := flatField(t, 16)
	a := newAgent(0, Position{Row: 8, Col: 8}, North, f, &compass, 2, rand.New(rand.NewSource(2024)))

	const trials = 16000
	var counts [headingCount]int
	for i := 0; i < trials; i++ {
		if !a.SenseAndMove() {
			t.Fatal("flat field must tumble on every step")
		}
		counts[a.Heading()]++
	}

	expected := float64(trials) / headingCount
	chi2 := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	// 7 degrees of freedom, p ~ 1e-4.
	if chi2 > 29.9 {
		t.Fatalf("heading distribution not uniform: chi2=%f counts=%v", chi2, counts)
	}
}

func TestAgentOnPeakTumblesWhenLeaving(t *testing.T) {
	f := buildDefaultField(t)
	start := Position{Row: 200, Col: 200}
	peak := f.At(start.Row, start.Col)

	for h := Heading(0); h < headingCount; h++ {
		a := newAgent(0, start, h, f, &compass, 2, rand.New(rand.NewSource(int64(h)+1)))
		if a.LastConcentration() != peak {
			t.Fatalf("expected spawn reading %f, got %f", peak, a.LastConcentration())
		}
		tumbled := a.SenseAndMove()
		pos := a.Position()
		if pos == start {
			t.Fatalf("heading %s did not move", h)
		}
		now := f.At(pos.Row, pos.Col)
		if a.LastConcentration() != now {
			t.Fatalf("heading %s: expected last concentration %f, got %f", h, now, a.LastConcentration())
		}
		if tumbled != (now <= peak) {
			t.Fatalf("heading %s: tumbled=%v with now=%f peak=%f", h, tumbled, now, peak)
		}
	}

	a := newAgent(0, start, North, f, &compass, 2, rand.New(rand.NewSource(1)))
	if !a.SenseAndMove() {
		t.Fatal("expected tumble moving north off the peak")
	}
}

func TestCompassHasEightDistinctOffsets(t *testing.T) {
	seen := make(map[Offset]Heading)
	for h := Heading(0); h < headingCount; h++ {
		off := h.Offset()
		if prev, ok := seen[off]; ok {
			t.Fatalf("headings %s and %s share offset %+v", prev, h, off)
		}
		seen[off] = h
		opp := Heading((h + 4) % headingCount).Offset()
		if off.Row+opp.Row != 0 || off.Col+opp.Col != 0 {
			t.Fatalf("heading %s is not opposite to %s", h, Heading((h+4)%headingCount))
		}
	}
}

func TestLegacyCompassCollapsesWest(t *testing.T) {
	if legacyCompass[West] != compass[SouthWest] {
		t.Fatalf("expected legacy W to move like SW, got %+v", legacyCompass[West])
	}
	distinct := make(map[Offset]struct{})
	for _, off := range legacyCompass {
		distinct[off] = struct{}{}
	}
	if len(distinct) != 7 {
		t.Fatalf("expected 7 distinct legacy offsets, got %d", len(distinct))
	}
}
