package scan

import (
	"math"
	"testing"
)

func panValues(positions []Position) []float64 {
	pans := make([]float64, len(positions))
	for i, p := range positions {
		pans[i] = p.Pan
	}
	return pans
}

func assertPans(t *testing.T, got []Position, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d positions %v, want %d %v", len(got), panValues(got), len(want), want)
	}
	for i, p := range got {
		if math.Abs(p.Pan-want[i]) > 1e-9 {
			t.Errorf("position %d: pan = %v, want %v", i, p.Pan, want[i])
		}
	}
}

func TestSweepPositionsForceIncludesMax(t *testing.T) {
	// 66.3 FOV with 10 overlap: 56.3 step. 40 + 56.3 = 96.3, the next
	// step overshoots, so 140 is appended.
	got := sweepPositions(Range{Min: 40, Max: 140}, 66.3, 10, 90)
	assertPans(t, got, []float64{40, 96.3, 140})
}

func TestSweepPositionsExactLanding(t *testing.T) {
	// Steps land exactly on the max; no duplicate appended.
	got := sweepPositions(Range{Min: 0, Max: 100}, 60, 10, 90)
	assertPans(t, got, []float64{0, 50, 100})
}

func TestSweepPositionsNarrowRange(t *testing.T) {
	// Range narrower than one step still covers both ends.
	got := sweepPositions(Range{Min: 0, Max: 40}, 66.3, 10, 90)
	assertPans(t, got, []float64{0, 40})
}

func TestSweepPositionsFixedTilt(t *testing.T) {
	for _, p := range sweepPositions(Range{Min: 40, Max: 140}, 66.3, 10, 85) {
		if p.Tilt != 85 {
			t.Errorf("pan %v: tilt = %v, want 85", p.Pan, p.Tilt)
		}
	}
}

func TestOrderCenterOut(t *testing.T) {
	positions := sweepPositions(Range{Min: 40, Max: 140}, 66.3, 10, 90)
	got := orderCenterOut(positions, Range{Min: 40, Max: 140})

	// Center is 90: 96.3 is closest, then 40 and 140 are equidistant
	// and keep their left-to-right order.
	assertPans(t, got, []float64{96.3, 40, 140})
}

func TestOrderCenterOutStableOnTies(t *testing.T) {
	positions := []Position{{Pan: 0, Tilt: 90}, {Pan: 40, Tilt: 90}}
	got := orderCenterOut(positions, Range{Min: 0, Max: 40})

	// Both are 20 degrees from center 20; original order survives.
	assertPans(t, got, []float64{0, 40})
}
