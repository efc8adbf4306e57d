package track

import "testing"

func TestOptimalPositionEmpty(t *testing.T) {
	c := NewPositionCalculator(66.3)
	pan, tilt := c.CalculateOptimalPosition(nil)
	if pan != 90 || tilt != 90 {
		t.Errorf("got (%v, %v), want center (90, 90)", pan, tilt)
	}
}

func TestOptimalPositionSingleTarget(t *testing.T) {
	c := NewPositionCalculator(66.3)
	pan, tilt := c.CalculateOptimalPosition([]Target{{Angle: 120, Tilt: 85}})
	if pan != 120 || tilt != 85 {
		t.Errorf("got (%v, %v), want (120, 85)", pan, tilt)
	}
}

func TestOptimalPositionMidpointOfGroup(t *testing.T) {
	c := NewPositionCalculator(66.3)
	pan, _ := c.CalculateOptimalPosition([]Target{
		{Angle: 70, Tilt: 90},
		{Angle: 110, Tilt: 90},
	})
	if pan != 90 {
		t.Errorf("pan = %v, want 90 (midpoint of 70 and 110)", pan)
	}
}

func TestOptimalPositionPrefersLargerGroup(t *testing.T) {
	c := NewPositionCalculator(60)
	// Three people near 60° and an outlier at 170°: the group wins.
	pan, _ := c.CalculateOptimalPosition([]Target{
		{Angle: 50, Tilt: 90},
		{Angle: 60, Tilt: 90},
		{Angle: 70, Tilt: 90},
		{Angle: 170, Tilt: 90},
	})
	if pan != 60 {
		t.Errorf("pan = %v, want 60", pan)
	}
}

func TestOptimalPositionDeterministic(t *testing.T) {
	c := NewPositionCalculator(66.3)
	targets := []Target{
		{Angle: 45, Tilt: 88},
		{Angle: 95, Tilt: 92},
		{Angle: 130, Tilt: 90},
	}
	p1, t1 := c.CalculateOptimalPosition(targets)
	p2, t2 := c.CalculateOptimalPosition(targets)
	if p1 != p2 || t1 != t2 {
		t.Errorf("not deterministic: (%v,%v) then (%v,%v)", p1, t1, p2, t2)
	}
}

func TestOptimalPositionMeanTiltOfCovered(t *testing.T) {
	c := NewPositionCalculator(66.3)
	_, tilt := c.CalculateOptimalPosition([]Target{
		{Angle: 80, Tilt: 80},
		{Angle: 100, Tilt: 100},
	})
	if tilt != 90 {
		t.Errorf("tilt = %v, want 90 (mean of 80 and 100)", tilt)
	}
}
