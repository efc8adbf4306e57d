package motion

import (
	"math"
	"testing"
)

func TestInterpolateEndpoints(t *testing.T) {
	methods := []InterpolationMethod{Linear, MinJerk, EaseInOut}

	for _, m := range methods {
		if got := Interpolate(0, m); got != 0 {
			t.Errorf("%s: f(0) = %v, want 0", m, got)
		}
		if got := Interpolate(1, m); math.Abs(got-1) > 1e-9 {
			t.Errorf("%s: f(1) = %v, want 1", m, got)
		}
	}
}

func TestInterpolateMonotonic(t *testing.T) {
	methods := []InterpolationMethod{Linear, MinJerk, EaseInOut}

	for _, m := range methods {
		prev := -1.0
		for i := 0; i <= 20; i++ {
			tt := float64(i) / 20.0
			got := Interpolate(tt, m)
			if got < prev-1e-12 {
				t.Errorf("%s: not monotonic at t=%.2f: %v < %v", m, tt, got, prev)
			}
			prev = got
		}
	}
}

func TestMinJerkSymmetry(t *testing.T) {
	// f(t) + f(1-t) == 1 for the minimum-jerk polynomial
	for _, tt := range []float64{0.1, 0.2, 0.3, 0.4} {
		sum := Interpolate(tt, MinJerk) + Interpolate(1-tt, MinJerk)
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("minjerk(%.1f) + minjerk(%.1f) = %v, want 1", tt, 1-tt, sum)
		}
	}
}

func TestEaseInOutMidpoint(t *testing.T) {
	if got := Interpolate(0.5, EaseInOut); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("ease_in_out(0.5) = %v, want 0.5", got)
	}
}
