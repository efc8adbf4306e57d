package scan

import (
	"math"
	"sort"
)

// Position is one stop of a sweep.
type Position struct {
	Pan  float64
	Tilt float64
}

// sweepPositions builds the scan stops for a range: starting at the
// range minimum, step by FOV minus overlap, and force-include the range
// maximum if the steps did not land on it. Tilt is fixed at the center;
// a sweep is horizontal only.
func sweepPositions(r Range, fov, overlap, tilt float64) []Position {
	step := fov - overlap

	var positions []Position
	for pan := r.Min; pan <= r.Max; pan += step {
		positions = append(positions, Position{Pan: pan, Tilt: tilt})
	}
	if len(positions) > 0 && positions[len(positions)-1].Pan < r.Max {
		positions = append(positions, Position{Pan: r.Max, Tilt: tilt})
	}
	return positions
}

// orderCenterOut sorts positions by distance from the range midpoint so
// the most likely detection area is visited first. The sort is stable:
// equidistant positions keep their left-to-right order.
func orderCenterOut(positions []Position, r Range) []Position {
	center := (r.Min + r.Max) / 2
	ordered := make([]Position, len(positions))
	copy(ordered, positions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return math.Abs(ordered[i].Pan-center) < math.Abs(ordered[j].Pan-center)
	})
	return ordered
}
