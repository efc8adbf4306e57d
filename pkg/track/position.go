package track

import "sort"

// Target is a person's viewing angle: pan world angle plus preferred tilt.
type Target struct {
	Angle float64
	Tilt  float64
}

// PositionCalculator picks the (pan, tilt) that best frames a set of
// people. Deterministic for identical input.
type PositionCalculator struct {
	fovHorizontal float64
	panMin        float64
	panMax        float64
}

// NewPositionCalculator creates a calculator for the given horizontal FOV.
func NewPositionCalculator(fovHorizontal float64) *PositionCalculator {
	return &PositionCalculator{
		fovHorizontal: fovHorizontal,
		panMin:        0,
		panMax:        180,
	}
}

// CalculateOptimalPosition returns the pan covering the most targets
// within one FOV, and the mean tilt of the covered targets. With no
// targets it returns the frame center (90, 90).
//
// The widest group of angles that fits inside the FOV wins; its pan is
// the midpoint of the group's extremes, so edge people get equal margin.
// On ties the leftmost group wins, keeping the result deterministic.
func (c *PositionCalculator) CalculateOptimalPosition(targets []Target) (pan, tilt float64) {
	if len(targets) == 0 {
		return 90.0, 90.0
	}

	sorted := make([]Target, len(targets))
	copy(sorted, targets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Angle < sorted[j].Angle })

	bestStart, bestEnd, bestCount := 0, 0, 0
	for start := range sorted {
		end := start
		for end+1 < len(sorted) && sorted[end+1].Angle-sorted[start].Angle <= c.fovHorizontal {
			end++
		}
		if count := end - start + 1; count > bestCount {
			bestStart, bestEnd, bestCount = start, end, count
		}
	}

	pan = (sorted[bestStart].Angle + sorted[bestEnd].Angle) / 2

	var tiltSum float64
	for _, t := range sorted[bestStart : bestEnd+1] {
		tiltSum += t.Tilt
	}
	tilt = tiltSum / float64(bestCount)

	if pan < c.panMin {
		pan = c.panMin
	}
	if pan > c.panMax {
		pan = c.panMax
	}
	return pan, tilt
}
