package detect

// trackSet maintains tracked objects across frames by greedy IoU matching.
// Matched tracks gain SeenCount; unmatched tracks accumulate FramesMissing
// and are dropped once they exceed the limit.
type trackSet struct {
	matchIoU   float64
	maxMissing int

	tracks []TrackedObject
	nextID int
}

func newTrackSet(matchIoU float64, maxMissing int) *trackSet {
	return &trackSet{
		matchIoU:   matchIoU,
		maxMissing: maxMissing,
		nextID:     1,
	}
}

// observe folds one frame's detections into the track set.
func (ts *trackSet) observe(detections []Detection) {
	matched := make([]bool, len(detections))
	var kept []TrackedObject

	for _, track := range ts.tracks {
		bestIdx := -1
		bestIoU := ts.matchIoU
		for i, det := range detections {
			if matched[i] || det.Label != track.LastDetection.Label {
				continue
			}
			if iou := track.LastDetection.Box.IoU(det.Box); iou >= bestIoU {
				bestIoU = iou
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			matched[bestIdx] = true
			track.LastDetection = detections[bestIdx]
			track.SeenCount++
			track.FramesMissing = 0
			kept = append(kept, track)
			continue
		}

		track.FramesMissing++
		if track.FramesMissing <= ts.maxMissing {
			kept = append(kept, track)
		}
	}

	for i, det := range detections {
		if matched[i] {
			continue
		}
		kept = append(kept, TrackedObject{
			ID:            ts.nextID,
			LastDetection: det,
			SeenCount:     1,
		})
		ts.nextID++
	}

	ts.tracks = kept
}

// snapshot returns a copy of the current tracks.
func (ts *trackSet) snapshot() []TrackedObject {
	out := make([]TrackedObject, len(ts.tracks))
	copy(out, ts.tracks)
	return out
}

// clear drops all tracks. Track IDs keep incrementing so stale IDs never
// collide with fresh ones.
func (ts *trackSet) clear() {
	ts.tracks = nil
}
