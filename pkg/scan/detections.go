package scan

import (
	"sort"
	"time"

	"github.com/roomwatch/go-roomwatch/pkg/detect"
)

// Face-framing thresholds, as fractions of frame height.
const (
	faceTopThreshold     = 0.05 // person top this close to the frame top may have a cut-off face
	facePartialThreshold = 0.03 // a face this close to the top counts as partial
	faceExpectedPosition = 0.15 // faces sit about this far down a person box
)

// Detection is one scanned person: where they are in the frame and in
// the room.
type Detection struct {
	Label      string
	Confidence float64
	Box        detect.Box
	PanAngle   float64 // pan the camera was at when detected
	WorldAngle float64 // absolute room angle of the person
	Timestamp  time.Time
	Faces      []detect.Face
}

// HasFace reports whether any face was associated with this person.
func (d Detection) HasFace() bool {
	return len(d.Faces) > 0
}

// personDetections snapshots the source and returns the people that pass
// all filters: person label, confidence threshold, and the persistence
// gate. Single-frame detections are noise; this gate is why the sweep
// pauses at each position instead of panning continuously.
func (s *Scanner) personDetections(panAngle float64) []Detection {
	faces := s.source.FaceDetections()

	var detections []Detection
	for _, tracked := range s.source.TrackedObjects() {
		det := tracked.LastDetection
		if det.Label != "person" {
			continue
		}
		if det.Confidence < s.cfg.ConfidenceThreshold {
			continue
		}
		if tracked.SeenCount < s.cfg.PersistenceFrames {
			continue
		}

		boxCenterX, _ := det.Box.Center()
		offsetPixels := boxCenterX - s.cfg.FrameWidth/2
		worldAngle := panAngle + offsetPixels*(s.cfg.FOVDegrees/s.cfg.FrameWidth)

		detections = append(detections, Detection{
			Label:      "person",
			Confidence: det.Confidence,
			Box:        det.Box,
			PanAngle:   panAngle,
			WorldAngle: worldAngle,
			Timestamp:  time.Now(),
			Faces:      associateFaces(det.Box, faces),
		})
	}
	return detections
}

// associateFaces returns the faces whose center falls inside the person
// box.
func associateFaces(personBox detect.Box, faces []detect.Face) []detect.Face {
	var associated []detect.Face
	for _, face := range faces {
		cx, cy := face.Box.Center()
		if personBox.Contains(cx, cy) {
			associated = append(associated, face)
		}
	}
	return associated
}

// prioritize sorts detections face-confirmed first, then by confidence,
// stable otherwise.
func prioritize(detections []Detection) []Detection {
	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		fi, fj := sorted[i].HasFace(), sorted[j].HasFace()
		if fi != fj {
			return fi
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted
}

// faceTiltAdjustment computes the tilt change, in degrees, needed to
// bring a possibly cut-off face into frame. Returns (0, false) when the
// person's face is fine where it is.
//
// When a person's box top touches the frame top and no face is visible,
// the face is probably above the frame: tilt so the expected face
// position (a little way down the person box) lands at frame center.
// A face that is visible but pressed against the top gets half the
// correction.
func (s *Scanner) faceTiltAdjustment(person Detection) (float64, bool) {
	frameH := s.cfg.FrameHeight
	degPerPx := s.cfg.VerticalFOV / frameH

	expectedFaceY := person.Box.Y + person.Box.H*faceExpectedPosition
	offsetDegrees := (expectedFaceY - frameH/2) * degPerPx

	if person.Box.Y >= frameH*faceTopThreshold {
		return 0, false
	}

	if len(person.Faces) == 0 {
		return offsetDegrees, true
	}
	if person.Faces[0].Box.Y < frameH*facePartialThreshold {
		return offsetDegrees * 0.5, true
	}
	return 0, false
}
