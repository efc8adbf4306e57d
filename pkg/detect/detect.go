// Package detect provides the detection pipeline: person and face
// detection over camera frames, with persistence bookkeeping. The scanner
// and watch phases consume it through the Source interface and never
// touch gocv directly.
package detect

// Box is a bounding box in pixels: top-left corner plus size.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// Center returns the box center point in pixels.
func (b Box) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Contains reports whether the point falls inside the box.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.W && y >= b.Y && y <= b.Y+b.H
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	return b.W * b.H
}

// IoU returns the intersection-over-union of two boxes.
func (b Box) IoU(other Box) float64 {
	x1 := max(b.X, other.X)
	y1 := max(b.Y, other.Y)
	x2 := min(b.X+b.W, other.X+other.W)
	y2 := min(b.Y+b.H, other.Y+other.H)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	inter := (x2 - x1) * (y2 - y1)
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection is a single-frame detection.
type Detection struct {
	Label      string
	Confidence float64
	Box        Box
}

// Face is a detected face in the current frame.
type Face struct {
	Box        Box
	Confidence float64
}

// TrackedObject is a detection tracked across frames. SeenCount and
// FramesMissing are the persistence bookkeeping the scanner's filters
// rely on: a single-frame detection is unreliable.
type TrackedObject struct {
	ID            int
	LastDetection Detection
	SeenCount     int
	FramesMissing int
}

// Source exposes the pipeline's current view of the scene. Callers treat
// the returned slices as read-only snapshots.
type Source interface {
	// TrackedObjects returns the currently tracked objects.
	TrackedObjects() []TrackedObject

	// FaceDetections returns the face detections for the current frame.
	FaceDetections() []Face
}
