// Package track provides event-driven person tracking for the watch
// phase: edge-approach detection, exit detection with re-acquisition
// suggestions, and the optimal-position calculation used when entering a
// watch. It maintains per-track position and velocity estimates.
package track

// EdgePosition classifies where in the frame a person sits relative to
// the horizontal edges.
type EdgePosition int

const (
	EdgeCenter EdgePosition = iota
	EdgeLeftWarning
	EdgeLeftCritical
	EdgeRightWarning
	EdgeRightCritical
)

// IsCritical reports whether the person is about to leave the frame.
func (e EdgePosition) IsCritical() bool {
	return e == EdgeLeftCritical || e == EdgeRightCritical
}

// Direction returns "left" or "right", or "" for center.
func (e EdgePosition) Direction() string {
	switch e {
	case EdgeLeftWarning, EdgeLeftCritical:
		return "left"
	case EdgeRightWarning, EdgeRightCritical:
		return "right"
	}
	return ""
}

// String returns the edge name for logging.
func (e EdgePosition) String() string {
	switch e {
	case EdgeLeftWarning:
		return "left_warning"
	case EdgeLeftCritical:
		return "left_critical"
	case EdgeRightWarning:
		return "right_warning"
	case EdgeRightCritical:
		return "right_critical"
	}
	return "center"
}

// Event is a tracking event generated during the watch phase.
type Event interface {
	// Track returns the track ID the event refers to.
	Track() int
}

// EdgeEvent fires when a tracked person approaches a frame edge.
type EdgeEvent struct {
	TrackID            int
	Edge               EdgePosition
	VelocityTowardEdge float64 // pixels per update, positive toward the edge
}

// Track returns the track ID.
func (e EdgeEvent) Track() int { return e.TrackID }

// ExitEvent fires when a tracked person has left the frame.
type ExitEvent struct {
	TrackID   int
	Edge      EdgePosition // last known edge before the exit
	ExitPan   float64      // pan angle at the time of the exit
	VelocityX float64      // last estimated horizontal velocity
}

// Track returns the track ID.
func (e ExitEvent) Track() int { return e.TrackID }

// NewPersonEvent fires when a previously unseen person appears.
// Informational only; it never triggers motion.
type NewPersonEvent struct {
	TrackID   int
	EntryEdge string // "left", "right" or "center"
}

// Track returns the track ID.
func (e NewPersonEvent) Track() int { return e.TrackID }
