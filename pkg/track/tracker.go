package track

import (
	"math"

	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/detect"
)

// DetectionEvent is the lightweight per-update detection record fed to
// the tracker during the watch phase.
type DetectionEvent struct {
	TrackID    int
	Box        detect.Box
	Confidence float64
	HasFace    bool
}

// Person is the tracker's state for one tracked person.
type Person struct {
	TrackID       int
	Box           detect.Box
	VelocityX     float64 // pixels per update, EMA-smoothed
	HasFace       bool
	Edge          EdgePosition
	MissedUpdates int
}

// Reacquisition is a suggested pan move to re-find a person who exited.
type Reacquisition struct {
	PanDirection string  // "left" or "right"
	PanDegrees   float64 // magnitude of the suggested pan
}

// TrackerConfig holds the tracker's tunables.
type TrackerConfig struct {
	FrameWidth       float64
	WarningFraction  float64 // edge zone as fraction of frame width
	CriticalFraction float64 // critical zone as fraction of frame width
	VelocitySmooth   float64 // EMA weight of the newest velocity sample
	ExitAfterMissed  int     // updates missing before a track is an exit
	ReacqBaseDegrees float64 // base re-acquisition pan
	ReacqMaxDegrees  float64 // cap on the re-acquisition pan
}

// DefaultTrackerConfig returns production defaults for a 1280px frame.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		FrameWidth:       1280,
		WarningFraction:  0.15,
		CriticalFraction: 0.05,
		VelocitySmooth:   0.5,
		ExitAfterMissed:  5,
		ReacqBaseDegrees: 10.0,
		ReacqMaxDegrees:  25.0,
	}
}

// EventTracker maintains per-track state across watch updates and
// generates edge, exit and new-person events.
type EventTracker struct {
	cfg    TrackerConfig
	people map[int]*Person
}

// NewEventTracker creates a tracker with the given configuration.
func NewEventTracker(cfg TrackerConfig) *EventTracker {
	if cfg.FrameWidth <= 0 {
		cfg = DefaultTrackerConfig()
	}
	return &EventTracker{
		cfg:    cfg,
		people: make(map[int]*Person),
	}
}

// Person returns the tracked person for a track ID, if still tracked.
func (t *EventTracker) Person(trackID int) (*Person, bool) {
	p, ok := t.people[trackID]
	return p, ok
}

// Update folds one round of detections into the tracker and returns the
// events generated by it: NewPersonEvent for unseen track IDs, EdgeEvent
// whenever a person's edge classification changes away from center.
func (t *EventTracker) Update(detections []DetectionEvent) []Event {
	var events []Event
	seen := make(map[int]bool, len(detections))

	for _, det := range detections {
		seen[det.TrackID] = true
		cx, _ := det.Box.Center()
		edge := t.classifyEdge(cx)

		person, exists := t.people[det.TrackID]
		if !exists {
			t.people[det.TrackID] = &Person{
				TrackID: det.TrackID,
				Box:     det.Box,
				HasFace: det.HasFace,
				Edge:    edge,
			}
			events = append(events, NewPersonEvent{
				TrackID:   det.TrackID,
				EntryEdge: entrySide(cx, t.cfg.FrameWidth),
			})
			continue
		}

		prevCx, _ := person.Box.Center()
		dx := cx - prevCx
		person.VelocityX = t.cfg.VelocitySmooth*dx + (1-t.cfg.VelocitySmooth)*person.VelocityX
		person.Box = det.Box
		person.HasFace = det.HasFace
		person.MissedUpdates = 0

		if edge != EdgeCenter && edge != person.Edge {
			events = append(events, EdgeEvent{
				TrackID:            det.TrackID,
				Edge:               edge,
				VelocityTowardEdge: velocityTowardEdge(person.VelocityX, edge),
			})
		}
		person.Edge = edge
	}

	for id, person := range t.people {
		if !seen[id] {
			person.MissedUpdates++
		}
	}

	return events
}

// DetectExitEvents returns exit events for tracks missing long enough to
// be considered gone, and removes them from the tracker.
func (t *EventTracker) DetectExitEvents(currentPan float64) []ExitEvent {
	var exits []ExitEvent
	for id, person := range t.people {
		if person.MissedUpdates < t.cfg.ExitAfterMissed {
			continue
		}
		exits = append(exits, ExitEvent{
			TrackID:   id,
			Edge:      person.Edge,
			ExitPan:   currentPan,
			VelocityX: person.VelocityX,
		})
		delete(t.people, id)
		log.Debug("track exited", "track_id", id, "edge", person.Edge.String())
	}
	return exits
}

// AttemptReacquisition suggests a pan move to re-find an exited person.
// Returns nil when the person vanished from the frame center: without an
// exit direction there is nothing useful to chase.
func (t *EventTracker) AttemptReacquisition(exit ExitEvent) *Reacquisition {
	direction := exit.Edge.Direction()
	if direction == "" {
		// Fall back to the velocity sign if it is decisive.
		switch {
		case exit.VelocityX < -1.0:
			direction = "left"
		case exit.VelocityX > 1.0:
			direction = "right"
		default:
			return nil
		}
	}

	degrees := t.cfg.ReacqBaseDegrees + math.Abs(exit.VelocityX)
	if degrees > t.cfg.ReacqMaxDegrees {
		degrees = t.cfg.ReacqMaxDegrees
	}
	return &Reacquisition{PanDirection: direction, PanDegrees: degrees}
}

// classifyEdge maps a horizontal pixel position to an edge zone.
func (t *EventTracker) classifyEdge(cx float64) EdgePosition {
	w := t.cfg.FrameWidth
	switch {
	case cx < w*t.cfg.CriticalFraction:
		return EdgeLeftCritical
	case cx < w*t.cfg.WarningFraction:
		return EdgeLeftWarning
	case cx > w*(1-t.cfg.CriticalFraction):
		return EdgeRightCritical
	case cx > w*(1-t.cfg.WarningFraction):
		return EdgeRightWarning
	}
	return EdgeCenter
}

func entrySide(cx, frameWidth float64) string {
	switch {
	case cx < frameWidth/3:
		return "left"
	case cx > frameWidth*2/3:
		return "right"
	}
	return "center"
}

// velocityTowardEdge returns how fast the person is moving toward the
// given edge; negative values mean moving away.
func velocityTowardEdge(velocityX float64, edge EdgePosition) float64 {
	if edge.Direction() == "left" {
		return -velocityX
	}
	return velocityX
}
