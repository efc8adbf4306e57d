// Package scan provides the tiered room scanner: a center-out sweep over
// pan positions with detection filtering, face-priority ranking, optimal
// viewing-angle handoff into watching, and event-driven watch updates.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/actuator"
	"github.com/roomwatch/go-roomwatch/pkg/detect"
	"github.com/roomwatch/go-roomwatch/pkg/track"
	"github.com/roomwatch/go-roomwatch/pkg/watch"
)

// trackClearer is implemented by sources that can drop their tracked
// objects, forcing the persistence gate to rebuild from fresh frames.
type trackClearer interface {
	ClearTracked()
}

// Scanner orchestrates tiered room scanning and drives the watch phase.
//
// Scanning is sequential and blocking by design: every position needs a
// real settling delay before the detector's output means anything, so
// the sweep never evaluates two positions concurrently. The settle wait
// is context-aware; cancelling the context aborts the sweep at the next
// position boundary.
type Scanner struct {
	source  detect.Source
	act     actuator.Actuator
	watcher *watch.Controller
	events  *track.EventTracker
	calc    *track.PositionCalculator
	cfg     Config

	mu                sync.Mutex
	currentPan        float64
	watchFromExtreme  bool
	extremeWatchStart time.Time
	sessionID         string
}

// New creates a scanner. The watcher, event tracker and position
// calculator are collaborators owned by the caller; the scanner drives
// them but does not create them.
func New(source detect.Source, act actuator.Actuator, watcher *watch.Controller,
	events *track.EventTracker, calc *track.PositionCalculator, cfg Config) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{
		source:     source,
		act:        act,
		watcher:    watcher,
		events:     events,
		calc:       calc,
		cfg:        cfg,
		currentPan: cfg.CenterPan,
	}, nil
}

// Watcher returns the watch controller this scanner drives.
func (s *Scanner) Watcher() *watch.Controller {
	return s.watcher
}

// IsWatching reports whether the scanner is in the watch phase.
func (s *Scanner) IsWatching() bool {
	return s.watcher.IsWatching()
}

// WatchingFromExtreme reports whether the current watch started from a
// fallback extreme range, and when. The owning loop uses this to force
// a fresh scan cycle after the extreme timeout.
func (s *Scanner) WatchingFromExtreme() (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchFromExtreme, s.extremeWatchStart
}

// SessionID returns the identifier of the current watch session, or ""
// when not watching. Fresh per watch, for log and dashboard correlation.
func (s *Scanner) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// RunScanCycle executes one complete tiered scan:
//
//	tier 1: primary range, center-out
//	tier 2: fallback extremes (left, then right), if enabled
//	tier 3: nothing found, return to center
//
// On finding people it moves to the optimal viewing position, enters the
// watch phase, and returns the prioritized detections. An empty result
// with a nil error means a clean scan that found nobody.
func (s *Scanner) RunScanCycle(ctx context.Context) ([]Detection, error) {
	log.Info("starting tiered scan cycle")
	s.watcher.StopWatching()
	s.mu.Lock()
	s.watchFromExtreme = false
	s.extremeWatchStart = time.Time{}
	s.sessionID = ""
	s.mu.Unlock()

	detections, err := s.scanRange(ctx, s.cfg.Primary)
	if err != nil {
		return nil, err
	}
	if len(detections) > 0 {
		return s.handlePeopleFound(detections, false)
	}

	if s.cfg.FallbackEnabled {
		for _, r := range []Range{s.cfg.FallbackLeft, s.cfg.FallbackRight} {
			detections, err = s.scanRange(ctx, r)
			if err != nil {
				return nil, err
			}
			if len(detections) > 0 {
				return s.handlePeopleFound(detections, true)
			}
		}
	}

	if err := s.handleNoPeople(); err != nil {
		return nil, err
	}
	return nil, nil
}

// scanRange sweeps one tier center-out, stopping at the first position
// that yields people.
func (s *Scanner) scanRange(ctx context.Context, r Range) ([]Detection, error) {
	positions := orderCenterOut(sweepPositions(r, s.cfg.FOVDegrees, s.cfg.OverlapDegrees, s.cfg.CenterTilt), r)

	for _, pos := range positions {
		log.Debug("scanning position", "pan", pos.Pan, "tilt", pos.Tilt)

		if err := s.moveTo(pos.Pan, pos.Tilt); err != nil {
			return nil, err
		}
		if clearer, ok := s.source.(trackClearer); ok {
			clearer.ClearTracked()
		}
		if err := s.settle(ctx); err != nil {
			return nil, err
		}

		detections := s.personDetections(pos.Pan)
		if len(detections) == 0 {
			continue
		}

		detections, err := s.applyFaceTiltNudge(ctx, detections, pos.Pan, pos.Tilt)
		if err != nil {
			return nil, err
		}
		detections = prioritize(detections)
		log.Info("people found", "count", len(detections), "pan", pos.Pan)
		return detections, nil
	}
	return nil, nil
}

// applyFaceTiltNudge tilts up when a detected person's face may be cut
// off at the top of the frame, then re-queries at the new tilt. Among
// multiple people needing adjustment the largest upward (most negative)
// correction wins.
func (s *Scanner) applyFaceTiltNudge(ctx context.Context, detections []Detection, pan, tilt float64) ([]Detection, error) {
	var best float64
	var found bool
	for _, det := range detections {
		if adj, ok := s.faceTiltAdjustment(det); ok {
			if !found || adj < best {
				best = adj
				found = true
			}
		}
	}
	if !found {
		return detections, nil
	}

	newTilt := clamp(tilt+best, 0, 180)
	log.Info("face tilt nudge", "from", tilt, "to", newTilt, "adjustment", best)

	if err := s.act.SetAngle(actuator.Tilt, newTilt); err != nil {
		return nil, err
	}
	if err := s.settle(ctx); err != nil {
		return nil, err
	}
	return s.personDetections(pan), nil
}

// handlePeopleFound moves to the optimal viewing position and enters the
// watch phase. Watches started from a fallback extreme are flagged and
// timestamped so the owning loop can enforce the extreme timeout.
func (s *Scanner) handlePeopleFound(detections []Detection, extreme bool) ([]Detection, error) {
	targets := make([]track.Target, len(detections))
	for i, det := range detections {
		targets[i] = track.Target{Angle: det.WorldAngle, Tilt: s.cfg.CenterTilt}
	}
	pan, tilt := s.calc.CalculateOptimalPosition(targets)

	log.Info("moving to optimal position",
		"pan", pan, "tilt", tilt, "people", len(detections), "extreme", extreme)

	if err := s.moveTo(pan, tilt); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.watchFromExtreme = extreme
	if extreme {
		s.extremeWatchStart = time.Now()
	}
	s.sessionID = uuid.New().String()
	s.mu.Unlock()

	s.watcher.StartWatching(pan, tilt)
	return detections, nil
}

// handleNoPeople returns the camera to center. The designed fallback,
// not an error state.
func (s *Scanner) handleNoPeople() error {
	log.Info("no people found, returning to center")
	return s.moveTo(s.cfg.CenterPan, s.cfg.CenterTilt)
}

// UpdateWatch feeds the currently tracked people to the watch
// controller for a centering pass. No-op when not watching.
func (s *Scanner) UpdateWatch() error {
	if !s.watcher.IsWatching() {
		return nil
	}

	var detections []detect.Detection
	for _, tracked := range s.source.TrackedObjects() {
		if tracked.LastDetection.Label == "person" {
			detections = append(detections, tracked.LastDetection)
		}
	}
	return s.watcher.Update(detections)
}

// RunEventDrivenWatch runs one iteration of event-driven watching:
// current tracks go through the event tracker, exit events are appended,
// and every event is dispatched. Returns the handled events. No-op when
// not watching.
func (s *Scanner) RunEventDrivenWatch() ([]track.Event, error) {
	if !s.watcher.IsWatching() {
		return nil, nil
	}

	pan, _ := s.watcher.Position()
	s.mu.Lock()
	s.currentPan = pan
	s.mu.Unlock()

	faces := s.source.FaceDetections()
	var detections []track.DetectionEvent
	for _, tracked := range s.source.TrackedObjects() {
		det := tracked.LastDetection
		if det.Label != "person" {
			continue
		}
		detections = append(detections, track.DetectionEvent{
			TrackID:    tracked.ID,
			Box:        det.Box,
			Confidence: det.Confidence,
			HasFace:    len(associateFaces(det.Box, faces)) > 0,
		})
	}

	events := s.events.Update(detections)
	for _, exit := range s.events.DetectExitEvents(pan) {
		events = append(events, exit)
	}

	for _, event := range events {
		if err := s.handleTrackingEvent(event); err != nil {
			return events, err
		}
	}
	return events, nil
}

// handleTrackingEvent dispatches one tracking event.
func (s *Scanner) handleTrackingEvent(event track.Event) error {
	switch e := event.(type) {
	case track.EdgeEvent:
		return s.handleEdgeEvent(e)
	case track.ExitEvent:
		return s.handleExitEvent(e)
	case track.NewPersonEvent:
		log.Info("new person detected", "track_id", e.TrackID, "entry_edge", e.EntryEdge)
	}
	return nil
}

// handleEdgeEvent preemptively pans to keep the person in frame, using
// the track's live velocity when the track still exists.
func (s *Scanner) handleEdgeEvent(event track.EdgeEvent) error {
	velocity := event.VelocityTowardEdge
	if person, ok := s.events.Person(event.TrackID); ok {
		velocity = person.VelocityX
	}

	_, err := s.watcher.PanToKeepInFrame(event.Edge, velocity)
	if err == nil {
		log.Debug("handled edge event", "track_id", event.TrackID, "edge", event.Edge.String())
	}
	return err
}

// handleExitEvent pans toward the exit direction if the event tracker
// suggests a re-acquisition move, keeping the scanner's and watcher's
// pan in sync.
func (s *Scanner) handleExitEvent(event track.ExitEvent) error {
	reacq := s.events.AttemptReacquisition(event)
	if reacq == nil {
		return nil
	}

	s.mu.Lock()
	newPan := s.currentPan + reacq.PanDegrees
	if reacq.PanDirection == "left" {
		newPan = s.currentPan - reacq.PanDegrees
	}
	newPan = clamp(newPan, 0, 180)
	s.mu.Unlock()

	if err := s.act.SetAngle(actuator.Pan, newPan); err != nil {
		return err
	}

	s.mu.Lock()
	s.currentPan = newPan
	s.mu.Unlock()
	s.watcher.SetPan(newPan)

	log.Info("re-acquisition attempt", "direction", reacq.PanDirection, "pan", newPan)
	return nil
}

// moveTo commands both axes and records the pan.
func (s *Scanner) moveTo(pan, tilt float64) error {
	if err := s.act.SetAngle(actuator.Pan, pan); err != nil {
		return err
	}
	if err := s.act.SetAngle(actuator.Tilt, tilt); err != nil {
		return err
	}
	s.mu.Lock()
	s.currentPan = pan
	s.mu.Unlock()
	return nil
}

// settle blocks for the configured settling time. Servo travel and
// detector warm-up both need it; detections at an unsettled position
// are meaningless.
func (s *Scanner) settle(ctx context.Context) error {
	if s.cfg.SettlingTime <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.SettlingTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
