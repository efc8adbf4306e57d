package scan

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/roomwatch/go-roomwatch/pkg/actuator"
	"github.com/roomwatch/go-roomwatch/pkg/detect"
	"github.com/roomwatch/go-roomwatch/pkg/track"
)

// centeredPerson is a stable, confident detection in the middle of the
// frame: world angle equals the camera pan.
func centeredPerson(id int) detect.TrackedObject {
	return personTrack(id, 3, 0.9, detect.Box{X: 540, Y: 160, W: 200, H: 400})
}

func TestRunScanCycleFindsPeopleInPrimary(t *testing.T) {
	source := detect.NewMock()
	source.SetTracked([]detect.TrackedObject{centeredPerson(1)})
	s, _ := newTestScanner(t, source)

	detections, err := s.RunScanCycle(context.Background())
	if err != nil {
		t.Fatalf("RunScanCycle: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("got %d detections, want 1", len(detections))
	}
	if !s.IsWatching() {
		t.Error("scanner should be watching after finding people")
	}
	if extreme, _ := s.WatchingFromExtreme(); extreme {
		t.Error("primary-range watch flagged as extreme")
	}
	if s.SessionID() == "" {
		t.Error("watch session has no ID")
	}

	// The sweep visits 96.3 first (closest to center) and the person is
	// centered there, so the optimal position is 96.3 at center tilt.
	pan, tilt := s.Watcher().Position()
	if math.Abs(pan-96.3) > 1e-9 || tilt != 90 {
		t.Errorf("watching at (%v, %v), want (96.3, 90)", pan, tilt)
	}
}

func TestRunScanCycleFallsBackToExtremes(t *testing.T) {
	act := actuator.NewMock()
	source := detect.NewMock()
	// Person only visible on the far left, below the primary range.
	source.TrackedFunc = func() []detect.TrackedObject {
		pan, _ := act.GetAngle(actuator.Pan)
		if pan < 20 {
			return []detect.TrackedObject{centeredPerson(1)}
		}
		return nil
	}

	s, _ := newTestScannerWith(t, source, act)

	before := time.Now()
	detections, err := s.RunScanCycle(context.Background())
	if err != nil {
		t.Fatalf("RunScanCycle: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("got %d detections, want 1", len(detections))
	}

	extreme, start := s.WatchingFromExtreme()
	if !extreme {
		t.Fatal("left-fallback watch not flagged as extreme")
	}
	if start.Before(before) {
		t.Error("extreme watch start not timestamped")
	}
	if !s.IsWatching() {
		t.Error("scanner should be watching")
	}

	// Found at pan 0 with the person centered: world angle 0.
	pan, _ := s.Watcher().Position()
	if pan != 0 {
		t.Errorf("watching at pan %v, want 0", pan)
	}
}

func TestRunScanCycleNoPeopleReturnsToCenter(t *testing.T) {
	source := detect.NewMock()
	s, act := newTestScanner(t, source)

	detections, err := s.RunScanCycle(context.Background())
	if err != nil {
		t.Fatalf("RunScanCycle: %v", err)
	}
	if detections != nil {
		t.Errorf("got %d detections, want none", len(detections))
	}
	if s.IsWatching() {
		t.Error("empty scan must not enter the watch phase")
	}

	pan, _ := act.GetAngle(actuator.Pan)
	tilt, _ := act.GetAngle(actuator.Tilt)
	if pan != 90 || tilt != 90 {
		t.Errorf("resting at (%v, %v), want (90, 90)", pan, tilt)
	}
}

func TestRunScanCycleCancelled(t *testing.T) {
	source := detect.NewMock()
	s, _ := newTestScanner(t, source)
	s.cfg.SettlingTime = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.RunScanCycle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunScanCycleActuatorError(t *testing.T) {
	source := detect.NewMock()
	s, act := newTestScanner(t, source)

	wantErr := errors.New("servo offline")
	act.SetAngleErr = wantErr

	if _, err := s.RunScanCycle(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if s.IsWatching() {
		t.Error("failed scan must not enter the watch phase")
	}
}

func TestRunScanCycleFaceTiltNudge(t *testing.T) {
	source := detect.NewMock()
	// Person whose box touches the frame top with no visible face.
	source.SetTracked([]detect.TrackedObject{
		personTrack(1, 3, 0.9, detect.Box{X: 540, Y: 0, W: 200, H: 400}),
	})
	s, act := newTestScanner(t, source)

	if _, err := s.RunScanCycle(context.Background()); err != nil {
		t.Fatalf("RunScanCycle: %v", err)
	}

	// Expected face at y=60 of a 720px frame: tilt up by 20.83 degrees
	// from the center tilt of 90.
	wantTilt := 90 + (60.0-360.0)*(50.0/720.0)
	var nudged bool
	for _, cmd := range act.Commands() {
		if cmd.Axis == actuator.Tilt && math.Abs(cmd.Degrees-wantTilt) < 1e-9 {
			nudged = true
		}
	}
	if !nudged {
		t.Errorf("no tilt nudge to %v among %v", wantTilt, act.Commands())
	}
}

func TestUpdateWatchIdle(t *testing.T) {
	source := detect.NewMock()
	source.SetTracked([]detect.TrackedObject{centeredPerson(1)})
	s, act := newTestScanner(t, source)

	if err := s.UpdateWatch(); err != nil {
		t.Fatalf("UpdateWatch: %v", err)
	}
	if act.CommandCount() != 0 {
		t.Errorf("idle UpdateWatch moved the camera: %v", act.Commands())
	}
}

func TestUpdateWatchCentersOnPeople(t *testing.T) {
	source := detect.NewMock()
	// Person 320px right of frame center.
	source.SetTracked([]detect.TrackedObject{
		personTrack(1, 3, 0.9, detect.Box{X: 860, Y: 160, W: 200, H: 400}),
	})
	s, _ := newTestScanner(t, source)
	s.Watcher().StartWatching(90, 90)

	if err := s.UpdateWatch(); err != nil {
		t.Fatalf("UpdateWatch: %v", err)
	}

	// 320px * (66.3/1280) * 0.3 damping = 4.9725 degrees, panned away
	// from the offset.
	pan, _ := s.Watcher().Position()
	want := 90 - 320*(66.3/1280)*0.3
	if math.Abs(pan-want) > 1e-9 {
		t.Errorf("pan = %v, want %v", pan, want)
	}
}

func TestRunEventDrivenWatchIdle(t *testing.T) {
	source := detect.NewMock()
	source.SetTracked([]detect.TrackedObject{centeredPerson(1)})
	s, _ := newTestScanner(t, source)

	events, err := s.RunEventDrivenWatch()
	if err != nil {
		t.Fatalf("RunEventDrivenWatch: %v", err)
	}
	if events != nil {
		t.Errorf("idle watch produced events: %v", events)
	}
}

func TestRunEventDrivenWatchNewPerson(t *testing.T) {
	source := detect.NewMock()
	source.SetTracked([]detect.TrackedObject{centeredPerson(7)})
	s, _ := newTestScanner(t, source)
	s.Watcher().StartWatching(90, 90)

	events, err := s.RunEventDrivenWatch()
	if err != nil {
		t.Fatalf("RunEventDrivenWatch: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev, ok := events[0].(track.NewPersonEvent)
	if !ok {
		t.Fatalf("event = %T, want NewPersonEvent", events[0])
	}
	if ev.TrackID != 7 {
		t.Errorf("track ID = %d, want 7", ev.TrackID)
	}
}

func TestRunEventDrivenWatchEdgePan(t *testing.T) {
	source := detect.NewMock()
	source.SetTracked([]detect.TrackedObject{centeredPerson(1)})
	s, _ := newTestScanner(t, source)
	s.Watcher().StartWatching(90, 90)

	if _, err := s.RunEventDrivenWatch(); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Person jumps into the left warning zone, moving fast.
	source.SetTracked([]detect.TrackedObject{
		personTrack(1, 4, 0.9, detect.Box{X: 50, Y: 160, W: 100, H: 400}),
	})
	events, err := s.RunEventDrivenWatch()
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 edge event", len(events))
	}
	if _, ok := events[0].(track.EdgeEvent); !ok {
		t.Fatalf("event = %T, want EdgeEvent", events[0])
	}

	// Warning base 4 degrees at the velocity cap (2x factor): 4 * 1.5
	// = 6 degrees toward the left edge.
	pan, _ := s.Watcher().Position()
	if math.Abs(pan-84) > 1e-9 {
		t.Errorf("pan = %v, want 84", pan)
	}
}

func TestRunEventDrivenWatchExitReacquisition(t *testing.T) {
	source := detect.NewMock()
	// Person at the left critical edge from the start.
	source.SetTracked([]detect.TrackedObject{
		personTrack(1, 3, 0.9, detect.Box{X: 0, Y: 160, W: 100, H: 400}),
	})
	s, _ := newTestScanner(t, source)
	s.Watcher().StartWatching(90, 90)

	if _, err := s.RunEventDrivenWatch(); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Person vanishes; after enough missed updates the exit fires and
	// the scanner pans left to re-acquire.
	source.SetTracked(nil)
	var exit *track.ExitEvent
	for i := 0; i < 5; i++ {
		events, err := s.RunEventDrivenWatch()
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		for _, ev := range events {
			if e, ok := ev.(track.ExitEvent); ok {
				exit = &e
			}
		}
	}
	if exit == nil {
		t.Fatal("no exit event after 5 missed updates")
	}
	if exit.Edge != track.EdgeLeftCritical {
		t.Errorf("exit edge = %v, want left critical", exit.Edge)
	}

	// Base re-acquisition pan is 10 degrees with no velocity: 90 - 10.
	pan, _ := s.Watcher().Position()
	if math.Abs(pan-80) > 1e-9 {
		t.Errorf("pan = %v, want 80 after re-acquisition", pan)
	}
}
