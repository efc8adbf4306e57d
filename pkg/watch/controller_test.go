package watch

import (
	"math"
	"testing"

	"github.com/roomwatch/go-roomwatch/pkg/actuator"
	"github.com/roomwatch/go-roomwatch/pkg/detect"
	"github.com/roomwatch/go-roomwatch/pkg/track"
)

func newTestController(t *testing.T) (*Controller, *actuator.Mock) {
	t.Helper()
	mock := actuator.NewMock()
	c, err := NewController(mock, DefaultConfig())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, mock
}

func personAt(cx, cy float64) detect.Detection {
	return detect.Detection{
		Label:      "person",
		Confidence: 0.9,
		Box:        detect.Box{X: cx - 100, Y: cy - 200, W: 200, H: 400},
	}
}

func TestUpdateIgnoredWhenIdle(t *testing.T) {
	c, mock := newTestController(t)

	if err := c.Update([]detect.Detection{personAt(100, 100)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mock.CommandCount() != 0 {
		t.Error("idle controller moved the actuator")
	}
}

func TestUpdateNoChase(t *testing.T) {
	c, mock := newTestController(t)
	c.StartWatching(90, 90)

	if err := c.Update(nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mock.CommandCount() != 0 {
		t.Error("controller chased an empty frame")
	}

	// Non-person detections are equally invisible.
	cat := detect.Detection{Label: "cat", Box: detect.Box{X: 0, Y: 0, W: 100, H: 100}}
	if err := c.Update([]detect.Detection{cat}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mock.CommandCount() != 0 {
		t.Error("controller moved for a non-person detection")
	}
}

func TestUpdateDeadband(t *testing.T) {
	c, mock := newTestController(t)
	c.StartWatching(90, 90)

	// Offset chosen so the damped pan correction is 0.9°, just under the
	// 1.0° deadband: 0.9 / (0.3 * 66.3/1280) ≈ 57.9 px.
	cfg := DefaultConfig()
	offsetPx := 0.9 / (cfg.Damping * cfg.FOVDegrees / cfg.FrameWidth)
	cx := cfg.FrameWidth/2 - offsetPx

	if err := c.Update([]detect.Detection{personAt(cx, cfg.FrameHeight/2)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mock.CommandCount() != 0 {
		t.Error("sub-deadband correction moved the actuator")
	}
	if pan, tilt := c.Position(); pan != 90 || tilt != 90 {
		t.Errorf("position changed to (%v, %v)", pan, tilt)
	}
}

func TestUpdateCentroidCorrection(t *testing.T) {
	c, mock := newTestController(t)
	c.StartWatching(90, 90)

	cfg := DefaultConfig()
	// Centroid 300px right of center: raw correction 300 * 66.3/1280 *
	// 0.3 ≈ 4.66°, inside the per-update clamp, above the deadband.
	// Rightward offset pans down on this mount.
	cx := cfg.FrameWidth/2 + 300

	if err := c.Update([]detect.Detection{personAt(cx, cfg.FrameHeight/2)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mock.CommandCount() != 2 {
		t.Fatalf("got %d commands, want 2", mock.CommandCount())
	}

	pan, _ := c.Position()
	wantAdj := -300 * (cfg.FOVDegrees / cfg.FrameWidth) * cfg.Damping
	if math.Abs(pan-(90+wantAdj)) > 1e-9 {
		t.Errorf("pan = %v, want %v", pan, 90+wantAdj)
	}
}

func TestUpdateClampsPerTickAdjustment(t *testing.T) {
	c, _ := newTestController(t)
	c.StartWatching(90, 90)

	// Centroid hard against the left edge: raw correction far above the
	// 5° per-update clamp.
	if err := c.Update([]detect.Detection{personAt(10, 360)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	pan, _ := c.Position()
	if pan != 95 {
		t.Errorf("pan = %v, want 95 (90 + clamped 5)", pan)
	}
}

func TestUpdateAveragesMultiplePeople(t *testing.T) {
	c, _ := newTestController(t)
	c.StartWatching(90, 90)

	// Two people symmetric around the frame center: centroid is
	// centered, no move.
	err := c.Update([]detect.Detection{personAt(340, 360), personAt(940, 360)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if pan, _ := c.Position(); pan != 90 {
		t.Errorf("pan = %v, want 90", pan)
	}
}

func TestPanToKeepInFrameCenter(t *testing.T) {
	c, mock := newTestController(t)
	c.StartWatching(90, 90)

	adj, err := c.PanToKeepInFrame(track.EdgeCenter, 5)
	if err != nil {
		t.Fatalf("PanToKeepInFrame: %v", err)
	}
	if adj != 0.0 {
		t.Errorf("adjustment = %v, want exactly 0", adj)
	}
	if mock.CommandCount() != 0 {
		t.Error("center edge moved the actuator")
	}
}

func TestPanToKeepInFrameIdle(t *testing.T) {
	c, mock := newTestController(t)

	adj, err := c.PanToKeepInFrame(track.EdgeLeftCritical, 10)
	if err != nil {
		t.Fatalf("PanToKeepInFrame: %v", err)
	}
	if adj != 0 || mock.CommandCount() != 0 {
		t.Errorf("idle controller adjusted by %v with %d commands", adj, mock.CommandCount())
	}
}

func TestPanToKeepInFrameScaling(t *testing.T) {
	cases := []struct {
		name     string
		edge     track.EdgePosition
		velocity float64
		want     float64
	}{
		// warning edge, zero velocity: 4 * 0.5
		{"warning still", track.EdgeRightWarning, 0, 2.0},
		// critical edge, velocity 10 → factor 1: 8 * (0.5 + 0.5)
		{"critical v10", track.EdgeRightCritical, 10, 8.0},
		// critical edge, huge velocity capped at 2x: 8 * (0.5 + 1.0)
		{"critical capped", track.EdgeRightCritical, 100, 12.0},
		// left edge pans negative
		{"left critical", track.EdgeLeftCritical, 10, -8.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestController(t)
			c.StartWatching(90, 90)

			adj, err := c.PanToKeepInFrame(tc.edge, tc.velocity)
			if err != nil {
				t.Fatalf("PanToKeepInFrame: %v", err)
			}
			if math.Abs(adj-tc.want) > 1e-9 {
				t.Errorf("adjustment = %v, want %v", adj, tc.want)
			}
			if pan, _ := c.Position(); math.Abs(pan-(90+tc.want)) > 1e-9 {
				t.Errorf("pan = %v, want %v", pan, 90+tc.want)
			}
		})
	}
}

func TestPanToKeepInFrameClampsToLimits(t *testing.T) {
	c, _ := newTestController(t)
	c.StartWatching(176, 90)

	// +8 adjustment from 176 clamps at 180.
	if _, err := c.PanToKeepInFrame(track.EdgeRightCritical, 10); err != nil {
		t.Fatalf("PanToKeepInFrame: %v", err)
	}
	if pan, _ := c.Position(); pan != 180 {
		t.Errorf("pan = %v, want 180", pan)
	}
}

func TestVerticalScaleParameterized(t *testing.T) {
	mock := actuator.NewMock()
	cfg := DefaultConfig()
	cfg.VerticalFOVDegrees = 50.0
	c, err := NewController(mock, cfg)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	c.StartWatching(90, 90)

	// Centroid 300px below center. With the vertical FOV set, tilt uses
	// 50/720 deg/px instead of the horizontal 66.3/1280.
	if err := c.Update([]detect.Detection{personAt(640, 360+300)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, tilt := c.Position()
	want := 90 + 300*(50.0/720.0)*cfg.Damping
	if math.Abs(tilt-want) > 1e-9 {
		t.Errorf("tilt = %v, want %v", tilt, want)
	}
}
