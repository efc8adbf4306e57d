// Package watch provides the watch-phase micro-controller: small damped
// corrections that keep already-found people centered between room scans,
// plus preemptive edge panning when someone is about to leave the frame.
package watch

import (
	"fmt"
	"math"
	"sync"

	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/actuator"
	"github.com/roomwatch/go-roomwatch/pkg/detect"
	"github.com/roomwatch/go-roomwatch/pkg/track"
)

// Config holds the watch controller's tunables.
type Config struct {
	MaxAdjustment float64 // max degrees per update
	Deadband      float64 // min degrees to bother moving
	Damping       float64 // fraction of the raw correction applied per update
	FrameWidth    float64 // pixels
	FrameHeight   float64 // pixels
	FOVDegrees    float64 // horizontal field of view

	// VerticalFOVDegrees sets the vertical degrees-per-pixel scale.
	// Zero falls back to the horizontal FOV scale, which overshoots
	// tilt corrections since the vertical FOV is narrower; set it to the
	// camera's real vertical FOV for correct tilt scaling.
	VerticalFOVDegrees float64

	PanLimits  Limits
	TiltLimits Limits
}

// Limits is an inclusive angle range in degrees.
type Limits struct {
	Min float64
	Max float64
}

func (l Limits) clamp(v float64) float64 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// DefaultConfig returns the production defaults for a 1280x720 camera.
func DefaultConfig() Config {
	return Config{
		MaxAdjustment: 5.0,
		Deadband:      1.0,
		Damping:       0.3,
		FrameWidth:    1280,
		FrameHeight:   720,
		FOVDegrees:    66.3,
		PanLimits:     Limits{Min: 0, Max: 180},
		TiltLimits:    Limits{Min: 0, Max: 180},
	}
}

// Controller makes minor centering adjustments while watching. Two
// states only: idle and watching. It deliberately does not chase people
// who vanish; a person who turned away or was occluded for a frame is
// not worth hunting for.
type Controller struct {
	act actuator.Actuator
	cfg Config

	degPerPxH float64
	degPerPxV float64

	mu       sync.Mutex
	watching bool
	pan      float64
	tilt     float64
}

// NewController creates a watch controller. Fails fast on nonsense
// frame or FOV configuration.
func NewController(act actuator.Actuator, cfg Config) (*Controller, error) {
	if cfg.FrameWidth <= 0 || cfg.FrameHeight <= 0 {
		return nil, fmt.Errorf("invalid frame size %vx%v", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.FOVDegrees <= 0 {
		return nil, fmt.Errorf("invalid horizontal FOV %v", cfg.FOVDegrees)
	}

	degPerPxH := cfg.FOVDegrees / cfg.FrameWidth
	degPerPxV := degPerPxH
	if cfg.VerticalFOVDegrees > 0 {
		degPerPxV = cfg.VerticalFOVDegrees / cfg.FrameHeight
	}

	return &Controller{
		act:       act,
		cfg:       cfg,
		degPerPxH: degPerPxH,
		degPerPxV: degPerPxV,
		pan:       90.0,
		tilt:      90.0,
	}, nil
}

// IsWatching reports whether the controller is in the watching state.
func (c *Controller) IsWatching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watching
}

// StartWatching enters the watching state at the given position.
func (c *Controller) StartWatching(pan, tilt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watching = true
	c.pan = pan
	c.tilt = tilt
	log.Debug("started watching", "pan", pan, "tilt", tilt)
}

// StopWatching returns to idle.
func (c *Controller) StopWatching() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watching = false
	log.Debug("stopped watching")
}

// Position returns the controller's current (pan, tilt).
func (c *Controller) Position() (pan, tilt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pan, c.tilt
}

// SetPan overrides the current pan. The scanner calls this after it pans
// the actuator itself during re-acquisition, so both stay in sync.
func (c *Controller) SetPan(pan float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pan = pan
}

// Update recenters on the centroid of all detected people. No-op when
// idle, when no people are present, or when the damped correction is
// inside the deadband on both axes.
func (c *Controller) Update(detections []detect.Detection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.watching {
		return nil
	}

	var sumX, sumY float64
	var count int
	for _, d := range detections {
		if d.Label != "person" {
			continue
		}
		cx, cy := d.Box.Center()
		sumX += cx
		sumY += cy
		count++
	}
	if count == 0 {
		// Don't chase people who left the frame.
		return nil
	}

	offsetX := sumX/float64(count) - c.cfg.FrameWidth/2
	offsetY := sumY/float64(count) - c.cfg.FrameHeight/2

	// Positive x offset means the centroid is right of center, which
	// needs a pan decrease on this mount.
	panAdj := clampMagnitude(-offsetX*c.degPerPxH*c.cfg.Damping, c.cfg.MaxAdjustment)
	tiltAdj := clampMagnitude(offsetY*c.degPerPxV*c.cfg.Damping, c.cfg.MaxAdjustment)

	if math.Abs(panAdj) <= c.cfg.Deadband && math.Abs(tiltAdj) <= c.cfg.Deadband {
		return nil
	}

	newPan := c.cfg.PanLimits.clamp(c.pan + panAdj)
	newTilt := c.cfg.TiltLimits.clamp(c.tilt + tiltAdj)

	if err := c.act.SetAngle(actuator.Pan, newPan); err != nil {
		return err
	}
	if err := c.act.SetAngle(actuator.Tilt, newTilt); err != nil {
		return err
	}

	c.pan = newPan
	c.tilt = newTilt
	log.Debug("watch adjustment", "pan", newPan, "tilt", newTilt, "pan_adj", panAdj, "tilt_adj", tiltAdj)
	return nil
}

// PanToKeepInFrame preemptively pans toward the edge a person is
// approaching. Critical edges get a larger base correction, scaled by
// how fast the person is moving (0.5x to 2x, capped). Applies
// immediately with no deadband and returns the signed adjustment, or 0
// when idle or the person is centered.
func (c *Controller) PanToKeepInFrame(edge track.EdgePosition, velocity float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.watching {
		return 0, nil
	}
	if edge == track.EdgeCenter {
		return 0, nil
	}

	base := 4.0
	if edge.IsCritical() {
		base = 8.0
	}

	velocityFactor := math.Min(math.Abs(velocity)/10.0, 2.0)
	adjustment := base * (0.5 + velocityFactor*0.5)

	if edge.Direction() == "left" {
		adjustment = -adjustment
	}

	newPan := c.cfg.PanLimits.clamp(c.pan + adjustment)
	if err := c.act.SetAngle(actuator.Pan, newPan); err != nil {
		return 0, err
	}
	c.pan = newPan

	log.Debug("pan to keep in frame",
		"edge", edge.String(), "velocity", velocity, "adjustment", adjustment, "pan", newPan)
	return adjustment, nil
}

func clampMagnitude(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
