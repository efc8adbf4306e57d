package scan

import (
	"fmt"
	"time"
)

// Range is an inclusive pan range in degrees.
type Range struct {
	Min float64
	Max float64
}

// Config holds all tunable parameters for room scanning.
type Config struct {
	// Camera geometry
	FOVDegrees  float64 // horizontal field of view
	VerticalFOV float64 // vertical field of view
	FrameWidth  float64 // pixels
	FrameHeight float64 // pixels

	// Sweep
	OverlapDegrees float64       // overlap between adjacent scan positions
	SettlingTime   time.Duration // servo settle + detector warm-up per position
	CenterPan      float64
	CenterTilt     float64

	// Detection filters
	ConfidenceThreshold float64
	PersistenceFrames   int // frames a detection must survive to be trusted

	// Tiers
	Primary         Range
	FallbackEnabled bool
	FallbackLeft    Range
	FallbackRight   Range

	// ExtremeTimeout bounds how long a watch started from a fallback
	// extreme may run before the owning loop forces a fresh scan cycle.
	// Enforced by the caller, not by the scanner.
	ExtremeTimeout time.Duration
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		FOVDegrees:  66.3,
		VerticalFOV: 50.0,
		FrameWidth:  1280,
		FrameHeight: 720,

		OverlapDegrees: 10.0,
		SettlingTime:   time.Second,
		CenterPan:      90.0,
		CenterTilt:     90.0,

		ConfidenceThreshold: 0.5,
		PersistenceFrames:   3,

		Primary:         Range{Min: 40, Max: 140},
		FallbackEnabled: true,
		FallbackLeft:    Range{Min: 0, Max: 40},
		FallbackRight:   Range{Min: 140, Max: 180},

		ExtremeTimeout: 30 * time.Second,
	}
}

// Validate fails fast on configuration that would break the sweep math.
func (c Config) Validate() error {
	if c.FOVDegrees <= 0 || c.VerticalFOV <= 0 {
		return fmt.Errorf("invalid FOV %v/%v", c.FOVDegrees, c.VerticalFOV)
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("invalid frame size %vx%v", c.FrameWidth, c.FrameHeight)
	}
	if c.OverlapDegrees < 0 || c.OverlapDegrees >= c.FOVDegrees {
		return fmt.Errorf("overlap %v must be in [0, FOV)", c.OverlapDegrees)
	}
	if c.SettlingTime < 0 {
		return fmt.Errorf("negative settling time %v", c.SettlingTime)
	}
	if c.Primary.Min >= c.Primary.Max {
		return fmt.Errorf("invalid primary range [%v, %v]", c.Primary.Min, c.Primary.Max)
	}
	if c.PersistenceFrames < 1 {
		return fmt.Errorf("persistence frames %d must be >= 1", c.PersistenceFrames)
	}
	return nil
}
