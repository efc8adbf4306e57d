// Package actuator defines the servo actuator interface and its
// implementations. All motion phases (scan, watch, gesture) depend only on
// the Actuator interface, never on a concrete hardware type.
package actuator

// Axis identifies a servo axis.
type Axis string

const (
	Pan  Axis = "pan"
	Tilt Axis = "tilt"
)

// Actuator drives a pan/tilt servo mount. Implementations must accept any
// degree value and clamp or reject out-of-range commands internally; callers
// clamp before commanding, but the actuator is the final safety net.
type Actuator interface {
	// SetAngle commands the axis to the given angle in degrees.
	SetAngle(axis Axis, degrees float64) error

	// GetAngle returns the last commanded angle for the axis in degrees.
	GetAngle(axis Axis) (float64, error)
}
