package motion

// InterpolationMethod selects the easing curve used for a sequence step.
type InterpolationMethod int

const (
	// Linear moves at constant speed.
	Linear InterpolationMethod = iota

	// MinJerk follows the minimum-jerk polynomial 10t³ − 15t⁴ + 6t⁵.
	// Zero velocity and acceleration at both endpoints.
	MinJerk

	// EaseInOut is a quadratic ease-in/ease-out: slow start and end,
	// fast in the middle.
	EaseInOut
)

// String returns the method name for logging.
func (m InterpolationMethod) String() string {
	switch m {
	case MinJerk:
		return "minjerk"
	case EaseInOut:
		return "ease_in_out"
	default:
		return "linear"
	}
}

// Interpolate maps a progress fraction t in [0,1] to a position fraction
// in [0,1] using the given method. Callers are responsible for clamping t;
// step evaluation guarantees it by construction (duration > 0).
func Interpolate(t float64, method InterpolationMethod) float64 {
	switch method {
	case MinJerk:
		return minJerk(t)
	case EaseInOut:
		return easeInOut(t)
	default:
		return t
	}
}

func minJerk(t float64) float64 {
	t3 := t * t * t
	return 10.0*t3 - 15.0*t3*t + 6.0*t3*t*t
}

func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2.0 * t * t
	}
	u := -2.0*t + 2.0
	return 1.0 - u*u/2.0
}
