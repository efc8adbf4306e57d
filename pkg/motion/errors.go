package motion

import "errors"

var (
	// ErrGestureActive is returned by PlayGesture when a gesture is
	// already playing on this controller. There is no queue; one gesture
	// at a time per controller.
	ErrGestureActive = errors.New("motion: gesture already playing")
)
