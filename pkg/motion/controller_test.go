package motion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomwatch/go-roomwatch/pkg/actuator"
)

func newTestController(t *testing.T, act actuator.Actuator) *Controller {
	t.Helper()
	c, err := NewController(act, Limits{Min: 0, Max: 180}, Limits{Min: 0, Max: 180}, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestControllerApplySendsBothAxes(t *testing.T) {
	mock := actuator.NewMock()
	c := newTestController(t, mock)
	c.SetBase(100, 80)

	if err := c.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	cmds := mock.Commands()
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	if cmds[0].Axis != actuator.Pan || cmds[0].Degrees != 100 {
		t.Errorf("pan command = %+v", cmds[0])
	}
	if cmds[1].Axis != actuator.Tilt || cmds[1].Degrees != 80 {
		t.Errorf("tilt command = %+v", cmds[1])
	}
}

func TestControllerApplyPropagatesError(t *testing.T) {
	mock := actuator.NewMock()
	mock.SetAngleErr = errors.New("servo offline")
	c := newTestController(t, mock)

	if err := c.Apply(); err == nil {
		t.Error("expected actuator error to propagate")
	}
}

func TestPlayGestureCompletesAndClearsLayer(t *testing.T) {
	mock := actuator.NewMock()
	c := newTestController(t, mock)
	c.SetBase(90, 90)

	seq, err := NewSequence("blip",
		Step{Target: Offset{Tilt: -5}, Duration: 0.02, Method: Linear},
		Step{Target: Offset{Tilt: 0}, Duration: 0.02, Method: Linear},
	)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}

	if err := c.PlayGesture(context.Background(), seq); err != nil {
		t.Fatalf("PlayGesture: %v", err)
	}

	if c.IsPlaying() {
		t.Error("IsPlaying still true after completion")
	}
	if layers := c.ActiveLayers(); len(layers) != 0 {
		t.Errorf("gesture layer not cleared: %v", layers)
	}

	// Final apply restores the base pose on both axes.
	cmds := mock.Commands()
	if len(cmds) < 2 {
		t.Fatalf("got %d commands, want at least 2", len(cmds))
	}
	last := cmds[len(cmds)-2:]
	if last[0].Degrees != 90 || last[1].Degrees != 90 {
		t.Errorf("final pose = %+v, want base (90, 90)", last)
	}
}

func TestPlayGestureRejectsConcurrent(t *testing.T) {
	mock := actuator.NewMock()
	c := newTestController(t, mock)

	seq, _ := NewSequence("slow", Step{Target: Offset{Pan: 5}, Duration: 0.5, Method: Linear})

	done := make(chan error, 1)
	go func() { done <- c.PlayGesture(context.Background(), seq) }()

	// Wait for the first playback to mark itself active.
	deadline := time.After(time.Second)
	for !c.IsPlaying() {
		select {
		case <-deadline:
			t.Fatal("first gesture never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := c.PlayGesture(context.Background(), seq); !errors.Is(err, ErrGestureActive) {
		t.Errorf("second PlayGesture = %v, want ErrGestureActive", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first PlayGesture: %v", err)
	}
}

func TestPlayGestureCancellation(t *testing.T) {
	mock := actuator.NewMock()
	c := newTestController(t, mock)
	c.SetBase(90, 90)

	seq, _ := NewSequence("long", Step{Target: Offset{Pan: 10}, Duration: 10, Method: Linear})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.PlayGesture(ctx, seq) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("PlayGesture = %v, want context.Canceled", err)
	}
	if c.IsPlaying() {
		t.Error("IsPlaying still true after cancellation")
	}
	if layers := c.ActiveLayers(); len(layers) != 0 {
		t.Errorf("gesture layer not cleared after cancellation: %v", layers)
	}
}

func TestSetOffsetDuringPlaybackPreserved(t *testing.T) {
	mock := actuator.NewMock()
	c := newTestController(t, mock)
	c.SetBase(90, 90)
	c.SetOffset("tracking", Offset{Pan: 5})

	seq, _ := NewSequence("blip", Step{Target: Offset{Tilt: -3}, Duration: 0.02, Method: Linear})
	if err := c.PlayGesture(context.Background(), seq); err != nil {
		t.Fatalf("PlayGesture: %v", err)
	}

	layers := c.ActiveLayers()
	if len(layers) != 1 || layers[0] != "tracking" {
		t.Errorf("ActiveLayers() = %v, want [tracking]", layers)
	}

	// Tracking offset still contributes to the final pose.
	cmds := mock.Commands()
	if cmds[len(cmds)-2].Degrees != 95 {
		t.Errorf("final pan = %v, want 95", cmds[len(cmds)-2].Degrees)
	}
}
