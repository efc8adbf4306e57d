package motion

import (
	"context"
	"sync"
	"time"

	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/actuator"
)

// GestureLayer is the composer layer owned by gesture playback.
const GestureLayer = "gesture"

// DefaultTickInterval is the gesture playback tick (~50Hz).
const DefaultTickInterval = 20 * time.Millisecond

// Controller binds a Composer to an actuator. Base and offset mutations
// take effect on the next Apply; during gesture playback that is the next
// tick, so other behaviors can keep updating their layers concurrently.
type Controller struct {
	act  actuator.Actuator
	tick time.Duration

	mu       sync.Mutex
	composer *Composer
	playing  bool
}

// NewController creates a controller with the given servo limits.
func NewController(act actuator.Actuator, panLimits, tiltLimits Limits, tick time.Duration) (*Controller, error) {
	composer, err := NewComposer(panLimits, tiltLimits)
	if err != nil {
		return nil, err
	}
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Controller{
		act:      act,
		tick:     tick,
		composer: composer,
	}, nil
}

// SetBase sets the base pan/tilt position.
func (c *Controller) SetBase(pan, tilt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composer.SetBase(pan, tilt)
}

// SetOffset sets a named offset layer.
func (c *Controller) SetOffset(layer string, offset Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composer.SetOffset(layer, offset)
}

// ClearOffset removes a named offset layer.
func (c *Controller) ClearOffset(layer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composer.ClearOffset(layer)
}

// IsPlaying reports whether a gesture is currently playing.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Apply resolves all layers and sends both axis commands to the actuator.
// Both axes are always sent, even if only one changed.
func (c *Controller) Apply() error {
	c.mu.Lock()
	pan, tilt := c.composer.Resolve()
	c.mu.Unlock()

	if err := c.act.SetAngle(actuator.Pan, pan); err != nil {
		return err
	}
	return c.act.SetAngle(actuator.Tilt, tilt)
}

// PlayGesture plays a sequence on the gesture layer, sending interpolated
// angles each tick. It blocks until the sequence completes or ctx is
// cancelled; run it in a goroutine for fire-and-forget playback. Either
// way the gesture layer is cleared and a final Apply restores the
// underlying pose.
//
// Only one gesture may play at a time; a second call while playing
// returns ErrGestureActive.
func (c *Controller) PlayGesture(ctx context.Context, sequence Sequence) error {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return ErrGestureActive
	}
	c.playing = true
	c.mu.Unlock()

	log.Debug("gesture started", "name", sequence.Name, "duration", sequence.TotalDuration())

	player := NewPlayer(sequence)
	start := time.Now()
	player.Start(0)

	defer func() {
		c.ClearOffset(GestureLayer)
		if err := c.Apply(); err != nil {
			log.Warn("gesture cleanup apply failed", "name", sequence.Name, "error", err)
		}
		c.mu.Lock()
		c.playing = false
		c.mu.Unlock()
	}()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("gesture cancelled", "name", sequence.Name)
			return ctx.Err()
		case <-ticker.C:
			offset := player.Evaluate(time.Since(start).Seconds())
			if player.IsComplete() {
				log.Debug("gesture complete", "name", sequence.Name)
				return nil
			}
			c.SetOffset(GestureLayer, offset)
			if err := c.Apply(); err != nil {
				return err
			}
		}
	}
}

// ActiveLayers returns the composer's current layer names, sorted for
// deterministic debug output.
func (c *Controller) ActiveLayers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composer.sortedLayers()
}
