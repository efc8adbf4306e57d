package motion

import "fmt"

// Step is one leg of a sequence: interpolate from wherever the previous
// step ended to Target over Duration seconds.
type Step struct {
	Target   Offset
	Duration float64 // seconds, must be > 0
	Method   InterpolationMethod
}

// Sequence is a named, ordered list of steps. A sequence is a connected
// path through offset-space: each step is relative to where the previous
// one ended, not to zero.
type Sequence struct {
	Name  string
	Steps []Step
}

// NewSequence validates the steps and returns a sequence.
// Fails fast on non-positive durations so playback never divides by zero.
func NewSequence(name string, steps ...Step) (Sequence, error) {
	for i, s := range steps {
		if s.Duration <= 0 {
			return Sequence{}, fmt.Errorf("sequence %q: step %d has non-positive duration %.3f", name, i, s.Duration)
		}
	}
	return Sequence{Name: name, Steps: steps}, nil
}

// TotalDuration returns the sum of all step durations in seconds.
func (s Sequence) TotalDuration() float64 {
	var total float64
	for _, step := range s.Steps {
		total += step.Duration
	}
	return total
}

// Player evaluates a sequence at a given time, producing the current
// offset. One player per in-flight playback; it is not re-entrant across
// independent playbacks.
type Player struct {
	sequence  Sequence
	startTime float64
	started   bool
	complete  bool
}

// NewPlayer creates a player for the sequence.
func NewPlayer(sequence Sequence) *Player {
	return &Player{sequence: sequence}
}

// Start begins playback at the given time reference.
func (p *Player) Start(now float64) {
	p.startTime = now
	p.started = true
	p.complete = false
}

// IsComplete reports whether the sequence has finished playing.
func (p *Player) IsComplete() bool {
	return p.complete
}

// Evaluate returns the offset at the given time.
//
// A never-started player returns the zero offset. Past the total duration
// the player flips complete and returns the zero offset: the terminal
// state of a gesture is "layer about to be cleared", not the last target.
// At exactly the total duration the last step's target is returned
// directly, sidestepping a zero-width interpolation.
func (p *Player) Evaluate(now float64) Offset {
	if !p.started {
		return Offset{}
	}

	elapsed := now - p.startTime
	total := p.sequence.TotalDuration()

	if elapsed > total {
		p.complete = true
		return Offset{}
	}

	stepStart := 0.0
	prev := Offset{}
	for _, step := range p.sequence.Steps {
		stepEnd := stepStart + step.Duration
		if elapsed < stepEnd {
			t := (elapsed - stepStart) / step.Duration
			fraction := Interpolate(t, step.Method)
			return Offset{
				Pan:  prev.Pan + (step.Target.Pan-prev.Pan)*fraction,
				Tilt: prev.Tilt + (step.Target.Tilt-prev.Tilt)*fraction,
			}
		}
		prev = step.Target
		stepStart = stepEnd
	}

	// elapsed == total exactly
	return prev
}
