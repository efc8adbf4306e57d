// Package motion provides the layered motion composition stack: offsets,
// the base+layer composer, timed sequences, the gesture library, and the
// controller that drives an actuator from them.
//
// The model mirrors a primary/secondary architecture: some behavior owns
// the base position (scan result, watch centering) while independent
// behaviors contribute named relative offsets (tracking nudges, gestures).
// The composer resolves base + sum(layers) into one clamped command.
package motion

import (
	"fmt"
	"sort"
)

// Offset is an immutable relative (pan, tilt) contribution in degrees.
// It is never an absolute position.
type Offset struct {
	Pan  float64
	Tilt float64
}

// Add returns the componentwise sum of two offsets.
func (o Offset) Add(other Offset) Offset {
	return Offset{Pan: o.Pan + other.Pan, Tilt: o.Tilt + other.Tilt}
}

// IsZero reports whether both components are exactly zero.
func (o Offset) IsZero() bool {
	return o.Pan == 0 && o.Tilt == 0
}

// Limits is an inclusive [Min, Max] angle range in degrees.
type Limits struct {
	Min float64
	Max float64
}

// Clamp restricts v to the range.
func (l Limits) Clamp(v float64) float64 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// Valid reports whether the range is well-formed.
func (l Limits) Valid() bool {
	return l.Min < l.Max
}

// Composer combines a base position with named offset layers.
// The resolved position is base + sum(layers), each axis clamped to its
// servo limits. Named layers let independent behaviors contribute without
// clobbering each other, and make it easy to see who is pushing where.
//
// Composer is not safe for concurrent use; Controller serializes access.
type Composer struct {
	panLimits  Limits
	tiltLimits Limits

	basePan  float64
	baseTilt float64

	offsets map[string]Offset
	order   []string // insertion order, for stable ActiveLayers output
}

// NewComposer creates a composer with the given servo limits.
// Returns an error if either range is inverted or empty.
func NewComposer(panLimits, tiltLimits Limits) (*Composer, error) {
	if !panLimits.Valid() {
		return nil, fmt.Errorf("invalid pan limits [%.1f, %.1f]", panLimits.Min, panLimits.Max)
	}
	if !tiltLimits.Valid() {
		return nil, fmt.Errorf("invalid tilt limits [%.1f, %.1f]", tiltLimits.Min, tiltLimits.Max)
	}
	return &Composer{
		panLimits:  panLimits,
		tiltLimits: tiltLimits,
		offsets:    make(map[string]Offset),
	}, nil
}

// SetBase overwrites the base position. No validation: a base outside the
// limits is legitimate transiently, clamping happens at Resolve.
func (c *Composer) SetBase(pan, tilt float64) {
	c.basePan = pan
	c.baseTilt = tilt
}

// Base returns the current base position.
func (c *Composer) Base() (pan, tilt float64) {
	return c.basePan, c.baseTilt
}

// SetOffset inserts or replaces a named layer. Last write wins.
func (c *Composer) SetOffset(layer string, offset Offset) {
	if _, exists := c.offsets[layer]; !exists {
		c.order = append(c.order, layer)
	}
	c.offsets[layer] = offset
}

// ClearOffset removes a named layer. No-op if the layer was never set.
func (c *Composer) ClearOffset(layer string) {
	if _, exists := c.offsets[layer]; !exists {
		return
	}
	delete(c.offsets, layer)
	for i, name := range c.order {
		if name == layer {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// ActiveLayers returns the names of all current layers in insertion order.
func (c *Composer) ActiveLayers() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Resolve computes base + sum(layers), each axis clamped independently.
// Resolving twice without mutation yields identical results.
func (c *Composer) Resolve() (pan, tilt float64) {
	var total Offset
	for _, o := range c.offsets {
		total = total.Add(o)
	}
	pan = c.panLimits.Clamp(c.basePan + total.Pan)
	tilt = c.tiltLimits.Clamp(c.baseTilt + total.Tilt)
	return pan, tilt
}

// sortedLayers is used only by debug logging, where deterministic output
// matters more than insertion order.
func (c *Composer) sortedLayers() []string {
	out := c.ActiveLayers()
	sort.Strings(out)
	return out
}
