package motion

// Canned gesture sequences. These are the default curves; callers that
// need different amplitudes can build their own Sequence.
var (
	// Nod dips the head 8° and returns, a quick acknowledgment.
	Nod = mustSequence("nod",
		Step{Target: Offset{Tilt: -8.0}, Duration: 0.3, Method: MinJerk},
		Step{Target: Offset{Tilt: 0.0}, Duration: 0.3, Method: MinJerk},
	)

	// Shake swings the pan left, right, then back to center.
	Shake = mustSequence("shake",
		Step{Target: Offset{Pan: -10.0}, Duration: 0.25, Method: EaseInOut},
		Step{Target: Offset{Pan: 10.0}, Duration: 0.25, Method: EaseInOut},
		Step{Target: Offset{Pan: 0.0}, Duration: 0.25, Method: EaseInOut},
	)

	// Attention tilts up sharply, overshoots down, then settles.
	Attention = mustSequence("attention",
		Step{Target: Offset{Tilt: -5.0}, Duration: 0.2, Method: MinJerk},
		Step{Target: Offset{Tilt: 3.0}, Duration: 0.4, Method: MinJerk},
		Step{Target: Offset{Tilt: 0.0}, Duration: 0.3, Method: MinJerk},
	)
)

// Gestures maps gesture names to their sequences, for CLI and web lookup.
var Gestures = map[string]Sequence{
	Nod.Name:       Nod,
	Shake.Name:     Shake,
	Attention.Name: Attention,
}

func mustSequence(name string, steps ...Step) Sequence {
	seq, err := NewSequence(name, steps...)
	if err != nil {
		panic(err)
	}
	return seq
}
