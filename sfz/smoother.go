package sfz

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Smoother is a first-order lag used to de-zipper gain, pitch bend and
// crossfade transitions.
type Smoother struct {
	gain  float32
	state float32
}

// SetSmoothing configures the time constant in seconds. A non-positive time
// turns the smoother into a passthrough.
func (s *Smoother) SetSmoothing(seconds, sampleRate float32) {
	if seconds <= 0 || sampleRate <= 0 {
		s.gain = 1.0
		return
	}
	s.gain = float32(1.0 - math.Exp(-2.0*math.Pi/float64(seconds*sampleRate)))
}

// Reset snaps the smoother state to value.
func (s *Smoother) Reset(value float32) {
	s.state = value
}

// Current returns the last output value.
func (s *Smoother) Current() float32 {
	return s.state
}

// Process filters input into output; the two spans may alias. When
// canShortcut is set and the state already matches the input head, the input
// is copied through untouched.
func (s *Smoother) Process(input, output []float32, canShortcut bool) {
	if len(input) == 0 {
		return
	}
	if s.gain >= 1.0 || (canShortcut && input[0] == s.state) {
		copy(output, input)
		s.state = input[len(input)-1]
		return
	}
	state := s.state
	for i, x := range input {
		state += s.gain * (x - state)
		output[i] = state
	}
	s.state = dspcore.FlushDenormals(state)
}
