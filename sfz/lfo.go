package sfz

import "math"

// LFO shapes.
const (
	LFOSine = iota
	LFOTriangle
	LFOSquare
	LFOSaw
)

// LFOSpec describes one of the classic per-voice LFOs (pitch, amplitude or
// filter). Depth units depend on the destination: cents for pitch and filter,
// dB for amplitude.
type LFOSpec struct {
	Wave  int     `json:"wave"`
	Freq  float32 `json:"freq"`
	Depth float32 `json:"depth"`
	Delay float32 `json:"delay"`
	Fade  float32 `json:"fade"`
}

// Active reports whether the LFO contributes anything.
func (s *LFOSpec) Active() bool {
	return s.Depth != 0 && s.Freq > 0
}

// LFO is one low-frequency oscillator slot of a voice.
type LFO struct {
	sampleRate float32
	spec       LFOSpec
	phase      float32
	delayLeft  int
	fadeLeft   int
	fadeTotal  int
	configured bool
}

// SetSampleRate updates the LFO clock. Non-realtime.
func (l *LFO) SetSampleRate(sampleRate float32) {
	l.sampleRate = sampleRate
}

// Configure arms the slot from a region spec; call at voice start.
func (l *LFO) Configure(spec LFOSpec) {
	l.spec = spec
	l.phase = 0
	l.delayLeft = secondsToSamples(spec.Delay, l.sampleRate)
	l.fadeTotal = secondsToSamples(spec.Fade, l.sampleRate)
	l.fadeLeft = l.fadeTotal
	l.configured = spec.Active()
}

// Clear disarms the slot.
func (l *LFO) Clear() {
	l.configured = false
}

// Configured reports whether the slot is armed.
func (l *LFO) Configured() bool {
	return l.configured
}

// Depth returns the configured modulation depth.
func (l *LFO) Depth() float32 {
	return l.spec.Depth
}

func (l *LFO) wave() float32 {
	switch l.spec.Wave {
	case LFOTriangle:
		if l.phase < 0.25 {
			return 4.0 * l.phase
		} else if l.phase < 0.75 {
			return 2.0 - 4.0*l.phase
		}
		return 4.0*l.phase - 4.0
	case LFOSquare:
		if l.phase < 0.5 {
			return 1.0
		}
		return -1.0
	case LFOSaw:
		return 1.0 - 2.0*l.phase
	default:
		return float32(math.Sin(2.0 * math.Pi * float64(l.phase)))
	}
}

// Process fills span with raw LFO values in [-1, 1], already scaled by the
// delay/fade-in ramp. The caller applies depth and units.
func (l *LFO) Process(span []float32) {
	if !l.configured {
		fillF(span, 0)
		return
	}
	incr := l.spec.Freq / l.sampleRate
	for i := range span {
		if l.delayLeft > 0 {
			l.delayLeft--
			span[i] = 0
			continue
		}
		gain := float32(1.0)
		if l.fadeLeft > 0 {
			gain = 1.0 - float32(l.fadeLeft)/float32(l.fadeTotal)
			l.fadeLeft--
		}
		span[i] = gain * l.wave()
		l.phase += incr
		if l.phase >= 1.0 {
			l.phase -= 1.0
		}
	}
}
