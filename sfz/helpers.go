package sfz

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const ln2 = 0.69314718055994530942
const ln10over20 = 0.11512925464970228

// centsFactor converts a detune in cents into a frequency ratio. Hot path:
// uses the fast exponential, accurate to well under a cent over the usual
// pitch bend ranges.
func centsFactor(cents float32) float32 {
	return approx.FastExp(cents * (ln2 / 1200.0))
}

// db2mag converts decibels into a linear magnitude.
func db2mag(db float32) float32 {
	return approx.FastExp(db * ln10over20)
}

// centsFactorPrecise is the setup-path variant of centsFactor.
func centsFactorPrecise(cents float32) float32 {
	return float32(math.Exp2(float64(cents) / 1200.0))
}

// midiNoteFrequency converts a (possibly fractional) MIDI key number to Hz.
func midiNoteFrequency(note float32) float32 {
	const a4Freq = 440.0
	const a4Note = 69.0
	return a4Freq * float32(math.Exp2(float64(note-a4Note)/12.0))
}

// normalizePercents maps a percentage modulation value to a plain factor.
func normalizePercents(percent float32) float32 {
	return percent * 0.01
}

func sqrtF(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

func clampF(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampI(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// panPair computes the equal-power left/right gains for a pan value in
// [-1, 1]. Each stage costs -3 dB at center.
func panPair(pan float32) (left, right float32) {
	pan = clampF(pan, -1.0, 1.0)
	theta := float64(pan+1.0) * (math.Pi / 4.0)
	return float32(math.Cos(theta)), float32(math.Sin(theta))
}

// applyPan runs a per-sample equal-power pan stage over a stereo pair.
// panSpan holds normalized pan values in [-1, 1].
func applyPan(panSpan []float32, left, right []float32) {
	for i := range panSpan {
		l, r := panPair(panSpan[i])
		left[i] *= l
		right[i] *= r
	}
}

// applyWidth runs a per-sample mid/side width stage. widthSpan holds
// normalized widths where 1 is untouched stereo, 0 collapses to mono and
// negative values swap the channels.
func applyWidth(widthSpan []float32, left, right []float32) {
	for i := range widthSpan {
		w := clampF(widthSpan[i], -1.0, 1.0)
		mid := 0.5 * (left[i] + right[i])
		side := 0.5 * (left[i] - right[i]) * w
		left[i] = mid + side
		right[i] = mid - side
	}
}

// cumsum turns per-sample jumps into absolute positions, in place.
func cumsum(span []float32) {
	var acc float32
	for i, v := range span {
		acc += v
		span[i] = acc
	}
}

// interpolationCast splits real-valued source positions into integer indices
// and fractional coefficients in [0, 1).
func interpolationCast(positions []float32, indices []int, coeffs []float32) {
	for i, p := range positions {
		idx := int(p)
		frac := p - float32(idx)
		if frac < 0 {
			idx--
			frac += 1.0
		}
		indices[i] = idx
		coeffs[i] = frac
	}
}

func fillF(span []float32, value float32) {
	for i := range span {
		span[i] = value
	}
}

func fillI(span []int, value int) {
	for i := range span {
		span[i] = value
	}
}

func applyGainSpan(gain, span []float32) {
	for i := range span {
		span[i] *= gain[i]
	}
}

func applyGain1(gain float32, span []float32) {
	for i := range span {
		span[i] *= gain
	}
}
