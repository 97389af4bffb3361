package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// SetCoefficients replaces the filter coefficients, keeping the state.
func (b *Biquad) SetCoefficients(b0, b1, b2, a1, a2 float32) {
	b.b0, b.b1, b.b2 = b0, b1, b2
	b.a1, b.a2 = a1, a2
}

// Coefficients returns the current filter coefficients.
func (b *Biquad) Coefficients() (b0, b1, b2, a1, a2 float32) {
	return b.b0, b.b1, b.b2, b.a1, b.a2
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	// Update state
	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = dspcore.FlushDenormals(output)

	return output
}

// ProcessBlock filters a span in place.
func (b *Biquad) ProcessBlock(buf []float32) {
	for i, x := range buf {
		buf[i] = b.Process(x)
	}
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

type biquadCoeffs struct {
	b0, b1, b2, a1, a2 float32
}

func (b *Biquad) apply(c biquadCoeffs) {
	b.SetCoefficients(c.b0, c.b1, c.b2, c.a1, c.a2)
}

func rbjCommon(freq, sampleRate, q float64) (w0, alpha, cosw0 float64) {
	w0 = 2.0 * math.Pi * freq / sampleRate
	if w0 > math.Pi*0.98 {
		w0 = math.Pi * 0.98
	}
	alpha = math.Sin(w0) / (2.0 * q)
	cosw0 = math.Cos(w0)
	return
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquadCoeffs {
	return biquadCoeffs{
		b0: float32(b0 / a0),
		b1: float32(b1 / a0),
		b2: float32(b2 / a0),
		a1: float32(a1 / a0),
		a2: float32(a2 / a0),
	}
}

// SetLowpass configures the filter as a second-order lowpass.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float32) {
	_, alpha, cosw0 := rbjCommon(float64(cutoff), float64(sampleRate), float64(q))
	b.apply(normalize(
		(1.0-cosw0)/2.0, 1.0-cosw0, (1.0-cosw0)/2.0,
		1.0+alpha, -2.0*cosw0, 1.0-alpha,
	))
}

// SetHighpass configures the filter as a second-order highpass.
func (b *Biquad) SetHighpass(cutoff, sampleRate, q float32) {
	_, alpha, cosw0 := rbjCommon(float64(cutoff), float64(sampleRate), float64(q))
	b.apply(normalize(
		(1.0+cosw0)/2.0, -(1.0 + cosw0), (1.0+cosw0)/2.0,
		1.0+alpha, -2.0*cosw0, 1.0-alpha,
	))
}

// SetBandpass configures the filter as a constant-peak bandpass.
func (b *Biquad) SetBandpass(cutoff, sampleRate, q float32) {
	_, alpha, cosw0 := rbjCommon(float64(cutoff), float64(sampleRate), float64(q))
	b.apply(normalize(
		alpha, 0.0, -alpha,
		1.0+alpha, -2.0*cosw0, 1.0-alpha,
	))
}

// SetNotch configures the filter as a band-reject notch.
func (b *Biquad) SetNotch(cutoff, sampleRate, q float32) {
	_, alpha, cosw0 := rbjCommon(float64(cutoff), float64(sampleRate), float64(q))
	b.apply(normalize(
		1.0, -2.0*cosw0, 1.0,
		1.0+alpha, -2.0*cosw0, 1.0-alpha,
	))
}

// SetOnePoleLowpass configures the filter as a one-pole lowpass (b2/a2 zero).
func (b *Biquad) SetOnePoleLowpass(cutoff, sampleRate float32) {
	g := float32(1.0 - math.Exp(-2.0*math.Pi*float64(cutoff)/float64(sampleRate)))
	b.SetCoefficients(g, 0, 0, g-1.0, 0)
}

// SetOnePoleHighpass configures the filter as a one-pole highpass.
func (b *Biquad) SetOnePoleHighpass(cutoff, sampleRate float32) {
	g := float32(math.Exp(-2.0 * math.Pi * float64(cutoff) / float64(sampleRate)))
	b.SetCoefficients((1.0+g)/2.0, -(1.0+g)/2.0, 0, -g, 0)
}

// SetPeak configures the filter as a peaking EQ band.
// bandwidth is expressed in octaves, gain in dB.
func (b *Biquad) SetPeak(freq, sampleRate, bandwidth, gainDB float32) {
	a := math.Pow(10.0, float64(gainDB)/40.0)
	w0 := 2.0 * math.Pi * float64(freq) / float64(sampleRate)
	if w0 > math.Pi*0.98 {
		w0 = math.Pi * 0.98
	}
	alpha := math.Sin(w0) * math.Sinh(math.Ln2/2.0*float64(bandwidth)*w0/math.Sin(w0))
	cosw0 := math.Cos(w0)
	b.apply(normalize(
		1.0+alpha*a, -2.0*cosw0, 1.0-alpha*a,
		1.0+alpha/a, -2.0*cosw0, 1.0-alpha/a,
	))
}
