// Package analysis provides offline spectral measurements of rendered audio.
package analysis

import (
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

const peakFFTSize = 16384

// PeakFrequency returns the frequency in Hz of the strongest spectral
// component of samples, or 0 when the signal is empty or silent. The input is
// Hann-windowed; the peak bin is refined by parabolic interpolation, so tonal
// content resolves well below the raw bin width.
func PeakFrequency(samples []float32, sampleRate int) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}
	fftSize := peakFFTSize
	for fftSize/2 > len(samples) && fftSize > 256 {
		fftSize /= 2
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return 0
	}

	n := len(samples)
	if n > fftSize {
		n = fftSize
	}
	buf := make([]float64, fftSize)
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		buf[i] = float64(samples[i]) * w
	}

	spec := make([]complex128, fftSize/2+1)
	plan.Forward(spec, buf)

	nBins := fftSize / 2
	bestBin := 0
	bestMag := 0.0
	for k := 1; k < nBins; k++ {
		if mag := cmplx.Abs(spec[k]); mag > bestMag {
			bestMag = mag
			bestBin = k
		}
	}
	if bestBin == 0 || bestMag == 0 {
		return 0
	}

	// Parabolic refinement on log magnitudes of the peak and its neighbours.
	bin := float64(bestBin)
	if bestBin > 1 && bestBin < nBins-1 {
		a := math.Log(math.Max(cmplx.Abs(spec[bestBin-1]), 1e-30))
		b := math.Log(bestMag)
		c := math.Log(math.Max(cmplx.Abs(spec[bestBin+1]), 1e-30))
		denom := a - 2*b + c
		if denom != 0 {
			bin += 0.5 * (a - c) / denom
		}
	}
	return bin * float64(sampleRate) / float64(fftSize)
}

// BinMagnitude returns the single-bin DFT magnitude of samples at freq Hz,
// normalized so a full-scale sine reports roughly 1.0. Used to probe for the
// presence or absence of a specific partial.
func BinMagnitude(samples []float32, sampleRate int, freq float64) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}
	n := len(samples)
	w := 2 * math.Pi * freq / float64(sampleRate)
	var re, im float64
	for i := 0; i < n; i++ {
		ph := w * float64(i)
		re += float64(samples[i]) * math.Cos(ph)
		im += float64(samples[i]) * math.Sin(ph)
	}
	return 2 * math.Hypot(re, im) / float64(n)
}
