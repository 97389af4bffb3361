package analysis

import (
	"math"
	"testing"
)

func makeSine(freq float64, sampleRate, frames int, amp float64) []float32 {
	out := make([]float32, frames)
	w := 2 * math.Pi * freq / float64(sampleRate)
	for i := range out {
		out[i] = float32(amp * math.Sin(w*float64(i)))
	}
	return out
}

func TestPeakFrequencySine(t *testing.T) {
	const sr = 48000
	for _, freq := range []float64{110, 440, 1000, 3520} {
		sig := makeSine(freq, sr, sr/2, 0.8)
		got := PeakFrequency(sig, sr)
		if math.Abs(got-freq) > 1.5 {
			t.Errorf("freq=%.0f: got=%.2f want within 1.5Hz", freq, got)
		}
	}
}

func TestPeakFrequencyPicksStrongest(t *testing.T) {
	const sr = 48000
	weak := makeSine(440, sr, sr/2, 0.1)
	strong := makeSine(1320, sr, sr/2, 0.7)
	sig := make([]float32, len(weak))
	for i := range sig {
		sig[i] = weak[i] + strong[i]
	}
	got := PeakFrequency(sig, sr)
	if math.Abs(got-1320) > 2 {
		t.Errorf("got=%.2f want=1320", got)
	}
}

func TestPeakFrequencyShortInput(t *testing.T) {
	const sr = 48000
	sig := makeSine(880, sr, 2000, 0.8)
	got := PeakFrequency(sig, sr)
	if math.Abs(got-880) > 30 {
		t.Errorf("got=%.2f want=880 within 30Hz", got)
	}
}

func TestPeakFrequencyEmpty(t *testing.T) {
	if got := PeakFrequency(nil, 48000); got != 0 {
		t.Errorf("nil input: got=%v want=0", got)
	}
	if got := PeakFrequency(makeSine(440, 48000, 1000, 0.5), 0); got != 0 {
		t.Errorf("zero rate: got=%v want=0", got)
	}
}

func TestBinMagnitude(t *testing.T) {
	const sr = 48000
	sig := makeSine(440, sr, sr/2, 0.5)
	at := BinMagnitude(sig, sr, 440)
	if math.Abs(at-0.5) > 0.02 {
		t.Errorf("magnitude at 440Hz: got=%.4f want=0.5", at)
	}
	off := BinMagnitude(sig, sr, 2000)
	if off > 0.01 {
		t.Errorf("magnitude at 2kHz: got=%.4f want near 0", off)
	}
}
