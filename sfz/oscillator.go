package sfz

import "github.com/cwbudde/algo-sfz/dsp"

// WavetableOscillator plays one band-limited table set with per-sample
// frequency control. Voices run one oscillator per unison layer.
type WavetableOscillator struct {
	sampleRate float32
	wavetable  *Wavetable
	phase      float32
	quality    int
}

// SetSampleRate updates the oscillator clock. Non-realtime.
func (o *WavetableOscillator) SetSampleRate(sampleRate float32) {
	o.sampleRate = sampleRate
}

// SetWavetable assigns the table set to read from.
func (o *WavetableOscillator) SetWavetable(wt *Wavetable) {
	o.wavetable = wt
}

// SetQuality selects the table read: 1 and below is linear, anything higher
// uses the 4-tap Hermite read.
func (o *WavetableOscillator) SetQuality(quality int) {
	o.quality = quality
}

// SetPhase snaps the oscillator phase, in cycles [0, 1).
func (o *WavetableOscillator) SetPhase(phase float32) {
	o.phase = phase - float32(int(phase))
	if o.phase < 0 {
		o.phase += 1.0
	}
}

// lookup reads the table at a phase in [0, 1). Tables carry guard samples so
// the interpolator taps never wrap.
func (o *WavetableOscillator) lookup(table []float32, phase float32) float32 {
	pos := phase * wavetableSize
	idx := int(pos)
	frac := pos - float32(idx)
	if idx >= wavetableSize {
		idx -= wavetableSize
	}
	if o.quality >= 2 {
		return dsp.InterpolateHermite3(table, idx+1, frac)
	}
	return dsp.InterpolateLinear(table, idx+1, frac)
}

// Process adds the oscillator output, scaled by gain, into output. The
// frequency span carries the per-sample playback frequency in Hz.
func (o *WavetableOscillator) Process(frequencies, output []float32, gain float32) {
	if o.wavetable == nil {
		return
	}
	phase := o.phase
	for i := range output {
		freq := frequencies[i]
		table := o.wavetable.TableForFrequency(freq)
		output[i] += gain * o.lookup(table, phase)
		phase += freq / o.sampleRate
		if phase >= 1.0 {
			phase -= 1.0
		}
	}
	o.phase = phase
}

