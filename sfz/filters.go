package sfz

import "github.com/cwbudde/algo-sfz/dsp"

// Filter types.
const (
	FilterNone = iota
	FilterLpf1p
	FilterHpf1p
	FilterLpf2p
	FilterHpf2p
	FilterBpf2p
	FilterBrf2p
)

// FilterSpec is the per-region description of one filter slot. Cutoff is in
// Hz, Resonance in dB, Keytrack in cents per key and Veltrack in cents at
// full velocity.
type FilterSpec struct {
	Type      int     `json:"type"`
	Cutoff    float32 `json:"cutoff"`
	Resonance float32 `json:"resonance"`
	Keytrack  float32 `json:"keytrack"`
	Veltrack  float32 `json:"veltrack"`
	Keycenter int     `json:"keycenter"`
}

// EQSpec is the per-region description of one parametric EQ band.
type EQSpec struct {
	Frequency float32 `json:"frequency"`
	Bandwidth float32 `json:"bandwidth"`
	GainDB    float32 `json:"gain_db"`
	Vel2Freq  float32 `json:"vel2freq"`
	Vel2Gain  float32 `json:"vel2gain"`
}

// resonanceToQ maps a resonance boost in dB onto a biquad quality factor,
// with 0 dB landing on the Butterworth Q.
func resonanceToQ(resonanceDB float32) float32 {
	return 0.70710678 * db2mag(resonanceDB)
}

// FilterHolder is one filter slot of a voice: a left/right biquad pair
// redesigned whenever cutoff or resonance move.
type FilterHolder struct {
	sampleRate float32
	spec       FilterSpec
	baseCutoff float32
	active     bool

	lastCutoff    float32
	lastResonance float32
	left          dsp.Biquad
	right         dsp.Biquad
}

// SetSampleRate updates the filter clock. Non-realtime.
func (fh *FilterHolder) SetSampleRate(sampleRate float32) {
	fh.sampleRate = sampleRate
}

// Setup arms the slot from a region filter description for one trigger.
func (fh *FilterHolder) Setup(spec FilterSpec, key int, velocity float32) {
	fh.spec = spec
	fh.active = spec.Type != FilterNone && spec.Cutoff > 0
	if !fh.active {
		return
	}
	cents := spec.Keytrack*float32(key-spec.Keycenter) + velocity*spec.Veltrack
	fh.baseCutoff = spec.Cutoff * centsFactorPrecise(cents)
	fh.left.Reset()
	fh.right.Reset()
	fh.lastCutoff = 0
	fh.lastResonance = 0
	fh.design(fh.baseCutoff, spec.Resonance)
}

// Clear disarms the slot.
func (fh *FilterHolder) Clear() {
	fh.active = false
}

// Active reports whether the slot filters anything.
func (fh *FilterHolder) Active() bool {
	return fh.active
}

// BaseCutoff returns the cutoff after key and velocity tracking.
func (fh *FilterHolder) BaseCutoff() float32 {
	return fh.baseCutoff
}

func (fh *FilterHolder) design(cutoff, resonance float32) {
	if cutoff == fh.lastCutoff && resonance == fh.lastResonance {
		return
	}
	fh.lastCutoff = cutoff
	fh.lastResonance = resonance
	cutoff = clampF(cutoff, 10.0, fh.sampleRate*0.45)
	q := resonanceToQ(resonance)
	switch fh.spec.Type {
	case FilterLpf1p:
		fh.left.SetOnePoleLowpass(cutoff, fh.sampleRate)
	case FilterHpf1p:
		fh.left.SetOnePoleHighpass(cutoff, fh.sampleRate)
	case FilterLpf2p:
		fh.left.SetLowpass(cutoff, fh.sampleRate, q)
	case FilterHpf2p:
		fh.left.SetHighpass(cutoff, fh.sampleRate, q)
	case FilterBpf2p:
		fh.left.SetBandpass(cutoff, fh.sampleRate, q)
	case FilterBrf2p:
		fh.left.SetNotch(cutoff, fh.sampleRate, q)
	}
	fh.right.SetCoefficients(fh.left.Coefficients())
}

// Modulate redesigns the slot with a cutoff offset in cents and a resonance
// offset in dB for the coming block.
func (fh *FilterHolder) Modulate(cutoffCents, resonanceDB float32) {
	if !fh.active {
		return
	}
	cutoff := fh.baseCutoff
	if cutoffCents != 0 {
		cutoff *= centsFactor(cutoffCents)
	}
	fh.design(cutoff, fh.spec.Resonance+resonanceDB)
}

// Process filters the channels in place. Pass the same span twice for mono.
func (fh *FilterHolder) Process(left, right []float32) {
	if !fh.active {
		return
	}
	fh.left.ProcessBlock(left)
	if &right[0] != &left[0] {
		fh.right.ProcessBlock(right)
	}
}

// EQHolder is one parametric EQ band of a voice.
type EQHolder struct {
	sampleRate float32
	spec       EQSpec
	active     bool

	baseFrequency float32
	baseGain      float32
	lastFrequency float32
	lastGain      float32
	left          dsp.Biquad
	right         dsp.Biquad
}

// SetSampleRate updates the band clock. Non-realtime.
func (eh *EQHolder) SetSampleRate(sampleRate float32) {
	eh.sampleRate = sampleRate
}

// Setup arms the band from a region EQ description for one trigger.
func (eh *EQHolder) Setup(spec EQSpec, velocity float32) {
	eh.spec = spec
	eh.baseFrequency = spec.Frequency + velocity*spec.Vel2Freq
	eh.baseGain = spec.GainDB + velocity*spec.Vel2Gain
	eh.active = eh.baseFrequency > 0 && eh.baseGain != 0
	if !eh.active {
		return
	}
	eh.left.Reset()
	eh.right.Reset()
	eh.lastFrequency = 0
	eh.lastGain = 0
	eh.design(eh.baseFrequency, eh.baseGain)
}

// Clear disarms the band.
func (eh *EQHolder) Clear() {
	eh.active = false
}

// Active reports whether the band contributes anything.
func (eh *EQHolder) Active() bool {
	return eh.active
}

func (eh *EQHolder) design(frequency, gain float32) {
	if frequency == eh.lastFrequency && gain == eh.lastGain {
		return
	}
	eh.lastFrequency = frequency
	eh.lastGain = gain
	frequency = clampF(frequency, 10.0, eh.sampleRate*0.45)
	bandwidth := eh.spec.Bandwidth
	if bandwidth <= 0 {
		bandwidth = 1.0
	}
	eh.left.SetPeak(frequency, eh.sampleRate, bandwidth, gain)
	eh.right.SetCoefficients(eh.left.Coefficients())
}

// Modulate redesigns the band with frequency and gain offsets for the
// coming block.
func (eh *EQHolder) Modulate(frequencyOffset, gainOffset float32) {
	if !eh.active {
		return
	}
	eh.design(eh.baseFrequency+frequencyOffset, eh.baseGain+gainOffset)
}

// Process equalizes the channels in place. Pass the same span twice for mono.
func (eh *EQHolder) Process(left, right []float32) {
	if !eh.active {
		return
	}
	eh.left.ProcessBlock(left)
	if &right[0] != &left[0] {
		eh.right.ProcessBlock(right)
	}
}
