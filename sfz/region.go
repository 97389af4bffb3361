package sfz

import (
	"math/rand"
	"strings"
)

// Loop modes.
const (
	LoopNo = iota
	LoopOneShot
	LoopContinuous
	LoopSustain
)

// Crossfade curves.
const (
	CrossfadeGain = iota
	CrossfadePower
)

// Off modes.
const (
	OffFast = iota
	OffTime
)

// Trigger kinds.
const (
	TriggerAttack = iota
	TriggerRelease
)

// Range is a closed interval used for key, velocity and CC crossfades.
type Range struct {
	Lo float32 `json:"lo"`
	Hi float32 `json:"hi"`
}

// Contains reports whether value lies inside the range.
func (r Range) Contains(value float32) bool {
	return value >= r.Lo && value <= r.Hi
}

// CCRange binds a crossfade range to one MIDI controller.
type CCRange struct {
	CC    int   `json:"cc"`
	Range Range `json:"range"`
}

// Region holds the SFZ parameters a voice reads while playing. It is
// immutable for the lifetime of any voice holding it.
type Region struct {
	ID       int    `json:"id"`
	Sample   string `json:"sample"`
	Disabled bool   `json:"disabled"`

	KeyRange Range `json:"key_range"`
	VelRange Range `json:"vel_range"`

	Delay  float32 `json:"delay"`
	Offset int     `json:"offset"`

	LoopMode      int `json:"loop_mode"`
	LoopStart     int `json:"loop_start"`
	LoopEnd       int `json:"loop_end"`
	SampleEnd     int `json:"sample_end"`

	PitchKeycenter int     `json:"pitch_keycenter"`
	PitchKeytrack  float32 `json:"pitch_keytrack"`
	PitchVeltrack  float32 `json:"pitch_veltrack"`
	PitchRandom    float32 `json:"pitch_random"`
	Transpose      float32 `json:"transpose"`
	Tune           float32 `json:"tune"`
	BendUp         float32 `json:"bend_up"`
	BendDown       float32 `json:"bend_down"`
	BendStep       int     `json:"bend_step"`

	Amplitude   float32 `json:"amplitude"`
	Volume      float32 `json:"volume"`
	AmpVeltrack float32 `json:"amp_veltrack"`
	Pan         float32 `json:"pan"`
	Width       float32 `json:"width"`
	Position    float32 `json:"position"`

	XFInKeyRange   Range     `json:"xfin_key_range"`
	XFOutKeyRange  Range     `json:"xfout_key_range"`
	XFInVelRange   Range     `json:"xfin_vel_range"`
	XFOutVelRange  Range     `json:"xfout_vel_range"`
	XFCCInRanges   []CCRange `json:"xf_cc_in"`
	XFCCOutRanges  []CCRange `json:"xf_cc_out"`
	XFKeyCurve     int       `json:"xf_key_curve"`
	XFVelCurve     int       `json:"xf_vel_curve"`
	XFCCCurve      int       `json:"xf_cc_curve"`

	Trigger          int     `json:"trigger"`
	Group            int     `json:"group"`
	OffBy            int     `json:"off_by"`
	OffMode          int     `json:"off_mode"`
	OffTime          float32 `json:"off_time"`
	SustainCC        int     `json:"sustain_cc"`
	SustainThreshold float32 `json:"sustain_threshold"`
	CheckSustain     bool    `json:"check_sustain"`

	AmpEG    EGSpec  `json:"amp_eg"`
	PitchEG  *EGSpec `json:"pitch_eg,omitempty"`
	FilterEG *EGSpec `json:"filter_eg,omitempty"`

	PitchLFO LFOSpec `json:"pitch_lfo"`
	AmpLFO   LFOSpec `json:"amp_lfo"`
	FilLFO   LFOSpec `json:"fil_lfo"`

	FlexEGs []FlexEGSpec `json:"flex_egs,omitempty"`

	Filters []FilterSpec `json:"filters,omitempty"`
	EQs     []EQSpec     `json:"eqs,omitempty"`

	OscillatorMulti    int     `json:"oscillator_multi"`
	OscillatorDetune   float32 `json:"oscillator_detune"`
	OscillatorModDepth float32 `json:"oscillator_mod_depth"`
	OscillatorMode     int     `json:"oscillator_mode"`
	OscillatorPhase    float32 `json:"oscillator_phase"`
}

// NewDefaultRegion returns a region with SFZ opcode defaults filled in.
func NewDefaultRegion() *Region {
	return &Region{
		KeyRange:         Range{0, 127},
		VelRange:         Range{0, 1},
		XFInKeyRange:     Range{0, 0},
		XFOutKeyRange:    Range{127, 127},
		XFInVelRange:     Range{0, 0},
		XFOutVelRange:    Range{1, 1},
		PitchKeycenter:   60,
		PitchKeytrack:    100,
		BendUp:           200,
		BendDown:         -200,
		BendStep:         1,
		Amplitude:        100,
		AmpVeltrack:      100,
		Width:            100,
		LoopEnd:          -1,
		SampleEnd:        -1,
		SustainCC:        64,
		SustainThreshold: 0.5,
		CheckSustain:     true,
		AmpEG:            DefaultAmpEG(),
		OscillatorMode:   -1,
	}
}

// IsOscillator reports whether the sample names a generator rather than a
// file on disk.
func (r *Region) IsOscillator() bool {
	return strings.HasPrefix(r.Sample, "*")
}

// GeneratorShape maps the sample name to a generator constant, or -1 for a
// file-backed wavetable name.
func (r *Region) GeneratorShape() int {
	switch r.Sample {
	case "*sine":
		return GeneratorSine
	case "*tri", "*triangle":
		return GeneratorTriangle
	case "*square":
		return GeneratorSquare
	case "*saw":
		return GeneratorSaw
	case "*noise":
		return GeneratorNoise
	case "*gnoise":
		return GeneratorGNoise
	case "*silence":
		return GeneratorSilence
	default:
		return -1
	}
}

// ShouldLoop reports whether the sampler path wraps at the loop end.
func (r *Region) ShouldLoop() bool {
	return (r.LoopMode == LoopContinuous || r.LoopMode == LoopSustain) && r.LoopEnd > r.LoopStart
}

// LoopStartScaled returns the loop start in oversampled frames.
func (r *Region) LoopStartScaled(factor int) int {
	return r.LoopStart * factor
}

// LoopEndScaled returns the loop end in oversampled frames.
func (r *Region) LoopEndScaled(factor int) int {
	return r.LoopEnd * factor
}

// TrueSampleEnd returns the end of the playable range in oversampled frames,
// exclusive and capped at sourceFrames, or sourceFrames when the region
// declares no end.
func (r *Region) TrueSampleEnd(factor, sourceFrames int) int {
	if r.SampleEnd < 0 {
		return sourceFrames
	}
	return minI(r.SampleEnd*factor, sourceFrames)
}

// OffsetScaled returns the playback start offset in oversampled frames.
func (r *Region) OffsetScaled(factor int) int {
	return r.Offset * factor
}

// GetBasePitchVariation returns the pitch ratio a note trigger earns from
// keytrack, tune, transpose, velocity tracking and the random dispersion.
func (r *Region) GetBasePitchVariation(fractionalKey, velocity float32, rng *rand.Rand) float32 {
	cents := r.PitchKeytrack * (fractionalKey - float32(r.PitchKeycenter))
	cents += r.Tune + r.Transpose*100.0
	cents += velocity * r.PitchVeltrack
	if r.PitchRandom > 0 && rng != nil {
		cents += (rng.Float32()*2.0 - 1.0) * r.PitchRandom
	}
	return centsFactorPrecise(cents)
}

// GetBendInCents maps a normalized pitch wheel value in [-1, 1] to cents.
func (r *Region) GetBendInCents(bend float32) float32 {
	if bend >= 0 {
		return bend * r.BendUp
	}
	return -bend * r.BendDown
}

// GetBaseGain returns the linear amplitude scale of the region.
func (r *Region) GetBaseGain() float32 {
	return normalizePercents(r.Amplitude)
}

// GetBaseVolumedB returns the region volume in dB. No release-trigger
// correction is applied.
func (r *Region) GetBaseVolumedB() float32 {
	return r.Volume
}

func velocityGain(velocity, veltrack float32) float32 {
	track := normalizePercents(veltrack)
	return 1.0 - track + track*velocity*velocity
}

// crossfadeIn maps value through an incoming crossfade range.
func crossfadeIn(r Range, value float32, curve int) float32 {
	if value < r.Lo {
		return 0
	}
	if value >= r.Hi || r.Hi <= r.Lo {
		return 1
	}
	pos := (value - r.Lo) / (r.Hi - r.Lo)
	if curve == CrossfadePower {
		return sqrtF(pos)
	}
	return pos
}

// crossfadeOut maps value through an outgoing crossfade range.
func crossfadeOut(r Range, value float32, curve int) float32 {
	if value < r.Lo || r.Hi <= r.Lo {
		return 1
	}
	if value > r.Hi {
		return 0
	}
	pos := 1.0 - (value-r.Lo)/(r.Hi-r.Lo)
	if curve == CrossfadePower {
		return sqrtF(pos)
	}
	return pos
}

// GetNoteGain returns the per-trigger gain from velocity tracking and the
// key and velocity crossfade ranges.
func (r *Region) GetNoteGain(key int, velocity float32) float32 {
	gain := velocityGain(velocity, r.AmpVeltrack)
	k := float32(key)
	gain *= crossfadeIn(r.XFInKeyRange, k, r.XFKeyCurve)
	gain *= crossfadeOut(r.XFOutKeyRange, k, r.XFKeyCurve)
	gain *= crossfadeIn(r.XFInVelRange, velocity, r.XFVelCurve)
	gain *= crossfadeOut(r.XFOutVelRange, velocity, r.XFVelCurve)
	return gain
}

// GetCrossfadeGain evaluates every CC crossfade range at the current
// controller values. Used to seed the crossfade smoother at voice start.
func (r *Region) GetCrossfadeGain(midiState *MidiState) float32 {
	gain := float32(1.0)
	for _, xf := range r.XFCCInRanges {
		gain *= crossfadeIn(xf.Range, midiState.GetCCValue(xf.CC), r.XFCCCurve)
	}
	for _, xf := range r.XFCCOutRanges {
		gain *= crossfadeOut(xf.Range, midiState.GetCCValue(xf.CC), r.XFCCCurve)
	}
	return gain
}
