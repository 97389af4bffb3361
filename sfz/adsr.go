package sfz

import "math"

// EGSpec describes a delay/attack/hold/decay/sustain/release envelope the way
// a region declares it. Times are in seconds, sustain is a level in [0, 1],
// the velocity tracking fields add seconds (or level) per unit velocity.
type EGSpec struct {
	Delay   float32 `json:"delay"`
	Attack  float32 `json:"attack"`
	Hold    float32 `json:"hold"`
	Decay   float32 `json:"decay"`
	Sustain float32 `json:"sustain"`
	Release float32 `json:"release"`
	Start   float32 `json:"start"`
	Depth   float32 `json:"depth"`

	Vel2Delay   float32 `json:"vel2delay"`
	Vel2Attack  float32 `json:"vel2attack"`
	Vel2Hold    float32 `json:"vel2hold"`
	Vel2Decay   float32 `json:"vel2decay"`
	Vel2Sustain float32 `json:"vel2sustain"`
	Vel2Release float32 `json:"vel2release"`
}

// DefaultAmpEG is the envelope used when a region declares none: instant
// attack, full sustain, near-instant release.
func DefaultAmpEG() EGSpec {
	return EGSpec{Sustain: 1.0, Release: 0.001}
}

type egStage int

const (
	egDelay egStage = iota
	egAttack
	egHold
	egDecay
	egSustain
	egRelease
	egDone
)

// ADSREnvelope generates the classic SFZ amplitude contour with a pre-attack
// delay and sample-accurate release scheduling.
type ADSREnvelope struct {
	sampleRate float32

	delay   int
	attack  int
	hold    int
	decay   int
	release int
	sustain float32
	start   float32

	stage        egStage
	position     int
	value        float32
	decayRate    float32
	releaseRate  float32
	releaseAt    int
	released     bool
	sustainGone  bool
}

func secondsToSamples(seconds, sampleRate float32) int {
	if seconds <= 0 {
		return 0
	}
	return int(seconds * sampleRate)
}

func expRate(from, to float32, samples int) float32 {
	if samples <= 0 {
		return 0
	}
	if from < egMinimumLevel {
		from = egMinimumLevel
	}
	if to < egMinimumLevel {
		to = egMinimumLevel
	}
	return float32(math.Exp(math.Log(float64(to/from)) / float64(samples)))
}

// Reset rearms the envelope from a spec, an extra trigger delay in samples
// and the trigger velocity.
func (eg *ADSREnvelope) Reset(spec EGSpec, delay int, velocity, sampleRate float32) {
	eg.sampleRate = sampleRate
	eg.delay = delay + secondsToSamples(spec.Delay+velocity*spec.Vel2Delay, sampleRate)
	eg.attack = secondsToSamples(spec.Attack+velocity*spec.Vel2Attack, sampleRate)
	eg.hold = secondsToSamples(spec.Hold+velocity*spec.Vel2Hold, sampleRate)
	eg.decay = secondsToSamples(spec.Decay+velocity*spec.Vel2Decay, sampleRate)
	eg.release = secondsToSamples(spec.Release+velocity*spec.Vel2Release, sampleRate)
	eg.sustain = clampF(spec.Sustain+velocity*spec.Vel2Sustain, 0.0, 1.0)
	eg.start = clampF(spec.Start, 0.0, 1.0)

	eg.stage = egDelay
	eg.position = 0
	eg.value = eg.start
	eg.decayRate = expRate(1.0, eg.sustain, eg.decay)
	eg.releaseAt = -1
	eg.released = false
	eg.sustainGone = eg.sustain < egMinimumLevel
	eg.setReleaseRate()
}

func (eg *ADSREnvelope) setReleaseRate() {
	eg.releaseRate = expRate(1.0, egMinimumLevel, eg.release)
}

// SetReleaseTime overrides the release time, in seconds, keeping the rest of
// the envelope untouched.
func (eg *ADSREnvelope) SetReleaseTime(seconds float32) {
	eg.release = secondsToSamples(seconds, eg.sampleRate)
	eg.setReleaseRate()
}

// StartRelease schedules the release stage at the given sample offset of the
// next rendered block.
func (eg *ADSREnvelope) StartRelease(delay int) {
	if delay < 0 {
		delay = 0
	}
	eg.releaseAt = delay
	eg.released = true
}

// GetRemainingDelay returns how many pre-attack delay samples are left.
func (eg *ADSREnvelope) GetRemainingDelay() int {
	if eg.stage != egDelay {
		return 0
	}
	return eg.delay - eg.position
}

// IsSmoothing reports whether the envelope still produces output.
func (eg *ADSREnvelope) IsSmoothing() bool {
	return eg.stage != egDone
}

// IsReleased reports whether release has been triggered.
func (eg *ADSREnvelope) IsReleased() bool {
	return eg.released
}

// Value returns the current envelope level.
func (eg *ADSREnvelope) Value() float32 {
	return eg.value
}

func (eg *ADSREnvelope) enterRelease() {
	if eg.stage == egDone {
		return
	}
	eg.stage = egRelease
	eg.position = 0
	if eg.release <= 0 {
		eg.value = 0
		eg.stage = egDone
	}
}

// GetBlock fills span with the envelope contour, advancing the internal
// clock by len(span) samples.
func (eg *ADSREnvelope) GetBlock(span []float32) {
	for i := range span {
		if eg.releaseAt >= 0 && i >= eg.releaseAt {
			eg.releaseAt = -1
			eg.enterRelease()
		}
		span[i] = eg.tick()
	}
	if eg.releaseAt >= 0 {
		// Release scheduled past this block.
		eg.releaseAt -= len(span)
		if eg.releaseAt < 0 {
			eg.releaseAt = 0
		}
	}
}

func (eg *ADSREnvelope) tick() float32 {
	switch eg.stage {
	case egDelay:
		if eg.position < eg.delay {
			eg.position++
			return 0
		}
		eg.stage = egAttack
		eg.position = 0
		fallthrough
	case egAttack:
		if eg.attack <= 0 {
			eg.value = 1.0
		} else {
			eg.value = eg.start + (1.0-eg.start)*float32(eg.position)/float32(eg.attack)
			eg.position++
			if eg.position <= eg.attack {
				return eg.value
			}
			eg.value = 1.0
		}
		eg.stage = egHold
		eg.position = 0
		fallthrough
	case egHold:
		if eg.position < eg.hold {
			eg.position++
			return 1.0
		}
		eg.stage = egDecay
		eg.position = 0
		fallthrough
	case egDecay:
		floor := eg.sustain
		if floor < egMinimumLevel {
			floor = egMinimumLevel
		}
		if eg.decay > 0 && eg.value > floor {
			eg.value *= eg.decayRate
			if eg.value > floor {
				return eg.value
			}
		}
		eg.value = eg.sustain
		if eg.sustainGone {
			eg.stage = egDone
			eg.value = 0
			return 0
		}
		eg.stage = egSustain
		fallthrough
	case egSustain:
		return eg.sustain
	case egRelease:
		if eg.release > 0 {
			eg.value *= eg.releaseRate
			if eg.value >= egMinimumLevel {
				return eg.value
			}
		}
		eg.stage = egDone
		eg.value = 0
		return 0
	default:
		return 0
	}
}
