package sfz

import "math"

// Flex envelope destinations.
const (
	FlexTargetAmplitude = iota
	FlexTargetPitch
)

// FlexPoint is one segment endpoint of a flexible envelope: reach Level over
// Time seconds, with Shape bending the segment (1 = linear, >1 slow start,
// <1 fast start).
type FlexPoint struct {
	Time  float32 `json:"time"`
	Level float32 `json:"level"`
	Shape float32 `json:"shape"`
}

// FlexEGSpec is a multi-point envelope a region may attach to a voice slot.
// The envelope holds at the sustain point until release. Depth units follow
// the target: linear gain scale for amplitude, cents for pitch.
type FlexEGSpec struct {
	Points       []FlexPoint `json:"points"`
	SustainPoint int         `json:"sustain_point"`
	Target       int         `json:"target"`
	Depth        float32     `json:"depth"`
}

// FlexEnvelope is one flexible EG slot of a voice.
type FlexEnvelope struct {
	sampleRate float32
	spec       FlexEGSpec
	configured bool

	segment    int
	segmentPos int
	segmentLen int
	fromLevel  float32
	value      float32
	released   bool
	finished   bool
}

// SetSampleRate updates the envelope clock. Non-realtime.
func (eg *FlexEnvelope) SetSampleRate(sampleRate float32) {
	eg.sampleRate = sampleRate
}

// Configure arms the slot from a region spec; call at voice start.
func (eg *FlexEnvelope) Configure(spec FlexEGSpec) {
	eg.spec = spec
	eg.configured = len(spec.Points) > 0
	eg.segment = 0
	eg.segmentPos = 0
	eg.fromLevel = 0
	eg.value = 0
	eg.released = false
	eg.finished = false
	if eg.configured {
		eg.segmentLen = secondsToSamples(spec.Points[0].Time, eg.sampleRate)
	}
}

// Clear disarms the slot.
func (eg *FlexEnvelope) Clear() {
	eg.configured = false
}

// Configured reports whether the slot is armed.
func (eg *FlexEnvelope) Configured() bool {
	return eg.configured
}

// Target returns the configured destination.
func (eg *FlexEnvelope) Target() int {
	return eg.spec.Target
}

// Depth returns the configured modulation depth.
func (eg *FlexEnvelope) Depth() float32 {
	return eg.spec.Depth
}

// Release lets the envelope run past its sustain point.
func (eg *FlexEnvelope) Release() {
	eg.released = true
}

func (eg *FlexEnvelope) tick() float32 {
	if eg.finished || !eg.configured {
		return eg.value
	}
	points := eg.spec.Points
	if eg.segment >= len(points) {
		eg.finished = true
		return eg.value
	}

	// Hold at the sustain point until released.
	if !eg.released && eg.segment == eg.spec.SustainPoint && eg.segmentPos >= eg.segmentLen {
		return eg.value
	}

	pt := points[eg.segment]
	if eg.segmentLen <= 0 {
		eg.value = pt.Level
	} else {
		t := float32(eg.segmentPos) / float32(eg.segmentLen)
		if pt.Shape > 0 && pt.Shape != 1.0 {
			t = float32(math.Pow(float64(t), float64(pt.Shape)))
		}
		eg.value = eg.fromLevel + (pt.Level-eg.fromLevel)*t
	}
	eg.segmentPos++
	if eg.segmentPos > eg.segmentLen {
		eg.value = pt.Level
		if eg.segment == eg.spec.SustainPoint && !eg.released {
			return eg.value
		}
		eg.fromLevel = pt.Level
		eg.segment++
		eg.segmentPos = 0
		if eg.segment < len(points) {
			eg.segmentLen = secondsToSamples(points[eg.segment].Time, eg.sampleRate)
		} else {
			eg.finished = true
		}
	}
	return eg.value
}

// Process fills span with the raw envelope contour.
func (eg *FlexEnvelope) Process(span []float32) {
	for i := range span {
		span[i] = eg.tick()
	}
}
