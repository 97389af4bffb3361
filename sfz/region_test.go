package sfz

import (
	"math"
	"testing"
)

func TestDefaultRegionOpcodeDefaults(t *testing.T) {
	r := NewDefaultRegion()
	if r.PitchKeycenter != 60 || r.PitchKeytrack != 100 {
		t.Errorf("pitch defaults: keycenter=%d keytrack=%v", r.PitchKeycenter, r.PitchKeytrack)
	}
	if r.BendUp != 200 || r.BendDown != -200 || r.BendStep != 1 {
		t.Errorf("bend defaults: up=%v down=%v step=%d", r.BendUp, r.BendDown, r.BendStep)
	}
	if r.Amplitude != 100 || r.AmpVeltrack != 100 || r.Width != 100 {
		t.Errorf("gain defaults: amplitude=%v veltrack=%v width=%v", r.Amplitude, r.AmpVeltrack, r.Width)
	}
	if r.LoopEnd != -1 || r.SampleEnd != -1 {
		t.Errorf("end defaults: loop_end=%d sample_end=%d", r.LoopEnd, r.SampleEnd)
	}
	if r.SustainCC != 64 || !r.CheckSustain {
		t.Errorf("sustain defaults: cc=%d check=%v", r.SustainCC, r.CheckSustain)
	}
	if r.AmpEG.Sustain != 1.0 {
		t.Errorf("amp EG sustain default: got=%v", r.AmpEG.Sustain)
	}
}

func TestBasePitchVariation(t *testing.T) {
	r := NewDefaultRegion()
	r.PitchKeycenter = 60

	if got := r.GetBasePitchVariation(60, 0, nil); math.Abs(float64(got)-1.0) > 1e-4 {
		t.Errorf("keycenter ratio: got=%v want=1", got)
	}
	// One octave above keycenter doubles the playback ratio.
	if got := r.GetBasePitchVariation(72, 0, nil); math.Abs(float64(got)-2.0) > 1e-3 {
		t.Errorf("octave ratio: got=%v want=2", got)
	}

	r.Transpose = 12
	if got := r.GetBasePitchVariation(60, 0, nil); math.Abs(float64(got)-2.0) > 1e-3 {
		t.Errorf("transpose ratio: got=%v want=2", got)
	}
	r.Transpose = 0
	r.Tune = 100
	want := math.Pow(2.0, 1.0/12.0)
	if got := r.GetBasePitchVariation(60, 0, nil); math.Abs(float64(got)-want) > 1e-3 {
		t.Errorf("tune ratio: got=%v want=%v", got, want)
	}

	r.Tune = 0
	r.PitchKeytrack = 0
	if got := r.GetBasePitchVariation(72, 0, nil); math.Abs(float64(got)-1.0) > 1e-4 {
		t.Errorf("zero keytrack still tracked: got=%v", got)
	}

	r.PitchVeltrack = 1200
	if got := r.GetBasePitchVariation(60, 1.0, nil); math.Abs(float64(got)-2.0) > 1e-3 {
		t.Errorf("veltrack ratio: got=%v want=2", got)
	}
}

func TestBendInCentsAsymmetric(t *testing.T) {
	r := NewDefaultRegion()
	r.BendUp = 1200
	r.BendDown = -200

	if got := r.GetBendInCents(1.0); got != 1200 {
		t.Errorf("full bend up: got=%v want=1200", got)
	}
	if got := r.GetBendInCents(-1.0); got != -200 {
		t.Errorf("full bend down: got=%v want=-200", got)
	}
	if got := r.GetBendInCents(0.5); got != 600 {
		t.Errorf("half bend up: got=%v want=600", got)
	}
	if got := r.GetBendInCents(0); got != 0 {
		t.Errorf("centered wheel: got=%v want=0", got)
	}
}

func TestVelocityGainCurve(t *testing.T) {
	if got := velocityGain(1.0, 100); got != 1.0 {
		t.Errorf("full velocity full track: got=%v want=1", got)
	}
	if got := velocityGain(0.5, 100); got != 0.25 {
		t.Errorf("half velocity full track: got=%v want=0.25", got)
	}
	if got := velocityGain(0.1, 0); got != 1.0 {
		t.Errorf("zero track: got=%v want=1", got)
	}
	// Negative tracking boosts soft notes above unity.
	if got := velocityGain(0, -100); got != 2.0 {
		t.Errorf("inverted track at zero velocity: got=%v want=2", got)
	}
}

func TestCrossfadeCurves(t *testing.T) {
	in := Range{10, 20}
	if got := crossfadeIn(in, 5, CrossfadeGain); got != 0 {
		t.Errorf("below fade-in: got=%v", got)
	}
	if got := crossfadeIn(in, 25, CrossfadeGain); got != 1 {
		t.Errorf("above fade-in: got=%v", got)
	}
	if got := crossfadeIn(in, 15, CrossfadeGain); got != 0.5 {
		t.Errorf("fade-in midpoint: got=%v want=0.5", got)
	}
	if got := crossfadeIn(in, 15, CrossfadePower); math.Abs(float64(got)-math.Sqrt(0.5)) > 1e-5 {
		t.Errorf("power fade-in midpoint: got=%v", got)
	}

	out := Range{10, 20}
	if got := crossfadeOut(out, 5, CrossfadeGain); got != 1 {
		t.Errorf("below fade-out: got=%v", got)
	}
	if got := crossfadeOut(out, 25, CrossfadeGain); got != 0 {
		t.Errorf("above fade-out: got=%v", got)
	}
	if got := crossfadeOut(out, 15, CrossfadeGain); got != 0.5 {
		t.Errorf("fade-out midpoint: got=%v want=0.5", got)
	}

	// A degenerate range never divides by zero: the fade-in becomes a hard
	// edge and the fade-out stays fully open.
	edge := Range{10, 10}
	if got := crossfadeIn(edge, 10, CrossfadeGain); got != 1 {
		t.Errorf("degenerate fade-in at edge: got=%v", got)
	}
	if got := crossfadeOut(edge, 11, CrossfadeGain); got != 1 {
		t.Errorf("degenerate fade-out: got=%v", got)
	}
}

func TestNoteGainCombinesCrossfades(t *testing.T) {
	r := NewDefaultRegion()
	r.AmpVeltrack = 0
	r.XFInKeyRange = Range{40, 60}

	if got := r.GetNoteGain(30, 1.0); got != 0 {
		t.Errorf("key below fade-in audible: got=%v", got)
	}
	if got := r.GetNoteGain(50, 1.0); got != 0.5 {
		t.Errorf("key fade midpoint: got=%v want=0.5", got)
	}
	if got := r.GetNoteGain(70, 1.0); got != 1.0 {
		t.Errorf("key above fade-in: got=%v want=1", got)
	}

	r.XFInVelRange = Range{0, 1}
	if got := r.GetNoteGain(70, 0.5); got != 0.5 {
		t.Errorf("velocity fade midpoint: got=%v want=0.5", got)
	}
}

func TestCrossfadeGainReadsControllers(t *testing.T) {
	state := NewMidiState()
	r := NewDefaultRegion()
	r.XFCCInRanges = []CCRange{{CC: 1, Range: Range{0, 1}}}
	r.XFCCOutRanges = []CCRange{{CC: 2, Range: Range{0, 1}}}

	if got := r.GetCrossfadeGain(state); got != 0 {
		t.Errorf("fade-in open with controller at zero: got=%v", got)
	}
	state.CCEvent(0, 1, 1.0)
	if got := r.GetCrossfadeGain(state); got != 1.0 {
		t.Errorf("both fades at full: got=%v want=1", got)
	}
	state.CCEvent(0, 2, 1.0)
	if got := r.GetCrossfadeGain(state); got != 0 {
		t.Errorf("fade-out closed: got=%v want=0", got)
	}
}

func TestGeneratorShapeNames(t *testing.T) {
	cases := []struct {
		sample string
		want   int
	}{
		{"*sine", GeneratorSine},
		{"*tri", GeneratorTriangle},
		{"*triangle", GeneratorTriangle},
		{"*square", GeneratorSquare},
		{"*saw", GeneratorSaw},
		{"*noise", GeneratorNoise},
		{"*gnoise", GeneratorGNoise},
		{"*silence", GeneratorSilence},
		{"*custom_table", -1},
	}
	for _, c := range cases {
		r := NewDefaultRegion()
		r.Sample = c.sample
		if !r.IsOscillator() {
			t.Errorf("%s not recognized as oscillator", c.sample)
		}
		if got := r.GeneratorShape(); got != c.want {
			t.Errorf("%s shape: got=%d want=%d", c.sample, got, c.want)
		}
	}
	r := NewDefaultRegion()
	r.Sample = "piano.wav"
	if r.IsOscillator() {
		t.Errorf("file sample flagged as oscillator")
	}
}

func TestLoopAndEndGeometry(t *testing.T) {
	r := NewDefaultRegion()
	if r.ShouldLoop() {
		t.Errorf("default region loops")
	}
	r.LoopMode = LoopContinuous
	r.LoopStart = 100
	r.LoopEnd = 50
	if r.ShouldLoop() {
		t.Errorf("inverted loop points accepted")
	}
	r.LoopEnd = 400
	if !r.ShouldLoop() {
		t.Errorf("continuous loop rejected")
	}
	if got := r.LoopStartScaled(2); got != 200 {
		t.Errorf("scaled loop start: got=%d want=200", got)
	}
	if got := r.LoopEndScaled(2); got != 800 {
		t.Errorf("scaled loop end: got=%d want=800", got)
	}

	if got := r.TrueSampleEnd(2, 1000); got != 1000 {
		t.Errorf("open-ended sample end: got=%d want=1000", got)
	}
	r.SampleEnd = 300
	if got := r.TrueSampleEnd(2, 1000); got != 600 {
		t.Errorf("declared sample end: got=%d want=600", got)
	}
	if got := r.TrueSampleEnd(2, 500); got != 500 {
		t.Errorf("sample end past data: got=%d want=500", got)
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{10, 20}
	if !r.Contains(10) || !r.Contains(20) || !r.Contains(15) {
		t.Errorf("closed interval membership failed")
	}
	if r.Contains(9.99) || r.Contains(20.01) {
		t.Errorf("out-of-range value accepted")
	}
}
