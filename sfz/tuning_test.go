package sfz

import (
	"math"
	"testing"
)

func TestTuningEqualTemperament(t *testing.T) {
	tn := NewTuning()
	if got := tn.GetFrequencyOfKey(69); math.Abs(float64(got)-440.0) > 0.01 {
		t.Errorf("A4: got=%v want=440", got)
	}
	if got := tn.GetFrequencyOfKey(81); math.Abs(float64(got)-880.0) > 0.05 {
		t.Errorf("A5: got=%v want=880", got)
	}
	if got := tn.GetFrequencyOfKey(60); math.Abs(float64(got)-261.626) > 0.05 {
		t.Errorf("middle C: got=%v want=261.626", got)
	}
}

func TestTuningReferenceShift(t *testing.T) {
	tn := NewTuning()
	tn.SetFrequency(432)
	if got := tn.Frequency(); got != 432 {
		t.Fatalf("reference: got=%v want=432", got)
	}
	if got := tn.GetFrequencyOfKey(69); math.Abs(float64(got)-432.0) > 0.01 {
		t.Errorf("A4 at 432 reference: got=%v", got)
	}
	tn.SetFrequency(0)
	if tn.Frequency() != 432 {
		t.Errorf("non-positive reference accepted")
	}
}

func TestTuningScalaOffsets(t *testing.T) {
	tn := NewTuning()
	tn.SetScalaCentsOffset(69, 100)
	if got := tn.GetKeyFractional12TET(69); math.Abs(float64(got)-70.0) > 1e-5 {
		t.Errorf("fractional key with +100 cents: got=%v want=70", got)
	}
	want := 440.0 * math.Pow(2.0, 1.0/12.0)
	if got := tn.GetFrequencyOfKey(69); math.Abs(float64(got)-want) > 0.05 {
		t.Errorf("offset key frequency: got=%v want=%v", got, want)
	}
	if got := tn.GetKeyFractional12TET(70); got != 70 {
		t.Errorf("untouched key shifted: got=%v", got)
	}

	// Out-of-range keys are ignored, not clamped into the table.
	tn.SetScalaCentsOffset(-1, 500)
	tn.SetScalaCentsOffset(128, 500)
	if got := tn.GetKeyFractional12TET(0); got != 0 {
		t.Errorf("out-of-range offset leaked: got=%v", got)
	}
}

func TestStretchTuningCurve(t *testing.T) {
	st := NewStretchTuning(0)
	if got := st.GetRatioForFractionalKey(100); got != 1.0 {
		t.Errorf("zero stretch bent pitch: got=%v", got)
	}

	st.SetStretch(1.0)
	low := st.GetRatioForFractionalKey(20)
	center := st.GetRatioForFractionalKey(63.5)
	high := st.GetRatioForFractionalKey(110)
	if math.Abs(float64(center)-1.0) > 1e-5 {
		t.Errorf("center ratio: got=%v want=1", center)
	}
	if low >= 1.0 {
		t.Errorf("low keys not pulled flat: got=%v", low)
	}
	if high <= 1.0 {
		t.Errorf("high keys not pushed sharp: got=%v", high)
	}

	// Stretch amount is clamped to [0, 1].
	st.SetStretch(5)
	capped := st.GetRatioForFractionalKey(127)
	maxCents := 50.0 * math.Pow(float64(127-63.5)/63.5, 3)
	if got := 1200.0 * math.Log2(float64(capped)); got > maxCents+0.1 {
		t.Errorf("stretch not clamped: got=%v cents want<=%v", got, maxCents)
	}
}
