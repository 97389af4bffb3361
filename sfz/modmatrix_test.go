package sfz

import (
	"math"
	"testing"
)

func TestModMatrixUnconnectedReturnsNil(t *testing.T) {
	state := NewMidiState()
	m := NewBasicModMatrix(state)
	m.BeginBlock(testBlockSize)
	if span := m.GetModulationSpan(ModKey{TargetPitch, 0, 0}, testBlockSize); span != nil {
		t.Fatalf("unconnected key produced a span")
	}
}

func TestModMatrixScalesByDepth(t *testing.T) {
	state := NewMidiState()
	m := NewBasicModMatrix(state)
	key := ModKey{TargetFilterCutoff, 7, 1}
	m.Connect(Connection{CC: 74, Depth: 9600, Target: key})

	state.CCEvent(0, 74, 0.5)
	state.AdvanceBlock()
	m.BeginBlock(128)

	span := m.GetModulationSpan(key, 128)
	if span == nil {
		t.Fatalf("connected key returned nil")
	}
	for i, v := range span {
		if math.Abs(float64(v)-4800.0) > 0.5 {
			t.Fatalf("flat controller span at frame %d: got=%v want=4800", i, v)
		}
	}
}

func TestModMatrixInterpolatesAcrossEvents(t *testing.T) {
	state := NewMidiState()
	m := NewBasicModMatrix(state)
	key := ModKey{TargetAmplitude, 0, 0}
	m.Connect(Connection{CC: 11, Depth: 1.0, Target: key})

	// Ramp from 0 at block start to 1 at frame 100, then hold.
	state.CCEvent(100, 11, 1.0)
	m.BeginBlock(256)

	span := m.GetModulationSpan(key, 256)
	if span == nil {
		t.Fatalf("connected key returned nil")
	}
	if span[0] >= span[50] || span[50] >= span[99] {
		t.Errorf("ramp not increasing: %v %v %v", span[0], span[50], span[99])
	}
	if math.Abs(float64(span[50])-0.5) > 0.05 {
		t.Errorf("ramp midpoint: got=%v want near 0.5", span[50])
	}
	for i := 100; i < 256; i++ {
		if span[i] != 1.0 {
			t.Fatalf("hold after event at frame %d: got=%v want=1", i, span[i])
		}
	}
}

func TestModMatrixShortSpanRequest(t *testing.T) {
	state := NewMidiState()
	m := NewBasicModMatrix(state)
	key := ModKey{TargetPan, 3, 0}
	m.Connect(Connection{CC: 10, Depth: 100, Target: key})
	m.BeginBlock(64)

	if span := m.GetModulationSpan(key, 32); len(span) != 32 {
		t.Fatalf("sub-span length: got=%d want=32", len(span))
	}
	if span := m.GetModulationSpan(key, 128); span != nil {
		t.Fatalf("oversized request returned a stale span")
	}
}

func TestModMatrixClearConnections(t *testing.T) {
	state := NewMidiState()
	m := NewBasicModMatrix(state)
	key := ModKey{TargetVolume, 0, 0}
	m.Connect(Connection{CC: 7, Depth: 6, Target: key})
	m.BeginBlock(64)
	if m.GetModulationSpan(key, 64) == nil {
		t.Fatalf("connection did not take")
	}

	m.ClearConnections()
	m.BeginBlock(64)
	if m.GetModulationSpan(key, 64) != nil {
		t.Fatalf("cleared connection still live")
	}
}
