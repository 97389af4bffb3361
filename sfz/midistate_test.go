package sfz

import "testing"

func TestMidiStateCCEventsStartAtBlockValue(t *testing.T) {
	m := NewMidiState()

	events := m.GetCCEvents(21)
	if len(events) != 1 || events[0].Delay != 0 || events[0].Value != 0 {
		t.Fatalf("untouched controller events: got=%v", events)
	}

	m.CCEvent(50, 21, 0.75)
	events = m.GetCCEvents(21)
	if len(events) != 2 {
		t.Fatalf("event count: got=%d want=2", len(events))
	}
	if events[0].Delay != 0 || events[0].Value != 0 {
		t.Errorf("block-start event: got=%v", events[0])
	}
	if events[1].Delay != 50 || events[1].Value != 0.75 {
		t.Errorf("recorded event: got=%v", events[1])
	}
	if got := m.GetCCValue(21); got != 0.75 {
		t.Errorf("current value: got=%v want=0.75", got)
	}
}

func TestMidiStateAdvanceBlockCollapses(t *testing.T) {
	m := NewMidiState()
	m.CCEvent(10, 1, 0.2)
	m.CCEvent(20, 1, 0.9)
	m.PitchBendEvent(30, -0.5)
	m.AdvanceBlock()

	events := m.GetCCEvents(1)
	if len(events) != 1 || events[0].Delay != 0 || events[0].Value != 0.9 {
		t.Errorf("collapsed CC events: got=%v", events)
	}
	pitch := m.GetPitchEvents()
	if len(pitch) != 1 || pitch[0].Delay != 0 || pitch[0].Value != -0.5 {
		t.Errorf("collapsed pitch events: got=%v", pitch)
	}
	if m.GetPitchBend() != -0.5 {
		t.Errorf("pitch bend value: got=%v", m.GetPitchBend())
	}
}

func TestMidiStateIgnoresOutOfRangeCC(t *testing.T) {
	m := NewMidiState()
	m.CCEvent(0, -1, 1.0)
	m.CCEvent(0, MaxCCNumber, 1.0)
	if got := m.GetCCValue(-1); got != 0 {
		t.Errorf("negative controller value: got=%v", got)
	}
	if events := m.GetCCEvents(MaxCCNumber); len(events) != 1 || events[0].Value != 0 {
		t.Errorf("out-of-range controller events: got=%v", events)
	}
}

func TestMidiStateTempoGuard(t *testing.T) {
	m := NewMidiState()
	if got := m.GetTempo(); got != 0.5 {
		t.Fatalf("default tempo: got=%v want=0.5", got)
	}
	m.TempoEvent(0, 0.25)
	if got := m.GetTempo(); got != 0.25 {
		t.Errorf("tempo update: got=%v", got)
	}
	m.TempoEvent(0, -1)
	if got := m.GetTempo(); got != 0.25 {
		t.Errorf("non-positive tempo accepted: got=%v", got)
	}
}
