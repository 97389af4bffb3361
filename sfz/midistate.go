package sfz

// Event is a controller change timestamped in samples relative to the
// current block start.
type Event struct {
	Delay int
	Value float32
}

// MidiState tracks controller, pitch bend and channel pressure values along
// with their per-block event lists. The engine feeds events in before voices
// render; voices read the state but never mutate it. Every event list always
// begins with a delay-0 event carrying the value at block start, so envelope
// builders can assume a defined starting point.
type MidiState struct {
	ccValues    [MaxCCNumber]float32
	ccEvents    [MaxCCNumber][]Event
	pitchBend   float32
	pitchEvents []Event
	aftertouch  float32
	tempo       float32 // seconds per quarter note
	activeCCs   []int
}

// NewMidiState creates a state with all controllers at zero.
func NewMidiState() *MidiState {
	m := &MidiState{
		pitchEvents: make([]Event, 0, 16),
		activeCCs:   make([]int, 0, 16),
		tempo:       0.5,
	}
	m.pitchEvents = append(m.pitchEvents, Event{0, 0})
	return m
}

// CCEvent records a controller change at the given block offset.
func (m *MidiState) CCEvent(delay, cc int, value float32) {
	if cc < 0 || cc >= MaxCCNumber {
		return
	}
	if m.ccEvents[cc] == nil {
		m.ccEvents[cc] = make([]Event, 0, 16)
		m.ccEvents[cc] = append(m.ccEvents[cc], Event{0, m.ccValues[cc]})
		m.activeCCs = append(m.activeCCs, cc)
	}
	m.ccEvents[cc] = append(m.ccEvents[cc], Event{delay, value})
	m.ccValues[cc] = value
}

// PitchBendEvent records a pitch wheel change in [-1, 1].
func (m *MidiState) PitchBendEvent(delay int, value float32) {
	m.pitchEvents = append(m.pitchEvents, Event{delay, value})
	m.pitchBend = value
}

// ChannelAftertouchEvent records channel pressure in [0, 1].
func (m *MidiState) ChannelAftertouchEvent(delay int, value float32) {
	m.aftertouch = value
}

// TempoEvent records the host tempo in seconds per quarter note.
func (m *MidiState) TempoEvent(delay int, spq float32) {
	if spq > 0 {
		m.tempo = spq
	}
}

// GetCCValue returns the current value of a controller.
func (m *MidiState) GetCCValue(cc int) float32 {
	if cc < 0 || cc >= MaxCCNumber {
		return 0
	}
	return m.ccValues[cc]
}

// GetCCEvents returns the time-ordered events of a controller for the current
// block. The slice always starts with a delay-0 event.
func (m *MidiState) GetCCEvents(cc int) []Event {
	if cc < 0 || cc >= MaxCCNumber || m.ccEvents[cc] == nil {
		return []Event{{0, m.GetCCValue(cc)}}
	}
	return m.ccEvents[cc]
}

// GetPitchEvents returns the pitch bend events for the current block.
func (m *MidiState) GetPitchEvents() []Event {
	return m.pitchEvents
}

// GetPitchBend returns the current pitch bend value in [-1, 1].
func (m *MidiState) GetPitchBend() float32 {
	return m.pitchBend
}

// GetChannelAftertouch returns the current channel pressure.
func (m *MidiState) GetChannelAftertouch() float32 {
	return m.aftertouch
}

// GetTempo returns the current tempo in seconds per quarter note.
func (m *MidiState) GetTempo() float32 {
	return m.tempo
}

// AdvanceBlock discards the block-local event lists, collapsing each back to
// a single delay-0 event at the current value. Call once per rendered block,
// after all voices have run.
func (m *MidiState) AdvanceBlock() {
	for _, cc := range m.activeCCs {
		m.ccEvents[cc] = m.ccEvents[cc][:1]
		m.ccEvents[cc][0] = Event{0, m.ccValues[cc]}
	}
	m.pitchEvents = m.pitchEvents[:1]
	m.pitchEvents[0] = Event{0, m.pitchBend}
}
