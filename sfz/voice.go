package sfz

import "math/rand"

// VoiceState is the lifecycle state of a voice slot.
type VoiceState int

// Voice lifecycle states.
const (
	VoiceIdle VoiceState = iota
	VoicePlaying
	VoiceCleanMeUp
)

// Trigger event kinds.
const (
	TriggerEventNoteOn = iota
	TriggerEventCC
)

// TriggerEvent is the MIDI-level event that started a voice. Number is the
// note or controller number, Value the normalized velocity or CC value.
type TriggerEvent struct {
	Type   int
	Number int
	Value  float32
}

// StateListener observes voice state transitions.
type StateListener func(voiceID int, state VoiceState)

// Resources bundles the engine-wide collaborators every voice borrows. Config
// and BufferPool must be set, and Rand must be set for regions that use a
// noise generator. The other fields may be nil; a voice degrades to the
// matching feature being absent.
type Resources struct {
	MidiState  *MidiState
	ModMatrix  ModMatrix
	FilePool   *FilePool
	WavePool   *WavePool
	BufferPool *BufferPool
	Tuning     *Tuning
	Stretch    *StretchTuning
	Config     *Config
	Rand       *rand.Rand
}

// NewResources builds a default collaborator set at the given clock.
func NewResources(sampleRate float32, samplesPerBlock int) *Resources {
	config := NewDefaultConfig()
	return &Resources{
		MidiState:  NewMidiState(),
		FilePool:   NewFilePool(config.OversamplingRatio),
		WavePool:   NewWavePool(sampleRate),
		BufferPool: NewBufferPool(16, samplesPerBlock),
		Tuning:     NewTuning(),
		Config:     config,
		Rand:       rand.New(rand.NewSource(1)),
	}
}

// LFO slot assignments.
const (
	lfoPitch = iota
	lfoAmp
	lfoFil
)

// Voice renders one triggered region. All rendering methods run on the audio
// thread; configuration methods only while the voice is idle.
type Voice struct {
	id        int
	state     VoiceState
	listener  StateListener
	resources *Resources

	region  *Region
	promise *FilePromise
	trigger TriggerEvent

	triggerNote     int
	triggerVelocity float32
	noteIsOff       bool

	sampleRate      float32
	samplesPerBlock int

	pitchRatio    float32
	speedRatio    float32
	bendStepCents float32

	sourcePosition      int
	floatPositionOffset float32
	initialDelay        int
	triggerDelay        int
	age                 int

	baseGain     float32
	baseVolumedB float32

	gainSmoother  Smoother
	bendSmoother  Smoother
	xfadeSmoother Smoother

	egAmplitude   ADSREnvelope
	egPitch       ADSREnvelope
	egFilter      ADSREnvelope
	egPitchOn     bool
	egFilterOn    bool
	egPitchArmed  bool
	egFilterArmed bool

	oscillators     [OscillatorsPerVoice]WavetableOscillator
	waveUnisonSize  int
	waveDetuneRatio [OscillatorsPerVoice]float32
	waveLeftGain    [OscillatorsPerVoice]float32
	waveRightGain   [OscillatorsPerVoice]float32

	filters []FilterHolder
	eqs     []EQHolder
	lfos    []LFO
	flexEGs []FlexEnvelope

	ampModKey      ModKey
	panModKey      ModKey
	widthModKey    ModKey
	positionModKey ModKey
	volumeModKey   ModKey
	pitchModKey    ModKey
	oscDetuneKey   ModKey
	oscDepthKey    ModKey

	sampleQuality int

	powerFollower PowerFollower
	nextSister    *Voice
	prevSister    *Voice
}

// NewVoice creates an idle voice wired to the shared resources.
func NewVoice(id int, resources *Resources) *Voice {
	v := &Voice{
		id:              id,
		resources:       resources,
		sampleRate:      defaultSampleRate,
		samplesPerBlock: defaultSamplesPerBlock,
		triggerDelay:    -1,
		filters:         make([]FilterHolder, DefaultFiltersPerVoice),
		eqs:             make([]EQHolder, DefaultEQsPerVoice),
		lfos:            make([]LFO, DefaultLFOsPerVoice),
		flexEGs:         make([]FlexEnvelope, DefaultFlexEGsPerVoice),
	}
	v.nextSister = v
	v.prevSister = v
	v.applyClock()
	return v
}

func (v *Voice) applyClock() {
	v.gainSmoother.SetSmoothing(gainSmoothingTime, v.sampleRate)
	v.bendSmoother.SetSmoothing(gainSmoothingTime, v.sampleRate)
	v.xfadeSmoother.SetSmoothing(xfadeSmoothingTime, v.sampleRate)
	for i := range v.filters {
		v.filters[i].SetSampleRate(v.sampleRate)
	}
	for i := range v.eqs {
		v.eqs[i].SetSampleRate(v.sampleRate)
	}
	for i := range v.lfos {
		v.lfos[i].SetSampleRate(v.sampleRate)
	}
	for i := range v.flexEGs {
		v.flexEGs[i].SetSampleRate(v.sampleRate)
	}
	for i := range v.oscillators {
		v.oscillators[i].SetSampleRate(v.sampleRate)
	}
	v.powerFollower.SetSampleRate(v.sampleRate)
	v.powerFollower.SetSamplesPerBlock(v.samplesPerBlock)
}

// SetStateListener installs a transition observer.
func (v *Voice) SetStateListener(listener StateListener) {
	v.listener = listener
}

func (v *Voice) switchState(state VoiceState) {
	if v.state == state {
		return
	}
	v.state = state
	if v.listener != nil {
		v.listener(v.id, state)
	}
}

// State returns the current lifecycle state.
func (v *Voice) State() VoiceState {
	return v.state
}

// ID returns the voice slot number.
func (v *Voice) ID() int {
	return v.id
}

// IsFree reports whether the voice can take a new trigger.
func (v *Voice) IsFree() bool {
	return v.state == VoiceIdle
}

// ReleasedOrFree reports whether the voice no longer holds its note.
func (v *Voice) ReleasedOrFree() bool {
	return v.state != VoicePlaying || v.egAmplitude.IsReleased()
}

// GetRegion returns the region being played, or nil when idle.
func (v *Voice) GetRegion() *Region {
	return v.region
}

// GetTriggerEvent returns the event that started the voice.
func (v *Voice) GetTriggerEvent() TriggerEvent {
	return v.trigger
}

// GetSourcePosition returns the integer playback cursor.
func (v *Voice) GetSourcePosition() int {
	return v.sourcePosition
}

// GetAveragePower returns the power follower reading, the voice stealing
// score.
func (v *Voice) GetAveragePower() float32 {
	return v.powerFollower.AveragePower()
}

// GetCurrentSampleQuality returns the interpolation quality in effect.
func (v *Voice) GetCurrentSampleQuality() int {
	return v.sampleQuality
}

// GetAge returns the number of samples rendered since the trigger.
func (v *Voice) GetAge() int {
	return v.age
}

// SetSampleRate updates the voice clock. Only legal while idle.
func (v *Voice) SetSampleRate(sampleRate float32) {
	if sampleRate <= 0 || sampleRate == v.sampleRate {
		return
	}
	v.sampleRate = sampleRate
	v.applyClock()
}

// SetSamplesPerBlock updates the block size. Only legal while idle.
func (v *Voice) SetSamplesPerBlock(samplesPerBlock int) {
	if samplesPerBlock <= 0 || samplesPerBlock == v.samplesPerBlock {
		return
	}
	v.samplesPerBlock = samplesPerBlock
	v.powerFollower.SetSamplesPerBlock(samplesPerBlock)
}

// SetMaxFiltersPerVoice resizes the filter slot array. Only legal while idle.
func (v *Voice) SetMaxFiltersPerVoice(count int) {
	v.filters = make([]FilterHolder, maxI(count, 0))
	for i := range v.filters {
		v.filters[i].SetSampleRate(v.sampleRate)
	}
}

// SetMaxEQsPerVoice resizes the EQ band array. Only legal while idle.
func (v *Voice) SetMaxEQsPerVoice(count int) {
	v.eqs = make([]EQHolder, maxI(count, 0))
	for i := range v.eqs {
		v.eqs[i].SetSampleRate(v.sampleRate)
	}
}

// SetMaxLFOsPerVoice resizes the LFO slot array. Only legal while idle.
func (v *Voice) SetMaxLFOsPerVoice(count int) {
	v.lfos = make([]LFO, maxI(count, 0))
	for i := range v.lfos {
		v.lfos[i].SetSampleRate(v.sampleRate)
	}
}

// SetMaxFlexEGsPerVoice resizes the flex envelope array. Only legal while
// idle.
func (v *Voice) SetMaxFlexEGsPerVoice(count int) {
	v.flexEGs = make([]FlexEnvelope, maxI(count, 0))
	for i := range v.flexEGs {
		v.flexEGs[i].SetSampleRate(v.sampleRate)
	}
}

// SetPitchEGEnabledPerVoice toggles the dedicated pitch envelope slot.
func (v *Voice) SetPitchEGEnabledPerVoice(enabled bool) {
	v.egPitchOn = enabled
}

// SetFilterEGEnabledPerVoice toggles the dedicated filter envelope slot.
func (v *Voice) SetFilterEGEnabledPerVoice(enabled bool) {
	v.egFilterOn = enabled
}

// StartVoice triggers the voice on a region at the given block offset.
// Returns false when the voice could not start.
func (v *Voice) StartVoice(region *Region, delay int, event TriggerEvent) bool {
	if region == nil || region.Disabled {
		return false
	}
	if delay < 0 {
		delay = 0
	}
	res := v.resources

	v.region = region
	v.trigger = event
	v.noteIsOff = false
	v.switchState(VoicePlaying)

	note := event.Number
	if event.Type != TriggerEventNoteOn {
		note = region.PitchKeycenter
	}
	velocity := event.Value
	v.triggerNote = note
	v.triggerVelocity = velocity

	v.triggerDelay = delay
	v.initialDelay = delay + secondsToSamples(region.Delay, v.sampleRate)
	v.age = 0

	fractionalKey := float32(note)
	if res.Tuning != nil {
		fractionalKey = res.Tuning.GetKeyFractional12TET(note)
	}
	v.pitchRatio = region.GetBasePitchVariation(fractionalKey, velocity, res.Rand)
	if res.Stretch != nil {
		v.pitchRatio *= res.Stretch.GetRatioForFractionalKey(fractionalKey)
	}
	v.bendStepCents = 0
	if region.BendStep > 1 {
		v.bendStepCents = float32(region.BendStep)
	}

	v.promise = nil
	v.speedRatio = 1.0
	v.floatPositionOffset = 0
	v.sourcePosition = 0
	if region.IsOscillator() {
		v.setupOscillators(region)
	} else {
		if res.FilePool == nil {
			v.switchState(VoiceCleanMeUp)
			return false
		}
		promise := res.FilePool.GetFilePromise(region.Sample)
		if promise == nil || promise.Data() == nil || promise.Data().NumChannels() == 0 {
			v.switchState(VoiceCleanMeUp)
			return false
		}
		v.promise = promise
		v.speedRatio = promise.Data().SampleRate / v.sampleRate
		v.sourcePosition = region.OffsetScaled(res.FilePool.Oversampling())
	}

	v.baseGain = region.GetBaseGain() * region.GetNoteGain(note, velocity)
	v.baseVolumedB = region.GetBaseVolumedB()
	v.sampleQuality = res.Config.CurrentSampleQuality()

	v.egAmplitude.Reset(region.AmpEG, 0, velocity, v.sampleRate)
	v.egPitchArmed = v.egPitchOn && region.PitchEG != nil
	if v.egPitchArmed {
		v.egPitch.Reset(*region.PitchEG, 0, velocity, v.sampleRate)
	}
	v.egFilterArmed = v.egFilterOn && region.FilterEG != nil
	if v.egFilterArmed {
		v.egFilter.Reset(*region.FilterEG, 0, velocity, v.sampleRate)
	}

	for i := range v.filters {
		if i < len(region.Filters) {
			v.filters[i].Setup(region.Filters[i], note, velocity)
		} else {
			v.filters[i].Clear()
		}
	}
	for i := range v.eqs {
		if i < len(region.EQs) {
			v.eqs[i].Setup(region.EQs[i], velocity)
		} else {
			v.eqs[i].Clear()
		}
	}
	lfoSpecs := [...]LFOSpec{region.PitchLFO, region.AmpLFO, region.FilLFO}
	for i := range v.lfos {
		if i < len(lfoSpecs) {
			v.lfos[i].Configure(lfoSpecs[i])
		} else {
			v.lfos[i].Clear()
		}
	}
	for i := range v.flexEGs {
		if i < len(region.FlexEGs) {
			v.flexEGs[i].Configure(region.FlexEGs[i])
		} else {
			v.flexEGs[i].Clear()
		}
	}

	v.ampModKey = ModKey{TargetAmplitude, region.ID, 0}
	v.panModKey = ModKey{TargetPan, region.ID, 0}
	v.widthModKey = ModKey{TargetWidth, region.ID, 0}
	v.positionModKey = ModKey{TargetPosition, region.ID, 0}
	v.volumeModKey = ModKey{TargetVolume, region.ID, 0}
	v.pitchModKey = ModKey{TargetPitch, region.ID, 0}
	v.oscDetuneKey = ModKey{TargetOscillatorDetune, region.ID, 0}
	v.oscDepthKey = ModKey{TargetOscillatorModDepth, region.ID, 0}

	v.gainSmoother.Reset(0)
	bend := float32(0)
	xfade := float32(1.0)
	if res.MidiState != nil {
		bend = res.MidiState.GetPitchBend()
		xfade = region.GetCrossfadeGain(res.MidiState)
	}
	v.bendSmoother.Reset(centsFactor(region.GetBendInCents(bend)))
	v.xfadeSmoother.Reset(xfade)

	v.powerFollower.Clear()
	return true
}

func (v *Voice) setupOscillators(region *Region) {
	shape := region.GeneratorShape()
	switch shape {
	case GeneratorNoise, GeneratorGNoise, GeneratorSilence:
		return
	}
	var wt *Wavetable
	if v.resources.WavePool != nil {
		if shape >= 0 {
			wt = v.resources.WavePool.GetWavetable(shape)
		} else {
			wt = v.resources.WavePool.GetFileWave(region.Sample)
		}
	}
	mode := region.OscillatorMode
	multi := region.OscillatorMulti
	switch {
	case mode <= 0 && multi < 2:
		v.waveUnisonSize = 1
		v.waveDetuneRatio[0] = 1.0
		v.waveLeftGain[0] = 1.0
		v.waveRightGain[0] = 1.0
	case mode <= 0 && multi >= 3:
		v.setupOscillatorUnison(multi, region.OscillatorDetune)
	default:
		v.waveUnisonSize = 1
		v.waveDetuneRatio[0] = 1.0
		v.waveDetuneRatio[1] = centsFactorPrecise(region.OscillatorDetune)
		v.waveLeftGain[0] = 1.0
		v.waveRightGain[0] = 1.0
	}
	quality := v.resources.Config.CurrentSampleQuality()
	for i := range v.oscillators {
		v.oscillators[i].SetWavetable(wt)
		v.oscillators[i].SetSampleRate(v.sampleRate)
		v.oscillators[i].SetQuality(quality)
		v.oscillators[i].SetPhase(region.OscillatorPhase)
	}
}

func (v *Voice) setupOscillatorUnison(multi int, detune float32) {
	m := clampI(multi, 3, OscillatorsPerVoice)
	v.waveUnisonSize = m

	var detunes [OscillatorsPerVoice]float32
	detunes[0] = 0
	detunes[1] = -detune
	detunes[2] = detune
	for i := 3; i < m; i++ {
		n := (i - 1) / 2
		d := 0.25 * float32(n) * detune
		if i%2 == 1 {
			d = -d
		}
		detunes[i] = d
	}
	for i := 0; i < m; i++ {
		v.waveDetuneRatio[i] = centsFactorPrecise(detunes[i])
	}

	for i := 0; i < m; i++ {
		v.waveLeftGain[i] = 0
		v.waveRightGain[i] = 0
	}
	for i := 0; i <= m-2; i++ {
		g := 1.0 - float32(i)/float32(m-1)
		v.waveLeftGain[m-1-i] = g
		v.waveRightGain[i] = g
	}
}

// Release starts the amplitude release at the given block offset. A voice
// whose pre-attack delay has not elapsed yet goes straight to cleanup.
func (v *Voice) Release(delay int) {
	if v.state != VoicePlaying {
		return
	}
	if delay < 0 {
		delay = 0
	}
	if v.egAmplitude.GetRemainingDelay() > delay || v.initialDelay > delay {
		v.switchState(VoiceCleanMeUp)
		return
	}
	v.egAmplitude.StartRelease(delay)
	if v.egPitchArmed {
		v.egPitch.StartRelease(delay)
	}
	if v.egFilterArmed {
		v.egFilter.StartRelease(delay)
	}
	for i := range v.flexEGs {
		v.flexEGs[i].Release()
	}
}

// Off forces a fast release, with the release time chosen by the region off
// mode.
func (v *Voice) Off(delay int) {
	if v.state != VoicePlaying {
		return
	}
	if v.region != nil && v.region.OffMode == OffTime {
		v.egAmplitude.SetReleaseTime(v.region.OffTime)
	} else {
		v.egAmplitude.SetReleaseTime(defaultOffTime)
	}
	v.Release(delay)
}

// RegisterNoteOff handles a note-off for the voice's own note, honoring
// one-shot playback and the sustain pedal.
func (v *Voice) RegisterNoteOff(delay, note int, velocity float32) {
	if v.state != VoicePlaying || v.region == nil {
		return
	}
	if v.trigger.Type != TriggerEventNoteOn || v.trigger.Number != note {
		return
	}
	v.noteIsOff = true
	if v.region.LoopMode == LoopOneShot {
		return
	}
	if v.region.CheckSustain && v.resources.MidiState != nil &&
		v.resources.MidiState.GetCCValue(v.region.SustainCC) >= v.region.SustainThreshold {
		return
	}
	v.Release(delay)
}

// RegisterCC releases a sustained note when the sustain pedal drops below
// the region threshold.
func (v *Voice) RegisterCC(delay, cc int, value float32) {
	if v.state != VoicePlaying || v.region == nil {
		return
	}
	if v.noteIsOff && v.region.CheckSustain && cc == v.region.SustainCC &&
		value < v.region.SustainThreshold {
		v.Release(delay)
	}
}

// RegisterPitchWheel accepts a pitch wheel change. Pitch is re-read from the
// MIDI state during block assembly.
func (v *Voice) RegisterPitchWheel(delay int, value float32) {}

// RegisterAftertouch accepts a channel pressure change.
func (v *Voice) RegisterAftertouch(delay int, value float32) {}

// RegisterTempo accepts a tempo change in seconds per quarter note.
func (v *Voice) RegisterTempo(delay int, spq float32) {}

// CheckOffGroup turns the voice off when another region's group silences it.
func (v *Voice) CheckOffGroup(other *Region, delay, note int) bool {
	if v.region == nil || other == nil || v.trigger.Type != TriggerEventNoteOn {
		return false
	}
	if v.region.OffBy == 0 || v.region.OffBy != other.Group {
		return false
	}
	if v.region.Group == other.Group && v.trigger.Number == note {
		return false
	}
	v.Off(delay)
	return true
}

// SetNextSisterVoice links the next voice in the sister ring.
func (v *Voice) SetNextSisterVoice(sister *Voice) {
	if sister == nil {
		return
	}
	v.nextSister = sister
	sister.prevSister = v
}

// SetPreviousSisterVoice links the previous voice in the sister ring.
func (v *Voice) SetPreviousSisterVoice(sister *Voice) {
	if sister == nil {
		return
	}
	v.prevSister = sister
	sister.nextSister = v
}

// NextSisterVoice returns the next voice in the ring.
func (v *Voice) NextSisterVoice() *Voice {
	return v.nextSister
}

// PreviousSisterVoice returns the previous voice in the ring.
func (v *Voice) PreviousSisterVoice() *Voice {
	return v.prevSister
}

func (v *Voice) removeFromSisterRing() {
	v.prevSister.nextSister = v.nextSister
	v.nextSister.prevSister = v.prevSister
	v.nextSister = v
	v.prevSister = v
}

// Reset returns the voice to the idle state. Idempotent.
func (v *Voice) Reset() {
	v.switchState(VoiceIdle)
	v.region = nil
	v.promise = nil
	v.noteIsOff = false
	v.sourcePosition = 0
	v.floatPositionOffset = 0
	v.initialDelay = 0
	v.triggerDelay = -1
	v.age = 0
	v.waveUnisonSize = 0
	for i := range v.filters {
		v.filters[i].Clear()
	}
	for i := range v.eqs {
		v.eqs[i].Clear()
	}
	for i := range v.lfos {
		v.lfos[i].Clear()
	}
	for i := range v.flexEGs {
		v.flexEGs[i].Clear()
	}
	v.powerFollower.Clear()
	v.removeFromSisterRing()
}
