package sfz

// PowerFollower tracks the mean power of a voice output with separate attack
// and release smoothing, updated once per rendered block.
type PowerFollower struct {
	sampleRate      float32
	samplesPerBlock int
	attackGain      float32
	releaseGain     float32
	average         float32
}

const (
	powerFollowerAttackTime  = 5e-3
	powerFollowerReleaseTime = 200e-3
)

// NewPowerFollower returns a follower clocked at the default rates.
func NewPowerFollower() *PowerFollower {
	f := &PowerFollower{
		sampleRate:      defaultSampleRate,
		samplesPerBlock: defaultSamplesPerBlock,
	}
	f.updateGains()
	return f
}

func onePoleGain(time, sampleRate float32, samplesPerBlock int) float32 {
	blocksPerSecond := sampleRate / float32(samplesPerBlock)
	samples := time * blocksPerSecond
	if samples <= 0 {
		return 1.0
	}
	return 1.0 / (samples + 1.0)
}

func (f *PowerFollower) updateGains() {
	f.attackGain = onePoleGain(powerFollowerAttackTime, f.sampleRate, f.samplesPerBlock)
	f.releaseGain = onePoleGain(powerFollowerReleaseTime, f.sampleRate, f.samplesPerBlock)
}

// SetSampleRate updates the follower clock. Non-realtime.
func (f *PowerFollower) SetSampleRate(sampleRate float32) {
	f.sampleRate = sampleRate
	f.updateGains()
}

// SetSamplesPerBlock updates the block size. Non-realtime.
func (f *PowerFollower) SetSamplesPerBlock(samplesPerBlock int) {
	f.samplesPerBlock = samplesPerBlock
	f.updateGains()
}

// Process folds one rendered block into the running average.
func (f *PowerFollower) Process(buffer *StereoBuffer) {
	n := buffer.Frames()
	if n == 0 {
		return
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += buffer.Left[i]*buffer.Left[i] + buffer.Right[i]*buffer.Right[i]
	}
	power := sum / float32(2*n)
	gain := f.releaseGain
	if power > f.average {
		gain = f.attackGain
	}
	f.average += gain * (power - f.average)
}

// AveragePower returns the tracked mean power.
func (f *PowerFollower) AveragePower() float32 {
	return f.average
}

// Clear resets the follower to silence.
func (f *PowerFollower) Clear() {
	f.average = 0
}
