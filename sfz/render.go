package sfz

import "github.com/cwbudde/algo-sfz/dsp"

// Makeup gain of +3 dB applied after the pan and position stages. Each of
// those stages costs -3 dB at center, so a centered stereo fill ends up 3 dB
// below its input level.
const stereoPanCompensation = 1.4125375446227544

// eventEnvelope expands timestamped events into a per-sample span, mapping
// each value through fn and interpolating linearly between events.
func eventEnvelope(events []Event, span []float32, fn func(float32) float32) {
	if len(events) == 0 {
		fillF(span, fn(0))
		return
	}
	value := fn(events[0].Value)
	pos := 0
	for _, ev := range events[1:] {
		delay := clampI(ev.Delay, 0, len(span))
		next := fn(ev.Value)
		if delay > pos {
			step := (next - value) / float32(delay-pos)
			for ; pos < delay; pos++ {
				value += step
				span[pos] = value
			}
		}
		value = next
	}
	for ; pos < len(span); pos++ {
		span[pos] = value
	}
}

func interpolateAt(quality int, src []float32, idx int, frac float32) float32 {
	if quality <= 1 {
		return dsp.InterpolateLinear(src, idx, frac)
	}
	return dsp.InterpolateBspline3(src, idx, frac)
}

// RenderBlock renders the next block of the voice into buffer. The buffer is
// zeroed first, so an idle voice produces silence.
func (v *Voice) RenderBlock(buffer *StereoBuffer) {
	buffer.Fill(0)
	n := buffer.Frames()
	if n == 0 || v.state != VoicePlaying || v.region == nil {
		return
	}

	sub := buffer.Sub(0)
	if v.initialDelay > 0 {
		skip := minI(v.initialDelay, n)
		v.initialDelay -= skip
		sub = buffer.Sub(skip)
	}

	if sub.Frames() > 0 {
		stereo := false
		if v.region.IsOscillator() {
			stereo = v.generatorIsStereo()
			v.fillWithGenerator(&sub)
		} else {
			stereo = v.promise.Data().NumChannels() >= 2
			v.fillWithData(&sub)
		}
		if stereo {
			v.amplitudeStage(sub.Left, sub.Right)
			v.panStageStereo(&sub)
			v.filterStage(sub.Left, sub.Right)
		} else {
			v.amplitudeStage(sub.Left, nil)
			v.filterStage(sub.Left, sub.Left)
			v.panStageMono(&sub)
		}
	}

	v.powerFollower.Process(buffer)

	v.age += n
	if v.triggerDelay >= 0 {
		v.age = maxI(v.age-v.triggerDelay, 0)
		v.triggerDelay = -1
	}

	if !v.egAmplitude.IsSmoothing() {
		v.switchState(VoiceCleanMeUp)
	}
}

func (v *Voice) generatorIsStereo() bool {
	switch v.region.GeneratorShape() {
	case GeneratorNoise, GeneratorGNoise:
		return true
	}
	return v.region.OscillatorMode <= 0 && v.region.OscillatorMulti >= 3
}

// pitchEnvelope multiplies span, a per-sample pitch ratio (or frequency)
// contour, by every active pitch modifier: pitch bend, pitch EG, pitch LFO,
// flexible envelopes and the matrix pitch target.
func (v *Voice) pitchEnvelope(span []float32) {
	n := len(span)
	region := v.region
	pool := v.resources.BufferPool
	scratch := pool.GetBuffer(n)
	if scratch == nil {
		return
	}
	defer pool.PutBuffer(scratch)

	if ms := v.resources.MidiState; ms != nil {
		step := v.bendStepCents
		eventEnvelope(ms.GetPitchEvents(), scratch, func(x float32) float32 {
			cents := region.GetBendInCents(clampF(x, -1.0, 1.0))
			if step > 0 {
				cents = float32(int(cents/step)) * step
			}
			return centsFactor(cents)
		})
		v.bendSmoother.Process(scratch, scratch, false)
		applyGainSpan(scratch, span)
	}

	if v.egPitchArmed {
		v.egPitch.GetBlock(scratch)
		depth := region.PitchEG.Depth
		for i := range span {
			span[i] *= centsFactor(scratch[i] * depth)
		}
	}
	if lfoPitch < len(v.lfos) && v.lfos[lfoPitch].Configured() {
		v.lfos[lfoPitch].Process(scratch)
		depth := v.lfos[lfoPitch].Depth()
		for i := range span {
			span[i] *= centsFactor(scratch[i] * depth)
		}
	}
	for i := range v.flexEGs {
		eg := &v.flexEGs[i]
		if !eg.Configured() || eg.Target() != FlexTargetPitch {
			continue
		}
		eg.Process(scratch)
		depth := eg.Depth()
		for j := range span {
			span[j] *= centsFactor(scratch[j] * depth)
		}
	}
	if mm := v.resources.ModMatrix; mm != nil {
		if mod := mm.GetModulationSpan(v.pitchModKey, n); mod != nil {
			for i := range span {
				span[i] *= centsFactor(mod[i])
			}
		}
	}
}

// fillWithData renders the sampler path: resampled, looped or clamped sample
// playback into the block.
func (v *Voice) fillWithData(buffer *StereoBuffer) {
	n := buffer.Frames()
	fd := v.promise.Data()
	pool := v.resources.BufferPool

	jumps := pool.GetBuffer(n)
	coeffs := pool.GetBuffer(n)
	indices := pool.GetIndexBuffer(n)
	if jumps == nil || coeffs == nil || indices == nil {
		pool.PutBuffer(jumps)
		pool.PutBuffer(coeffs)
		pool.PutIndexBuffer(indices)
		return
	}
	defer pool.PutBuffer(jumps)
	defer pool.PutBuffer(coeffs)
	defer pool.PutIndexBuffer(indices)

	fillF(jumps, v.pitchRatio*v.speedRatio)
	v.pitchEnvelope(jumps)

	jumps[0] += v.floatPositionOffset
	cumsum(jumps)
	interpolationCast(jumps, indices, coeffs)
	for i := range indices {
		indices[i] += v.sourcePosition
	}

	factor := v.resources.FilePool.Oversampling()
	region := v.region
	if region.ShouldLoop() && region.LoopEndScaled(factor) <= fd.Frames {
		loopStart := region.LoopStartScaled(factor)
		loopEnd := region.LoopEndScaled(factor)
		loopSpan := loopEnd + 1 - loopStart
		for i := range indices {
			if indices[i] > loopEnd {
				indices[i] = loopStart + (indices[i]-loopStart)%loopSpan
			}
		}
	} else {
		last := minI(region.TrueSampleEnd(factor, fd.Frames), v.promise.AvailableFrames()) - 1
		if last < 0 {
			last = 0
		}
		for i := range indices {
			if indices[i] >= last {
				if !v.egAmplitude.IsReleased() {
					v.egAmplitude.SetReleaseTime(0)
					v.egAmplitude.StartRelease(i)
				}
				for j := i; j < n; j++ {
					indices[j] = last
					coeffs[j] = 1.0
				}
				break
			}
		}
	}

	quality := v.sampleQuality
	left := fd.Channels[0]
	if fd.NumChannels() >= 2 {
		right := fd.Channels[1]
		for i := range indices {
			buffer.Left[i] = interpolateAt(quality, left, indices[i], coeffs[i])
			buffer.Right[i] = interpolateAt(quality, right, indices[i], coeffs[i])
		}
	} else {
		for i := range indices {
			buffer.Left[i] = interpolateAt(quality, left, indices[i], coeffs[i])
		}
	}

	v.sourcePosition = indices[n-1]
	v.floatPositionOffset = coeffs[n-1]
}

// fillWithGenerator renders the oscillator path: noise, a single wavetable,
// a unison stack, or a ring/frequency modulated pair.
func (v *Voice) fillWithGenerator(buffer *StereoBuffer) {
	n := buffer.Frames()
	region := v.region
	rng := v.resources.Rand

	switch region.GeneratorShape() {
	case GeneratorSilence:
		return
	case GeneratorNoise:
		for i := 0; i < n; i++ {
			buffer.Left[i] = rng.Float32()*2.0 - 1.0
			buffer.Right[i] = rng.Float32()*2.0 - 1.0
		}
		return
	case GeneratorGNoise:
		for i := 0; i < n; i++ {
			buffer.Left[i] = float32(rng.NormFloat64()) * 0.25
			buffer.Right[i] = float32(rng.NormFloat64()) * 0.25
		}
		return
	}

	pool := v.resources.BufferPool
	freq := pool.GetBuffer(n)
	if freq == nil {
		return
	}
	defer pool.PutBuffer(freq)
	fillF(freq, v.pitchRatio*midiNoteFrequency(float32(region.PitchKeycenter)))
	v.pitchEnvelope(freq)

	mode := region.OscillatorMode
	multi := region.OscillatorMulti
	mm := v.resources.ModMatrix

	switch {
	case mode <= 0 && multi < 2:
		v.oscillators[0].Process(freq, buffer.Left, 1.0)

	case mode <= 0 && multi >= 3:
		scratch := pool.GetBuffer(n)
		detuned := pool.GetBuffer(n)
		if scratch == nil || detuned == nil {
			pool.PutBuffer(scratch)
			pool.PutBuffer(detuned)
			return
		}
		defer pool.PutBuffer(scratch)
		defer pool.PutBuffer(detuned)
		var detuneMod []float32
		if mm != nil {
			detuneMod = mm.GetModulationSpan(v.oscDetuneKey, n)
		}
		for u := 0; u < v.waveUnisonSize; u++ {
			ratio := v.waveDetuneRatio[u]
			if detuneMod != nil {
				for i := range detuned {
					detuned[i] = freq[i] * ratio * centsFactor(detuneMod[i])
				}
			} else {
				for i := range detuned {
					detuned[i] = freq[i] * ratio
				}
			}
			fillF(scratch, 0)
			v.oscillators[u].Process(detuned, scratch, 1.0)
			gl := v.waveLeftGain[u]
			gr := v.waveRightGain[u]
			for i := range scratch {
				buffer.Left[i] += gl * scratch[i]
				buffer.Right[i] += gr * scratch[i]
			}
		}

	default:
		scratch := pool.GetBuffer(n)
		detuned := pool.GetBuffer(n)
		if scratch == nil || detuned == nil {
			pool.PutBuffer(scratch)
			pool.PutBuffer(detuned)
			return
		}
		defer pool.PutBuffer(scratch)
		defer pool.PutBuffer(detuned)
		var detuneMod, depthMod []float32
		if mm != nil {
			detuneMod = mm.GetModulationSpan(v.oscDetuneKey, n)
			depthMod = mm.GetModulationSpan(v.oscDepthKey, n)
		}
		ratio := v.waveDetuneRatio[1]
		if detuneMod != nil {
			for i := range detuned {
				detuned[i] = freq[i] * ratio * centsFactor(detuneMod[i])
			}
		} else {
			for i := range detuned {
				detuned[i] = freq[i] * ratio
			}
		}
		fillF(scratch, 0)
		v.oscillators[1].Process(detuned, scratch, 1.0)
		depth := normalizePercents(region.OscillatorModDepth)
		if depthMod != nil {
			for i := range scratch {
				scratch[i] *= depth + normalizePercents(depthMod[i])
			}
		} else {
			applyGain1(depth, scratch)
		}
		if mode <= 0 {
			// Ring modulation.
			v.oscillators[0].Process(freq, buffer.Left, 1.0)
			applyGainSpan(scratch, buffer.Left)
		} else {
			// FM, which also serves the PM setting. The modulator is summed
			// into the carrier frequency span in Hz before the carrier runs.
			for i := range scratch {
				freq[i] += scratch[i]
			}
			v.oscillators[0].Process(freq, buffer.Left, 1.0)
		}
	}
}

// amplitudeStage shapes the raw fill by the amp EG, region gains, matrix
// amplitude and volume targets, amp LFO, flexible envelopes and crossfades.
// Pass right as nil for mono sources.
func (v *Voice) amplitudeStage(left, right []float32) {
	n := len(left)
	pool := v.resources.BufferPool
	span := pool.GetBuffer(n)
	if span == nil {
		return
	}
	defer pool.PutBuffer(span)

	v.egAmplitude.GetBlock(span)
	applyGain1(v.baseGain, span)

	mm := v.resources.ModMatrix
	if mm != nil {
		if mod := mm.GetModulationSpan(v.ampModKey, n); mod != nil {
			for i := range span {
				span[i] *= normalizePercents(mod[i])
			}
		}
	}
	applyGain1(db2mag(v.baseVolumedB), span)
	if mm != nil {
		if mod := mm.GetModulationSpan(v.volumeModKey, n); mod != nil {
			for i := range span {
				span[i] *= db2mag(mod[i])
			}
		}
	}

	if scratch := pool.GetBuffer(n); scratch != nil {
		if lfoAmp < len(v.lfos) && v.lfos[lfoAmp].Configured() {
			v.lfos[lfoAmp].Process(scratch)
			depth := v.lfos[lfoAmp].Depth()
			for i := range span {
				span[i] *= db2mag(scratch[i] * depth)
			}
		}
		for i := range v.flexEGs {
			eg := &v.flexEGs[i]
			if !eg.Configured() || eg.Target() != FlexTargetAmplitude {
				continue
			}
			eg.Process(scratch)
			depth := eg.Depth()
			for j := range span {
				span[j] *= 1.0 + depth*(scratch[j]-1.0)
			}
		}
		pool.PutBuffer(scratch)
	}

	v.gainSmoother.Process(span, span, false)
	v.applyCrossfades(span)

	applyGainSpan(span, left)
	if right != nil {
		applyGainSpan(span, right)
	}
}

// applyCrossfades multiplies the CC crossfade envelopes into the amplitude
// span. The smoother takes its fast path when every controller saw at most
// its block-start event.
func (v *Voice) applyCrossfades(span []float32) {
	region := v.region
	ms := v.resources.MidiState
	if ms == nil || (len(region.XFCCInRanges) == 0 && len(region.XFCCOutRanges) == 0) {
		return
	}
	n := len(span)
	pool := v.resources.BufferPool
	xf := pool.GetBuffer(n)
	temp := pool.GetBuffer(n)
	if xf == nil || temp == nil {
		pool.PutBuffer(xf)
		pool.PutBuffer(temp)
		return
	}
	defer pool.PutBuffer(xf)
	defer pool.PutBuffer(temp)

	fillF(xf, 1.0)
	canShortcut := true
	curve := region.XFCCCurve
	for _, r := range region.XFCCInRanges {
		events := ms.GetCCEvents(r.CC)
		if len(events) > 1 {
			canShortcut = false
		}
		rng := r.Range
		eventEnvelope(events, temp, func(x float32) float32 {
			return crossfadeIn(rng, x, curve)
		})
		applyGainSpan(temp, xf)
	}
	for _, r := range region.XFCCOutRanges {
		events := ms.GetCCEvents(r.CC)
		if len(events) > 1 {
			canShortcut = false
		}
		rng := r.Range
		eventEnvelope(events, temp, func(x float32) float32 {
			return crossfadeOut(rng, x, curve)
		})
		applyGainSpan(temp, xf)
	}

	v.xfadeSmoother.Process(xf, xf, canShortcut)
	applyGainSpan(xf, span)
}

// fillModSpan fills span with base plus a matrix modulation scaled into the
// same units.
func (v *Voice) fillModSpan(span []float32, base float32, key ModKey, scale float32) {
	fillF(span, base)
	if mm := v.resources.ModMatrix; mm != nil {
		if mod := mm.GetModulationSpan(key, len(span)); mod != nil {
			for i := range span {
				span[i] += mod[i] * scale
			}
		}
	}
}

// panStageMono spreads a mono fill onto both channels with equal-power
// panning.
func (v *Voice) panStageMono(buffer *StereoBuffer) {
	n := buffer.Frames()
	copy(buffer.Right, buffer.Left)
	pool := v.resources.BufferPool
	span := pool.GetBuffer(n)
	if span == nil {
		l, r := panPair(normalizePercents(v.region.Pan))
		applyGain1(l, buffer.Left)
		applyGain1(r, buffer.Right)
		return
	}
	defer pool.PutBuffer(span)
	v.fillModSpan(span, normalizePercents(v.region.Pan), v.panModKey, 0.01)
	applyPan(span, buffer.Left, buffer.Right)
}

// panStageStereo applies pan, width and position to a stereo fill, then
// applies the +3 dB stereoPanCompensation gain.
func (v *Voice) panStageStereo(buffer *StereoBuffer) {
	n := buffer.Frames()
	pool := v.resources.BufferPool
	span := pool.GetBuffer(n)
	if span == nil {
		return
	}
	defer pool.PutBuffer(span)
	region := v.region

	v.fillModSpan(span, normalizePercents(region.Pan), v.panModKey, 0.01)
	applyPan(span, buffer.Left, buffer.Right)

	v.fillModSpan(span, normalizePercents(region.Width), v.widthModKey, 0.01)
	applyWidth(span, buffer.Left, buffer.Right)

	v.fillModSpan(span, normalizePercents(region.Position), v.positionModKey, 0.01)
	applyPan(span, buffer.Left, buffer.Right)

	applyGain1(stereoPanCompensation, buffer.Left)
	applyGain1(stereoPanCompensation, buffer.Right)
}

// filterStage runs the voice's filter slots then EQ bands in place. Filter
// modulation is block-rate: the last sample of each modulator decides the
// redesign for the block.
func (v *Voice) filterStage(left, right []float32) {
	n := len(left)
	region := v.region
	pool := v.resources.BufferPool
	mm := v.resources.ModMatrix

	var cutoffCents float32
	if scratch := pool.GetBuffer(n); scratch != nil {
		if lfoFil < len(v.lfos) && v.lfos[lfoFil].Configured() {
			v.lfos[lfoFil].Process(scratch)
			cutoffCents += scratch[n-1] * v.lfos[lfoFil].Depth()
		}
		if v.egFilterArmed {
			v.egFilter.GetBlock(scratch)
			cutoffCents += scratch[n-1] * region.FilterEG.Depth
		}
		pool.PutBuffer(scratch)
	}

	for i := range v.filters {
		fh := &v.filters[i]
		if !fh.Active() {
			continue
		}
		cents := cutoffCents
		var resonance float32
		if mm != nil {
			if mod := mm.GetModulationSpan(ModKey{TargetFilterCutoff, region.ID, i}, n); mod != nil {
				cents += mod[n-1]
			}
			if mod := mm.GetModulationSpan(ModKey{TargetFilterResonance, region.ID, i}, n); mod != nil {
				resonance += mod[n-1]
			}
		}
		fh.Modulate(cents, resonance)
		fh.Process(left, right)
	}

	for i := range v.eqs {
		eh := &v.eqs[i]
		if !eh.Active() {
			continue
		}
		var freqOffset, gainOffset float32
		if mm != nil {
			if mod := mm.GetModulationSpan(ModKey{TargetEQFrequency, region.ID, i}, n); mod != nil {
				freqOffset = mod[n-1]
			}
			if mod := mm.GetModulationSpan(ModKey{TargetEQGain, region.ID, i}, n); mod != nil {
				gainOffset = mod[n-1]
			}
		}
		eh.Modulate(freqOffset, gainOffset)
		eh.Process(left, right)
	}
}
