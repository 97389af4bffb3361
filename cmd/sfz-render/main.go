package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/cwbudde/algo-sfz/analysis"
	"github.com/cwbudde/algo-sfz/internal/wavio"
	"github.com/cwbudde/algo-sfz/preset"
	"github.com/cwbudde/algo-sfz/sfz"
	"gitlab.com/gomidi/midi/v2/smf"
)

const maxPolyphony = 16

// eventKind values for the offline event list.
const (
	eventNoteOn = iota
	eventNoteOff
	eventCC
	eventPitchBend
)

type timedEvent struct {
	frame  int
	kind   int
	number int
	value  float32
}

// voiceBank drives a fixed set of voices against one region.
type voiceBank struct {
	res     *sfz.Resources
	matrix  *sfz.BasicModMatrix
	voices  []*sfz.Voice
	region  *sfz.Region
	scratch *sfz.StereoBuffer
	mix     *sfz.StereoBuffer
}

func newVoiceBank(region *sfz.Region, sampleRate float32, blockSize, quality int) *voiceBank {
	res := sfz.NewResources(sampleRate, blockSize)
	res.Config.SampleQuality = quality
	matrix := sfz.NewBasicModMatrix(res.MidiState)
	res.ModMatrix = matrix

	voices := make([]*sfz.Voice, maxPolyphony)
	for i := range voices {
		voices[i] = sfz.NewVoice(i, res)
	}
	for i := range voices {
		voices[i].SetNextSisterVoice(voices[(i+1)%maxPolyphony])
		voices[i].SetPreviousSisterVoice(voices[(i+maxPolyphony-1)%maxPolyphony])
	}

	return &voiceBank{
		res:     res,
		matrix:  matrix,
		voices:  voices,
		region:  region,
		scratch: sfz.NewStereoBuffer(blockSize),
		mix:     sfz.NewStereoBuffer(blockSize),
	}
}

func (vb *voiceBank) noteOn(delay, note int, velocity float32) {
	if !vb.region.KeyRange.Contains(float32(note)) || !vb.region.VelRange.Contains(velocity) {
		return
	}
	for _, v := range vb.voices {
		if !v.IsFree() {
			v.CheckOffGroup(vb.region, delay, note)
		}
	}
	for _, v := range vb.voices {
		if v.IsFree() {
			v.StartVoice(vb.region, delay, sfz.TriggerEvent{
				Type:   sfz.TriggerEventNoteOn,
				Number: note,
				Value:  velocity,
			})
			return
		}
	}
}

func (vb *voiceBank) dispatch(ev timedEvent, delay int) {
	switch ev.kind {
	case eventNoteOn:
		vb.noteOn(delay, ev.number, ev.value)
	case eventNoteOff:
		for _, v := range vb.voices {
			v.RegisterNoteOff(delay, ev.number, ev.value)
		}
	case eventCC:
		vb.res.MidiState.CCEvent(delay, ev.number, ev.value)
		for _, v := range vb.voices {
			v.RegisterCC(delay, ev.number, ev.value)
		}
	case eventPitchBend:
		vb.res.MidiState.PitchBendEvent(delay, ev.value)
		for _, v := range vb.voices {
			v.RegisterPitchWheel(delay, ev.value)
		}
	}
}

// renderBlock mixes every active voice into frames stereo frames and returns
// the interleaved block.
func (vb *voiceBank) renderBlock(frames int) []float32 {
	vb.matrix.BeginBlock(frames)
	mix := vb.mix.Sub(0)
	mix.Left = mix.Left[:frames]
	mix.Right = mix.Right[:frames]
	mix.Fill(0)

	scratch := vb.scratch.Sub(0)
	scratch.Left = scratch.Left[:frames]
	scratch.Right = scratch.Right[:frames]

	for _, v := range vb.voices {
		if v.IsFree() {
			continue
		}
		v.RenderBlock(&scratch)
		for i := 0; i < frames; i++ {
			mix.Left[i] += scratch.Left[i]
			mix.Right[i] += scratch.Right[i]
		}
		if v.State() == sfz.VoiceCleanMeUp {
			v.Reset()
		}
	}
	vb.res.MidiState.AdvanceBlock()

	out := make([]float32, frames*2)
	mix.Interleave(out)
	return out
}

func (vb *voiceBank) active() bool {
	for _, v := range vb.voices {
		if !v.IsFree() {
			return true
		}
	}
	return false
}

// loadSMFEvents converts the note, controller and bend events of a Standard
// MIDI File into sample-accurate offline events.
func loadSMFEvents(path string, sampleRate int) ([]timedEvent, error) {
	var events []timedEvent
	rd := smf.ReadTracks(path)
	rd.Do(func(te smf.TrackEvent) {
		frame := int(te.AbsMicroSeconds * int64(sampleRate) / 1e6)
		msg := te.Message
		var channel, key, velocity uint8
		var controller, ccValue uint8
		var relBend int16
		var absBend uint16
		switch {
		case msg.GetNoteStart(&channel, &key, &velocity):
			events = append(events, timedEvent{frame, eventNoteOn, int(key), float32(velocity) / 127.0})
		case msg.GetNoteEnd(&channel, &key):
			events = append(events, timedEvent{frame, eventNoteOff, int(key), 0})
		case msg.GetControlChange(&channel, &controller, &ccValue):
			events = append(events, timedEvent{frame, eventCC, int(controller), float32(ccValue) / 127.0})
		case msg.GetPitchBend(&channel, &relBend, &absBend):
			events = append(events, timedEvent{frame, eventPitchBend, 0, float32(relBend) / 8192.0})
		}
	})
	if err := rd.Error(); err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].frame < events[j].frame })
	return events, nil
}

func main() {
	presetPath := flag.String("preset", "assets/presets/default.json", "Region preset JSON file path")
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Render duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	blockSize := flag.Int("block-size", 1024, "Processing block size in frames")
	quality := flag.Int("quality", 2, "Sample interpolation quality (1 = linear, 2 = B-spline)")
	midiPath := flag.String("midi", "", "Standard MIDI File to render instead of -note/-velocity")
	wavetablePath := flag.String("wavetable", "", "Single-cycle WAV registered under the region's sample name")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	region, err := preset.LoadRegion(*presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
		os.Exit(1)
	}

	sr := *sampleRate
	vb := newVoiceBank(region, float32(sr), *blockSize, *quality)

	if *wavetablePath != "" {
		cycle, _, err := wavio.ReadWAVMono(*wavetablePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading wavetable %q: %v\n", *wavetablePath, err)
			os.Exit(1)
		}
		vb.res.WavePool.RegisterFileWave(region.Sample, sfz.NewWavetableFromCycle(cycle))
	}
	if !region.IsOscillator() {
		if _, err := vb.res.FilePool.LoadFile(region.Sample); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading sample %q: %v\n", region.Sample, err)
			os.Exit(1)
		}
	}

	var events []timedEvent
	totalFrames := int(float64(sr) * (*duration))
	if *midiPath != "" {
		events, err = loadSMFEvents(*midiPath, sr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading SMF %q: %v\n", *midiPath, err)
			os.Exit(1)
		}
		if len(events) > 0 {
			tail := events[len(events)-1].frame + sr
			if tail > totalFrames {
				totalFrames = tail
			}
		}
		fmt.Printf("Rendering %d MIDI events for up to %.2f seconds at %d Hz (preset: %s)...\n",
			len(events), float64(totalFrames)/float64(sr), sr, *presetPath)
	} else {
		events = []timedEvent{
			{0, eventNoteOn, *note, float32(*velocity) / 127.0},
			{int(float64(sr) * (*releaseAfter)), eventNoteOff, *note, 0},
		}
		fmt.Printf("Rendering note %d, velocity %d, for %.2f seconds at %d Hz (preset: %s)...\n",
			*note, *velocity, *duration, sr, *presetPath)
	}
	if totalFrames < 1 {
		totalFrames = 1
	}

	samples := make([]float32, 0, totalFrames*2)
	rendered := 0
	nextEvent := 0
	for rendered < totalFrames {
		frames := *blockSize
		if rendered+frames > totalFrames {
			frames = totalFrames - rendered
		}
		for nextEvent < len(events) && events[nextEvent].frame < rendered+frames {
			ev := events[nextEvent]
			vb.dispatch(ev, ev.frame-rendered)
			nextEvent++
		}
		samples = append(samples, vb.renderBlock(frames)...)
		rendered += frames
		if nextEvent >= len(events) && !vb.active() {
			break
		}
	}

	if err := wavio.WriteStereoInterleavedWAV(*output, samples, sr); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	mono := wavio.StereoToMono(samples)
	peak := analysis.PeakFrequency(mono, sr)
	fmt.Printf("Successfully wrote %s (%d frames, RMS %.1f dBFS, spectral peak %.2f Hz)\n",
		*output, rendered, 20*math.Log10(math.Max(wavio.StereoRMS(samples), 1e-12)), peak)
}
