package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cwbudde/algo-sfz/internal/wavio"
	"github.com/cwbudde/algo-sfz/preset"
	"github.com/cwbudde/algo-sfz/sfz"
	"github.com/ebitengine/oto/v3"
)

// streamer renders one voice block by block and serves the result as
// little-endian float32 frames to the audio backend.
type streamer struct {
	res          *sfz.Resources
	matrix       *sfz.BasicModMatrix
	voice        *sfz.Voice
	region       *sfz.Region
	buffer       *sfz.StereoBuffer
	interleaved  []float32
	pending      []byte
	note         int
	releaseFrame int
	maxFrames    int
	rendered     int
	done         bool
}

func newStreamer(region *sfz.Region, sampleRate float32, blockSize int) *streamer {
	res := sfz.NewResources(sampleRate, blockSize)
	matrix := sfz.NewBasicModMatrix(res.MidiState)
	res.ModMatrix = matrix
	return &streamer{
		res:         res,
		matrix:      matrix,
		voice:       sfz.NewVoice(0, res),
		region:      region,
		buffer:      sfz.NewStereoBuffer(blockSize),
		interleaved: make([]float32, blockSize*2),
	}
}

func (s *streamer) start(note int, velocity float32) bool {
	s.note = note
	return s.voice.StartVoice(s.region, 0, sfz.TriggerEvent{
		Type:   sfz.TriggerEventNoteOn,
		Number: note,
		Value:  velocity,
	})
}

func (s *streamer) renderBlock() []byte {
	frames := s.buffer.Frames()
	if s.rendered+frames > s.maxFrames {
		frames = s.maxFrames - s.rendered
	}
	if frames <= 0 {
		s.done = true
		return nil
	}
	if s.rendered <= s.releaseFrame && s.releaseFrame < s.rendered+frames {
		s.voice.RegisterNoteOff(s.releaseFrame-s.rendered, s.note, 0)
	}

	s.matrix.BeginBlock(frames)
	block := s.buffer.Sub(0)
	block.Left = block.Left[:frames]
	block.Right = block.Right[:frames]
	s.voice.RenderBlock(&block)
	s.res.MidiState.AdvanceBlock()
	s.rendered += frames

	if s.voice.State() == sfz.VoiceCleanMeUp {
		s.voice.Reset()
		s.done = true
	}

	out := make([]byte, frames*2*4)
	block.Interleave(s.interleaved[:frames*2])
	for i, v := range s.interleaved[:frames*2] {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// Read implements io.Reader for oto. Past the end of the note it keeps
// serving silence so the player drains cleanly.
func (s *streamer) Read(p []byte) (int, error) {
	filled := 0
	for filled < len(p) {
		if len(s.pending) == 0 {
			if s.done || s.voice.IsFree() {
				for i := filled; i < len(p); i++ {
					p[i] = 0
				}
				s.done = true
				return len(p), nil
			}
			s.pending = s.renderBlock()
			continue
		}
		n := copy(p[filled:], s.pending)
		s.pending = s.pending[n:]
		filled += n
	}
	return filled, nil
}

func main() {
	presetPath := flag.String("preset", "assets/presets/default.json", "Region preset JSON file path")
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Playback duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Playback sample rate in Hz")
	blockSize := flag.Int("block-size", 1024, "Processing block size in frames")
	wavetablePath := flag.String("wavetable", "", "Single-cycle WAV registered under the region's sample name")
	flag.Parse()

	region, err := preset.LoadRegion(*presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
		os.Exit(1)
	}

	sr := *sampleRate
	s := newStreamer(region, float32(sr), *blockSize)
	s.releaseFrame = int(float64(sr) * (*releaseAfter))
	s.maxFrames = int(float64(sr) * (*duration))
	if s.maxFrames < 1 {
		s.maxFrames = 1
	}

	if *wavetablePath != "" {
		cycle, _, err := wavio.ReadWAVMono(*wavetablePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading wavetable %q: %v\n", *wavetablePath, err)
			os.Exit(1)
		}
		s.res.WavePool.RegisterFileWave(region.Sample, sfz.NewWavetableFromCycle(cycle))
	}
	if !region.IsOscillator() {
		if _, err := s.res.FilePool.LoadFile(region.Sample); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading sample %q: %v\n", region.Sample, err)
			os.Exit(1)
		}
	}

	if !s.start(*note, float32(*velocity)/127.0) {
		fmt.Fprintf(os.Stderr, "Region did not start (disabled or sample missing)\n")
		os.Exit(1)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sr,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	<-ready

	fmt.Printf("Playing note %d, velocity %d, for %.2f seconds at %d Hz (preset: %s)...\n",
		*note, *velocity, *duration, sr, *presetPath)

	player := ctx.NewPlayer(s)
	player.Play()
	for player.IsPlaying() && !s.done {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)
	if err := player.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing player: %v\n", err)
		os.Exit(1)
	}
}
