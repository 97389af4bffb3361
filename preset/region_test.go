package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-sfz/sfz"
)

func TestLoadRegionAppliesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "region.json")
	content := `{
  "sample": "samples/a4.wav",
  "key_range": {"lo": 60, "hi": 72},
  "pitch_keycenter": 69,
  "volume": -3,
  "loop_mode": 2,
  "loop_start": 100,
  "loop_end": 4000
}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}

	r, err := LoadRegion(presetPath)
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}
	want := filepath.Join(dir, "samples", "a4.wav")
	if r.Sample != want {
		t.Fatalf("sample path mismatch: got=%q want=%q", r.Sample, want)
	}
	if r.KeyRange.Lo != 60 || r.KeyRange.Hi != 72 {
		t.Fatalf("key_range mismatch: %+v", r.KeyRange)
	}
	if r.PitchKeycenter != 69 || r.Volume != -3 {
		t.Fatalf("override mismatch: keycenter=%d volume=%f", r.PitchKeycenter, r.Volume)
	}
	if !r.ShouldLoop() {
		t.Fatalf("expected looping region")
	}
	if r.PitchKeytrack != 100 || r.Amplitude != 100 || r.BendStep != 1 {
		t.Fatalf("defaults lost: keytrack=%f amplitude=%f bend_step=%d",
			r.PitchKeytrack, r.Amplitude, r.BendStep)
	}
	if r.AmpEG.Sustain != 1 {
		t.Fatalf("amp_eg default lost: %+v", r.AmpEG)
	}
}

func TestLoadRegionKeepsGeneratorName(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "region.json")
	content := `{"sample": "*sine"}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	r, err := LoadRegion(presetPath)
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}
	if r.Sample != "*sine" {
		t.Fatalf("generator name mangled: %q", r.Sample)
	}
	if r.GeneratorShape() != sfz.GeneratorSine {
		t.Fatalf("shape mismatch: %d", r.GeneratorShape())
	}
}

func TestLoadRegionRejectsInvalidRanges(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty sample":      `{}`,
		"inverted keyrange": `{"sample": "*sine", "key_range": {"lo": 80, "hi": 40}}`,
		"velocity above 1":  `{"sample": "*sine", "vel_range": {"lo": 0, "hi": 127}}`,
		"negative delay":    `{"sample": "*sine", "delay": -1}`,
		"bad bend step":     `{"sample": "*sine", "bend_step": 0}`,
		"bad filter cutoff": `{"sample": "*sine", "filters": [{"cutoff": 0}]}`,
	}
	for name, content := range cases {
		presetPath := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
			t.Fatalf("write preset: %v", err)
		}
		if _, err := LoadRegion(presetPath); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSaveRegionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "region.json")

	r := sfz.NewDefaultRegion()
	r.Sample = "*saw"
	r.OscillatorMulti = 3
	r.OscillatorDetune = 12
	r.Volume = -6
	if err := SaveRegion(presetPath, r); err != nil {
		t.Fatalf("SaveRegion: %v", err)
	}

	got, err := LoadRegion(presetPath)
	if err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}
	if got.Sample != "*saw" || got.OscillatorMulti != 3 || got.OscillatorDetune != 12 || got.Volume != -6 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
