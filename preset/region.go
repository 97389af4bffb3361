// Package preset loads and stores region definitions as JSON files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-sfz/sfz"
)

// LoadRegion reads a region JSON file and applies it on top of the opcode
// defaults, so absent keys keep their default values. A file-backed sample
// path is resolved relative to the preset file's directory.
func LoadRegion(path string) (*sfz.Region, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := sfz.NewDefaultRegion()
	if err := json.Unmarshal(b, r); err != nil {
		return nil, err
	}
	if err := Validate(r); err != nil {
		return nil, err
	}

	if r.Sample != "" && !r.IsOscillator() && !filepath.IsAbs(r.Sample) {
		base := filepath.Dir(path)
		r.Sample = filepath.Clean(filepath.Join(base, r.Sample))
	}
	return r, nil
}

// SaveRegion writes a region as indented JSON.
func SaveRegion(path string, r *sfz.Region) error {
	if r == nil {
		return fmt.Errorf("nil region")
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// Validate checks a region for out-of-range opcode values.
func Validate(r *sfz.Region) error {
	if r == nil {
		return fmt.Errorf("nil region")
	}
	if r.Sample == "" {
		return fmt.Errorf("sample must not be empty")
	}
	if r.KeyRange.Lo < 0 || r.KeyRange.Hi > 127 || r.KeyRange.Lo > r.KeyRange.Hi {
		return fmt.Errorf("key_range must be an interval inside 0..127")
	}
	if r.VelRange.Lo < 0 || r.VelRange.Hi > 1 || r.VelRange.Lo > r.VelRange.Hi {
		return fmt.Errorf("vel_range must be an interval inside 0..1")
	}
	if r.PitchKeycenter < 0 || r.PitchKeycenter > 127 {
		return fmt.Errorf("pitch_keycenter must be in 0..127")
	}
	if r.Delay < 0 {
		return fmt.Errorf("delay must be >= 0")
	}
	if r.Offset < 0 {
		return fmt.Errorf("offset must be >= 0")
	}
	if r.Amplitude < 0 {
		return fmt.Errorf("amplitude must be >= 0")
	}
	if r.LoopStart < 0 {
		return fmt.Errorf("loop_start must be >= 0")
	}
	if r.ShouldLoop() && r.LoopEnd < r.LoopStart {
		return fmt.Errorf("loop_end must be >= loop_start")
	}
	if r.BendStep < 1 {
		return fmt.Errorf("bend_step must be >= 1")
	}
	if r.OffTime < 0 {
		return fmt.Errorf("off_time must be >= 0")
	}
	if r.SustainCC < 0 || r.SustainCC >= sfz.MaxCCNumber {
		return fmt.Errorf("sustain_cc must be in 0..%d", sfz.MaxCCNumber-1)
	}
	if r.OscillatorMulti < 0 || r.OscillatorMulti > sfz.OscillatorsPerVoice {
		return fmt.Errorf("oscillator_multi must be in 0..%d", sfz.OscillatorsPerVoice)
	}
	for i, f := range r.Filters {
		if f.Cutoff <= 0 {
			return fmt.Errorf("filters[%d].cutoff must be > 0", i)
		}
	}
	for i, eq := range r.EQs {
		if eq.Frequency <= 0 {
			return fmt.Errorf("eqs[%d].frequency must be > 0", i)
		}
		if eq.Bandwidth <= 0 {
			return fmt.Errorf("eqs[%d].bandwidth must be > 0", i)
		}
	}
	return nil
}
