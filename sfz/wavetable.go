package sfz

import "math"

// Generator waveforms a region may select instead of a sample file.
const (
	GeneratorSine = iota
	GeneratorTriangle
	GeneratorSquare
	GeneratorSaw
	GeneratorNoise
	GeneratorGNoise
	GeneratorSilence
)

const (
	wavetableSize    = 1024
	wavetableOctaves = 10
)

// Wavetable is a band-limited single-cycle table set: one table per octave,
// each truncating the harmonic series so playback below the octave's top
// frequency stays alias-free.
type Wavetable struct {
	tables [wavetableOctaves][]float32
	maxHz  [wavetableOctaves]float32
}

// harmonicProfile returns the amplitude of harmonic n (1-based) for a shape.
func harmonicProfile(shape, n int) float32 {
	switch shape {
	case GeneratorTriangle:
		if n%2 == 0 {
			return 0
		}
		sign := float32(1.0)
		if ((n-1)/2)%2 == 1 {
			sign = -1.0
		}
		return sign * 8.0 / (float32(math.Pi) * float32(math.Pi) * float32(n) * float32(n))
	case GeneratorSquare:
		if n%2 == 0 {
			return 0
		}
		return 4.0 / (float32(math.Pi) * float32(n))
	case GeneratorSaw:
		sign := float32(1.0)
		if n%2 == 0 {
			sign = -1.0
		}
		return sign * 2.0 / (float32(math.Pi) * float32(n))
	default:
		if n == 1 {
			return 1.0
		}
		return 0
	}
}

// buildTable renders one cycle into a table with one leading and three
// trailing guard samples, so a 4-tap interpolator never has to wrap.
func buildTable(shape, harmonics int) []float32 {
	table := make([]float32, wavetableSize+4)
	cycle := table[1 : wavetableSize+1]
	for h := 1; h <= harmonics; h++ {
		amp := harmonicProfile(shape, h)
		if amp == 0 {
			continue
		}
		for i := 0; i < wavetableSize; i++ {
			phase := 2.0 * math.Pi * float64(h) * float64(i) / wavetableSize
			cycle[i] += amp * float32(math.Sin(phase))
		}
	}
	table[0] = cycle[wavetableSize-1]
	table[wavetableSize+1] = cycle[0]
	table[wavetableSize+2] = cycle[1]
	table[wavetableSize+3] = cycle[2]
	return table
}

// NewWavetable builds the octave table set for a shape at a sample rate.
func NewWavetable(shape int, sampleRate float32) *Wavetable {
	wt := &Wavetable{}
	nyquist := sampleRate * 0.5
	topHz := float32(20.0)
	for oct := 0; oct < wavetableOctaves; oct++ {
		topHz *= 2.0
		wt.maxHz[oct] = topHz
		harmonics := int(nyquist / topHz)
		if harmonics < 1 {
			harmonics = 1
		}
		wt.tables[oct] = buildTable(shape, harmonics)
	}
	return wt
}

// NewWavetableFromCycle builds a table set from one raw single-cycle span.
// The cycle is resampled to the table size and reused across all octaves, so
// aliasing at high playback rates is the caller's concern.
func NewWavetableFromCycle(cycle []float32) *Wavetable {
	wt := &Wavetable{}
	table := make([]float32, wavetableSize+4)
	resampled := table[1 : wavetableSize+1]
	if len(cycle) > 0 {
		step := float32(len(cycle)) / wavetableSize
		for i := 0; i < wavetableSize; i++ {
			pos := float32(i) * step
			idx := int(pos)
			frac := pos - float32(idx)
			next := idx + 1
			if next >= len(cycle) {
				next = 0
			}
			resampled[i] = cycle[idx] + frac*(cycle[next]-cycle[idx])
		}
	}
	table[0] = resampled[wavetableSize-1]
	table[wavetableSize+1] = resampled[0]
	table[wavetableSize+2] = resampled[1]
	table[wavetableSize+3] = resampled[2]
	topHz := float32(20.0)
	for oct := 0; oct < wavetableOctaves; oct++ {
		topHz *= 2.0
		wt.maxHz[oct] = topHz
		wt.tables[oct] = table
	}
	return wt
}

// TableForFrequency picks the most harmonic-rich table safe at freq Hz.
func (wt *Wavetable) TableForFrequency(freq float32) []float32 {
	for oct := 0; oct < wavetableOctaves; oct++ {
		if freq <= wt.maxHz[oct] {
			return wt.tables[oct]
		}
	}
	return wt.tables[wavetableOctaves-1]
}

// WavePool shares the band-limited tables between all voices of an engine.
type WavePool struct {
	sampleRate float32
	tables     map[int]*Wavetable
	fileWaves  map[string]*Wavetable
}

// NewWavePool builds the pool for the classic generator shapes.
func NewWavePool(sampleRate float32) *WavePool {
	p := &WavePool{
		sampleRate: sampleRate,
		tables:     make(map[int]*Wavetable),
		fileWaves:  make(map[string]*Wavetable),
	}
	for _, shape := range []int{GeneratorSine, GeneratorTriangle, GeneratorSquare, GeneratorSaw} {
		p.tables[shape] = NewWavetable(shape, sampleRate)
	}
	return p
}

// GetWavetable returns the table set for a generator shape, or nil for the
// noise and silence generators which have none.
func (p *WavePool) GetWavetable(shape int) *Wavetable {
	return p.tables[shape]
}

// RegisterFileWave stores a table set built from a single-cycle sample file
// under its name. Non-realtime.
func (p *WavePool) RegisterFileWave(name string, wt *Wavetable) {
	p.fileWaves[name] = wt
}

// GetFileWave returns a previously registered file-backed table set, or nil.
func (p *WavePool) GetFileWave(name string) *Wavetable {
	return p.fileWaves[name]
}
