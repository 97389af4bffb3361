package sfz

import (
	"fmt"
	"os"
	"sync"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
)

// FileData holds a fully decoded, possibly oversampled sample file.
type FileData struct {
	Channels   [][]float32
	SampleRate float32
	Frames     int
}

// NumChannels returns the channel count of the decoded file.
func (fd *FileData) NumChannels() int {
	return len(fd.Channels)
}

// FilePromise is the handle a voice keeps on a loaded file. Files are decoded
// in full before a promise is handed out, so AvailableFrames always reports
// their total length.
type FilePromise struct {
	data *FileData

	mu        sync.Mutex
	available int
}

// Data returns the decoded sample data.
func (p *FilePromise) Data() *FileData {
	return p.data
}

// AvailableFrames reports how many frames are safe to read.
func (p *FilePromise) AvailableFrames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

func (p *FilePromise) setAvailable(frames int) {
	p.mu.Lock()
	p.available = frames
	p.mu.Unlock()
}

// FilePool decodes and caches sample files. Files are oversampled at load
// time by the configured ratio so the playback interpolator works on a
// denser grid.
type FilePool struct {
	mu           sync.Mutex
	cache        map[string]*FilePromise
	oversampling int
}

// NewFilePool creates an empty pool with the given oversampling ratio.
func NewFilePool(oversampling int) *FilePool {
	if oversampling < 1 {
		oversampling = 1
	}
	return &FilePool{
		cache:        make(map[string]*FilePromise),
		oversampling: oversampling,
	}
}

func decodeWAV(path string) (*FileData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	scale := float32(1.0)
	if dec.BitDepth > 0 && dec.BitDepth <= 32 {
		scale = 1.0 / float32(int64(1)<<(dec.BitDepth-1))
	}
	fd := &FileData{
		Channels:   make([][]float32, ch),
		SampleRate: float32(buf.Format.SampleRate),
		Frames:     frames,
	}
	for c := 0; c < ch; c++ {
		fd.Channels[c] = make([]float32, frames)
		for i := 0; i < frames; i++ {
			fd.Channels[c][i] = float32(buf.Data[i*ch+c]) * scale
		}
	}
	return fd, nil
}

func oversample(fd *FileData, ratio int) (*FileData, error) {
	if ratio <= 1 {
		return fd, nil
	}
	out := &FileData{
		Channels:   make([][]float32, fd.NumChannels()),
		SampleRate: fd.SampleRate * float32(ratio),
	}
	for c, channel := range fd.Channels {
		r, err := dspresample.NewForRates(
			float64(fd.SampleRate),
			float64(fd.SampleRate)*float64(ratio),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return nil, err
		}
		in := make([]float64, len(channel))
		for i, v := range channel {
			in[i] = float64(v)
		}
		res := r.Process(in)
		out.Channels[c] = make([]float32, len(res))
		for i, v := range res {
			out.Channels[c][i] = float32(v)
		}
	}
	if fd.NumChannels() > 0 {
		out.Frames = len(out.Channels[0])
	}
	return out, nil
}

// LoadFile decodes path, oversamples it and caches the result. Repeated
// loads of the same path return the cached promise.
func (p *FilePool) LoadFile(path string) (*FilePromise, error) {
	p.mu.Lock()
	if promise, ok := p.cache[path]; ok {
		p.mu.Unlock()
		return promise, nil
	}
	p.mu.Unlock()

	fd, err := decodeWAV(path)
	if err != nil {
		return nil, err
	}
	fd, err = oversample(fd, p.oversampling)
	if err != nil {
		return nil, err
	}
	promise := &FilePromise{data: fd}
	promise.setAvailable(fd.Frames)

	p.mu.Lock()
	p.cache[path] = promise
	p.mu.Unlock()
	return promise, nil
}

// GetFilePromise returns the cached promise for a preloaded path, or nil.
// Never performs I/O, so it is safe on the audio thread.
func (p *FilePool) GetFilePromise(path string) *FilePromise {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache[path]
}

// LoadFromData wraps already decoded sample data in a promise and caches it
// under name, so regions can reference generated material without disk I/O.
func (p *FilePool) LoadFromData(name string, fd *FileData) *FilePromise {
	promise := &FilePromise{data: fd}
	promise.setAvailable(fd.Frames)
	p.mu.Lock()
	p.cache[name] = promise
	p.mu.Unlock()
	return promise
}

// Oversampling returns the pool's oversampling ratio.
func (p *FilePool) Oversampling() int {
	return p.oversampling
}

// Clear drops every cached file.
func (p *FilePool) Clear() {
	p.mu.Lock()
	p.cache = make(map[string]*FilePromise)
	p.mu.Unlock()
}
