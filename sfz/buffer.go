package sfz

// StereoBuffer is a non-interleaved stereo block. Left and Right always have
// the same length.
type StereoBuffer struct {
	Left  []float32
	Right []float32
}

// NewStereoBuffer allocates a zeroed stereo block of the given frame count.
func NewStereoBuffer(frames int) *StereoBuffer {
	return &StereoBuffer{
		Left:  make([]float32, frames),
		Right: make([]float32, frames),
	}
}

// Frames returns the block length.
func (b *StereoBuffer) Frames() int {
	return len(b.Left)
}

// Fill sets every sample of both channels to value.
func (b *StereoBuffer) Fill(value float32) {
	fillF(b.Left, value)
	fillF(b.Right, value)
}

// Sub returns a view starting at offset, sharing the underlying storage.
func (b *StereoBuffer) Sub(offset int) StereoBuffer {
	if offset > len(b.Left) {
		offset = len(b.Left)
	}
	return StereoBuffer{
		Left:  b.Left[offset:],
		Right: b.Right[offset:],
	}
}

// Interleave copies the block into an interleaved L/R slice.
func (b *StereoBuffer) Interleave(dst []float32) []float32 {
	n := b.Frames()
	if cap(dst) < n*2 {
		dst = make([]float32, n*2)
	}
	dst = dst[:n*2]
	for i := 0; i < n; i++ {
		dst[i*2] = b.Left[i]
		dst[i*2+1] = b.Right[i]
	}
	return dst
}
