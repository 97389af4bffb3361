package sfz

import (
	"math"
)

const (
	testSampleRate = 48000
	testBlockSize  = 1024
)

// newTestResources builds the collaborator set most voice tests want: default
// config, a CC-driven matrix and a deterministic random source.
func newTestResources() (*Resources, *BasicModMatrix) {
	res := NewResources(testSampleRate, testBlockSize)
	matrix := NewBasicModMatrix(res.MidiState)
	res.ModMatrix = matrix
	return res, matrix
}

// renderBlocks renders numBlocks full blocks and returns the concatenated
// left and right channels.
func renderBlocks(v *Voice, res *Resources, matrix *BasicModMatrix, numBlocks int) ([]float32, []float32) {
	left := make([]float32, 0, numBlocks*testBlockSize)
	right := make([]float32, 0, numBlocks*testBlockSize)
	buffer := NewStereoBuffer(testBlockSize)
	for b := 0; b < numBlocks; b++ {
		if matrix != nil {
			matrix.BeginBlock(testBlockSize)
		}
		v.RenderBlock(buffer)
		left = append(left, buffer.Left...)
		right = append(right, buffer.Right...)
		res.MidiState.AdvanceBlock()
	}
	return left, right
}

// makeSineFileData builds mono sample data with a pure sine.
func makeSineFileData(freq, sampleRate float32, frames int) *FileData {
	data := make([]float32, frames)
	w := 2.0 * math.Pi * float64(freq) / float64(sampleRate)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(w*float64(i)))
	}
	return &FileData{
		Channels:   [][]float32{data},
		SampleRate: sampleRate,
		Frames:     frames,
	}
}

// makeRampFileData builds mono sample data whose value equals its frame
// index, so playback positions are directly observable.
func makeRampFileData(frames int) *FileData {
	data := make([]float32, frames)
	for i := range data {
		data[i] = float32(i)
	}
	return &FileData{
		Channels:   [][]float32{data},
		SampleRate: testSampleRate,
		Frames:     frames,
	}
}

func measureFundamentalFreq(samples []float32, sampleRate float32) float32 {
	startIdx := len(samples) / 10
	crossings := 0
	for i := startIdx + 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	if crossings == 0 {
		return 0
	}
	duration := float32(len(samples)-startIdx) / sampleRate
	return float32(crossings) / (2.0 * duration)
}

func windowRMS(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func dftBinMagnitude(samples []float32, bin int) float64 {
	n := len(samples)
	var re float64
	var im float64
	for i := 0; i < n; i++ {
		phase := -2.0 * math.Pi * float64(bin*i) / float64(n)
		x := float64(samples[i])
		re += x * math.Cos(phase)
		im += x * math.Sin(phase)
	}
	return math.Hypot(re, im)
}

func findPeakNear(samples []float32, sampleRate int, centerHz, spanHz float64) float64 {
	n := len(samples)
	minBin := int((centerHz - spanHz) * float64(n) / float64(sampleRate))
	maxBin := int((centerHz + spanHz) * float64(n) / float64(sampleRate))
	if minBin < 1 {
		minBin = 1
	}
	if maxBin > n/2-1 {
		maxBin = n/2 - 1
	}
	if minBin >= maxBin {
		return 0
	}
	bestBin := minBin
	bestMag := 0.0
	for k := minBin; k <= maxBin; k++ {
		mag := dftBinMagnitude(samples, k)
		if mag > bestMag {
			bestMag = mag
			bestBin = k
		}
	}
	return float64(bestBin) * float64(sampleRate) / float64(n)
}
