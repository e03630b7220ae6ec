package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Hamming returns a Hamming window of length n.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// magnitudeSpectrum computes positive-frequency magnitudes of a windowed
// frame. The returned slice has windowSize/2 bins.
func magnitudeSpectrum(frame []float64) []float64 {
	spectrum := fft.FFTReal(frame)
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// binFreq converts an FFT bin index to Hz.
func binFreq(bin, windowSize, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(windowSize)
}
