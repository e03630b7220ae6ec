package analysis

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

// sine generates a test tone.
func sine(freq float64, sampleRate, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return samples
}

// harmonics generates a tone with a richer spectral envelope.
func harmonics(freq float64, sampleRate, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = 0.5*math.Sin(2*math.Pi*freq*t) +
			0.3*math.Sin(2*math.Pi*2*freq*t) +
			0.2*math.Sin(2*math.Pi*3*freq*t)
	}
	return samples
}

func smallConfig() Config {
	return Config{
		WindowSize:    512,
		HopSize:       256,
		ContrastBands: 6,
		MelBands:      26,
		TimbreCoeffs:  13,
		NoveltySpan:   8,
		SmoothWidth:   5,
		MinGapSec:     2,
	}
}

func TestExtractFeaturesFrameCount(t *testing.T) {
	const sampleRate = 8000
	cfg := smallConfig()
	samples := sine(440, sampleRate, sampleRate*2)

	frames, err := ExtractFeatures(context.Background(), samples, sampleRate, cfg)
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}

	expected := (len(samples)-cfg.WindowSize)/cfg.HopSize + 1
	if len(frames) != expected {
		t.Errorf("Got %d frames, expected %d", len(frames), expected)
	}

	for i, f := range frames {
		if len(f.Contrast) != cfg.ContrastBands {
			t.Fatalf("Frame %d: contrast dims = %d, expected %d", i, len(f.Contrast), cfg.ContrastBands)
		}
		if len(f.Chroma) != chromaBins {
			t.Fatalf("Frame %d: chroma dims = %d, expected %d", i, len(f.Chroma), chromaBins)
		}
		if len(f.Timbre) != cfg.TimbreCoeffs {
			t.Fatalf("Frame %d: timbre dims = %d, expected %d", i, len(f.Timbre), cfg.TimbreCoeffs)
		}
	}
}

func TestExtractFeaturesTooShort(t *testing.T) {
	cfg := smallConfig()
	samples := make([]float64, cfg.WindowSize-1)

	_, err := ExtractFeatures(context.Background(), samples, 8000, cfg)
	if !errors.Is(err, ErrInsufficientAudio) {
		t.Errorf("Expected ErrInsufficientAudio, got %v", err)
	}
}

func TestExtractFeaturesDeterministicAcrossWorkers(t *testing.T) {
	const sampleRate = 8000
	samples := harmonics(220, sampleRate, sampleRate*3)

	serial := smallConfig()
	serial.Workers = 1
	parallel := smallConfig()
	parallel.Workers = 4

	a, err := ExtractFeatures(context.Background(), samples, sampleRate, serial)
	if err != nil {
		t.Fatalf("Serial extraction failed: %v", err)
	}
	b, err := ExtractFeatures(context.Background(), samples, sampleRate, parallel)
	if err != nil {
		t.Fatalf("Parallel extraction failed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("Worker count changed the extracted features")
	}
}

func TestExtractFeaturesCancellation(t *testing.T) {
	const sampleRate = 8000
	samples := sine(440, sampleRate, sampleRate*10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractFeatures(ctx, samples, sampleRate, smallConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestChromaUnitNorm(t *testing.T) {
	const sampleRate = 8000
	cfg := smallConfig()
	samples := sine(440, sampleRate, sampleRate)

	frames, err := ExtractFeatures(context.Background(), samples, sampleRate, cfg)
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}

	var norm float64
	for _, v := range frames[len(frames)/2].Chroma {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("Chroma L2 norm = %f, expected 1", norm)
	}
}

func TestChromaPitchClassOfA440(t *testing.T) {
	const sampleRate = 8000
	cfg := smallConfig()
	samples := sine(440, sampleRate, sampleRate)

	frames, err := ExtractFeatures(context.Background(), samples, sampleRate, cfg)
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}

	chroma := frames[len(frames)/2].Chroma
	maxIdx := 0
	for i, v := range chroma {
		if v > chroma[maxIdx] {
			maxIdx = i
		}
	}
	// pitch class 0 is A in the 440-referenced mapping
	if maxIdx != 0 {
		t.Errorf("A440 mapped to pitch class %d, expected 0", maxIdx)
	}
}

func TestHammingWindow(t *testing.T) {
	w := Hamming(512)
	if len(w) != 512 {
		t.Fatalf("Window length = %d, expected 512", len(w))
	}
	// symmetric, small at the edges, unity-ish in the middle
	for i := 0; i < len(w)/2; i++ {
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
			t.Fatalf("Window not symmetric at index %d", i)
		}
	}
	if w[0] > 0.1 || w[256] < 0.9 {
		t.Errorf("Unexpected window shape: edge %f, center %f", w[0], w[256])
	}
}

func TestMagnitudeSpectrumPeakBin(t *testing.T) {
	const sampleRate = 8000
	const windowSize = 512
	freq := binFreq(32, windowSize, sampleRate) // exact bin center

	frame := sine(freq, sampleRate, windowSize)
	window := Hamming(windowSize)
	for i := range frame {
		frame[i] *= window[i]
	}

	mag := magnitudeSpectrum(frame)
	if len(mag) != windowSize/2 {
		t.Fatalf("Got %d bins, expected %d", len(mag), windowSize/2)
	}

	maxBin := 0
	for i, v := range mag {
		if v > mag[maxBin] {
			maxBin = i
		}
	}
	if maxBin != 32 {
		t.Errorf("Peak at bin %d, expected 32", maxBin)
	}
}
