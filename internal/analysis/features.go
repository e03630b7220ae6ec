package analysis

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"
)

// ErrInsufficientAudio marks input too short to frame and compare.
var ErrInsufficientAudio = errors.New("insufficient audio for analysis")

// FeatureFrame summarizes one analysis window from three orthogonal views:
// how energy spreads across frequency bands (Contrast), where it sits in
// pitch-class space (Chroma), and the shape of the spectral envelope
// (Timbre). Chroma and Timbre carry most of the boundary signal; Contrast
// mostly tracks loudness and is weighted down later.
type FeatureFrame struct {
	Contrast []float64
	Chroma   []float64
	Timbre   []float64
}

const chromaBins = 12

// extractor precomputes everything shared across frames.
type extractor struct {
	cfg        Config
	sampleRate int
	window     []float64
	contrast   [][2]int    // bin ranges per octave band
	chromaMap  []int       // bin -> pitch class, -1 for unmapped bins
	melBank    [][]float64 // MelBands x halfBins triangular filters
}

// ExtractFeatures converts mono samples into the ordered FeatureFrame
// sequence. Frames are computed on a bounded worker pool; results land in a
// preallocated slice by index, so the output order never depends on
// scheduling.
func ExtractFeatures(ctx context.Context, samples []float64, sampleRate int, cfg Config) ([]FeatureFrame, error) {
	cfg = cfg.Normalize()

	nFrames := cfg.FrameCount(len(samples))
	if nFrames < 1 {
		return nil, ErrInsufficientAudio
	}

	ex := newExtractor(cfg, sampleRate)
	frames := make([]FeatureFrame, nFrames)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > nFrames {
		workers = nFrames
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			frame := make([]float64, cfg.WindowSize)
			for i := range jobs {
				start := i * cfg.HopSize
				copy(frame, samples[start:start+cfg.WindowSize])
				for j := 0; j < cfg.WindowSize; j++ {
					frame[j] *= ex.window[j]
				}
				frames[i] = ex.describe(magnitudeSpectrum(frame))
			}
		}()
	}

	var cancelled error
dispatch:
	for i := 0; i < nFrames; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return frames, nil
}

func newExtractor(cfg Config, sampleRate int) *extractor {
	halfBins := cfg.WindowSize / 2
	return &extractor{
		cfg:        cfg,
		sampleRate: sampleRate,
		window:     Hamming(cfg.WindowSize),
		contrast:   contrastBands(cfg.ContrastBands, halfBins, cfg.WindowSize, sampleRate),
		chromaMap:  chromaMapping(halfBins, cfg.WindowSize, sampleRate),
		melBank:    melFilterbank(cfg.MelBands, halfBins, cfg.WindowSize, sampleRate),
	}
}

// describe computes all three feature groups from one magnitude spectrum.
func (e *extractor) describe(mag []float64) FeatureFrame {
	return FeatureFrame{
		Contrast: e.spectralContrast(mag),
		Chroma:   e.chroma(mag),
		Timbre:   e.timbre(mag),
	}
}

const eps = 1e-10

// spectralContrast measures, per octave band, the dB spread between the
// strongest and weakest fifth of the band. Changes in frequency balance show
// up here independent of which key is playing.
func (e *extractor) spectralContrast(mag []float64) []float64 {
	out := make([]float64, len(e.contrast))
	for b, rng := range e.contrast {
		lo, hi := rng[0], rng[1]
		if hi <= lo {
			continue
		}
		band := append([]float64(nil), mag[lo:hi]...)
		insertionSort(band)

		q := len(band) / 5
		if q < 1 {
			q = 1
		}
		var valley, peak float64
		for i := 0; i < q; i++ {
			valley += band[i]
			peak += band[len(band)-1-i]
		}
		out[b] = 20 * math.Log10((peak+eps)/(valley+eps))
	}
	return out
}

// chroma folds the spectrum onto the 12 pitch classes and L2-normalizes, so
// a key change reads as a direction change regardless of loudness.
func (e *extractor) chroma(mag []float64) []float64 {
	out := make([]float64, chromaBins)
	for bin, pc := range e.chromaMap {
		if pc >= 0 {
			out[pc] += mag[bin]
		}
	}
	var norm float64
	for _, v := range out {
		norm += v * v
	}
	if norm > eps {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i] /= norm
		}
	}
	return out
}

// timbre is a compact cepstral descriptor of the spectral envelope: mel
// filterbank energies, log-compressed, decorrelated with a DCT-II.
func (e *extractor) timbre(mag []float64) []float64 {
	logMel := make([]float64, len(e.melBank))
	for m, filter := range e.melBank {
		var energy float64
		for bin, w := range filter {
			if w > 0 {
				energy += w * mag[bin] * mag[bin]
			}
		}
		logMel[m] = math.Log(energy + eps)
	}
	return dct2(logMel, e.cfg.TimbreCoeffs)
}

// contrastBands builds octave-spaced bin ranges starting below 200 Hz.
func contrastBands(count, halfBins, windowSize, sampleRate int) [][2]int {
	bands := make([][2]int, count)
	edge := 200.0
	lo := 0
	for b := 0; b < count; b++ {
		hi := int(edge * float64(windowSize) / float64(sampleRate))
		if hi > halfBins || b == count-1 {
			hi = halfBins
		}
		if hi < lo+1 {
			hi = lo + 1
			if hi > halfBins {
				hi = halfBins
			}
		}
		bands[b] = [2]int{lo, hi}
		lo = hi
		edge *= 2
	}
	return bands
}

// chromaMapping assigns each FFT bin to a pitch class. Bins below 55 Hz have
// no usable pitch resolution and are dropped.
func chromaMapping(halfBins, windowSize, sampleRate int) []int {
	mapping := make([]int, halfBins)
	for bin := 0; bin < halfBins; bin++ {
		f := binFreq(bin, windowSize, sampleRate)
		if f < 55 {
			mapping[bin] = -1
			continue
		}
		pc := int(math.Round(12*math.Log2(f/440))) % chromaBins
		if pc < 0 {
			pc += chromaBins
		}
		mapping[bin] = pc
	}
	return mapping
}

func hzToMel(f float64) float64 {
	return 2595 * math.Log10(1+f/700)
}

func melToHz(m float64) float64 {
	return 700 * (math.Pow(10, m/2595) - 1)
}

// melFilterbank builds triangular overlapping filters across the full band.
func melFilterbank(bands, halfBins, windowSize, sampleRate int) [][]float64 {
	maxMel := hzToMel(float64(sampleRate) / 2)
	centers := make([]float64, bands+2)
	for i := range centers {
		centers[i] = melToHz(maxMel * float64(i) / float64(bands+1))
	}

	bank := make([][]float64, bands)
	for m := 0; m < bands; m++ {
		left, center, right := centers[m], centers[m+1], centers[m+2]
		filter := make([]float64, halfBins)
		for bin := 0; bin < halfBins; bin++ {
			f := binFreq(bin, windowSize, sampleRate)
			switch {
			case f <= left || f >= right:
			case f <= center:
				filter[bin] = (f - left) / (center - left + eps)
			default:
				filter[bin] = (right - f) / (right - center + eps)
			}
		}
		bank[m] = filter
	}
	return bank
}

// dct2 keeps the first n coefficients of an orthonormal DCT-II.
func dct2(in []float64, n int) []float64 {
	N := len(in)
	if n > N {
		n = N
	}
	out := make([]float64, n)
	scale0 := math.Sqrt(1 / float64(N))
	scale := math.Sqrt(2 / float64(N))
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < N; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(N))
		}
		if k == 0 {
			out[k] = sum * scale0
		} else {
			out[k] = sum * scale
		}
	}
	return out
}

// insertionSort is enough for the short per-band slices and avoids pulling
// sort into the hot path with interface overhead.
func insertionSort(a []float64) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}
