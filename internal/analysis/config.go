package analysis

// Config collects every DSP tunable in one value so tests can run the
// pipeline under alternate parameterizations deterministically. None of the
// choices here affect correctness, only resolution and runtime.
type Config struct {
	WindowSize int // FFT window length in samples (power of 2)
	HopSize    int // samples between successive frames, < WindowSize

	ContrastBands int // octave-spaced bands for the spectral contrast summary
	MelBands      int // mel filterbank size feeding the timbre descriptor
	TimbreCoeffs  int // cepstral coefficients kept from the mel log energies

	NoveltySpan int // frames on each side of the before/after comparison
	SmoothWidth int // moving-average width for the novelty curve, in frames

	MinGapSec float64 // minimum spacing between accepted boundaries

	Workers int // frame workers; 0 means GOMAXPROCS
}

// Default mirrors the hop/window the detector was tuned with: about 21 frames
// per second at an 11025 Hz analysis rate.
func Default() Config {
	return Config{
		WindowSize:    2048,
		HopSize:       512,
		ContrastBands: 6,
		MelBands:      26,
		TimbreCoeffs:  13,
		NoveltySpan:   64,
		SmoothWidth:   9,
		MinGapSec:     60,
	}
}

// Normalize fills zero fields with defaults and clamps nonsense values.
func (c Config) Normalize() Config {
	d := Default()
	if c.WindowSize <= 0 {
		c.WindowSize = d.WindowSize
	}
	if c.HopSize <= 0 || c.HopSize > c.WindowSize {
		c.HopSize = c.WindowSize / 4
	}
	if c.ContrastBands <= 0 {
		c.ContrastBands = d.ContrastBands
	}
	if c.MelBands <= 0 {
		c.MelBands = d.MelBands
	}
	if c.TimbreCoeffs <= 0 || c.TimbreCoeffs > c.MelBands {
		c.TimbreCoeffs = d.TimbreCoeffs
	}
	if c.NoveltySpan <= 0 {
		c.NoveltySpan = d.NoveltySpan
	}
	if c.SmoothWidth <= 0 {
		c.SmoothWidth = d.SmoothWidth
	}
	if c.MinGapSec <= 0 {
		c.MinGapSec = d.MinGapSec
	}
	return c
}

// FrameDuration is the seconds covered by one hop at the given rate.
func (c Config) FrameDuration(sampleRate int) float64 {
	return float64(c.HopSize) / float64(sampleRate)
}

// FrameCount returns how many full analysis windows fit into sampleCount.
func (c Config) FrameCount(sampleCount int) int {
	if sampleCount < c.WindowSize {
		return 0
	}
	return (sampleCount-c.WindowSize)/c.HopSize + 1
}
