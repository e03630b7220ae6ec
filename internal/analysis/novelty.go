package analysis

import "math"

// Group weights for combining per-feature dissimilarities. Spectral balance
// varies with loudness, which is a weak boundary signal on its own, so
// timbral and tonal change dominate.
const (
	weightContrast = 0.2
	weightChroma   = 0.4
	weightTimbre   = 0.4
)

// NoveltyCurve maps the feature sequence to a per-frame change-intensity
// signal in [0, 1]. At each frame the mean feature vector of the preceding
// span is compared against the mean of the following span, per feature
// group, and the cosine distances are combined with the fixed weights. The
// result is smoothed with a short moving average and min-max normalized so
// the sensitivity parameter means the same thing on any mix.
//
// The first and last span frames have no full comparison window and stay at
// zero.
func NoveltyCurve(frames []FeatureFrame, cfg Config) ([]float64, error) {
	cfg = cfg.Normalize()

	if len(frames) < 2 {
		return nil, ErrInsufficientAudio
	}

	span := cfg.NoveltySpan
	if span > len(frames)/2 {
		span = len(frames) / 2
	}
	if span < 1 {
		span = 1
	}

	curve := make([]float64, len(frames))
	for i := span; i <= len(frames)-span; i++ {
		beforeC := meanVec(frames[i-span:i], groupContrast)
		afterC := meanVec(frames[i:i+span], groupContrast)
		beforeH := meanVec(frames[i-span:i], groupChroma)
		afterH := meanVec(frames[i:i+span], groupChroma)
		beforeT := meanVec(frames[i-span:i], groupTimbre)
		afterT := meanVec(frames[i:i+span], groupTimbre)

		curve[i] = weightContrast*cosineDistance(beforeC, afterC) +
			weightChroma*cosineDistance(beforeH, afterH) +
			weightTimbre*cosineDistance(beforeT, afterT)
	}

	smoothed := movingAverage(curve, cfg.SmoothWidth)
	normalize(smoothed)
	return smoothed, nil
}

type featureGroup int

const (
	groupContrast featureGroup = iota
	groupChroma
	groupTimbre
)

func (f FeatureFrame) group(g featureGroup) []float64 {
	switch g {
	case groupContrast:
		return f.Contrast
	case groupChroma:
		return f.Chroma
	default:
		return f.Timbre
	}
}

func meanVec(frames []FeatureFrame, g featureGroup) []float64 {
	if len(frames) == 0 {
		return nil
	}
	dim := len(frames[0].group(g))
	mean := make([]float64, dim)
	for _, fr := range frames {
		v := fr.group(g)
		for i := 0; i < dim && i < len(v); i++ {
			mean[i] += v[i]
		}
	}
	inv := 1 / float64(len(frames))
	for i := range mean {
		mean[i] *= inv
	}
	return mean
}

// cosineDistance returns 1 - cosine similarity, clamped to [0, 1].
func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na < eps || nb < eps {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	d := 1 - sim
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

func movingAverage(in []float64, width int) []float64 {
	if width <= 1 {
		return in
	}
	half := width / 2
	out := make([]float64, len(in))
	for i := range in {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > len(in) {
			hi = len(in)
		}
		var sum float64
		for j := lo; j < hi; j++ {
			sum += in[j]
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// normalize rescales in place to [0, 1].
func normalize(curve []float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range curve {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo + 1e-8
	for i := range curve {
		curve[i] = (curve[i] - lo) / span
	}
}
