package boundary

import (
	"sort"

	"github.com/himanishpuri/MixCue/internal/model"
)

// Params converts between novelty-frame indices and the time axis and
// carries the spacing constraint.
type Params struct {
	FrameDuration float64 // seconds per novelty frame
	MinGap        float64 // minimum seconds between accepted boundaries
}

// threshold derives the peak-acceptance threshold from sensitivity. Higher
// sensitivity lowers the bar: s=0 -> 0.9, s=1 -> 0.3.
func threshold(sensitivity float64) float64 {
	return 0.9 - sensitivity*0.6
}

// peak is a local maximum of the novelty curve.
type peak struct {
	idx      int
	strength float64
}

func localMaxima(curve []float64, floor float64) []peak {
	var peaks []peak
	for i := 1; i < len(curve)-1; i++ {
		if curve[i] > floor && curve[i] > curve[i-1] && curve[i] > curve[i+1] {
			peaks = append(peaks, peak{idx: i, strength: curve[i]})
		}
	}
	return peaks
}

// suppress resolves spacing conflicts: peaks are considered strongest first
// (ties go to the earlier frame) and a peak is kept only when no stronger
// accepted peak lies within the minimum gap.
func suppress(peaks []peak, minGapFrames int) []peak {
	ordered := append([]peak(nil), peaks...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].strength == ordered[j].strength {
			return ordered[i].idx < ordered[j].idx
		}
		return ordered[i].strength > ordered[j].strength
	})

	var kept []peak
	for _, p := range ordered {
		tooClose := false
		for _, k := range kept {
			if abs(p.idx-k.idx) < minGapFrames {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, p)
		}
	}
	return kept
}

// SelectCandidates picks boundary candidates from the novelty curve at the
// given sensitivity, enforcing the minimum gap. The returned candidates are
// time-ordered. A curve with no qualifying peaks yields an empty set; the
// caller then treats the whole stream as one track.
func SelectCandidates(curve []float64, sensitivity float64, p Params) []model.BoundaryCandidate {
	peaks := localMaxima(curve, threshold(sensitivity))
	kept := suppress(peaks, minGapFrames(p))
	return toCandidates(kept, p)
}

// SelectConstrained performs constrained peak selection for a known track
// count: the threshold is lowered step by step until at least want
// candidates survive the gap suppression, then exactly the top want by
// strength are kept, re-sorted by time. Fewer than want are returned only
// when the curve does not contain that many separable peaks at any
// threshold.
func SelectConstrained(curve []float64, want int, p Params) []model.BoundaryCandidate {
	if want <= 0 {
		return nil
	}

	gap := minGapFrames(p)
	var kept []peak
	for floor := 0.9; ; floor -= 0.05 {
		kept = suppress(localMaxima(curve, floor), gap)
		if len(kept) >= want || floor <= 0 {
			break
		}
	}

	// kept is strongest-first from suppression
	if len(kept) > want {
		kept = kept[:want]
	}
	return toCandidates(kept, p)
}

func minGapFrames(p Params) int {
	if p.FrameDuration <= 0 {
		return 1
	}
	frames := int(p.MinGap / p.FrameDuration)
	if frames < 1 {
		frames = 1
	}
	return frames
}

func toCandidates(peaks []peak, p Params) []model.BoundaryCandidate {
	out := make([]model.BoundaryCandidate, 0, len(peaks))
	for _, pk := range peaks {
		out = append(out, model.BoundaryCandidate{
			Time:     float64(pk.idx) * p.FrameDuration,
			Strength: pk.strength,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
