package boundary

import (
	"fmt"
	"sort"

	"github.com/himanishpuri/MixCue/internal/model"
)

// GenericTitle names a track that has no descriptor and no recognition hit.
func GenericTitle(ordinal int) string {
	return fmt.Sprintf("Track %02d", ordinal)
}

// AllTimestamped reports whether every descriptor declares an explicit
// timestamp. A partial mix of explicit and implicit timestamps counts as
// none at all: detection then runs for every boundary rather than producing
// an inconsistent hybrid.
func AllTimestamped(descriptors []model.TrackDescriptor) bool {
	if len(descriptors) == 0 {
		return false
	}
	for _, d := range descriptors {
		if !d.HasTimestamp {
			return false
		}
	}
	return true
}

// Reconcile merges detection with whatever the tracklist declares and
// produces the final time-ordered, contiguous track sequence starting at 0.
//
// Three regimes:
//   - no tracklist: detected candidates verbatim, generic titles;
//   - tracklist without explicit timestamps: constrained detection pinned to
//     the tracklist length, zipped positionally;
//   - explicit timestamps on every entry: detection bypassed, declared times
//     win.
func Reconcile(
	curve []float64,
	p Params,
	sensitivity float64,
	duration float64,
	descriptors []model.TrackDescriptor,
) ([]model.ReconciledTrack, []model.Warning) {

	switch {
	case len(descriptors) == 0:
		candidates := SelectCandidates(curve, sensitivity, p)
		return buildGeneric(candidates, duration), nil

	case AllTimestamped(descriptors):
		return fromDeclaredTimes(descriptors, duration)

	default:
		return fromConstrainedDetection(curve, p, duration, descriptors)
	}
}

func buildGeneric(candidates []model.BoundaryCandidate, duration float64) []model.ReconciledTrack {
	starts := []float64{0}
	for _, c := range candidates {
		starts = append(starts, c.Time)
	}
	tracks := make([]model.ReconciledTrack, len(starts))
	for i, start := range starts {
		end := duration
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		tracks[i] = model.ReconciledTrack{
			Start: start,
			End:   end,
			Title: GenericTitle(i + 1),
		}
	}
	return tracks
}

// fromDeclaredTimes trusts the tracklist outright. Declared times are
// strictly more trustworthy than detection and always win when fully
// present.
func fromDeclaredTimes(descriptors []model.TrackDescriptor, duration float64) ([]model.ReconciledTrack, []model.Warning) {
	ordered := append([]model.TrackDescriptor(nil), descriptors...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	var warnings []model.Warning
	tracks := make([]model.ReconciledTrack, len(ordered))
	for i, d := range ordered {
		start := d.Timestamp
		if i == 0 && start != 0 {
			warnings = append(warnings, model.Warningf("reconcile",
				"first track declared at %.1fs, pinning to 0", start))
			start = 0
		}
		tracks[i] = model.ReconciledTrack{
			Start:     start,
			Performer: d.Performer,
			Title:     d.Title,
		}
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Start < tracks[j].Start })
	for i := range tracks {
		if i+1 < len(tracks) {
			tracks[i].End = tracks[i+1].Start
		} else {
			tracks[i].End = duration
		}
	}
	return tracks, warnings
}

func fromConstrainedDetection(
	curve []float64,
	p Params,
	duration float64,
	descriptors []model.TrackDescriptor,
) ([]model.ReconciledTrack, []model.Warning) {

	var warnings []model.Warning

	want := len(descriptors) - 1
	candidates := SelectConstrained(curve, want, p)
	if len(candidates) < want {
		warnings = append(warnings, model.Warningf("reconcile",
			"tracklist names %d tracks but only %d separable boundaries were found; trailing entries are dropped",
			len(descriptors), len(candidates)))
	}

	// track i begins at boundary i-1; the first track begins at 0
	starts := []float64{0}
	for _, c := range candidates {
		starts = append(starts, c.Time)
	}

	tracks := make([]model.ReconciledTrack, len(starts))
	for i, start := range starts {
		end := duration
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		t := model.ReconciledTrack{Start: start, End: end, Title: GenericTitle(i + 1)}
		if i < len(descriptors) {
			t.Performer = descriptors[i].Performer
			t.Title = descriptors[i].Title
		}
		tracks[i] = t
	}
	return tracks, warnings
}
