package boundary

import (
	"strings"
	"testing"

	"github.com/himanishpuri/MixCue/internal/model"
)

func assertContiguous(t *testing.T, tracks []model.ReconciledTrack, duration float64) {
	t.Helper()

	if len(tracks) == 0 {
		t.Fatal("No tracks")
	}
	if tracks[0].Start != 0 {
		t.Errorf("First track starts at %.2f, expected 0", tracks[0].Start)
	}
	for i := 1; i < len(tracks); i++ {
		if tracks[i].Start != tracks[i-1].End {
			t.Errorf("Gap between track %d end (%.2f) and track %d start (%.2f)",
				i, tracks[i-1].End, i+1, tracks[i].Start)
		}
	}
	if last := tracks[len(tracks)-1]; last.End != duration {
		t.Errorf("Last track ends at %.2f, expected %.2f", last.End, duration)
	}
}

func TestReconcileNoTracklist(t *testing.T) {
	curve := curveWithPeaks(400, map[int]float64{100: 0.9, 250: 0.8})
	p := Params{FrameDuration: 1, MinGap: 20}

	tracks, warnings := Reconcile(curve, p, 0.5, 400, nil)
	if len(warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", warnings)
	}
	if len(tracks) != 3 {
		t.Fatalf("Expected 3 tracks from 2 boundaries, got %d", len(tracks))
	}
	assertContiguous(t, tracks, 400)

	for i, track := range tracks {
		if track.Title != GenericTitle(i+1) {
			t.Errorf("Track %d title = %q, expected generic", i+1, track.Title)
		}
	}
}

func TestReconcileNoTracklistFlatCurve(t *testing.T) {
	// No qualifying peaks: the whole stream is one track
	tracks, _ := Reconcile(make([]float64, 200), Params{FrameDuration: 1, MinGap: 20}, 1, 200, nil)
	if len(tracks) != 1 {
		t.Fatalf("Expected a single track, got %d", len(tracks))
	}
	assertContiguous(t, tracks, 200)
}

func TestReconcileDeclaredTimestamps(t *testing.T) {
	descriptors := []model.TrackDescriptor{
		{Ordinal: 1, Performer: "A", Title: "One", Timestamp: 0, HasTimestamp: true},
		{Ordinal: 2, Performer: "B", Title: "Two", Timestamp: 300, HasTimestamp: true},
		{Ordinal: 3, Performer: "C", Title: "Three", Timestamp: 720, HasTimestamp: true},
	}

	// Detection must not run: a nil curve suffices
	tracks, warnings := Reconcile(nil, Params{FrameDuration: 1, MinGap: 60}, 0.5, 1000, descriptors)
	if len(warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", warnings)
	}
	if len(tracks) != 3 {
		t.Fatalf("Expected 3 tracks, got %d", len(tracks))
	}
	assertContiguous(t, tracks, 1000)

	if tracks[1].Start != 300 || tracks[2].Start != 720 {
		t.Errorf("Declared times not honored: %.0f, %.0f", tracks[1].Start, tracks[2].Start)
	}
	if tracks[0].Performer != "A" || tracks[2].Title != "Three" {
		t.Error("Descriptor metadata not carried through")
	}
}

func TestReconcileFirstDeclaredTimeNonzero(t *testing.T) {
	descriptors := []model.TrackDescriptor{
		{Ordinal: 1, Title: "One", Timestamp: 30, HasTimestamp: true},
		{Ordinal: 2, Title: "Two", Timestamp: 400, HasTimestamp: true},
	}

	tracks, warnings := Reconcile(nil, Params{}, 0.5, 900, descriptors)
	if len(warnings) != 1 {
		t.Fatalf("Expected a pin-to-zero warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0].Message, "pinning to 0") {
		t.Errorf("Unexpected warning: %s", warnings[0].Message)
	}
	assertContiguous(t, tracks, 900)
}

func TestReconcileConstrainedDetection(t *testing.T) {
	curve := curveWithPeaks(600, map[int]float64{200: 0.7, 420: 0.85})
	p := Params{FrameDuration: 1, MinGap: 60}
	descriptors := []model.TrackDescriptor{
		{Ordinal: 1, Performer: "A", Title: "One"},
		{Ordinal: 2, Performer: "B", Title: "Two"},
		{Ordinal: 3, Performer: "C", Title: "Three"},
	}

	tracks, warnings := Reconcile(curve, p, 0.5, 600, descriptors)
	if len(warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", warnings)
	}
	if len(tracks) != 3 {
		t.Fatalf("Expected 3 tracks, got %d", len(tracks))
	}
	assertContiguous(t, tracks, 600)

	if tracks[0].Title != "One" || tracks[1].Title != "Two" || tracks[2].Title != "Three" {
		t.Errorf("Descriptors not zipped positionally: %+v", tracks)
	}
	if tracks[1].Start != 200 || tracks[2].Start != 420 {
		t.Errorf("Boundaries not placed at detected peaks: %.0f, %.0f", tracks[1].Start, tracks[2].Start)
	}
}

func TestReconcileConstrainedShortfall(t *testing.T) {
	// One separable peak for a four-entry tracklist: fewer tracks plus a
	// warning, never a failure.
	curve := curveWithPeaks(600, map[int]float64{300: 0.9})
	p := Params{FrameDuration: 1, MinGap: 60}
	descriptors := []model.TrackDescriptor{
		{Ordinal: 1, Title: "One"},
		{Ordinal: 2, Title: "Two"},
		{Ordinal: 3, Title: "Three"},
		{Ordinal: 4, Title: "Four"},
	}

	tracks, warnings := Reconcile(curve, p, 0.5, 600, descriptors)
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks from a single boundary, got %d", len(tracks))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "dropped") {
		t.Errorf("Expected a shortfall warning, got %v", warnings)
	}
	assertContiguous(t, tracks, 600)
}

func TestReconcileMixedTimestampsUsesDetection(t *testing.T) {
	// A partial set of explicit timestamps is ignored wholesale; detection
	// places every boundary.
	curve := curveWithPeaks(600, map[int]float64{250: 0.9})
	p := Params{FrameDuration: 1, MinGap: 60}
	descriptors := []model.TrackDescriptor{
		{Ordinal: 1, Title: "One", Timestamp: 0, HasTimestamp: true},
		{Ordinal: 2, Title: "Two"},
	}

	tracks, _ := Reconcile(curve, p, 0.5, 600, descriptors)
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(tracks))
	}
	if tracks[1].Start != 250 {
		t.Errorf("Boundary at %.0f, expected detected peak at 250", tracks[1].Start)
	}
}

func TestAllTimestamped(t *testing.T) {
	full := []model.TrackDescriptor{
		{Ordinal: 1, HasTimestamp: true},
		{Ordinal: 2, HasTimestamp: true},
	}
	partial := []model.TrackDescriptor{
		{Ordinal: 1, HasTimestamp: true},
		{Ordinal: 2},
	}

	if !AllTimestamped(full) {
		t.Error("Expected true for fully timestamped descriptors")
	}
	if AllTimestamped(partial) {
		t.Error("Expected false for partially timestamped descriptors")
	}
	if AllTimestamped(nil) {
		t.Error("Expected false for no descriptors")
	}
}
