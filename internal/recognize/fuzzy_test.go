package recognize

import (
	"reflect"
	"testing"

	"github.com/himanishpuri/MixCue/internal/model"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Daft Punk - One More Time (Radio Edit)")
	expected := []string{"daft", "punk", "one", "more", "time", "radio", "edit"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Tokenize = %v, expected %v", got, expected)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "One More Time", "One More Time", 1, 1},
		{"case and punctuation", "one more time", "One. More! Time?", 1, 1},
		{"reordered", "Daft Punk One More Time", "One More Time Daft Punk", 1, 1},
		{"remix suffix", "Phat Planet", "Phat Planet (Club Remix)", 0.6, 0.99},
		{"unrelated", "Porcelain", "Born Slippy", 0, 0},
		{"empty side", "", "Something", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.min-1e-9 || got > tt.max+1e-9 {
				t.Errorf("Similarity(%q, %q) = %f, expected in [%f, %f]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestMatchDescriptor(t *testing.T) {
	descriptors := []model.TrackDescriptor{
		{Ordinal: 1, Performer: "Leftfield", Title: "Phat Planet"},
		{Ordinal: 2, Performer: "Underworld", Title: "Born Slippy"},
		{Ordinal: 3, Performer: "Orbital", Title: "Halcyon"},
	}

	result := &model.RecognitionResult{Performer: "Underworld", Title: "Born Slippy (Nuxx)"}
	ordinal, sim := MatchDescriptor(result, descriptors)
	if ordinal != 2 {
		t.Errorf("Matched ordinal %d, expected 2", ordinal)
	}
	if sim < MatchThreshold {
		t.Errorf("Similarity %f below threshold", sim)
	}
}

func TestMatchDescriptorNoMatch(t *testing.T) {
	descriptors := []model.TrackDescriptor{
		{Ordinal: 1, Performer: "Leftfield", Title: "Phat Planet"},
	}

	result := &model.RecognitionResult{Performer: "Aphex Twin", Title: "Windowlicker"}
	ordinal, sim := MatchDescriptor(result, descriptors)
	if ordinal != 0 || sim != 0 {
		t.Errorf("Expected no match, got ordinal %d sim %f", ordinal, sim)
	}
}

func TestMatchDescriptorNilResult(t *testing.T) {
	if ordinal, _ := MatchDescriptor(nil, nil); ordinal != 0 {
		t.Errorf("Expected 0 for nil result, got %d", ordinal)
	}
}
