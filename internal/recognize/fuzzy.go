package recognize

import (
	"math"
	"strings"

	"github.com/himanishpuri/MixCue/internal/model"
)

// Tokenize lowercases and splits on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127)
	})
}

// Similarity is the cosine similarity of token count vectors, in [0, 1].
// Token-based comparison survives reordered "Artist - Title (Remix)" noise
// better than edit distance does.
func Similarity(a, b string) float64 {
	ta, tb := tokenCounts(a), tokenCounts(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var dot, na, nb float64
	for tok, ca := range ta {
		na += float64(ca * ca)
		if cb, ok := tb[tok]; ok {
			dot += float64(ca * cb)
		}
	}
	for _, cb := range tb {
		nb += float64(cb * cb)
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func tokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}
	return counts
}

// MatchThreshold is the minimum similarity for treating a recognition result
// and a tracklist entry as the same track.
const MatchThreshold = 0.6

// MatchDescriptor finds the tracklist entry best matching a recognition
// result. Returns the entry's ordinal and the similarity, or (0, 0) when no
// entry clears the threshold.
func MatchDescriptor(result *model.RecognitionResult, descriptors []model.TrackDescriptor) (int, float64) {
	if result == nil || result.Title == "" {
		return 0, 0
	}
	recognized := strings.TrimSpace(result.Performer + " " + result.Title)

	bestOrdinal := 0
	bestSim := 0.0
	for _, d := range descriptors {
		if d.Title == "" {
			continue
		}
		sim := Similarity(recognized, strings.TrimSpace(d.Performer+" "+d.Title))
		if sim > bestSim && sim >= MatchThreshold {
			bestSim = sim
			bestOrdinal = d.Ordinal
		}
	}
	return bestOrdinal, bestSim
}
