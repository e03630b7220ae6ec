package model

import "fmt"

// TrackDescriptor is a single entry of a human-authored tracklist.
// Immutable once parsed.
type TrackDescriptor struct {
	Ordinal   int
	Performer string // optional
	Title     string

	// Timestamp is the declared start in seconds when the line carried a
	// bracketed time code. Valid only when HasTimestamp is true.
	Timestamp    float64
	HasTimestamp bool
}

func (t TrackDescriptor) String() string {
	s := fmt.Sprintf("%02d. ", t.Ordinal)
	if t.Performer != "" {
		s += t.Performer + " - "
	}
	s += t.Title
	if t.HasTimestamp {
		mins := int(t.Timestamp) / 60
		secs := int(t.Timestamp) % 60
		s += fmt.Sprintf(" [%d:%02d]", mins, secs)
	}
	return s
}

// BoundaryCandidate is a detected track transition.
type BoundaryCandidate struct {
	Time     float64 // seconds from stream start
	Strength float64 // novelty value at the peak, in [0,1]
}

// ReconciledTrack is the final authoritative mapping from the time axis to a
// named track. End is the next track's start, or the stream end for the last
// track.
type ReconciledTrack struct {
	Start     float64
	End       float64
	Performer string
	Title     string
}

func (t ReconciledTrack) Duration() float64 {
	return t.End - t.Start
}

// RecognitionResult is a fingerprint-service match for one segment. It only
// lives long enough to fill metadata gaps in a ReconciledTrack.
type RecognitionResult struct {
	Source     string // provider tag, e.g. "acoustid" or "shazam"
	Title      string
	Performer  string
	Confidence float64 // 0..1
}

// Warning is a recoverable condition surfaced to the caller without
// interrupting the run.
type Warning struct {
	Stage   string
	Message string
}

func (w Warning) String() string {
	return w.Stage + ": " + w.Message
}

func Warningf(stage, format string, args ...any) Warning {
	return Warning{Stage: stage, Message: fmt.Sprintf(format, args...)}
}
