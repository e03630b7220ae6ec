package cue

import (
	"errors"
	"strings"
	"testing"

	"github.com/himanishpuri/MixCue/internal/model"
)

func TestTimecode(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00:00"},
		{59, "00:59:00"},
		{60, "01:00:00"},
		{330.5, "05:30:37"},
		{3750, "62:30:00"}, // minutes past 59 stay minutes
	}

	for _, tt := range tests {
		if got := Timecode(tt.seconds); got != tt.expected {
			t.Errorf("Timecode(%f) = %q, expected %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestFileTypeFor(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"mix.mp3", "MP3"},
		{"mix.MP3", "MP3"},
		{"mix.m4a", "MP4"},
		{"mix.wav", "WAVE"},
		{"mix.flac", "MP3"}, // unknown extensions fall back to MP3
	}

	for _, tt := range tests {
		if got := FileTypeFor(tt.path); got != tt.expected {
			t.Errorf("FileTypeFor(%q) = %q, expected %q", tt.path, got, tt.expected)
		}
	}
}

func TestWriteNoTracks(t *testing.T) {
	var b strings.Builder
	err := Write(&b, "mix.mp3", nil)
	if !errors.Is(err, ErrNoTracks) {
		t.Errorf("Expected ErrNoTracks, got %v", err)
	}
}

func TestWriteBasicSheet(t *testing.T) {
	tracks := []model.ReconciledTrack{
		{Start: 0, End: 330, Performer: "Daft Punk", Title: "One More Time"},
		{Start: 330, End: 700, Title: "Unknown ID"},
		{Start: 700, End: 900},
	}

	var b strings.Builder
	if err := Write(&b, "/mixes/night-set.mp3", tracks); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := b.String()

	if !strings.HasPrefix(out, "FILE \"night-set.mp3\" MP3\n") {
		t.Errorf("Missing or wrong FILE line:\n%s", out)
	}
	if !strings.Contains(out, "  TRACK 01 AUDIO\n") || !strings.Contains(out, "  TRACK 03 AUDIO\n") {
		t.Errorf("Missing TRACK lines:\n%s", out)
	}
	if !strings.Contains(out, "    PERFORMER \"Daft Punk\"\n") {
		t.Errorf("Missing PERFORMER line:\n%s", out)
	}
	// untitled track falls back to a generic name
	if !strings.Contains(out, "    TITLE \"Track 03\"\n") {
		t.Errorf("Missing generic title fallback:\n%s", out)
	}
	if !strings.Contains(out, "    INDEX 01 05:30:00\n") {
		t.Errorf("Missing INDEX for second track:\n%s", out)
	}
	// a performer-less track writes no PERFORMER line at all
	if strings.Contains(out, "PERFORMER \"\"") {
		t.Errorf("Empty PERFORMER line written:\n%s", out)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	tracks := []model.ReconciledTrack{
		{Start: 0, End: 245.4, Performer: "A", Title: "One"},
		{Start: 245.4, End: 1202.72, Performer: "B", Title: "Two"},
		{Start: 1202.72, End: 3600, Title: "Three"},
	}

	var b strings.Builder
	if err := Write(&b, "set.wav", tracks); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	sheet, err := Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if sheet.File != "set.wav" || sheet.Format != "WAVE" {
		t.Errorf("FILE round trip: %q %q", sheet.File, sheet.Format)
	}
	if len(sheet.Tracks) != len(tracks) {
		t.Fatalf("Got %d tracks, expected %d", len(sheet.Tracks), len(tracks))
	}

	for i, st := range sheet.Tracks {
		if st.Number != i+1 {
			t.Errorf("Track %d numbered %d", i+1, st.Number)
		}
		if st.Performer != tracks[i].Performer {
			t.Errorf("Track %d performer %q, expected %q", i+1, st.Performer, tracks[i].Performer)
		}
		// start times survive to frame resolution, 1/75 s
		diff := st.IndexSec - tracks[i].Start
		if diff < -1.0/cueFPS || diff > 1.0/cueFPS {
			t.Errorf("Track %d index %.4f, expected %.4f", i+1, st.IndexSec, tracks[i].Start)
		}
	}
}

func TestParseIgnoresUnknownLines(t *testing.T) {
	input := "REM COMMENT generated\nFILE \"x.mp3\" MP3\n  TRACK 01 AUDIO\n    TITLE \"T\"\n    INDEX 01 00:00:00\n"
	sheet, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(sheet.Tracks) != 1 || sheet.Tracks[0].Title != "T" {
		t.Errorf("Unexpected parse result: %+v", sheet)
	}
}
