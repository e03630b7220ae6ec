// Package cue reads and writes mp3DirectCut-compatible cue sheets.
package cue

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/MixCue/internal/model"
)

// ErrNoTracks is returned when asked to serialize an empty track sequence.
var ErrNoTracks = errors.New("cue sheet requires at least one track")

// cueFPS: the cue INDEX frame field counts 75ths of a second.
const cueFPS = 75

// FileTypeFor maps an audio file extension to the cue FILE type token.
func FileTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "MP3"
	case ".m4a", ".aac", ".mp4":
		return "MP4"
	case ".wav":
		return "WAVE"
	default:
		return "MP3"
	}
}

// Timecode formats seconds as the cue MM:SS:FF fixed three-field code.
// Minutes run past 99 for long mixes; players accept that.
func Timecode(seconds float64) string {
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	frames := int((seconds - float64(int(seconds))) * cueFPS)
	return fmt.Sprintf("%02d:%02d:%02d", mins, secs, frames)
}

// Write serializes the reconciled tracks. Tracks must already be
// time-ordered and contiguous with the first start at 0.
func Write(w io.Writer, audioFileName string, tracks []model.ReconciledTrack) error {
	if len(tracks) == 0 {
		return ErrNoTracks
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FILE \"%s\" %s\n", filepath.Base(audioFileName), FileTypeFor(audioFileName))

	for i, t := range tracks {
		fmt.Fprintf(&b, "  TRACK %02d AUDIO\n", i+1)
		if t.Performer != "" {
			fmt.Fprintf(&b, "    PERFORMER \"%s\"\n", t.Performer)
		}
		title := t.Title
		if title == "" {
			title = fmt.Sprintf("Track %02d", i+1)
		}
		fmt.Fprintf(&b, "    TITLE \"%s\"\n", title)
		fmt.Fprintf(&b, "    INDEX 01 %s\n", Timecode(t.Start))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
