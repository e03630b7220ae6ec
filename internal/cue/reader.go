package cue

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// Sheet is the structural form of a parsed cue sheet.
type Sheet struct {
	File   string
	Format string
	Tracks []SheetTrack
}

type SheetTrack struct {
	Number    int
	Performer string
	Title     string
	IndexSec  float64 // INDEX 01 offset in seconds, frame field included
}

var (
	reFile  = regexp.MustCompile(`^FILE\s+"(.*)"\s+(\S+)\s*$`)
	reTrack = regexp.MustCompile(`^\s*TRACK\s+(\d+)\s+AUDIO\s*$`)
	rePerf  = regexp.MustCompile(`^\s*PERFORMER\s+"(.*)"\s*$`)
	reTitle = regexp.MustCompile(`^\s*TITLE\s+"(.*)"\s*$`)
	reIndex = regexp.MustCompile(`^\s*INDEX\s+01\s+(\d+):(\d{2}):(\d{2})\s*$`)
)

// Parse reads a cue sheet back into its structural form. Only the subset of
// the grammar that Write emits is understood; unknown lines are ignored.
func Parse(r io.Reader) (*Sheet, error) {
	sheet := &Sheet{}
	var current *SheetTrack

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if m := reFile.FindStringSubmatch(line); m != nil {
			sheet.File = m[1]
			sheet.Format = m[2]
			continue
		}
		if m := reTrack.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			sheet.Tracks = append(sheet.Tracks, SheetTrack{Number: n})
			current = &sheet.Tracks[len(sheet.Tracks)-1]
			continue
		}
		if current == nil {
			continue
		}
		if m := rePerf.FindStringSubmatch(line); m != nil {
			current.Performer = m[1]
			continue
		}
		if m := reTitle.FindStringSubmatch(line); m != nil {
			current.Title = m[1]
			continue
		}
		if m := reIndex.FindStringSubmatch(line); m != nil {
			mins, _ := strconv.Atoi(m[1])
			secs, _ := strconv.Atoi(m[2])
			frames, _ := strconv.Atoi(m[3])
			current.IndexSec = float64(mins*60+secs) + float64(frames)/cueFPS
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cue sheet: %w", err)
	}
	return sheet, nil
}
