package tracklist

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/himanishpuri/MixCue/internal/model"
)

var (
	// ErrEmpty is returned when non-empty input yields zero descriptors.
	ErrEmpty = errors.New("no tracks recognized in tracklist")

	// ErrOrdinalOrder is returned when explicit track numbers go backwards.
	// The tracklist is unusable as a whole; the caller must fix it or fall
	// back to detection-only mode.
	ErrOrdinalOrder = errors.New("tracklist ordinals out of order")
)

// Line shapes, tried in priority order once the timestamp is stripped:
//
//	1. Artist - Title
//	1. Title
//	Artist - Title
//	Title
//
// A hyphen needs at least one space on each side to act as the
// performer/title separator, so "AC-DC - Back In Black" keeps its band name
// intact.
var (
	reOrdinalArtistTitle = regexp.MustCompile(`^(\d+)[.)]\s+(.+?)\s+-\s+(.+)$`)
	reOrdinalTitle       = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)
	reArtistTitle        = regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`)

	// [h:mm:ss], [mm:ss], (mm:ss)
	reTimestamp = regexp.MustCompile(`[\[(](?:(\d+):)?(\d{1,2}):(\d{2})[\])]`)

	reSpaces = regexp.MustCompile(`\s+`)
)

// Parse consumes freeform multi-line tracklist text. Unrecognized lines are
// skipped with a warning; the whole parse fails only when nothing at all is
// recovered or when explicit ordinals are not monotonically increasing.
// Parsing the same text twice yields identical descriptor sequences.
func Parse(text string) ([]model.TrackDescriptor, []model.Warning, error) {
	var (
		descriptors []model.TrackDescriptor
		warnings    []model.Warning
	)

	autoNumber := 1
	lastOrdinal := 0
	sawContent := false

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		sawContent = true

		d, ok := parseLine(line, autoNumber)
		if !ok {
			warnings = append(warnings, model.Warningf("tracklist",
				"line %d not recognized as a track: %q", lineNo+1, line))
			continue
		}

		if d.Ordinal <= lastOrdinal {
			return nil, warnings, ErrOrdinalOrder
		}
		lastOrdinal = d.Ordinal
		autoNumber = d.Ordinal + 1

		descriptors = append(descriptors, d)
	}

	if sawContent && len(descriptors) == 0 {
		return nil, warnings, ErrEmpty
	}
	return descriptors, warnings, nil
}

// parseLine matches one cleaned line against the shapes. autoNumber is used
// when the line carries no ordinal of its own.
func parseLine(line string, autoNumber int) (model.TrackDescriptor, bool) {
	cleaned, ts, hasTS := stripTimestamp(line)
	if !hasLetterOrDigit(cleaned) {
		return model.TrackDescriptor{}, false
	}
	// Section headers like "Tracklist:" are not tracks.
	if strings.HasSuffix(cleaned, ":") && !strings.Contains(cleaned, " - ") {
		return model.TrackDescriptor{}, false
	}

	if m := reOrdinalArtistTitle.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		return descriptor(n, m[2], m[3], ts, hasTS), true
	}
	if m := reOrdinalTitle.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		return descriptor(n, "", m[2], ts, hasTS), true
	}
	if m := reArtistTitle.FindStringSubmatch(cleaned); m != nil {
		return descriptor(autoNumber, m[1], m[2], ts, hasTS), true
	}
	return descriptor(autoNumber, "", cleaned, ts, hasTS), true
}

func descriptor(ordinal int, performer, title string, ts float64, hasTS bool) model.TrackDescriptor {
	return model.TrackDescriptor{
		Ordinal:      ordinal,
		Performer:    strings.TrimSpace(performer),
		Title:        strings.TrimSpace(title),
		Timestamp:    ts,
		HasTimestamp: hasTS,
	}
}

// stripTimestamp removes an inline bracketed time code and returns it in
// seconds.
func stripTimestamp(line string) (cleaned string, seconds float64, found bool) {
	m := reTimestamp.FindStringSubmatch(line)
	if m == nil {
		return collapse(line), 0, false
	}

	var hours int
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	seconds = float64(hours*3600 + mins*60 + secs)

	cleaned = collapse(reTimestamp.ReplaceAllString(line, ""))
	return cleaned, seconds, true
}

func collapse(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 127 {
			return true
		}
	}
	return false
}
