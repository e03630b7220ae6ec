package main

import (
	"fmt"
)

// Upload limit constants
const (
	// MaxUploadBytes bounds the multipart form size; DJ sets are big files
	MaxUploadBytes = 500 << 20

	// MaxTracklistBytes bounds pasted tracklist text
	MaxTracklistBytes = 1 << 20
)

// TrackDTO represents one reconciled track in API responses
type TrackDTO struct {
	Index     int     `json:"index"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Timecode  string  `json:"timecode"`
	Performer string  `json:"performer,omitempty"`
	Title     string  `json:"title"`
}

// AnalyzeResponse is the response for POST /api/analyze
type AnalyzeResponse struct {
	Tracks   []TrackDTO `json:"tracks"`
	Count    int        `json:"count"`
	Warnings []string   `json:"warnings,omitempty"`
	Cue      string     `json:"cue"`
}

// TracklistRequest is the request body for POST /api/tracklist
type TracklistRequest struct {
	// Text is the raw tracklist, one entry per line (required)
	Text string `json:"text"`
}

// Validate checks if the request is valid
func (r *TracklistRequest) Validate() error {
	if r.Text == "" {
		return fmt.Errorf("text is required")
	}
	if len(r.Text) > MaxTracklistBytes {
		return fmt.Errorf("tracklist too large: %d bytes (maximum: %d)", len(r.Text), MaxTracklistBytes)
	}
	return nil
}

// TracklistURLRequest is the request body for POST /api/tracklist/url
type TracklistURLRequest struct {
	// URL is the mix page; the tracklist is read from its description (required)
	URL string `json:"url"`
}

// Validate checks if the request is valid
func (r *TracklistURLRequest) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// EntryDTO represents one parsed tracklist entry
type EntryDTO struct {
	Ordinal      int     `json:"ordinal"`
	Performer    string  `json:"performer,omitempty"`
	Title        string  `json:"title"`
	TimestampSec float64 `json:"timestamp_sec,omitempty"`
	HasTimestamp bool    `json:"has_timestamp"`
}

// TracklistResponse is the response for the tracklist endpoints
type TracklistResponse struct {
	Entries  []EntryDTO `json:"entries"`
	Count    int        `json:"count"`
	Warnings []string   `json:"warnings,omitempty"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
