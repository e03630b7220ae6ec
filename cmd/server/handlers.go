package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/himanishpuri/MixCue/internal/cue"
	"github.com/himanishpuri/MixCue/internal/fetch"
	"github.com/himanishpuri/MixCue/internal/model"
	"github.com/himanishpuri/MixCue/internal/recognize"
	"github.com/himanishpuri/MixCue/internal/service"
	"github.com/himanishpuri/MixCue/internal/tracklist"
	"github.com/himanishpuri/MixCue/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	config *ServerConfig
	log    *logger.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	CachePath      string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(config *ServerConfig) *Server {
	return &Server{
		config: config,
		log:    logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "MixCue API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":       "GET /health",
			"analyze":      "POST /api/analyze",
			"tracklist":    "POST /api/tracklist",
			"tracklistURL": "POST /api/tracklist/url",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleAnalyze handles POST /api/analyze (multipart mix upload).
// The server never writes cue files to disk; the sheet comes back in the
// response body and the client decides where it lives.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	sensitivity := 0.5
	if v := r.FormValue("sensitivity"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			s.respondError(w, http.StatusBadRequest, "sensitivity must be a number in [0, 1]")
			return
		}
		sensitivity = parsed
	}
	tracklistText := r.FormValue("tracklist")
	doRecognize := r.FormValue("recognize") == "true"
	verify := r.FormValue("verify_boundaries") == "true"

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.log.Errorf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("upload_%d_%s", time.Now().UnixNano(), header.Filename))
	if err := os.MkdirAll(s.config.TempDir, 0o755); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	opts := []service.Option{
		service.WithTempDir(s.config.TempDir),
		service.WithSampleRate(s.config.SampleRate),
		service.WithLogger(s.log),
	}
	if doRecognize || verify {
		providers := buildProviders()
		if len(providers) == 0 {
			s.respondError(w, http.StatusBadRequest, "recognition requested but no provider is configured on the server")
			return
		}
		opts = append(opts, service.WithProviders(providers...), service.WithCachePath(s.config.CachePath))
	}
	splitter := service.NewSplitter(opts...)

	s.log.Infof("Analyzing uploaded mix: %s (sensitivity %.2f)", header.Filename, sensitivity)
	report, err := splitter.Split(ctx, service.Request{
		AudioPath:        tempFile,
		Sensitivity:      sensitivity,
		TracklistText:    tracklistText,
		Recognize:        doRecognize,
		VerifyBoundaries: verify,
		DryRun:           true,
	})
	if err != nil {
		s.log.Errorf("Analysis failed: %v", err)
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	tracks := make([]TrackDTO, len(report.Tracks))
	for i, t := range report.Tracks {
		tracks[i] = TrackDTO{
			Index:     i + 1,
			StartSec:  t.Start,
			EndSec:    t.End,
			Timecode:  cue.Timecode(t.Start),
			Performer: t.Performer,
			Title:     t.Title,
		}
	}

	s.respondJSON(w, http.StatusOK, AnalyzeResponse{
		Tracks:   tracks,
		Count:    len(tracks),
		Warnings: warningStrings(report.Warnings),
		Cue:      report.CueContent,
	})
}

// handleTracklist handles POST /api/tracklist
func (s *Server) handleTracklist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req TracklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondTracklist(w, req.Text)
}

// handleTracklistURL handles POST /api/tracklist/url
func (s *Server) handleTracklistURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req TracklistURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	mix, err := fetch.FetchMetadata(ctx, req.URL)
	if err != nil {
		s.log.Errorf("Failed to fetch page metadata: %v", err)
		s.respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to fetch page metadata: %v", err))
		return
	}

	s.respondTracklist(w, mix.Description)
}

func (s *Server) respondTracklist(w http.ResponseWriter, text string) {
	parsed, warns, err := tracklist.Parse(text)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to parse tracklist: %v", err))
		return
	}

	entries := make([]EntryDTO, len(parsed))
	for i, d := range parsed {
		entries[i] = EntryDTO{
			Ordinal:      d.Ordinal,
			Performer:    d.Performer,
			Title:        d.Title,
			TimestampSec: d.Timestamp,
			HasTimestamp: d.HasTimestamp,
		}
	}

	s.respondJSON(w, http.StatusOK, TracklistResponse{
		Entries:  entries,
		Count:    len(entries),
		Warnings: warningStrings(warns),
	})
}

func warningStrings(warns []model.Warning) []string {
	if len(warns) == 0 {
		return nil
	}
	out := make([]string, len(warns))
	for i, w := range warns {
		out[i] = w.String()
	}
	return out
}

func buildProviders() []recognize.Provider {
	var providers []recognize.Provider
	if key := os.Getenv("ACOUSTID_API_KEY"); key != "" {
		providers = append(providers, recognize.NewAcoustID(key))
	}
	if endpoint := os.Getenv("SHAZAM_ENDPOINT"); endpoint != "" {
		providers = append(providers, recognize.NewShazam(endpoint, os.Getenv("SHAZAM_API_KEY")))
	}
	return providers
}
