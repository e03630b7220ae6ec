package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/himanishpuri/MixCue/internal/analysis"
	"github.com/himanishpuri/MixCue/internal/audio"
	"github.com/himanishpuri/MixCue/internal/boundary"
	"github.com/himanishpuri/MixCue/internal/cue"
	"github.com/himanishpuri/MixCue/internal/model"
	"github.com/himanishpuri/MixCue/internal/recognize"
	"github.com/himanishpuri/MixCue/internal/storage"
	"github.com/himanishpuri/MixCue/internal/tracklist"
	"github.com/himanishpuri/MixCue/pkg/logger"
	"github.com/himanishpuri/MixCue/pkg/utils"
)

// Splitter runs the full pipeline: decode, analyze, reconcile against the
// tracklist, optionally recognize segments, and write the cue sheet.
type Splitter struct {
	log         *logger.Logger
	tempDir     string
	sampleRate  int
	analysisCfg analysis.Config
	cachePath   string
	providers   []recognize.Provider
	lookupLimit int
	workers     int
}

type Option func(*Splitter)

func WithTempDir(dir string) Option {
	return func(s *Splitter) { s.tempDir = dir }
}

func WithSampleRate(rate int) Option {
	return func(s *Splitter) { s.sampleRate = rate }
}

func WithAnalysisConfig(cfg analysis.Config) Option {
	return func(s *Splitter) { s.analysisCfg = cfg }
}

// WithCachePath points recognition at a SQLite cache file. Empty disables
// caching.
func WithCachePath(path string) Option {
	return func(s *Splitter) { s.cachePath = path }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Splitter) { s.log = log }
}

func WithProviders(providers ...recognize.Provider) Option {
	return func(s *Splitter) { s.providers = providers }
}

// WithLookupLimit caps the number of network lookups per run across all
// providers. Zero means unlimited.
func WithLookupLimit(n int) Option {
	return func(s *Splitter) { s.lookupLimit = n }
}

// WithRecognitionWorkers bounds how many segments are recognized at once.
func WithRecognitionWorkers(n int) Option {
	return func(s *Splitter) { s.workers = n }
}

func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		log:         logger.GetLogger(),
		tempDir:     filepath.Join(os.TempDir(), "mixcue"),
		sampleRate:  11025,
		analysisCfg: analysis.Default(),
		workers:     2,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// Request describes one splitting run.
type Request struct {
	AudioPath     string
	OutputPath    string // empty: next to AudioPath with .cue extension
	Sensitivity   float64
	TracklistText string

	Recognize        bool // fill in titles for unlabeled tracks
	VerifyBoundaries bool // cross-check tracklist entries, warn on mismatch
	DryRun           bool // compute everything, write nothing
}

// Report is the outcome of a run. Warnings carry every recoverable problem
// encountered along the way; they never abort the run.
type Report struct {
	Tracks     []model.ReconciledTrack
	Warnings   []model.Warning
	CuePath    string
	CueContent string
}

// Split executes the pipeline for one mix. The context is honored between
// stages and inside every external-process and network call.
func (s *Splitter) Split(ctx context.Context, req Request) (*Report, error) {
	if req.Sensitivity < 0 || req.Sensitivity > 1 {
		return nil, fmt.Errorf("sensitivity %.2f out of range [0, 1]", req.Sensitivity)
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}
	cfg := s.analysisCfg.Normalize()

	report := &Report{}

	var descriptors []model.TrackDescriptor
	if strings.TrimSpace(req.TracklistText) != "" {
		parsed, warns, err := tracklist.Parse(req.TracklistText)
		if err != nil {
			return nil, fmt.Errorf("tracklist: %w", err)
		}
		descriptors = parsed
		report.Warnings = append(report.Warnings, warns...)
		s.log.Infof("tracklist: %d entries", len(descriptors))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	isWAV := strings.EqualFold(filepath.Ext(req.AudioPath), ".wav")

	// Declared timestamps on every entry make detection pointless; a probe for
	// the total duration is all the audio work left.
	var (
		curve    []float64
		params   boundary.Params
		duration float64
	)
	if boundary.AllTimestamped(descriptors) && !isWAV {
		meta, err := audio.ReadMetadata(ctx, req.AudioPath)
		if err != nil {
			return nil, fmt.Errorf("probing %s: %w", req.AudioPath, err)
		}
		duration = meta.DurationSec
	} else {
		workPath := req.AudioPath
		if !isWAV {
			converted, err := audio.ConvertToMonoWAV(ctx, req.AudioPath, s.tempDir,
				audio.ConvertWAVConfig{SampleRate: s.sampleRate})
			if err != nil {
				return nil, err
			}
			defer utils.DeleteFile(converted)
			workPath = converted
		}

		samples, rate, err := audio.ReadWAV(workPath)
		if err != nil {
			return nil, err
		}
		duration = audio.Duration(samples, rate)
		s.log.Infof("decoded %.1fs of audio at %d Hz", duration, rate)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params = boundary.Params{
			FrameDuration: cfg.FrameDuration(rate),
			MinGap:        cfg.MinGapSec,
		}

		if !boundary.AllTimestamped(descriptors) {
			frames, err := analysis.ExtractFeatures(ctx, samples, rate, cfg)
			if err != nil {
				return nil, err
			}
			curve, err = analysis.NoveltyCurve(frames, cfg)
			if err != nil {
				return nil, err
			}
			s.log.Debugf("novelty curve: %d frames", len(curve))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracks, warns := boundary.Reconcile(curve, params, req.Sensitivity, duration, descriptors)
	report.Warnings = append(report.Warnings, warns...)
	s.log.Infof("reconciled %d tracks", len(tracks))

	if (req.Recognize || req.VerifyBoundaries) && len(s.providers) > 0 {
		warns, err := s.recognizeTracks(ctx, req, tracks, descriptors)
		if err != nil {
			return nil, err
		}
		report.Warnings = append(report.Warnings, warns...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := cue.Write(&buf, req.AudioPath, tracks); err != nil {
		return nil, err
	}
	report.Tracks = tracks
	report.CueContent = buf.String()

	if req.DryRun {
		return report, nil
	}

	outPath := req.OutputPath
	if outPath == "" {
		ext := filepath.Ext(req.AudioPath)
		outPath = req.AudioPath[:len(req.AudioPath)-len(ext)] + ".cue"
	}
	if err := writeAtomic(outPath, buf.Bytes()); err != nil {
		return nil, err
	}
	report.CuePath = outPath
	s.log.Infof("wrote cue sheet to %s", outPath)
	return report, nil
}

// recognizeTracks identifies segments concurrently and either fills in
// generic titles (recognize) or cross-checks declared ones (verify). A
// verification mismatch is reported, never corrected: the tracklist stays
// authoritative.
func (s *Splitter) recognizeTracks(
	ctx context.Context,
	req Request,
	tracks []model.ReconciledTrack,
	descriptors []model.TrackDescriptor,
) ([]model.Warning, error) {

	mixHash, err := utils.FileHash(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("hashing mix: %w", err)
	}

	var cache *storage.CacheClient
	if s.cachePath != "" {
		cache, err = storage.NewCacheClient(s.cachePath)
		if err != nil {
			return nil, fmt.Errorf("recognition cache: %w", err)
		}
		defer cache.Close()
	}

	chain := recognize.NewChain(s.providers,
		recognize.WithLookupLimit(s.lookupLimit),
		recognize.WithChainLogger(s.log),
	)

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, s.workers)
		mu       sync.Mutex
		warnings []model.Warning
	)
	results := make([]*model.RecognitionResult, len(tracks))

	warn := func(w model.Warning) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	for i := range tracks {
		start, dur, ok := recognize.SampleWindow(tracks[i].Start, tracks[i].End)
		if !ok {
			warn(model.Warningf("recognize", "track %d too short to sample, skipping", i+1))
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(idx int, start, dur float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			startMs := int(start * 1000)
			if cache != nil {
				if res, hit, err := cache.Lookup(mixHash, startMs); err == nil && hit {
					results[idx] = res
					return
				}
			}

			segPath, err := audio.ExtractSegmentWAV(ctx, req.AudioPath, s.tempDir, start, dur)
			if err != nil {
				warn(model.Warningf("recognize", "track %d: %v", idx+1, err))
				return
			}
			defer utils.DeleteFile(segPath)

			res := chain.Identify(ctx, segPath)
			results[idx] = res
			if cache != nil {
				if err := cache.Store(mixHash, startMs, int(dur*1000), res); err != nil {
					s.log.Warnf("caching result for track %d: %v", idx+1, err)
				}
			}
		}(i, start, dur)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return warnings, err
	}

	for i, res := range results {
		if res == nil {
			continue
		}
		switch {
		case req.Recognize && tracks[i].Title == boundary.GenericTitle(i+1):
			tracks[i].Title = res.Title
			tracks[i].Performer = res.Performer
			s.log.Infof("track %d identified via %s: %s - %s", i+1, res.Source, res.Performer, res.Title)

		case req.VerifyBoundaries && i < len(descriptors):
			declared := descriptors[i].Performer + " " + descriptors[i].Title
			got := res.Performer + " " + res.Title
			if sim := recognize.Similarity(declared, got); sim < recognize.MatchThreshold {
				msg := model.Warningf("verify",
					"track %d: tracklist says %q but audio matched %q (similarity %.2f)",
					i+1, strings.TrimSpace(declared), strings.TrimSpace(got), sim)
				// the audio may still match a different tracklist entry,
				// which usually means the tracklist order is off
				if ordinal, alt := recognize.MatchDescriptor(res, descriptors); ordinal > 0 && ordinal != i+1 {
					msg = model.Warningf("verify",
						"track %d: tracklist says %q but audio matched %q (similarity %.2f); closest tracklist entry is #%d (similarity %.2f)",
						i+1, strings.TrimSpace(declared), strings.TrimSpace(got), sim, ordinal, alt)
				}
				warnings = append(warnings, msg)
			}
		}
	}
	return warnings, nil
}

func writeAtomic(path string, data []byte) error {
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cue sheet: %w", err)
	}
	return utils.MoveFile(tmp, path)
}
