// Package fetch pulls mixes and their page metadata from hosting sites via
// yt-dlp. The page description is the usual home of a posted tracklist.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/MixCue/pkg/utils"
)

// Mix is the subset of page metadata the pipeline cares about.
type Mix struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Uploader    string `json:"uploader"`
	Channel     string `json:"channel"`
	Description string `json:"description"`

	// Path is set by DownloadMix once the audio is on disk.
	Path string `json:"-"`
}

// Performer picks the best available artist name from the metadata.
func (m *Mix) Performer() string {
	for _, candidate := range []string{m.Artist, m.Uploader, m.Channel} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "Unknown Artist"
}

// FetchMetadata reads the page metadata for a URL without downloading audio.
func FetchMetadata(ctx context.Context, url string) (*Mix, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
	}

	result, err := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist().
		NoWarnings().
		Run(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fetching metadata for %s: %w", url, err)
	}

	var mix Mix
	if err := json.Unmarshal([]byte(result.Stdout), &mix); err != nil {
		return nil, fmt.Errorf("parsing yt-dlp metadata: %w", err)
	}
	if strings.TrimSpace(mix.ID) == "" {
		return nil, fmt.Errorf("missing media ID in yt-dlp output for %s", url)
	}
	if strings.TrimSpace(mix.Title) == "" {
		return nil, fmt.Errorf("missing title in yt-dlp output for %s", url)
	}
	return &mix, nil
}

// DownloadMix fetches the best audio stream of a URL into outputDir and
// returns the metadata with Path filled in. The container is whatever the
// site serves; conversion to analysis WAV happens downstream.
func DownloadMix(ctx context.Context, url string, outputDir string) (*Mix, error) {
	if _, ok := ctx.Deadline(); !ok {
		// DJ sets run long; so do their downloads
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 20*time.Minute)
		defer cancel()
	}

	mix, err := FetchMetadata(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return nil, err
	}

	outputTemplate := filepath.Join(outputDir, mix.ID+".%(ext)s")
	_, err = ytdlp.New().
		Format("ba").
		NoPlaylist().
		NoWarnings().
		Output(outputTemplate).
		Run(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}

	path, err := findDownloaded(outputDir, mix.ID)
	if err != nil {
		return nil, err
	}
	mix.Path = path
	return mix, nil
}

var audioExtensions = []string{".m4a", ".webm", ".opus", ".mp3", ".aac", ".ogg"}

func findDownloaded(dir, id string) (string, error) {
	for _, ext := range audioExtensions {
		candidate := filepath.Join(dir, id+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("downloaded audio not found for %s (checked %v)", id, audioExtensions)
}
