package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/himanishpuri/MixCue/internal/fetch"
	"github.com/himanishpuri/MixCue/internal/model"
	"github.com/himanishpuri/MixCue/internal/recognize"
	"github.com/himanishpuri/MixCue/internal/service"
	"github.com/himanishpuri/MixCue/internal/tracklist"
	"github.com/himanishpuri/MixCue/pkg/logger"
)

// Global flags
var (
	cachePath string
	tempDir   string
	rate      int
)

func init() {
	// Global flags that can be used with any command
	flag.StringVar(&cachePath, "cache", getEnvOrDefault("MIXCUE_CACHE_PATH", "mixcue-cache.sqlite3"), "Path to the recognition cache database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("MIXCUE_TEMP_DIR", "/tmp/mixcue"), "Directory for temporary audio files")
	flag.IntVar(&rate, "rate", 11025, "Analysis sample rate")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Infof("Executing command: %s", command)

	switch command {
	case "split":
		handleSplit(false)
	case "preview":
		handleSplit(true)
	case "tracklist":
		handleTracklist()
	case "fetch":
		handleFetch()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 __  __ _       ____
|  \/  (_)_  __/ ___|   _  ___
| |\/| | \ \/ / |  | | | |/ _ \
| |  | | |>  <| |__| |_| |  __/
|_|  |_|_/_/\_\\____\__,_|\___|

     DJ Mix Splitting CLI Tool
`
	fmt.Println(banner)
}

// splitPositional separates the leading audio argument from the flags that
// follow it, the flag package stops at the first non-flag otherwise.
func splitPositional(args []string) (positional string, flagArgs []string) {
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && positional == "" {
			positional = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}
	return positional, flagArgs
}

func handleSplit(dryRun bool) {
	log := logger.GetLogger()

	name := "split"
	if dryRun {
		name = "preview"
	}

	audioPath, flagArgs := splitPositional(os.Args[2:])

	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	sensitivity := cmd.Float64("sensitivity", 0.5, "Boundary detection sensitivity in [0, 1]")
	tracklistPath := cmd.String("tracklist", "", "Path to a tracklist text file")
	tracklistURL := cmd.String("tracklist-url", "", "Mix page URL; the tracklist is read from its description")
	output := cmd.String("out", "", "Cue sheet output path (default: next to the audio file)")
	doRecognize := cmd.Bool("recognize", false, "Identify unlabeled tracks via fingerprint services")
	verify := cmd.Bool("verify-boundaries", false, "Cross-check tracklist entries against recognition")
	lookupLimit := cmd.Int("lookup-limit", 0, "Max network lookups per run (0 = unlimited)")
	cmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Printf("Usage: mixcue %s <audio_file> [--tracklist <file>] [--sensitivity <0..1>]\n", name)
		os.Exit(1)
	}

	tracklistText, err := loadTracklist(*tracklistPath, *tracklistURL)
	if err != nil {
		fmt.Printf("❌ Failed to load tracklist: %v\n", err)
		log.Errorf("Tracklist load failed: %v", err)
		os.Exit(1)
	}

	opts := []service.Option{
		service.WithTempDir(tempDir),
		service.WithSampleRate(rate),
		service.WithLogger(log),
		service.WithLookupLimit(*lookupLimit),
	}
	if *doRecognize || *verify {
		providers := buildProviders()
		if len(providers) == 0 {
			fmt.Println("❌ Recognition requested but no provider is configured")
			fmt.Println("   Set ACOUSTID_API_KEY and/or SHAZAM_ENDPOINT + SHAZAM_API_KEY")
			os.Exit(1)
		}
		opts = append(opts, service.WithProviders(providers...), service.WithCachePath(cachePath))
	}
	splitter := service.NewSplitter(opts...)

	fmt.Println("🎧 Analyzing mix...")
	fmt.Println("   This may take a few moments for long sets")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	report, err := splitter.Split(ctx, service.Request{
		AudioPath:        audioPath,
		OutputPath:       *output,
		Sensitivity:      *sensitivity,
		TracklistText:    tracklistText,
		Recognize:        *doRecognize,
		VerifyBoundaries: *verify,
		DryRun:           dryRun,
	})
	if err != nil {
		fmt.Printf("\n❌ Splitting failed: %v\n", err)
		log.Errorf("Split failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Found %d track(s)\n\n", len(report.Tracks))
	for i, t := range report.Tracks {
		title := t.Title
		if t.Performer != "" {
			title = t.Performer + " - " + title
		}
		fmt.Printf("%2d. [%s] %s (%.0fs)\n", i+1, formatClock(t.Start), title, t.Duration())
	}

	for _, w := range report.Warnings {
		fmt.Printf("\n⚠️  %s\n", w)
	}

	if dryRun {
		fmt.Println("\n📝 Dry run, nothing written. Cue sheet would be:")
		fmt.Println()
		fmt.Print(report.CueContent)
		return
	}
	fmt.Printf("\n💾 Cue sheet written to %s\n", report.CuePath)
	log.Infof("Cue sheet written to %s", report.CuePath)
}

func handleTracklist() {
	log := logger.GetLogger()

	if len(os.Args) < 3 {
		fmt.Println("Usage: mixcue tracklist <file-or-url>")
		os.Exit(1)
	}
	source := os.Args[2]

	var (
		parsed []model.TrackDescriptor
		warns  []model.Warning
		err    error
	)
	if isURL(source) {
		var text string
		text, err = descriptionFromURL(source)
		if err == nil {
			parsed, warns, err = tracklist.Parse(text)
		}
	} else {
		parsed, warns, err = tracklist.FromFile(source)
	}
	if err != nil {
		fmt.Printf("❌ Failed to parse tracklist: %v\n", err)
		log.Errorf("Tracklist parse failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Parsed %d entrie(s):\n\n", len(parsed))
	for _, d := range parsed {
		fmt.Printf("  %s\n", d)
	}
	for _, w := range warns {
		fmt.Printf("\n⚠️  %s\n", w)
	}
}

func handleFetch() {
	log := logger.GetLogger()

	url, flagArgs := splitPositional(os.Args[2:])

	cmd := flag.NewFlagSet("fetch", flag.ExitOnError)
	outputDir := cmd.String("dir", ".", "Directory to download the mix into")
	cmd.Parse(flagArgs)

	if url == "" {
		fmt.Println("Usage: mixcue fetch <url> [--dir <directory>]")
		os.Exit(1)
	}

	fmt.Println("📥 Downloading mix...")
	fmt.Println("   This may take a while depending on set length")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	mix, err := fetch.DownloadMix(ctx, url, *outputDir)
	if err != nil {
		fmt.Printf("\n❌ Download failed: %v\n", err)
		log.Errorf("Download failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Downloaded: %s by %s\n", mix.Title, mix.Performer())
	fmt.Printf("   File: %s\n", mix.Path)
	if strings.TrimSpace(mix.Description) != "" {
		fmt.Println("\n📋 Page description (possible tracklist):")
		fmt.Println()
		fmt.Println(mix.Description)
	}
}

func loadTracklist(path, url string) (string, error) {
	switch {
	case path != "" && url != "":
		return "", fmt.Errorf("cannot specify both --tracklist and --tracklist-url")
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case url != "":
		return descriptionFromURL(url)
	}
	return "", nil
}

func descriptionFromURL(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mix, err := fetch.FetchMetadata(ctx, url)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(mix.Description) == "" {
		return "", fmt.Errorf("page description of %s is empty", url)
	}
	return mix.Description, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func formatClock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
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

func printUsage() {
	fmt.Println("MixCue - DJ Mix Splitting CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --cache <path>     Recognition cache database (env: MIXCUE_CACHE_PATH, default: mixcue-cache.sqlite3)")
	fmt.Println("  --temp <dir>       Temporary directory for audio files (env: MIXCUE_TEMP_DIR, default: /tmp/mixcue)")
	fmt.Println("  --rate <hz>        Analysis sample rate (default: 11025)")
	fmt.Println("\nUsage:")
	fmt.Println("  mixcue [global-options] split <audio_file> [--tracklist <file>] [--sensitivity <0..1>] [--out <file>]")
	fmt.Println("  mixcue [global-options] split <audio_file> --recognize [--lookup-limit <n>]")
	fmt.Println("  mixcue [global-options] preview <audio_file> [--tracklist <file>]")
	fmt.Println("  mixcue tracklist <file-or-url>")
	fmt.Println("  mixcue fetch <url> [--dir <directory>]")
	fmt.Println("\nExamples:")
	fmt.Println("  # Split a mix using its posted tracklist")
	fmt.Println("  mixcue split mix.mp3 --tracklist tracklist.txt")
	fmt.Println()
	fmt.Println("  # Detect boundaries blind and identify the tracks")
	fmt.Println("  mixcue split mix.mp3 --recognize --sensitivity 0.7")
	fmt.Println()
	fmt.Println("  # Inspect boundaries without writing anything")
	fmt.Println("  mixcue preview mix.wav --sensitivity 0.3")
}
