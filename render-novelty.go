package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"

	"github.com/eligwz/spectrogram"

	"github.com/himanishpuri/MixCue/internal/analysis"
	"github.com/himanishpuri/MixCue/internal/audio"
	"github.com/himanishpuri/MixCue/internal/boundary"
)

// Debug tool: renders a mix's spectrogram with the novelty curve and the
// selected boundaries drawn on top. Handy for tuning sensitivity by eye.
func main() {
	sensitivity := flag.Float64("sensitivity", 0.5, "boundary detection sensitivity")
	output := flag.String("out", "novelty.png", "output PNG path")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: render-novelty [--sensitivity <0..1>] [--out <png>] <wav_file>")
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	samples, rate, err := audio.ReadWAV(inputPath)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Read %d samples at %d Hz\n", len(samples), rate)

	cfg := analysis.Default()
	frames, err := analysis.ExtractFeatures(context.Background(), samples, rate, cfg)
	if err != nil {
		log.Fatal(err)
	}
	curve, err := analysis.NoveltyCurve(frames, cfg)
	if err != nil {
		log.Fatal(err)
	}

	params := boundary.Params{
		FrameDuration: cfg.FrameDuration(rate),
		MinGap:        cfg.MinGapSec,
	}
	candidates := boundary.SelectCandidates(curve, *sensitivity, params)
	fmt.Printf("Novelty curve: %d frames, %d boundaries at sensitivity %.2f\n",
		len(curve), len(candidates), *sensitivity)

	width := 2048
	height := 512
	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))

	// Black background, then the spectrogram itself
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// RECTANGLE: false = Hamming window, DFT: false = FFT,
	// MAG: true = magnitude, LOG10: false = linear scale
	spectrogram.Drawfft(
		img,
		samples,
		uint32(rate),
		uint32(height),
		false,
		false,
		true,
		false,
	)

	// Novelty curve as a green polyline across the lower half
	green := spectrogram.ParseColor("00ff00")
	for x := 0; x < width; x++ {
		idx := x * len(curve) / width
		y := height - 1 - int(curve[idx]*float64(height/2))
		img.Set(x, y, green)
	}

	// Boundaries as red vertical lines
	red := spectrogram.ParseColor("ff0000")
	duration := float64(len(samples)) / float64(rate)
	for _, c := range candidates {
		x := int(c.Time / duration * float64(width))
		if x < 0 || x >= width {
			continue
		}
		for y := 0; y < height; y++ {
			img.Set(x, y, red)
		}
	}

	if err := spectrogram.SavePng(img, *output); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved to %s\n", *output)
}
