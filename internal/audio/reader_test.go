package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV writes 16-bit PCM test audio. data holds interleaved samples
// in [-1, 1].
func writeTestWAV(t *testing.T, path string, data []float64, sampleRate, channels int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test WAV: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(data)),
	}
	for i, v := range data {
		buf.Data[i] = int(v * 32767)
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write test WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close encoder: %v", err)
	}
}

func TestReadWAVMono(t *testing.T) {
	const sampleRate = 8000
	path := filepath.Join(t.TempDir(), "mono.wav")

	data := make([]float64, sampleRate)
	for i := range data {
		data[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate)
	}
	writeTestWAV(t, path, data, sampleRate, 1)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != sampleRate {
		t.Errorf("Sample rate %d, expected %d", rate, sampleRate)
	}
	if len(samples) != len(data) {
		t.Errorf("Got %d samples, expected %d", len(samples), len(data))
	}

	for i, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("Sample %d = %f outside [-1, 1]", i, s)
		}
	}
	// quantization aside, the signal should round trip
	if math.Abs(samples[5]-data[5]) > 1e-3 {
		t.Errorf("samples[5] = %f, expected about %f", samples[5], data[5])
	}
}

func TestReadWAVStereoDownmix(t *testing.T) {
	const sampleRate = 8000
	path := filepath.Join(t.TempDir(), "stereo.wav")

	// opposite constant channels cancel to silence
	frames := 1000
	data := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		data[2*i] = 0.5
		data[2*i+1] = -0.5
	}
	writeTestWAV(t, path, data, sampleRate, 2)

	samples, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if len(samples) != frames {
		t.Fatalf("Got %d mono samples from %d stereo frames", len(samples), frames)
	}
	for i, s := range samples {
		if math.Abs(s) > 1e-3 {
			t.Fatalf("Downmixed sample %d = %f, expected silence", i, s)
		}
	}
}

func TestReadWAVInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-audio.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, _, err := ReadWAV(path)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	_, _, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestDuration(t *testing.T) {
	if d := Duration(make([]float64, 8000), 8000); d != 1 {
		t.Errorf("Duration = %f, expected 1", d)
	}
	if d := Duration(nil, 0); d != 0 {
		t.Errorf("Duration with zero rate = %f, expected 0", d)
	}
}
