package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrDecode marks input that cannot be read as PCM audio of a supported
// channel/rate configuration. It is fatal for the whole run.
var ErrDecode = errors.New("audio decode failed")

// ReadWAV reads a PCM WAV file and returns mono samples normalized to
// [-1, 1] plus the sample rate. Stereo input is down-mixed by averaging the
// channels; anything beyond two channels is rejected.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s is not a valid WAV file", ErrDecode, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading PCM data: %v", ErrDecode, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: %s contains no samples", ErrDecode, path)
	}

	samples, err := downmix(buf)
	if err != nil {
		return nil, 0, err
	}
	return samples, buf.Format.SampleRate, nil
}

func downmix(buf *audio.IntBuffer) ([]float64, error) {
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(uint(bitDepth)-1))

	switch buf.Format.NumChannels {
	case 1:
		out := make([]float64, len(buf.Data))
		for i, s := range buf.Data {
			out[i] = float64(s) * scale
		}
		return out, nil
	case 2:
		frames := len(buf.Data) / 2
		out := make([]float64, frames)
		for i := 0; i < frames; i++ {
			l := float64(buf.Data[2*i]) * scale
			r := float64(buf.Data[2*i+1]) * scale
			out[i] = (l + r) * 0.5
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported channel count %d (only mono/stereo)", ErrDecode, buf.Format.NumChannels)
	}
}

// Duration returns the length in seconds of a sample buffer.
func Duration(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(samples)) / float64(sampleRate)
}
