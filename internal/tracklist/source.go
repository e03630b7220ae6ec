package tracklist

import (
	"fmt"
	"os"

	"github.com/himanishpuri/MixCue/internal/model"
)

// FromFile reads and parses a tracklist text file.
func FromFile(path string) ([]model.TrackDescriptor, []model.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading tracklist %s: %w", path, err)
	}
	return Parse(string(data))
}
