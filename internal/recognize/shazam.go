package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/himanishpuri/MixCue/internal/model"
)

// shazamConfidence: the service does not report a score, but in practice
// anything it returns at all is a strong match.
const shazamConfidence = 0.95

// ShazamClient is the second-tier provider. It posts the raw WAV sample to a
// Shazam-compatible recognition endpoint (a shazamio-style proxy); auth and
// endpoint details come from configuration.
type ShazamClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

type ShazamOption func(*ShazamClient)

func WithShazamHTTPClient(hc *http.Client) ShazamOption {
	return func(c *ShazamClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewShazam(endpoint, apiKey string, opts ...ShazamOption) *ShazamClient {
	c := &ShazamClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ShazamClient) Name() string { return "shazam" }

type shazamResponse struct {
	Track *struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"` // artist name
	} `json:"track"`
}

func (c *ShazamClient) Match(ctx context.Context, samplePath string) (*model.RecognitionResult, error) {
	sample, err := os.ReadFile(samplePath)
	if err != nil {
		return nil, fmt.Errorf("reading sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/v1/recognize", bytes.NewReader(sample))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "audio/wav")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// endpoint convention for "no match"
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shazam recognize returned %s", resp.Status)
	}

	var payload shazamResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding shazam response: %w", err)
	}

	if payload.Track == nil || payload.Track.Title == "" {
		return nil, nil
	}
	return &model.RecognitionResult{
		Title:      payload.Track.Title,
		Performer:  payload.Track.Subtitle,
		Confidence: shazamConfidence,
	}, nil
}
