package recognize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/MixCue/internal/model"
)

// AcoustIDClient is the first-tier provider: chromaprint fingerprints looked
// up against the AcoustID/MusicBrainz database. Free, fast, but misses a lot
// of unreleased club material, which is what the second tier is for.
type AcoustIDClient struct {
	apiKey     string
	baseURL    string
	minScore   float64
	httpClient *http.Client
}

type AcoustIDOption func(*AcoustIDClient)

func WithAcoustIDBaseURL(u string) AcoustIDOption {
	return func(c *AcoustIDClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithAcoustIDHTTPClient(hc *http.Client) AcoustIDOption {
	return func(c *AcoustIDClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithAcoustIDMinScore(s float64) AcoustIDOption {
	return func(c *AcoustIDClient) { c.minScore = s }
}

func NewAcoustID(apiKey string, opts ...AcoustIDOption) *AcoustIDClient {
	c := &AcoustIDClient{
		apiKey:     apiKey,
		baseURL:    "https://api.acoustid.org/v2",
		minScore:   0.5,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AcoustIDClient) Name() string { return "acoustid" }

type acoustidResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Score      float64 `json:"score"`
		Recordings []struct {
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"recordings"`
	} `json:"results"`
}

// Match fingerprints the sample with fpcalc and queries the lookup API. A
// response with no recording at or above the score floor is an explicit
// no-result, not an error.
func (c *AcoustIDClient) Match(ctx context.Context, samplePath string) (*model.RecognitionResult, error) {
	fingerprint, duration, err := runFpcalc(ctx, samplePath)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("client", c.apiKey)
	params.Set("fingerprint", fingerprint)
	params.Set("duration", strconv.Itoa(duration))
	params.Set("meta", "recordings")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/lookup?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("acoustid lookup returned %s", resp.Status)
	}

	var payload acoustidResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding acoustid response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("acoustid status %q", payload.Status)
	}

	best := (*model.RecognitionResult)(nil)
	for _, r := range payload.Results {
		if r.Score < c.minScore {
			continue
		}
		for _, rec := range r.Recordings {
			if rec.Title == "" {
				continue
			}
			if best != nil && r.Score <= best.Confidence {
				continue
			}
			result := &model.RecognitionResult{
				Title:      rec.Title,
				Confidence: r.Score,
			}
			if len(rec.Artists) > 0 {
				result.Performer = rec.Artists[0].Name
			}
			best = result
		}
	}
	return best, nil
}

type fpcalcOutput struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

func runFpcalc(ctx context.Context, path string) (string, int, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, "fpcalc", "-json", path).Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		return "", 0, fmt.Errorf("fpcalc failed: %w", err)
	}

	var parsed fpcalcOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return "", 0, fmt.Errorf("parsing fpcalc output: %w", err)
	}
	if parsed.Fingerprint == "" {
		return "", 0, fmt.Errorf("fpcalc produced no fingerprint for %s", path)
	}
	return parsed.Fingerprint, int(parsed.Duration), nil
}
