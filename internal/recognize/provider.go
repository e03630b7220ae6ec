package recognize

import (
	"context"
	"sync"
	"time"

	"github.com/himanishpuri/MixCue/internal/model"
	"github.com/himanishpuri/MixCue/pkg/logger"
)

// Provider is one fingerprint-recognition service. Match returns (nil, nil)
// for an explicit "no confident result"; an error means the call itself
// failed (transport, tooling) and may be retried.
type Provider interface {
	Name() string
	Match(ctx context.Context, samplePath string) (*model.RecognitionResult, error)
}

// Chain runs providers in tier order per segment. Recognition is
// best-effort: a tier that errors out is retried once with backoff and then
// treated as a miss for that segment, never escalated. Each segment's tier
// outcome is computed from that segment's own calls; nothing is shared
// between segments except the synchronized lookup counter.
type Chain struct {
	providers   []Provider
	callTimeout time.Duration
	backoff     time.Duration
	log         *logger.Logger

	mu         sync.Mutex
	lookups    int
	maxLookups int // 0 = unlimited
}

type ChainOption func(*Chain)

func WithCallTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.callTimeout = d }
}

func WithBackoff(d time.Duration) ChainOption {
	return func(c *Chain) { c.backoff = d }
}

// WithLookupLimit caps the total number of service calls per run, across all
// segments and tiers.
func WithLookupLimit(n int) ChainOption {
	return func(c *Chain) { c.maxLookups = n }
}

func WithChainLogger(log *logger.Logger) ChainOption {
	return func(c *Chain) { c.log = log }
}

func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers:   providers,
		callTimeout: 30 * time.Second,
		backoff:     2 * time.Second,
		log:         logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identify runs the fallback protocol for one extracted sample. A nil result
// means no tier produced a confident match.
func (c *Chain) Identify(ctx context.Context, samplePath string) *model.RecognitionResult {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			return nil
		}
		result, ok := c.attempt(ctx, p, samplePath)
		if !ok {
			continue
		}
		if result != nil {
			result.Source = p.Name()
			return result
		}
		// explicit no-result: fall through to the next tier
	}
	return nil
}

// attempt calls one provider with the per-call timeout, retrying a failed
// call once. ok is false when the quota is exhausted or the tier stayed
// broken after the retry.
func (c *Chain) attempt(ctx context.Context, p Provider, samplePath string) (*model.RecognitionResult, bool) {
	for try := 0; try < 2; try++ {
		if !c.consumeLookup() {
			c.log.Warnf("recognition lookup quota exhausted, skipping %s", p.Name())
			return nil, false
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		result, err := p.Match(callCtx, samplePath)
		cancel()

		if err == nil {
			return result, true
		}
		if ctx.Err() != nil {
			return nil, false
		}

		c.log.Warnf("%s match failed: %v", p.Name(), err)
		if try == 0 {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, false
			}
		}
	}
	return nil, false
}

func (c *Chain) consumeLookup() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxLookups > 0 && c.lookups >= c.maxLookups {
		return false
	}
	c.lookups++
	return true
}

// Lookups reports how many service calls the chain has issued.
func (c *Chain) Lookups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups
}

// SampleWindow picks the stretch of a track to fingerprint: the middle third
// is least likely to be smeared by a crossfade, and 30 seconds is plenty for
// either service. Tracks under 10 seconds are skipped.
func SampleWindow(start, end float64) (sampleStart, sampleDuration float64, ok bool) {
	trackLen := end - start
	if trackLen < 10 {
		return 0, 0, false
	}
	sampleStart = start + trackLen*0.35
	sampleDuration = trackLen * 0.3
	if sampleDuration > 30 {
		sampleDuration = 30
	}
	return sampleStart, sampleDuration, true
}
