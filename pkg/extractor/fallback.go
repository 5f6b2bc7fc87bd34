package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/schema"
)

// ErrNoExtractorAvailable is returned when no provider in the chain has an API key.
var ErrNoExtractorAvailable = errors.New("no extractor available")

// DefaultCooldown is how long a rate-limited provider is skipped.
const DefaultCooldown = 5 * time.Minute

// FallbackExtractor is the provider chain used for a batch of profiles.
// Providers are tried in order. One that is still rate limited after its
// own retries is benched for the cooldown, so later profiles go straight
// to the next provider. Safe for concurrent use.
type FallbackExtractor struct {
	extractors []Extractor
	cooldown   time.Duration
	now        func() time.Time

	mu      sync.Mutex
	benched map[string]time.Time // provider name -> bench end
}

// NewFallback creates a chain from extractors, tried in order.
func NewFallback(extractors ...Extractor) *FallbackExtractor {
	return &FallbackExtractor{
		extractors: extractors,
		cooldown:   DefaultCooldown,
		now:        time.Now,
		benched:    map[string]time.Time{},
	}
}

// WithCooldown sets how long a rate-limited provider is skipped. Zero
// disables benching.
func (f *FallbackExtractor) WithCooldown(d time.Duration) *FallbackExtractor {
	f.cooldown = d
	return f
}

// Extract runs the chain on one page. Content too thin for one model is
// too thin for all, so ErrInsufficientContent ends the chain, as does a
// cancelled ctx. The error of every provider tried is kept.
func (f *FallbackExtractor) Extract(ctx context.Context, content string, s schema.Schema) (*Result, error) {
	var (
		tried []string
		errs  []error
	)
	for _, ext := range f.order() {
		name := ext.Name()
		tried = append(tried, name)

		result, err := ext.Extract(ctx, content, s)
		if err == nil {
			f.release(name)
			return result, nil
		}
		if errors.Is(err, ErrInsufficientContent) || ctx.Err() != nil {
			return result, err
		}
		if isRetryable(err) {
			f.bench(name)
		}
		logger.Warn("provider failed, trying next", "provider", name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	if len(tried) == 0 {
		return nil, ErrNoExtractorAvailable
	}
	return nil, fmt.Errorf("all providers failed (tried: %s): %w", strings.Join(tried, ", "), errors.Join(errs...))
}

// order returns the available providers, benched ones moved to the end.
// A benched provider is still a better bet than giving up.
func (f *FallbackExtractor) order() []Extractor {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	var ready, resting []Extractor
	for _, ext := range f.extractors {
		if !ext.Available() {
			continue
		}
		until, ok := f.benched[ext.Name()]
		switch {
		case !ok:
			ready = append(ready, ext)
		case now.Before(until):
			resting = append(resting, ext)
		default:
			delete(f.benched, ext.Name())
			ready = append(ready, ext)
		}
	}
	return append(ready, resting...)
}

func (f *FallbackExtractor) bench(name string) {
	if f.cooldown <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	until := f.now().Add(f.cooldown)
	f.benched[name] = until
	logger.Info("provider rate limited, benching", "provider", name, "until", until.Format(time.TimeOnly))
}

func (f *FallbackExtractor) release(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.benched, name)
}

// Benched lists the providers currently skipped for rate limits.
func (f *FallbackExtractor) Benched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	var out []string
	for _, ext := range f.extractors {
		if until, ok := f.benched[ext.Name()]; ok && now.Before(until) {
			out = append(out, ext.Name())
		}
	}
	return out
}

func (f *FallbackExtractor) Name() string {
	names := make([]string, len(f.extractors))
	for i, ext := range f.extractors {
		names[i] = ext.Name()
	}
	return "fallback(" + strings.Join(names, "->") + ")"
}

// Available reports whether any provider has an API key.
func (f *FallbackExtractor) Available() bool {
	for _, ext := range f.extractors {
		if ext.Available() {
			return true
		}
	}
	return false
}

func (f *FallbackExtractor) Len() int { return len(f.extractors) }
