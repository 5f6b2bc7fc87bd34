package scraper

import (
	"time"

	"github.com/jmylchreest/refyne-linkedin/pkg/cleaner"
	"github.com/jmylchreest/refyne-linkedin/pkg/extractor"
)

// Config holds the orchestrator settings.
type Config struct {
	Strategy       Strategy
	Concurrency    int // 0 means min(DefaultConcurrency, len(urls))
	DelayMin       time.Duration
	DelayMax       time.Duration
	ContentTimeout time.Duration
	ScrollSteps    int
	ContactInfo    bool
}

// DefaultConfig returns the default orchestrator settings.
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyAuto,
		DelayMin:       DefaultDelayMin,
		DelayMax:       DefaultDelayMax,
		ContentTimeout: DefaultContentTimeout,
		ScrollSteps:    DefaultScrollSteps,
		ContactInfo:    true,
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBrowser sets the browser the orchestrator launches and drives.
func WithBrowser(b Browser) Option {
	return func(o *Orchestrator) {
		o.browser = b
	}
}

// WithSessionStore sets the persisted session.
func WithSessionStore(s SessionStore) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithAuthenticator enables inline re-authentication when a profile hits
// an authwall.
func WithAuthenticator(a Authenticator) Option {
	return func(o *Orchestrator) {
		o.auth = a
	}
}

// WithExtractor sets the model-backed extractor.
func WithExtractor(e extractor.Extractor) Option {
	return func(o *Orchestrator) {
		o.extractor = e
	}
}

// WithManualExtractor sets the selector-based fallback.
func WithManualExtractor(m ManualExtractor) Option {
	return func(o *Orchestrator) {
		o.manual = m
	}
}

// WithCleaner sets the DOM projection.
func WithCleaner(c cleaner.Cleaner) Option {
	return func(o *Orchestrator) {
		o.cleaner = c
	}
}

// WithConcurrency sets the number of pages scraped at once. 1 forces
// sequential scraping.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.cfg.Concurrency = n
	}
}

// WithStrategy sets the batch strategy.
func WithStrategy(s Strategy) Option {
	return func(o *Orchestrator) {
		o.cfg.Strategy = s
	}
}

// WithDelay sets the jitter range between URLs or chunks.
func WithDelay(min, max time.Duration) Option {
	return func(o *Orchestrator) {
		o.cfg.DelayMin = min
		o.cfg.DelayMax = max
	}
}

// WithContentTimeout bounds the wait for profile content to render.
func WithContentTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.cfg.ContentTimeout = d
	}
}

// WithScrollSteps sets how far pages are scrolled to load lazy sections.
func WithScrollSteps(n int) Option {
	return func(o *Orchestrator) {
		o.cfg.ScrollSteps = n
	}
}

// WithContactInfo toggles opening the contact info overlay.
func WithContactInfo(enabled bool) Option {
	return func(o *Orchestrator) {
		o.cfg.ContactInfo = enabled
	}
}
