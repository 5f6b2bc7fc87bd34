package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/cleaner"
	"github.com/jmylchreest/refyne-linkedin/pkg/extractor"
	"github.com/jmylchreest/refyne-linkedin/pkg/profile"
	"github.com/jmylchreest/refyne-linkedin/pkg/schema"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

// Orchestrator scrapes profiles with one authenticated browser. Each Run
// owns its own browser process; an Orchestrator may be reused.
type Orchestrator struct {
	cfg       Config
	browser   Browser
	store     SessionStore
	auth      Authenticator
	extractor extractor.Extractor
	manual    ManualExtractor
	cleaner   cleaner.Cleaner
	schema    schema.Schema

	// authMu serializes inline logins across the pages of a chunk
	authMu sync.Mutex
	// log is the base logger; each Run carries its own in ctx
	log *slog.Logger
}

// New creates an Orchestrator. The cleaner and manual extractor default to
// the profile projection and the selector fallback.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     DefaultConfig(),
		cleaner: cleaner.NewProjector(nil),
		manual:  extractor.NewManualExtractor(),
		schema:  extractor.ProfileSchema(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logger.With()
	return o
}

// ScrapeMany scrapes urls and returns one record per URL in input order.
// It never fails: fatal errors are reported on every record.
func (o *Orchestrator) ScrapeMany(ctx context.Context, urls []string) []profile.Record {
	records, err := o.Run(ctx, urls)
	if err != nil {
		return failAll(urls, err)
	}
	return records
}

// Run launches the browser, applies and validates the saved session, then
// scrapes urls. It returns an error only for fatal conditions; per-URL
// failures are carried on the records.
func (o *Orchestrator) Run(ctx context.Context, urls []string) ([]profile.Record, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	if o.browser == nil {
		return nil, fmt.Errorf("scraper: no browser configured")
	}

	log := o.logger(ctx).With("run_id", uuid.NewString())
	ctx = withLogger(ctx, log)
	start := time.Now()

	var cookies []session.Cookie
	if o.store != nil {
		cookies = o.store.Load()
	}
	if len(cookies) == 0 {
		return nil, ErrNoSession
	}

	log.Info("starting scrape", "urls", len(urls), "cookies", len(cookies))
	if err := o.browser.Init(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := o.browser.Close(); err != nil {
			log.Debug("browser close", "error", err)
		}
	}()

	page, err := o.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	cookies, err = o.establish(ctx, page, cookies)
	if err != nil {
		return nil, err
	}

	records := o.scrapeBatch(ctx, page, cookies, urls)

	failed := 0
	for _, r := range records {
		if r.Error != "" {
			failed++
		}
	}
	log.Info("scrape finished", "urls", len(urls), "failed", failed, "duration", time.Since(start).Round(time.Millisecond))
	return records, nil
}

// establish applies cookies to page and checks the session is alive. A dead
// session is deleted; with an authenticator a fresh login is attempted.
func (o *Orchestrator) establish(ctx context.Context, page Page, cookies []session.Cookie) ([]session.Cookie, error) {
	applied, err := page.SetCookies(ctx, cookies)
	if err != nil {
		return nil, fmt.Errorf("apply session cookies: %w", err)
	}
	if applied == 0 {
		return nil, ErrSessionInvalid
	}

	if o.store.Validate(ctx, page) {
		o.logger(ctx).Info("session valid")
		return cookies, nil
	}

	o.logger(ctx).Warn("saved session failed the liveness check")
	if o.auth == nil {
		return nil, ErrSessionInvalid
	}
	if err := o.auth.Authenticate(ctx, page); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}
	fresh := o.store.Load()
	if len(fresh) == 0 {
		if fresh, err = page.Cookies(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
		}
	}
	return fresh, nil
}

// concurrency resolves the page count for a batch of n URLs.
func (o *Orchestrator) concurrency(n int) int {
	c := o.cfg.Concurrency
	if c <= 0 {
		c = DefaultConcurrency
	}
	return min(c, n)
}

func (o *Orchestrator) strategy(n int) Strategy {
	switch {
	case n <= 1, o.concurrency(n) <= 1:
		return StrategySequential
	case o.cfg.Strategy == StrategySequential:
		return StrategySequential
	}
	return StrategyChunked
}

func (o *Orchestrator) scrapeBatch(ctx context.Context, page Page, cookies []session.Cookie, urls []string) []profile.Record {
	strategy := o.strategy(len(urls))
	o.logger(ctx).Debug("batch strategy", "strategy", strategy, "concurrency", o.concurrency(len(urls)))
	if strategy == StrategySequential {
		return o.sequential(ctx, page, urls)
	}
	return o.chunked(ctx, cookies, urls)
}

// sequential scrapes urls one after another on page.
func (o *Orchestrator) sequential(ctx context.Context, page Page, urls []string) []profile.Record {
	records := make([]profile.Record, len(urls))
	for i, u := range urls {
		if i > 0 {
			if err := o.pause(ctx); err != nil {
				fillFailed(records[i:], urls[i:], err)
				return records
			}
		}
		o.logger(ctx).Info("scraping profile", "n", i+1, "of", len(urls), "url", u)
		records[i] = o.ScrapeOne(ctx, page, u)
	}
	return records
}

// chunked scrapes urls in chunks, one fresh page per URL. Cookies are
// applied to each page before its profile navigation.
func (o *Orchestrator) chunked(ctx context.Context, cookies []session.Cookie, urls []string) []profile.Record {
	records := make([]profile.Record, len(urls))
	size := o.concurrency(len(urls))

	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		if start > 0 {
			if err := o.pause(ctx); err != nil {
				fillFailed(records[start:], urls[start:], err)
				return records
			}
		}
		o.logger(ctx).Info("scraping chunk", "from", start+1, "to", end, "of", len(urls))

		var (
			mu    sync.Mutex
			pages []Page
			g     errgroup.Group
		)
		for i := start; i < end; i++ {
			g.Go(func() error {
				page, err := o.browser.NewPage(ctx)
				if err != nil {
					records[i] = profile.Failed(urls[i], fmt.Errorf("open page: %w", err))
					return nil
				}
				mu.Lock()
				pages = append(pages, page)
				mu.Unlock()

				if _, err := page.SetCookies(ctx, cookies); err != nil {
					records[i] = profile.Failed(urls[i], fmt.Errorf("apply session cookies: %w", err))
					return nil
				}
				records[i] = o.ScrapeOne(ctx, page, urls[i])
				return nil
			})
		}
		_ = g.Wait()

		for _, p := range pages {
			p.Close()
		}
	}
	return records
}

func (o *Orchestrator) pause(ctx context.Context) error {
	d := Jitter(o.cfg.DelayMin, o.cfg.DelayMax)
	if d > 0 {
		o.logger(ctx).Debug("waiting before next request", "delay", d.Round(time.Millisecond))
	}
	return Sleep(ctx, d)
}

type logKey struct{}

func withLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, l)
}

// logger returns the run logger carried by ctx, or the base logger.
func (o *Orchestrator) logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(logKey{}).(*slog.Logger); ok {
		return l
	}
	return o.log
}

func failAll(urls []string, err error) []profile.Record {
	records := make([]profile.Record, len(urls))
	fillFailed(records, urls, err)
	return records
}

func fillFailed(records []profile.Record, urls []string, err error) {
	for i := range records {
		records[i] = profile.Failed(urls[i], err)
	}
}
