package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp/kb"

	"github.com/jmylchreest/refyne-linkedin/pkg/browser"
	"github.com/jmylchreest/refyne-linkedin/pkg/extractor"
	"github.com/jmylchreest/refyne-linkedin/pkg/profile"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

// ContentSelectors mark a rendered profile.
var ContentSelectors = []string{"h1", ".pv-top-card", "main"}

// ContactSelectors open the contact info overlay.
var ContactSelectors = []string{
	"#top-card-text-details-contact-info",
	"a[href*='overlay/contact-info']",
}

const contactOverlay = "section.pv-contact-info, .artdeco-modal"

// showMoreJS expands truncated sections and returns how many controls it
// clicked.
const showMoreJS = `(() => {
  let n = 0;
  document.querySelectorAll("button.inline-show-more-text__button, button[aria-expanded='false'].pv-profile-section__see-more-inline, button.pv-skills-section__additional-skills").forEach((b) => {
    try { b.click(); n++; } catch (e) {}
  });
  return n;
})()`

// debugPage is implemented by pages that can save debug screenshots.
type debugPage interface {
	DebugScreenshot(ctx context.Context, label string) string
}

// ScrapeOne scrapes url on page. It always returns a record; failures set
// its Error field.
func (o *Orchestrator) ScrapeOne(ctx context.Context, page Page, url string) (rec profile.Record) {
	log := o.logger(ctx).With("url", url)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("scrape panicked", "panic", r)
			rec = profile.Failed(url, fmt.Errorf("scrape panicked: %v", r))
		}
	}()

	if err := o.open(ctx, page, url); err != nil {
		log.Warn("profile not loaded", "error", err)
		o.screenshot(ctx, page, "load-failed")
		return profile.Failed(url, err)
	}
	o.expand(ctx, page)

	html, err := page.HTML(ctx)
	if err != nil {
		log.Warn("could not read page", "error", err)
		return profile.Failed(url, fmt.Errorf("read page: %w", err))
	}

	rec = o.extract(ctx, html, url)
	if o.cfg.ContactInfo && ctx.Err() == nil {
		if c, ok := o.contactInfo(ctx, page); ok {
			c.Apply(&rec)
		}
	}

	log.Info("profile scraped",
		"method", rec.ExtractionMethod,
		"name", rec.Name,
		"error", rec.Error,
		"duration", time.Since(start).Round(time.Millisecond))
	return rec
}

// open navigates to url, waits for profile content and handles an authwall
// with one inline login.
func (o *Orchestrator) open(ctx context.Context, page Page, url string) error {
	if err := o.navigate(ctx, page, url); err != nil {
		return err
	}
	if !walled(page.Location(ctx)) {
		return nil
	}

	o.logger(ctx).Warn("profile redirected to authwall", "url", url, "landed", page.Location(ctx))
	if o.auth == nil {
		return ErrAuthwall
	}
	if err := o.reauthenticate(ctx, page); err != nil {
		return fmt.Errorf("%w: re-authentication failed: %w", ErrAuthwall, err)
	}
	if err := o.navigate(ctx, page, url); err != nil {
		return err
	}
	if walled(page.Location(ctx)) {
		return ErrAuthwall
	}
	return nil
}

func (o *Orchestrator) navigate(ctx context.Context, page Page, url string) error {
	err := page.Navigate(ctx, url)
	switch {
	case err == nil:
	case errors.Is(err, browser.ErrNavigationTimeout):
		o.logger(ctx).Debug("navigation timed out, checking for content", "url", url)
	default:
		return fmt.Errorf("navigate: %w", err)
	}

	if !o.waitContent(ctx, page) {
		if err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		o.logger(ctx).Debug("content indicator not found, continuing", "url", url)
	}
	return ctx.Err()
}

// waitContent waits for the first content indicator to render.
func (o *Orchestrator) waitContent(ctx context.Context, page Page) bool {
	deadline := time.Now().Add(o.cfg.ContentTimeout)
	for i, sel := range ContentSelectors {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		// the first selector gets most of the budget; the rest are probes
		if i > 0 {
			remaining = min(remaining, time.Second)
		}
		if page.WaitFor(ctx, sel, remaining) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) reauthenticate(ctx context.Context, page Page) error {
	o.authMu.Lock()
	defer o.authMu.Unlock()
	return o.auth.Authenticate(ctx, page)
}

// expand scrolls to trigger lazy sections and opens truncated ones.
func (o *Orchestrator) expand(ctx context.Context, page Page) {
	if o.cfg.ScrollSteps > 0 {
		page.Scroll(ctx, o.cfg.ScrollSteps)
	}
	var clicked int
	if err := page.Evaluate(ctx, showMoreJS, &clicked); err != nil {
		o.logger(ctx).Debug("show more expansion failed", "error", err)
		return
	}
	if clicked > 0 {
		o.logger(ctx).Debug("expanded sections", "count", clicked)
		_ = Sleep(ctx, 500*time.Millisecond)
	}
}

// extract runs projection and the model, falling back to the selector
// extractor with the model error recorded.
func (o *Orchestrator) extract(ctx context.Context, html, url string) profile.Record {
	if o.extractor == nil {
		return o.fallback(ctx, html, url, extractor.ErrNoExtractorAvailable)
	}

	content, err := o.cleaner.Clean(html)
	if err != nil {
		return o.fallback(ctx, html, url, fmt.Errorf("project page: %w", err))
	}

	res, err := o.extractor.Extract(ctx, content, o.schema)
	if err != nil {
		return o.fallback(ctx, html, url, err)
	}
	if len(res.Errors) > 0 {
		o.logger(ctx).Debug("model output failed validation", "url", url, "errors", len(res.Errors))
	}

	rec := profile.Normalize(res.Data, url)
	rec.ExtractionMethod = profile.MethodLLM
	o.logger(ctx).Debug("model extraction",
		"url", url,
		"provider", res.Provider,
		"model", res.Model,
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens)
	return rec
}

func (o *Orchestrator) fallback(ctx context.Context, html, url string, cause error) profile.Record {
	o.logger(ctx).Warn("model extraction failed, using selectors", "url", url, "error", cause)
	if o.manual == nil {
		return profile.Failed(url, cause)
	}
	rec, err := o.manual.Extract(html, url)
	if err != nil {
		return profile.Failed(url, errors.Join(cause, err))
	}
	rec.Error = cause.Error()
	return rec
}

// contactInfo opens the contact overlay and parses it.
func (o *Orchestrator) contactInfo(ctx context.Context, page Page) (extractor.Contact, bool) {
	opened := false
	for _, sel := range ContactSelectors {
		if !page.Exists(ctx, sel) {
			continue
		}
		if err := page.Click(ctx, sel); err != nil {
			o.logger(ctx).Debug("contact info click failed", "selector", sel, "error", err)
			continue
		}
		opened = true
		break
	}
	if !opened || !page.WaitFor(ctx, contactOverlay, 5*time.Second) {
		return extractor.Contact{}, false
	}

	html, err := page.HTML(ctx)
	if err := page.Press(ctx, kb.Escape); err != nil {
		o.logger(ctx).Debug("contact overlay close failed", "error", err)
	}
	if err != nil {
		return extractor.Contact{}, false
	}
	return extractor.ParseContactInfo(html), true
}

func (o *Orchestrator) screenshot(ctx context.Context, page Page, label string) {
	if d, ok := page.(debugPage); ok {
		d.DebugScreenshot(ctx, label)
	}
}

// walled reports whether u is a login, authwall or challenge page.
func walled(u string) bool {
	return session.IsLoginURL(u) || strings.Contains(u, "/challenge")
}
