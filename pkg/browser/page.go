package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

// actionTimeout bounds single DOM actions that have no timeout of their own.
const actionTimeout = 10 * time.Second

// Page is one browser tab. Methods may be called from any goroutine but
// not concurrently on the same Page.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	ctrl   *Controller
}

// bind derives a context for one chromedp call: a child of the tab context
// that also ends when ctx ends or the timeout passes.
func (p *Page) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(p.ctx)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		inner := cancel
		cancel = func() { cancelTimeout(); inner() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, done := p.bind(ctx, timeout)
	defer done()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url. A load that outlasts the navigation timeout returns
// ErrNavigationTimeout; the document may still be usable.
func (p *Page) Navigate(ctx context.Context, url string) error {
	err := p.run(ctx, p.ctrl.cfg.NavigationTimeout, chromedp.Navigate(url))
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
	}
	return fmt.Errorf("navigate %s: %w", url, err)
}

// WaitFor waits until selector is in the DOM, up to timeout.
func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	return p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)) == nil
}

// Exists reports whether selector matches now, without waiting.
func (p *Page) Exists(ctx context.Context, selector string) bool {
	var ok bool
	js := fmt.Sprintf("document.querySelector(%s) !== null", quoteJS(selector))
	if err := p.run(ctx, actionTimeout, chromedp.Evaluate(js, &ok)); err != nil {
		return false
	}
	return ok
}

// Location returns the current URL, or "" if it cannot be read.
func (p *Page) Location(ctx context.Context) string {
	var u string
	if err := p.run(ctx, actionTimeout, chromedp.Location(&u)); err != nil {
		return ""
	}
	return u
}

// Title returns the document title, or "".
func (p *Page) Title(ctx context.Context) string {
	var t string
	if err := p.run(ctx, actionTimeout, chromedp.Title(&t)); err != nil {
		return ""
	}
	return t
}

// HTML returns the rendered document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

// Click clicks the first element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	return p.run(ctx, actionTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Type types text into selector one key at a time with human-like pauses.
func (p *Page) Type(ctx context.Context, selector, text string) error {
	if err := p.run(ctx, actionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("focus %s: %w", selector, err)
	}
	for _, r := range text {
		if err := p.run(ctx, actionTimeout, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("type into %s: %w", selector, err)
		}
		if err := sleep(ctx, keyDelay()); err != nil {
			return err
		}
	}
	return nil
}

// Press sends a single key, e.g. kb.Enter or kb.Escape.
func (p *Page) Press(ctx context.Context, key string) error {
	return p.run(ctx, actionTimeout, chromedp.KeyEvent(key))
}

// Evaluate runs js and decodes its result into out (may be nil).
func (p *Page) Evaluate(ctx context.Context, js string, out any) error {
	return p.run(ctx, actionTimeout, chromedp.Evaluate(js, out))
}

// Scroll scrolls down one viewport per step, pausing between steps so
// lazy sections can load.
func (p *Page) Scroll(ctx context.Context, steps int) {
	for i := 0; i < steps; i++ {
		var moved bool
		if err := p.Evaluate(ctx, "window.scrollBy(0, window.innerHeight), true", &moved); err != nil {
			logger.Debug("scroll failed", "step", i, "error", err)
			return
		}
		if sleep(ctx, time.Duration(400+rand.IntN(500))*time.Millisecond) != nil {
			return
		}
	}
}

// Screenshot captures selector, or the viewport when selector is "".
// It returns nil on failure.
func (p *Page) Screenshot(ctx context.Context, selector string) []byte {
	var buf []byte
	var action chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if selector != "" {
		action = chromedp.Screenshot(selector, &buf, chromedp.ByQuery)
	}
	if err := p.run(ctx, actionTimeout, action); err != nil {
		logger.Debug("screenshot failed", "selector", selector, "error", err)
		return nil
	}
	return buf
}

// SetCookies opens the site root once, then applies each cookie on its
// own. Malformed cookies and cookies the browser rejects are skipped.
func (p *Page) SetCookies(ctx context.Context, cookies []session.Cookie) (int, error) {
	if err := p.Navigate(ctx, SiteRoot); err != nil && !errors.Is(err, ErrNavigationTimeout) {
		return 0, err
	}

	applied := 0
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			logger.Warn("skipping malformed cookie", "name", c.Name, "domain", c.Domain)
			continue
		}
		if err := p.run(ctx, actionTimeout, setCookie(c)); err != nil {
			if ctx.Err() != nil {
				return applied, ctx.Err()
			}
			logger.Warn("browser rejected cookie", "name", c.Name, "error", err)
			continue
		}
		applied++
	}
	logger.Debug("cookies applied", "applied", applied, "total", len(cookies))
	return applied, nil
}

func setCookie(c session.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		path := c.Path
		if path == "" {
			path = "/"
		}
		params := network.SetCookie(c.Name, c.Value).
			WithDomain(c.Domain).
			WithPath(path).
			WithHTTPOnly(c.HTTPOnly).
			WithSecure(c.Secure)
		if c.Expires > 0 {
			sec := int64(c.Expires)
			exp := cdp.TimeSinceEpoch(time.Unix(sec, int64((c.Expires-float64(sec))*1e9)))
			params = params.WithExpires(&exp)
		}
		if ss := sameSite(c.SameSite); ss != "" {
			params = params.WithSameSite(ss)
		}
		return params.Do(ctx)
	})
}

func sameSite(s string) network.CookieSameSite {
	switch strings.ToLower(s) {
	case "strict":
		return network.CookieSameSiteStrict
	case "lax":
		return network.CookieSameSiteLax
	case "none", "no_restriction":
		return network.CookieSameSiteNone
	}
	return ""
}

// Cookies returns every cookie the browser holds for this tab's session.
func (p *Page) Cookies(ctx context.Context) ([]session.Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	out := make([]session.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out, nil
}

// Close closes the tab.
func (p *Page) Close() {
	p.cancel()
	p.ctrl.forget(p)
}

func quoteJS(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func keyDelay() time.Duration {
	return time.Duration(50+rand.IntN(100)) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
