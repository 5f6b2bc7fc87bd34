// Package scraper sequences the browser, session, login and extraction
// steps for one or many profile URLs.
package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/jmylchreest/refyne-linkedin/pkg/auth"
	"github.com/jmylchreest/refyne-linkedin/pkg/browser"
	"github.com/jmylchreest/refyne-linkedin/pkg/profile"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

var (
	// ErrNoURLs means the batch was empty.
	ErrNoURLs = errors.New("no URLs provided")

	// ErrNoSession means no usable cookies are persisted. Run login-only first.
	ErrNoSession = errors.New("no saved session, run login-only first")

	// ErrSessionInvalid means the saved session failed its liveness check
	// and was deleted.
	ErrSessionInvalid = errors.New("saved session is no longer valid, run login-only again")

	// ErrAuthwall means a profile redirected to a login, authwall or
	// checkpoint page.
	ErrAuthwall = errors.New("redirected to authwall")
)

// Page is a browser tab. *browser.Page implements it.
type Page interface {
	auth.Page
	HTML(ctx context.Context) (string, error)
	Scroll(ctx context.Context, steps int)
	SetCookies(ctx context.Context, cookies []session.Cookie) (int, error)
	Close()
}

// Browser owns the browser process.
type Browser interface {
	Init(ctx context.Context) error
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// SessionStore loads and probes the persisted session.
type SessionStore interface {
	Load() []session.Cookie
	Validate(ctx context.Context, page session.Page) bool
}

// Authenticator signs in on a page and persists the new session.
// *auth.Manager implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, page auth.Page) error
}

// ManualExtractor builds a record from page HTML without a model.
type ManualExtractor interface {
	Extract(html, url string) (profile.Record, error)
}

// FromController adapts a browser controller to Browser.
func FromController(c *browser.Controller) Browser {
	return controller{c}
}

type controller struct {
	*browser.Controller
}

func (c controller) NewPage(ctx context.Context) (Page, error) {
	p, err := c.Controller.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Strategy selects how a batch is scraped.
type Strategy string

const (
	// StrategyAuto scrapes one URL sequentially and several in chunks.
	StrategyAuto Strategy = "auto"
	// StrategySequential scrapes one URL at a time on a shared page.
	StrategySequential Strategy = "sequential"
	// StrategyChunked scrapes chunks of URLs concurrently, one page each.
	StrategyChunked Strategy = "chunked"
)

// Defaults.
const (
	DefaultConcurrency    = 3
	DefaultDelayMin       = 3 * time.Second
	DefaultDelayMax       = 6 * time.Second
	DefaultContentTimeout = 20 * time.Second
	DefaultScrollSteps    = 6
)
