package session

import (
	"context"
	"strings"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

// FeedURL is the account-only page used to probe a session.
const FeedURL = "https://www.linkedin.com/feed/"

// LoginPaths are URL fragments that mean the site wants a login.
var LoginPaths = []string{"/login", "/authwall", "/checkpoint", "/uas/login"}

// AccountSelectors only render for a signed-in member.
var AccountSelectors = []string{
	"nav.global-nav",
	"#global-nav",
	".feed-identity-module",
	"[data-control-name='identity_welcome_message']",
	"img.global-nav__me-photo",
}

// Page is the subset of a browser page a liveness probe needs.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) bool
	Exists(ctx context.Context, selector string) bool
	Location(ctx context.Context) string
}

// IsLoginURL reports whether u is a login, authwall or checkpoint URL.
func IsLoginURL(u string) bool {
	lower := strings.ToLower(u)
	for _, p := range LoginPaths {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Liveness decides whether a page shows a signed-in session: the URL is
// not a login URL and at least one account-only element exists.
func Liveness(currentURL string, exists func(selector string) bool) bool {
	if currentURL == "" || IsLoginURL(currentURL) {
		return false
	}
	for _, sel := range AccountSelectors {
		if exists(sel) {
			return true
		}
	}
	return false
}

// Validate navigates page to the feed and reports whether the session
// applied to it is alive.
func Validate(ctx context.Context, page Page) bool {
	if err := page.Navigate(ctx, FeedURL); err != nil {
		logger.Debug("feed navigation reported an error", "error", err)
	}
	if !page.WaitFor(ctx, "body", 10*time.Second) {
		logger.Debug("feed body did not render")
	}

	current := page.Location(ctx)
	ok := Liveness(current, func(sel string) bool { return page.Exists(ctx, sel) })
	logger.Debug("session liveness", "url", current, "alive", ok)
	return ok
}

// Validate probes the session on page and deletes the cookie file when it
// is dead.
func (s *Store) Validate(ctx context.Context, page Page) bool {
	if Validate(ctx, page) {
		return true
	}
	s.Invalidate()
	return false
}
