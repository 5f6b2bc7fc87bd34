// Package health reports whether the scraping engine can run.
package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/internal/version"
	"github.com/jmylchreest/refyne-linkedin/pkg/browser"
	"github.com/jmylchreest/refyne-linkedin/pkg/llm"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

// IsAvailable reports whether the engine entry point exists: the running
// executable resolves and a Chrome binary can be found.
func IsAvailable() bool {
	if _, err := os.Executable(); err != nil {
		return false
	}
	return browser.FindChromePath() != ""
}

// Options configures Check.
type Options struct {
	CookiesPath string
	// Network enables the site reachability probe.
	Network   bool
	SiteURL   string
	UserAgent string
	Timeout   time.Duration
}

// Report is the result of Check.
type Report struct {
	Available      bool      `json:"available"`
	Version        string    `json:"version"`
	Executable     string    `json:"executable,omitempty"`
	ChromePath     string    `json:"chrome_path,omitempty"`
	SessionFile    string    `json:"session_file"`
	SessionCookies int       `json:"session_cookies"`
	SiteReachable  *bool     `json:"site_reachable,omitempty"`
	SiteStatus     int       `json:"site_status,omitempty"`
	SiteError      string    `json:"site_error,omitempty"`
	Providers      []string  `json:"providers"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Check gathers a Report. It never fails; problems are reported in the
// Report fields.
func Check(ctx context.Context, opts Options) Report {
	r := Report{
		Version:   version.String(),
		Providers: ConfiguredProviders(),
		CheckedAt: time.Now().UTC(),
	}

	if exe, err := os.Executable(); err == nil {
		r.Executable = exe
	}
	r.ChromePath = browser.FindChromePath()
	r.Available = r.Executable != "" && r.ChromePath != ""

	path := opts.CookiesPath
	if path == "" {
		path = session.DefaultPath()
	}
	r.SessionFile = path
	r.SessionCookies = len(session.NewStore(path).Load())

	if opts.Network {
		status, err := Probe(ctx, opts.SiteURL, opts.UserAgent, opts.Timeout)
		reachable := err == nil && Reachable(status)
		r.SiteReachable = &reachable
		r.SiteStatus = status
		if err != nil {
			r.SiteError = err.Error()
		}
	}

	logger.Debug("health check", "available", r.Available, "chrome", r.ChromePath, "cookies", r.SessionCookies)
	return r
}

// ConfiguredProviders lists the model providers usable with the current
// environment.
func ConfiguredProviders() []string {
	out := []string{}
	for _, name := range llm.AvailableProviders() {
		if !llm.RequiresAPIKey(name) || llm.HasAPIKey(name) {
			out = append(out, name)
		}
	}
	return out
}

// Reachable reports whether an HTTP status means the site answered. The
// site sends non-standard codes such as 999 to suspected bots; those still
// count.
func Reachable(status int) bool {
	return status > 0 && (status < 500 || status > 599)
}

// Probe requests siteURL once and returns the status code.
func Probe(ctx context.Context, siteURL, userAgent string, timeout time.Duration) (int, error) {
	if siteURL == "" {
		siteURL = browser.SiteRoot
	}
	if userAgent == "" {
		userAgent = browser.RandomUserAgent()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(timeout)
	c.ParseHTTPErrorResponse = true

	var (
		status   int
		probeErr error
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		probeErr = err
	})

	logger.Debug("probing site", "url", siteURL)
	if err := c.Visit(siteURL); err != nil && probeErr == nil {
		probeErr = err
	}
	if probeErr != nil && status == 0 {
		return 0, fmt.Errorf("probe %s: %w", siteURL, probeErr)
	}
	if status == 0 {
		return 0, errors.New("probe: no response")
	}
	return status, nil
}
