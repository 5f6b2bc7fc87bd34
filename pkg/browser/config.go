// Package browser drives one Chrome process and its tabs over the DevTools
// protocol for authenticated page visits.
package browser

import (
	"math/rand/v2"
	"time"
)

// SiteRoot is the origin cookies are applied on.
const SiteRoot = "https://www.linkedin.com/"

// UserAgents is the desktop user agent pool, one picked per run.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// RandomUserAgent picks one entry of UserAgents.
func RandomUserAgent() string {
	return UserAgents[rand.IntN(len(UserAgents))]
}

// Config holds browser launch settings.
type Config struct {
	Headless          bool
	UserAgent         string
	WindowWidth       int
	WindowHeight      int
	ChromePath        string // empty means FindChromePath
	NavigationTimeout time.Duration
	Debug             bool // save screenshots of failures to the temp dir
}

// DefaultConfig returns headless defaults with a random user agent.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		UserAgent:         RandomUserAgent(),
		WindowWidth:       1920,
		WindowHeight:      1080,
		NavigationTimeout: 20 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		c.WindowWidth, c.WindowHeight = def.WindowWidth, def.WindowHeight
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = def.NavigationTimeout
	}
	return c
}
