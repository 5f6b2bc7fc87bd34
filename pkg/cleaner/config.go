package cleaner

// DefaultMaxChars bounds the projected text to what fits comfortably in a
// model context alongside the prompt.
const DefaultMaxChars = 50_000

// TruncationMarker ends projected text that hit MaxChars. It counts toward
// the bound.
const TruncationMarker = "\n\n[content truncated]"

// Config configures a Projector.
type Config struct {
	// MaxChars is the upper bound on output length in runes.
	MaxChars int

	// BaseURL resolves relative links.
	BaseURL string

	// RootSelectors are tried in order; the first match is projected.
	RootSelectors []string

	// ExcludeSelectors remove whole subtrees.
	ExcludeSelectors []string

	// ExcludeKeywords remove subtrees whose class or id mentions one of
	// them. Keywords of three letters or fewer (after trimming "-") must
	// match a whole dash or underscore separated segment.
	ExcludeKeywords []string
}

// DefaultConfig returns the configuration used for LinkedIn profile pages.
func DefaultConfig() *Config {
	return &Config{
		MaxChars: DefaultMaxChars,
		BaseURL:  "https://www.linkedin.com",
		RootSelectors: []string{
			"main",
			".scaffold-layout__main",
			"#profile-content",
			"body",
		},
		ExcludeSelectors: []string{
			"nav",
			"header.global-nav",
			"footer",
			"aside",
			"script",
			"style",
			"noscript",
			"template",
			"svg",
			"iframe",
			"form",
			"button",
			"[role='dialog']",
			".artdeco-modal",
			".ad-banner-container",
			".visually-hidden",
		},
		ExcludeKeywords: []string{
			"ad-",
			"ads",
			"sponsored",
			"promo",
			"recommend",
			"suggest",
			"pymk",
			"people-also",
			"browsemap",
			"modal",
			"upsell",
			"premium",
		},
	}
}

func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.MaxChars <= 0 {
		out.MaxChars = def.MaxChars
	}
	if len(out.RootSelectors) == 0 {
		out.RootSelectors = def.RootSelectors
	}
	// nil means defaults; an empty non-nil list disables exclusion
	if out.ExcludeSelectors == nil {
		out.ExcludeSelectors = def.ExcludeSelectors
	}
	if out.ExcludeKeywords == nil {
		out.ExcludeKeywords = def.ExcludeKeywords
	}
	if out.BaseURL == "" {
		out.BaseURL = def.BaseURL
	}
	return &out
}
