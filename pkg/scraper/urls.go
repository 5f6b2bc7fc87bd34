package scraper

import (
	"net/url"
	"strings"
)

// NormalizeProfileURL canonicalizes a profile URL: https scheme, no query
// or fragment, trailing slash on the path. It returns "" for anything that
// is not an absolute LinkedIn URL.
func NormalizeProfileURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || !IsSiteHost(parsed.Hostname()) {
		return ""
	}

	parsed.Scheme = "https"
	parsed.RawQuery = ""
	parsed.Fragment = ""
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed.String()
}

// IsSiteHost reports whether host is linkedin.com or a subdomain of it.
func IsSiteHost(host string) bool {
	host = strings.ToLower(host)
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

// FilterURLs normalizes urls and drops the ones that are not LinkedIn URLs.
// Order and repeats are kept. The second result lists the dropped inputs.
func FilterURLs(urls []string) (kept, dropped []string) {
	for _, u := range urls {
		if n := NormalizeProfileURL(u); n != "" {
			kept = append(kept, n)
			continue
		}
		dropped = append(dropped, u)
	}
	return kept, dropped
}
