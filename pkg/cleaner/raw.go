package cleaner

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RawCleaner hands the model the page HTML itself, minus scripts and
// styles, cut to MaxChars. It is a debugging aid for pages the projection
// renders badly.
type RawCleaner struct {
	MaxChars int
}

// NewRaw creates a RawCleaner. maxChars <= 0 uses DefaultMaxChars.
func NewRaw(maxChars int) *RawCleaner {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &RawCleaner{MaxChars: maxChars}
}

// Clean strips non-content elements and bounds the result.
func (c *RawCleaner) Clean(htmlText string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, svg, iframe").Remove()

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	out, _ = truncate(strings.TrimSpace(out), c.MaxChars)
	return out, nil
}

// Name returns the cleaner type.
func (c *RawCleaner) Name() string {
	return "raw"
}
