package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/profile"
)

// Strategy is one named way of finding a field on a page.
type Strategy struct {
	Name string
	Find func(doc *goquery.Document) string
}

// FirstMatch returns the value of the first strategy that finds one, and
// that strategy's name.
func FirstMatch(doc *goquery.Document, strategies ...Strategy) (value, name string) {
	for _, s := range strategies {
		if v := strings.TrimSpace(s.Find(doc)); v != "" {
			return v, s.Name
		}
	}
	return "", ""
}

// Selector returns a strategy reading the visible text of the first match.
func Selector(sel string) Strategy {
	return Strategy{
		Name: sel,
		Find: func(doc *goquery.Document) string {
			return visibleText(doc.Find(sel).First())
		},
	}
}

// Attr returns a strategy reading an attribute of the first match.
func Attr(sel, attr string) Strategy {
	return Strategy{
		Name: sel + "@" + attr,
		Find: func(doc *goquery.Document) string {
			return strings.TrimSpace(doc.Find(sel).First().AttrOr(attr, ""))
		},
	}
}

func selectors(sels ...string) []Strategy {
	out := make([]Strategy, len(sels))
	for i, s := range sels {
		out[i] = Selector(s)
	}
	return out
}

// ManualStrategies are the per-field selector lists, most specific first.
var ManualStrategies = map[string][]Strategy{
	"name": selectors(
		"h1.text-heading-xlarge.inline.t-24.v-align-middle.break-words",
		"h1.break-words",
		"h1.text-heading-xlarge",
		"h1.top-card-layout__title",
		"h1[data-anonymize='person-name']",
	),
	"headline": selectors(
		"div.text-body-medium.break-words",
		"div.text-body-medium",
		".ph5.pb5 .mt1",
		".text-body-medium.inline.t-black--light.break-words",
	),
	"location": selectors(
		"span.text-body-small.inline.t-black--light.break-words",
		".text-body-small.inline.t-black--light",
		".pv-text-details__left-panel span.text-body-small",
	),
	"about": selectors(
		"section:has(#about) .inline-show-more-text span[aria-hidden='true']",
		"div.display-flex.ph5.pv3 span[aria-hidden='true']",
		".pv-about-section .pv-about__summary-text",
		"section[data-section='summary'] .pv-about__summary-text",
	),
	"connections": {
		{
			Name: "connections-text",
			Find: func(doc *goquery.Document) string {
				var found string
				doc.Find("li.text-body-small, span.t-black--light span, .pv-top-card-v2-ctas__connections").EachWithBreak(func(_ int, s *goquery.Selection) bool {
					t := visibleText(s)
					if strings.Contains(strings.ToLower(t), "connection") || strings.Contains(strings.ToLower(t), "follower") {
						found = t
						return false
					}
					return true
				})
				return found
			},
		},
	},
	"pronouns": selectors(
		"span.text-body-small.v-align-middle.break-words.t-black--light",
		".pv-text-details__about-this-profile-entrypoint span",
	),
	"profile_image_url": {
		Attr("img.pv-top-card-profile-picture__image--show", "src"),
		Attr("img.pv-top-card-profile-picture__image", "src"),
		Attr(".pv-top-card__photo img", "src"),
		Attr("img.profile-photo-edit__preview", "src"),
	},
}

var (
	experienceSections = []string{
		"section:has(#experience)",
		"section[data-section='experience']",
		"section#experience-section",
		"section.pv-profile-section.experience-section",
	}
	educationSections = []string{
		"section:has(#education)",
		"section[data-section='education']",
		"section#education-section",
		"section.pv-profile-section.education-section",
	}
	skillsSections = []string{
		"section:has(#skills)",
		"section[data-section='skills']",
		"section#skills-section",
		"section.pv-profile-section.skills-section",
	}
)

// ManualExtractor reads a profile straight from page selectors. It is the
// fallback when the model cannot be used.
type ManualExtractor struct {
	strategies map[string][]Strategy
}

// NewManualExtractor creates a ManualExtractor with ManualStrategies.
func NewManualExtractor() *ManualExtractor {
	return &ManualExtractor{strategies: ManualStrategies}
}

// Extract builds a record for url from the page HTML. The record has
// ExtractionMethod "manual" even when nothing was found.
func (m *ManualExtractor) Extract(html, url string) (profile.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		rec := profile.New(url)
		rec.ExtractionMethod = profile.MethodManual
		return rec, fmt.Errorf("parse html: %w", err)
	}

	raw := map[string]any{}
	for field, strategies := range m.strategies {
		if v, name := FirstMatch(doc, strategies...); v != "" {
			raw[field] = v
			logger.Debug("manual field found", "field", field, "strategy", name)
		}
	}

	if sec := section(doc, experienceSections); sec != nil {
		raw["all_experience"] = listItems(sec, func(parts []string) map[string]any {
			entry := map[string]any{"role": at(parts, 0), "company": company(at(parts, 1)), "period": at(parts, 2)}
			if len(parts) > 4 {
				entry["description"] = parts[len(parts)-1]
			}
			return entry
		})
	}
	if sec := section(doc, educationSections); sec != nil {
		raw["all_education"] = listItems(sec, func(parts []string) map[string]any {
			degree, field, _ := strings.Cut(at(parts, 1), ",")
			return map[string]any{"institution": at(parts, 0), "degree": degree, "field": strings.TrimSpace(field), "period": at(parts, 2)}
		})
	}
	if sec := section(doc, skillsSections); sec != nil {
		var skills []any
		sec.Find("li").Each(func(_ int, li *goquery.Selection) {
			if parts := itemParts(li); len(parts) > 0 {
				skills = append(skills, parts[0])
			}
		})
		raw["all_skills"] = skills
	}

	rec := profile.Normalize(raw, url)
	rec.ExtractionMethod = profile.MethodManual
	return rec, nil
}

func section(doc *goquery.Document, sels []string) *goquery.Selection {
	for _, sel := range sels {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// listItems maps the top-level entries of a profile section. Entries are
// li elements not nested inside another entry.
func listItems(sec *goquery.Selection, build func(parts []string) map[string]any) []any {
	var out []any
	sec.Find("li").Each(func(_ int, li *goquery.Selection) {
		if li.ParentsUntilSelection(sec).Filter("li").Length() > 0 {
			return
		}
		parts := itemParts(li)
		if len(parts) == 0 {
			return
		}
		out = append(out, build(parts))
	})
	return out
}

// itemParts returns the distinct visible text lines of an entry. The page
// renders each line twice, once for screen readers; aria-hidden spans hold
// the visible copy.
func itemParts(s *goquery.Selection) []string {
	var parts []string
	seen := map[string]bool{}
	add := func(t string) {
		t = strings.Join(strings.Fields(t), " ")
		if t != "" && !seen[t] {
			seen[t] = true
			parts = append(parts, t)
		}
	}
	hidden := s.Find("span[aria-hidden='true']")
	if hidden.Length() > 0 {
		hidden.Each(func(_ int, h *goquery.Selection) { add(h.Text()) })
		return parts
	}
	s.Children().Each(func(_ int, c *goquery.Selection) {
		if c.Is(".visually-hidden") {
			return
		}
		add(c.Text())
	})
	return parts
}

// visibleText prefers the aria-hidden copy LinkedIn renders next to a
// visually-hidden duplicate.
func visibleText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	if h := s.Find("span[aria-hidden='true']").First(); h.Length() > 0 {
		return strings.Join(strings.Fields(h.Text()), " ")
	}
	c := s.Clone()
	c.Find(".visually-hidden").Remove()
	return strings.Join(strings.Fields(c.Text()), " ")
}

// company drops the employment type suffix ("Acme · Full-time").
func company(s string) string {
	name, _, _ := strings.Cut(s, " · ")
	return strings.TrimSpace(name)
}

func at(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}
