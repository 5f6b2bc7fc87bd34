package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/refyne-linkedin/pkg/profile"
)

// Contact is what the contact info overlay reveals.
type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\(?\d[\d\s().-]{6,}\d`)
)

// ParseContactInfo reads email, phone and website from the HTML of the
// contact info overlay. Links win over text matches.
func ParseContactInfo(html string) Contact {
	c := Contact{Email: profile.NotAvailable, Phone: profile.NotAvailable, Website: profile.NotAvailable}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return c
	}
	root := doc.Find("section.pv-contact-info, .artdeco-modal").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	root.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			if c.Email == profile.NotAvailable {
				addr, _, _ := strings.Cut(href[len("mailto:"):], "?")
				if addr = strings.TrimSpace(addr); addr != "" {
					c.Email = addr
				}
			}
		case strings.HasPrefix(lower, "tel:"):
			if c.Phone == profile.NotAvailable {
				if num := strings.TrimSpace(href[len("tel:"):]); num != "" {
					c.Phone = num
				}
			}
		case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
			if c.Website == profile.NotAvailable {
				if site := externalLink(href); site != "" {
					c.Website = site
				}
			}
		}
		return c.Email == profile.NotAvailable || c.Phone == profile.NotAvailable || c.Website == profile.NotAvailable
	})

	text := root.Text()
	if c.Email == profile.NotAvailable {
		if m := emailPattern.FindString(text); m != "" {
			c.Email = m
		}
	}
	if c.Phone == profile.NotAvailable {
		if m := phonePattern.FindString(text); m != "" {
			c.Phone = strings.TrimSpace(m)
		}
	}
	return c
}

// externalLink returns href if it points off the site, unwrapping the
// site's redirect links. It returns "" for links on the site itself.
func externalLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if isSiteHost(host) {
		if strings.HasPrefix(u.Path, "/redir/") {
			if target := u.Query().Get("url"); target != "" {
				return externalLink(target)
			}
		}
		return ""
	}
	if host == "" {
		return ""
	}
	return href
}

func isSiteHost(host string) bool {
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com") ||
		host == "lnkd.in" || strings.HasSuffix(host, ".licdn.com")
}

// Apply copies the contact values into r where r holds the sentinel.
func (c Contact) Apply(r *profile.Record) {
	src := profile.New(r.ProfileURL)
	src.Email = c.Email
	src.Phone = c.Phone
	src.Website = c.Website
	r.Overlay(src)
}
