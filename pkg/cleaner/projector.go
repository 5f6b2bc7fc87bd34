package cleaner

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Stats describes one projection.
type Stats struct {
	Root             string // selector that matched the root container
	InputBytes       int
	ElementsVisited  int
	ElementsExcluded int
	OutputChars      int
	Truncated        bool
}

// Result is the output of Project.
type Result struct {
	Content string
	Stats   Stats
}

// Projector renders the content tree of a profile page as lightweight
// markdown. Headings, list nesting and emphasis are kept because they carry
// the company, role and date grouping of experience entries.
//
// A Projector is stateless and safe for concurrent use.
type Projector struct {
	cfg  *Config
	base *url.URL
}

// NewProjector creates a Projector. A nil config uses DefaultConfig.
func NewProjector(cfg *Config) *Projector {
	cfg = cfg.withDefaults()
	base, _ := url.Parse(cfg.BaseURL)
	return &Projector{cfg: cfg, base: base}
}

// Name implements Cleaner.
func (p *Projector) Name() string { return "projector" }

// Clean implements Cleaner.
func (p *Projector) Clean(html string) (string, error) {
	res, err := p.Project(html)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Project renders html and reports what was kept.
func (p *Projector) Project(htmlText string) (Result, error) {
	res := Result{Stats: Stats{InputBytes: len(htmlText)}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return res, fmt.Errorf("parse html: %w", err)
	}

	root := doc.Selection
	for _, sel := range p.cfg.RootSelectors {
		if m := doc.Find(sel).First(); m.Length() > 0 {
			root = m
			res.Stats.Root = sel
			break
		}
	}

	for _, sel := range p.cfg.ExcludeSelectors {
		found := root.Find(sel)
		res.Stats.ElementsExcluded += found.Length()
		found.Remove()
	}

	w := &writer{p: p, stats: &res.Stats}
	w.children(root, 0)

	out := tidy(w.sb.String())
	out, res.Stats.Truncated = truncate(out, p.cfg.MaxChars)
	res.Content = out
	res.Stats.OutputChars = utf8.RuneCountInString(out)
	return res, nil
}

// excluded reports whether an element's class or id names an excluded
// keyword.
func (p *Projector) excluded(s *goquery.Selection) bool {
	return len(s.Nodes) > 0 && p.excludedNode(s.Nodes[0])
}

func (p *Projector) excludedNode(n *html.Node) bool {
	var class, id string
	for _, a := range n.Attr {
		switch a.Key {
		case "class":
			class = a.Val
		case "id":
			id = a.Val
		}
	}
	if class == "" && id == "" {
		return false
	}
	return matchesKeyword(class+" "+id, p.cfg.ExcludeKeywords)
}

func matchesKeyword(attr string, keywords []string) bool {
	for _, tok := range strings.Fields(strings.ToLower(attr)) {
		segs := strings.FieldsFunc(tok, func(r rune) bool { return r == '-' || r == '_' })
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if short := strings.Trim(kw, "-_"); len(short) <= 3 {
				if slices.Contains(segs, short) {
					return true
				}
				continue
			}
			if strings.Contains(tok, kw) {
				return true
			}
		}
	}
	return false
}

func (p *Projector) resolve(href string) string {
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if p.base == nil || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(ref).String()
}

type writer struct {
	p     *Projector
	sb    strings.Builder
	stats *Stats
}

func (w *writer) children(sel *goquery.Selection, depth int) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		switch node.Type {
		case html.TextNode:
			w.text(node.Data)
		case html.ElementNode:
			w.stats.ElementsVisited++
			if w.p.excluded(s) {
				w.stats.ElementsExcluded++
				return
			}
			w.element(s, goquery.NodeName(s), depth)
		}
	})
}

// text writes collapsed text, keeping one space at the joins.
func (w *writer) text(data string) {
	collapsed := strings.Join(strings.Fields(data), " ")
	if collapsed == "" {
		if data != "" {
			w.space()
		}
		return
	}
	if startsWithSpace(data) {
		w.space()
	}
	w.sb.WriteString(collapsed)
	if endsWithSpace(data) {
		w.sb.WriteString(" ")
	}
}

func (w *writer) element(s *goquery.Selection, tag string, depth int) {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.blankLine()
		w.sb.WriteString(strings.Repeat("#", int(tag[1]-'0')))
		w.sb.WriteString(" ")
		w.sb.WriteString(w.p.inlineText(s))
		w.blankLine()

	case "p":
		w.blankLine()
		w.children(s, depth)
		w.blankLine()

	case "section", "article", "header", "div", "main":
		w.newline()
		w.children(s, depth)
		w.newline()

	case "br":
		w.sb.WriteString("\n")

	case "hr":
		w.blankLine()
		w.sb.WriteString("---")
		w.blankLine()

	case "strong", "b":
		w.wrap(s, "**")

	case "em", "i":
		w.wrap(s, "*")

	case "ul", "ol":
		w.newline()
		n := 0
		s.Children().Each(func(_ int, li *goquery.Selection) {
			if goquery.NodeName(li) != "li" || w.p.excluded(li) {
				return
			}
			n++
			w.newline()
			w.sb.WriteString(strings.Repeat("  ", depth))
			if tag == "ol" {
				fmt.Fprintf(&w.sb, "%d. ", n)
			} else {
				w.sb.WriteString("- ")
			}
			w.children(li, depth+1)
			w.newline()
		})

	case "a":
		href, _ := s.Attr("href")
		text := w.p.inlineText(s)
		switch {
		case text == "":
			return
		case href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#"):
			w.sb.WriteString(text)
		default:
			fmt.Fprintf(&w.sb, "[%s](%s)", text, w.p.resolve(href))
		}

	case "img":
		src, _ := s.Attr("src")
		alt := strings.TrimSpace(s.AttrOr("alt", ""))
		if alt == "" || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		fmt.Fprintf(&w.sb, "![%s](%s)", alt, w.p.resolve(src))

	default:
		w.children(s, depth)
	}
}

func (w *writer) wrap(s *goquery.Selection, marker string) {
	text := w.p.inlineText(s)
	if text == "" {
		return
	}
	w.sb.WriteString(marker)
	w.sb.WriteString(text)
	w.sb.WriteString(marker)
}

func (w *writer) space() {
	str := w.sb.String()
	if str == "" || strings.HasSuffix(str, " ") || strings.HasSuffix(str, "\n") {
		return
	}
	w.sb.WriteString(" ")
}

func (w *writer) newline() {
	str := w.sb.String()
	if str == "" || strings.HasSuffix(str, "\n") {
		return
	}
	w.sb.WriteString("\n")
}

func (w *writer) blankLine() {
	str := w.sb.String()
	switch {
	case str == "", strings.HasSuffix(str, "\n\n"):
	case strings.HasSuffix(str, "\n"):
		w.sb.WriteString("\n")
	default:
		w.sb.WriteString("\n\n")
	}
}

// inlineText is the collapsed text of s, used where nested markup would only
// add noise (headings, link labels). Excluded descendants are skipped.
func (p *Projector) inlineText(s *goquery.Selection) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				sb.WriteString(c.Data)
			case html.ElementNode:
				if !p.excludedNode(c) {
					walk(c)
				}
			}
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// tidy trims trailing spaces and caps runs of blank lines at one.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// truncate cuts s to at most max runes, including TruncationMarker.
func truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	marker := []rune(TruncationMarker)
	if len(marker) >= max {
		return string(marker[:max]), true
	}
	runes := []rune(s)
	return string(runes[:max-len(marker)]) + TruncationMarker, true
}
