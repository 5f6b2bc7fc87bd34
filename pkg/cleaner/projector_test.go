package cleaner

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

// readTestdata reads a file from the testdata directory
func readTestdata(t *testing.T, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("failed to read testdata %s: %v", filename, err)
	}
	return string(data)
}

// --- Projection Tests ---

func TestProjector_ProfilePage(t *testing.T) {
	p := NewProjector(nil)
	res, err := p.Project(readTestdata(t, "profile.html"))
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	out := res.Content

	wants := []string{
		"# Ada Lovelace",
		"Analyst at **Analytical Engines**",
		"London, England",
		"![Ada Lovelace](https://media.licdn.com/dms/image/ada.jpg)",
		"[Contact info](https://www.linkedin.com/in/ada/overlay/contact-info/)",
		"## About",
		"Writes *programs* for machines",
		"## Experience",
		"- Senior Analyst\n  - Analytical Engines · Full-time\n  - Jun 1842 - Present",
		"- Translator\n  - Self-employed",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n---\n%s", want, out)
		}
	}

	unwanted := []string{
		"Promoted", "Premium", "People also viewed", "Charles Babbage",
		"Modal text", "window.tracking", "My Network", "More profiles",
		"LinkedIn Corporation", "Connect", "About About", "Senior AnalystSenior Analyst",
	}
	for _, bad := range unwanted {
		if strings.Contains(out, bad) {
			t.Errorf("output should not contain %q\n---\n%s", bad, out)
		}
	}

	if res.Stats.Root != "main" {
		t.Errorf("Root = %q, want main", res.Stats.Root)
	}
	if res.Stats.ElementsExcluded == 0 {
		t.Error("expected excluded elements to be counted")
	}
	if res.Stats.Truncated {
		t.Error("small page should not be truncated")
	}
	if res.Stats.OutputChars != utf8.RuneCountInString(out) {
		t.Errorf("OutputChars = %d, want %d", res.Stats.OutputChars, utf8.RuneCountInString(out))
	}
}

func TestProjector_RootFallback(t *testing.T) {
	p := NewProjector(nil)
	res, err := p.Project(`<html><body><h3>Only body</h3></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Root != "body" {
		t.Errorf("Root = %q, want body", res.Stats.Root)
	}
	if res.Content != "### Only body" {
		t.Errorf("Content = %q", res.Content)
	}
}

func TestProjector_KeywordExclusion(t *testing.T) {
	tests := []struct {
		attr     string
		excluded bool
	}{
		{`class="ad-banner"`, true},
		{`class="feed-ad-slot"`, true},
		{`class="ads-container"`, true},
		{`id="sponsored-update"`, true},
		{`class="promo-card"`, true},
		{`class="pymk-section"`, true},
		{`class="recommendations-list"`, true},
		{`class="suggested-follows"`, true},
		{`class="people-also-viewed"`, true},
		{`class="premium-upsell-link"`, true},
		{`class="reads"`, false},
		{`class="upload-area"`, false},
		{`class="pv-top-card"`, false},
		{`id="experience"`, false},
	}
	p := NewProjector(nil)
	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			html := `<main><p>keep me</p><div ` + tt.attr + `><p>INJECTED</p></div></main>`
			out, err := p.Clean(html)
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.Contains(out, "INJECTED"); got == tt.excluded {
				t.Errorf("INJECTED present=%v, want excluded=%v (out=%q)", got, tt.excluded, out)
			}
			if !strings.Contains(out, "keep me") {
				t.Errorf("sibling content lost: %q", out)
			}
		})
	}
}

func TestProjector_KeywordExclusionInline(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"heading", `<h2>Experience <span class="sponsored-label">INJECTED</span></h2>`, "## Experience"},
		{"link", `<a href="/in/x">Jane <span class="promo-tag">INJECTED</span></a>`, "[Jane](https://www.linkedin.com/in/x)"},
		{"bold", `<b>Acme <em id="ad-slot">INJECTED</em></b>`, "**Acme**"},
		{"emphasis", `<i>Remote <span class="premium-badge">INJECTED</span></i>`, "*Remote*"},
		{"nested", `<h3>Skills <span><span class="upsell">INJECTED</span> Go</span></h3>`, "### Skills Go"},
	}
	p := NewProjector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Clean("<main>" + tt.html + "</main>")
			if err != nil {
				t.Fatal(err)
			}
			if strings.Contains(out, "INJECTED") {
				t.Errorf("excluded text leaked: %q", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q missing %q", out, tt.want)
			}
		})
	}
}

func TestProjector_NeverExceedsBound(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<main>")
	for i := 0; i < 500; i++ {
		sb.WriteString("<p>Éléphant café résumé naïve façade</p>")
	}
	sb.WriteString("</main>")

	for _, max := range []int{5, 25, 100, 1000} {
		p := NewProjector(&Config{MaxChars: max})
		res, err := p.Project(sb.String())
		if err != nil {
			t.Fatal(err)
		}
		n := utf8.RuneCountInString(res.Content)
		if n > max {
			t.Errorf("MaxChars=%d: got %d runes", max, n)
		}
		if !utf8.ValidString(res.Content) {
			t.Errorf("MaxChars=%d: output is not valid UTF-8", max)
		}
		if !res.Stats.Truncated {
			t.Errorf("MaxChars=%d: expected Truncated", max)
		}
		if max > len(TruncationMarker) && !strings.HasSuffix(res.Content, TruncationMarker) {
			t.Errorf("MaxChars=%d: missing marker", max)
		}
	}
}

func TestProjector_DefaultBound(t *testing.T) {
	big := "<main><p>" + strings.Repeat("word ", 20_000) + "</p></main>"
	out, err := NewProjector(nil).Clean(big)
	if err != nil {
		t.Fatal(err)
	}
	if n := utf8.RuneCountInString(out); n != DefaultMaxChars {
		t.Errorf("got %d runes, want exactly %d", n, DefaultMaxChars)
	}
}

func TestProjector_ListsAndLinks(t *testing.T) {
	html := `<main>
		<ol><li>first</li><li>second</li></ol>
		<a href="javascript:void(0)">js link</a>
		<a href="#skills">anchor</a>
		<a href="//cdn.example.com/x">proto</a>
		<a href="https://example.com"></a>
	</main>`
	out, err := NewProjector(nil).Clean(html)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"1. first", "2. second", "js link", "anchor", "[proto](https://cdn.example.com/x)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "javascript:") || strings.Contains(out, "](https://example.com)") {
		t.Errorf("unexpected link output: %q", out)
	}
}

func TestProjector_ConcurrentUse(t *testing.T) {
	p := NewProjector(nil)
	html := readTestdata(t, "profile.html")
	want, _ := p.Clean(html)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Clean(html)
			if err != nil || got != want {
				t.Errorf("concurrent Clean differs (err=%v)", err)
			}
		}()
	}
	wg.Wait()
}

func TestProjector_Name(t *testing.T) {
	var c Cleaner = NewProjector(nil)
	if c.Name() != "projector" {
		t.Errorf("Name() = %q", c.Name())
	}
}

// --- Raw Tests ---

func TestRawCleaner(t *testing.T) {
	c := NewRaw(0)
	out, err := c.Clean(`<html><head><style>p{}</style></head><body><script>track()</script><main><p>Ada</p></main></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<main><p>Ada</p></main>" {
		t.Errorf("Clean() = %q", out)
	}
	if c.Name() != "raw" {
		t.Errorf("Name() = %q", c.Name())
	}

	out, _ = NewRaw(30).Clean("<body><p>" + strings.Repeat("x", 100) + "</p></body>")
	if n := utf8.RuneCountInString(out); n > 30 || !strings.HasSuffix(out, TruncationMarker) {
		t.Errorf("bounded output = %q (%d runes)", out, n)
	}
}
