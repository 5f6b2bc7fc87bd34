package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/refyne-linkedin/pkg/llm"
	"github.com/jmylchreest/refyne-linkedin/pkg/profile"
	"github.com/jmylchreest/refyne-linkedin/pkg/schema"
)

// fakeProvider replays canned responses, one per call.
type fakeProvider struct {
	mu        sync.Mutex
	name      string
	responses []string
	errs      []error
	calls     int
	last      llm.Request
}

func (f *fakeProvider) Execute(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.last = req
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return &llm.Response{Content: content, FinishReason: "stop", Usage: llm.Usage{InputTokens: 100, OutputTokens: 20}}, nil
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeProvider) Model() string { return "fake-1" }

// pageText is long enough to clear MinContentChars.
var pageText = "# Ada Lovelace\n\nAnalyst at **Analytical Engines**\n\n## About\n\n" + strings.Repeat("Writes programs for machines. ", 10)

func newTestExtractor(p llm.Provider, cfg *LLMConfig) *LLMExtractor {
	e := NewLLMExtractor(p, cfg)
	e.retryDelay = 0
	return e
}

// --- LLMExtractor Tests ---

func TestLLMExtractor_Success(t *testing.T) {
	p := &fakeProvider{responses: []string{"```json\n{\"name\":\"Ada Lovelace\",\"all_skills\":[\"Math\"]}\n```"}}
	var events []llm.CallEvent
	cfg := &LLMConfig{Observer: llm.ObserverFunc(func(_ context.Context, e llm.CallEvent) { events = append(events, e) })}

	res, err := newTestExtractor(p, cfg).Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", res.Data["name"])
	assert.Empty(t, res.Errors)
	assert.Equal(t, "fake", res.Provider)
	assert.Equal(t, "fake-1", res.Model)
	assert.Equal(t, 100, res.Usage.InputTokens)

	require.Len(t, p.last.Messages, 2)
	assert.Equal(t, llm.RoleSystem, p.last.Messages[0].Role)
	assert.Contains(t, p.last.Messages[1].Content, "## Fields to Extract")
	assert.Contains(t, p.last.Messages[1].Content, "Ada Lovelace")
	assert.NotNil(t, p.last.JSONSchema)

	require.Len(t, events, 1)
	assert.Equal(t, len(pageText), events[0].InputChars)
	assert.NoError(t, events[0].Err)
}

func TestLLMExtractor_InsufficientContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"short", "# Ada"},
		{"error page", pageText + "\nThis page doesn't exist"},
		{"authwall", pageText + "\nhttps://www.linkedin.com/authwall?trk=x"},
		{"blank", strings.Repeat(" \n", 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{}
			_, err := newTestExtractor(p, nil).Extract(context.Background(), tt.content, ProfileSchema())
			require.ErrorIs(t, err, ErrInsufficientContent)
			assert.Zero(t, p.calls, "model must not be called")
		})
	}
}

func TestLLMExtractor_ParseError(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "Sorry, I cannot help with that."},
		{"array", `[{"name":"a"},{"name":"b"}]`},
		{"string", `"Ada"`},
		{"truncated", `{"name": "Ada", "about": "` + strings.Repeat("x", 400)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{responses: []string{tt.response}}
			_, err := newTestExtractor(p, &LLMConfig{MaxRetries: 3}).Extract(context.Background(), pageText, ProfileSchema())
			require.ErrorIs(t, err, ErrParse)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.LessOrEqual(t, len(perr.Excerpt), 203)
			assert.Equal(t, 1, p.calls, "parse errors are not retried")
		})
	}
}

func TestLLMExtractor_SingleElementArray(t *testing.T) {
	p := &fakeProvider{responses: []string{`[{"name":"Ada"}]`}}
	res, err := newTestExtractor(p, nil).Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.Data["name"])
}

func TestLLMExtractor_RetriesRateLimitOnly(t *testing.T) {
	p := &fakeProvider{
		errs:      []error{errors.New("429 Too Many Requests: rate limit exceeded")},
		responses: []string{"", `{"name":"Ada"}`},
	}
	res, err := newTestExtractor(p, &LLMConfig{MaxRetries: 2}).Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 1, res.RetryCount)

	p = &fakeProvider{errs: []error{errors.New("invalid api key")}}
	_, err = newTestExtractor(p, &LLMConfig{MaxRetries: 2}).Extract(context.Background(), pageText, ProfileSchema())
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestLLMExtractor_ValidationErrorsAreReported(t *testing.T) {
	p := &fakeProvider{responses: []string{`{"headline":"Analyst","all_skills":"Math, Logic"}`}}
	res, err := newTestExtractor(p, nil).Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Errors)

	fields := map[string]bool{}
	for _, e := range res.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["all_skills"])
}

func TestNewForProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewForProvider("anthropic", nil)
	require.ErrorIs(t, err, ErrMissingAPIKey)

	ext, err := NewForProvider("ollama", &LLMConfig{Model: "llama3.2"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", ext.Name())
	assert.True(t, ext.Available())

	t.Setenv("GEMINI_API_KEY", "g")
	ext, err = NewForProvider("gemini", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini", ext.Name())

	_, err = NewForProvider("nope", &LLMConfig{APIKey: "x"})
	assert.Error(t, err)
}

// --- Fallback Tests ---

type stubExtractor struct {
	name      string
	available bool
	err       error
	calls     int
}

func (s *stubExtractor) Extract(context.Context, string, schema.Schema) (*Result, error) {
	s.calls++
	if s.err != nil {
		return &Result{Provider: s.name}, s.err
	}
	return &Result{Provider: s.name, Data: map[string]any{"name": s.name}}, nil
}
func (s *stubExtractor) Name() string    { return s.name }
func (s *stubExtractor) Available() bool { return s.available }

func TestFallback(t *testing.T) {
	a := &stubExtractor{name: "a", available: false}
	b := &stubExtractor{name: "b", available: true, err: errors.New("boom")}
	c := &stubExtractor{name: "c", available: true}

	f := NewFallback(a, b, c)
	assert.Equal(t, "fallback(a->b->c)", f.Name())
	assert.True(t, f.Available())

	res, err := f.Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Equal(t, "c", res.Provider)
	assert.Zero(t, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestFallback_StopsOnInsufficientContent(t *testing.T) {
	b := &stubExtractor{name: "b", available: true, err: ErrInsufficientContent}
	c := &stubExtractor{name: "c", available: true}
	_, err := NewFallback(b, c).Extract(context.Background(), "x", ProfileSchema())
	require.ErrorIs(t, err, ErrInsufficientContent)
	assert.Zero(t, c.calls)
}

func TestFallback_KeepsEveryProviderError(t *testing.T) {
	errA := errors.New("bad gateway")
	errB := errors.New("invalid api key")
	a := &stubExtractor{name: "gemini", available: true, err: errA}
	b := &stubExtractor{name: "anthropic", available: true, err: errB}

	_, err := NewFallback(a, b).Extract(context.Background(), pageText, ProfileSchema())
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "tried: gemini, anthropic")
	assert.Contains(t, err.Error(), "gemini: bad gateway")
}

func TestFallback_BenchesRateLimitedProvider(t *testing.T) {
	limited := &stubExtractor{name: "gemini", available: true, err: errors.New("429 rate limit exceeded")}
	next := &stubExtractor{name: "anthropic", available: true}

	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	f := NewFallback(limited, next).WithCooldown(time.Minute)
	f.now = func() time.Time { return now }

	res, err := f.Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", res.Provider)
	assert.Equal(t, []string{"gemini"}, f.Benched())

	// benched: the next profile goes to anthropic first
	res, err = f.Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", res.Provider)
	assert.Equal(t, 1, limited.calls)

	// cooldown over: gemini is first again
	now = now.Add(2 * time.Minute)
	limited.err = nil
	res, err = f.Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Equal(t, "gemini", res.Provider)
	assert.Empty(t, f.Benched())
}

func TestFallback_BenchedProviderStillTriedLast(t *testing.T) {
	limited := &stubExtractor{name: "gemini", available: true, err: errors.New("rate limit")}
	broken := &stubExtractor{name: "openai", available: true, err: errors.New("boom")}
	f := NewFallback(limited, broken)

	_, err := f.Extract(context.Background(), pageText, ProfileSchema())
	require.Error(t, err)

	limited.err = nil
	res, err := f.Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Equal(t, "gemini", res.Provider)
	assert.Equal(t, 2, broken.calls, "ready providers run before benched ones")
	assert.Empty(t, f.Benched(), "success lifts the bench")
}

func TestFallback_ZeroCooldownNeverBenches(t *testing.T) {
	limited := &stubExtractor{name: "gemini", available: true, err: errors.New("429")}
	f := NewFallback(limited, &stubExtractor{name: "ollama", available: true}).WithCooldown(0)

	_, err := f.Extract(context.Background(), pageText, ProfileSchema())
	require.NoError(t, err)
	assert.Empty(t, f.Benched())
}

func TestFallback_NoneAvailable(t *testing.T) {
	f := NewFallback(&stubExtractor{name: "a"})
	assert.False(t, f.Available())
	_, err := f.Extract(context.Background(), pageText, ProfileSchema())
	require.ErrorIs(t, err, ErrNoExtractorAvailable)
}

// --- Prompt Tests ---

func TestStripMarkdownCodeBlock(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`  {"a":1}  `, `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkdownCodeBlock(tt.in))
	}
}

func TestTruncateContent(t *testing.T) {
	assert.Equal(t, "abc", TruncateContent("abc", 0))
	got := TruncateContent("ééé", 3)
	assert.True(t, strings.HasPrefix(got, "é\n\n[Content truncated"), got)
}

func TestProfileSchema(t *testing.T) {
	s := ProfileSchema()
	assert.Equal(t, "ProfileContract", s.Name)
	js := s.ToJSONSchema()
	assert.Equal(t, []string{"name"}, js["required"])
}

// --- Contact Tests ---

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParseContactInfo(t *testing.T) {
	c := ParseContactInfo(readTestdata(t, "contact.html"))
	assert.Equal(t, "ada@example.org", c.Email)
	assert.Equal(t, "+44 20 7946 0958", c.Phone)
	assert.Equal(t, "https://ada.example.org", c.Website)
}

func TestParseContactInfo_TextFallback(t *testing.T) {
	c := ParseContactInfo(`<section class="pv-contact-info"><p>Reach me at grace@navy.example.mil or (555) 010-2030</p>
		<a href="https://www.linkedin.com/in/grace">profile</a></section>`)
	assert.Equal(t, "grace@navy.example.mil", c.Email)
	assert.Equal(t, "(555) 010-2030", c.Phone)
	assert.Equal(t, profile.NotAvailable, c.Website)
}

func TestParseContactInfo_FirstExternalLinkOnly(t *testing.T) {
	c := ParseContactInfo(`<section class="pv-contact-info">
		<a href="https://www.linkedin.com/in/ada">profile</a>
		<a href="https://www.linkedin.com/redir/redirect?url=https%3A%2F%2Ftwitter.com%2Fada">Twitter</a>
		<a href="https://ada.example.org">Blog</a>
	</section>`)
	assert.Equal(t, "https://twitter.com/ada", c.Website)
	assert.Equal(t, Contact{Email: profile.NotAvailable, Phone: profile.NotAvailable, Website: "https://twitter.com/ada"}, c)
}

func TestParseContactInfo_Empty(t *testing.T) {
	c := ParseContactInfo("")
	assert.Equal(t, Contact{Email: profile.NotAvailable, Phone: profile.NotAvailable, Website: profile.NotAvailable}, c)
}

func TestContactApply(t *testing.T) {
	r := profile.New("https://www.linkedin.com/in/ada")
	r.Email = "kept@example.org"
	Contact{Email: "new@example.org", Phone: "123", Website: profile.NotAvailable}.Apply(&r)
	assert.Equal(t, "kept@example.org", r.Email)
	assert.Equal(t, "123", r.Phone)
	assert.Equal(t, profile.NotAvailable, r.Website)
}

// --- Manual Tests ---

func TestManualExtractor(t *testing.T) {
	url := "https://www.linkedin.com/in/ada"
	rec, err := NewManualExtractor().Extract(readTestdata(t, "manual.html"), url)
	require.NoError(t, err)

	assert.Equal(t, profile.MethodManual, rec.ExtractionMethod)
	assert.Equal(t, url, rec.ProfileURL)
	assert.Equal(t, "Ada Lovelace", rec.Name)
	assert.Equal(t, "Sr. Analyst at Analytical Engines", rec.Headline)
	assert.Equal(t, "London, England, United Kingdom", rec.Location)
	assert.Equal(t, "Writes programs for machines that do not exist yet.", rec.About)
	assert.Equal(t, "500+ connections", rec.Connections)
	assert.Equal(t, "she/her", rec.Pronouns)
	assert.Equal(t, "https://media.licdn.com/dms/image/ada.jpg", rec.ProfileImageURL)

	require.Len(t, rec.AllExperience, 2)
	assert.Equal(t, "Senior Analyst", rec.AllExperience[0].Role)
	assert.Equal(t, "Analytical Engines", rec.AllExperience[0].Company)
	assert.Equal(t, "Jun 1842 - Present", rec.AllExperience[0].Period)
	assert.Equal(t, "Analytical Engines", rec.CurrentCompany)
	assert.Equal(t, "Senior Analyst", rec.CurrentPosition)

	require.Len(t, rec.AllEducation, 1)
	assert.Equal(t, "University of London", rec.AllEducation[0].Institution)
	assert.Equal(t, "Mathematics", rec.AllEducation[0].Field)
	assert.Equal(t, "University of London", rec.Education)

	assert.Equal(t, "Mathematics, Programming, Translation", rec.AllSkills)
	assert.Equal(t, 3, rec.SkillsCount)
	assert.Equal(t, profile.NotAvailable, rec.Email)
}

func TestManualExtractor_EmptyPage(t *testing.T) {
	rec, err := NewManualExtractor().Extract("<html><body></body></html>", "u")
	require.NoError(t, err)
	assert.Equal(t, profile.MethodManual, rec.ExtractionMethod)
	assert.Equal(t, profile.NotAvailable, rec.Name)
	assert.NotNil(t, rec.AllExperience)
	assert.NotNil(t, rec.AllEducation)
}

func TestFirstMatch(t *testing.T) {
	rec, _ := NewManualExtractor().Extract(`<h1 class="top-card-layout__title">Grace</h1>`, "u")
	assert.Equal(t, "Grace", rec.Name)
}
