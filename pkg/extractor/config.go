package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jmylchreest/refyne-linkedin/pkg/llm"
	"github.com/jmylchreest/refyne-linkedin/pkg/schema"
)

// LLMConfig holds configuration for model-backed extraction.
type LLMConfig struct {
	// Model overrides the provider's default model.
	Model string

	// APIKey for the provider. If empty, the provider's environment
	// variable is used.
	APIKey string

	// BaseURL for custom API endpoints.
	BaseURL string

	// Temperature for model responses (default: 0.1).
	Temperature float64

	// MaxTokens for model responses (default: 8192).
	MaxTokens int

	// MaxRetries for rate limit errors only (default: 1).
	// Parse and validation failures are not retried.
	MaxRetries int

	// MinContentChars is the shortest projected text worth sending
	// (default: 200). Shorter pages fail with ErrInsufficientContent.
	MinContentChars int

	// MaxContentSize limits the content embedded in the prompt, in bytes
	// (0 = unlimited).
	MaxContentSize int

	// StrictMode requests strict JSON schema adherence where supported.
	StrictMode bool

	// Observer is notified after every model call.
	Observer llm.Observer
}

// DefaultLLMConfig returns the defaults for profile extraction.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature:     0.1,
		MaxTokens:       8192,
		MaxRetries:      1,
		MinContentChars: 200,
	}
}

// merge overlays the non-zero values of c on the defaults.
func (c *LLMConfig) merge() LLMConfig {
	cfg := DefaultLLMConfig()
	if c == nil {
		return cfg
	}
	cfg.Model = c.Model
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	if c.Temperature > 0 {
		cfg.Temperature = c.Temperature
	}
	if c.MaxTokens > 0 {
		cfg.MaxTokens = c.MaxTokens
	}
	if c.MaxRetries > 0 {
		cfg.MaxRetries = c.MaxRetries
	}
	if c.MinContentChars > 0 {
		cfg.MinContentChars = c.MinContentChars
	}
	cfg.MaxContentSize = c.MaxContentSize
	cfg.StrictMode = c.StrictMode
	cfg.Observer = c.Observer
	return cfg
}

// ErrorMarkers are phrases that only appear on pages with no profile
// behind them.
var ErrorMarkers = []string{
	"This page doesn't exist",
	"Page not found",
	"authwall",
	"Sign in to view",
}

// SystemPrompt is the system prompt for profile extraction.
const SystemPrompt = `You extract structured data from professional profile pages.

The page is given as lightweight Markdown: headings mark sections, nested
bullets group the positions held at one company.

Respond with ONLY valid JSON matching the schema. No explanations.

Rules:
1. Use only text present on the page. Never infer or invent values.
2. Omit optional fields that are not on the page.
3. Copy names, titles and companies exactly; do not repeat a word the page shows twice by accident.
4. Lists keep page order, most recent first.
5. URLs must be absolute.`

// BuildPrompt creates the extraction prompt from content and schema.
func BuildPrompt(content string, s schema.Schema, maxContentSize int) string {
	var prompt strings.Builder

	prompt.WriteString("Extract the profile from the following page.\n\n")
	prompt.WriteString(s.ToPromptDescription())

	prompt.WriteString("\n## Page Content\n")
	prompt.WriteString("```\n")
	prompt.WriteString(TruncateContent(content, maxContentSize))
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// TruncateContent limits content to maxLen bytes without splitting a rune.
// maxLen of 0 means no limit.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "\n\n[Content truncated due to length...]"
}

// StripMarkdownCodeBlock removes markdown code block wrappers from JSON responses.
// Some models wrap their JSON output in ```json ... ``` blocks.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}

	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// insufficient reports why content is not worth a model call, or "".
func insufficient(content string, minChars int) string {
	for _, marker := range ErrorMarkers {
		if strings.Contains(content, marker) {
			return fmt.Sprintf("page shows %q", marker)
		}
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(content)); n < minChars {
		return fmt.Sprintf("only %d characters of content", n)
	}
	return ""
}
