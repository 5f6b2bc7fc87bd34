// Package extractor turns projected profile text into a profile record,
// either through a language model or through page selectors.
package extractor

import (
	"context"
	"time"

	"github.com/jmylchreest/refyne-linkedin/pkg/schema"
)

// Extractor extracts structured data from content.
type Extractor interface {
	// Extract performs extraction from content using the provided schema.
	Extract(ctx context.Context, content string, s schema.Schema) (*Result, error)

	// Name returns the extractor identifier.
	Name() string

	// Available returns true if the extractor is properly configured
	// (e.g., has required API keys or services available).
	Available() bool
}

// Result holds the extraction output.
type Result struct {
	// Data is the decoded model response, always a JSON object.
	Data map[string]any

	// Raw is the raw response from the model.
	Raw string

	// Errors contains contract violations found in Data. They are reported,
	// not fatal: normalization fills whatever is missing.
	Errors []schema.ValidationError

	Usage        Usage
	Model        string
	Provider     string
	FinishReason string
	RetryCount   int
	Duration     time.Duration
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
