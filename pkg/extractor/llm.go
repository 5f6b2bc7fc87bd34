package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/llm"
	"github.com/jmylchreest/refyne-linkedin/pkg/schema"
)

var (
	// ErrInsufficientContent means the page text was too short or showed an
	// error page, so the model was not called.
	ErrInsufficientContent = errors.New("insufficient content for extraction")

	// ErrParse means the model answered with something that is not a JSON
	// object. Check with errors.Is; errors.As gives the *ParseError.
	ErrParse = errors.New("model response is not a JSON object")

	// ErrMissingAPIKey is returned when a provider that needs a key has none.
	ErrMissingAPIKey = errors.New("missing API key")
)

// ParseError carries an excerpt of the response that failed to parse.
type ParseError struct {
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (response: %s)", ErrParse, e.Err, e.Excerpt)
	}
	return fmt.Sprintf("%s (response: %s)", ErrParse, e.Excerpt)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// LLMExtractor extracts profiles through one model provider.
type LLMExtractor struct {
	provider   llm.Provider
	config     LLMConfig
	retryDelay time.Duration
}

// NewLLMExtractor creates an extractor around an existing provider.
func NewLLMExtractor(provider llm.Provider, cfg *LLMConfig) *LLMExtractor {
	return &LLMExtractor{
		provider:   provider,
		config:     cfg.merge(),
		retryDelay: 2 * time.Second,
	}
}

// NewForProvider creates the provider by name and wraps it. The API key
// comes from cfg, else from the provider's environment variable.
func NewForProvider(name string, cfg *LLMConfig) (*LLMExtractor, error) {
	merged := cfg.merge()

	apiKey := merged.APIKey
	if apiKey == "" {
		if env, ok := llm.EnvKeys[name]; ok {
			apiKey = os.Getenv(env)
		}
	}
	if apiKey == "" && llm.RequiresAPIKey(name) {
		return nil, fmt.Errorf("%s: %w (set %s)", name, ErrMissingAPIKey, llm.EnvKeys[name])
	}

	pcfg := llm.DefaultProviderConfig()
	pcfg.APIKey = apiKey
	pcfg.BaseURL = merged.BaseURL
	pcfg.Model = merged.Model

	provider, err := llm.NewProvider(name, pcfg)
	if err != nil {
		return nil, err
	}
	return NewLLMExtractor(provider, &merged), nil
}

// Name returns the provider name.
func (e *LLMExtractor) Name() string {
	return e.provider.Name()
}

// Available reports whether a provider is configured.
func (e *LLMExtractor) Available() bool {
	return e.provider != nil
}

// Extract sends content to the model and decodes its answer. Only rate
// limit errors are retried.
func (e *LLMExtractor) Extract(ctx context.Context, content string, s schema.Schema) (*Result, error) {
	if reason := insufficient(content, e.config.MinContentChars); reason != "" {
		logger.Debug("skipping model call", "provider", e.Name(), "reason", reason)
		return &Result{Provider: e.Name()}, fmt.Errorf("%w: %s", ErrInsufficientContent, reason)
	}

	logger.Debug("extractor starting",
		"extractor", e.Name(),
		"schema", s.Name,
		"content_size", len(content),
		"max_retries", e.config.MaxRetries)

	var lastErr error
	var total Usage
	var totalDuration time.Duration

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &Result{Provider: e.Name(), Usage: total}, ctx.Err()
			case <-time.After(e.retryDelay * time.Duration(attempt)):
			}
		}

		start := time.Now()
		result, err := e.extractOnce(ctx, content, s, attempt)
		totalDuration += time.Since(start)
		total.InputTokens += result.Usage.InputTokens
		total.OutputTokens += result.Usage.OutputTokens

		if err == nil {
			result.Errors = s.Validate(result.Data)
			if len(result.Errors) > 0 {
				logger.Debug("model output violates contract", "provider", e.Name(), "errors", len(result.Errors))
			}
			result.Usage = total
			result.RetryCount = attempt
			result.Duration = totalDuration
			logger.Debug("extractor success",
				"attempts", attempt+1,
				"input_tokens", total.InputTokens,
				"output_tokens", total.OutputTokens,
				"duration", totalDuration,
				"model", result.Model)
			return result, nil
		}

		lastErr = err
		if !isRetryable(err) {
			logger.Debug("extractor error not retryable", "error", err)
			break
		}
		logger.Debug("rate limited, retrying", "attempt", attempt+1, "error", err)
	}

	return &Result{
		Provider: e.Name(),
		Usage:    total,
		Duration: totalDuration,
	}, lastErr
}

func (e *LLMExtractor) extractOnce(ctx context.Context, content string, s schema.Schema, attempt int) (*Result, error) {
	prompt := BuildPrompt(content, s, e.config.MaxContentSize)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	logger.Debug("extractor calling model",
		"provider", e.provider.Name(),
		"model", e.provider.Model(),
		"prompt_size", len(prompt))

	startedAt := time.Now()
	resp, err := e.provider.Execute(ctx, llm.Request{
		Messages:    messages,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
		JSONSchema:  s.ToJSONSchema(),
		StrictMode:  e.config.StrictMode,
	})

	if e.config.Observer != nil {
		event := llm.CallEvent{
			Provider:   e.provider.Name(),
			Model:      e.provider.Model(),
			Attempt:    attempt,
			InputChars: len(content),
			Err:        err,
			StartedAt:  startedAt,
			Duration:   time.Since(startedAt),
		}
		if resp != nil {
			if resp.Model != "" {
				event.Model = resp.Model
			}
			event.Usage = resp.Usage
			event.FinishReason = resp.FinishReason
		}
		e.config.Observer.OnCall(ctx, event)
	}

	if err != nil {
		return &Result{}, fmt.Errorf("model call failed: %w", err)
	}

	result := &Result{
		Raw:          resp.Content,
		Usage:        Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
		Model:        resp.Model,
		Provider:     e.provider.Name(),
		FinishReason: resp.FinishReason,
	}
	if result.Model == "" {
		result.Model = e.provider.Model()
	}

	data, err := decodeObject(resp.Content)
	if err != nil {
		return result, err
	}
	result.Data = data
	return result, nil
}

// decodeObject parses a model response into a JSON object.
func decodeObject(raw string) (map[string]any, error) {
	body := StripMarkdownCodeBlock(raw)

	var v any
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Excerpt: truncateForError(raw), Err: err}
	}
	// a single-element array wrapping the object is common enough to accept
	if arr, ok := v.([]any); ok && len(arr) == 1 {
		v = arr[0]
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Excerpt: truncateForError(raw), Err: fmt.Errorf("got %T", v)}
	}
	return obj, nil
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrParse) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "429")
}

// truncateForError limits a response for inclusion in error messages.
func truncateForError(s string) string {
	const maxLen = 200
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
