package llm

import "errors"

// GeminiBaseURL is Google's OpenAI-compatible endpoint for Gemini models.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// NewGeminiProvider returns a provider for Gemini models. Gemini accepts
// Chat Completions requests, including JSON schema response formats and
// inline images, so the OpenAI client is reused against Google's endpoint.
func NewGeminiProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModels["gemini"]
	}
	return newOpenAICompatible("gemini", model, cfg), nil
}
