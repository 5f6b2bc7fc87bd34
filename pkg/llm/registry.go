package llm

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory creates providers from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"gemini":    "gemini-2.0-flash",
	"anthropic": "claude-sonnet-4-20250514",
	"openai":    "gpt-4o-mini",
	"ollama":    "llama3.2",
}

// FallbackOrder is the order providers are tried when no provider is named.
var FallbackOrder = []string{"gemini", "anthropic", "openai", "ollama"}

// EnvKeys maps provider names to the environment variable holding the key.
var EnvKeys = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

func init() {
	RegisterProvider("gemini", func(cfg ProviderConfig) (Provider, error) {
		return NewGeminiProvider(cfg)
	})
	RegisterProvider("anthropic", func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	RegisterProvider("openai", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider("ollama", func(cfg ProviderConfig) (Provider, error) {
		return NewOllamaProvider(cfg)
	})
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %s)", name, strings.Join(AvailableProviders(), ", "))
	}
	return factory(cfg)
}

// RegisterProvider adds or replaces a provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// AvailableProviders returns the registered provider names, sorted.
func AvailableProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a provider is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// GetDefaultModel returns the default model for a provider.
func GetDefaultModel(provider string) string {
	return DefaultModels[provider]
}

// RequiresAPIKey reports whether the provider needs a key to be usable.
func RequiresAPIKey(provider string) bool {
	_, ok := EnvKeys[provider]
	return ok
}

// HasAPIKey reports whether the provider's key variable is set.
func HasAPIKey(provider string) bool {
	if env, ok := EnvKeys[provider]; ok {
		return os.Getenv(env) != ""
	}
	return false
}

// DetectProvider returns the first provider in FallbackOrder with a key set
// in the environment, or ollama.
func DetectProvider() (provider string, apiKey string) {
	for _, name := range FallbackOrder {
		if env, ok := EnvKeys[name]; ok {
			if key := os.Getenv(env); key != "" {
				return name, key
			}
		}
	}
	return "ollama", ""
}

// IsFallbackProvider reports whether name takes part in automatic fallback.
func IsFallbackProvider(name string) bool {
	return slices.Contains(FallbackOrder, name)
}
