package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/extractor"
	"github.com/jmylchreest/refyne-linkedin/pkg/llm"
)

// ProviderConfig holds provider-specific settings from the config file.
type ProviderConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	BaseURL     string  `mapstructure:"base_url"`
}

// fallbackOrder returns the providers to try, preferred first. Ollama needs
// no key, so it only joins the chain when asked for by name.
func fallbackOrder(preferred string) []string {
	order := viper.GetStringSlice("fallback_order")
	explicit := len(order) > 0
	if !explicit {
		for _, name := range llm.FallbackOrder {
			if llm.RequiresAPIKey(name) {
				order = append(order, name)
			}
		}
	}
	if preferred == "" {
		return order
	}
	out := []string{preferred}
	for _, p := range order {
		if p != preferred {
			out = append(out, p)
		}
	}
	return out
}

// buildExtractorChain creates the model fallback chain. Providers without
// an API key are skipped. It returns nil when nothing could be created, in
// which case pages go straight to selector extraction.
func buildExtractorChain(preferred, modelOverride string, base extractor.LLMConfig) *extractor.FallbackExtractor {
	providerConfigs := make(map[string]ProviderConfig)
	_ = viper.UnmarshalKey("providers", &providerConfigs)

	var chain []extractor.Extractor
	var added []string
	for _, name := range fallbackOrder(preferred) {
		if slices.Contains(added, name) {
			continue
		}
		if !llm.IsRegistered(name) {
			logger.Debug("unknown provider in fallback_order", "provider", name)
			continue
		}

		cfg := base
		cfg.APIKey = viper.GetString(name + "_api_key")
		if pc, ok := providerConfigs[name]; ok {
			if pc.Model != "" {
				cfg.Model = pc.Model
			}
			if pc.Temperature > 0 {
				cfg.Temperature = pc.Temperature
			}
			if pc.MaxTokens > 0 {
				cfg.MaxTokens = pc.MaxTokens
			}
			if pc.BaseURL != "" {
				cfg.BaseURL = pc.BaseURL
			}
		}
		if name == preferred && modelOverride != "" {
			cfg.Model = modelOverride
		}

		ext, err := extractor.NewForProvider(name, &cfg)
		if err != nil {
			logger.Debug("provider skipped", "provider", name, "error", err)
			continue
		}
		added = append(added, name)
		chain = append(chain, ext)
		logger.Debug("added extractor to chain", "provider", name, "model", cfg.Model)
	}

	if len(chain) == 0 {
		return nil
	}
	return extractor.NewFallback(chain...)
}

// usageLogger logs every model call at debug level.
func usageLogger() llm.Observer {
	return llm.ObserverFunc(func(_ context.Context, ev llm.CallEvent) {
		if ev.Err != nil {
			logger.Debug("model call failed",
				"provider", ev.Provider,
				"attempt", ev.Attempt,
				"duration", ev.Duration,
				"error", ev.Err)
			return
		}
		logger.Debug("model call",
			"provider", ev.Provider,
			"model", ev.Model,
			"input", humanize.Bytes(uint64(ev.InputChars)),
			"tokens", fmt.Sprintf("%s in / %s out", humanize.Comma(int64(ev.Usage.InputTokens)), humanize.Comma(int64(ev.Usage.OutputTokens))),
			"duration", ev.Duration)
	})
}
