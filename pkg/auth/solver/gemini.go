package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/extractor"
	"github.com/jmylchreest/refyne-linkedin/pkg/llm"
)

const visionPrompt = `The screenshot shows a CAPTCHA challenge on a login page.
Site key: %s
Page: %s

Solve the challenge. Respond with ONLY a JSON object of the form {"token": "<response token>"}.
If you cannot produce a valid response token, respond with {"token": ""}.`

var tokenSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"token": map[string]any{"type": "string"},
	},
	"required":             []string{"token"},
	"additionalProperties": false,
}

// Vision sends a screenshot of the challenge to a vision model.
type Vision struct {
	provider llm.Provider
	Timeout  time.Duration
}

// NewVision wraps a vision-capable provider. A nil provider makes the
// solver unavailable.
func NewVision(provider llm.Provider, timeout time.Duration) *Vision {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Vision{provider: provider, Timeout: timeout}
}

// NewGemini creates a Vision solver on Gemini. It is unavailable without
// an API key.
func NewGemini(apiKey, model string, timeout time.Duration) *Vision {
	if apiKey == "" {
		return NewVision(nil, timeout)
	}
	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.Model = model
	p, err := llm.NewGeminiProvider(cfg)
	if err != nil {
		logger.Debug("gemini solver disabled", "error", err)
		return NewVision(nil, timeout)
	}
	return NewVision(p, timeout)
}

func (v *Vision) Name() string {
	if v.provider == nil {
		return "vision"
	}
	return v.provider.Name()
}

func (v *Vision) Available() bool { return v.provider != nil }

func (v *Vision) Budget() time.Duration { return v.Timeout }

func (v *Vision) Supports(kind Kind) bool {
	return kind == KindRecaptcha || kind == KindFuncaptcha || kind == KindUnknown
}

// Solve asks the model for a response token.
func (v *Vision) Solve(ctx context.Context, ch Challenge) (Solution, error) {
	if !v.Available() {
		return Solution{}, ErrUnavailable
	}
	if !v.Supports(ch.Kind) || len(ch.Screenshot) == 0 {
		return Solution{}, fmt.Errorf("%s: %w", v.Name(), ErrUnsupported)
	}

	ctx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()

	resp, err := v.provider.Execute(ctx, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(visionPrompt, ch.SiteKey, ch.PageURL),
			Images:  []llm.Image{{MIMEType: "image/png", Data: ch.Screenshot}},
		}},
		MaxTokens:   1024,
		Temperature: 0,
		JSONSchema:  tokenSchema,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Solution{}, fmt.Errorf("%s: %w", v.Name(), ErrTimeout)
		}
		return Solution{}, fmt.Errorf("%s: %w", v.Name(), err)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(extractor.StripMarkdownCodeBlock(resp.Content)), &out); err != nil {
		return Solution{}, fmt.Errorf("%s: decode token: %w", v.Name(), err)
	}
	if out.Token == "" {
		return Solution{}, fmt.Errorf("%s: model returned no token", v.Name())
	}
	return Solution{Solver: v.Name(), Token: out.Token}, nil
}
