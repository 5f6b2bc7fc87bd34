package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

// TwoCaptchaURL is the 2Captcha API root.
const TwoCaptchaURL = "https://2captcha.com"

// TwoCaptcha submits challenges to the 2Captcha worker service and polls
// for the answer.
type TwoCaptcha struct {
	apiKey       string
	client       *resty.Client
	PollInterval time.Duration
	Timeout      time.Duration
}

type twoCaptchaResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// NewTwoCaptcha creates a client. It is unavailable without an API key.
func NewTwoCaptcha(apiKey string, timeout time.Duration) *TwoCaptcha {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	client := resty.New().
		SetBaseURL(TwoCaptchaURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	return &TwoCaptcha{
		apiKey:       apiKey,
		client:       client,
		PollInterval: 5 * time.Second,
		Timeout:      timeout,
	}
}

// SetBaseURL points the client at another endpoint.
func (t *TwoCaptcha) SetBaseURL(u string) *TwoCaptcha {
	t.client.SetBaseURL(u)
	return t
}

func (t *TwoCaptcha) Name() string    { return "2captcha" }
func (t *TwoCaptcha) Available() bool { return t.apiKey != "" }

func (t *TwoCaptcha) Budget() time.Duration { return t.Timeout }

func (t *TwoCaptcha) Supports(kind Kind) bool {
	return kind == KindRecaptcha || kind == KindFuncaptcha
}

// Solve submits the challenge and waits for a worker's token.
func (t *TwoCaptcha) Solve(ctx context.Context, ch Challenge) (Solution, error) {
	if !t.Available() {
		return Solution{}, ErrUnavailable
	}
	if !t.Supports(ch.Kind) || ch.SiteKey == "" {
		return Solution{}, fmt.Errorf("2captcha: %w", ErrUnsupported)
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	id, err := t.submit(ctx, ch)
	if err != nil {
		return Solution{}, t.wrap(ctx, err)
	}
	logger.Debug("2captcha task submitted", "id", id, "kind", ch.Kind)

	ticker := time.NewTicker(t.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return Solution{}, t.wrap(ctx, ctx.Err())
		case <-ticker.C:
		}

		token, ready, err := t.poll(ctx, id)
		if err != nil {
			return Solution{}, t.wrap(ctx, err)
		}
		if ready {
			return Solution{Solver: t.Name(), Token: token}, nil
		}
	}
}

func (t *TwoCaptcha) submit(ctx context.Context, ch Challenge) (string, error) {
	params := map[string]string{
		"key":     t.apiKey,
		"pageurl": ch.PageURL,
		"json":    "1",
	}
	switch ch.Kind {
	case KindFuncaptcha:
		params["method"] = "funcaptcha"
		params["publickey"] = ch.SiteKey
	default:
		params["method"] = "userrecaptcha"
		params["googlekey"] = ch.SiteKey
	}

	var out twoCaptchaResponse
	res, err := t.client.R().
		SetContext(ctx).
		SetFormData(params).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/in.php")
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("submit: HTTP %d", res.StatusCode())
	}
	if out.Status != 1 {
		return "", fmt.Errorf("submit rejected: %s", out.Request)
	}
	return out.Request, nil
}

func (t *TwoCaptcha) poll(ctx context.Context, id string) (token string, ready bool, err error) {
	var out twoCaptchaResponse
	res, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":    t.apiKey,
			"action": "get",
			"id":     id,
			"json":   "1",
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Get("/res.php")
	if err != nil {
		return "", false, fmt.Errorf("poll: %w", err)
	}
	if res.IsError() {
		return "", false, fmt.Errorf("poll: HTTP %d", res.StatusCode())
	}
	switch {
	case out.Status == 1:
		return out.Request, true, nil
	case out.Request == "CAPCHA_NOT_READY":
		return "", false, nil
	default:
		return "", false, fmt.Errorf("task failed: %s", out.Request)
	}
}

func (t *TwoCaptcha) wrap(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded || strings.Contains(err.Error(), "deadline exceeded") {
		return fmt.Errorf("2captcha: %w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("2captcha: %w", err)
}
