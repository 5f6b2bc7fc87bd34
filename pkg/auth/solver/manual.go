package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

// tokenJS reads a reCAPTCHA response a human produced in the widget.
const tokenJS = `(() => {
  const el = document.querySelector("textarea[name='g-recaptcha-response'], #g-recaptcha-response");
  return el && el.value ? el.value : "";
})()`

// pinGoneJS is true once no verification code input is left on the page.
const pinGoneJS = `document.querySelector("input[name='pin'], input[autocomplete='one-time-code']") === null`

// Manual waits for a human to complete the challenge in the visible
// browser window.
type Manual struct {
	Interval time.Duration
	Timeout  time.Duration
}

// NewManual creates a Manual solver.
func NewManual(interval, timeout time.Duration) *Manual {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Manual{Interval: interval, Timeout: timeout}
}

func (m *Manual) Name() string       { return "manual" }
func (m *Manual) Available() bool    { return true }
func (m *Manual) Supports(Kind) bool { return true }

// Budget covers the timeout plus one final poll.
func (m *Manual) Budget() time.Duration { return m.Timeout + m.Interval }

// Solve polls the page until the challenge is gone or a token appears.
func (m *Manual) Solve(ctx context.Context, ch Challenge) (Solution, error) {
	if ch.Page == nil {
		return Solution{}, fmt.Errorf("manual: %w: no page", ErrUnsupported)
	}
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	logger.Info("waiting for the challenge to be completed in the browser", "kind", ch.Kind, "timeout", m.Timeout)

	// leaving the page only counts when the challenge had a page of its own
	watchURL := onChallengeURL(ch.Page.Location(ctx))

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		if done, token := m.check(ctx, ch, watchURL); done {
			return Solution{Solver: m.Name(), Token: token, InPage: true}, nil
		}
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return Solution{}, fmt.Errorf("manual: %w after %s", ErrTimeout, m.Timeout)
			}
			return Solution{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manual) check(ctx context.Context, ch Challenge, watchURL bool) (bool, string) {
	if ch.Kind == KindPin {
		var gone bool
		if err := ch.Page.Evaluate(ctx, pinGoneJS, &gone); err == nil && gone {
			return true, ""
		}
		return false, ""
	}

	var token string
	if err := ch.Page.Evaluate(ctx, tokenJS, &token); err == nil && token != "" {
		return true, token
	}
	if !watchURL {
		return false, ""
	}
	if u := ch.Page.Location(ctx); u != "" && !onChallengeURL(u) {
		return true, ""
	}
	return false, ""
}

func onChallengeURL(u string) bool {
	return strings.Contains(u, "/checkpoint") || strings.Contains(u, "/challenge")
}
