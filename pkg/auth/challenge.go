package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/auth/solver"
)

var (
	// ErrNoSolver means no configured solver handles the challenge.
	ErrNoSolver = errors.New("no solver for challenge")

	// ErrChallengeUnresolved means every solver failed or timed out.
	ErrChallengeUnresolved = errors.New("challenge unresolved")

	// errSolved stops the race once a solver wins.
	errSolved = errors.New("solved")
)

var (
	pinSelectors = []string{"input[name='pin']", "input[autocomplete='one-time-code']"}

	recaptchaSelectors  = []string{"iframe[src*='recaptcha']", ".g-recaptcha", "#g-recaptcha-response"}
	funcaptchaSelectors = []string{"iframe[src*='arkoselabs']", "iframe[src*='funcaptcha']", "#FunCaptcha"}
	genericSelectors    = []string{"#captcha-internal", "#captcha-challenge", "iframe#captcha-internal"}
)

// probeJS reads the site key attribute and the src of the first challenge
// frame.
const probeJS = `(() => {
  const el = document.querySelector('[data-sitekey]');
  const frame = document.querySelector("iframe[src*='recaptcha'], iframe[src*='arkoselabs'], iframe[src*='funcaptcha']");
  return { siteKey: el ? el.getAttribute('data-sitekey') || '' : '', frame: frame ? frame.src : '' };
})()`

// isChallengeURL reports whether u is a checkpoint or challenge page.
func isChallengeURL(u string) bool {
	return strings.Contains(u, "/checkpoint/") || strings.Contains(u, "/challenge/")
}

// DetectChallenge inspects page for a challenge. The second result is false
// when there is none.
func DetectChallenge(ctx context.Context, page Page) (solver.Challenge, bool) {
	current := page.Location(ctx)
	ch := solver.Challenge{Kind: solver.KindUnknown, PageURL: current}

	widget := ""
	switch {
	case anyExists(ctx, page, pinSelectors, &widget):
		ch.Kind = solver.KindPin
	case anyExists(ctx, page, recaptchaSelectors, &widget):
		ch.Kind = solver.KindRecaptcha
	case anyExists(ctx, page, funcaptchaSelectors, &widget):
		ch.Kind = solver.KindFuncaptcha
	case anyExists(ctx, page, genericSelectors, &widget):
	case isChallengeURL(current):
	default:
		return solver.Challenge{}, false
	}

	var probe struct {
		SiteKey string `json:"siteKey"`
		Frame   string `json:"frame"`
	}
	if err := page.Evaluate(ctx, probeJS, &probe); err != nil {
		logger.Debug("challenge probe failed", "error", err)
	}
	ch.SiteKey = siteKey(probe.SiteKey, probe.Frame)
	if ch.Kind == solver.KindUnknown && ch.SiteKey != "" {
		ch.Kind = solver.KindRecaptcha
	}

	if ch.Kind != solver.KindPin {
		if widget != "" && strings.HasPrefix(widget, "iframe") {
			ch.Screenshot = page.Screenshot(ctx, widget)
		}
		if ch.Screenshot == nil {
			ch.Screenshot = page.Screenshot(ctx, "")
		}
	}

	logger.Info("challenge detected", "kind", ch.Kind, "url", current, "site_key", ch.SiteKey != "")
	return ch, true
}

func anyExists(ctx context.Context, page Page, sels []string, found *string) bool {
	for _, sel := range sels {
		if page.Exists(ctx, sel) {
			*found = sel
			return true
		}
	}
	return false
}

// siteKey prefers the data-sitekey attribute, then the k or pk parameter
// of the challenge frame URL.
func siteKey(attr, frameSrc string) string {
	if attr = strings.TrimSpace(attr); attr != "" {
		return attr
	}
	if frameSrc == "" {
		return ""
	}
	u, err := url.Parse(frameSrc)
	if err != nil {
		return ""
	}
	q := u.Query()
	if k := q.Get("k"); k != "" {
		return k
	}
	return q.Get("pk")
}

// ResolveChallenge runs the solvers that can handle ch. With StrategyRace
// they run at once and the first solution cancels the rest; with
// StrategySequential they run in order until one succeeds.
func ResolveChallenge(ctx context.Context, ch solver.Challenge, solvers []solver.Solver, strategy Strategy) (solver.Solution, error) {
	usable := usableSolvers(solvers, ch.Kind)
	if len(usable) == 0 {
		return solver.Solution{}, fmt.Errorf("%w: %s", ErrNoSolver, ch.Kind)
	}

	names := make([]string, len(usable))
	for i, s := range usable {
		names[i] = s.Name()
	}
	logger.Info("resolving challenge", "kind", ch.Kind, "strategy", strategy, "solvers", names)

	if strategy == StrategySequential {
		return resolveSequential(ctx, ch, usable)
	}
	return resolveRace(ctx, ch, usable)
}

func usableSolvers(solvers []solver.Solver, kind solver.Kind) []solver.Solver {
	var usable []solver.Solver
	for _, s := range solvers {
		if s != nil && s.Available() && s.Supports(kind) {
			usable = append(usable, s)
		}
	}
	return usable
}

// challengeBudget bounds a whole resolution. Racing solvers share one
// window, so the longest budget wins; sequential solvers each get their
// own, so the budgets add up. Solvers without a budget count as fallback.
func challengeBudget(solvers []solver.Solver, strategy Strategy, fallback time.Duration) time.Duration {
	var total time.Duration
	for _, s := range solvers {
		b := solver.Budget(s)
		if b <= 0 {
			b = fallback
		}
		if strategy == StrategySequential {
			total += b
		} else if b > total {
			total = b
		}
	}
	if total <= 0 {
		total = fallback
	}
	return total
}

func resolveSequential(ctx context.Context, ch solver.Challenge, solvers []solver.Solver) (solver.Solution, error) {
	var errs []error
	for _, s := range solvers {
		start := time.Now()
		sol, err := s.Solve(ctx, ch)
		if err == nil {
			logger.Info("challenge solved", "solver", s.Name(), "duration", time.Since(start))
			return sol, nil
		}
		logger.Warn("solver failed", "solver", s.Name(), "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return solver.Solution{}, fmt.Errorf("%w: %w", ErrChallengeUnresolved, errors.Join(errs...))
}

func resolveRace(ctx context.Context, ch solver.Challenge, solvers []solver.Solver) (solver.Solution, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu     sync.Mutex
		winner *solver.Solution
		errs   []error
	)
	start := time.Now()
	for _, s := range solvers {
		g.Go(func() error {
			sol, err := s.Solve(gctx, ch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if winner == nil {
					logger.Debug("solver lost", "solver", s.Name(), "error", err)
					errs = append(errs, err)
				}
				return nil
			}
			if winner != nil {
				return nil
			}
			winner = &sol
			logger.Info("challenge solved", "solver", s.Name(), "duration", time.Since(start))
			return errSolved
		})
	}

	err := g.Wait()
	if winner != nil {
		return *winner, nil
	}
	if err != nil && !errors.Is(err, errSolved) {
		errs = append(errs, err)
	}
	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	return solver.Solution{}, fmt.Errorf("%w: %w", ErrChallengeUnresolved, errors.Join(errs...))
}

// injectJS writes a token into every response field the widgets read and
// calls any registered completion callbacks. It returns how many callbacks
// ran.
const injectJS = `((token) => {
  document.querySelectorAll("textarea[name='g-recaptcha-response'], #g-recaptcha-response, input[name='fc-token'], #FunCaptcha-Token").forEach((el) => {
    el.value = token;
    el.innerHTML = token;
  });
  let called = 0;
  document.querySelectorAll('[data-callback]').forEach((el) => {
    const fn = window[el.getAttribute('data-callback')];
    if (typeof fn === 'function') { fn(token); called++; }
  });
  const cfg = window.___grecaptcha_cfg;
  const visit = (obj, depth) => {
    if (!obj || depth > 5) return;
    for (const key of Object.keys(obj)) {
      const v = obj[key];
      if (!v || typeof v !== 'object') continue;
      if (typeof v.callback === 'function') { v.callback(token); called++; }
      else visit(v, depth + 1);
    }
  };
  if (cfg && cfg.clients) visit(cfg.clients, 0);
  return called;
})(%s)`

// InjectToken puts an automated solver's token into the page.
func InjectToken(ctx context.Context, page Page, token string) error {
	var called int
	if err := page.Evaluate(ctx, fmt.Sprintf(injectJS, quoteJS(token)), &called); err != nil {
		return fmt.Errorf("inject token: %w", err)
	}
	logger.Debug("token injected", "callbacks", called)
	return nil
}
