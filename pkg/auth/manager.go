package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/auth/solver"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

// LoginURL is the sign-in form.
const LoginURL = "https://www.linkedin.com/login"

const (
	usernameSelector = "input#username"
	passwordSelector = "input#password"
	submitSelector   = "button[type='submit']"
)

var (
	// ErrNoCredentials means no email or password is configured.
	ErrNoCredentials = errors.New("linkedin credentials not configured")

	// ErrLoginFailed wraps the cause of a failed attempt.
	ErrLoginFailed = errors.New("login failed")
)

// Page is the browser tab a login runs in.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) bool
	Exists(ctx context.Context, selector string) bool
	Location(ctx context.Context) string
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Press(ctx context.Context, key string) error
	Evaluate(ctx context.Context, js string, out any) error
	Screenshot(ctx context.Context, selector string) []byte
	Cookies(ctx context.Context) ([]session.Cookie, error)
}

// SessionSaver persists the cookies of a verified login.
type SessionSaver interface {
	Save(cookies []session.Cookie) bool
}

// Config configures a Manager.
type Config struct {
	Email    string
	Password string

	Policy            Policy
	ChallengeStrategy Strategy

	ManualTimeout      time.Duration
	ManualPollInterval time.Duration
	AutoSolveTimeout   time.Duration
	VerifyTimeout      time.Duration
}

// WithDefaults fills unset fields with the default policy, strategy and timeouts.
func (c Config) WithDefaults() Config {
	if c.Policy == "" {
		c.Policy = PolicyStrict
	}
	if c.ChallengeStrategy == "" {
		c.ChallengeStrategy = StrategyRace
	}
	if c.ManualTimeout <= 0 {
		c.ManualTimeout = 2 * time.Minute
	}
	if c.ManualPollInterval <= 0 {
		c.ManualPollInterval = 3 * time.Second
	}
	if c.AutoSolveTimeout <= 0 {
		c.AutoSolveTimeout = 90 * time.Second
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = 30 * time.Second
	}
	return c
}

// Manager runs login attempts. It is the only component that creates a
// session.
type Manager struct {
	cfg     Config
	store   SessionSaver
	solvers []solver.Solver
}

// NewManager creates a Manager. Solvers are listed in priority order; the
// sequential strategy tries them in that order.
func NewManager(cfg Config, store SessionSaver, solvers ...solver.Solver) *Manager {
	return &Manager{cfg: cfg.WithDefaults(), store: store, solvers: solvers}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// Authenticate logs in on page. It satisfies the orchestrator's re-auth hook.
func (m *Manager) Authenticate(ctx context.Context, page Page) error {
	_, err := m.Login(ctx, page)
	return err
}

// Login signs in on page and saves the session on success. The returned
// Attempt is never nil.
func (m *Manager) Login(ctx context.Context, page Page) (*Attempt, error) {
	a := newAttempt()
	if m.cfg.Email == "" || m.cfg.Password == "" {
		a.Err = ErrNoCredentials
		return a, ErrNoCredentials
	}

	if err := m.login(ctx, page, a); err != nil {
		if a.State() != StateFailed {
			a.States = append(a.States, StateFailed)
		}
		a.Err = fmt.Errorf("%w: %w", ErrLoginFailed, err)
		logger.Error("login failed", "trace", a.String(), "challenge", a.Challenge, "error", err)
		return a, a.Err
	}

	logger.Info("login verified", "trace", a.String(), "duration", time.Since(a.Started))
	return a, nil
}

func (m *Manager) login(ctx context.Context, page Page, a *Attempt) error {
	logger.Info("signing in", "url", LoginURL)
	if err := page.Navigate(ctx, LoginURL); err != nil {
		logger.Warn("login page navigation", "error", err)
	}
	if !page.WaitFor(ctx, usernameSelector, 15*time.Second) {
		// already signed in, or a checkpoint straight away
		if ch, found := DetectChallenge(ctx, page); found {
			if err := m.challenge(ctx, page, a, ch); err != nil {
				return err
			}
			return m.verify(ctx, page, a)
		}
		return fmt.Errorf("login form did not render (url %s)", page.Location(ctx))
	}

	if err := page.Type(ctx, usernameSelector, m.cfg.Email); err != nil {
		return fmt.Errorf("type email: %w", err)
	}
	if err := page.Type(ctx, passwordSelector, m.cfg.Password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}

	if ch, found := DetectChallenge(ctx, page); found {
		if err := m.challenge(ctx, page, a, ch); err != nil {
			return err
		}
	}

	before := page.Location(ctx)
	if err := page.Click(ctx, submitSelector); err != nil {
		logger.Debug("submit button click failed, pressing enter", "error", err)
		if err := page.Press(ctx, "\r"); err != nil {
			return fmt.Errorf("submit login form: %w", err)
		}
	}
	if err := a.transition(StateCredentialsSubmitted); err != nil {
		return err
	}

	m.waitForNavigation(ctx, page, before)

	if ch, found := DetectChallenge(ctx, page); found {
		if err := m.challenge(ctx, page, a, ch); err != nil {
			return err
		}
		return m.verify(ctx, page, a)
	}

	if err := a.transition(StateRedirectPending); err != nil {
		return err
	}
	return m.verify(ctx, page, a)
}

// challenge moves the attempt through challenge_detected and
// challenge_resolved.
func (m *Manager) challenge(ctx context.Context, page Page, a *Attempt, ch solver.Challenge) error {
	if err := a.transition(StateChallengeDetected); err != nil {
		return err
	}
	a.Challenge = string(ch.Kind)
	ch.Page = page

	budget := challengeBudget(usableSolvers(m.solvers, ch.Kind), m.cfg.ChallengeStrategy,
		m.cfg.ManualTimeout+m.cfg.ManualPollInterval)
	sctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	sol, err := ResolveChallenge(sctx, ch, m.solvers, m.cfg.ChallengeStrategy)
	if err != nil {
		return err
	}
	a.Solver = sol.Solver

	if !sol.InPage && sol.Token != "" {
		if err := InjectToken(ctx, page, sol.Token); err != nil {
			return err
		}
		if page.Exists(ctx, submitSelector) {
			if err := page.Click(ctx, submitSelector); err != nil {
				logger.Debug("challenge submit click failed", "error", err)
			}
		}
		m.waitForNavigation(ctx, page, ch.PageURL)
	}
	return a.transition(StateChallengeResolved)
}

// waitForNavigation waits until the URL differs from before or the verify
// timeout ends.
func (m *Manager) waitForNavigation(ctx context.Context, page Page, before string) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.VerifyTimeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if u := page.Location(ctx); u != "" && u != before {
			return
		}
		select {
		case <-ctx.Done():
			logger.Debug("no navigation after submit", "url", before)
			return
		case <-ticker.C:
		}
	}
}

// verify runs the positive session check, applies the leniency policy and
// saves the cookies.
func (m *Manager) verify(ctx context.Context, page Page, a *Attempt) error {
	landed := page.Location(ctx)

	ok := session.Validate(ctx, page)
	if !ok {
		switch {
		case m.cfg.Policy == PolicyLenientURL && landed != "" && !session.IsLoginURL(landed) && !isChallengeURL(landed):
			logger.Warn("positive session check failed, accepting login by URL", "url", landed, "policy", m.cfg.Policy)
		default:
			return fmt.Errorf("session check failed after login (url %s)", page.Location(ctx))
		}
	}

	if err := a.transition(StateVerified); err != nil {
		return err
	}

	cookies, err := page.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read session cookies: %w", err)
	}
	if m.store != nil && !m.store.Save(cookies) {
		logger.Warn("verified session could not be saved", "cookies", len(cookies))
	}
	return nil
}

func quoteJS(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
