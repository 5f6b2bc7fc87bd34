package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/internal/output"
	"github.com/jmylchreest/refyne-linkedin/pkg/auth"
	"github.com/jmylchreest/refyne-linkedin/pkg/browser"
)

// loginResult is printed on a successful login-only run.
type loginResult struct {
	Success     bool   `json:"success"`
	CookiesFile string `json:"cookies_file"`
	Cookies     int    `json:"cookies"`
	Trace       string `json:"trace"`
	Challenge   string `json:"challenge,omitempty"`
	Solver      string `json:"solver,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

var loginCmd = &cobra.Command{
	Use:   "login-only",
	Short: "Sign in and save the session",
	Long: `Sign in with LINKEDIN_EMAIL and LINKEDIN_PASSWORD and save the session
cookies for later scrape runs.

The browser window is visible by default so verification challenges can be
completed by hand. Automatic solvers (Gemini vision, 2Captcha) race the
manual path when their API keys are set.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().Duration("timeout", 5*time.Minute, "overall login timeout (0=none)")
	addSessionFlags(loginCmd, false, auth.PolicyLenientURL)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, d)
		defer stop()
	}

	store := sessionStore(cmd)
	mgr, err := newAuthManager(cmd, store)
	if err != nil {
		return err
	}
	if mgr == nil {
		return auth.ErrNoCredentials
	}

	bcfg := browserConfig(cmd)
	ctrl := browser.New(bcfg)
	if err := ctrl.Init(ctx); err != nil {
		return err
	}
	defer func() { _ = ctrl.Close() }()

	page, err := ctrl.NewPage(ctx)
	if err != nil {
		return err
	}
	defer page.Close()

	if !bcfg.Headless {
		logInfo("A browser window is open. Complete any verification there if asked.")
	}

	attempt, err := mgr.Login(ctx, page)
	if err != nil {
		if bcfg.Debug {
			page.DebugScreenshot(ctx, "login-failed")
		}
		return err
	}

	n := len(store.Load())
	logger.Info("session saved", "path", store.Path(), "cookies", n)

	return output.Print(cmd.OutOrStdout(), output.FormatJSON, loginResult{
		Success:     true,
		CookiesFile: store.Path(),
		Cookies:     n,
		Trace:       attempt.String(),
		Challenge:   attempt.Challenge,
		Solver:      attempt.Solver,
		DurationMs:  time.Since(attempt.Started).Milliseconds(),
	})
}
