package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/refyne-linkedin/pkg/auth"
	"github.com/jmylchreest/refyne-linkedin/pkg/auth/solver"
	"github.com/jmylchreest/refyne-linkedin/pkg/browser"
	"github.com/jmylchreest/refyne-linkedin/pkg/session"
)

// addSessionFlags registers the browser and login flags shared by scrape
// and login-only.
func addSessionFlags(cmd *cobra.Command, headless bool, policy auth.Policy) {
	flags := cmd.Flags()
	flags.Bool("headless", headless, "run the browser without a window")
	flags.String("cookies", "", "session cookie file (default ./"+session.DefaultFileName+")")
	flags.String("auth-policy", string(policy), "login success policy: strict, lenient")
	flags.String("challenge-strategy", string(auth.StrategyRace), "challenge solving: race, sequential")
	flags.Duration("challenge-timeout", 2*time.Minute, "how long to wait for a challenge to be completed by hand")
	flags.String("chrome-path", "", "Chrome executable (default: auto-detect, or CHROME_PATH)")
}

// setting returns the flag value when it was given on the command line,
// else the config or environment value, else the flag default.
func setting(cmd *cobra.Command, flag, key string) string {
	f := cmd.Flags().Lookup(flag)
	if f != nil && f.Changed {
		return f.Value.String()
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	if f != nil {
		return f.DefValue
	}
	return ""
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	f := cmd.Flags().Lookup(flag)
	if f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	v, _ := cmd.Flags().GetBool(flag)
	return v
}

func sessionStore(cmd *cobra.Command) *session.Store {
	return session.NewStore(setting(cmd, "cookies", "cookies"))
}

func browserConfig(cmd *cobra.Command) browser.Config {
	cfg := browser.DefaultConfig()
	cfg.Headless = boolSetting(cmd, "headless", "headless")
	cfg.ChromePath = setting(cmd, "chrome-path", "chrome_path")
	cfg.Debug = viper.GetBool("debug")
	return cfg
}

// newAuthManager builds a login manager with every configured solver. It
// returns nil when no credentials are configured.
func newAuthManager(cmd *cobra.Command, store *session.Store) (*auth.Manager, error) {
	policy, err := auth.ParsePolicy(setting(cmd, "auth-policy", "auth_policy"))
	if err != nil {
		return nil, err
	}
	strategy, err := auth.ParseStrategy(setting(cmd, "challenge-strategy", "challenge_strategy"))
	if err != nil {
		return nil, err
	}
	manualTimeout, _ := cmd.Flags().GetDuration("challenge-timeout")

	cfg := auth.Config{
		Email:             viper.GetString("email"),
		Password:          viper.GetString("password"),
		Policy:            policy,
		ChallengeStrategy: strategy,
		ManualTimeout:     manualTimeout,
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, nil
	}
	cfg = cfg.WithDefaults()

	solvers := []solver.Solver{
		solver.NewGemini(viper.GetString("gemini_api_key"), viper.GetString("providers.gemini.vision_model"), cfg.AutoSolveTimeout),
		solver.NewTwoCaptcha(viper.GetString("twocaptcha_api_key"), cfg.AutoSolveTimeout),
		solver.NewManual(cfg.ManualPollInterval, cfg.ManualTimeout),
	}
	return auth.NewManager(cfg, store, solvers...), nil
}
