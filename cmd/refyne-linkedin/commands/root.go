// Package commands implements the CLI commands for refyne-linkedin.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/internal/output"
)

// errReported is returned by commands that already printed their result
// and only need a non-zero exit status.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "refyne-linkedin",
	Short: "Authenticated LinkedIn profile extraction",
	Long: `refyne-linkedin signs in to LinkedIn with a real browser, keeps the
session on disk and extracts structured profile records using an LLM.

stdout carries exactly one JSON document; logs go to stderr.

Examples:
  # Sign in once (opens a visible browser for verification challenges)
  refyne-linkedin login-only

  # Scrape profiles
  refyne-linkedin scrape https://www.linkedin.com/in/someone/

  # Read URLs from a file, one per line
  refyne-linkedin scrape < urls.txt`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.refyne-linkedin.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	// .env is optional; variables already set win
	_ = godotenv.Load()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".refyne-linkedin")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REFYNE_LINKEDIN")
	viper.AutomaticEnv()

	// Unprefixed variables the tool has always read
	_ = viper.BindEnv("email", "REFYNE_LINKEDIN_EMAIL", "LINKEDIN_EMAIL")
	_ = viper.BindEnv("password", "REFYNE_LINKEDIN_PASSWORD", "LINKEDIN_PASSWORD")
	_ = viper.BindEnv("headless", "REFYNE_LINKEDIN_HEADLESS", "HEADLESS")
	_ = viper.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	_ = viper.BindEnv("twocaptcha_api_key", "TWOCAPTCHA_API_KEY")
	_ = viper.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("openai_api_key", "OPENAI_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	logger.Init(logger.Options{
		Debug:  viper.GetBool("debug"),
		Quiet:  viper.GetBool("quiet"),
		JSON:   viper.GetBool("log_json"),
		Output: os.Stderr,
	})
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("config loaded", "file", f)
	}
}

// Execute runs the root command. Failures are printed to stdout as
// {"error": "..."} before being returned.
func Execute() error {
	return execute(rootCmd, os.Stdout)
}

func execute(cmd *cobra.Command, stdout io.Writer) error {
	err := cmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		logger.Error("command failed", "error", err)
		_ = output.PrintError(stdout, err)
	}
	return err
}

// logInfo prints a human hint to stderr unless quiet mode is on.
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
