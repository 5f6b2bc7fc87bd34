package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/refyne-linkedin/internal/output"
	"github.com/jmylchreest/refyne-linkedin/internal/version"
	"github.com/jmylchreest/refyne-linkedin/pkg/browser"
	"github.com/jmylchreest/refyne-linkedin/pkg/health"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report whether the scraper can run",
	Long: `Print a JSON report: Chrome location, saved session, configured model
providers and, with --network, whether the site answers.

Exits 1 when the engine is not available.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().Bool("network", false, "probe the site over HTTP")
	healthCmd.Flags().Duration("timeout", 10*time.Second, "network probe timeout")
	healthCmd.Flags().String("cookies", "", "session cookie file to inspect")
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	network, _ := cmd.Flags().GetBool("network")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	report := health.Check(ctx, health.Options{
		CookiesPath: setting(cmd, "cookies", "cookies"),
		Network:     network,
		SiteURL:     browser.SiteRoot,
		UserAgent:   browser.RandomUserAgent() + " " + version.UserAgentTag(),
		Timeout:     timeout,
	})

	if err := output.Print(cmd.OutOrStdout(), output.FormatJSON, report); err != nil {
		return err
	}
	if !report.Available {
		return errReported
	}
	return nil
}
