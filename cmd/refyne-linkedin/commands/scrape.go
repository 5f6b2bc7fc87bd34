package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/internal/output"
	"github.com/jmylchreest/refyne-linkedin/pkg/auth"
	"github.com/jmylchreest/refyne-linkedin/pkg/browser"
	"github.com/jmylchreest/refyne-linkedin/pkg/cleaner"
	"github.com/jmylchreest/refyne-linkedin/pkg/extractor"
	"github.com/jmylchreest/refyne-linkedin/pkg/scraper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [url...]",
	Short: "Extract profile records from LinkedIn URLs",
	Long: `Scrape LinkedIn profiles with the saved session and print one JSON
array with a record per URL, in input order.

URLs come from the arguments, else from --input, else from stdin (one per
line; blank lines and # comments are skipped). Run login-only first.

Examples:
  refyne-linkedin scrape https://www.linkedin.com/in/someone/

  # Try the first 5 URLs of a list
  refyne-linkedin scrape --test -i urls.txt

  # Two tabs at a time, no contact info overlay
  refyne-linkedin scrape -c 2 --no-contact-info < urls.txt

  # Use a specific model
  refyne-linkedin scrape -p anthropic -m claude-sonnet-4-20250514 https://www.linkedin.com/in/someone/`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()

	flags.StringP("input", "i", "", "file with one URL per line")
	flags.IntP("max-profiles", "n", 0, "scrape at most this many URLs (0=all)")
	flags.Bool("test", false, "test mode: scrape only the first 5 URLs")

	// LLM settings
	flags.StringP("provider", "p", "", "LLM provider: gemini, anthropic, openai, ollama (default: first with an API key)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.String("max-content-size", "100KB", "max page content sent to the model (e.g. 50KB, 0=unlimited)")
	flags.Int("max-retries", 3, "max model retries on rate limits")
	flags.Bool("no-cleanse", false, "send page HTML instead of the projected text (debugging)")

	// Batch settings
	flags.IntP("concurrency", "c", 0, "profiles scraped at once (default: min(3, number of URLs))")
	flags.Bool("sequential", false, "scrape one profile at a time")
	flags.Duration("delay-min", scraper.DefaultDelayMin, "minimum delay between profiles or batches")
	flags.Duration("delay-max", scraper.DefaultDelayMax, "maximum delay between profiles or batches")
	flags.Duration("content-timeout", scraper.DefaultContentTimeout, "wait for profile content to render")
	flags.Bool("no-contact-info", false, "skip the contact info overlay")

	// Output settings
	flags.String("format", "json", "output format: json, yaml")

	addSessionFlags(scrapeCmd, true, auth.PolicyStrict)

	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	inputPath, _ := cmd.Flags().GetString("input")
	urls, err := collectURLs(args, inputPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return scraper.ErrNoURLs
	}
	maxProfiles, _ := cmd.Flags().GetInt("max-profiles")
	testMode, _ := cmd.Flags().GetBool("test")
	if limited := limitURLs(urls, maxProfiles, testMode); len(limited) < len(urls) {
		logger.Info("limiting profiles", "limit", len(limited), "of", len(urls), "test", testMode)
		urls = limited
	}
	logger.Debug("URLs to process", "count", len(urls))

	format, err := output.ParseFormat(setting(cmd, "format", "format"))
	if err != nil {
		return err
	}

	opts, err := scrapeOptions(cmd)
	if err != nil {
		return err
	}

	store := sessionStore(cmd)
	opts = append(opts, scraper.WithSessionStore(store))

	authMgr, err := newAuthManager(cmd, store)
	if err != nil {
		return err
	}
	if authMgr != nil {
		opts = append(opts, scraper.WithAuthenticator(authMgr))
	} else {
		logger.Debug("no credentials configured, inline re-login disabled")
	}

	bcfg := browserConfig(cmd)
	opts = append(opts, scraper.WithBrowser(scraper.FromController(browser.New(bcfg))))

	logger.Info("starting scrape", "urls", len(urls), "headless", bcfg.Headless, "session", store.Path())

	records, err := scraper.New(opts...).Run(ctx, urls)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range records {
		if r.Error != "" {
			failed++
		}
	}
	logger.Info("scrape complete", "records", len(records), "with_errors", failed)

	return output.Print(cmd.OutOrStdout(), format, records)
}

// scrapeOptions turns the batch and model flags into orchestrator options.
func scrapeOptions(cmd *cobra.Command) ([]scraper.Option, error) {
	flags := cmd.Flags()

	maxContentSize, err := parseContentSize(setting(cmd, "max-content-size", "max_content_size"))
	if err != nil {
		return nil, err
	}
	maxRetries, _ := flags.GetInt("max-retries")
	llmCfg := extractor.DefaultLLMConfig()
	llmCfg.MaxRetries = maxRetries
	llmCfg.MaxContentSize = maxContentSize
	llmCfg.Observer = usageLogger()

	delayMin, _ := flags.GetDuration("delay-min")
	delayMax, _ := flags.GetDuration("delay-max")
	if delayMax < delayMin {
		return nil, fmt.Errorf("--delay-max (%s) is below --delay-min (%s)", delayMax, delayMin)
	}
	contentTimeout, _ := flags.GetDuration("content-timeout")
	noContact, _ := flags.GetBool("no-contact-info")

	opts := []scraper.Option{
		scraper.WithDelay(delayMin, delayMax),
		scraper.WithContentTimeout(contentTimeout),
		scraper.WithContactInfo(!noContact),
		scraper.WithConcurrency(viper.GetInt("concurrency")),
	}
	if noCleanse, _ := flags.GetBool("no-cleanse"); noCleanse {
		opts = append(opts, scraper.WithCleaner(cleaner.NewRaw(0)))
		logger.Debug("content projection disabled")
	}
	if sequential, _ := flags.GetBool("sequential"); sequential {
		opts = append(opts, scraper.WithStrategy(scraper.StrategySequential))
	}

	if ext := buildExtractorChain(viper.GetString("provider"), viper.GetString("model"), llmCfg); ext != nil {
		logger.Debug("extractor chain built", "chain", ext.Name())
		opts = append(opts, scraper.WithExtractor(ext))
	} else {
		logger.Warn("no LLM provider configured, using selector extraction only")
	}
	return opts, nil
}

// parseContentSize parses a human byte size. Empty or "0" means unlimited.
func parseContentSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max-content-size %q: %w", s, err)
	}
	return int(n), nil
}
