package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
	"github.com/jmylchreest/refyne-linkedin/pkg/scraper"
)

// collectURLs gathers target URLs from args, else the input file, else
// stdin when it is not a terminal. Entries that are not LinkedIn URLs are
// dropped with a warning.
func collectURLs(args []string, inputPath string, stdin io.Reader) ([]string, error) {
	raw := args
	switch {
	case len(raw) > 0:
	case inputPath != "":
		f, err := os.Open(inputPath) //#nosec G304 -- CLI tool reads a user-specified file
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		if raw, err = parseURLList(f); err != nil {
			return nil, err
		}
	case stdin != nil && !isTerminal(stdin):
		var err error
		if raw, err = parseURLList(stdin); err != nil {
			return nil, err
		}
	}

	kept, dropped := scraper.FilterURLs(raw)
	for _, u := range dropped {
		logger.Warn("skipping non-LinkedIn URL", "url", u)
	}
	return kept, nil
}

// testModeProfiles is how many profiles --test scrapes.
const testModeProfiles = 5

// limitURLs keeps the first limit URLs. With test set the limit is
// testModeProfiles, or limit when that is lower. Zero or less means no limit.
func limitURLs(urls []string, limit int, test bool) []string {
	if test && (limit <= 0 || limit > testModeProfiles) {
		limit = testModeProfiles
	}
	if limit <= 0 || len(urls) <= limit {
		return urls
	}
	return urls[:limit]
}

// parseURLList reads one URL per line. Blank lines and lines starting with
// # are skipped.
func parseURLList(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return urls, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return true
	}
	return info.Mode()&os.ModeCharDevice != 0
}
