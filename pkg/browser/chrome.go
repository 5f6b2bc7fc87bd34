package browser

import (
	"os"
	"os/exec"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

// chromeBinaryNames are tried in order: PATH names first, then install
// locations per OS.
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindChromePath returns the Chrome or Chromium executable, or "" when
// none is installed. CHROME_PATH wins when it names an executable.
func FindChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		if path, err := exec.LookPath(p); err == nil {
			return path
		}
		logger.Warn("CHROME_PATH is not executable, searching", "path", p)
	}
	for _, name := range chromeBinaryNames {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}
	return ""
}
