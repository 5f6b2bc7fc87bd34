package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

var unsafeLabel = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// DebugScreenshot saves a PNG of page to the temp dir when the controller
// runs in debug mode. It returns the file path, or "".
func DebugScreenshot(ctx context.Context, p *Page, label string) string {
	if p == nil || !p.ctrl.cfg.Debug {
		return ""
	}
	shot := p.Screenshot(ctx, "")
	if shot == nil {
		return ""
	}
	path := filepath.Join(os.TempDir(), screenshotName(label, time.Now()))
	if err := os.WriteFile(path, shot, 0o600); err != nil {
		logger.Debug("failed to save debug screenshot", "error", err)
		return ""
	}
	logger.Debug("debug screenshot saved", "path", path)
	return path
}

func screenshotName(label string, at time.Time) string {
	label = unsafeLabel.ReplaceAllString(label, "-")
	if label == "" {
		label = "page"
	}
	return fmt.Sprintf("refyne-linkedin-%s-%d.png", label, at.UnixNano())
}

// DebugScreenshot is DebugScreenshot for p.
func (p *Page) DebugScreenshot(ctx context.Context, label string) string {
	return DebugScreenshot(ctx, p, label)
}
