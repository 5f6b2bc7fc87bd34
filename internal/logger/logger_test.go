package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetLogger() {
	Init(Options{})
}

// --- Level Tests ---

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		logged    []string
		notLogged []string
	}{
		{
			name:      "default is info",
			opts:      Options{},
			logged:    []string{"info-msg", "warn-msg", "error-msg"},
			notLogged: []string{"debug-msg"},
		},
		{
			name:   "debug enables everything",
			opts:   Options{Debug: true},
			logged: []string{"debug-msg", "info-msg", "warn-msg", "error-msg"},
		},
		{
			name:      "quiet keeps only errors",
			opts:      Options{Quiet: true},
			logged:    []string{"error-msg"},
			notLogged: []string{"debug-msg", "info-msg", "warn-msg"},
		},
		{
			name:      "quiet wins over debug",
			opts:      Options{Debug: true, Quiet: true},
			logged:    []string{"error-msg"},
			notLogged: []string{"debug-msg", "info-msg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			opts := tt.opts
			opts.Output = buf
			Init(opts)
			defer resetLogger()

			Debug("debug-msg")
			Info("info-msg")
			Warn("warn-msg")
			Error("error-msg")

			out := buf.String()
			for _, m := range tt.logged {
				if !strings.Contains(out, m) {
					t.Errorf("expected %q in output", m)
				}
			}
			for _, m := range tt.notLogged {
				if strings.Contains(out, m) {
					t.Errorf("did not expect %q in output", m)
				}
			}
		})
	}
}

// --- Format Tests ---

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("scrape started", "urls", 3)

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON object, got %q", out)
	}
	if !strings.Contains(out, `"urls":3`) {
		t.Errorf("expected structured attribute, got %q", out)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	Init(Options{Logger: custom, Quiet: true})
	defer resetLogger()

	// Quiet is ignored when a logger is supplied
	Info("from custom")
	if !strings.Contains(buf.String(), "from custom") {
		t.Error("custom logger should receive output")
	}
}

func TestSetLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(slog.New(slog.NewTextHandler(buf, nil)))
	defer resetLogger()

	Warn("set logger works")
	if !strings.Contains(buf.String(), "set logger works") {
		t.Error("SetLogger should replace the package logger")
	}
}

// --- With / Context Tests ---

func TestWith_CarriesAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	With("run_id", "abc123").Info("page scraped")

	out := buf.String()
	if !strings.Contains(out, "run_id") || !strings.Contains(out, "abc123") {
		t.Errorf("expected run_id attribute, got %q", out)
	}
}

func TestContextVariants(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := context.Background()
	DebugContext(ctx, "ctx-debug")
	InfoContext(ctx, "ctx-info")
	WarnContext(ctx, "ctx-warn")
	ErrorContext(ctx, "ctx-error")

	for _, m := range []string{"ctx-debug", "ctx-info", "ctx-warn", "ctx-error"} {
		if !strings.Contains(buf.String(), m) {
			t.Errorf("expected %q in output", m)
		}
	}
}

func TestEnabled(t *testing.T) {
	Init(Options{Output: &bytes.Buffer{}})
	defer resetLogger()

	if Enabled(slog.LevelDebug) {
		t.Error("debug should be disabled at info level")
	}

	Init(Options{Debug: true, Output: &bytes.Buffer{}})
	if !Enabled(slog.LevelDebug) {
		t.Error("debug should be enabled in debug mode")
	}
}
