package lux

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerDefaultSilent(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() must never return nil")
	}
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Fatal("default logger should discard everything")
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("render complete", slog.Int("passes", 3))
	if !strings.Contains(buf.String(), "render complete") {
		t.Fatalf("log output missing message: %q", buf.String())
	}

	// nil restores the silent default.
	SetLogger(nil)
	buf.Reset()
	Logger().Error("should vanish")
	if buf.Len() != 0 {
		t.Fatalf("silent logger produced output: %q", buf.String())
	}
}
