package cli

import (
	"context"
	"log/slog"
	"testing"

	applog "fintrack/internal/log"
)

func TestSetupLoggerInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug", "text", applog.ComponentWorker)
	if logger.Component() != applog.ComponentWorker {
		t.Errorf("component = %q", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level on the default logger")
	}
}

func TestSetupLoggerUnknownLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	SetupLogger("chatty", "json", "")
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}
