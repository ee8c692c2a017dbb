package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/marine-pollution-reports/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level   string
		enabled slog.Level
		dropped slog.Level
	}{
		{level: "debug", enabled: slog.LevelDebug},
		{level: "info", enabled: slog.LevelInfo, dropped: slog.LevelDebug},
		{level: "WARN", enabled: slog.LevelWarn, dropped: slog.LevelInfo},
		{level: "error", enabled: slog.LevelError, dropped: slog.LevelWarn},
		{level: "verbose", enabled: slog.LevelInfo, dropped: slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})
			ctx := context.Background()

			assert.True(t, logger.Enabled(ctx, tt.enabled))
			if tt.level != "debug" {
				assert.False(t, logger.Enabled(ctx, tt.dropped))
			}
		})
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "text"})
	assert.Same(t, logger, slog.Default())
}
