package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
)

func TestNewWithEnvironment(t *testing.T) {
	type Config struct {
		Log    config.Log
		Auth   config.Auth
		Orders config.Orders
		Sheets config.Sheets
	}

	t.Run("Should apply defaults", func(t *testing.T) {
		cfg, err := config.NewWithEnvironment[Config](map[string]string{})
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
		assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
		assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
		assert.Equal(t, 10, cfg.Auth.BcryptCost.Int())
		assert.Equal(t, 72*time.Hour, cfg.Orders.DuplicateWindow)
		assert.Empty(t, cfg.Sheets.Sources)
	})

	t.Run("Should parse overrides", func(t *testing.T) {
		cfg, err := config.NewWithEnvironment[Config](map[string]string{
			"LOG_FORMAT":              "text",
			"LOG_LEVEL":               "DEBUG",
			"ORDERS_DUPLICATE_WINDOW": "24h",
			"SHEETS_SOURCES":          "abc:0,def:123",
		})
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatText, cfg.Log.Format)
		assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
		assert.Equal(t, 24*time.Hour, cfg.Orders.DuplicateWindow)
		assert.Equal(t, []string{"abc:0", "def:123"}, cfg.Sheets.Sources)
	})

	t.Run("Should reject unknown log format", func(t *testing.T) {
		_, err := config.NewWithEnvironment[Config](map[string]string{"LOG_FORMAT": "xml"})
		assert.Error(t, err)
	})

	t.Run("Should validate the bcrypt cost", func(t *testing.T) {
		cfg, err := config.NewWithEnvironment[Config](map[string]string{"AUTH_BCRYPT_COST": "12"})
		require.NoError(t, err)
		assert.Equal(t, 12, cfg.Auth.BcryptCost.Int())

		for _, cost := range []string{"3", "32", "high"} {
			_, err := config.NewWithEnvironment[Config](map[string]string{"AUTH_BCRYPT_COST": cost})
			assert.Error(t, err, cost)
		}
	})

	t.Run("Should require postgres settings", func(t *testing.T) {
		_, err := config.NewWithEnvironment[struct{ Postgres config.Postgres }](map[string]string{})
		assert.Error(t, err)
	})
}
