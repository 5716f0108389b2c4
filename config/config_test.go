package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/freebies")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5200", cfg.Server.Port)
	assert.Equal(t, LedgerDriverPostgres, cfg.Ledger.Driver)
	assert.Equal(t, "freebies", cfg.Ledger.DBName)
	assert.Equal(t, 24*time.Hour, cfg.Digest.Interval)
	assert.Equal(t, []string{"epic", "gog", "steam"}, cfg.Digest.Stores)
	assert.Equal(t, 100, cfg.Digest.SteamMinDiscount)
	assert.Equal(t, 8, cfg.Digest.FanoutLimit)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LEDGER_DRIVER", "Mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("STORES", " Epic , ,steam")
	t.Setenv("STEAM_MIN_DISCOUNT", "75")
	t.Setenv("DIGEST_INTERVAL", "6h")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "id")
	t.Setenv("R2_ACCESS_KEY_SECRET", "secret")
	t.Setenv("R2_BUCKET_NAME", "digests")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, LedgerDriverMongo, cfg.Ledger.Driver)
	assert.Equal(t, []string{"epic", "steam"}, cfg.Digest.Stores)
	assert.Equal(t, 75, cfg.Digest.SteamMinDiscount)
	assert.Equal(t, 6*time.Hour, cfg.Digest.Interval)
	assert.Equal(t, "https://bot.example.com", cfg.Telegram.WebhookURL)
	assert.True(t, cfg.R2.Enabled())
}

func TestLoadFallsBackToTelegramBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "456:def")
	t.Setenv("DATABASE_URL", "postgres://localhost/freebies")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "456:def", cfg.Telegram.BotToken)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing token":        {"BOT_TOKEN": "", "TELEGRAM_BOT_TOKEN": ""},
		"missing database url": {"DATABASE_URL": ""},
		"missing mongo uri":    {"LEDGER_DRIVER": "mongo", "MONGODB_URI": ""},
		"unknown driver":       {"LEDGER_DRIVER": "redis"},
		"bad interval":         {"DIGEST_INTERVAL": "daily"},
		"bad steam discount":   {"STEAM_MIN_DISCOUNT": "150"},
		"bad fanout":           {"DIGEST_FANOUT_LIMIT": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
