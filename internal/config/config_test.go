package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("DEVELOPER_CHAT_ID", "1001")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.BotToken)
	require.Equal(t, int64(1001), cfg.DeveloperChatID)
	require.Equal(t, "/tmp/users.db", cfg.DBPath)
	require.Equal(t, 30*time.Second, cfg.PollInterval)
	require.Equal(t, 2, cfg.FetchConcurrency)
	require.Equal(t, 90, cfg.ProviderRate)
	require.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	require.Equal(t, "https://cdn-api.co-vin.in", cfg.ProviderBaseURL)
	require.Equal(t, 5*time.Minute, cfg.RateLimitBackoff)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "Asia/Kolkata", cfg.Location().String())
	require.Equal(t, []int64{1001}, cfg.Maintainers())
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MAINTAINER_CHAT_IDS", "5,1001,6")
	t.Setenv("POLL_INTERVAL", "1m")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("PROVIDER_TZ", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, time.Minute, cfg.PollInterval)
	require.Equal(t, 8, cfg.FetchConcurrency)
	require.Equal(t, time.UTC, cfg.Location())
	require.Equal(t, []int64{1001, 5, 6}, cfg.Maintainers())
}

func TestFromEnvMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DEVELOPER_CHAT_ID", "1")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	setRequired(t)
	t.Setenv("FETCH_CONCURRENCY", "0")
	t.Setenv("PROVIDER_TZ", "Mars/Olympus_Mons")

	_, err := FromEnv()
	require.Error(t, err)
	require.Contains(t, err.Error(), "FETCH_CONCURRENCY")
	require.Contains(t, err.Error(), "PROVIDER_TZ")
}
