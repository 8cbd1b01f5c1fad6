package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "torobooru", cfg.App.Name)
	assert.Equal(t, 3, cfg.Database.MinConns)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 1, cfg.Resolver.Concurrency)
	assert.Equal(t, "https://www.pixiv.net", cfg.Provider.Pixiv.BaseURL)
	assert.Equal(t, "https://discord.com/api/v10", cfg.Provider.Discord.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Provider.Twitter.Timeout)
	assert.Equal(t, 168*time.Hour, cfg.Refresh.MaxAge)
	assert.Empty(t, cfg.Provider.Discord.BotToken)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
storage:
  bucket: pictures
  public_base_url: https://cdn.example.com
provider:
  discord:
    bot_token: from-file
    timeout: 3s
resolver:
  concurrency: 4
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pictures", cfg.Storage.Bucket)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
	assert.Equal(t, "from-file", cfg.Provider.Discord.BotToken)
	assert.Equal(t, 3*time.Second, cfg.Provider.Discord.Timeout)
	assert.Equal(t, 4, cfg.Resolver.Concurrency)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  bucket: pictures\n"), 0o600))

	t.Setenv("APP_STORAGE_BUCKET", "from-env")
	t.Setenv("APP_PROVIDER_DISCORD_BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Storage.Bucket)
	assert.Equal(t, "env-token", cfg.Provider.Discord.BotToken)
}
