package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
botToken = "123:abc"
botUsername = "VoiceStickerBot"
dbPath = "bot.db"

[logConfig]
level = "info"
format = "console"

[generate]
apiToken = "r8_test"
baseURL = "https://api.replicate.com"
model = "sticker-maker"

[stt]
apiKey = "sk-test"
baseURL = "https://api.openai.com"

[admins]
adminUserIDs = [42]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "ru", cfg.DefaultLanguage)
	assert.Equal(t, "./storage", cfg.StorageDir)
	assert.Equal(t, 10, cfg.Stickers.MaxPacksPerUser)
	assert.Equal(t, 20, cfg.RateLimit.MessagesPerMinute)
	assert.Equal(t, "whisper-1", cfg.STT.Model)
	assert.InDelta(t, 2.0, cfg.Generate.PollInterval, 0.001)
	assert.InDelta(t, 120.0, cfg.Generate.Timeout, 0.001)
}

func TestLoadConfigEnvOverridesToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "456:env")
	t.Setenv("REPLICATE_API_TOKEN", "r8_env")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "456:env", cfg.BotToken)
	assert.Equal(t, "r8_env", cfg.Generate.APIToken)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.NoError(t, ValidateConfig(cfg))

	broken := *cfg
	broken.BotToken = ""
	assert.Error(t, ValidateConfig(&broken))

	broken = *cfg
	broken.Generate.Model = ""
	assert.Error(t, ValidateConfig(&broken))

	broken = *cfg
	broken.Generate.BaseURL = ""
	assert.Error(t, ValidateConfig(&broken))
}

func TestMaskedPrint(t *testing.T) {
	assert.Equal(t, "****", MaskedPrint("abc"))
	masked := MaskedPrint("1234567890")
	assert.Equal(t, "******7890", masked)
}
