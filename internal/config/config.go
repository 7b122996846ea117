package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken        string `toml:"botToken"`
	BotUsername     string `toml:"botUsername"`
	DBPath          string `toml:"dbPath"`
	StorageDir      string `toml:"storageDir"`
	DefaultLanguage string `toml:"defaultLanguage"`

	LogConfig LogConfig       `toml:"logConfig"`
	Generate  GenerateConfig  `toml:"generate"`
	STT       STTConfig       `toml:"stt"`
	Stickers  StickerConfig   `toml:"stickers"`
	Admins    AdminConfig     `toml:"admins"`
	RateLimit RateLimitConfig `toml:"rateLimit"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// GenerateConfig configures the image generation backend (Replicate-style
// prediction API).
type GenerateConfig struct {
	APIToken     string  `toml:"apiToken"`
	BaseURL      string  `toml:"baseURL"`
	Model        string  `toml:"model"`
	PollInterval float64 `toml:"pollIntervalSeconds"`
	Timeout      float64 `toml:"timeoutSeconds"`
}

// STTConfig configures the Whisper-compatible transcription backend.
type STTConfig struct {
	APIKey  string `toml:"apiKey"`
	BaseURL string `toml:"baseURL"`
	Model   string `toml:"model"`
}

type StickerConfig struct {
	DefaultEmoji    string `toml:"defaultEmoji"`
	MaxPacksPerUser int    `toml:"maxPacksPerUser"`
	OverlayFontPath string `toml:"overlayFontPath"`
}

type AdminConfig struct {
	AdminUserIDs []int64 `toml:"adminUserIDs"`
}

type RateLimitConfig struct {
	MessagesPerMinute int `toml:"messagesPerMinute"`
}

// LoadConfig reads the TOML file and applies environment overrides for
// secrets. A .env file next to the binary is honored if present, so tokens
// never have to live in the committed config.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	_ = godotenv.Load()

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("BOT_USERNAME"); v != "" {
		cfg.BotUsername = v
	}
	if v := os.Getenv("REPLICATE_API_TOKEN"); v != "" {
		cfg.Generate.APIToken = v
	}
	if v := os.Getenv("STT_API_KEY"); v != "" {
		cfg.STT.APIKey = v
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "ru"
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "./storage"
	}
	if cfg.Stickers.DefaultEmoji == "" {
		cfg.Stickers.DefaultEmoji = "\U0001F3A8"
	}
	if cfg.Stickers.MaxPacksPerUser <= 0 {
		cfg.Stickers.MaxPacksPerUser = 10
	}
	if cfg.RateLimit.MessagesPerMinute <= 0 {
		cfg.RateLimit.MessagesPerMinute = 20
	}
	if cfg.Generate.PollInterval <= 0 {
		cfg.Generate.PollInterval = 2
	}
	if cfg.Generate.Timeout <= 0 {
		cfg.Generate.Timeout = 120
	}
	if cfg.STT.Model == "" {
		cfg.STT.Model = "whisper-1"
	}
}

func ValidateURL(urlString string) bool {
	if urlString == "" {
		return false
	}
	if _, err := url.Parse(urlString); err != nil {
		return false
	}
	return true
}

func MaskedPrint(str string) string {
	if len(str) <= 4 {
		return "****"
	}
	// only show the last 4 characters
	return strings.Repeat("*", len(str)-4) + str[len(str)-4:]
}

func PrintConfig(cfg *Config) {
	fmt.Println()
	fmt.Println("--------------------------------")
	fmt.Println("Config:")
	fmt.Printf("\tBotToken: %s\n", MaskedPrint(cfg.BotToken))
	fmt.Printf("\tBotUsername: %s\n", cfg.BotUsername)
	fmt.Printf("\tDBPath: %s\n", cfg.DBPath)
	fmt.Printf("\tStorageDir: %s\n", cfg.StorageDir)
	fmt.Printf("\tDefaultLanguage: %s\n", cfg.DefaultLanguage)
	fmt.Printf("\tLogConfig: %v\n", cfg.LogConfig)
	fmt.Printf("\tGenerate: model=%s baseURL=%s token=%s\n",
		cfg.Generate.Model, cfg.Generate.BaseURL, MaskedPrint(cfg.Generate.APIToken))
	fmt.Printf("\tSTT: model=%s baseURL=%s key=%s\n",
		cfg.STT.Model, cfg.STT.BaseURL, MaskedPrint(cfg.STT.APIKey))
	fmt.Printf("\tStickers: %v\n", cfg.Stickers)
	fmt.Printf("\tAdmins: %v\n", cfg.Admins)
	fmt.Printf("\tRateLimit: %v\n", cfg.RateLimit)
	fmt.Println("--------------------------------")
	fmt.Println()
}

func ValidateConfig(cfg *Config) error {
	if cfg.BotToken == "" {
		return fmt.Errorf("botToken is required")
	}
	if cfg.BotUsername == "" {
		return fmt.Errorf("botUsername is required")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("dbPath is required")
	}
	if cfg.Generate.APIToken == "" {
		return fmt.Errorf("generate.apiToken is required")
	}
	if cfg.Generate.BaseURL == "" || !ValidateURL(cfg.Generate.BaseURL) {
		return fmt.Errorf("generate.baseURL is required and must be a valid URL")
	}
	if cfg.Generate.Model == "" {
		return fmt.Errorf("generate.model is required")
	}
	if cfg.STT.BaseURL != "" && !ValidateURL(cfg.STT.BaseURL) {
		return fmt.Errorf("stt.baseURL must be a valid URL")
	}
	if cfg.LogConfig.Level == "" {
		return fmt.Errorf("logConfig.level is required")
	}
	if cfg.LogConfig.Format == "" {
		return fmt.Errorf("logConfig.format is required")
	}
	return nil
}
