package bot

import (
	"fmt"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/voicesticker/voicesticker-bot/internal/auth"
	"github.com/voicesticker/voicesticker-bot/internal/config"
	"github.com/voicesticker/voicesticker-bot/internal/i18n"
	"github.com/voicesticker/voicesticker-bot/internal/imaging"
	"github.com/voicesticker/voicesticker-bot/internal/logger"
	"github.com/voicesticker/voicesticker-bot/internal/stickerpack"
	"github.com/voicesticker/voicesticker-bot/internal/storage"
	"github.com/voicesticker/voicesticker-bot/pkg/genapi"
	"github.com/voicesticker/voicesticker-bot/pkg/sttapi"
)

// StartBot initializes all dependencies and runs the update loop.
func StartBot(cfg *config.Config, version string, buildDate string) error {
	log, err := logger.InitLogger(cfg.LogConfig.Level, cfg.LogConfig.Format, cfg.LogConfig.File)
	if err != nil {
		panic(fmt.Sprintf("Logger initialization failed: %v", err))
	}
	defer log.Sync()

	log.Info("Starting voice sticker bot", zap.String("version", version), zap.String("buildDate", buildDate))

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}
	log.Info("Authorized on account", zap.String("username", bot.Self.UserName))

	botUsername := cfg.BotUsername
	if botUsername == "" {
		botUsername = bot.Self.UserName
	}

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		log.Fatal("Failed to create storage directory", zap.Error(err))
	}

	genClient := genapi.NewClient(
		cfg.Generate.APIToken,
		cfg.Generate.BaseURL,
		cfg.Generate.Model,
		time.Duration(cfg.Generate.Timeout*float64(time.Second)),
		log.Named("gen_client"),
	)

	var sttClient *sttapi.Client
	if cfg.STT.BaseURL != "" && cfg.STT.APIKey != "" {
		sttClient = sttapi.NewClient(cfg.STT.APIKey, cfg.STT.BaseURL, cfg.STT.Model, log.Named("stt_client"))
		log.Info("Voice transcription enabled", zap.String("model", cfg.STT.Model))
	} else {
		log.Info("Voice transcription disabled, voice messages will be rejected")
	}

	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage, log)
	if err != nil {
		log.Fatal("Failed to initialize i18n manager", zap.Error(err))
	}

	db, err := storage.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	registry := storage.NewPackRegistry(db, log.Named("registry"))
	transport := stickerpack.NewTelegramTransport(bot, log.Named("tg_transport"))
	packManager := stickerpack.NewManager(
		transport,
		registry,
		botUsername,
		cfg.Stickers.MaxPacksPerUser,
		log.Named("packs"),
	)

	overlay, err := imaging.NewTextOverlay(cfg.Stickers.OverlayFontPath)
	if err != nil {
		log.Fatal("Failed to load overlay font", zap.Error(err))
	}
	if !overlay.Enabled() {
		log.Info("Text overlay disabled, no font configured")
	}

	deps := BotDeps{
		Bot:          bot,
		GenClient:    genClient,
		STTClient:    sttClient,
		DB:           db,
		Registry:     registry,
		PackManager:  packManager,
		Overlay:      overlay,
		StateManager: NewStateManager(),
		Authorizer:   auth.NewAuthorizer(cfg.Admins.AdminUserIDs),
		RateLimiter:  auth.NewRateLimiter(cfg.RateLimit.MessagesPerMinute),
		I18n:         i18nManager,
		Logger:       log,
		Config:       cfg,
		Version:      version,
		BuildDate:    buildDate,
	}

	SetBotCommands(bot, log, cfg.DefaultLanguage, i18nManager)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	log.Info("Bot started, listening for updates...")
	for update := range updates {
		go func(upd tgbotapi.Update) {
			HandleUpdate(upd, deps)
		}(update)
	}

	return nil
}

// SetBotCommands defines the commands available to the user.
func SetBotCommands(bot *tgbotapi.BotAPI, log *zap.Logger, defaultLang string, i18nManager *i18n.Manager) {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: i18nManager.T(&defaultLang, "command_desc_start")},
		{Command: "help", Description: i18nManager.T(&defaultLang, "command_desc_help")},
		{Command: "mystickers", Description: i18nManager.T(&defaultLang, "command_desc_mystickers")},
		{Command: "stats", Description: i18nManager.T(&defaultLang, "command_desc_stats")},
		{Command: "cancel", Description: i18nManager.T(&defaultLang, "command_desc_cancel")},
		{Command: "version", Description: i18nManager.T(&defaultLang, "command_desc_version")},
	}

	commandsConfig := tgbotapi.NewSetMyCommands(commands...)
	if _, err := bot.Request(commandsConfig); err != nil {
		log.Error("Failed to set bot commands", zap.Error(err))
	} else {
		log.Info("Successfully set bot commands")
	}
}
