package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voicesticker/voicesticker-bot/internal/auth"
	"github.com/voicesticker/voicesticker-bot/internal/config"
	"github.com/voicesticker/voicesticker-bot/internal/i18n"
	"github.com/voicesticker/voicesticker-bot/internal/imaging"
	"github.com/voicesticker/voicesticker-bot/internal/stickerpack"
	"github.com/voicesticker/voicesticker-bot/internal/storage"
	"github.com/voicesticker/voicesticker-bot/pkg/genapi"
	"github.com/voicesticker/voicesticker-bot/pkg/sttapi"
)

// BotDeps holds the dependencies required by the bot handlers.
type BotDeps struct {
	Bot          *tgbotapi.BotAPI
	GenClient    *genapi.Client
	STTClient    *sttapi.Client
	DB           *gorm.DB
	Registry     *storage.PackRegistry
	PackManager  *stickerpack.Manager
	Overlay      *imaging.TextOverlay
	StateManager *StateManager
	Authorizer   *auth.Authorizer
	RateLimiter  *auth.RateLimiter
	I18n         *i18n.Manager
	Logger       *zap.Logger
	Config       *config.Config
	Version      string
	BuildDate    string
}
