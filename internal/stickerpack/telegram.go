package stickerpack

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// SetTransport is the sticker-set surface of the messaging transport.
// Implementations must report "set gone" as ErrSetInvalid and "set at
// capacity" as ErrSetFull; any other failure is opaque to callers.
type SetTransport interface {
	CreateSet(ctx context.Context, ownerID int64, name, title string, sticker []byte, emoji string) error
	AppendSticker(ctx context.Context, ownerID int64, name string, sticker []byte, emoji string) error
	// GetSet returns the number of stickers in the set.
	GetSet(ctx context.Context, name string) (int, error)
	DeepLink(name string) string
}

// TelegramTransport implements SetTransport on the Bot API.
type TelegramTransport struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewTelegramTransport(bot *tgbotapi.BotAPI, logger *zap.Logger) *TelegramTransport {
	return &TelegramTransport{bot: bot, logger: logger.Named("sticker_transport")}
}

func (t *TelegramTransport) CreateSet(ctx context.Context, ownerID int64, name, title string, sticker []byte, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewStickerSetConfig{
		UserID: ownerID,
		Name:   name,
		Title:  title,
		PNGSticker: tgbotapi.FileBytes{
			Name:  "sticker.png",
			Bytes: sticker,
		},
		Emojis: emoji,
	}
	if _, err := t.bot.Request(cfg); err != nil {
		t.logger.Warn("createNewStickerSet failed", zap.String("name", name), zap.Error(err))
		return t.classify("create set "+name, err)
	}
	t.logger.Info("Created sticker set", zap.String("name", name), zap.Int64("owner", ownerID))
	return nil
}

func (t *TelegramTransport) AppendSticker(ctx context.Context, ownerID int64, name string, sticker []byte, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.AddStickerConfig{
		UserID: ownerID,
		Name:   name,
		PNGSticker: tgbotapi.FileBytes{
			Name:  "sticker.png",
			Bytes: sticker,
		},
		Emojis: emoji,
	}
	if _, err := t.bot.Request(cfg); err != nil {
		t.logger.Warn("addStickerToSet failed", zap.String("name", name), zap.Error(err))
		return t.classify("append to set "+name, err)
	}
	return nil
}

func (t *TelegramTransport) GetSet(ctx context.Context, name string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	set, err := t.bot.GetStickerSet(tgbotapi.GetStickerSetConfig{Name: name})
	if err != nil {
		return 0, t.classify("get set "+name, err)
	}
	return len(set.Stickers), nil
}

func (t *TelegramTransport) DeepLink(name string) string {
	return "https://t.me/addstickers/" + name
}

// classify turns raw Bot API error text into the typed variants. This is the
// single place the error strings are inspected.
func (t *TelegramTransport) classify(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "STICKERSET_INVALID"),
		strings.Contains(msg, "STICKERSET_NOT_FOUND"):
		return fmt.Errorf("%s: %w", op, ErrSetInvalid)
	case strings.Contains(msg, "STICKERS_TOO_MUCH"),
		strings.Contains(msg, "STICKERS_TOO_MANY"):
		return fmt.Errorf("%s: %w", op, ErrSetFull)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
