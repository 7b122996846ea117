package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voicesticker/voicesticker-bot/internal/imaging"
	"github.com/voicesticker/voicesticker-bot/internal/prompt"
	"github.com/voicesticker/voicesticker-bot/internal/stickerpack"
	st "github.com/voicesticker/voicesticker-bot/internal/storage"
)

// Helper to send a generic error message and log the details.
func sendGenericError(chatID int64, userID int64, operation string, err error, deps BotDeps) {
	deps.Logger.Error("Operation failed", zap.String("operation", operation), zap.Error(err), zap.Int64("user_id", userID))
	userLang := getUserLanguagePreference(userID, deps)
	deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_error_generic")))
}

// editOrSend edits an existing status message in place, or sends a new one
// when there is nothing to edit.
func editOrSend(chatID int64, messageID int, text string, deps BotDeps) {
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		if _, err := deps.Bot.Send(edit); err == nil {
			return
		}
	}
	deps.Bot.Send(tgbotapi.NewMessage(chatID, text))
}

// getUserLanguagePreference returns the stored Telegram language code, or
// nil to fall back to the configured default.
func getUserLanguagePreference(userID int64, deps BotDeps) *string {
	user, err := st.GetUser(deps.DB, userID)
	if err != nil {
		deps.Logger.Debug("Failed to load user for language preference", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	if user == nil || user.LanguageCode == "" {
		return nil
	}
	return &user.LanguageCode
}

func displayName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	name := strings.TrimSpace(from.FirstName)
	if name == "" {
		name = strings.TrimSpace(from.UserName)
	}
	return name
}

func downloadTelegramFile(fileID string, deps BotDeps) ([]byte, error) {
	url, err := deps.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("file download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func transcriptionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func packOperationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (deps BotDeps) generationContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(deps.Config.Generate.Timeout * float64(time.Second))
	return context.WithTimeout(context.Background(), timeout)
}

// RunGeneration executes the full pipeline for an accumulated conversation
// state: enhance, generate, style the background, persist and deliver.
func RunGeneration(chatID int64, state *UserState, deps BotDeps) {
	userID := state.UserID
	userLang := getUserLanguagePreference(userID, deps)
	deps.StateManager.ClearState(userID)

	editOrSend(chatID, state.MessageID, deps.I18n.T(userLang, "msg_processing"), deps)

	enhanced, keepBackground := prompt.Enhance(state.Prompt, state.Style)
	negative := prompt.Negative(state.Style)

	ctx, cancel := deps.generationContext()
	defer cancel()

	pollInterval := time.Duration(deps.Config.Generate.PollInterval * float64(time.Second))
	result, err := deps.GenClient.Generate(ctx, enhanced, negative, pollInterval)
	if err != nil {
		deps.Logger.Error("Generation failed", zap.Int64("user_id", userID), zap.Error(err))
		editOrSend(chatID, state.MessageID, deps.I18n.T(userLang, "msg_error_generic"), deps)
		return
	}

	image := result.Image
	// A prompt that describes a scene keeps its generated environment; the
	// background style only applies to isolated subjects.
	if !keepBackground {
		styled, err := imaging.ApplyBackground(image, state.Background)
		if err != nil {
			deps.Logger.Warn("Background styling failed, using raw image", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			image = styled
		}
	}

	prepared, err := stickerpack.PrepareStickerFile(image)
	if err != nil {
		deps.Logger.Error("Sticker preparation failed", zap.Int64("user_id", userID), zap.Error(err))
		editOrSend(chatID, state.MessageID, deps.I18n.T(userLang, "msg_error_generic"), deps)
		return
	}

	filePath := filepath.Join(deps.Config.StorageDir, uuid.New().String()+".png")
	if err := os.WriteFile(filePath, prepared, 0o644); err != nil {
		deps.Logger.Error("Failed to write sticker file", zap.Int64("user_id", userID), zap.Error(err))
		editOrSend(chatID, state.MessageID, deps.I18n.T(userLang, "msg_error_generic"), deps)
		return
	}

	meta, err := st.GenerationMeta{
		EnhancedPrompt:    enhanced,
		Model:             result.Model,
		GenerationSeconds: result.GenerationSeconds,
		ImageURL:          result.ImageURL,
	}.ToJSON()
	if err != nil {
		deps.Logger.Error("Failed to encode generation metadata", zap.Error(err))
	}

	stickerID, err := st.SaveSticker(deps.DB, &st.Sticker{
		UserID:     userID,
		Prompt:     state.Prompt,
		Style:      string(state.Style),
		Background: string(state.Background),
		FilePath:   filePath,
		Meta:       meta,
	})
	if err != nil {
		sendGenericError(chatID, userID, "SaveSticker", err, deps)
		return
	}

	deliverSticker(chatID, userID, stickerID, prepared, deps)
}

// deliverSticker sends the prepared PNG as a sticker, records the Telegram
// file id and shows the action menu.
func deliverSticker(chatID, userID, stickerID int64, prepared []byte, deps BotDeps) {
	userLang := getUserLanguagePreference(userID, deps)

	stickerMsg := tgbotapi.NewSticker(chatID, tgbotapi.FileBytes{Name: "sticker.png", Bytes: prepared})
	sent, err := deps.Bot.Send(stickerMsg)
	if err != nil {
		sendGenericError(chatID, userID, "SendSticker", err, deps)
		return
	}
	if sent.Sticker != nil {
		if err := st.UpdateStickerFileID(deps.DB, stickerID, sent.Sticker.FileID); err != nil {
			deps.Logger.Error("Failed to store sticker file id", zap.Int64("sticker_id", stickerID), zap.Error(err))
		}
	}

	menu := tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_sticker_ready"))
	menu.ReplyMarkup = StickerActionsKeyboard(stickerID, userLang, deps)
	deps.Bot.Send(menu)
}

// HandleAddToPack routes a generated sticker into the user's packs and
// reports the outcome with a deep link.
func HandleAddToPack(chatID int64, from *tgbotapi.User, stickerID int64, deps BotDeps) {
	userID := from.ID
	userLang := getUserLanguagePreference(userID, deps)

	sticker, err := st.GetSticker(deps.DB, stickerID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_state_expired")))
			return
		}
		sendGenericError(chatID, userID, "GetSticker", err, deps)
		return
	}

	raw, err := os.ReadFile(sticker.FilePath)
	if err != nil {
		sendGenericError(chatID, userID, "ReadStickerFile", err, deps)
		return
	}

	ctx, cancel := packOperationContext()
	defer cancel()

	result, err := deps.PackManager.GetOrCreatePack(ctx, userID, displayName(from), stickerID, raw, deps.Config.Stickers.DefaultEmoji)
	if err != nil {
		var limitErr *stickerpack.PackLimitError
		if errors.As(err, &limitErr) {
			deps.Bot.Send(tgbotapi.NewMessage(chatID,
				deps.I18n.T(userLang, "msg_pack_limit_reached", "Limit", fmt.Sprintf("%d", limitErr.Limit))))
			return
		}
		deps.Logger.Error("Pack operation failed",
			zap.Int64("user_id", userID),
			zap.Int64("sticker_id", stickerID),
			zap.String("reason", stickerpack.Classify(err)),
			zap.Error(err))
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_pack_error")))
		return
	}

	key := "msg_pack_added"
	if result.Created {
		key = "msg_pack_created"
	}
	msg := tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, key, "Link", result.Link))
	msg.DisableWebPagePreview = true
	deps.Bot.Send(msg)
}

// HandleOverlayInput captions an existing sticker with the given text. The
// result is stored as a new sticker so the original stays usable.
func HandleOverlayInput(chatID, userID, stickerID int64, text string, deps BotDeps) {
	userLang := getUserLanguagePreference(userID, deps)
	deps.StateManager.ClearState(userID)

	if !deps.Overlay.Enabled() {
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_error_generic")))
		return
	}

	sticker, err := st.GetSticker(deps.DB, stickerID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_state_expired")))
			return
		}
		sendGenericError(chatID, userID, "GetSticker", err, deps)
		return
	}

	raw, err := os.ReadFile(sticker.FilePath)
	if err != nil {
		sendGenericError(chatID, userID, "ReadStickerFile", err, deps)
		return
	}

	captioned, err := deps.Overlay.Apply(raw, text, imaging.OverlayBottom)
	if err != nil {
		sendGenericError(chatID, userID, "ApplyOverlay", err, deps)
		return
	}

	prepared, err := stickerpack.PrepareStickerFile(captioned)
	if err != nil {
		sendGenericError(chatID, userID, "PrepareStickerFile", err, deps)
		return
	}

	filePath := filepath.Join(deps.Config.StorageDir, uuid.New().String()+".png")
	if err := os.WriteFile(filePath, prepared, 0o644); err != nil {
		sendGenericError(chatID, userID, "WriteStickerFile", err, deps)
		return
	}

	origMeta, err := st.MetaFromJSON(sticker.Meta)
	if err != nil {
		deps.Logger.Warn("Failed to parse sticker metadata", zap.Int64("sticker_id", stickerID), zap.Error(err))
	}
	origMeta.OverlayText = text
	origMeta.OverlayPosition = string(imaging.OverlayBottom)
	meta, err := origMeta.ToJSON()
	if err != nil {
		deps.Logger.Error("Failed to encode overlay metadata", zap.Error(err))
	}

	newID, err := st.SaveSticker(deps.DB, &st.Sticker{
		UserID:     userID,
		Prompt:     sticker.Prompt,
		Style:      sticker.Style,
		Background: sticker.Background,
		FilePath:   filePath,
		Meta:       meta,
	})
	if err != nil {
		sendGenericError(chatID, userID, "SaveSticker", err, deps)
		return
	}

	deliverSticker(chatID, userID, newID, prepared, deps)
}
