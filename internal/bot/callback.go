package bot

import (
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voicesticker/voicesticker-bot/internal/imaging"
	"github.com/voicesticker/voicesticker-bot/internal/prompt"
	st "github.com/voicesticker/voicesticker-bot/internal/storage"
)

func HandleCallbackQuery(query *tgbotapi.CallbackQuery, deps BotDeps) {
	userID := query.From.ID
	data := query.Data
	var chatID int64
	var messageID int
	if query.Message != nil {
		chatID = query.Message.Chat.ID
		messageID = query.Message.MessageID
	}
	userLang := getUserLanguagePreference(userID, deps)

	// Acknowledge immediately so the button stops spinning.
	deps.Bot.Request(tgbotapi.NewCallback(query.ID, ""))

	deps.Logger.Debug("Callback received", zap.Int64("user_id", userID), zap.String("data", data))

	switch {
	case strings.HasPrefix(data, "style_"):
		handleStyleCallback(chatID, messageID, userID, strings.TrimPrefix(data, "style_"), userLang, deps)

	case strings.HasPrefix(data, "bg_"):
		handleBackgroundCallback(chatID, messageID, userID, strings.TrimPrefix(data, "bg_"), userLang, deps)

	case strings.HasPrefix(data, "rate_"):
		handleRateCallback(chatID, userID, strings.TrimPrefix(data, "rate_"), userLang, deps)

	case strings.HasPrefix(data, "comment_"):
		stickerID, ok := parseID(strings.TrimPrefix(data, "comment_"))
		if !ok {
			return
		}
		deps.StateManager.SetState(userID, &UserState{
			UserID:    userID,
			Action:    actionAwaitingComment,
			StickerID: stickerID,
		})
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_comment_request")))

	case strings.HasPrefix(data, "overlay_"):
		stickerID, ok := parseID(strings.TrimPrefix(data, "overlay_"))
		if !ok || !deps.Overlay.Enabled() {
			return
		}
		deps.StateManager.SetState(userID, &UserState{
			UserID:    userID,
			Action:    actionAwaitingOverlay,
			StickerID: stickerID,
		})
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_overlay_request")))

	case strings.HasPrefix(data, "pack_add_"):
		stickerID, ok := parseID(strings.TrimPrefix(data, "pack_add_"))
		if !ok {
			return
		}
		go HandleAddToPack(chatID, query.From, stickerID, deps)

	case strings.HasPrefix(data, "retry_"):
		handleRetryCallback(chatID, userID, strings.TrimPrefix(data, "retry_"), userLang, deps)

	case data == "cancel":
		deps.StateManager.ClearState(userID)
		editOrSend(chatID, messageID, deps.I18n.T(userLang, "msg_cancelled"), deps)

	case data == "menu_new":
		deps.StateManager.ClearState(userID)
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_start")))

	default:
		deps.Logger.Warn("Unknown callback data", zap.Int64("user_id", userID), zap.String("data", data))
	}
}

func handleStyleCallback(chatID int64, messageID int, userID int64, value string, userLang *string, deps BotDeps) {
	state, ok := deps.StateManager.GetState(userID)
	if !ok || state.Action != actionAwaitingStyle {
		editOrSend(chatID, messageID, deps.I18n.T(userLang, "msg_state_expired"), deps)
		return
	}
	style, ok := prompt.ParseStyle(value)
	if !ok {
		deps.Logger.Warn("Unknown style callback", zap.Int64("user_id", userID), zap.String("value", value))
		return
	}

	state.Style = style
	state.Action = actionAwaitingBackground
	state.MessageID = messageID
	deps.StateManager.SetState(userID, state)

	edit := tgbotapi.NewEditMessageText(chatID, messageID, deps.I18n.T(userLang, "msg_choose_background"))
	keyboard := BackgroundKeyboard(userLang, deps)
	edit.ReplyMarkup = &keyboard
	deps.Bot.Send(edit)
}

func handleBackgroundCallback(chatID int64, messageID int, userID int64, value string, userLang *string, deps BotDeps) {
	state, ok := deps.StateManager.GetState(userID)
	if !ok || state.Action != actionAwaitingBackground {
		editOrSend(chatID, messageID, deps.I18n.T(userLang, "msg_state_expired"), deps)
		return
	}
	background, ok := imaging.ParseBackground(value)
	if !ok {
		deps.Logger.Warn("Unknown background callback", zap.Int64("user_id", userID), zap.String("value", value))
		return
	}

	state.Background = background
	state.MessageID = messageID
	go RunGeneration(chatID, state, deps)
}

func handleRateCallback(chatID, userID int64, payload string, userLang *string, deps BotDeps) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 {
		return
	}
	stickerID, ok := parseID(parts[0])
	if !ok {
		return
	}
	rating, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	saved, err := st.UpdateStickerRating(deps.DB, stickerID, userID, rating)
	if err != nil || !saved {
		deps.Logger.Warn("Failed to save rating",
			zap.Int64("user_id", userID),
			zap.Int64("sticker_id", stickerID),
			zap.Error(err))
		return
	}
	deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_rating_saved")))
}

// handleRetryCallback regenerates with the same prompt, style and background
// as a previous sticker.
func handleRetryCallback(chatID, userID int64, payload string, userLang *string, deps BotDeps) {
	stickerID, ok := parseID(payload)
	if !ok {
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

	style, _ := prompt.ParseStyle(sticker.Style)
	background, _ := imaging.ParseBackground(sticker.Background)
	state := &UserState{
		UserID:     userID,
		Prompt:     sticker.Prompt,
		Style:      style,
		Background: background,
	}
	go RunGeneration(chatID, state, deps)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
