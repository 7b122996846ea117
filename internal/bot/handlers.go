package bot

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	st "github.com/voicesticker/voicesticker-bot/internal/storage"
)

func HandleUpdate(update tgbotapi.Update, deps BotDeps) {
	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("%v", r)
			stackTrace := string(debug.Stack())
			deps.Logger.Error("Panic recovered in HandleUpdate", zap.Any("panic_value", errMsg), zap.String("stack", stackTrace))

			var chatID int64
			var userID int64
			if update.Message != nil {
				chatID = update.Message.Chat.ID
				userID = update.Message.From.ID
			} else if update.CallbackQuery != nil {
				userID = update.CallbackQuery.From.ID
				if update.CallbackQuery.Message != nil {
					chatID = update.CallbackQuery.Message.Chat.ID
				}
			}

			if chatID != 0 {
				if deps.Authorizer.IsAdmin(userID) {
					detailedMsg := fmt.Sprintf("☢️ PANIC RECOVERED ☢️\nUser: %d\nError: %s\n\nTraceback:\n```\n%s\n```", userID, errMsg, stackTrace)
					const maxLen = 4090
					if len(detailedMsg) > maxLen {
						detailedMsg = detailedMsg[:maxLen] + "\n...(truncated)```"
					}
					msg := tgbotapi.NewMessage(chatID, detailedMsg)
					msg.ParseMode = tgbotapi.ModeMarkdown
					deps.Bot.Send(msg)
				} else {
					userLang := getUserLanguagePreference(userID, deps)
					deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_error_generic")))
				}
			}
		}
	}()

	if update.Message != nil {
		HandleMessage(update.Message, deps)
	} else if update.CallbackQuery != nil {
		HandleCallbackQuery(update.CallbackQuery, deps)
	}
}

func HandleMessage(message *tgbotapi.Message, deps BotDeps) {
	userID := message.From.ID
	chatID := message.Chat.ID

	if err := st.UpsertUser(deps.DB, &st.User{
		UserID:       userID,
		Username:     message.From.UserName,
		FirstName:    message.From.FirstName,
		LastName:     message.From.LastName,
		LanguageCode: message.From.LanguageCode,
	}); err != nil {
		deps.Logger.Error("Failed to upsert user", zap.Int64("user_id", userID), zap.Error(err))
	}

	userLang := getUserLanguagePreference(userID, deps)

	if message.IsCommand() {
		deps.StateManager.ClearState(userID)
		switch message.Command() {
		case "start":
			deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_start")))
		case "help":
			deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_help")))
		case "stats":
			HandleStatsCommand(chatID, userID, userLang, deps)
		case "mystickers":
			HandleMyStickersCommand(chatID, userID, userLang, deps)
		case "cancel":
			deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_cancelled")))
		case "version":
			reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("Version: %s\nBuild date: %s\nGo: %s", deps.Version, deps.BuildDate, runtime.Version()))
			deps.Bot.Send(reply)
		case "admin":
			HandleAdminCommand(chatID, userID, userLang, deps)
		default:
			deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_help")))
		}
		return
	}

	if !deps.Authorizer.IsAdmin(userID) && !deps.RateLimiter.Allow(userID) {
		deps.Logger.Warn("Rate limit exceeded", zap.Int64("user_id", userID))
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_rate_limited")))
		return
	}

	if message.Voice != nil {
		HandleVoiceMessage(message, deps)
		return
	}

	if message.Text != "" {
		HandleTextMessage(message, deps)
		return
	}

	deps.Logger.Debug("Ignoring unsupported message type", zap.Int64("user_id", userID))
}

// HandleTextMessage routes a plain text message: it is either input for a
// pending action (comment, caption) or a fresh sticker prompt.
func HandleTextMessage(message *tgbotapi.Message, deps BotDeps) {
	userID := message.From.ID
	chatID := message.Chat.ID
	userLang := getUserLanguagePreference(userID, deps)
	text := strings.TrimSpace(message.Text)

	if text == "" {
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_empty_prompt")))
		return
	}

	if state, ok := deps.StateManager.GetState(userID); ok {
		switch state.Action {
		case actionAwaitingComment:
			HandleCommentInput(chatID, userID, state.StickerID, text, deps)
			return
		case actionAwaitingOverlay:
			HandleOverlayInput(chatID, userID, state.StickerID, text, deps)
			return
		}
	}

	if err := st.RecordMessage(deps.DB, userID, false); err != nil {
		deps.Logger.Error("Failed to record text message", zap.Int64("user_id", userID), zap.Error(err))
	}

	StartStickerFlow(chatID, userID, text, false, deps)
}

// HandleVoiceMessage downloads the voice file, transcribes it and feeds the
// text into the sticker flow.
func HandleVoiceMessage(message *tgbotapi.Message, deps BotDeps) {
	userID := message.From.ID
	chatID := message.Chat.ID
	userLang := getUserLanguagePreference(userID, deps)

	if deps.STTClient == nil {
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_transcribe_failed")))
		return
	}

	statusMsg, err := deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_transcribing")))
	if err != nil {
		deps.Logger.Error("Failed to send transcribing status", zap.Int64("user_id", userID), zap.Error(err))
	}

	if err := st.RecordMessage(deps.DB, userID, true); err != nil {
		deps.Logger.Error("Failed to record voice message", zap.Int64("user_id", userID), zap.Error(err))
	}

	audio, err := downloadTelegramFile(message.Voice.FileID, deps)
	if err != nil {
		deps.Logger.Error("Failed to download voice file", zap.Int64("user_id", userID), zap.Error(err))
		editOrSend(chatID, statusMsg.MessageID, deps.I18n.T(userLang, "msg_error_generic"), deps)
		return
	}

	ctx, cancel := transcriptionContext()
	defer cancel()

	text, err := deps.STTClient.Transcribe(ctx, audio, "voice.ogg", message.From.LanguageCode)
	if err != nil {
		deps.Logger.Error("Transcription failed", zap.Int64("user_id", userID), zap.Error(err))
		editOrSend(chatID, statusMsg.MessageID, deps.I18n.T(userLang, "msg_transcribe_failed"), deps)
		return
	}
	if text == "" {
		editOrSend(chatID, statusMsg.MessageID, deps.I18n.T(userLang, "msg_transcribe_failed"), deps)
		return
	}

	editOrSend(chatID, statusMsg.MessageID, deps.I18n.T(userLang, "msg_transcribed", "Text", text), deps)
	StartStickerFlow(chatID, userID, text, true, deps)
}

// StartStickerFlow stores the prompt and shows the style menu.
func StartStickerFlow(chatID, userID int64, promptText string, fromVoice bool, deps BotDeps) {
	userLang := getUserLanguagePreference(userID, deps)

	msg := tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_choose_style"))
	msg.ReplyMarkup = StyleKeyboard(userLang, deps)
	sent, err := deps.Bot.Send(msg)
	if err != nil {
		deps.Logger.Error("Failed to send style menu", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	deps.StateManager.SetState(userID, &UserState{
		UserID:    userID,
		Action:    actionAwaitingStyle,
		Prompt:    promptText,
		MessageID: sent.MessageID,
		FromVoice: fromVoice,
	})
}

// HandleCommentInput saves feedback text for a sticker.
func HandleCommentInput(chatID, userID, stickerID int64, text string, deps BotDeps) {
	userLang := getUserLanguagePreference(userID, deps)
	deps.StateManager.ClearState(userID)

	ok, err := st.UpdateStickerFeedback(deps.DB, stickerID, userID, text)
	if err != nil {
		deps.Logger.Error("Failed to save feedback", zap.Int64("user_id", userID), zap.Int64("sticker_id", stickerID), zap.Error(err))
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_error_generic")))
		return
	}
	if !ok {
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_state_expired")))
		return
	}
	deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_comment_saved")))
}

// HandleStatsCommand renders the per-user counters, plus global totals for
// admins.
func HandleStatsCommand(chatID, userID int64, userLang *string, deps BotDeps) {
	stats, err := st.GetUserStats(deps.DB, userID)
	if err != nil {
		sendGenericError(chatID, userID, "GetUserStats", err, deps)
		return
	}

	text := deps.I18n.T(userLang, "msg_stats",
		"Stickers", fmt.Sprintf("%d", stats.TotalStickers),
		"Voice", fmt.Sprintf("%d", stats.TotalVoiceMessages),
		"Text", fmt.Sprintf("%d", stats.TotalTextMessages),
	)

	if deps.Authorizer.IsAdmin(userID) {
		total, err := st.GetTotalStats(deps.DB)
		if err != nil {
			deps.Logger.Error("Failed to load total stats", zap.Error(err))
		} else {
			text += "\n\n" + deps.I18n.T(userLang, "msg_admin_stats",
				"Users", fmt.Sprintf("%d", total.TotalUsers),
				"Stickers", fmt.Sprintf("%d", total.TotalStickers),
				"Active", fmt.Sprintf("%d", total.ActiveUsers24h),
				"Rating", fmt.Sprintf("%.1f", total.AverageRating),
			)
		}
	}

	deps.Bot.Send(tgbotapi.NewMessage(chatID, text))
}

// HandleAdminCommand shows global totals. Hidden from the command menu;
// non-admins get the generic help text.
func HandleAdminCommand(chatID, userID int64, userLang *string, deps BotDeps) {
	if !deps.Authorizer.IsAdmin(userID) {
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_help")))
		return
	}

	total, err := st.GetTotalStats(deps.DB)
	if err != nil {
		sendGenericError(chatID, userID, "GetTotalStats", err, deps)
		return
	}
	deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_admin_stats",
		"Users", fmt.Sprintf("%d", total.TotalUsers),
		"Stickers", fmt.Sprintf("%d", total.TotalStickers),
		"Active", fmt.Sprintf("%d", total.ActiveUsers24h),
		"Rating", fmt.Sprintf("%.1f", total.AverageRating),
	)))
}

// HandleMyStickersCommand lists the user's packs with deep links. Invalid
// packs are purged from the mirror first so dead links never show up.
func HandleMyStickersCommand(chatID, userID int64, userLang *string, deps BotDeps) {
	ctx, cancel := packOperationContext()
	defer cancel()

	if removed, err := deps.PackManager.CleanupInvalidPacks(ctx, userID); err != nil {
		deps.Logger.Warn("Pack cleanup failed", zap.Int64("user_id", userID), zap.Error(err))
	} else if removed > 0 {
		deps.Logger.Info("Purged invalid packs", zap.Int64("user_id", userID), zap.Int("removed", removed))
	}

	packs, err := deps.Registry.ListPacksForUser(userID)
	if err != nil {
		sendGenericError(chatID, userID, "ListPacksForUser", err, deps)
		return
	}
	if len(packs) == 0 {
		deps.Bot.Send(tgbotapi.NewMessage(chatID, deps.I18n.T(userLang, "msg_no_stickers")))
		return
	}

	var sb strings.Builder
	for _, pack := range packs {
		sb.WriteString(fmt.Sprintf("📦 https://t.me/addstickers/%s (%d)\n", pack.Name, pack.ItemCount))
	}
	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.DisableWebPagePreview = true
	deps.Bot.Send(msg)
}
