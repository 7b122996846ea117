package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/voicesticker/voicesticker-bot/internal/imaging"
	"github.com/voicesticker/voicesticker-bot/internal/prompt"
)

const maxButtonsPerRow = 2

// StyleKeyboard builds the style selection menu.
func StyleKeyboard(userLang *string, deps BotDeps) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	currentRow := []tgbotapi.InlineKeyboardButton{}
	for _, style := range prompt.Styles() {
		label := deps.I18n.T(userLang, "style_"+string(style))
		button := tgbotapi.NewInlineKeyboardButtonData(label, "style_"+string(style))
		currentRow = append(currentRow, button)
		if len(currentRow) == maxButtonsPerRow {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(currentRow...))
			currentRow = []tgbotapi.InlineKeyboardButton{}
		}
	}
	if len(currentRow) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(currentRow...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(userLang, "btn_cancel"), "cancel"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// BackgroundKeyboard builds the background selection menu.
func BackgroundKeyboard(userLang *string, deps BotDeps) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	currentRow := []tgbotapi.InlineKeyboardButton{}
	for _, bg := range imaging.Backgrounds() {
		label := deps.I18n.T(userLang, "bg_"+string(bg))
		button := tgbotapi.NewInlineKeyboardButtonData(label, "bg_"+string(bg))
		currentRow = append(currentRow, button)
		if len(currentRow) == maxButtonsPerRow {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(currentRow...))
			currentRow = []tgbotapi.InlineKeyboardButton{}
		}
	}
	if len(currentRow) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(currentRow...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(userLang, "btn_cancel"), "cancel"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// StickerActionsKeyboard builds the post-generation action menu for one
// sticker.
func StickerActionsKeyboard(stickerID int64, userLang *string, deps BotDeps) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(userLang, "btn_add_to_pack"), fmt.Sprintf("pack_add_%d", stickerID)),
		),
	}

	if deps.Overlay.Enabled() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(userLang, "btn_overlay"), fmt.Sprintf("overlay_%d", stickerID)),
		))
	}

	ratingRow := []tgbotapi.InlineKeyboardButton{}
	for score := 1; score <= 5; score++ {
		ratingRow = append(ratingRow, tgbotapi.NewInlineKeyboardButtonData(
			ratingLabel(score), fmt.Sprintf("rate_%d_%d", stickerID, score)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(ratingRow...))

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(userLang, "btn_retry"), fmt.Sprintf("retry_%d", stickerID)),
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(userLang, "btn_comment"), fmt.Sprintf("comment_%d", stickerID)),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(userLang, "btn_new_sticker"), "menu_new"),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ratingLabel(score int) string {
	return fmt.Sprintf("%d⭐", score)
}
