package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const callbackPrefix = "bn"

func cb(action string) string {
	return callbackPrefix + ":" + action
}

func bannerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⇄ Side", cb("side")),
			tgbotapi.NewInlineKeyboardButtonData("🎨 Theme", cb("theme")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↶ Undo", cb("undo")),
			tgbotapi.NewInlineKeyboardButtonData("⬇ Export", cb("export")),
		),
	)
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.Message.Chat == nil {
		return nil
	}
	action, ok := strings.CutPrefix(strings.TrimSpace(q.Data), callbackPrefix+":")
	if !ok {
		return nil
	}
	chatID := q.Message.Chat.ID

	_ = h.tg.AnswerCallback(q.ID, "")
	switch action {
	case "side":
		return h.toggleSide(ctx, chatID)
	case "theme":
		return h.setTheme(ctx, chatID, "")
	case "undo":
		return h.undo(ctx, chatID)
	case "export":
		return h.export(ctx, chatID)
	}
	return nil
}
