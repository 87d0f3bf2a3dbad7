package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"banner-creator/internal/banner"
	"banner-creator/internal/bridge"
	"banner-creator/internal/editor"
	"banner-creator/internal/export"
	"banner-creator/internal/theme"
)

const helpText = "🖼 Banner Creator\n\n" +
	"/show - preview the banner\n" +
	"/set <field> <value> - edit a field, e.g. /set h1 Pay globally\n" +
	"/theme [name] - switch theme (default, light, razorpay-blue)\n" +
	"/side - move the text to the other side\n" +
	"/generate <prompt> - AI background\n" +
	"/export - download banner.png\n" +
	"/undo - revert the last change\n" +
	"/reset - start over\n" +
	"/products - list products\n\n" +
	"Fields: side, theme, product, logo, merchant, merchant.show, bg.show, tag, tag.icon, " +
	"tag.theme, tag.show, h1-h3, h1.show-h3.show, divider, subtext, paragraph, p1-p4, p1.icon, p1.show\n\n" +
	"Send a photo with the caption background, merchant or divider to place it. " +
	"For an album, list the slots in order, e.g. \"background merchant\"."

func (h *Handler) handleCommand(ctx context.Context, chatID int64, command, args string) error {
	switch command {
	case "start":
		h.editor.CreateWithID(sessionID(chatID))
		if err := h.tg.SendText(chatID, helpText); err != nil {
			return err
		}
		return h.sendPreview(ctx, chatID, "")
	case "help":
		return h.tg.SendText(chatID, helpText)
	case "show":
		return h.sendPreview(ctx, chatID, "")
	case "set":
		field, value, _ := strings.Cut(args, " ")
		if field == "" {
			return h.tg.SendText(chatID, "Usage: /set <field> <value>")
		}
		p, err := banner.ParseField(field, value)
		if err != nil {
			return h.tg.SendText(chatID, "❌ "+userMessage(err))
		}
		return h.apply(ctx, chatID, p)
	case "theme":
		return h.setTheme(ctx, chatID, args)
	case "side":
		return h.toggleSide(ctx, chatID)
	case "generate":
		return h.generate(ctx, chatID, args)
	case "export":
		return h.export(ctx, chatID)
	case "undo":
		return h.undo(ctx, chatID)
	case "reset":
		if _, err := h.editor.Reset(h.ensure(chatID)); err != nil {
			return err
		}
		return h.sendPreview(ctx, chatID, "Banner reset.")
	case "products":
		var b strings.Builder
		for _, p := range h.catalog.Get().Products() {
			fmt.Fprintf(&b, "%s - %s\n", p.Key, p.Label)
		}
		return h.tg.SendText(chatID, b.String())
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) apply(ctx context.Context, chatID int64, p banner.Patch) error {
	if _, err := h.editor.Apply(h.ensure(chatID), p); err != nil {
		return h.tg.SendText(chatID, "❌ "+userMessage(err))
	}
	return h.sendPreview(ctx, chatID, "")
}

func (h *Handler) setTheme(ctx context.Context, chatID int64, name string) error {
	next := theme.Name(strings.ToLower(strings.TrimSpace(name)))
	if next == "" {
		cfg, err := h.editor.Config(h.ensure(chatID))
		if err != nil {
			return err
		}
		next = nextTheme(cfg.Theme)
	}
	return h.apply(ctx, chatID, banner.Patch{Theme: &next})
}

func nextTheme(cur theme.Name) theme.Name {
	names := theme.Names()
	for i, n := range names {
		if n == cur {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func (h *Handler) toggleSide(ctx context.Context, chatID int64) error {
	cfg, err := h.editor.Config(h.ensure(chatID))
	if err != nil {
		return err
	}
	side := banner.TextRight
	if cfg.TextOnRight() {
		side = banner.TextLeft
	}
	return h.apply(ctx, chatID, banner.Patch{TextSide: &side})
}

func (h *Handler) undo(ctx context.Context, chatID int64) error {
	if _, err := h.editor.Undo(h.ensure(chatID)); err != nil {
		if errors.Is(err, editor.ErrNothingToUndo) {
			return h.tg.SendText(chatID, "Nothing to undo.")
		}
		return err
	}
	return h.sendPreview(ctx, chatID, "↶ Undone.")
}

func (h *Handler) generate(ctx context.Context, chatID int64, prompt string) error {
	id := h.ensure(chatID)
	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "🎨 Generating the background, please wait...")

	snap, err := h.editor.GenerateBackground(ctx, id, prompt)
	if err != nil {
		var gerr *bridge.GenerationError
		if errors.As(err, &gerr) {
			return h.tg.SendText(chatID, "❌ "+lastNotice(snap, "Background generation failed."))
		}
		return h.tg.SendText(chatID, "❌ "+userMessage(err))
	}

	caption := "✅ Background generated."
	if len(snap.Citations) > 0 {
		var b strings.Builder
		b.WriteString(caption)
		b.WriteString("\nSources:")
		for _, c := range snap.Citations {
			title := c.Title
			if title == "" {
				title = c.URL
			}
			fmt.Fprintf(&b, "\n• %s", title)
		}
		caption = b.String()
	}
	return h.sendPreview(ctx, chatID, caption)
}

func (h *Handler) export(ctx context.Context, chatID int64) error {
	h.tg.SendTyping(chatID)
	art, err := h.editor.Export(ctx, h.ensure(chatID))
	switch {
	case errors.Is(err, export.ErrExportInProgress):
		return h.tg.SendText(chatID, "An export is already running.")
	case err != nil:
		h.logger.Error("export failed", "chat", chatID, "err", err)
		return h.tg.SendText(chatID, "❌ Export failed. Please try again.")
	}
	return h.tg.SendDocument(chatID, art.Filename, art.Data, "")
}

func lastNotice(snap editor.Snapshot, fallback string) string {
	if n := len(snap.Notices); n > 0 {
		return snap.Notices[n-1].Message
	}
	return fallback
}
