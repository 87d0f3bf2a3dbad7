package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"banner-creator/internal/banner"
	"banner-creator/internal/catalog"
	"banner-creator/internal/editor"
	"banner-creator/internal/mediagroup"
	"banner-creator/internal/preview"
	"banner-creator/internal/telegram"
)

// Preview photos are rendered for this container size.
const (
	previewWidth  = 960
	previewHeight = 530
)

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, name string, data []byte, caption string, kb *telegram.Keyboard) error
	SendDocument(chatID int64, name string, data []byte, caption string) error
	SendTyping(chatID int64)
	AnswerCallback(callbackID, text string) error
	Download(ctx context.Context, fileID string) ([]byte, string, error)
}

type Options struct {
	Telegram Messenger
	Editor   *editor.Editor
	Catalog  *catalog.Holder
	Logger   *slog.Logger
}

type Handler struct {
	tg         Messenger
	editor     *editor.Editor
	catalog    *catalog.Holder
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	holder := opts.Catalog
	if holder == nil {
		holder = catalog.NewHolder(catalog.Default())
	}

	return &Handler{
		tg:      opts.Telegram,
		editor:  opts.Editor,
		catalog: holder,
		logger:  logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func sessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// ensure returns the chat's session id, starting a session on first use.
func (h *Handler) ensure(chatID int64) string {
	id := sessionID(chatID)
	if _, err := h.editor.Get(id); errors.Is(err, editor.ErrNotFound) {
		h.editor.CreateWithID(id)
	}
	return id
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.Chat == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	}

	if fileID, ok := imageFileID(msg); ok {
		return h.handleImage(ctx, chatID, msg, fileID)
	}

	if strings.TrimSpace(msg.Text) != "" {
		return h.tg.SendText(chatID, "Send /help to see what I can do.")
	}
	return nil
}

// HandleMediaGroup assigns an album's images to the slots named in its
// caption, in order.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	slots, err := parseSlots(group.Caption)
	if err != nil {
		_ = h.tg.SendText(group.ChatID, "❌ "+err.Error())
		return
	}
	if len(slots) == 0 {
		slots = []editor.Slot{editor.SlotBackground}
	}
	fileIDs := group.FileIDs
	if len(fileIDs) > len(slots) {
		_ = h.tg.SendText(group.ChatID, fmt.Sprintf("Only the first %d image(s) are used; the caption names %d slot(s).", len(slots), len(slots)))
		fileIDs = fileIDs[:len(slots)]
	}
	if err := h.uploadFiles(ctx, group.ChatID, slots[:len(fileIDs)], fileIDs); err != nil {
		h.logger.Error("media group processing failed", "chat", group.ChatID, "err", err)
	}
}

func (h *Handler) handleImage(ctx context.Context, chatID int64, msg *tgbotapi.Message, fileID string) error {
	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	slots, err := parseSlots(msg.Caption)
	if err != nil {
		return h.tg.SendText(chatID, "❌ "+err.Error())
	}
	slot := editor.SlotBackground
	if len(slots) > 0 {
		slot = slots[0]
	}
	return h.uploadFiles(ctx, chatID, []editor.Slot{slot}, []string{fileID})
}

// uploadFiles downloads the files concurrently and folds them into the
// session's slots in order.
func (h *Handler) uploadFiles(ctx context.Context, chatID int64, slots []editor.Slot, fileIDs []string) error {
	h.tg.SendTyping(chatID)
	id := h.ensure(chatID)

	type downloaded struct {
		data []byte
		mime string
	}

	downloads := make([]downloaded, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		eg.Go(func() error {
			data, mimeType, err := h.tg.Download(egCtx, fileID)
			if err != nil {
				return err
			}
			downloads[i] = downloaded{data: data, mime: mimeType}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "chat", chatID, "err", err)
		return h.tg.SendText(chatID, "❌ Could not download the image. Please send it again.")
	}

	for i, d := range downloads {
		if _, err := h.editor.Upload(id, slots[i], d.data, d.mime); err != nil {
			return h.tg.SendText(chatID, fmt.Sprintf("❌ %s: %s", slots[i], userMessage(err)))
		}
	}
	return h.sendPreview(ctx, chatID, "✅ Image set.")
}

func (h *Handler) sendPreview(ctx context.Context, chatID int64, caption string) error {
	id := h.ensure(chatID)
	img, err := h.editor.Preview(ctx, id, preview.NewViewport(previewWidth, previewHeight))
	if err != nil {
		h.logger.Error("preview failed", "chat", chatID, "err", err)
		return h.tg.SendText(chatID, "❌ Could not render the preview.")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	kb := bannerKeyboard()
	return h.tg.SendPhoto(chatID, "preview.png", buf.Bytes(), caption, &kb)
}

func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// parseSlots reads slot names from a caption such as "background merchant".
func parseSlots(caption string) ([]editor.Slot, error) {
	var out []editor.Slot
	for _, word := range strings.Fields(strings.ToLower(caption)) {
		switch strings.Trim(word, ",.;") {
		case "background", "bg":
			out = append(out, editor.SlotBackground)
		case "merchant", "logo", "merchant-logo":
			out = append(out, editor.SlotMerchantLogo)
		case "divider", "divider-image":
			out = append(out, editor.SlotDividerImage)
		default:
			return nil, fmt.Errorf("unknown slot %q; use background, merchant or divider", word)
		}
	}
	return out, nil
}

func userMessage(err error) string {
	var verr *banner.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("%s %s", verr.Field, verr.Reason)
	case errors.Is(err, editor.ErrInvalidImage):
		return "that file is not a supported image"
	case errors.Is(err, editor.ErrBusy):
		return "a background is already being generated"
	case errors.Is(err, editor.ErrNoGenerator):
		return "image generation is not configured on this bot"
	default:
		return "something went wrong, please try again"
	}
}
