// Package telegram adapts the Telegram Bot API to the bot's inbound events
// and outbound replies.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/internal/domain"
)

// API is the subset of *tgbotapi.BotAPI used for outbound calls.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SubmitFunc hands an inbound event to the processing pipeline.
type SubmitFunc func(ctx context.Context, ev domain.Event) error

// Transport receives updates by long polling and sends replies.
type Transport struct {
	api         API
	bot         *tgbotapi.BotAPI
	pollTimeout int
	logger      *zap.Logger
}

// New connects to the Bot API with the configured token.
func New(cfg config.TelegramConfig, logger *zap.Logger) (*Transport, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	bot.Debug = cfg.Debug
	t := NewWithAPI(bot, logger)
	t.bot = bot
	t.pollTimeout = cfg.PollTimeoutSeconds
	t.logger.Info("telegram connected", zap.String("bot", bot.Self.UserName))
	return t, nil
}

// NewWithAPI builds a send-only transport around api.
func NewWithAPI(api API, logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{api: api, pollTimeout: 60, logger: logger.Named("telegram")}
}

// Run polls for updates until ctx is cancelled, submitting each mapped event.
func (t *Transport) Run(ctx context.Context, submit SubmitFunc) error {
	if t.bot == nil {
		return errors.New("telegram transport has no bot connection")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.dispatch(ctx, update, submit)
		}
	}
}

func (t *Transport) dispatch(ctx context.Context, update tgbotapi.Update, submit SubmitFunc) {
	if update.CallbackQuery != nil {
		if _, err := t.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			t.logger.Warn("callback answer failed", zap.Error(err))
		}
	}
	ev, ok := EventFromUpdate(update)
	if !ok {
		return
	}
	if err := submit(ctx, ev); err != nil {
		t.logger.Warn("event dropped", zap.Int64("user_id", ev.SenderID), zap.Error(err))
	}
}

// EventFromUpdate maps an update to an inbound event. Updates without a
// sender, such as channel posts, are skipped. Non-text messages become
// text events with an empty payload.
func EventFromUpdate(update tgbotapi.Update) (domain.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.From == nil {
			return domain.Event{}, false
		}
		ev := domain.Event{
			SenderID:   q.From.ID,
			ChatID:     q.From.ID,
			Kind:       domain.EventKindButtonCallback,
			Payload:    q.Data,
			ReceivedAt: time.Now(),
		}
		if q.Message != nil && q.Message.Chat != nil {
			ev.ChatID = q.Message.Chat.ID
		}
		return ev, true
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return domain.Event{}, false
		}
		ev := domain.Event{
			SenderID:   msg.From.ID,
			ChatID:     msg.From.ID,
			Kind:       domain.EventKindText,
			Payload:    msg.Text,
			ReceivedAt: msg.Time(),
		}
		if msg.Chat != nil {
			ev.ChatID = msg.Chat.ID
		}
		if msg.IsCommand() {
			ev.Kind = domain.EventKindCommand
			ev.Payload = strings.ToLower(msg.Command())
		}
		return ev, true
	}
	return domain.Event{}, false
}

// SendText sends a plain message with an optional keyboard.
func (t *Transport) SendText(_ context.Context, chatID int64, text string, keyboard *domain.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := KeyboardMarkup(keyboard); markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// SendDocument uploads data as a file attachment.
func (t *Transport) SendDocument(_ context.Context, chatID int64, data []byte, filename string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	if _, err := t.api.Send(doc); err != nil {
		return fmt.Errorf("send document to %d: %w", chatID, err)
	}
	return nil
}

// Notify posts a Markdown message to the supervisory channel.
func (t *Transport) Notify(ctx context.Context, channelID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(channelID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("notify %d: %w", channelID, err)
	}
	return nil
}

// KeyboardMarkup converts a keyboard to its Bot API markup, or nil.
func KeyboardMarkup(kb *domain.Keyboard) any {
	if kb == nil {
		return nil
	}
	switch kb.Kind {
	case domain.KeyboardReply:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Label))
			}
			rows = append(rows, buttons)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup
	case domain.KeyboardInline:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
			}
			rows = append(rows, buttons)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	case domain.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}
