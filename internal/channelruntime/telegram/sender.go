package telegram

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v3"

	"github.com/quailyquaily/justdoit/internal/boterr"
)

// Sender delivers broadcast posts to a single chat at a time. Failed sends
// are returned to the caller and never retried.
type Sender struct {
	bot    *tele.Bot
	logger *slog.Logger
}

func NewSender(bot *tele.Bot, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{bot: bot, logger: logger}
}

func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	return s.send(ctx, chatID, "text", text)
}

func (s *Sender) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	return s.send(ctx, chatID, "photo", &tele.Photo{File: tele.FromURL(photoURL), Caption: caption})
}

func (s *Sender) send(ctx context.Context, chatID int64, kind string, what any) error {
	if err := ctx.Err(); err != nil {
		return &boterr.DeliveryError{ChatID: chatID, Kind: kind, Err: err}
	}
	if _, err := s.bot.Send(tele.ChatID(chatID), what); err != nil {
		s.logger.Debug("telegram_send_failed", "chat_id", chatID, "kind", kind, "error", err.Error())
		return &boterr.DeliveryError{ChatID: chatID, Kind: kind, Err: err}
	}
	return nil
}
