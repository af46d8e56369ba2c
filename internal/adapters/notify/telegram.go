// Package notify содержит реализации NotificationSink.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "chat-forwarder/internal/log"
	"chat-forwarder/internal/ports"
)

// TelegramSink доставляет уведомления в чат Telegram через Bot API.
type TelegramSink struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegramSink авторизуется в Bot API и возвращает готовый sink.
func NewTelegramSink(token string, chatID int64, logger *slog.Logger) (*TelegramSink, error) {
	return NewTelegramSinkWithClient(token, chatID, tgbotapi.APIEndpoint, nil, logger)
}

// NewTelegramSinkWithClient позволяет подменить адрес API и HTTP-клиент.
func NewTelegramSinkWithClient(token string, chatID int64, endpoint string, client tgbotapi.HTTPClient, logger *slog.Logger) (*TelegramSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "telegram"))
	_ = tgbotapi.SetLogger(applog.NewTGBotAPIAdapter(logger))

	var (
		api *tgbotapi.BotAPI
		err error
	)
	if client == nil {
		api, err = tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	} else {
		api, err = tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))
	return &TelegramSink{api: api, chatID: chatID, logger: logger}, nil
}

var _ ports.NotificationSink = (*TelegramSink)(nil)

// SendText отправляет HTML-сообщение.
func (s *TelegramSink) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendImage отправляет PNG как фото с HTML-подписью.
func (s *TelegramSink) SendImage(ctx context.Context, png []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileBytes{Name: "message.png", Bytes: png})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if _, err := s.api.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}
