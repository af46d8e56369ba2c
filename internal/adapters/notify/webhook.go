package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"chat-forwarder/internal/ports"
)

// webhookPayload - тело JSON-запроса для текстовых уведомлений.
type webhookPayload struct {
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// WebhookSink отправляет уведомления POST-запросами на произвольный URL.
// Текст уходит JSON-ом, изображения multipart-формой с полем image.
type WebhookSink struct {
	client *resty.Client
	url    string
	logger *slog.Logger
}

// NewWebhookSink создает новый экземпляр WebhookSink.
func NewWebhookSink(url string, timeout time.Duration, headers map[string]string, logger *slog.Logger) *WebhookSink {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeaders(headers)
	return &WebhookSink{client: client, url: url, logger: logger.With(slog.String("component", "webhook"))}
}

var _ ports.NotificationSink = (*WebhookSink)(nil)

// SendText реализует ports.NotificationSink.
func (s *WebhookSink) SendText(ctx context.Context, text string) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{Text: text, ParseMode: "HTML"}).
		Post(s.url)
	return s.check(res, err)
}

// SendImage реализует ports.NotificationSink.
func (s *WebhookSink) SendImage(ctx context.Context, png []byte, caption string) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetFileReader("image", "message.png", bytes.NewReader(png)).
		SetFormData(map[string]string{"caption": caption, "parse_mode": "HTML"}).
		Post(s.url)
	return s.check(res, err)
}

func (s *WebhookSink) check(res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("webhook responded with status %d", res.StatusCode())
	}
	s.logger.Debug("webhook delivered", slog.Int("status", res.StatusCode()))
	return nil
}
