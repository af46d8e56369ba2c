package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-forwarder/internal/domain"
	applog "chat-forwarder/internal/log"
	"chat-forwarder/internal/pkg/clock"
	"chat-forwarder/internal/ports"
)

// DispatchOptions настраивает DispatchService.
type DispatchOptions struct {
	// SettleDelay - пауза перед скриншотом, чтобы медиа успело загрузиться.
	SettleDelay time.Duration
	// BubbleSelector - подэлемент медиа-сообщения, который попадает на скриншот.
	BubbleSelector string
}

// DispatchService реализует интерфейс Dispatcher.
type DispatchService struct {
	sink   ports.NotificationSink
	opts   DispatchOptions
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewDispatchService создает новый экземпляр DispatchService.
func NewDispatchService(sink ports.NotificationSink, opts DispatchOptions, logger *slog.Logger) *DispatchService {
	if opts.BubbleSelector == "" {
		opts.BubbleSelector = DefaultSelectors().Bubble
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchService{
		sink:   sink,
		opts:   opts,
		logger: logger,
		sleep:  clock.Sleep,
	}
}

var _ ports.Dispatcher = (*DispatchService)(nil)

// Dispatch доставляет сообщения по порядку. Ошибка одного сообщения
// логируется и не прерывает остальные.
func (s *DispatchService) Dispatch(ctx context.Context, target domain.ChatTarget, capturer ports.Capturer, messages []domain.ClassifiedMessage) []domain.DeliveryResult {
	logger := s.logger.With(slog.String("chat", target.Name))
	results := make([]domain.DeliveryResult, 0, len(messages))

	for _, msg := range messages {
		res := domain.DeliveryResult{Fingerprint: msg.ID(), Kind: msg.Kind(), Status: domain.DeliveryDelivered}

		switch m := msg.(type) {
		case domain.SystemMessage:
			res.Err = s.sink.SendText(ctx, FormatSystemNotice(target.Name, m.Text))
		case domain.TextMessage:
			res.Err = s.sink.SendText(ctx, FormatTextNotice(target, m.Sender, m.Text))
		case domain.MediaMessage:
			res = s.dispatchMedia(ctx, target, capturer, m, res)
		default:
			res.Err = fmt.Errorf("%w: %T", domain.ErrUnknownMessageKind, msg)
		}

		if res.Err != nil && res.Status == domain.DeliveryDelivered {
			res.Status = domain.DeliveryFailed
		}

		switch res.Status {
		case domain.DeliveryFailed:
			logger.Error("failed to deliver message",
				slog.String("kind", string(res.Kind)),
				slog.String("fingerprint", string(res.Fingerprint)),
				slog.Any("error", res.Err))
		case domain.DeliverySkipped:
			logger.Warn("message skipped",
				slog.String("kind", string(res.Kind)),
				slog.String("fingerprint", string(res.Fingerprint)),
				slog.Any("reason", res.Err))
		default:
			logger.Info("message delivered",
				slog.String("kind", string(res.Kind)),
				slog.String("preview", applog.Preview(previewOf(msg), 60)))
		}
		results = append(results, res)
	}
	return results
}

func (s *DispatchService) dispatchMedia(ctx context.Context, target domain.ChatTarget, capturer ports.Capturer, m domain.MediaMessage, res domain.DeliveryResult) domain.DeliveryResult {
	if m.CaptureTarget == nil {
		res.Status, res.Err = domain.DeliverySkipped, domain.ErrElementNotFound
		return res
	}
	bubble, found, err := m.CaptureTarget.Find(s.opts.BubbleSelector)
	if err != nil {
		res.Status, res.Err = domain.DeliveryFailed, fmt.Errorf("failed to locate media bubble: %w", err)
		return res
	}
	if !found {
		res.Status, res.Err = domain.DeliverySkipped, fmt.Errorf("media bubble %q: %w", s.opts.BubbleSelector, domain.ErrElementNotFound)
		return res
	}

	if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
		res.Status, res.Err = domain.DeliveryFailed, err
		return res
	}

	png, err := capturer.Capture(ctx, bubble)
	if err != nil {
		res.Status, res.Err = domain.DeliveryFailed, fmt.Errorf("failed to capture media: %w", err)
		return res
	}
	if err := s.sink.SendImage(ctx, png, FormatMediaCaption(target.Name)); err != nil {
		res.Status, res.Err = domain.DeliveryFailed, err
	}
	return res
}

func previewOf(msg domain.ClassifiedMessage) string {
	switch m := msg.(type) {
	case domain.SystemMessage:
		return m.Text
	case domain.TextMessage:
		return m.Sender + ": " + m.Text
	case domain.MediaMessage:
		return "[media] " + m.SenderHint
	}
	return ""
}
