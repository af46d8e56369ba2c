package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"chat-forwarder/internal/ports"
)

// ConsoleSink печатает уведомления вместо доставки. Нужен для пробных запусков.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink создает новый экземпляр ConsoleSink.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

var _ ports.NotificationSink = (*ConsoleSink)(nil)

// SendText выводит текст уведомления.
func (s *ConsoleSink) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "--- Message ---\n%s\n", text)
	return err
}

// SendImage выводит подпись и размер изображения.
func (s *ConsoleSink) SendImage(_ context.Context, png []byte, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "--- Image (%d bytes) ---\n%s\n", len(png), caption)
	return err
}
