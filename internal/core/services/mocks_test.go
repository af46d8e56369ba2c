package services

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-forwarder/internal/adapters/htmldom"
	"chat-forwarder/internal/domain"
)

// MockSink - мок-реализация NotificationSink для тестирования
type MockSink struct {
	mock.Mock
}

// SendText реализует интерфейс NotificationSink
func (m *MockSink) SendText(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

// SendImage реализует интерфейс NotificationSink
func (m *MockSink) SendImage(ctx context.Context, png []byte, caption string) error {
	args := m.Called(ctx, png, caption)
	return args.Error(0)
}

// MockCapturer - мок-реализация Capturer для тестирования
type MockCapturer struct {
	CaptureFunc func(ctx context.Context, el domain.Element) ([]byte, error)
	calls       int
}

// Capture реализует интерфейс Capturer
func (m *MockCapturer) Capture(ctx context.Context, el domain.Element) ([]byte, error) {
	m.calls++
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, el)
	}
	return []byte("png"), nil
}

// fakeElement - элемент с заранее заданными потомками и ошибками
type fakeElement struct {
	content  string
	text     string
	children map[string]*fakeElement
	findErr  error
	textErr  error
	serErr   error
}

func (e *fakeElement) Find(selector string) (domain.Element, bool, error) {
	if e.findErr != nil {
		return nil, false, e.findErr
	}
	child, ok := e.children[selector]
	if !ok {
		return nil, false, nil
	}
	return child, true, nil
}

func (e *fakeElement) InnerText() (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) Serialize() (string, error) {
	return e.content, e.serErr
}

// parseItems разбирает HTML-фрагменты как элементы списка сообщений
func parseItems(t *testing.T, items ...string) []domain.RenderedItem {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<html><body><div class="history">`)
	for i, item := range items {
		b.WriteString(`<div class="item" data-index="`)
		b.WriteString(strconv.Itoa(i))
		b.WriteString(`">`)
		b.WriteString(item)
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)

	doc, err := htmldom.ParseString(b.String())
	require.NoError(t, err)
	parsed := doc.Items(DefaultSelectors().Item)
	require.Len(t, parsed, len(items))
	return parsed
}

func systemItem(text string) string {
	return `<div class="messageWrapper messageWrapper--control"><div class="message">` + text + `</div></div>`
}

func textItem(sender, text, at string) string {
	var name string
	if sender != "" {
		name = `<span class="name">` + sender + `</span>`
	}
	var bubbleName string
	if sender != "" {
		bubbleName = `<div class="header">` + sender + `</div>`
	}
	return `<div class="messageWrapper">` + name +
		`<div class="bubble svelte-x1">` + bubbleName +
		`<div class="text">` + text + `</div><div class="meta">` + at + `</div></div></div>`
}

func mediaItem(sender string) string {
	var name string
	if sender != "" {
		name = `<span class="name">` + sender + `</span>`
	}
	return `<div class="messageWrapper">` + name +
		`<div class="bubble svelte-x1"><div class="media"><img src="a.jpg"></div></div></div>`
}
