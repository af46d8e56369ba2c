package browser

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/ports"
)

var errForeignElement = errors.New("element does not belong to this snapshot")

// snapshot - одна открытая вкладка чата. После Close все элементы
// снимка отвечают domain.ErrPassClosed.
type snapshot struct {
	page   *rod.Page
	items  []domain.RenderedItem
	closed atomic.Bool
}

var _ ports.Snapshot = (*snapshot)(nil)

func (s *snapshot) Items() []domain.RenderedItem {
	return s.items
}

// Capture снимает PNG-скриншот элемента этого снимка.
func (s *snapshot) Capture(ctx context.Context, el domain.Element) ([]byte, error) {
	e, ok := el.(*element)
	if !ok || e.snap != s {
		return nil, errForeignElement
	}
	if s.closed.Load() {
		return nil, domain.ErrPassClosed
	}

	target := e.el.Context(ctx)
	if err := target.ScrollIntoView(); err != nil {
		return nil, fmt.Errorf("failed to scroll to element: %w", err)
	}
	png, err := target.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return png, nil
}

func (s *snapshot) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.page == nil {
		return nil
	}
	return s.page.Close()
}

// element - обертка над узлом живой страницы.
type element struct {
	el   *rod.Element
	snap *snapshot
}

var _ domain.RenderedItem = (*element)(nil)

func (e *element) Find(selector string) (domain.Element, bool, error) {
	if e.snap.closed.Load() {
		return nil, false, domain.ErrPassClosed
	}
	has, child, err := e.el.Has(selector)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if !has {
		return nil, false, nil
	}
	return &element{el: child, snap: e.snap}, true, nil
}

func (e *element) InnerText() (string, error) {
	if e.snap.closed.Load() {
		return "", domain.ErrPassClosed
	}
	text, err := e.el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

func (e *element) Serialize() (string, error) {
	if e.snap.closed.Load() {
		return "", domain.ErrPassClosed
	}
	res, err := e.el.Eval(`() => this.innerHTML`)
	if err != nil {
		return "", fmt.Errorf("failed to serialize element: %w", err)
	}
	return res.Value.Str(), nil
}
