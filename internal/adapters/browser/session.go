// Package browser реализует BrowserSession поверх Chrome через go-rod.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/pkg/clock"
	"chat-forwarder/internal/ports"
)

// Options настраивает браузерную сессию.
type Options struct {
	// Bin - путь к Chrome. Пусто: launcher скачает или найдет браузер сам.
	Bin string
	// RemoteURL - websocket уже запущенного Chrome. Пусто: запуск локально.
	RemoteURL string
	Headless  bool
	// StateFile - storageState.json с авторизацией веб-клиента.
	StateFile string

	ItemSelector string
	ReadyTimeout time.Duration
	SettleDelay  time.Duration

	Width  int
	Height int
	Scale  float64
}

// DefaultOptions возвращает настройки по умолчанию.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		StateFile:    "storageState.json",
		ItemSelector: "div.item[data-index]",
		ReadyTimeout: 30 * time.Second,
		SettleDelay:  2 * time.Second,
		Width:        1280,
		Height:       720,
		Scale:        2,
	}
}

// Session реализует интерфейс ports.BrowserSession. Браузер запускается
// при первом снимке и живет до Close; каждый снимок открывает свою вкладку.
type Session struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	state   *StorageState
}

// NewSession создает новый экземпляр Session.
func NewSession(opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{opts: opts, logger: logger.With(slog.String("component", "browser"))}
}

var _ ports.BrowserSession = (*Session)(nil)

// Snapshot открывает чат, ждет отрисовки списка сообщений и возвращает
// снимок его элементов. Снимок нужно закрыть.
func (s *Session) Snapshot(ctx context.Context, target domain.ChatTarget) (ports.Snapshot, error) {
	b, err := s.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("failed to create tab: %w", err)
	}

	snap, err := s.open(ctx, page, target)
	if err != nil {
		_ = page.Close()
		return nil, err
	}
	return snap, nil
}

func (s *Session) open(ctx context.Context, page *rod.Page, target domain.ChatTarget) (*snapshot, error) {
	logger := s.logger.With(slog.String("chat", target.Name))

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.opts.Width,
		Height:            s.opts.Height,
		DeviceScaleFactor: s.opts.Scale,
	}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if err := s.applyState(page); err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, s.opts.ReadyTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(target.URL); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", target.URL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Warn("wait load timeout", slog.Any("error", err))
	}

	if _, err := page.Context(navCtx).Element(s.opts.ItemSelector); err != nil {
		return nil, fmt.Errorf("message list %q did not appear: %w", s.opts.ItemSelector, err)
	}

	// Дать клиенту дорисовать историю после появления первого элемента.
	if err := clock.Sleep(ctx, s.opts.SettleDelay); err != nil {
		return nil, err
	}

	elements, err := page.Context(ctx).Elements(s.opts.ItemSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	snap := &snapshot{page: page}
	snap.items = make([]domain.RenderedItem, 0, len(elements))
	for _, el := range elements {
		snap.items = append(snap.items, &element{el: el, snap: snap})
	}
	logger.Debug("snapshot taken", slog.Int("items", len(elements)))
	return snap, nil
}

// applyState подкладывает cookies и localStorage до навигации.
func (s *Session) applyState(page *rod.Page) error {
	if s.state == nil {
		return nil
	}
	if params := s.state.CookieParams(); len(params) > 0 {
		if err := page.SetCookies(params); err != nil {
			return fmt.Errorf("failed to set cookies: %w", err)
		}
	}
	script, err := s.state.LocalStorageScript()
	if err != nil {
		return err
	}
	if script != "" {
		if _, err := page.EvalOnNewDocument(script); err != nil {
			return fmt.Errorf("failed to install local storage: %w", err)
		}
	}
	return nil
}

func (s *Session) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	if s.opts.StateFile != "" {
		state, err := LoadStorageState(s.opts.StateFile)
		if err != nil {
			s.logger.Warn("storage state not loaded, chats may require login",
				slog.String("file", s.opts.StateFile), slog.Any("error", err))
		}
		s.state = state
	}

	b, l, err := launch(ctx, s.opts, s.logger)
	if err != nil {
		return nil, err
	}
	s.browser, s.lnch = b, l
	return b, nil
}

// Close закрывает браузер. Повторный вызов безопасен.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Kill()
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return err
}

func launch(ctx context.Context, opts Options, logger *slog.Logger) (*rod.Browser, *launcher.Launcher, error) {
	var (
		wsURL string
		l     *launcher.Launcher
	)

	if opts.RemoteURL != "" {
		wsURL = opts.RemoteURL
		logger.Info("connecting to remote browser", slog.String("url", wsURL))
	} else {
		l = launcher.New().Context(ctx).Headless(opts.Headless).
			Set("disable-blink-features", "AutomationControlled")
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		wsURL = u
		logger.Info("launched local browser", slog.Bool("headless", opts.Headless))
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return b, l, nil
}
