package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"chat-forwarder/internal/adapters/browser"
	"chat-forwarder/internal/adapters/notify"
	"chat-forwarder/internal/cache"
	"chat-forwarder/internal/core/services"
	"chat-forwarder/internal/pkg/config"
	"chat-forwarder/internal/ports"
	"chat-forwarder/internal/server"
	"chat-forwarder/internal/watcher"
	"chat-forwarder/internal/watcher/usecase"
)

// app - собранное приложение и то, что надо закрыть при выходе.
type app struct {
	runner  *watcher.Runner
	status  *server.StatusStore
	session *browser.Session
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{status: server.NewStatusStore()}

	sink, err := newSink(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := newLineStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	a.session = browser.NewSession(browserOptions(cfg), logger)
	a.closers = append(a.closers, a.session.Close)

	classifier := services.NewClassifierService(classifierOptions(cfg), logger.With(slog.String("component", "classifier")))
	dispatcher := services.NewDispatchService(sink, services.DispatchOptions{
		SettleDelay:    cfg.Browser.SettleDelay,
		BubbleSelector: classifierOptions(cfg).Selectors.Bubble,
	}, logger.With(slog.String("component", "dispatch")))

	uc := usecase.NewEvaluateChatUseCase(
		a.session,
		cache.NewFingerprintCache(store, logger.With(slog.String("component", "cache"))),
		classifier,
		services.NewNoveltyService(),
		dispatcher,
		logger,
		usecase.WithRecorder(a.status),
		usecase.WithChatPause(cfg.Watch.ChatPause),
	)
	a.runner = watcher.NewRunner(uc, cfg.Chats, cfg.Watch.Interval, logger)
	return a, nil
}

func newSink(cfg *config.Config, logger *slog.Logger) (ports.NotificationSink, error) {
	switch cfg.Sink.Kind {
	case config.SinkWebhook:
		return notify.NewWebhookSink(cfg.Sink.Webhook.URL, cfg.Sink.Webhook.Timeout, cfg.Sink.Webhook.Headers, logger), nil
	case config.SinkConsole:
		return notify.NewConsoleSink(os.Stdout), nil
	default:
		sink, err := notify.NewTelegramSink(cfg.Sink.Telegram.Token, cfg.Sink.Telegram.ChatID, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram sink: %w", err)
		}
		return sink, nil
	}
}

func newLineStore(ctx context.Context, cfg *config.Config) (ports.LineStore, error) {
	switch cfg.Cache.Backend {
	case config.CacheSQLite:
		store, err := cache.OpenSQLiteStore(ctx, cfg.Cache.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func browserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		Bin:          cfg.Browser.Bin,
		RemoteURL:    cfg.Browser.RemoteURL,
		Headless:     cfg.Browser.Headless,
		StateFile:    cfg.Browser.StateFile,
		ItemSelector: classifierOptions(cfg).Selectors.Item,
		ReadyTimeout: cfg.Browser.ReadyTimeout,
		SettleDelay:  cfg.Browser.SettleDelay,
		Width:        cfg.Browser.Width,
		Height:       cfg.Browser.Height,
		Scale:        cfg.Browser.Scale,
	}
}

// classifierOptions накладывает селекторы из конфигурации на значения по умолчанию.
func classifierOptions(cfg *config.Config) services.ClassifierOptions {
	opts := services.DefaultClassifierOptions()
	opts.Window = cfg.Watch.Window
	opts.OwnerMarker = cfg.Classifier.OwnerMarker
	opts.EditedMarker = cfg.Classifier.EditedMarker

	s := cfg.Classifier.Selectors
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&opts.Selectors.Item, s.Item)
	override(&opts.Selectors.SystemWrapper, s.SystemWrapper)
	override(&opts.Selectors.SystemText, s.SystemText)
	override(&opts.Selectors.Media, s.Media)
	override(&opts.Selectors.Attachment, s.Attachment)
	override(&opts.Selectors.RegularWrapper, s.RegularWrapper)
	override(&opts.Selectors.SenderName, s.SenderName)
	override(&opts.Selectors.Bubble, s.Bubble)
	return opts
}
