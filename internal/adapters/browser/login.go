package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Login открывает видимый браузер на странице входа, ждет, пока оператор
// авторизуется и вызовет wait, и сохраняет cookies и localStorage в StateFile.
func Login(ctx context.Context, opts Options, loginURL string, wait func() error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	opts.Headless = false

	b, l, err := launch(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = b.Close()
		if l != nil {
			l.Kill()
			l.Cleanup()
		}
	}()

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return fmt.Errorf("failed to create tab: %w", err)
	}
	if err := page.Context(ctx).Navigate(loginURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", loginURL, err)
	}

	if err := wait(); err != nil {
		return err
	}

	state, err := captureState(ctx, page)
	if err != nil {
		return err
	}
	if err := state.Save(opts.StateFile); err != nil {
		return err
	}
	logger.Info("storage state saved",
		slog.String("file", opts.StateFile),
		slog.Int("cookies", len(state.Cookies)),
		slog.Int("origins", len(state.Origins)))
	return nil
}

func captureState(ctx context.Context, page *rod.Page) (*StorageState, error) {
	p := page.Context(ctx)

	cookies, err := proto.NetworkGetCookies{}.Call(p)
	if err != nil {
		return nil, fmt.Errorf("failed to get cookies: %w", err)
	}

	origin, err := p.Eval(`() => window.location.origin`)
	if err != nil {
		return nil, fmt.Errorf("failed to read origin: %w", err)
	}
	local, err := p.Eval(`() => JSON.stringify(Object.assign({}, window.localStorage))`)
	if err != nil {
		return nil, fmt.Errorf("failed to read local storage: %w", err)
	}

	state := &StorageState{Cookies: cookiesFromCDP(cookies.Cookies)}
	if o := localStorageFromJSON(origin.Value.Str(), local.Value.Str()); len(o.LocalStorage) > 0 {
		state.Origins = append(state.Origins, o)
	}
	return state, nil
}
