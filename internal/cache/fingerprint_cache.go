// Package cache хранит отпечатки доставленных сообщений между запусками.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/ports"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// StorageKey выводит ключ хранилища из названия чата, удаляя все символы
// вне [A-Za-z0-9_-]. Разные названия, дающие один ключ, делят один кэш.
func StorageKey(chatName string) string {
	return unsafeKeyChars.ReplaceAllString(chatName, "")
}

// FingerprintCache реализует интерфейс ports.FingerprintCache поверх LineStore.
type FingerprintCache struct {
	store  ports.LineStore
	logger *slog.Logger
}

// NewFingerprintCache создает новый экземпляр FingerprintCache.
func NewFingerprintCache(store ports.LineStore, logger *slog.Logger) *FingerprintCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FingerprintCache{store: store, logger: logger}
}

var _ ports.FingerprintCache = (*FingerprintCache)(nil)

// Load возвращает отпечатки чата. Отсутствующий или нечитаемый кэш
// считается пустым: в худшем случае сообщения будут доставлены повторно.
func (c *FingerprintCache) Load(ctx context.Context, chatName string) *domain.FingerprintSet {
	key := StorageKey(chatName)
	lines, found, err := c.store.ReadLines(ctx, key)
	if err != nil {
		c.logger.Warn("fingerprint cache unreadable, starting empty",
			slog.String("chat", chatName), slog.String("key", key), slog.Any("error", err))
		return domain.NewFingerprintSet()
	}
	if !found {
		return domain.NewFingerprintSet()
	}

	set := domain.NewFingerprintSet()
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		set.Add(domain.Fingerprint(line))
	}
	return set
}

// Save целиком заменяет сохраненные отпечатки чата.
func (c *FingerprintCache) Save(ctx context.Context, chatName string, set *domain.FingerprintSet) error {
	key := StorageKey(chatName)
	fps := set.List()
	lines := make([]string, len(fps))
	for i, fp := range fps {
		lines[i] = string(fp)
	}
	if err := c.store.WriteLines(ctx, key, lines); err != nil {
		return fmt.Errorf("failed to save fingerprint cache for %q: %w", chatName, err)
	}
	return nil
}
