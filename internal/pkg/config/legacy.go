package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"chat-forwarder/internal/domain"
)

const legacyChatPrefix = "VK_MESSAGES_URL_"

// loadLegacyJSON читает плоский config.json старых установок:
//
//	{"VK_MESSAGES_URL_GROUP_Work": "https://...", "VK_MESSAGES_URL_DIRECT_Mom": "https://...",
//	 "TELEGRAM_BOT_TOKEN": "...", "TELEGRAM_CHAT_ID": "-100...", "CHECK_INTERVAL_SECONDS": 300}
//
// Чаты добавляются к заданным в YAML, токен и chat id заполняют только
// пустые поля. Отсутствие файла не ошибка.
func loadLegacyJSON(filename string, cfg *Config) error {
	if filename == "" {
		return nil
	}
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл %s: %w", filename, err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("файл %s не является корректным JSON", filename)
	}

	root := gjson.ParseBytes(data)
	root.ForEach(func(key, value gjson.Result) bool {
		if chat, ok := parseLegacyChat(key.String(), value.String()); ok {
			cfg.Chats = append(cfg.Chats, chat)
		}
		return true
	})

	if token := root.Get("TELEGRAM_BOT_TOKEN"); token.Exists() && cfg.Sink.Telegram.Token == "" {
		cfg.Sink.Telegram.Token = token.String()
	}
	if chatID := root.Get("TELEGRAM_CHAT_ID"); chatID.Exists() && cfg.Sink.Telegram.ChatID == 0 {
		cfg.Sink.Telegram.ChatID = chatID.Int()
	}
	if interval := root.Get("CHECK_INTERVAL_SECONDS"); interval.Exists() && interval.Int() > 0 {
		cfg.Watch.Interval = time.Duration(interval.Int()) * time.Second
	}
	return nil
}

// parseLegacyChat разбирает ключ VK_MESSAGES_URL_<TYPE>_<Name>.
// Имя может содержать подчеркивания; тип GROUP означает групповой чат.
func parseLegacyChat(key, url string) (domain.ChatTarget, bool) {
	if !strings.HasPrefix(key, legacyChatPrefix) {
		return domain.ChatTarget{}, false
	}
	parts := strings.SplitN(key, "_", 5)
	if len(parts) < 5 || parts[4] == "" || url == "" {
		return domain.ChatTarget{}, false
	}
	return domain.ChatTarget{
		Name:    parts[4],
		URL:     url,
		IsGroup: strings.EqualFold(parts[3], "GROUP"),
	}, true
}
