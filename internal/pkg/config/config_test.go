package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-forwarder/internal/domain"
)

const fullYAML = `
chats:
  - name: "Work"
    url: "https://web.example.com/chats/1"
    group: true
  - name: "Mom"
    url: "https://web.example.com/chats/2"
watch:
  interval: 2m
  chat_pause: 3s
  window: 30
browser:
  headless: false
  state_file: "auth/state.json"
  ready_timeout: 45s
classifier:
  selectors:
    item: "li.msg"
sink:
  kind: webhook
  webhook:
    url: "http://localhost:9000/hook"
    headers:
      Authorization: "Bearer s3cret"
cache:
  backend: sqlite
  sqlite_path: "/var/lib/forwarder/fp.db"
server:
  enabled: true
  port: 8081
logging:
  level: "debug"
  format: "text"
`

const legacyJSON = `{
  "VK_MESSAGES_URL_GROUP_Team_Chat": "https://web.example.com/chats/3",
  "VK_MESSAGES_URL_DIRECT_Alice": "https://web.example.com/chats/4",
  "VK_MESSAGES_URL_BROKEN": "https://web.example.com/chats/5",
  "TELEGRAM_BOT_TOKEN": "123456:legacy",
  "TELEGRAM_CHAT_ID": "-100500",
  "CHECK_INTERVAL_SECONDS": 120
}`

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "CHECK_INTERVAL_SECONDS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Run("Полный файл", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, loadFromYAML(createTempFile(t, "config.yml", fullYAML), cfg))

		require.Len(t, cfg.Chats, 2)
		assert.Equal(t, domain.ChatTarget{Name: "Work", URL: "https://web.example.com/chats/1", IsGroup: true}, cfg.Chats[0])
		assert.False(t, cfg.Chats[1].IsGroup)

		assert.Equal(t, 2*time.Minute, cfg.Watch.Interval)
		assert.Equal(t, 3*time.Second, cfg.Watch.ChatPause)
		assert.Equal(t, 30, cfg.Watch.Window)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 45*time.Second, cfg.Browser.ReadyTimeout)
		assert.Equal(t, "li.msg", cfg.Classifier.Selectors.Item)
		assert.Equal(t, SinkWebhook, cfg.Sink.Kind)
		assert.Equal(t, "Bearer s3cret", cfg.Sink.Webhook.Headers["Authorization"])
		assert.Equal(t, CacheSQLite, cfg.Cache.Backend)
		assert.Equal(t, "127.0.0.1:8081", cfg.Address())
		assert.Equal(t, "text", cfg.Logging.Format)
		require.NoError(t, cfg.Validate())
	})

	t.Run("Незаданные поля сохраняют значения по умолчанию", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, loadFromYAML(createTempFile(t, "config.yml", fullYAML), cfg))

		assert.Equal(t, DefaultSettleDelay, cfg.Browser.SettleDelay)
		assert.Equal(t, DefaultViewportW, cfg.Browser.Width)
		assert.Equal(t, DefaultWebhookTimeout, cfg.Sink.Webhook.Timeout)
		assert.Equal(t, "владелец", cfg.Classifier.OwnerMarker)
	})

	t.Run("Отсутствие файла не ошибка", func(t *testing.T) {
		cfg := defaultConfig()
		assert.NoError(t, loadFromYAML("non_existent_file.yml", cfg))
	})

	t.Run("Некорректный YAML", func(t *testing.T) {
		cfg := defaultConfig()
		assert.Error(t, loadFromYAML(createTempFile(t, "config.yml", "invalid yaml: {"), cfg))
	})
}

func TestLoadLegacyJSON(t *testing.T) {
	t.Run("Чаты и параметры старого формата", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, loadLegacyJSON(createTempFile(t, "config.json", legacyJSON), cfg))

		assert.Equal(t, []domain.ChatTarget{
			{Name: "Team_Chat", URL: "https://web.example.com/chats/3", IsGroup: true},
			{Name: "Alice", URL: "https://web.example.com/chats/4"},
		}, cfg.Chats)
		assert.Equal(t, "123456:legacy", cfg.Sink.Telegram.Token)
		assert.Equal(t, int64(-100500), cfg.Sink.Telegram.ChatID)
		assert.Equal(t, 2*time.Minute, cfg.Watch.Interval)
	})

	t.Run("Токен из YAML не перетирается", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Sink.Telegram.Token = "from-yaml"
		require.NoError(t, loadLegacyJSON(createTempFile(t, "config.json", legacyJSON), cfg))
		assert.Equal(t, "from-yaml", cfg.Sink.Telegram.Token)
	})

	t.Run("Некорректный JSON", func(t *testing.T) {
		cfg := defaultConfig()
		assert.Error(t, loadLegacyJSON(createTempFile(t, "config.json", `{"a":`), cfg))
	})

	t.Run("Тип чата без учета регистра", func(t *testing.T) {
		group, ok := parseLegacyChat("VK_MESSAGES_URL_Group_X", "https://web.example.com/chats/5")
		require.True(t, ok)
		assert.True(t, group.IsGroup)
		assert.Equal(t, "X", group.Name)

		direct, ok := parseLegacyChat("VK_MESSAGES_URL_direct_Y", "https://web.example.com/chats/6")
		require.True(t, ok)
		assert.False(t, direct.IsGroup)
	})

	t.Run("Отсутствие файла не ошибка", func(t *testing.T) {
		assert.NoError(t, loadLegacyJSON(filepath.Join(t.TempDir(), "none.json"), defaultConfig()))
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("Переменные окружения важнее файлов", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_BOT_TOKEN", "123456:env")
		t.Setenv("TELEGRAM_CHAT_ID", "42")
		t.Setenv("CHECK_INTERVAL_SECONDS", "60")
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := LoadConfig("", createTempFile(t, "config.json", legacyJSON))
		require.NoError(t, err)
		assert.Equal(t, "123456:env", cfg.Sink.Telegram.Token)
		assert.Equal(t, int64(42), cfg.Sink.Telegram.ChatID)
		assert.Equal(t, time.Minute, cfg.Watch.Interval)
		assert.Equal(t, "warn", cfg.Logging.Level)
		require.NoError(t, cfg.Validate())
	})

	t.Run("Некорректный TELEGRAM_CHAT_ID", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_CHAT_ID", "abc")
		_, err := LoadConfig("", "")
		assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
	})

	t.Run("Чаты из YAML и старого файла объединяются", func(t *testing.T) {
		clearEnv(t)
		cfg, err := LoadConfig(createTempFile(t, "config.yml", fullYAML), createTempFile(t, "config.json", legacyJSON))
		require.NoError(t, err)
		assert.Len(t, cfg.Chats, 4)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Chats = []domain.ChatTarget{{Name: "Work", URL: "https://web.example.com/chats/1", IsGroup: true}}
		cfg.Sink.Telegram = Telegram{Token: "123456:token", ChatID: 42}
		return cfg
	}
	require.NoError(t, valid().Validate())

	testCases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"нет чатов", func(c *Config) { c.Chats = nil }, "ни одного чата"},
		{"чат без url", func(c *Config) { c.Chats[0].URL = "" }, "chats[0].url"},
		{"дубликат чата", func(c *Config) { c.Chats = append(c.Chats, c.Chats[0]) }, "указан дважды"},
		{"нулевой интервал", func(c *Config) { c.Watch.Interval = 0 }, "watch.interval"},
		{"нулевое окно", func(c *Config) { c.Watch.Window = 0 }, "watch.window"},
		{"нет токена", func(c *Config) { c.Sink.Telegram.Token = "" }, "sink.telegram.token"},
		{"нет chat id", func(c *Config) { c.Sink.Telegram.ChatID = 0 }, "sink.telegram.chat_id"},
		{"webhook без url", func(c *Config) { c.Sink.Kind = SinkWebhook }, "sink.webhook.url"},
		{"неизвестный sink", func(c *Config) { c.Sink.Kind = "pigeon" }, "sink.kind"},
		{"неизвестный кэш", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"плохой порт", func(c *Config) { c.Server.Enabled = true; c.Server.Port = 70000 }, "server.port"},
		{"плохой уровень логов", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"плохой формат логов", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.errMsg)
		})
	}

	t.Run("console не требует токена", func(t *testing.T) {
		cfg := valid()
		cfg.Sink = Sink{Kind: SinkConsole}
		assert.NoError(t, cfg.Validate())
	})
}

func TestSecrets(t *testing.T) {
	cfg := defaultConfig()
	cfg.Sink.Telegram.Token = "123456:token"
	cfg.Sink.Webhook.Headers = map[string]string{"Authorization": "Bearer x"}
	assert.ElementsMatch(t, []string{"123456:token", "Bearer x"}, cfg.Secrets())
}
