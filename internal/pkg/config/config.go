// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"chat-forwarder/internal/domain"
)

// Watch содержит параметры цикла опроса
type Watch struct {
	Interval  time.Duration `yaml:"interval"`
	ChatPause time.Duration `yaml:"chat_pause"`
	// Window - сколько последних элементов страницы рассматривать
	Window int `yaml:"window"`
}

// Browser содержит конфигурацию браузера
type Browser struct {
	Bin          string        `yaml:"bin"`
	RemoteURL    string        `yaml:"remote_url"`
	Headless     bool          `yaml:"headless"`
	StateFile    string        `yaml:"state_file"`
	LoginURL     string        `yaml:"login_url"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	Width        int           `yaml:"width"`
	Height       int           `yaml:"height"`
	Scale        float64       `yaml:"scale"`
}

// Selectors содержит CSS-селекторы разметки веб-клиента.
// Пустые значения заменяются селекторами по умолчанию.
type Selectors struct {
	Item           string `yaml:"item"`
	SystemWrapper  string `yaml:"system_wrapper"`
	SystemText     string `yaml:"system_text"`
	Media          string `yaml:"media"`
	Attachment     string `yaml:"attachment"`
	RegularWrapper string `yaml:"regular_wrapper"`
	SenderName     string `yaml:"sender_name"`
	Bubble         string `yaml:"bubble"`
}

// Classifier содержит настройки классификатора
type Classifier struct {
	Selectors    Selectors `yaml:"selectors"`
	OwnerMarker  string    `yaml:"owner_marker"`
	EditedMarker string    `yaml:"edited_marker"`
}

// Telegram содержит конфигурацию Bot API
type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Webhook содержит конфигурацию HTTP-получателя
type Webhook struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// Sink содержит конфигурацию доставки уведомлений
type Sink struct {
	Kind     string   `yaml:"kind"` // telegram, webhook, console
	Telegram Telegram `yaml:"telegram"`
	Webhook  Webhook  `yaml:"webhook"`
}

// Cache содержит конфигурацию хранилища отпечатков
type Cache struct {
	Backend    string `yaml:"backend"` // file, sqlite
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server содержит конфигурацию сервера статуса
type Server struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Chats      []domain.ChatTarget `yaml:"chats"`
	Watch      Watch               `yaml:"watch"`
	Browser    Browser             `yaml:"browser"`
	Classifier Classifier          `yaml:"classifier"`
	Sink       Sink                `yaml:"sink"`
	Cache      Cache               `yaml:"cache"`
	Server     Server              `yaml:"server"`
	Logging    Logging             `yaml:"logging"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию.
func defaultConfig() *Config {
	return &Config{
		Watch: Watch{
			Interval:  DefaultInterval,
			ChatPause: DefaultChatPause,
			Window:    DefaultWindow,
		},
		Browser: Browser{
			Headless:     true,
			StateFile:    DefaultStateFile,
			ReadyTimeout: DefaultReadyTimeout,
			SettleDelay:  DefaultSettleDelay,
			Width:        DefaultViewportW,
			Height:       DefaultViewportH,
			Scale:        DefaultScale,
		},
		Classifier: Classifier{
			OwnerMarker:  "владелец",
			EditedMarker: "ред.",
		},
		Sink: Sink{
			Kind:    DefaultSinkKind,
			Webhook: Webhook{Timeout: DefaultWebhookTimeout},
		},
		Cache: Cache{
			Backend:    DefaultCacheBackend,
			Dir:        DefaultCacheDir,
			SQLitePath: DefaultSQLitePath,
		},
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig собирает конфигурацию: значения по умолчанию, .env, YAML-файл,
// старый плоский config.json и, поверх всего, переменные окружения.
// Отсутствующие файлы пропускаются. Проверку выполняет Validate.
func LoadConfig(yamlPath, legacyPath string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(yamlPath, cfg); err != nil {
		return nil, err
	}
	if err := loadLegacyJSON(legacyPath, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromYAML накладывает YAML-файл на cfg. Отсутствие файла не ошибка.
func loadFromYAML(filename string, cfg *Config) error {
	if filename == "" {
		return nil
	}
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// applyEnv применяет переопределения из переменных окружения.
func applyEnv(cfg *Config) error {
	if token := getEnv("TELEGRAM_BOT_TOKEN", ""); token != "" {
		cfg.Sink.Telegram.Token = token
	}
	if chatID := getEnv("TELEGRAM_CHAT_ID", ""); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("недопустимый TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Sink.Telegram.ChatID = id
	}
	if interval := getEnv("CHECK_INTERVAL_SECONDS", ""); interval != "" {
		seconds, err := strconv.Atoi(interval)
		if err != nil {
			return fmt.Errorf("недопустимый CHECK_INTERVAL_SECONDS: %w", err)
		}
		cfg.Watch.Interval = time.Duration(seconds) * time.Second
	}
	if level := getEnv("LOG_LEVEL", ""); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Secrets возвращает значения, которые нельзя выводить в логи.
func (c *Config) Secrets() []string {
	var secrets []string
	if c.Sink.Telegram.Token != "" {
		secrets = append(secrets, c.Sink.Telegram.Token)
	}
	for _, v := range c.Sink.Webhook.Headers {
		if v != "" {
			secrets = append(secrets, v)
		}
	}
	return secrets
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if len(c.Chats) == 0 {
		return fmt.Errorf("не задано ни одного чата для отслеживания")
	}
	seen := make(map[string]struct{}, len(c.Chats))
	for i, chat := range c.Chats {
		if chat.Name == "" {
			return fmt.Errorf("chats[%d].name не может быть пустым", i)
		}
		if chat.URL == "" {
			return fmt.Errorf("chats[%d].url не может быть пустым", i)
		}
		if _, ok := seen[chat.Name]; ok {
			return fmt.Errorf("chats[%d]: чат %q указан дважды", i, chat.Name)
		}
		seen[chat.Name] = struct{}{}
	}

	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval должен быть положительным")
	}
	if c.Watch.ChatPause < 0 {
		return fmt.Errorf("watch.chat_pause должен быть неотрицательным")
	}
	if c.Watch.Window <= 0 {
		return fmt.Errorf("watch.window должен быть положительным")
	}

	if c.Browser.ReadyTimeout <= 0 {
		return fmt.Errorf("browser.ready_timeout должен быть положительным")
	}
	if c.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay должен быть неотрицательным")
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 || c.Browser.Scale <= 0 {
		return fmt.Errorf("browser.width, browser.height и browser.scale должны быть положительными")
	}

	switch c.Sink.Kind {
	case SinkTelegram:
		if c.Sink.Telegram.Token == "" {
			return fmt.Errorf("sink.telegram.token не задан (или TELEGRAM_BOT_TOKEN)")
		}
		if c.Sink.Telegram.ChatID == 0 {
			return fmt.Errorf("sink.telegram.chat_id не задан (или TELEGRAM_CHAT_ID)")
		}
	case SinkWebhook:
		if c.Sink.Webhook.URL == "" {
			return fmt.Errorf("sink.webhook.url не может быть пустым")
		}
		if c.Sink.Webhook.Timeout <= 0 {
			return fmt.Errorf("sink.webhook.timeout должен быть положительным")
		}
	case SinkConsole:
	default:
		return fmt.Errorf("sink.kind должен быть одним из: telegram, webhook, console")
	}

	switch c.Cache.Backend {
	case CacheFile:
	case CacheSQLite:
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path не может быть пустым")
		}
	default:
		return fmt.Errorf("cache.backend должен быть одним из: file, sqlite")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
		}
		if c.Server.ShutdownTimeout <= 0 {
			return fmt.Errorf("server.shutdown_timeout должен быть положительным")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
