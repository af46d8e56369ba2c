package config

import "time"

// Default values for configuration.
const (
	DefaultConfigFile = "config.yml"
	DefaultLegacyFile = "config.json"

	// Watch defaults
	DefaultInterval  = 300 * time.Second
	DefaultChatPause = 0 * time.Second
	DefaultWindow    = 50

	// Browser defaults
	DefaultStateFile    = "storageState.json"
	DefaultReadyTimeout = 30 * time.Second
	DefaultSettleDelay  = 2 * time.Second
	DefaultViewportW    = 1280
	DefaultViewportH    = 720
	DefaultScale        = 2.0

	// Sink defaults
	DefaultSinkKind       = SinkTelegram
	DefaultWebhookTimeout = 30 * time.Second

	// Cache defaults
	DefaultCacheBackend = CacheFile
	DefaultCacheDir     = "."
	DefaultSQLitePath   = "fingerprints.db"

	// Server defaults
	DefaultServerHost      = "127.0.0.1"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = 15 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Значения sink.kind.
const (
	SinkTelegram = "telegram"
	SinkWebhook  = "webhook"
	SinkConsole  = "console"
)

// Значения cache.backend.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
)
