package log

import (
	"fmt"
	"log/slog"
)

// debugDumpWidth ограничивает длину дампов запросов Bot API в логе.
const debugDumpWidth = 512

// TGBotAPIAdapter направляет внутренний логгер go-telegram-bot-api/v5 в slog.
// Библиотека пишет туда дампы запросов и ответов, поэтому все уходит в debug,
// а длинные строки сворачиваются через Preview.
type TGBotAPIAdapter struct {
	Logger *slog.Logger
}

// NewTGBotAPIAdapter создает адаптер с пометкой компонента.
func NewTGBotAPIAdapter(logger *slog.Logger) *TGBotAPIAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))}
}

// Println реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	a.Logger.Debug(Preview(fmt.Sprint(v...), debugDumpWidth))
}

// Printf реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.Logger.Debug(Preview(fmt.Sprintf(format, v...), debugDumpWidth))
}
