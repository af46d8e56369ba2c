package ports

import (
	"context"

	"chat-forwarder/internal/domain"
)

// BrowserSession определяет интерфейс получения снимков страниц чатов.
type BrowserSession interface {
	// Snapshot открывает страницу чата, дожидается списка сообщений и
	// возвращает снимок. Снимок обязательно закрывается вызывающей стороной.
	Snapshot(ctx context.Context, target domain.ChatTarget) (Snapshot, error)
}

// Capturer делает скриншот элемента текущего снимка.
type Capturer interface {
	Capture(ctx context.Context, el domain.Element) ([]byte, error)
}

// Snapshot - один проход по отрисованному списку сообщений.
// Все элементы снимка становятся недействительными после Close.
type Snapshot interface {
	Capturer
	Items() []domain.RenderedItem
	Close() error
}

// NotificationSink определяет интерфейс доставки уведомлений.
type NotificationSink interface {
	// SendText отправляет текст в HTML-разметке.
	SendText(ctx context.Context, text string) error
	// SendImage отправляет PNG-изображение с подписью в HTML-разметке.
	SendImage(ctx context.Context, png []byte, caption string) error
}

// LineStore - долговременное хранилище строк по ключу.
type LineStore interface {
	// ReadLines возвращает строки по ключу; found == false, если записи нет.
	ReadLines(ctx context.Context, key string) (lines []string, found bool, err error)
	// WriteLines целиком заменяет записанные строки.
	WriteLines(ctx context.Context, key string, lines []string) error
}

// FingerprintCache хранит отпечатки уже доставленных сообщений по чатам.
type FingerprintCache interface {
	// Load никогда не возвращает ошибку: испорченный кэш считается пустым.
	Load(ctx context.Context, chatName string) *domain.FingerprintSet
	Save(ctx context.Context, chatName string, set *domain.FingerprintSet) error
}

// Classifier превращает элементы снимка в типизированные сообщения.
type Classifier interface {
	Classify(ctx context.Context, items []domain.RenderedItem, isGroup bool) ([]domain.ClassifiedMessage, error)
}

// NoveltyFilter отбирает новые сообщения и вычисляет новое содержимое кэша.
type NoveltyFilter interface {
	Filter(messages []domain.ClassifiedMessage, seen *domain.FingerprintSet) (fresh []domain.ClassifiedMessage, observed *domain.FingerprintSet)
}

// Dispatcher доставляет новые сообщения в NotificationSink.
type Dispatcher interface {
	Dispatch(ctx context.Context, target domain.ChatTarget, capturer Capturer, messages []domain.ClassifiedMessage) []domain.DeliveryResult
}

// ReportRecorder принимает итоги проходов по чатам (например, для страницы статуса).
type ReportRecorder interface {
	Record(report domain.ChatReport)
}
