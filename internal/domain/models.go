package domain

import "time"

// Метки отправителя, которые не берутся со страницы.
const (
	// DirectSender используется для всех сообщений личного чата.
	DirectSender = "Direct"
	// UnknownSender - начальное значение контекста отправителя в групповом чате.
	UnknownSender = "Unknown"
)

// ChatTarget описывает один отслеживаемый чат.
// Name используется и как ключ кэша, и как подпись в уведомлениях.
type ChatTarget struct {
	Name    string `json:"name" yaml:"name"`
	URL     string `json:"url" yaml:"url"`
	IsGroup bool   `json:"is_group" yaml:"group"`
}

// Element - доступ к отрисованному узлу страницы и его потомкам.
// Реализации живут в адаптерах (живая страница браузера или разобранный HTML).
type Element interface {
	// Find возвращает первый потомок, подходящий под CSS-селектор.
	// Отсутствие потомка не является ошибкой: found == false.
	Find(selector string) (el Element, found bool, err error)
	// InnerText возвращает видимый текст узла с переводами строк между блоками.
	InnerText() (string, error)
}

// RenderedItem - один элемент списка сообщений на странице.
// Валиден только в пределах одного прохода (снимка страницы).
type RenderedItem interface {
	Element
	// Serialize возвращает сериализованное содержимое всего поддерева.
	Serialize() (string, error)
}

// SenderContext - последний известный отправитель в пределах одного прохода.
type SenderContext string

// MessageKind определяет вариант классифицированного сообщения.
type MessageKind string

const (
	KindSystem MessageKind = "system"
	KindMedia  MessageKind = "media"
	KindText   MessageKind = "text"
)

// ClassifiedMessage - закрытый набор вариантов: SystemMessage, MediaMessage, TextMessage.
type ClassifiedMessage interface {
	Kind() MessageKind
	ID() Fingerprint
	classified()
}

// SystemMessage - служебное сообщение чата (вход участника, смена названия и т.д.).
type SystemMessage struct {
	Fingerprint Fingerprint
	Text        string
}

// MediaMessage - сообщение с медиа или вложением, доставляется скриншотом.
// CaptureTarget указывает на элемент страницы и недействителен после закрытия снимка.
type MediaMessage struct {
	Fingerprint   Fingerprint
	SenderHint    string
	CaptureTarget Element
}

// TextMessage - обычное текстовое сообщение.
type TextMessage struct {
	Fingerprint Fingerprint
	Sender      string
	Text        string
}

func (m SystemMessage) Kind() MessageKind { return KindSystem }
func (m MediaMessage) Kind() MessageKind  { return KindMedia }
func (m TextMessage) Kind() MessageKind   { return KindText }

func (m SystemMessage) ID() Fingerprint { return m.Fingerprint }
func (m MediaMessage) ID() Fingerprint  { return m.Fingerprint }
func (m TextMessage) ID() Fingerprint   { return m.Fingerprint }

func (SystemMessage) classified() {}
func (MediaMessage) classified()  {}
func (TextMessage) classified()   {}

// DeliveryStatus - итог доставки одного сообщения.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliverySkipped   DeliveryStatus = "skipped"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryResult описывает результат обработки одного нового сообщения.
type DeliveryResult struct {
	Fingerprint Fingerprint
	Kind        MessageKind
	Status      DeliveryStatus
	Err         error
}

// ChatReport - итог одного прохода по чату.
type ChatReport struct {
	CycleID    string        `json:"cycle_id"`
	Chat       string        `json:"chat"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Found      int           `json:"found"`
	New        int           `json:"new"`
	Delivered  int           `json:"delivered"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	CacheSaved bool          `json:"cache_saved"`
	Error      string        `json:"error,omitempty"`
}

// Tally пересчитывает счетчики доставки по результатам.
func (r *ChatReport) Tally(results []DeliveryResult) {
	r.Delivered, r.Skipped, r.Failed = 0, 0, 0
	for _, res := range results {
		switch res.Status {
		case DeliveryDelivered:
			r.Delivered++
		case DeliverySkipped:
			r.Skipped++
		case DeliveryFailed:
			r.Failed++
		}
	}
}
