package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/ports"
)

// Selectors описывает CSS-селекторы разметки веб-клиента чата.
type Selectors struct {
	Item           string
	SystemWrapper  string
	SystemText     string
	Media          string
	Attachment     string
	RegularWrapper string
	SenderName     string
	Bubble         string
}

// DefaultSelectors возвращает селекторы текущей разметки веб-клиента.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:           "div.item[data-index]",
		SystemWrapper:  "div.messageWrapper--control",
		SystemText:     "div.message",
		Media:          "div.media",
		Attachment:     "div.attaches",
		RegularWrapper: "div.messageWrapper:not(.messageWrapper--control)",
		SenderName:     "span.name",
		Bubble:         `div[class*="bubble"]`,
	}
}

// ClassifierOptions настраивает ClassifierService.
type ClassifierOptions struct {
	Selectors Selectors
	// Window - сколько последних элементов страницы рассматривать.
	Window int
	// OwnerMarker - подпись роли владельца, которую надо вырезать из текста.
	OwnerMarker string
	// EditedMarker - пометка отредактированного сообщения после времени.
	EditedMarker string
}

// DefaultClassifierOptions возвращает настройки по умолчанию.
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		Selectors:    DefaultSelectors(),
		Window:       50,
		OwnerMarker:  "владелец",
		EditedMarker: "ред.",
	}
}

// ClassifierService реализует интерфейс Classifier.
type ClassifierService struct {
	opts      ClassifierOptions
	timestamp *regexp.Regexp
	logger    *slog.Logger
}

// NewClassifierService создает новый экземпляр ClassifierService.
func NewClassifierService(opts ClassifierOptions, logger *slog.Logger) *ClassifierService {
	if opts.Window <= 0 {
		opts.Window = DefaultClassifierOptions().Window
	}
	if logger == nil {
		logger = slog.Default()
	}
	pattern := `^\d{2}:\d{2}`
	if opts.EditedMarker != "" {
		pattern += `(` + regexp.QuoteMeta(" "+opts.EditedMarker) + `)?`
	}
	return &ClassifierService{
		opts:      opts,
		timestamp: regexp.MustCompile(pattern + `$`),
		logger:    logger,
	}
}

var _ ports.Classifier = (*ClassifierService)(nil)

// Classify проходит по последним элементам снимка слева направо и
// классифицирует каждый, протаскивая контекст отправителя между элементами.
func (s *ClassifierService) Classify(ctx context.Context, items []domain.RenderedItem, isGroup bool) ([]domain.ClassifiedMessage, error) {
	if len(items) > s.opts.Window {
		items = items[len(items)-s.opts.Window:]
	}

	var messages []domain.ClassifiedMessage
	sender := domain.SenderContext(domain.UnknownSender)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, next, err := s.ClassifyItem(item, isGroup, sender)
		if err != nil {
			return nil, fmt.Errorf("failed to classify item %d: %w", i, err)
		}
		sender = next
		if msg != nil {
			messages = append(messages, msg)
		}
	}

	s.logger.Debug("classified snapshot", slog.Int("items", len(items)), slog.Int("messages", len(messages)))
	return messages, nil
}

// ClassifyItem классифицирует один элемент. Возвращает nil-сообщение, если
// элемент не несет содержимого, и обновленный контекст отправителя.
func (s *ClassifierService) ClassifyItem(item domain.RenderedItem, isGroup bool, sender domain.SenderContext) (domain.ClassifiedMessage, domain.SenderContext, error) {
	content, err := item.Serialize()
	if err != nil {
		return nil, sender, err
	}
	fp := domain.NewFingerprint(content)
	sel := s.opts.Selectors

	// Служебное сообщение никогда не проваливается в следующие проверки.
	wrapper, found, err := item.Find(sel.SystemWrapper)
	if err != nil {
		return nil, sender, err
	}
	if found {
		text, err := findText(wrapper, sel.SystemText)
		if err != nil || text == "" {
			return nil, sender, err
		}
		return domain.SystemMessage{Fingerprint: fp, Text: text}, sender, nil
	}

	media, err := hasAny(item, sel.Media, sel.Attachment)
	if err != nil {
		return nil, sender, err
	}
	if media {
		name, found, err := findTextIfPresent(item, sel.SenderName)
		if err != nil {
			return nil, sender, err
		}
		if found {
			sender = domain.SenderContext(name)
		}
		return domain.MediaMessage{Fingerprint: fp, SenderHint: string(sender), CaptureTarget: item}, sender, nil
	}

	wrapper, found, err = item.Find(sel.RegularWrapper)
	if err != nil || !found {
		return nil, sender, err
	}

	author := domain.DirectSender
	if isGroup {
		name, found, err := findTextIfPresent(wrapper, sel.SenderName)
		if err != nil {
			return nil, sender, err
		}
		if found {
			sender = domain.SenderContext(name)
		}
		author = string(sender)
	}

	bubble, found, err := wrapper.Find(sel.Bubble)
	if err != nil || !found {
		return nil, sender, err
	}
	raw, err := bubble.InnerText()
	if err != nil {
		return nil, sender, err
	}

	text := s.stripNoise(strings.TrimSpace(raw), author)
	if text == "" {
		return nil, sender, nil
	}
	return domain.TextMessage{Fingerprint: fp, Sender: author, Text: text}, sender, nil
}

// stripNoise убирает строки с именем отправителя, ролью владельца и временем.
func (s *ClassifierService) stripNoise(text, author string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line == author || s.opts.OwnerMarker != "" && line == s.opts.OwnerMarker || s.timestamp.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func hasAny(el domain.Element, selectors ...string) (bool, error) {
	for _, selector := range selectors {
		if selector == "" {
			continue
		}
		_, found, err := el.Find(selector)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// findText возвращает обрезанный текст потомка или пустую строку, если его нет.
func findText(el domain.Element, selector string) (string, error) {
	text, _, err := findTextIfPresent(el, selector)
	return text, err
}

func findTextIfPresent(el domain.Element, selector string) (string, bool, error) {
	child, found, err := el.Find(selector)
	if err != nil || !found {
		return "", false, err
	}
	text, err := child.InnerText()
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(text), true, nil
}
