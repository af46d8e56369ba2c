package services

import (
	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/ports"
)

// NoveltyService реализует интерфейс NoveltyFilter.
type NoveltyService struct{}

// NewNoveltyService создает новый экземпляр NoveltyService.
func NewNoveltyService() *NoveltyService {
	return &NoveltyService{}
}

var _ ports.NoveltyFilter = (*NoveltyService)(nil)

// Filter возвращает сообщения, чьих отпечатков нет в seen, в исходном порядке,
// и полный набор отпечатков прохода. Кэш заменяется этим набором целиком,
// поэтому отпечатки сообщений, ушедших из окна, вытесняются сами.
func (s *NoveltyService) Filter(messages []domain.ClassifiedMessage, seen *domain.FingerprintSet) ([]domain.ClassifiedMessage, *domain.FingerprintSet) {
	var fresh []domain.ClassifiedMessage
	observed := domain.NewFingerprintSet()
	for _, msg := range messages {
		observed.Add(msg.ID())
		if !seen.Has(msg.ID()) {
			fresh = append(fresh, msg)
		}
	}
	return fresh, observed
}
