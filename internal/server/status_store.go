package server

import (
	"sort"
	"sync"
	"time"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/ports"
)

// ChatStatus - последний известный итог по чату и накопленные счетчики.
type ChatStatus struct {
	Last           domain.ChatReport `json:"last"`
	Cycles         int               `json:"cycles"`
	TotalDelivered int               `json:"total_delivered"`
	TotalFailed    int               `json:"total_failed"`
}

// StatusStore хранит итоги проходов для страницы статуса.
// Пишет цикл наблюдения, читают HTTP-обработчики.
type StatusStore struct {
	chats     map[string]*ChatStatus
	startedAt time.Time
	mutex     sync.RWMutex
}

// NewStatusStore создает новый экземпляр StatusStore
func NewStatusStore() *StatusStore {
	return &StatusStore{
		chats:     make(map[string]*ChatStatus),
		startedAt: time.Now(),
	}
}

var _ ports.ReportRecorder = (*StatusStore)(nil)

// Record сохраняет итог прохода по чату
func (s *StatusStore) Record(report domain.ChatReport) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st, ok := s.chats[report.Chat]
	if !ok {
		st = &ChatStatus{}
		s.chats[report.Chat] = st
	}
	st.Last = report
	st.Cycles++
	st.TotalDelivered += report.Delivered
	st.TotalFailed += report.Failed
}

// Get возвращает статус чата по имени
func (s *StatusStore) Get(chat string) (ChatStatus, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	st, ok := s.chats[chat]
	if !ok {
		return ChatStatus{}, false
	}
	return *st, true
}

// List возвращает статусы всех чатов, упорядоченные по имени
func (s *StatusStore) List() []ChatStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]ChatStatus, 0, len(s.chats))
	for _, st := range s.chats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Last.Chat < out[j].Last.Chat })
	return out
}

// Uptime возвращает время с момента создания хранилища
func (s *StatusStore) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
