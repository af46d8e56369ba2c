package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-forwarder/internal/adapters/htmldom"
	"chat-forwarder/internal/cache"
	"chat-forwarder/internal/core/services"
	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/ports"
)

// fakeSnapshot - снимок поверх разобранного HTML.
type fakeSnapshot struct {
	items  []domain.RenderedItem
	closed bool
}

func (s *fakeSnapshot) Items() []domain.RenderedItem { return s.items }

func (s *fakeSnapshot) Capture(_ context.Context, _ domain.Element) ([]byte, error) {
	if s.closed {
		return nil, domain.ErrPassClosed
	}
	return []byte("png"), nil
}

func (s *fakeSnapshot) Close() error {
	s.closed = true
	return nil
}

// fakeSession отдает заранее заданные страницы по имени чата.
type fakeSession struct {
	mu        sync.Mutex
	pages     map[string]string
	errs      map[string]error
	snapshots []*fakeSnapshot
}

func (s *fakeSession) Snapshot(_ context.Context, target domain.ChatTarget) (ports.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[target.Name]; err != nil {
		return nil, err
	}
	doc, err := htmldom.ParseString(s.pages[target.Name])
	if err != nil {
		return nil, err
	}
	snap := &fakeSnapshot{items: doc.Items(services.DefaultSelectors().Item)}
	s.snapshots = append(s.snapshots, snap)
	return snap, nil
}

// recordingSink запоминает все уведомления.
type recordingSink struct {
	mu       sync.Mutex
	texts    []string
	captions []string
	err      error
	onSend   func()
}

func (s *recordingSink) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onSend != nil {
		s.onSend()
	}
	s.texts = append(s.texts, text)
	return s.err
}

func (s *recordingSink) SendImage(_ context.Context, _ []byte, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captions = append(s.captions, caption)
	return s.err
}

type failingClassifier struct{ err error }

func (c failingClassifier) Classify(context.Context, []domain.RenderedItem, bool) ([]domain.ClassifiedMessage, error) {
	return nil, c.err
}

type reportCollector struct{ reports []domain.ChatReport }

func (c *reportCollector) Record(r domain.ChatReport) { c.reports = append(c.reports, r) }

type fixture struct {
	session *fakeSession
	sink    *recordingSink
	store   *cache.FileStore
	cache   *cache.FingerprintCache
	logger  *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return &fixture{
		session: &fakeSession{pages: map[string]string{}, errs: map[string]error{}},
		sink:    &recordingSink{},
		store:   store,
		cache:   cache.NewFingerprintCache(store, logger),
		logger:  logger,
	}
}

func (f *fixture) useCase(opts ...Option) *EvaluateChatUseCase {
	return f.useCaseWith(services.NewClassifierService(services.DefaultClassifierOptions(), f.logger), opts...)
}

func (f *fixture) useCaseWith(classifier ports.Classifier, opts ...Option) *EvaluateChatUseCase {
	uc := NewEvaluateChatUseCase(
		f.session,
		f.cache,
		classifier,
		services.NewNoveltyService(),
		services.NewDispatchService(f.sink, services.DispatchOptions{}, f.logger),
		f.logger,
		opts...,
	)
	uc.newID = func() string { return "cycle-1" }
	return uc
}

func page(items ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="history">`)
	for _, item := range items {
		b.WriteString(`<div class="item" data-index="0">` + item + `</div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

const (
	systemJoined = `<div class="messageWrapper messageWrapper--control"><div class="message">User joined</div></div>`
	mediaByBob   = `<div class="messageWrapper"><span class="name">Bob</span><div class="bubble"><div class="media"><img src="a.jpg"></div></div></div>`
	textHello    = `<div class="messageWrapper"><div class="bubble"><div>Hello</div><div>12:01</div></div></div>`
	textBye      = `<div class="messageWrapper"><div class="bubble"><div>Bye</div><div>12:05</div></div></div>`
)

var work = domain.ChatTarget{Name: "Work", URL: "https://web.example.com/chats/1", IsGroup: true}

func TestEvaluateChatUseCase_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("Три новых сообщения, затем повторный проход без новых", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["Work"] = page(systemJoined, mediaByBob, textHello)
		uc := f.useCase()

		report := uc.Evaluate(ctx, "c1", work)
		assert.Empty(t, report.Error)
		assert.Equal(t, 3, report.Found)
		assert.Equal(t, 3, report.New)
		assert.Equal(t, 3, report.Delivered)
		assert.True(t, report.CacheSaved)

		assert.Equal(t, []string{
			"<i>(Системное сообщение в 'Work')</i>\nUser joined",
			"<b>Bob</b> (<i>Work</i>):\nHello",
		}, f.sink.texts)
		assert.Equal(t, []string{"<i>(Новое в чате 'Work')</i>"}, f.sink.captions)
		assert.Equal(t, 3, f.cache.Load(ctx, "Work").Len())

		again := uc.Evaluate(ctx, "c2", work)
		assert.Equal(t, 3, again.Found)
		assert.Zero(t, again.New)
		assert.Len(t, f.sink.texts, 2)
		assert.Len(t, f.sink.captions, 1)
	})

	t.Run("Доставляется только появившееся сообщение", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["Work"] = page(systemJoined, textHello)
		uc := f.useCase()
		uc.Evaluate(ctx, "c1", work)

		f.session.pages["Work"] = page(systemJoined, textHello, textBye)
		report := uc.Evaluate(ctx, "c2", work)
		assert.Equal(t, 1, report.New)
		assert.Equal(t, "<b>Unknown</b> (<i>Work</i>):\nBye", f.sink.texts[len(f.sink.texts)-1])
	})

	t.Run("Ошибка снимка не трогает кэш", func(t *testing.T) {
		f := newFixture(t)
		f.session.errs["Work"] = errors.New("navigation timeout")

		report := f.useCase().Evaluate(ctx, "c1", work)
		assert.Contains(t, report.Error, "navigation timeout")
		assert.False(t, report.CacheSaved)
		_, err := os.Stat(f.store.Path(cache.StorageKey("Work")))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Ошибка классификации не трогает кэш", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["Work"] = page(textHello)
		require.NoError(t, f.cache.Save(ctx, "Work", domain.NewFingerprintSet("old")))

		report := f.useCaseWith(failingClassifier{err: domain.ErrPassClosed}).Evaluate(ctx, "c1", work)
		assert.Contains(t, report.Error, "classify")
		assert.Equal(t, []domain.Fingerprint{"old"}, f.cache.Load(ctx, "Work").List())
		require.Len(t, f.session.snapshots, 1)
		assert.True(t, f.session.snapshots[0].closed)
	})

	t.Run("Неудачная доставка все равно помечается виденной", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["Work"] = page(systemJoined, textHello)
		f.sink.err = errors.New("telegram down")
		uc := f.useCase()

		report := uc.Evaluate(ctx, "c1", work)
		assert.Equal(t, 2, report.Failed)
		assert.True(t, report.CacheSaved)

		f.sink.err = nil
		again := uc.Evaluate(ctx, "c2", work)
		assert.Zero(t, again.New)
	})

	t.Run("Снимок закрывается в конце прохода", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["Work"] = page(mediaByBob)
		f.useCase().Evaluate(ctx, "c1", work)

		require.Len(t, f.session.snapshots, 1)
		snap := f.session.snapshots[0]
		assert.True(t, snap.closed)

		_, err := snap.Capture(ctx, snap.items[0])
		assert.ErrorIs(t, err, domain.ErrPassClosed)
	})

	t.Run("Прерванный проход не сохраняет кэш", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["Work"] = page(systemJoined, textHello)
		cancelCtx, cancel := context.WithCancel(ctx)
		f.sink.onSend = cancel

		report := f.useCase().Evaluate(cancelCtx, "c1", work)
		assert.False(t, report.CacheSaved)
		assert.Contains(t, report.Error, "cancelled")
		assert.Equal(t, 0, f.cache.Load(ctx, "Work").Len())
	})

	t.Run("Длительность прохода считается", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["Work"] = page(textHello)
		uc := f.useCase()
		start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		calls := 0
		uc.now = func() time.Time {
			calls++
			return start.Add(time.Duration(calls-1) * time.Second)
		}

		report := uc.Evaluate(ctx, "c1", work)
		assert.Equal(t, start, report.StartedAt)
		assert.Equal(t, time.Second, report.Duration)
	})
}

func TestEvaluateChatUseCase_RunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("Ошибка одного чата не мешает остальным", func(t *testing.T) {
		f := newFixture(t)
		f.session.errs["Broken"] = errors.New("boom")
		f.session.pages["Work"] = page(textHello)
		collector := &reportCollector{}

		reports := f.useCase(WithRecorder(collector)).RunCycle(ctx, []domain.ChatTarget{
			{Name: "Broken", URL: "https://web.example.com/chats/0"},
			work,
		})

		require.Len(t, reports, 2)
		assert.NotEmpty(t, reports[0].Error)
		assert.Empty(t, reports[1].Error)
		assert.Equal(t, 1, reports[1].Delivered)
		assert.Equal(t, "cycle-1", reports[1].CycleID)
		assert.Equal(t, reports, collector.reports)
	})

	t.Run("Пауза только между чатами", func(t *testing.T) {
		f := newFixture(t)
		f.session.pages["A"] = page(textHello)
		f.session.pages["B"] = page(textHello)
		uc := f.useCase(WithChatPause(time.Second))
		var pauses int
		uc.sleep = func(context.Context, time.Duration) error {
			pauses++
			return nil
		}

		uc.RunCycle(ctx, []domain.ChatTarget{{Name: "A"}, {Name: "B"}})
		assert.Equal(t, 1, pauses)
	})

	t.Run("Отмененный контекст останавливает цикл", func(t *testing.T) {
		f := newFixture(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		reports := f.useCase().RunCycle(cancelled, []domain.ChatTarget{work})
		assert.Empty(t, reports)
	})
}
