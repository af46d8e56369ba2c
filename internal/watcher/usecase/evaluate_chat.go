package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/pkg/clock"
	"chat-forwarder/internal/ports"
)

// EvaluateChatUseCase инкапсулирует один проход по чату: загрузка кэша,
// снимок страницы, классификация, отбор новых, доставка и сохранение кэша.
type EvaluateChatUseCase struct {
	session    ports.BrowserSession
	cache      ports.FingerprintCache
	classifier ports.Classifier
	novelty    ports.NoveltyFilter
	dispatcher ports.Dispatcher
	recorder   ports.ReportRecorder
	chatPause  time.Duration
	logger     *slog.Logger

	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// Option настраивает EvaluateChatUseCase.
type Option func(*EvaluateChatUseCase)

// WithRecorder передает итоги каждого чата в recorder.
func WithRecorder(r ports.ReportRecorder) Option {
	return func(uc *EvaluateChatUseCase) { uc.recorder = r }
}

// WithChatPause задает паузу между чатами внутри цикла.
func WithChatPause(d time.Duration) Option {
	return func(uc *EvaluateChatUseCase) { uc.chatPause = d }
}

// NewEvaluateChatUseCase создает новый экземпляр EvaluateChatUseCase.
func NewEvaluateChatUseCase(
	session ports.BrowserSession,
	cache ports.FingerprintCache,
	classifier ports.Classifier,
	novelty ports.NoveltyFilter,
	dispatcher ports.Dispatcher,
	logger *slog.Logger,
	opts ...Option,
) *EvaluateChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	uc := &EvaluateChatUseCase{
		session:    session,
		cache:      cache,
		classifier: classifier,
		novelty:    novelty,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
		sleep:      clock.Sleep,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RunCycle последовательно обрабатывает все чаты. Ошибка одного чата
// попадает в его отчет и не мешает остальным.
func (uc *EvaluateChatUseCase) RunCycle(ctx context.Context, targets []domain.ChatTarget) []domain.ChatReport {
	cycleID := uc.newID()
	logger := uc.logger.With(slog.String("cycle_id", cycleID))
	logger.Info("cycle started", slog.Int("chats", len(targets)))

	reports := make([]domain.ChatReport, 0, len(targets))
	for i, target := range targets {
		if ctx.Err() != nil {
			logger.Warn("cycle interrupted", slog.Int("remaining", len(targets)-i))
			break
		}

		report := uc.Evaluate(ctx, cycleID, target)
		reports = append(reports, report)
		if uc.recorder != nil {
			uc.recorder.Record(report)
		}

		if uc.chatPause > 0 && i < len(targets)-1 {
			if err := uc.sleep(ctx, uc.chatPause); err != nil {
				break
			}
		}
	}

	var delivered, failed int
	for _, r := range reports {
		delivered += r.Delivered
		failed += r.Failed
	}
	logger.Info("cycle finished",
		slog.Int("chats", len(reports)),
		slog.Int("delivered", delivered),
		slog.Int("failed", failed))
	return reports
}

// Evaluate выполняет один проход по чату. Ошибки снимка и классификации
// не трогают кэш; ошибки доставки отдельных сообщений не прерывают проход,
// и их отпечатки все равно сохраняются.
func (uc *EvaluateChatUseCase) Evaluate(ctx context.Context, cycleID string, target domain.ChatTarget) (report domain.ChatReport) {
	logger := uc.logger.With(slog.String("cycle_id", cycleID), slog.String("chat", target.Name))
	report = domain.ChatReport{CycleID: cycleID, Chat: target.Name, StartedAt: uc.now()}
	defer func() { report.Duration = uc.now().Sub(report.StartedAt) }()

	seen := uc.cache.Load(ctx, target.Name)

	snap, err := uc.session.Snapshot(ctx, target)
	if err != nil {
		logger.Error("failed to take snapshot", slog.Any("error", err))
		report.Error = fmt.Sprintf("snapshot: %v", err)
		return report
	}
	// Медиа-цели живут не дольше прохода.
	defer func() {
		if err := snap.Close(); err != nil {
			logger.Warn("failed to close snapshot", slog.Any("error", err))
		}
	}()

	items := snap.Items()
	messages, err := uc.classifier.Classify(ctx, items, target.IsGroup)
	if err != nil {
		logger.Error("failed to classify snapshot", slog.Any("error", err))
		report.Error = fmt.Sprintf("classify: %v", err)
		return report
	}
	report.Found = len(messages)

	fresh, observed := uc.novelty.Filter(messages, seen)
	report.New = len(fresh)
	logger.Info("chat evaluated",
		slog.Int("items", len(items)),
		slog.Int("messages", len(messages)),
		slog.Int("new", len(fresh)))

	if len(fresh) > 0 {
		report.Tally(uc.dispatcher.Dispatch(ctx, target, snap, fresh))
	}

	// Прерванный проход не сохраняется: недоставленное уйдет при следующем запуске.
	if err := ctx.Err(); err != nil {
		logger.Warn("evaluation cancelled, cache left untouched", slog.Any("error", err))
		report.Error = fmt.Sprintf("cancelled: %v", err)
		return report
	}

	if err := uc.cache.Save(ctx, target.Name, observed); err != nil {
		logger.Error("failed to persist fingerprints", slog.Any("error", err))
		report.Error = fmt.Sprintf("persist: %v", err)
		return report
	}
	report.CacheSaved = true
	return report
}
