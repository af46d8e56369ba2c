// Package watcher запускает циклы проверки чатов по расписанию.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"chat-forwarder/internal/domain"
)

// CycleRunner выполняет один цикл по всем чатам.
type CycleRunner interface {
	RunCycle(ctx context.Context, targets []domain.ChatTarget) []domain.ChatReport
}

// Runner повторяет циклы с заданным интервалом до отмены контекста.
type Runner struct {
	cycle    CycleRunner
	targets  []domain.ChatTarget
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner создает новый экземпляр Runner.
func NewRunner(cycle CycleRunner, targets []domain.ChatTarget, interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cycle:    cycle,
		targets:  targets,
		interval: interval,
		logger:   logger.With(slog.String("component", "runner")),
	}
}

// Run выполняет цикл сразу, затем после каждой паузы interval.
// Возвращает nil после отмены контекста.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("watcher started",
		slog.Int("chats", len(r.targets)),
		slog.Duration("interval", r.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Context cancelled, stopping watcher...")
			return nil
		case <-timer.C:
			r.cycle.RunCycle(ctx, r.targets)
			if ctx.Err() != nil {
				continue
			}
			r.logger.Debug("sleeping until next cycle", slog.Duration("interval", r.interval))
			timer.Reset(r.interval)
		}
	}
}

// RunOnce выполняет ровно один цикл.
func (r *Runner) RunOnce(ctx context.Context) []domain.ChatReport {
	return r.cycle.RunCycle(ctx, r.targets)
}
