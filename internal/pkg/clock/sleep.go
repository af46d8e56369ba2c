// Package clock содержит паузы, прерываемые контекстом.
package clock

import (
	"context"
	"time"
)

// Sleep ждет d или отмены ctx. Неположительная пауза сразу возвращает ctx.Err().
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
