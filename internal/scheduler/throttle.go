package scheduler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Throttle — случайная задержка в [min, max) перед исходящим действием,
// чтобы трафик не шёл пачками.
type Throttle struct {
	min, max time.Duration
}

func NewThrottle(min, max time.Duration) *Throttle {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Throttle{min: min, max: max}
}

func (t *Throttle) Delay() time.Duration {
	if t == nil {
		return 0
	}
	if t.max <= t.min {
		return t.min
	}
	return t.min + rand.N(t.max-t.min)
}

// Wait спит Delay(); возвращает ошибку контекста, если его отменили раньше.
func (t *Throttle) Wait(ctx context.Context) error {
	return Sleep(ctx, t.Delay())
}

// Sleep — прерываемое ожидание (кулдаун).
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
