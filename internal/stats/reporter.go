package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// Reporter печатает счётчики в лог по cron-расписанию и, если задано
// хранилище, сохраняет снимок текущего запуска.
type Reporter struct {
	Collector *Collector
	Store     *Store // может быть nil
	RunID     string
	Cron      string
	Logger    *slog.Logger

	now func() time.Time
}

// Run работает до отмены ctx. Пустое расписание — сразу выходит.
// Перед выходом делает финальный отчёт.
func (r *Reporter) Run(ctx context.Context) error {
	expr := strings.TrimSpace(r.Cron)
	if expr == "" {
		return nil
	}
	if r.now == nil {
		r.now = time.Now
	}
	for {
		next, err := gronx.NextTickAfter(expr, r.now(), false)
		if err != nil {
			return fmt.Errorf("stats schedule %q: %w", expr, err)
		}
		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			r.Report(context.WithoutCancel(ctx))
			return nil
		case <-t.C:
			r.Report(ctx)
		}
	}
}

// Report — одна запись в лог плюс сохранение снимка.
func (r *Reporter) Report(ctx context.Context) {
	snap := r.Collector.Snapshot()
	parts := make([]string, 0, len(snap))
	for _, name := range Names(snap) {
		parts = append(parts, fmt.Sprintf("%s=%d", name, snap[name]))
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("stats", "counters", strings.Join(parts, " "))

	if r.Store == nil || r.RunID == "" {
		return
	}
	if err := r.Store.SaveCounters(ctx, r.RunID, snap); err != nil {
		log.Warn("save stats", "err", err)
	}
}
