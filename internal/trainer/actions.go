package trainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/EgorLis/tgfarm/internal/chat"
	"github.com/EgorLis/tgfarm/internal/registry"
	"github.com/EgorLis/tgfarm/internal/scheduler"
)

// act — шлюз всех исходящих игровых действий: пауза → случайная задержка →
// отправка. Отправка идёт с неотменяемым контекстом: начатое действие
// доходит до конца даже при запросе выхода.
func (t *Trainer) act(ctx context.Context, text string) error {
	if err := t.gate(ctx); err != nil {
		return err
	}
	if err := t.tr.SendText(context.WithoutCancel(ctx), t.gameID(), text); err != nil {
		return fmt.Errorf("send %q: %w", text, err)
	}
	t.stats.Inc("actions")
	return nil
}

// click — нажатие inline-кнопки текущего события.
func (t *Trainer) click(ctx context.Context, ev chat.Event, b chat.Button) error {
	if err := t.gate(ctx); err != nil {
		return err
	}
	if err := t.tr.PressButton(context.WithoutCancel(ctx), t.gameID(), ev.ID, b.Token); err != nil {
		return fmt.Errorf("press %q: %w", b.Label, err)
	}
	t.stats.Inc("actions")
	return nil
}

func (t *Trainer) gate(ctx context.Context) error {
	if t.flags.Paused() {
		return scheduler.ErrPaused
	}
	if err := t.throttle.Wait(ctx); err != nil {
		return err
	}
	// пауза могла включиться, пока ждали
	if t.flags.Paused() {
		return scheduler.ErrPaused
	}
	return nil
}

// press ищет в категории кнопку с маркером и отправляет её подпись.
// Нет кнопки — предупреждение и никаких действий.
func (t *Trainer) press(ctx context.Context, c registry.Category, marker string) bool {
	label, err := t.reg.FindByMarker(c, marker)
	if err != nil {
		t.log.Warn("button not found", "marker", marker, "category", c.String())
		return false
	}
	if err := t.act(ctx, label); err != nil {
		t.actionFailed(err)
		return false
	}
	return true
}

// remember добавляет кнопки события в категорию.
func (t *Trainer) remember(c registry.Category, ev chat.Event) {
	buttons := chat.FlatButtons(ev)
	if len(buttons) == 0 {
		t.log.Warn("no buttons for category, registry not updated", "category", c.String())
		return
	}
	if n, err := t.reg.Update(c, buttons); err != nil {
		t.log.Warn("registry update", "category", c.String(), "err", err)
	} else if n > 0 {
		t.log.Debug("registry updated", "category", c.String(), "added", n)
	}
}

// cooldown — длинное ожидание; false, если его прервали.
func (t *Trainer) cooldown(ctx context.Context) bool {
	t.log.Info("waiting", "cooldown", t.cfg.Cooldown)
	if err := t.sleep(ctx, t.cfg.Cooldown); err != nil {
		t.log.Info("cooldown interrupted", "err", err)
		return false
	}
	return true
}

func (t *Trainer) actionFailed(err error) {
	switch {
	case errors.Is(err, scheduler.ErrPaused):
		t.log.Info("action dropped: farming paused")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		t.log.Info("action dropped: stopping")
	default:
		t.log.Warn("action failed", "err", err)
	}
}
