// Package dispatch — упорядоченная таблица «состояние → обработчик».
// Каждое событие классифицируется заново: своего состояния у диспетчера
// нет, первая сработавшая строка таблицы побеждает.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/EgorLis/tgfarm/internal/chat"
	"github.com/EgorLis/tgfarm/internal/game"
)

// Handler — действие на событие. Ошибки обработчик гасит и логирует сам.
type Handler func(ctx context.Context, ev chat.Event)

// Rule — строка таблицы. Если Match == nil, используется game.Predicate(State).
type Rule struct {
	State  game.State
	Match  func(chat.Event) bool
	Handle Handler
}

func (r Rule) matches(ev chat.Event) bool {
	if r.Match != nil {
		return r.Match(ev)
	}
	return game.Is(r.State, ev)
}

// Table — упорядоченный набор правил.
type Table []Rule

// States — состояния таблицы в порядке проверки.
func (t Table) States() []game.State {
	out := make([]game.State, 0, len(t))
	for _, r := range t {
		out = append(out, r.State)
	}
	return out
}

type Dispatcher struct {
	table Table
	skip  Handler
	log   *slog.Logger
}

// New — диспетчер над таблицей. skip вызывается, если ни одно правило не подошло;
// nil — только debug-запись в лог.
func New(table Table, skip Handler, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{table: table, log: log}
	if skip == nil {
		skip = d.skipTurn
	}
	d.skip = skip
	return d
}

// Select — первое подходящее правило; ok=false — сработает skip.
func (d *Dispatcher) Select(ev chat.Event) (Rule, bool) {
	for _, r := range d.table {
		if r.matches(ev) {
			return r, true
		}
	}
	return Rule{State: game.Unknown, Handle: d.skip}, false
}

// Dispatch выбирает обработчик и выполняет его. Возвращает выбранное состояние.
func (d *Dispatcher) Dispatch(ctx context.Context, ev chat.Event) game.State {
	r, ok := d.Select(ev)
	if ok {
		d.log.Debug("is " + r.State.String() + " event")
	}
	if r.Handle != nil {
		r.Handle(ctx, ev)
	}
	return r.State
}

func (d *Dispatcher) skipTurn(_ context.Context, ev chat.Event) {
	d.log.Debug("skip event", "message_id", ev.ID)
}
