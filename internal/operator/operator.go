// Package operator — команды самоуправления из «Избранного»:
// !help, !exit, !stop, !start. Работает на своём маленьком воркере, чтобы
// команда не ждала в очереди за игровым кулдауном.
package operator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/EgorLis/tgfarm/internal/chat"
	"github.com/EgorLis/tgfarm/internal/scheduler"
)

const (
	ReplyExit    = "exit request sent"
	ReplyStop    = "farming was paused"
	ReplyStart   = "farming was resume"
	ReplyUnknown = "unknown command!"

	// ExitReason — причина остановки по !exit.
	ExitReason = "Force exit"
)

var helpText = strings.Join([]string{
	"!exit - force exit",
	"!stop - pause farming",
	"!start - resume farming",
}, "\n")

var ErrQueueFull = errors.New("operator queue full")

// IsCommand — сообщение из одного слова, начинающегося с «!».
// Ответ на !help состоит из нескольких строк и командой не считается.
func IsCommand(text string) bool {
	cmd := chat.StripMessage(text)
	return strings.HasPrefix(cmd, "!") && !strings.ContainsAny(cmd, " \t")
}

type Options struct {
	Transport chat.Transport
	Flags     *scheduler.Flags
	// PingCommands — символы для пинга игрового бота после !start.
	PingCommands string
	Logger       *slog.Logger
}

type Manager struct {
	tr    chat.Transport
	flags *scheduler.Flags
	pings []rune
	log   *slog.Logger
	pick  func(n int) int

	self int64
	game int64

	jobs chan chat.Event

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		tr:    opts.Transport,
		flags: opts.Flags,
		pings: []rune(opts.PingCommands),
		log:   opts.Logger.With("component", "operator"),
		pick:  rand.IntN,
		jobs:  make(chan chat.Event, 8),
	}
}

// SetPeers задаёт «Избранное» (куда отвечать) и игрового бота (кого пинговать).
// Вызывается до Run.
func (m *Manager) SetPeers(self, game int64) {
	m.self, m.game = self, game
}

// Enqueue не блокирует транспорт: при переполнении команда отбрасывается.
func (m *Manager) Enqueue(ev chat.Event) error {
	select {
	case m.jobs <- ev:
		return nil
	default:
		m.log.Warn("operator queue full, command dropped", "message_id", ev.ID)
		return ErrQueueFull
	}
}

// Start запускает воркер команд до Stop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh != nil {
		return errors.New("operator already started")
	}
	stop := make(chan struct{})
	m.stopCh = stop

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.work(ctx, stop)
	}()
	return nil
}

// Stop дожидается текущей команды, отвечает на оставшиеся в очереди
// и останавливает воркер. Повторный Stop ничего не делает.
func (m *Manager) Stop() {
	m.mu.Lock()
	ch := m.stopCh
	m.stopCh = nil
	m.mu.Unlock()

	if ch != nil {
		close(ch)
		m.wg.Wait()
	}
}

// Run обрабатывает команды по одной до отмены ctx, затем разбирает очередь.
func (m *Manager) Run(ctx context.Context) {
	m.work(ctx, ctx.Done())
}

func (m *Manager) work(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			m.drain(ctx)
			return
		case ev := <-m.jobs:
			m.Handle(ctx, ev)
		}
	}
}

func (m *Manager) drain(ctx context.Context) {
	for {
		select {
		case ev := <-m.jobs:
			m.Handle(ctx, ev)
		default:
			return
		}
	}
}

// Handle выполняет команду, помечает сообщение прочитанным и отвечает в «Избранное».
func (m *Manager) Handle(ctx context.Context, ev chat.Event) {
	m.log.Info("got self-management command", "command", chat.StripMessage(ev.Text))

	reply := m.HandleCommand(ctx, ev.Text)

	// ответ должен уйти даже после !exit
	sendCtx := context.WithoutCancel(ctx)
	if err := m.tr.MarkRead(sendCtx, m.self, ev.ID); err != nil {
		m.log.Warn("mark read", "err", err)
	}
	if err := m.tr.SendText(sendCtx, m.self, reply); err != nil {
		m.log.Warn("reply", "err", err)
	}
}

// HandleCommand применяет команду к флагам и возвращает текст ответа.
func (m *Manager) HandleCommand(ctx context.Context, text string) string {
	switch chat.StripMessage(text) {
	case "!help":
		return helpText

	case "!exit":
		m.flags.RequestExit(ExitReason)
		return ReplyExit

	case "!stop":
		m.flags.Pause()
		return ReplyStop

	case "!start":
		m.flags.Resume()
		m.ping(ctx)
		return ReplyStart

	default:
		return ReplyUnknown
	}
}

// ping шлёт игровому боту один случайный символ, тот отвечает текущим состоянием.
func (m *Manager) ping(ctx context.Context) {
	if len(m.pings) == 0 || m.game == 0 {
		m.log.Warn("ping skipped: no ping commands or game peer")
		return
	}
	cmd := string(m.pings[m.pick(len(m.pings))])
	if err := m.tr.SendText(context.WithoutCancel(ctx), m.game, cmd); err != nil {
		m.log.Warn("ping", "err", err)
	}
}
