// Package trainer связывает всё вместе: принимает события игрового бота,
// пишет их в лог и статистику, держит реестр кнопок и гоняет диспетчер
// по таблице выбранного профиля (farm или run).
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/EgorLis/tgfarm/internal/chat"
	"github.com/EgorLis/tgfarm/internal/config"
	"github.com/EgorLis/tgfarm/internal/dispatch"
	"github.com/EgorLis/tgfarm/internal/game"
	"github.com/EgorLis/tgfarm/internal/notify"
	"github.com/EgorLis/tgfarm/internal/operator"
	"github.com/EgorLis/tgfarm/internal/registry"
	"github.com/EgorLis/tgfarm/internal/scheduler"
	"github.com/EgorLis/tgfarm/internal/stats"
)

type Mode string

const (
	ModeFarm Mode = "farm"
	ModeRun  Mode = "run"
)

type Options struct {
	Mode      Mode
	Config    config.Config
	Transport chat.Transport
	Flags     *scheduler.Flags
	Stats     stats.Counter   // nil — счётчики не ведутся
	Notifier  notify.Notifier // nil — уведомления только в лог
	Logger    *slog.Logger
}

type Trainer struct {
	mode     Mode
	cfg      config.Config
	tr       chat.Transport
	flags    *scheduler.Flags
	throttle *scheduler.Throttle
	stats    stats.Counter
	notifier notify.Notifier
	log      *slog.Logger

	reg  *registry.Registry
	disp *dispatch.Dispatcher
	loop *scheduler.Loop
	op   *operator.Manager

	peersMu sync.RWMutex
	me      chat.Peer
	game    chat.Peer

	sleep func(ctx context.Context, d time.Duration) error
}

type nopCounter struct{}

func (nopCounter) Inc(string) {}

func New(opts Options) (*Trainer, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("trainer: transport is required")
	}
	if opts.Mode != ModeFarm && opts.Mode != ModeRun {
		return nil, fmt.Errorf("trainer: unknown mode %q", opts.Mode)
	}
	if opts.Flags == nil {
		opts.Flags = scheduler.NewFlags()
	}
	if opts.Stats == nil {
		opts.Stats = nopCounter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewHub(false, notify.ChannelLog, opts.Logger)
	}
	log := opts.Logger.With("component", "trainer", "mode", string(opts.Mode))

	t := &Trainer{
		mode:     opts.Mode,
		cfg:      opts.Config,
		tr:       opts.Transport,
		flags:    opts.Flags,
		throttle: scheduler.NewThrottle(opts.Config.Throttle.Bounds()),
		stats:    opts.Stats,
		notifier: opts.Notifier,
		log:      log,
		reg:      registry.New(),
		sleep:    scheduler.Sleep,
	}

	table := t.runningTable()
	if t.mode == ModeFarm {
		table = t.farmingTable()
	}
	t.disp = dispatch.New(table, t.skip, log)

	t.loop = scheduler.NewLoop(scheduler.LoopOptions{
		Flags:  t.flags,
		Limit:  opts.Config.ExecutionLimit,
		Tick:   opts.Config.LoopTick,
		Handle: t.handleEvent,
		Logger: opts.Logger.With("component", "loop"),
	})

	if opts.Config.SelfManagerEnabled {
		t.op = operator.New(operator.Options{
			Transport:    t.tr,
			Flags:        t.flags,
			PingCommands: opts.Config.PingCommands,
			Logger:       opts.Logger,
		})
	}
	return t, nil
}

func (t *Trainer) Registry() *registry.Registry { return t.reg }

func (t *Trainer) Flags() *scheduler.Flags { return t.flags }

// Run: авторизация, поиск игрового бота, стартовый /buttons (farm),
// затем главный цикл до окна, !exit, сигнала или фатальной ошибки.
func (t *Trainer) Run(ctx context.Context) error {
	limit := "infinite"
	if t.cfg.ExecutionLimit > 0 {
		limit = t.cfg.ExecutionLimit.String()
	}
	t.log.Info("start "+string(t.mode),
		"execution_limit", limit,
		"notifications_enabled", t.cfg.Notifications.Enabled,
		"slow_mode", t.cfg.Throttle.SlowMode,
	)

	if err := t.prepare(ctx); err != nil {
		return err
	}

	// воркер оператора гасится до выхода из Run: ответ на !exit должен
	// уйти, пока транспорт ещё подключён
	if t.op != nil {
		if err := t.op.Start(ctx); err != nil {
			return err
		}
		defer t.op.Stop()
	}

	if t.mode == ModeFarm {
		if err := t.act(ctx, game.ButtonsCommand); err != nil {
			t.log.Warn("request buttons", "err", err)
		}
	}

	err := t.loop.Run(ctx)
	t.log.Info("end "+string(t.mode), "reason", t.flags.Reason())
	return err
}

func (t *Trainer) prepare(ctx context.Context) error {
	me, err := t.tr.Me(ctx)
	if err != nil {
		return fmt.Errorf("get me: %w", err)
	}
	t.log.Info("auth as " + me.Username)

	gp, err := t.tr.ResolvePeer(ctx, t.cfg.GameUsername)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", t.cfg.GameUsername, err)
	}
	t.log.Info("game user is "+gp.Username, "id", gp.ID)

	t.peersMu.Lock()
	t.me, t.game = me, gp
	t.peersMu.Unlock()
	if t.op != nil {
		t.op.SetPeers(me.ID, gp.ID)
	}
	return nil
}

func (t *Trainer) peers() (me, gp chat.Peer) {
	t.peersMu.RLock()
	defer t.peersMu.RUnlock()
	return t.me, t.game
}

func (t *Trainer) gameID() int64 {
	_, gp := t.peers()
	return gp.ID
}

// OnUpdate — колбэк транспорта. Не блокирует: игровые события идут в очередь
// цикла, команды оператора — в очередь оператора, остальное отбрасывается.
func (t *Trainer) OnUpdate(ev chat.Event) {
	me, gp := t.peers()
	switch {
	case gp.ID != 0 && ev.SenderID == gp.ID && !ev.Outgoing:
		if err := t.loop.Enqueue(ev); err != nil {
			t.log.Debug("event not queued", "message_id", ev.ID, "err", err)
		}
	case t.op != nil && me.ID != 0 && ev.ChatID == me.ID && operator.IsCommand(ev.Text):
		_ = t.op.Enqueue(ev)
	}
}

// handleEvent — обработка одного игрового события внутри цикла.
func (t *Trainer) handleEvent(ctx context.Context, ev chat.Event) {
	t.logEvent(ev)
	t.stats.Inc("events")

	if err := t.tr.MarkRead(context.WithoutCancel(ctx), t.gameID(), ev.ID); err != nil {
		t.log.Warn("mark read", "err", err)
	}

	if t.flags.Paused() {
		t.log.Info("farming paused, event skipped", "message_id", ev.ID)
		return
	}
	t.disp.Dispatch(ctx, ev)
}

func (t *Trainer) logEvent(ev chat.Event) {
	text, buttons := chat.Normalize(ev)
	t.log.Info("handle event",
		"message", chat.Truncate(text, t.cfg.MessageLogLimit),
		"buttons", chat.Labels(buttons),
		"media", ev.HasMedia,
		"edited", ev.Edited,
	)
}
