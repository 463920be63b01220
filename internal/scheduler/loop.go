package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/EgorLis/tgfarm/internal/chat"
)

var (
	ErrFatal         = errors.New("fatal transport failure")
	ErrExitRequested = errors.New("exit requested")
	// ErrPaused возвращает шлюз действий, пока фарм на паузе.
	ErrPaused = errors.New("farming paused")
)

const (
	defaultTick      = 3 * time.Second
	defaultQueueSize = 64
)

type LoopOptions struct {
	Flags     *Flags
	// Limit — длина окна работы, 0 — без ограничения. Окно отсчитывается
	// от начала Run.
	Limit     time.Duration
	Tick      time.Duration
	QueueSize int
	Handle    func(ctx context.Context, ev chat.Event)
	Logger    *slog.Logger
}

// Loop — главный цикл: одно событие за раз, проверка окна и флагов на каждом тике.
type Loop struct {
	flags  *Flags
	limit  time.Duration
	tick   time.Duration
	handle func(ctx context.Context, ev chat.Event)
	log    *slog.Logger

	qmu   sync.Mutex // сериализует вытеснение старых событий
	queue chan chat.Event
	now   func() time.Time
}

func NewLoop(opts LoopOptions) *Loop {
	if opts.Flags == nil {
		opts.Flags = NewFlags()
	}
	if opts.Tick <= 0 {
		opts.Tick = defaultTick
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Handle == nil {
		opts.Handle = func(context.Context, chat.Event) {}
	}
	return &Loop{
		flags:  opts.Flags,
		limit:  opts.Limit,
		tick:   opts.Tick,
		handle: opts.Handle,
		log:    opts.Logger,
		queue:  make(chan chat.Event, opts.QueueSize),
		now:    time.Now,
	}
}

func (l *Loop) Flags() *Flags { return l.flags }

// Enqueue кладёт событие в очередь, не блокируя поставщика (read loop
// транспорта). Если очередь полна, самое старое событие выбрасывается.
func (l *Loop) Enqueue(ev chat.Event) error {
	if l.flags.ExitRequested() {
		return ErrExitRequested
	}
	l.qmu.Lock()
	defer l.qmu.Unlock()
	select {
	case l.queue <- ev:
		return nil
	default:
	}
	select {
	case old := <-l.queue:
		l.log.Warn("event queue full, dropping oldest", "message_id", old.ID)
	default:
	}
	select {
	case l.queue <- ev:
		return nil
	default:
		return fmt.Errorf("event queue full")
	}
}

// Run обрабатывает события до истечения окна, запроса выхода, отмены ctx
// или фатальной ошибки. Фатальная ошибка возвращается обёрнутой в ErrFatal.
func (l *Loop) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// запрос выхода должен будить обработчик посреди кулдауна
	go func() {
		select {
		case <-l.flags.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	window := NewWindow(l.now(), l.limit)

	t := time.NewTicker(l.tick)
	defer t.Stop()

	l.log.Info("loop started", "window", window.String(), "tick", l.tick)
	for {
		if stop, err := l.stopCause(ctx, window); stop {
			l.log.Info("loop stopped", "reason", l.flags.Reason())
			return err
		}
		select {
		case <-runCtx.Done():
		case <-t.C:
		case ev := <-l.queue:
			l.handle(runCtx, ev)
		}
	}
}

func (l *Loop) stopCause(ctx context.Context, window Window) (bool, error) {
	if ctx.Err() != nil {
		l.flags.RequestExit("context canceled")
	}
	if window.Expired(l.now()) {
		l.flags.RequestExit("execution limit reached")
	}
	if !l.flags.ExitRequested() {
		return false, nil
	}
	if err := l.flags.Err(); err != nil {
		return true, fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return true, nil
}
