package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/EgorLis/tgfarm/internal/chat"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFlags(t *testing.T) {
	f := NewFlags()
	if f.Paused() || f.ExitRequested() {
		t.Fatal("fresh flags must be clear")
	}
	f.Pause()
	if !f.Paused() {
		t.Fatal("pause not set")
	}
	f.Resume()
	if f.Paused() {
		t.Fatal("resume not applied")
	}

	f.RequestExit("Force exit")
	f.RequestExit("second")
	if !f.ExitRequested() || f.Reason() != "Force exit" {
		t.Fatalf("reason = %q", f.Reason())
	}
	select {
	case <-f.Done():
	default:
		t.Fatal("done channel not closed")
	}
	if f.Err() != nil {
		t.Fatal("no fatal error expected")
	}
}

func TestFlagsFail(t *testing.T) {
	f := NewFlags()
	boom := errors.New("connection lost")
	f.Fail(boom)
	f.Fail(errors.New("later"))
	if !errors.Is(f.Err(), boom) || !f.ExitRequested() {
		t.Fatalf("err=%v exit=%v", f.Err(), f.ExitRequested())
	}
}

func TestThrottleDelayBounds(t *testing.T) {
	th := NewThrottle(10*time.Millisecond, 20*time.Millisecond)
	for i := 0; i < 200; i++ {
		d := th.Delay()
		if d < 10*time.Millisecond || d >= 20*time.Millisecond {
			t.Fatalf("delay %v out of bounds", d)
		}
	}
	if d := NewThrottle(5*time.Millisecond, time.Millisecond).Delay(); d != 5*time.Millisecond {
		t.Fatalf("inverted bounds: %v", d)
	}
	var nilThrottle *Throttle
	if nilThrottle.Delay() != 0 {
		t.Fatal("nil throttle must not delay")
	}
}

func TestSleepIsCancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := Sleep(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("sleep was not interrupted")
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("short sleep: %v", err)
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	inf := NewWindow(now, 0)
	if !inf.Infinite() || inf.Expired(now.Add(1000*time.Hour)) {
		t.Fatal("zero window must be infinite")
	}
	w := NewWindow(now, time.Minute)
	if w.Expired(now.Add(59 * time.Second)) {
		t.Fatal("expired too early")
	}
	if !w.Expired(now.Add(time.Minute)) {
		t.Fatal("not expired at deadline")
	}
	if d, ok := w.Deadline(); !ok || !d.Equal(now.Add(time.Minute)) {
		t.Fatalf("deadline = %v %v", d, ok)
	}
}

func TestLoopHandlesEventsInOrder(t *testing.T) {
	flags := NewFlags()
	var mu sync.Mutex
	var got []int64
	l := NewLoop(LoopOptions{
		Flags:  flags,
		Tick:   5 * time.Millisecond,
		Logger: quietLogger(),
		Handle: func(ctx context.Context, ev chat.Event) {
			mu.Lock()
			got = append(got, ev.ID)
			n := len(got)
			mu.Unlock()
			if n == 3 {
				flags.RequestExit("done")
			}
		},
	})
	for i := int64(1); i <= 3; i++ {
		if err := l.Enqueue(chat.Event{ID: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("order = %v", got)
	}
	if err := l.Enqueue(chat.Event{ID: 4}); !errors.Is(err, ErrExitRequested) {
		t.Fatalf("enqueue after exit: %v", err)
	}
}

func TestLoopExitInterruptsCooldown(t *testing.T) {
	flags := NewFlags()
	started := make(chan struct{})
	l := NewLoop(LoopOptions{
		Flags:  flags,
		Tick:   5 * time.Millisecond,
		Logger: quietLogger(),
		Handle: func(ctx context.Context, ev chat.Event) {
			close(started)
			_ = Sleep(ctx, time.Hour)
		},
	})
	_ = l.Enqueue(chat.Event{ID: 1})

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	<-started
	flags.RequestExit("Force exit")
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after exit request")
	}
}

func TestLoopStopsOnWindow(t *testing.T) {
	flags := NewFlags()
	l := NewLoop(LoopOptions{
		Flags:  flags,
		Limit:  20 * time.Millisecond,
		Tick:   5 * time.Millisecond,
		Logger: quietLogger(),
	})
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if flags.Reason() != "execution limit reached" {
		t.Fatalf("reason = %q", flags.Reason())
	}
}

func TestLoopWindowStartsWithRun(t *testing.T) {
	flags := NewFlags()
	handled := make(chan int64, 1)
	l := NewLoop(LoopOptions{
		Flags:  flags,
		Limit:  40 * time.Millisecond,
		Tick:   5 * time.Millisecond,
		Handle: func(_ context.Context, ev chat.Event) { handled <- ev.ID },
		Logger: quietLogger(),
	})
	// время между NewLoop и Run в окно не входит
	time.Sleep(60 * time.Millisecond)
	if err := l.Enqueue(chat.Event{ID: 7}); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("loop stopped after %v, window counted from NewLoop", elapsed)
	}
	select {
	case id := <-handled:
		if id != 7 {
			t.Fatalf("handled %d", id)
		}
	default:
		t.Fatal("queued event not handled")
	}
	if flags.Reason() != "execution limit reached" {
		t.Fatalf("reason = %q", flags.Reason())
	}
}

func TestLoopReturnsFatal(t *testing.T) {
	flags := NewFlags()
	l := NewLoop(LoopOptions{Flags: flags, Tick: 5 * time.Millisecond, Logger: quietLogger()})
	boom := errors.New("dial failed")
	go func() {
		time.Sleep(10 * time.Millisecond)
		flags.Fail(boom)
	}()
	err := l.Run(context.Background())
	if !errors.Is(err, ErrFatal) || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoopStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(LoopOptions{Tick: time.Hour, Logger: quietLogger()})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := l.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !l.Flags().ExitRequested() {
		t.Fatal("context cancel must request exit")
	}
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	l := NewLoop(LoopOptions{QueueSize: 2, Logger: quietLogger()})
	for i := int64(1); i <= 3; i++ {
		if err := l.Enqueue(chat.Event{ID: i}); err != nil {
			t.Fatal(err)
		}
	}
	first := <-l.queue
	second := <-l.queue
	if first.ID != 2 || second.ID != 3 {
		t.Fatalf("queue = %d,%d", first.ID, second.ID)
	}
}
