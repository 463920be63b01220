package scheduler

import (
	"sync"
	"sync/atomic"
)

// Flags — общие для процесса флаги управления.
type Flags struct {
	paused atomic.Bool

	mu     sync.Mutex
	reason string
	fatal  error
	done   chan struct{}
}

func NewFlags() *Flags {
	return &Flags{done: make(chan struct{})}
}

func (f *Flags) Pause()       { f.paused.Store(true) }
func (f *Flags) Resume()      { f.paused.Store(false) }
func (f *Flags) Paused() bool { return f.paused.Load() }

// RequestExit просит цикл завершиться. Сохраняется первая причина.
func (f *Flags) RequestExit(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return
	default:
	}
	f.reason = reason
	close(f.done)
}

// Fail — фатальная ошибка транспорта: тот же путь, что и !exit, плюс флаг.
func (f *Flags) Fail(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	if f.fatal == nil {
		f.fatal = err
	}
	f.mu.Unlock()
	f.RequestExit("fatal: " + err.Error())
}

func (f *Flags) ExitRequested() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done закрывается при первом запросе выхода.
func (f *Flags) Done() <-chan struct{} { return f.done }

func (f *Flags) Reason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reason
}

// Err — фатальная ошибка, если была.
func (f *Flags) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fatal
}
