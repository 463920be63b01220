package scheduler

import "time"

// Window — лимит времени работы. Нулевое значение — без лимита.
type Window struct {
	deadline time.Time
}

// NewWindow считает дедлайн один раз; d <= 0 — бесконечное окно.
func NewWindow(now time.Time, d time.Duration) Window {
	if d <= 0 {
		return Window{}
	}
	return Window{deadline: now.Add(d)}
}

func (w Window) Infinite() bool { return w.deadline.IsZero() }

func (w Window) Deadline() (time.Time, bool) {
	return w.deadline, !w.Infinite()
}

func (w Window) Expired(now time.Time) bool {
	return !w.Infinite() && !now.Before(w.deadline)
}

func (w Window) String() string {
	if w.Infinite() {
		return "infinite"
	}
	return w.deadline.Format(time.RFC3339)
}
