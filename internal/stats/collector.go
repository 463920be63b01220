// Package stats — счётчики работы бота (события, действия, капчи...),
// периодический отчёт в лог и сохранение в SQLite.
package stats

import (
	"sort"
	"sync"
)

// Counter нужен обработчикам, чтобы увеличить именованный счётчик.
type Counter interface {
	Inc(name string)
}

// Collector — счётчики в памяти. Безопасен для конкурентного использования.
type Collector struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewCollector() *Collector {
	return &Collector{values: make(map[string]int64)}
}

func (c *Collector) Inc(name string) { c.Add(name, 1) }

func (c *Collector) Add(name string, delta int64) {
	c.mu.Lock()
	c.values[name] += delta
	c.mu.Unlock()
}

func (c *Collector) Get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Snapshot возвращает копию всех счётчиков.
func (c *Collector) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Names сортирует имена счётчиков по алфавиту.
func Names(snapshot map[string]int64) []string {
	names := make([]string, 0, len(snapshot))
	for k := range snapshot {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
