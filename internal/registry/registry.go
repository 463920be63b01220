// Package registry хранит подписи кнопок, увиденные в сообщениях игрового
// бота, по категориям (город, выбор локации, зона боя, данж).
package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/EgorLis/tgfarm/internal/chat"
)

// Category — закрытый набор категорий кнопок.
type Category int

const (
	Town Category = iota
	LocationChoice
	FightZone
	Dungeon

	numCategories
)

func (c Category) String() string {
	switch c {
	case Town:
		return "town"
	case LocationChoice:
		return "location-choice"
	case FightZone:
		return "fight-zone"
	case Dungeon:
		return "dungeon"
	default:
		return "invalid"
	}
}

var (
	ErrNotFound        = errors.New("button not found")
	ErrInvalidCategory = errors.New("invalid button category")
)

// labelSet — множество подписей с порядком вставки.
type labelSet struct {
	order []string
	seen  map[string]struct{}
}

// Registry — известные кнопки по категориям. Множества только растут.
type Registry struct {
	mu   sync.RWMutex
	sets [numCategories]labelSet
}

func New() *Registry {
	r := &Registry{}
	for i := range r.sets {
		r.sets[i].seen = make(map[string]struct{})
	}
	return r
}

// Update объединяет подписи кнопок с множеством категории.
// Возвращает, сколько подписей оказалось новыми.
func (r *Registry) Update(c Category, buttons []chat.Button) (int, error) {
	if c < 0 || c >= numCategories {
		return 0, ErrInvalidCategory
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	set := &r.sets[c]
	added := 0
	for _, b := range buttons {
		if b.Label == "" {
			continue
		}
		if _, ok := set.seen[b.Label]; ok {
			continue
		}
		set.seen[b.Label] = struct{}{}
		set.order = append(set.order, b.Label)
		added++
	}
	return added, nil
}

// FindByMarker — первая (по порядку вставки) подпись категории, содержащая marker.
func (r *Registry) FindByMarker(c Category, marker string) (string, error) {
	if c < 0 || c >= numCategories {
		return "", ErrInvalidCategory
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, label := range r.sets[c].order {
		if strings.Contains(label, marker) {
			return label, nil
		}
	}
	return "", ErrNotFound
}

// Labels — копия подписей категории.
func (r *Registry) Labels(c Category) []string {
	if c < 0 || c >= numCategories {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.sets[c].order))
	copy(out, r.sets[c].order)
	return out
}
