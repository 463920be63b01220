package game

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/EgorLis/tgfarm/internal/chat"
)

// ErrNoStat — показатель в тексте не найден; значение считается неизвестным.
var ErrNoStat = errors.New("stat not found")

var (
	reEnergy = regexp.MustCompile(`(?:⚡|энерги[яи])\D{0,6}?(-?\d+)`)
	reHP     = regexp.MustCompile(`(?:❤|здоровье|хп|hp)\D{0,6}?(-?\d+)`)
)

// EnergyLevel — текущая энергия, например из «⚡ 3/10» или «энергия: 0».
func EnergyLevel(text string) (int, error) {
	return parseStat(reEnergy, text)
}

// HPLevel — текущее здоровье, например из «❤️ 120/300» или «hp 45».
func HPLevel(text string) (int, error) {
	return parseStat(reHP, text)
}

func parseStat(re *regexp.Regexp, text string) (int, error) {
	m := re.FindStringSubmatch(chat.StripMessage(text))
	if m == nil {
		return 0, ErrNoStat
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.Join(ErrNoStat, err)
	}
	return v, nil
}
