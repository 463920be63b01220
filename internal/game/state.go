package game

import (
	"strings"

	"github.com/EgorLis/tgfarm/internal/chat"
)

// State — семантическое состояние игры, выведенное из одного сообщения.
type State int

const (
	Unknown State = iota
	Initialization
	AtLocations
	MonsterFound
	MonsterNotFound
	FightWon
	FightLost
	InTown
	Revived
	HPRecovered
	EnergyDepleted
	EnergyRecovered
	EnteringDungeonZone
	ChooseDungeon
	ConfirmDungeon
	DungeonFinished
	CaptchaChallenge
)

var stateNames = map[State]string{
	Unknown:             "unknown",
	Initialization:      "initialization",
	AtLocations:         "at-locations-menu",
	MonsterFound:        "monster-found",
	MonsterNotFound:     "monster-not-found",
	FightWon:            "fight-won",
	FightLost:           "fight-lost",
	InTown:              "in-town",
	Revived:             "revived",
	HPRecovered:         "hp-recovered",
	EnergyDepleted:      "energy-depleted",
	EnergyRecovered:     "energy-recovered",
	EnteringDungeonZone: "entering-dungeon-zone",
	ChooseDungeon:       "choose-dungeon",
	ConfirmDungeon:      "confirm-dungeon",
	DungeonFinished:     "dungeon-finished",
	CaptchaChallenge:    "captcha-challenge",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// trigger — подстроки состояния и требование непустой клавиатуры.
type trigger struct {
	patterns    []string
	needButtons bool
}

// Канонический набор фраз. Для «смерти», «воскрешения» и «нет энергии»
// принимаются обе известные формулировки.
var triggers = map[State]trigger{
	Initialization:      {patterns: []string{"кнопочки"}, needButtons: true},
	AtLocations:         {patterns: []string{"пора в бой"}, needButtons: true},
	MonsterFound:        {patterns: []string{"на пути у вас встретился", "ты наткнулся на"}},
	MonsterNotFound:     {patterns: []string{"вы ещё не нашли монстра"}},
	FightWon:            {patterns: []string{"ты одержал победу"}},
	FightLost:           {patterns: []string{"ты воскреснешь в", "к сожалению ты умер"}},
	InTown:              {patterns: []string{"ты дошел до локации"}, needButtons: true},
	Revived:             {patterns: []string{"ты снова жив", "ты снова в строю"}},
	HPRecovered:         {patterns: []string{"здоровье пополнено"}},
	EnergyDepleted:      {patterns: []string{"недостаточно энергии", "[у кого-то в группе меньше 2 единиц энергии]"}},
	EnergyRecovered:     {patterns: []string{"к энергии"}},
	EnteringDungeonZone: {patterns: []string{"вперед на встречу с монстрами"}},
	ChooseDungeon:       {patterns: []string{"какой данж запустим"}},
	ConfirmDungeon:      {patterns: []string{"что хочешь попробовать пройти данж"}},
	DungeonFinished:     {patterns: []string{"вы успешно прошли"}},
	CaptchaChallenge:    {patterns: []string{"прежде чем выполнять какие-то действия в игре"}, needButtons: true},
}

// Catalogue — все состояния в каноническом порядке (он же разрешает ничьи).
var Catalogue = []State{
	Initialization,
	AtLocations,
	MonsterFound,
	MonsterNotFound,
	FightWon,
	FightLost,
	InTown,
	Revived,
	HPRecovered,
	EnergyDepleted,
	EnergyRecovered,
	EnteringDungeonZone,
	ChooseDungeon,
	ConfirmDungeon,
	DungeonFinished,
	CaptchaChallenge,
}

// Is проверяет, соответствует ли событие состоянию s.
func Is(s State, ev chat.Event) bool {
	tr, ok := triggers[s]
	if !ok {
		return false
	}
	text, buttons := chat.Normalize(ev)
	if tr.needButtons && len(buttons) == 0 {
		return false
	}
	for _, p := range tr.patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Predicate возвращает предикат состояния для таблицы диспетчера.
func Predicate(s State) func(chat.Event) bool {
	return func(ev chat.Event) bool { return Is(s, ev) }
}

// Classify — первое состояние из order, которому соответствует событие.
// Пустой order — порядок каталога.
func Classify(ev chat.Event, order []State) State {
	if len(order) == 0 {
		order = Catalogue
	}
	for _, s := range order {
		if Is(s, ev) {
			return s
		}
	}
	return Unknown
}
