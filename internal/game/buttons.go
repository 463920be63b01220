package game

// Маркеры кнопок: подпись кнопки ищется по вхождению символа.
const (
	ToLocations = "☠"
	ToDungeons  = "♟"
	Heal        = "💖"
	Yes         = "✅"
	ToFightZone = "🐣"
	ToTown      = "🏛"
	Attack      = "🔪"
	FindMonster = "🐺"
)

// ConfirmLabel — inline-кнопка подтверждения запуска данжа.
const ConfirmLabel = "✅Да"

// ButtonsCommand просит игрового бота прислать актуальную клавиатуру.
const ButtonsCommand = "/buttons"
