package chat

import "strings"

// Button — одна кнопка клавиатуры.
type Button struct {
	Label string
	Token []byte // непрозрачная ссылка для inline-кнопки; пустая у reply-кнопок
}

// Event — снимок одного входящего сообщения.
type Event struct {
	ID       int64
	ChatID   int64
	SenderID int64
	Text     string
	Rows     [][]Button
	HasMedia bool
	Edited   bool
	Outgoing bool
}

// StripMessage убирает переводы строк, обрезает пробелы и приводит к нижнему регистру.
func StripMessage(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// FlatButtons возвращает все кнопки события по порядку (строка за строкой).
func FlatButtons(ev Event) []Button {
	out := make([]Button, 0, len(ev.Rows)*2)
	for _, row := range ev.Rows {
		out = append(out, row...)
	}
	return out
}

// Normalize — нормализованный текст и плоский список кнопок. Всегда успешна.
func Normalize(ev Event) (string, []Button) {
	return StripMessage(ev.Text), FlatButtons(ev)
}

// Labels — подписи кнопок (для логов и реестра).
func Labels(buttons []Button) []string {
	out := make([]string, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, b.Label)
	}
	return out
}

// Truncate обрезает строку до limit рун; limit <= 0 — без ограничения.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
