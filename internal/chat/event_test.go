package chat

import (
	"reflect"
	"testing"
)

func TestStripMessage(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  Пора В БОЙ  ", "пора в бой"},
		{"Ты дошел\nдо локации", "ты дошел до локации"},
		{"a\r\nb", "a b"},
	}
	for _, c := range cases {
		if got := StripMessage(c.in); got != c.want {
			t.Errorf("StripMessage(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeFlattensRowsInOrder(t *testing.T) {
	ev := Event{
		Text: "Кнопочки\n",
		Rows: [][]Button{
			{{Label: "💖 Лечиться"}, {Label: "☠ Локации"}},
			{{Label: "♟ Данжи"}},
		},
	}
	text, buttons := Normalize(ev)
	if text != "кнопочки" {
		t.Fatalf("text = %q", text)
	}
	want := []string{"💖 Лечиться", "☠ Локации", "♟ Данжи"}
	if got := Labels(buttons); !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %v, want %v", got, want)
	}
}

func TestNormalizeWithoutButtons(t *testing.T) {
	_, buttons := Normalize(Event{Text: "x"})
	if buttons == nil || len(buttons) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", buttons)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("привет", 3); got != "при" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
