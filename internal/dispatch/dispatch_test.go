package dispatch

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/EgorLis/tgfarm/internal/chat"
	"github.com/EgorLis/tgfarm/internal/game"
)

func TestDispatchFirstMatchWins(t *testing.T) {
	var calls []string
	rec := func(name string) Handler {
		return func(context.Context, chat.Event) { calls = append(calls, name) }
	}
	table := Table{
		{State: game.Initialization, Handle: rec("init")},
		{State: game.MonsterFound, Handle: rec("fight")},
		{State: game.MonsterFound, Handle: rec("shadowed")},
	}
	d := New(table, nil, nil)

	ev := chat.Event{
		Text: "На пути у вас встретился волк",
		Rows: [][]chat.Button{{{Label: "🔪 Атаковать"}}},
	}
	for i := 0; i < 3; i++ {
		if got := d.Dispatch(context.Background(), ev); got != game.MonsterFound {
			t.Fatalf("state = %s", got)
		}
	}
	if strings.Join(calls, ",") != "fight,fight,fight" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDispatchOrderDecidesOverlap(t *testing.T) {
	ev := chat.Event{
		Text: "Кнопочки. Пора в бой",
		Rows: [][]chat.Button{{{Label: "🐣 Лес"}}},
	}
	var got string
	table := Table{
		{State: game.Initialization, Handle: func(context.Context, chat.Event) { got = "init" }},
		{State: game.AtLocations, Handle: func(context.Context, chat.Event) { got = "locations" }},
	}
	New(table, nil, nil).Dispatch(context.Background(), ev)
	if got != "init" {
		t.Fatalf("got %q", got)
	}
}

func TestDispatchSkipLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	called := false
	table := Table{{State: game.MonsterFound, Handle: func(context.Context, chat.Event) { called = true }}}
	d := New(table, nil, log)

	state := d.Dispatch(context.Background(), chat.Event{Text: "просто текст"})
	if state != game.Unknown || called {
		t.Fatalf("state=%s called=%v", state, called)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.Contains(out, "skip event") || !strings.Contains(out, "level=DEBUG") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestCustomMatch(t *testing.T) {
	hit := false
	table := Table{{
		State:  game.HPRecovered,
		Match:  func(ev chat.Event) bool { return ev.Edited },
		Handle: func(context.Context, chat.Event) { hit = true },
	}}
	New(table, nil, nil).Dispatch(context.Background(), chat.Event{Edited: true})
	if !hit {
		t.Fatal("custom matcher ignored")
	}
	if s := table.States(); len(s) != 1 || s[0] != game.HPRecovered {
		t.Fatalf("states = %v", s)
	}
}
