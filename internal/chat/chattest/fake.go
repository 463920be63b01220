// Package chattest — запоминающий Transport для тестов.
package chattest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EgorLis/tgfarm/internal/chat"
)

// Action — одно исходящее действие.
type Action struct {
	Kind  string // "text" | "press" | "read"
	Peer  int64
	MsgID int64
	Text  string
	Token []byte
}

type Transport struct {
	MePeer chat.Peer
	Peers  map[string]chat.Peer
	Media  []byte
	SendErr error

	// ReadDelay — задержка MarkRead, медленный транспорт. Задаётся до запуска.
	ReadDelay time.Duration

	mu      sync.Mutex
	actions []Action
	notify  chan Action
}

func New(me chat.Peer, peers ...chat.Peer) *Transport {
	t := &Transport{
		MePeer: me,
		Peers:  make(map[string]chat.Peer),
		notify: make(chan Action, 64),
	}
	for _, p := range peers {
		t.Peers[p.Username] = p
	}
	return t
}

func (t *Transport) Me(context.Context) (chat.Peer, error) { return t.MePeer, nil }

func (t *Transport) ResolvePeer(_ context.Context, username string) (chat.Peer, error) {
	p, ok := t.Peers[username]
	if !ok {
		return chat.Peer{}, fmt.Errorf("peer %s not found", username)
	}
	return p, nil
}

func (t *Transport) SendText(_ context.Context, peer int64, text string) error {
	if t.SendErr != nil {
		return t.SendErr
	}
	t.record(Action{Kind: "text", Peer: peer, Text: text})
	return nil
}

func (t *Transport) PressButton(_ context.Context, peer, msgID int64, token []byte) error {
	if t.SendErr != nil {
		return t.SendErr
	}
	t.record(Action{Kind: "press", Peer: peer, MsgID: msgID, Token: token})
	return nil
}

func (t *Transport) MarkRead(_ context.Context, peer, msgID int64) error {
	if t.ReadDelay > 0 {
		time.Sleep(t.ReadDelay)
	}
	t.record(Action{Kind: "read", Peer: peer, MsgID: msgID})
	return nil
}

func (t *Transport) DownloadMedia(context.Context, int64, int64) ([]byte, error) {
	return t.Media, nil
}

func (t *Transport) record(a Action) {
	t.mu.Lock()
	t.actions = append(t.actions, a)
	t.mu.Unlock()
	select {
	case t.notify <- a:
	default:
	}
}

// Actions — копия всех записанных действий.
func (t *Transport) Actions() []Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Action(nil), t.actions...)
}

// Outgoing — только игровые действия (без отметок о прочтении).
func (t *Transport) Outgoing() []Action {
	var out []Action
	for _, a := range t.Actions() {
		if a.Kind != "read" {
			out = append(out, a)
		}
	}
	return out
}

// Recorded — канал, в который дублируется каждое действие (для ожидания в тестах).
func (t *Transport) Recorded() <-chan Action { return t.notify }

func (t *Transport) Reset() {
	t.mu.Lock()
	t.actions = nil
	t.mu.Unlock()
	for {
		select {
		case <-t.notify:
		default:
			return
		}
	}
}

var _ chat.Transport = (*Transport)(nil)
