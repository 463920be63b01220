package chat

import "context"

// Peer — разрешённый собеседник (игровой бот или «Избранное»).
type Peer struct {
	ID       int64
	Username string
}

// Transport — сессия чата. Реализация: gateway.Client.
type Transport interface {
	Me(ctx context.Context) (Peer, error)
	ResolvePeer(ctx context.Context, username string) (Peer, error)
	SendText(ctx context.Context, peer int64, text string) error
	PressButton(ctx context.Context, peer int64, msgID int64, token []byte) error
	MarkRead(ctx context.Context, peer int64, msgID int64) error
	DownloadMedia(ctx context.Context, peer int64, msgID int64) ([]byte, error)
}
