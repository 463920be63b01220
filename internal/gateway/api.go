package gateway

import (
	"context"
	"strings"

	"github.com/EgorLis/tgfarm/internal/chat"
)

// ========================= high-level API =========================

var _ chat.Transport = (*Client)(nil)

func (c *Client) call(ctx context.Context, req *Request) (*Response, error) {
	return c.SendRequestAsync(ctx, req, c.cfg.RequestTimeout)
}

func (c *Client) Me(ctx context.Context) (chat.Peer, error) {
	resp, err := c.call(ctx, &Request{Method: MethodGetMe})
	if err != nil {
		return chat.Peer{}, err
	}
	return chat.Peer{ID: resp.PeerID, Username: resp.PeerUsername}, nil
}

func (c *Client) ResolvePeer(ctx context.Context, username string) (chat.Peer, error) {
	resp, err := c.call(ctx, &Request{
		Method:   MethodResolvePeer,
		Username: strings.TrimPrefix(strings.TrimSpace(username), "@"),
	})
	if err != nil {
		return chat.Peer{}, err
	}
	return chat.Peer{ID: resp.PeerID, Username: resp.PeerUsername}, nil
}

func (c *Client) SendText(ctx context.Context, peer int64, text string) error {
	_, err := c.call(ctx, &Request{Method: MethodSendMessage, Peer: peer, Text: text})
	return err
}

// PressButton нажимает inline-кнопку сообщения msgID по её токену.
func (c *Client) PressButton(ctx context.Context, peer int64, msgID int64, token []byte) error {
	_, err := c.call(ctx, &Request{
		Method:      MethodPressButton,
		Peer:        peer,
		MessageID:   msgID,
		ButtonToken: token,
	})
	return err
}

func (c *Client) MarkRead(ctx context.Context, peer int64, msgID int64) error {
	_, err := c.call(ctx, &Request{Method: MethodMarkRead, Peer: peer, MessageID: msgID})
	return err
}

func (c *Client) DownloadMedia(ctx context.Context, peer int64, msgID int64) ([]byte, error) {
	resp, err := c.call(ctx, &Request{Method: MethodDownloadMedia, Peer: peer, MessageID: msgID})
	if err != nil {
		return nil, err
	}
	return resp.Media, nil
}
