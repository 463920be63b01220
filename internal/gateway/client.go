package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EgorLis/tgfarm/internal/chat"
)

var ErrNotConnected = errors.New("gateway: not connected")

type Config struct {
	URL            string
	Token          string
	Retries        int           // подряд неудачных реконнектов до фатала; 0 — бесконечно
	RetryDelay     time.Duration // стартовый backoff
	RequestTimeout time.Duration
}

type Client struct {
	cfg Config
	log *slog.Logger

	cmu  sync.RWMutex
	conn *websocket.Conn

	seq    uint32
	mu     sync.Mutex
	cbs    map[uint32]func(*Message) bool
	closed atomic.Bool

	wmu          sync.Mutex    // сериализует запись в websocket
	pingStop     chan struct{} // стоп-канал для ping-горутины
	lastActivity atomic.Int64  // unix nanos последнего успешного приёма

	OnConnecting   func()
	OnConnected    func()
	OnUpdate       func(chat.Event)
	OnDisconnected func()
	OnError        func(error)
	OnFatal        func(error)
}

func New(cfg Config, log *slog.Logger) *Client {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg: cfg,
		log: log.With("component", "gateway"),
		cbs: make(map[uint32]func(*Message) bool),
	}
}

// Connect устанавливает WebSocket и запускает readLoop.
// Отмена ctx мягко завершает readLoop.
func (c *Client) Connect(ctx context.Context) error {
	if c.OnConnecting != nil {
		c.OnConnecting()
	}
	conn, err := c.dialAndSetup(ctx)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	c.setConn(conn)
	c.closed.Store(false)

	if c.OnConnected != nil {
		c.OnConnected()
	}

	go c.readLoop(ctx)
	return nil
}

func (c *Client) Disconnect() {
	if c.closed.Swap(true) {
		return
	}
	c.closeConn()
	if c.OnDisconnected != nil {
		c.OnDisconnected()
	}
}

func (c *Client) IsConnected() bool {
	return c.getConn() != nil && !c.closed.Load()
}

// SendRequest отправляет Request, проставляя seq и токен.
// Если cb != nil, он будет вызван на ответ с тем же seq; если cb вернёт true,
// OnUpdate для этого кадра не вызывается.
func (c *Client) SendRequest(req *Request, cb func(*Message) bool) error {
	conn := c.getConn()
	if conn == nil {
		return ErrNotConnected
	}
	seq := c.nextSeq()
	req.Seq = seq
	req.Token = c.cfg.Token

	data, err := EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", req.Method, err)
	}

	if cb != nil {
		c.mu.Lock()
		c.cbs[seq] = cb
		c.mu.Unlock()
	}

	// запись строго через один мьютекс + write-deadline
	c.wmu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	werr := conn.WriteMessage(websocket.BinaryMessage, data)
	c.wmu.Unlock()

	if werr != nil {
		// сеть упала между подготовкой и записью — подчищаем cb
		c.mu.Lock()
		delete(c.cbs, seq)
		c.mu.Unlock()
		return werr
	}
	return nil
}

// SendRequestAsync отправляет запрос и ждёт ответ не дольше timeout.
func (c *Client) SendRequestAsync(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	respCh := make(chan *Response, 1)
	errCh := make(chan error, 1)

	err := c.SendRequest(req, func(m *Message) bool {
		r := m.Response
		if r == nil {
			return false
		}
		if r.Error != "" {
			errCh <- fmt.Errorf("%s: %s", req.Method, r.Error)
			return true
		}
		respCh <- r
		return true
	})
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-respCh:
		return r, nil
	case e := <-errCh:
		return nil, e
	case <-ctx.Done():
		c.dropCallback(req.Seq)
		return nil, ctx.Err()
	case <-timer.C:
		c.dropCallback(req.Seq)
		return nil, fmt.Errorf("%s: timeout waiting for response", req.Method)
	}
}

func (c *Client) dropCallback(seq uint32) {
	c.mu.Lock()
	delete(c.cbs, seq)
	c.mu.Unlock()
}

func (c *Client) dialHeader() http.Header {
	h := http.Header{}
	if c.cfg.Token != "" {
		h.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return h
}
