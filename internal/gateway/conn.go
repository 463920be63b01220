package gateway

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ========================= low-level =========================

const (
	pingPeriod = 10 * time.Second
	pongWait   = 30 * time.Second
	readLimit  = 64 << 20
)

func (c *Client) nextSeq() uint32 {
	return atomic.AddUint32(&c.seq, 1)
}

func (c *Client) getConn() *websocket.Conn {
	c.cmu.RLock()
	defer c.cmu.RUnlock()
	return c.conn
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.cmu.Lock()
	c.conn = conn
	c.cmu.Unlock()
}

// dial с установкой pong-handler'а, дедлайнов и запуском пингов
func (c *Client) dialAndSetup(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, c.dialHeader())
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(readLimit)

	c.touchActivity()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		c.touchActivity()
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.startPing(conn)
	return conn, nil
}

// безопасно закрыть текущее соединение
func (c *Client) closeConn() {
	c.stopPing()
	c.cmu.Lock()
	conn := c.conn
	c.conn = nil
	c.cmu.Unlock()
	if conn == nil {
		return
	}
	c.wmu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
		time.Now().Add(500*time.Millisecond))
	c.wmu.Unlock()
	_ = conn.Close()
}

func (c *Client) touchActivity() {
	c.lastActivity.Store(time.Now().UnixNano())
}

func (c *Client) sinceLastActivity() time.Duration {
	n := c.lastActivity.Load()
	if n == 0 {
		return time.Hour
	}
	return time.Since(time.Unix(0, n))
}

func (c *Client) startPing(conn *websocket.Conn) {
	c.stopPing()
	stop := make(chan struct{})
	c.mu.Lock()
	c.pingStop = stop
	c.mu.Unlock()

	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.wmu.Lock()
				err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
				c.wmu.Unlock()
				if err != nil {
					c.log.Debug("ping failed", "error", err, "idle", c.sinceLastActivity())
				}
			case <-stop:
				return
			}
		}
	}()
}

func (c *Client) stopPing() {
	c.mu.Lock()
	stop := c.pingStop
	c.pingStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}
