package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const maxBackoff = 30 * time.Second

func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		c.closed.Store(true)
		c.closeConn()
		if c.OnDisconnected != nil {
			c.OnDisconnected()
		}
	}()

	// закрыть по отмене контекста
	go func() {
		<-ctx.Done()
		c.closed.Store(true)
		c.closeConn()
	}()

	for {
		conn := c.getConn()
		if conn == nil {
			c.reportError(errors.New("connection is nil"))
		} else {
			_, data, err := conn.ReadMessage()
			if err == nil {
				c.touchActivity()
				c.deliver(data)
				continue
			}
			c.reportError(err)
		}
		if c.closed.Load() {
			return
		}

		// закрываем и фейлим ожидающие
		c.closeConn()
		c.failPendingCallbacks(errors.New("connection lost"))

		if !c.reconnect(ctx) {
			return
		}
	}
}

func (c *Client) deliver(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		c.reportError(err)
		return
	}

	// callbacks по seq
	if resp := msg.Response; resp != nil && resp.Seq != 0 {
		c.mu.Lock()
		cb, ok := c.cbs[resp.Seq]
		if ok {
			delete(c.cbs, resp.Seq)
		}
		c.mu.Unlock()
		if ok && cb(msg) {
			return
		}
	}

	if msg.Update != nil && c.OnUpdate != nil {
		c.OnUpdate(*msg.Update)
	}
}

// reconnect с экспоненциальным backoff. false — клиент закрыт или попытки исчерпаны.
func (c *Client) reconnect(ctx context.Context) bool {
	backoff := c.cfg.RetryDelay
	attempts := 0
	for !c.closed.Load() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		conn, err := c.dialAndSetup(ctx)
		if err != nil {
			attempts++
			c.reportError(fmt.Errorf("reconnect failed (attempt %d, wait %v): %w", attempts, backoff, err))
			if c.cfg.Retries > 0 && attempts >= c.cfg.Retries {
				if c.OnFatal != nil {
					c.OnFatal(fmt.Errorf("reconnect failed after %d attempts: %w", attempts, err))
				}
				return false
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		c.setConn(conn)
		c.log.Info("reconnected", "attempts", attempts+1)
		if c.OnConnected != nil {
			c.OnConnected()
		}
		return true
	}
	return false
}

func (c *Client) reportError(err error) {
	if c.closed.Load() {
		return
	}
	if c.OnError != nil {
		c.OnError(err)
		return
	}
	c.log.Warn("gateway error", "error", err)
}

// пометить все ожидающие callbacks ошибкой при реконнекте/закрытии
func (c *Client) failPendingCallbacks(err error) {
	c.mu.Lock()
	pending := c.cbs
	c.cbs = make(map[uint32]func(*Message) bool)
	c.mu.Unlock()

	for seq, cb := range pending {
		if cb == nil {
			continue
		}
		cb(&Message{Response: &Response{Seq: seq, Error: err.Error()}})
	}
}
